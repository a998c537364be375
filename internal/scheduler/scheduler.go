// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// JobStatus describes a registered job and its most recent run
type JobStatus struct {
	Name         string        `json:"name"`
	Schedule     string        `json:"schedule"`
	Next         time.Time     `json:"next"`
	LastRun      time.Time     `json:"last_run,omitempty"`
	LastDuration time.Duration `json:"last_duration_ns"`
	LastError    string        `json:"last_error,omitempty"`
	Runs         int           `json:"runs"`
	Skipped      int           `json:"skipped"`
}

type entry struct {
	id       cron.EntryID
	job      Job
	schedule string

	mu      sync.Mutex
	running bool
	status  JobStatus
}

// Scheduler manages background jobs.
//
// A job whose previous run is still in progress when its schedule fires
// again is skipped for that tick, so a slow solve never piles up.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// New creates a new scheduler. Schedules take a leading seconds field.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		log:     log.With().Str("component", "scheduler").Logger(),
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", s.Jobs()).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers job under schedule. Job names must be unique.
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "@hourly"            - Every hour
//   - "0 0 9 * * MON-FRI"  - 9 AM weekdays
//   - "@every 30s"         - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[job.Name()]; exists {
		return fmt.Errorf("job %s already registered", job.Name())
	}

	e := &entry{job: job, schedule: schedule}
	e.status = JobStatus{Name: job.Name(), Schedule: schedule}

	id, err := s.cron.AddFunc(schedule, func() { s.execute(e, false) })
	if err != nil {
		return err
	}
	e.id = id
	s.entries[job.Name()] = e

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// RunNow executes a job immediately (outside schedule). A registered job
// that is already running is not started twice.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")

	s.mu.RLock()
	e, ok := s.entries[job.Name()]
	s.mu.RUnlock()
	if !ok {
		return job.Run()
	}
	return s.execute(e, true)
}

// Status returns every registered job ordered by name
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobStatus, 0, len(s.entries))
	for _, e := range s.entries {
		e.mu.Lock()
		status := e.status
		e.mu.Unlock()
		status.Next = s.cron.Entry(e.id).Next
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) execute(e *entry, manual bool) error {
	e.mu.Lock()
	if e.running {
		e.status.Skipped++
		e.mu.Unlock()
		s.log.Warn().Str("job", e.job.Name()).Msg("Job still running, skipping")
		if manual {
			return fmt.Errorf("job %s is already running", e.job.Name())
		}
		return nil
	}
	e.running = true
	e.mu.Unlock()

	s.log.Debug().Str("job", e.job.Name()).Msg("Running job")
	start := s.now()
	err := e.job.Run()
	elapsed := s.now().Sub(start)

	e.mu.Lock()
	e.running = false
	e.status.Runs++
	e.status.LastRun = start
	e.status.LastDuration = elapsed
	e.status.LastError = ""
	if err != nil {
		e.status.LastError = err.Error()
	}
	e.mu.Unlock()

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", e.job.Name()).
			Dur("duration", elapsed).
			Msg("Job failed")
	} else {
		s.log.Debug().
			Str("job", e.job.Name()).
			Dur("duration", elapsed).
			Msg("Job completed")
	}
	return err
}
