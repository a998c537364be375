package allocation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func w(symbol, weight string) Weight {
	return Weight{Symbol: symbol, Weight: decimal.RequireFromString(weight)}
}

func TestNewTarget_KeepsInsertionOrder(t *testing.T) {
	target := NewTarget(w("META", "0.4"), w("AAPL", "0.5"), w("META", "0.5"))

	assert.Equal(t, []string{"META", "AAPL"}, target.Symbols())
	weight, ok := target.Get("META")
	require.True(t, ok)
	assert.True(t, weight.Equal(decimal.RequireFromString("0.5")))
	assert.False(t, target.Has("GOOG"))
	assert.Equal(t, 2, target.Len())
}

func TestFromMap_SortsSymbols(t *testing.T) {
	target := FromMap(map[string]decimal.Decimal{
		"VUG":  decimal.RequireFromString("0.5"),
		"BND":  decimal.RequireFromString("0.3"),
		"IAUM": decimal.RequireFromString("0.2"),
	})
	assert.Equal(t, []string{"BND", "IAUM", "VUG"}, target.Symbols())
}

func TestTarget_ZeroValue(t *testing.T) {
	var target Target
	assert.True(t, target.IsEmpty())
	assert.False(t, target.Has("AAPL"))
	_, ok := target.Get("AAPL")
	assert.False(t, ok)
	assert.True(t, target.Sum().IsZero())
}

func TestTarget_Validate(t *testing.T) {
	tests := []struct {
		name    string
		target  Target
		wantErr bool
	}{
		{name: "exact sum", target: NewTarget(w("AAPL", "0.6"), w("META", "0.4"))},
		{name: "within tolerance", target: NewTarget(w("AAPL", "0.6"), w("META", "0.40009"))},
		{name: "single symbol", target: NewTarget(w("META", "1.0"))},
		{name: "zero weight allowed", target: NewTarget(w("AAPL", "1"), w("META", "0"))},
		{name: "sum 1.5", target: NewTarget(w("AAPL", "0.9"), w("META", "0.6")), wantErr: true},
		{name: "negative weight", target: NewTarget(w("AAPL", "1.1"), w("META", "-0.1")), wantErr: true},
		{name: "weight above one", target: NewTarget(w("AAPL", "1.2")), wantErr: true},
		{name: "outside tolerance", target: NewTarget(w("AAPL", "0.6"), w("META", "0.3998")), wantErr: true},
		{name: "empty", target: NewTarget(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidAllocation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTarget_JSONRoundTripKeepsOrder(t *testing.T) {
	var target Target
	err := json.Unmarshal([]byte(`{"ESGV": 0.31, "QQQM": "0.18", "FTEC": 0.51}`), &target)
	require.NoError(t, err)

	assert.Equal(t, []string{"ESGV", "QQQM", "FTEC"}, target.Symbols())
	weight, _ := target.Get("QQQM")
	assert.True(t, weight.Equal(decimal.RequireFromString("0.18")))

	encoded, err := json.Marshal(target)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ESGV":0.31,"QQQM":0.18,"FTEC":0.51}`, string(encoded))
	assert.Equal(t, `{"ESGV":0.31,"QQQM":0.18,"FTEC":0.51}`, string(encoded))
}

func TestTarget_UnmarshalRejectsNonObject(t *testing.T) {
	var target Target
	assert.Error(t, json.Unmarshal([]byte(`[0.5, 0.5]`), &target))
	assert.Error(t, json.Unmarshal([]byte(`{"AAPL": "abc"}`), &target))
}

func TestTarget_UnmarshalNullIsNoop(t *testing.T) {
	var holder struct {
		Target Target `json:"target"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"target": null}`), &holder))
	assert.True(t, holder.Target.IsEmpty())
}
