package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
)

func TestEncodeLayout(t *testing.T) {
	rec := record("id-1", "45.50", 2024, 3, 10)
	rec.Description = "Lunch"

	data, err := Encode([]core.ExpenseRecord{rec})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"id-1","amount":45.5,"category":"Food & Dining","date":"2024-03-10T00:00:00Z","description":"Lunch"}]`, string(data))
}

func TestDecodeAcceptsLegacyShapes(t *testing.T) {
	// Millisecond timestamps, string amounts, plain dates, missing description and
	// unknown fields all load.
	in := `[
		{"id":"1710054000000","amount":"12.30","category":"Travel","date":"2024-03-10T07:00:00.000Z","extra":true},
		{"id":"2","amount":7,"category":"Other","date":"2024-02-01","description":"x"}
	]`
	records, err := Decode([]byte(in))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "1710054000000", records[0].ID)
	assert.Equal(t, "12.30", core.FormatAmount(records[0].Amount))
	assert.Equal(t, core.Travel, records[0].Category)
	assert.Equal(t, "2024-03-10", records[0].Date.String())
	assert.Equal(t, "", records[0].Description)

	assert.Equal(t, "7.00", core.FormatAmount(records[1].Amount))
	assert.Equal(t, "2024-02-01", records[1].Date.String())
}

func TestDecodeEmpty(t *testing.T) {
	for _, in := range []string{"", "  ", "null", "[]"} {
		records, err := Decode([]byte(in))
		require.NoError(t, err, in)
		assert.Empty(t, records, in)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"{", `[{"date":"not a date"}]`, `[{"amount":"abc"}]`, `{"id":1}`} {
		_, err := Decode([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := []core.ExpenseRecord{record("b", "0.10", 1900, 1, 1), record("a", "99999.99", 2024, 12, 31)}
	data, err := Encode(in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `[{"id":"b"`))

	out, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for i := range in {
		assert.True(t, in[i].Date.Equal(out[i].Date.Time))
		assert.True(t, in[i].Amount.Equal(out[i].Amount))
	}
}
