package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		firstLine string
		want      Dialect
	}{
		{
			name:      "action column header",
			firstLine: "Run Date,Account,Action,Symbol,Description,Type,Quantity,Price ($),Commission ($),Fees ($),Accrued Interest ($),Amount ($),Settlement Date",
			want:      DialectFidelity,
		},
		{
			name:      "account metadata line",
			firstLine: "For Account,####5678",
			want:      DialectETrade,
		},
		{
			name:      "historical marker",
			firstLine: "HistoricalData",
			want:      DialectHistorical,
		},
		{
			name:      "action wins over account",
			firstLine: "Run Date,Account,Action,Symbol",
			want:      DialectFidelity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.firstLine, "statements/export.csv")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_UnknownFormat(t *testing.T) {
	_, err := Detect("Date,Description,Amount", "statements/mystery.csv")
	require.ErrorIs(t, err, ErrUnknownFormat)
	assert.Contains(t, err.Error(), "statements/mystery.csv")
}

func TestDetect_Deterministic(t *testing.T) {
	line := "For Account,####5678"
	first, err := Detect(line, "a.csv")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := Detect(line, "a.csv")
		require.NoError(t, err)
		require.Equal(t, first, got)
	}
}

func TestDialect_FilterSubstring(t *testing.T) {
	assert.Equal(t, "dividend received", DialectFidelity.FilterSubstring())
	assert.Equal(t, "dividend", DialectETrade.FilterSubstring())
	assert.Equal(t, "", DialectHistorical.FilterSubstring())
}

func TestDialect_HasAccountColumn(t *testing.T) {
	assert.True(t, DialectFidelity.HasAccountColumn())
	assert.True(t, DialectETrade.HasAccountColumn())
	assert.False(t, DialectHistorical.HasAccountColumn())
}
