// internal/market/normalize_test.go
package market

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain short code pads to width", in: "23", want: "0023"},
		{name: "float typed column", in: "77.0", want: "0077"},
		{name: "already padded", in: "0077", want: "0077"},
		{name: "whitespace trimmed", in: " 0077 ", want: "0077"},
		{name: "thousands separator stripped", in: "1,077", want: "1077"},
		{name: "long code kept as is", in: "7530145", want: "7530145"},
		{name: "float long code", in: "7530145.0", want: "7530145"},
		{name: "nan sentinel", in: "nan", want: ""},
		{name: "none sentinel", in: "None", want: ""},
		{name: "null sentinel", in: "NULL", want: ""},
		{name: "empty", in: "", want: ""},
		{name: "blank", in: "   ", want: ""},
		{name: "non numeric passes through", in: "A-17", want: "A-17"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeCode(tt.in))
		})
	}
}

func TestNormalizeCodeIdempotent(t *testing.T) {
	samples := []string{"23", "77.0", "0077", "1,077", "7530145", "nan", "", "A-17", " 7 "}
	for _, s := range samples {
		once := NormalizeCode(s)
		require.Equal(t, once, NormalizeCode(once), "normalize(normalize(%q))", s)
	}
}

func TestNormalizeCodeValue(t *testing.T) {
	require.Equal(t, "", NormalizeCodeValue(nil))
	require.Equal(t, "0023", NormalizeCodeValue(23))
	require.Equal(t, "0077", NormalizeCodeValue(77.0))
	require.Equal(t, "0123", NormalizeCodeValue("123.0"))
	require.Equal(t, "0005", NormalizeCodeValue(int64(5)))
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1,234", 1234},
		{" 500 ", 500},
		{"12.0", 12},
		{"", 0},
		{"abc", 0},
		{"-3", -3},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ParseCount(tt.in), "ParseCount(%q)", tt.in)
	}
}

func TestParseAmount(t *testing.T) {
	require.Equal(t, int64(12345678), ParseAmount("12,345,678"))
	require.Equal(t, int64(0), ParseAmount("n/a"))
	require.Equal(t, int64(990), ParseAmount("990.0"))
}
