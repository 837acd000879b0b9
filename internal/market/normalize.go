// internal/market/normalize.go
package market

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// codeWidth is the conventional width of distributor and school codes.
// CSV type inference drops leading zeros ("0023" becomes 23), which used to
// silently merge distinct distributors; padding restores the original key.
const codeWidth = 4

// NormalizeCode canonicalizes a raw code string so values read as "77",
// "77.0", " 0077 " or "1,077" all land on one key. It never fails: anything
// unparseable falls back to the trimmed input.
func NormalizeCode(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return ""
	}

	lower := strings.ToLower(s)
	if lower == "nan" || lower == "none" || lower == "null" {
		return ""
	}

	// "123.0" style values come from float-typed CSV columns.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return ""
		}
		if f == math.Trunc(f) {
			s = strconv.FormatInt(int64(f), 10)
		}
	}

	if isDigits(s) && len(s) < codeWidth {
		s = strings.Repeat("0", codeWidth-len(s)) + s
	}

	return s
}

// NormalizeCodeValue accepts the loosely typed values a CSV/JSON layer hands
// over (string, int, float, nil) and routes them through NormalizeCode.
func NormalizeCodeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return NormalizeCode(val)
	case int:
		return NormalizeCode(strconv.Itoa(val))
	case int64:
		return NormalizeCode(strconv.FormatInt(val, 10))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ""
		}
		return NormalizeCode(strconv.FormatFloat(val, 'f', -1, 64))
	case float32:
		return NormalizeCodeValue(float64(val))
	default:
		return NormalizeCode(fmt.Sprintf("%v", val))
	}
}

// ParseCount parses a locale-formatted count ("1,234", " 500 ") into an int.
// Malformed values become 0 so one dirty cell never aborts a batch.
func ParseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	// Some exports render integer columns as floats.
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return 0
}

// ParseAmount is ParseCount for currency columns, kept wide for won amounts.
func ParseAmount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return 0
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
