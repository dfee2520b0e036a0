// Package normalize converts locale-specific price, mileage, year and fuel
// tokens into the canonical listing representation. Every function is pure.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ps-vitor/car-comparator/internal/domain"
)

var (
	// thousands groups separated by dot, comma, space or no-break space
	mileagePattern = regexp.MustCompile(`\b(\d{1,3}(?:[.,\s\x{00a0}\x{202f}]\d{3})+|\d+)\s*km`)
	yearPattern    = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	nonDigit       = regexp.MustCompile(`\D`)
)

var currencySymbols = map[string]string{
	"EUR": "€",
	"NOK": "kr",
	"USD": "$",
}

// Vocabulary maps lower-cased source-local fuel words to the canonical enum.
type Vocabulary map[string]domain.FuelType

// Text collapses runs of whitespace and trims the result.
func Text(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// PriceDisplay keeps the source rendering of a price, whitespace collapsed.
func PriceDisplay(raw string) string {
	return Text(raw)
}

// ParseAmount extracts a numeric amount from a structured-data price value,
// which sources deliver either as a JSON number or as a formatted string.
// Non-digit characters are stripped, so "kr 189 900,-" yields 189900.
func ParseAmount(raw any) (float64, bool) {
	var s string
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return v, v > 0
	case int:
		return float64(v), v > 0
	case json.Number:
		s = v.String()
		if f, err := v.Float64(); err == nil {
			return f, f > 0
		}
	case string:
		s = v
	default:
		return 0, false
	}
	digits := nonDigit.ReplaceAllString(s, "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(digits, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// CurrencySymbol returns the display symbol for an ISO code, or the code itself.
func CurrencySymbol(code string) string {
	if sym, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return sym
	}
	return code
}

// FormatPrice renders an amount for display: symbol, then digits grouped by
// spaces. Multi-letter symbols are separated from the digits by a space.
func FormatPrice(amount float64, currency string) string {
	sym := CurrencySymbol(currency)
	digits := group(int64(amount+0.5), ' ')
	if len([]rune(sym)) > 1 {
		return sym + " " + digits
	}
	return sym + digits
}

// Mileage finds a "<number> km" token in raw, drops its thousands separators
// and renders it with comma grouping. It also returns the kilometres as an int.
func Mileage(raw string) (string, int, bool) {
	m := mileagePattern.FindStringSubmatch(raw)
	if m == nil {
		return "", 0, false
	}
	km, err := strconv.Atoi(nonDigit.ReplaceAllString(m[1], ""))
	if err != nil {
		return "", 0, false
	}
	return FormatMileage(km), km, true
}

// FormatMileage renders kilometres as "12,345 km".
func FormatMileage(km int) string {
	return group(int64(km), ',') + " km"
}

// Year returns the first plausible 4-digit model year in raw.
func Year(raw string) (int, bool) {
	m := yearPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	y, err := strconv.Atoi(m[1])
	return y, err == nil
}

// Fuel maps a fuel word to the enum: vocabulary first, then the canonical
// names themselves; anything else is Unknown.
func Fuel(token string, vocab Vocabulary) domain.FuelType {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return domain.FuelUnknown
	}
	if f, ok := vocab[t]; ok {
		return f
	}
	if f, ok := domain.CanonicalFuel(t); ok {
		return f
	}
	return domain.FuelUnknown
}

// FindFuel scans free text word by word and returns the first word the
// vocabulary or the canonical set recognizes. Compound words such as
// "El+bensin" are matched whole before their parts.
func FindFuel(text string, vocab Vocabulary) domain.FuelType {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-' && r != '+'
	})
	for _, w := range words {
		w = strings.Trim(w, "+-")
		if f := Fuel(w, vocab); f != domain.FuelUnknown {
			return f
		}
		if !strings.Contains(w, "+") {
			continue
		}
		for _, part := range strings.Split(w, "+") {
			if f := Fuel(part, vocab); f != domain.FuelUnknown {
				return f
			}
		}
	}
	return domain.FuelUnknown
}

func group(n int64, sep byte) string {
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
