// pkg/decode/decode.go
package decode

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Text strips the spreadsheet-export wrapper (="...") from a raw cell value.
// Values without the wrapper pass through unchanged, which makes the
// operation idempotent.
func Text(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, `="`) && strings.HasSuffix(raw, `"`) && len(raw) >= 3 {
		return raw[2 : len(raw)-1]
	}
	return raw
}

// Amount parses a German-formatted number (thousands separator ".", decimal
// separator ",") into a float. Empty, malformed, or non-numeric input
// decodes to 0.0; downstream consumers rely on this default and never see
// an error.
func Amount(raw string) float64 {
	v, err := AmountStrict(raw)
	if err != nil {
		return 0.0
	}
	return v
}

// AmountStrict is the strict-mode variant of Amount: instead of defaulting
// to 0.0 it reports why the value could not be decoded, so tests can tell a
// genuine zero from a parse failure.
func AmountStrict(raw string) (float64, error) {
	s := Text(raw)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount %q: %w", raw, err)
	}
	return d.InexactFloat64(), nil
}

// Date parses a German-formatted date (DD.MM.YYYY). The second return value
// reports presence: invalid or blank input decodes to absent, never an
// error.
func Date(raw string) (time.Time, bool) {
	t, err := DateStrict(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DateStrict is the strict-mode variant of Date.
func DateStrict(raw string) (time.Time, error) {
	s := Text(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("expected DD.MM.YYYY, got %q", raw)
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse day in %q: %w", raw, err)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse month in %q: %w", raw, err)
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse year in %q: %w", raw, err)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date out of range: %q", raw)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31.04 becomes 01.05); reject that.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("invalid calendar date: %q", raw)
	}
	return t, nil
}
