package kabutan

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"kabuka/internal/price"
)

// ColumnNames are assigned positionally to the first eight columns of the price table.
// Anything after the eighth column is ignored.
var ColumnNames = []string{"date", "open", "high", "low", "close", "change", "change_percent", "volume"}

// MinColumns is the narrowest table that still matches the expected layout.
var MinColumns = len(ColumnNames)

const (
	// month and day may be zero padded or not
	shortDateLayout = "06/1/2"   // YY/MM/DD as shown on the site
	longDateLayout  = "2006/1/2" // YYYY/MM/DD
	volumeUnit      = "株"
)

// Stats describes what normalization had to coerce.
type Stats struct {
	Rows               int
	ConversionFailures int // non-empty cells that became null
	DateFallbacks      int // dates parsed with the four-digit-year layout
	NullDates          int
}

// Normalize converts a parsed table into a series sorted by date, most recent first.
// A table narrower than MinColumns yields ErrStructuralMismatch and no series.
// Cell-level problems never fail: the cell becomes null and is counted in Stats.
func Normalize(t Table) (price.Series, Stats, error) {
	if n := t.Columns(); n < MinColumns {
		return price.Series{}, Stats{}, fmt.Errorf("%w: want at least %d columns, got %d", ErrStructuralMismatch, MinColumns, n)
	}

	stats := Stats{Rows: len(t.Rows)}
	records := make([]price.Record, 0, len(t.Rows))

	num := func(s string, trimSuffix string) *float64 {
		v, failed := parseNumber(s, trimSuffix)
		if failed {
			stats.ConversionFailures++
		}
		return v
	}

	for _, row := range t.Rows {
		cell := func(i int) string {
			if i < len(row) {
				return row[i]
			}
			return ""
		}

		rec := price.Record{
			Open:          num(cell(1), ""),
			High:          num(cell(2), ""),
			Low:           num(cell(3), ""),
			Close:         num(cell(4), ""),
			Change:        num(cell(5), ""),
			ChangePercent: num(cell(6), "%"),
		}

		vol, failed := parseVolume(cell(7))
		if failed {
			stats.ConversionFailures++
		}
		rec.Volume = vol

		date, fallback := ParseDate(cell(0))
		switch {
		case date == nil:
			stats.NullDates++
			if !isEmptyCell(cell(0)) {
				stats.ConversionFailures++
			}
		case fallback:
			stats.DateFallbacks++
		}
		rec.Date = date

		records = append(records, rec)
	}

	series := price.Series{Records: records}
	series.SortByDateDesc()
	return series, stats, nil
}

// ParseDate parses a YY/MM/DD date, then retries the same untouched input as YYYY/MM/DD.
// fallback reports that the second layout matched. A nil date means neither did.
func ParseDate(raw string) (date *time.Time, fallback bool) {
	original := strings.TrimSpace(raw)
	if original == "" {
		return nil, false
	}

	if t, err := time.Parse(shortDateLayout, original); err == nil {
		return &t, false
	}
	if t, err := time.Parse(longDateLayout, original); err == nil {
		return &t, true
	}
	return nil, false
}

// parseNumber strips thousands separators and an optional suffix and parses a float.
// Empty cells and dash placeholders are null without counting as a failure.
func parseNumber(raw, trimSuffix string) (v *float64, failed bool) {
	s := cleanNumber(raw)
	if trimSuffix != "" {
		s = strings.TrimSpace(strings.TrimSuffix(s, trimSuffix))
	}
	if isEmptyCell(s) {
		return nil, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, true
	}
	return &f, false
}

// parseVolume parses a share count such as "1,000,000株".
// A float without a fractional part is accepted; negative counts are rejected.
func parseVolume(raw string) (v *int64, failed bool) {
	s := strings.TrimSpace(strings.TrimSuffix(cleanNumber(raw), volumeUnit))
	if isEmptyCell(s) {
		return nil, false
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt64 {
			return nil, true
		}
		n = int64(f)
	}
	if n < 0 {
		return nil, true
	}
	return &n, false
}

func cleanNumber(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
}

// isEmptyCell reports blank cells and the dash placeholder ("-", "---") used for missing values
func isEmptyCell(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.Trim(s, "-") == ""
}
