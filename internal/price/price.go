// Package price holds the normalized daily price records produced by a fetch.
package price

import (
	"sort"
	"time"
)

// Record is one normalized row of the daily price table.
// A nil field means the source cell was empty or could not be converted.
type Record struct {
	Date          *time.Time `json:"date"`
	Open          *float64   `json:"open"`
	High          *float64   `json:"high"`
	Low           *float64   `json:"low"`
	Close         *float64   `json:"close"`
	Change        *float64   `json:"change"`
	ChangePercent *float64   `json:"change_percent"`
	Volume        *int64     `json:"volume"`
}

// HasOHLC reports whether the record can be drawn as a candlestick.
func (r Record) HasOHLC() bool {
	return r.Date != nil && r.Open != nil && r.High != nil && r.Low != nil && r.Close != nil
}

// Series is the price history of one symbol, most recent first.
type Series struct {
	Symbol    string    `json:"symbol"`
	FetchedAt time.Time `json:"fetched_at"`
	Records   []Record  `json:"records"`
}

// Len returns the number of records.
func (s Series) Len() int {
	return len(s.Records)
}

// SortByDateDesc orders records by date, most recent first.
// Records without a date keep their relative order and go last.
func (s *Series) SortByDateDesc() {
	sort.SliceStable(s.Records, func(i, j int) bool {
		a, b := s.Records[i].Date, s.Records[j].Date
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// Ascending returns the chartable records (full OHLC and a date) oldest first.
// The series itself is not modified.
func (s Series) Ascending() []Record {
	out := make([]Record, 0, len(s.Records))
	for _, r := range s.Records {
		if r.HasOHLC() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(*out[j].Date)
	})
	return out
}

// Latest returns the most recent dated record.
func (s Series) Latest() (Record, bool) {
	var (
		latest Record
		found  bool
	)
	for _, r := range s.Records {
		if r.Date == nil {
			continue
		}
		if !found || r.Date.After(*latest.Date) {
			latest, found = r, true
		}
	}
	return latest, found
}
