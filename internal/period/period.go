// Package period names the monthly reporting periods flight records are
// delivered and cleaned in.
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is one calendar month
type Period struct {
	Year  int
	Month time.Month
}

// First and Last bound the on-time performance archive.
var (
	First = Period{Year: 1987, Month: time.October}
	Last  = Period{Year: 2015, Month: time.December}
)

// New returns the period for year and month
func New(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// Parse reads "YYYY-MM" or "YYYY_M"
func Parse(s string) (Period, error) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, "-_")
	if sep <= 0 {
		return Period{}, fmt.Errorf("invalid period %q: want YYYY-MM", s)
	}

	year, err := strconv.Atoi(s[:sep])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period year %q: %w", s, err)
	}
	month, err := strconv.Atoi(s[sep+1:])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period month %q: %w", s, err)
	}
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid period month %q", s)
	}

	return Period{Year: year, Month: time.Month(month)}, nil
}

// String formats the period as YYYY-MM
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// FileName is the name of the period's record file, e.g. 1987_10.csv
func (p Period) FileName() string {
	return fmt.Sprintf("%d_%d.csv", p.Year, int(p.Month))
}

// Next returns the following month
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Before reports whether p comes strictly before o
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Range lists every period from first through last inclusive. It is empty
// when last is before first.
func Range(first, last Period) []Period {
	var out []Period
	for p := first; !last.Before(p); p = p.Next() {
		out = append(out, p)
	}
	return out
}
