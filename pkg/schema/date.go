package schema

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used across all artifacts.
const DateLayout = "2006-01-02"

// Date is a calendar date that marshals to/from YYYY-MM-DD in JSON.
// Used for configuration values like policy effective dates where a
// full RFC 3339 timestamp would be noise.
type Date struct {
	time.Time
}

// NewDate builds a UTC midnight Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.Format(DateLayout))), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = t
	return nil
}
