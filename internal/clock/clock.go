package clock

import (
	"fmt"
	"sync"
	"time"
)

// DateLayout is the business date format used for bill numbers and revenue keys.
const DateLayout = "2006-01-02"

// Clock supplies the current instant and business date.
type Clock interface {
	Now() time.Time
	BusinessDate() string
}

// System reads wall-clock time in the restaurant's timezone.
type System struct {
	loc *time.Location
}

// NewSystem builds a system clock for the named IANA timezone.
func NewSystem(timezone string) (*System, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", timezone, err)
	}
	return &System{loc: loc}, nil
}

func (s *System) Now() time.Time {
	return time.Now().In(s.loc)
}

func (s *System) BusinessDate() string {
	return s.Now().Format(DateLayout)
}

// Location is the timezone business dates are computed in.
func (s *System) Location() *time.Location {
	return s.loc
}

// Fixed is a settable clock for tests.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a clock frozen at now.
func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixed) BusinessDate() string {
	return f.Now().Format(DateLayout)
}

// Set moves the clock to now.
func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// ParseDate validates a YYYY-MM-DD business date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// MonthBounds returns the first and last calendar day of a month.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return first, last
}
