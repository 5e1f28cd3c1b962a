// Package clock provides the wall-clock collaborator for the core.
package clock

import (
	"sync"
	"time"

	"github.com/desafio-logico/desafio/internal/domain"
)

// DayFormat is the YYYYMMDD layout used for every day-scoped key.
const DayFormat = "20060102"

// DayKey formats t as YYYYMMDD in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayFormat)
}

// PreviousDay returns the YYYYMMDD key of the calendar day before day.
// An unparsable day yields "".
func PreviousDay(day string) string {
	t, err := time.Parse(DayFormat, day)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DayFormat)
}

// System reads the host clock in a fixed location.
type System struct {
	loc *time.Location
}

var _ domain.Clock = System{}

// NewSystem returns a system clock in loc (nil = time.Local).
func NewSystem(loc *time.Location) System {
	if loc == nil {
		loc = time.Local
	}
	return System{loc: loc}
}

// Now returns the current time.
func (c System) Now() time.Time { return time.Now().In(c.loc) }

// Today returns the current day as YYYYMMDD.
func (c System) Today() string { return DayKey(c.Now()) }

// Fixed is a manually advanced clock for tests and simulations.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

var _ domain.Clock = (*Fixed)(nil)

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

// Now returns the frozen time.
func (c *Fixed) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Today returns the frozen day as YYYYMMDD.
func (c *Fixed) Today() string { return DayKey(c.Now()) }

// Advance moves the clock forward by d.
func (c *Fixed) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set jumps the clock to t.
func (c *Fixed) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
