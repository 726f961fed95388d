// Package timeutil provides calendar helpers bound to the school's timezone
// and an injectable clock. Day boundaries for streaks and daily quests are
// always computed in one configured zone, never in the server's local zone.
package timeutil

import (
	"fmt"
	"sync"
	"time"
)

// DefaultZoneName is used when no timezone is configured.
const DefaultZoneName = "Asia/Kolkata"

// istFallback is used when the tz database is unavailable on the host.
var istFallback = time.FixedZone("IST", 5*60*60+30*60)

// LoadZone resolves an IANA zone name. An empty name yields the default zone.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZoneName
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if name == DefaultZoneName {
			return istFallback, nil
		}
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CLOCK
// ══════════════════════════════════════════════════════════════════════════════

// Clock abstracts the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock returns a settable instant. Safe for concurrent use.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock frozen at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{now: t}
}

// Now returns the frozen instant.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

// Calendar performs calendar-day arithmetic in a fixed location.
type Calendar struct {
	loc *time.Location
}

// NewCalendar creates a calendar for loc. A nil loc means UTC.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// Location returns the calendar's zone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// In converts t into the calendar's zone.
func (c Calendar) In(t time.Time) time.Time {
	return t.In(c.Location())
}

// IsSameDay reports whether both instants fall on the same local date.
func (c Calendar) IsSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := c.In(t1).Date()
	y2, m2, d2 := c.In(t2).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IsConsecutiveDay reports whether t2 falls on the local date after t1.
func (c Calendar) IsConsecutiveDay(t1, t2 time.Time) bool {
	y, m, d := c.In(t1).Date()
	next := time.Date(y, m, d+1, 12, 0, 0, 0, c.Location())
	return c.IsSameDay(next, t2)
}

