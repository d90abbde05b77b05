package schedule

import (
	"time"
)

// Policy gathers the scheduling policy constants in one place so the
// conflict and suggestion paths can't drift apart on things like the
// grace buffer.
type Policy struct {
	// OffDays are weekdays on which no meeting may be placed.
	OffDays []time.Weekday

	// GraceBuffer is added to "now" before any same-day start-time
	// comparison, both when validating a placement and when filtering
	// suggested slots.
	GraceBuffer time.Duration

	// WorkStartMin and WorkEndMin bound the window slot suggestions are
	// drawn from, as minutes from midnight.
	WorkStartMin int
	WorkEndMin   int

	// SlotStepMin is the alignment of suggested slot starts.
	SlotStepMin int
}

// DefaultPolicy returns the stock workplace policy: weekends off,
// a 15 minute grace buffer, a 09:00-17:00 working window, half-hour
// aligned slots.
func DefaultPolicy() Policy {
	return Policy{
		OffDays:      []time.Weekday{time.Saturday, time.Sunday},
		GraceBuffer:  15 * time.Minute,
		WorkStartMin: MinuteOfDay(9, 0),
		WorkEndMin:   MinuteOfDay(17, 0),
		SlotStepMin:  30,
	}
}

// IsOffDay reports whether date falls on one of the policy's off weekdays.
func (p Policy) IsOffDay(date time.Time) bool {
	for _, wd := range p.OffDays {
		if date.UTC().Weekday() == wd {
			return true
		}
	}
	return false
}

// Clock supplies "now" so validation and suggestion are deterministic
// under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock, in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ClockAt pins a clock to a fixed instant.
type ClockAt time.Time

func (c ClockAt) Now() time.Time {
	return time.Time(c)
}
