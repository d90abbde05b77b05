package schedule

import (
	"fmt"
	"time"
)

// Interval is a half-open [StartMin, EndMin) range of minutes from
// midnight. Back-to-back intervals sharing a boundary do not overlap.
type Interval struct {
	StartMin int
	EndMin   int
}

// Overlaps reports strict half-open intersection with other.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.StartMin < other.EndMin && iv.EndMin > other.StartMin
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s-%s", FormatMinute(iv.StartMin), FormatMinute(iv.EndMin))
}

// Booked is an already-placed event on one day, as supplied by the caller
// from a store snapshot.
type Booked struct {
	ID string
	Interval
}

// Candidate is a placement being validated or laid out.
type Candidate struct {
	// Date is the calendar day, midnight UTC. The time-of-day part is
	// ignored everywhere in this package.
	Date time.Time
	Interval
}

// Slot is one ranked free-slot proposal.
type Slot struct {
	Date  time.Time `json:"date"`
	Start int       `json:"startMin"`
	End   int       `json:"endMin"`
	Score int       `json:"score"`
}

// Placed is the layout assignment for one event: which visual column it
// occupies and how many columns its day was packed into.
type Placed struct {
	ID           string `json:"id"`
	Column       int    `json:"column"`
	TotalColumns int    `json:"totalColumns"`
}

// MinuteOfDay converts a wall-clock hour and minute to minutes from midnight.
func MinuteOfDay(hour, min int) int {
	return hour*60 + min
}

// FormatMinute renders a minutes-from-midnight value as HH:MM.
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// DateOf truncates t to its calendar day, midnight UTC.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
