package schedule

import (
	"fmt"
	"time"

	"github.com/xyedo/rrule"
)

// Recurrence is declarative repeat metadata on an event. It influences
// invite derivation (daily suppresses invites) and how the event is
// exported, but no occurrence materialization happens anywhere: an
// event occupies only its own date in conflict checks, suggestions and
// layout.
type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

// ParseRecurrence normalizes a wire value; the empty string means none.
func ParseRecurrence(s string) (Recurrence, error) {
	switch Recurrence(s) {
	case "", RecurNone:
		return RecurNone, nil
	case RecurDaily, RecurWeekly, RecurMonthly:
		return Recurrence(s), nil
	}
	return RecurNone, fmt.Errorf("ParseRecurrence: unknown recurrence %q", s)
}

// SuppressesInvites reports whether events with this recurrence skip
// invitee derivation. Only daily events do.
func (r Recurrence) SuppressesInvites() bool {
	return r == RecurDaily
}

// RRule renders the metadata as an RFC 5545 RRULE value for iCalendar
// export, round-tripping it through the rrule parser so we never emit a
// rule a consumer can't read. Returns "" for non-repeating events.
func (r Recurrence) RRule(start time.Time) (string, error) {
	var freq string
	switch r {
	case RecurNone, "":
		return "", nil
	case RecurDaily:
		freq = "DAILY"
	case RecurWeekly:
		freq = "WEEKLY"
	case RecurMonthly:
		freq = "MONTHLY"
	default:
		return "", fmt.Errorf("Recurrence.RRule: unknown recurrence %q", string(r))
	}

	rule := "FREQ=" + freq
	raw := fmt.Sprintf("DTSTART:%s\nRRULE:%s", start.UTC().Format("20060102T150405Z"), rule)
	if _, err := rrule.StrToRRuleSet(raw); err != nil {
		return "", fmt.Errorf("Recurrence.RRule: %w", err)
	}
	return rule, nil
}
