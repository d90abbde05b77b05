package schedule

import (
	"fmt"
	"time"
)

// Validate checks a candidate placement against the owner's existing
// bookings on that day. existing must be the comparison set for the
// candidate's owner and date only; when an event is being edited its id
// is passed as editingID so its own prior record doesn't conflict with
// itself. now comes from the caller's Clock.
//
// Checks run in a fixed order and stop at the first failure; a nil
// return means the placement is valid. Validate never touches a store.
func Validate(candidate Candidate, existing []Booked, now time.Time, editingID string, policy Policy) error {
	if candidate.EndMin <= candidate.StartMin {
		return &Rejection{
			Code:    RejectInvalidRange,
			Message: "end time must be after start time",
		}
	}

	today := DateOf(now)
	date := DateOf(candidate.Date)
	if date.Before(today) {
		return &Rejection{
			Code:    RejectPastDate,
			Message: fmt.Sprintf("%s is in the past", date.Format(time.DateOnly)),
		}
	}

	if policy.IsOffDay(date) {
		return &Rejection{
			Code:    RejectOffDay,
			Message: fmt.Sprintf("%s falls on an off day", date.Weekday()),
		}
	}

	if date.Equal(today) {
		cutoff := now.Add(policy.GraceBuffer)
		start := date.Add(time.Duration(candidate.StartMin) * time.Minute)
		if !start.After(cutoff) {
			return &Rejection{
				Code:    RejectPastTimeToday,
				Message: fmt.Sprintf("start %s is too soon", FormatMinute(candidate.StartMin)),
			}
		}
	}

	var conflictIDs []string
	for _, booked := range existing {
		if booked.ID == editingID && editingID != "" {
			continue
		}
		if candidate.Overlaps(booked.Interval) {
			conflictIDs = append(conflictIDs, booked.ID)
		}
	}
	if len(conflictIDs) > 0 {
		return &Rejection{
			Code:        RejectTimeConflict,
			Message:     fmt.Sprintf("%s overlaps existing bookings", candidate.Interval),
			ConflictIDs: conflictIDs,
		}
	}

	return nil
}
