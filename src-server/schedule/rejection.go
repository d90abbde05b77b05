package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// RejectionCode categorizes why a placement was refused.
type RejectionCode string

const (
	// RejectInvalidRange indicates end <= start.
	RejectInvalidRange RejectionCode = "INVALID_RANGE"

	// RejectPastDate indicates the date is strictly before today.
	RejectPastDate RejectionCode = "PAST_DATE"

	// RejectOffDay indicates the date falls on an off weekday.
	RejectOffDay RejectionCode = "OFF_DAY"

	// RejectPastTimeToday indicates a same-day start that isn't far
	// enough in the future.
	RejectPastTimeToday RejectionCode = "PAST_TIME_TODAY"

	// RejectTimeConflict indicates intersection with existing bookings.
	RejectTimeConflict RejectionCode = "TIME_CONFLICT"
)

// Rejection is a typed validation refusal. It is a value, not a panic
// path: callers branch on Code (or use errors.As through wrapping) and
// surface Message to the user.
type Rejection struct {
	Code    RejectionCode
	Message string

	// ConflictIDs lists the existing events a TIME_CONFLICT candidate
	// intersects. Empty for every other code.
	ConflictIDs []string
}

func (r *Rejection) Error() string {
	if len(r.ConflictIDs) > 0 {
		return fmt.Sprintf("%s: %s (events %s)", r.Code, r.Message, strings.Join(r.ConflictIDs, ", "))
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// AsRejection unwraps err into a *Rejection, or nil if err isn't one.
func AsRejection(err error) *Rejection {
	var r *Rejection
	if errors.As(err, &r) {
		return r
	}
	return nil
}
