package model

import (
	"fmt"
	"time"
	"workdeck/src-server/schedule"

	"github.com/uptrace/bun"
)

// Event is one row on one user's calendar. The creator's own record has
// UserID == OwnerID and no invite status; an invitee copy is a full
// derived row carrying the creator's content, the creator's event id in
// SourceID, and its own InviteStatus. Copies being full rows is what
// lets owner deletion leave them alone.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID       string `bun:"id,pk,notnull"`      // required
	UserID   string `bun:"user_id,notnull"`    // required, whose calendar this row lives on
	OwnerID  string `bun:"owner_id,notnull"`   // required, the creator
	SourceID string `bun:"source_id"`          // creator's event id, only on invitee copies

	Title       string `bun:"title,notnull"` // required
	Description string `bun:"description"`
	Location    string `bun:"location"`
	Color       string `bun:"color"`

	DateUnixUTC int64 `bun:"date,notnull"`      // required, midnight UTC of the calendar day
	StartMin    int   `bun:"start_min,notnull"` // minutes from midnight
	EndMin      int   `bun:"end_min,notnull"`

	IsOnline    bool   `bun:"is_online"`
	MeetingLink string `bun:"meeting_link"`
	RoomID      string `bun:"room_id"`

	Recurrence   string `bun:"recurrence,notnull,default:'none'"`
	InviteStatus string `bun:"invite_status"` // blank on the creator's record

	ReminderSent bool `bun:"reminder_sent"`

	CreatedAt int64 `bun:"created_at,notnull"`
	UpdatedAt int64 `bun:"updated_at"`
}

// Date returns the event's calendar day as midnight UTC.
func (e *Event) Date() time.Time {
	return schedule.DateOf(time.Unix(e.DateUnixUTC, 0))
}

// StartsAt returns the event's absolute start instant.
func (e *Event) StartsAt() time.Time {
	return e.Date().Add(time.Duration(e.StartMin) * time.Minute)
}

// Booked projects the row for the scheduling engine.
func (e *Event) Booked() schedule.Booked {
	return schedule.Booked{
		ID:       e.ID,
		Interval: schedule.Interval{StartMin: e.StartMin, EndMin: e.EndMin},
	}
}

// Candidate projects the row for suggestion busy-interval building.
func (e *Event) Candidate() schedule.Candidate {
	return schedule.Candidate{
		Date:     e.Date(),
		Interval: schedule.Interval{StartMin: e.StartMin, EndMin: e.EndMin},
	}
}

// IsCopy reports whether the row is a derived invitee copy.
func (e *Event) IsCopy() bool {
	return e.SourceID != ""
}

// CountsAsBusy reports whether the row blocks the calendar user's time
// for slot suggestion. Declined invites don't.
func (e *Event) CountsAsBusy() bool {
	if !e.IsCopy() {
		return true
	}
	status := schedule.InviteStatus(e.InviteStatus)
	return status == schedule.InvitePending || status == schedule.InviteAccepted
}

// Validate enforces the row invariants shared by creator records and
// invitee copies. Placement rules (dates, conflicts) live in the
// schedule package, not here.
func (e *Event) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("(*Event).Validate: event id is blank")
	case e.UserID == "":
		return fmt.Errorf("(*Event).Validate: user id is blank")
	case e.OwnerID == "":
		return fmt.Errorf("(*Event).Validate: owner id is blank")
	case e.Title == "":
		return fmt.Errorf("(*Event).Validate: title is blank")
	case e.DateUnixUTC == 0:
		return fmt.Errorf("(*Event).Validate: date is blank")
	case e.StartMin < 0 || e.EndMin > 24*60:
		return fmt.Errorf("(*Event).Validate: times are outside the day")
	case e.EndMin <= e.StartMin:
		return fmt.Errorf("(*Event).Validate: start must be before end")
	case e.IsCopy() && !schedule.InviteStatus(e.InviteStatus).Valid():
		return fmt.Errorf("(*Event).Validate: invitee copy has invalid status %q", e.InviteStatus)
	case !e.IsCopy() && e.InviteStatus != "":
		return fmt.Errorf("(*Event).Validate: creator record must not carry an invite status")
	}
	if _, err := schedule.ParseRecurrence(e.Recurrence); err != nil {
		return fmt.Errorf("(*Event).Validate: %w", err)
	}
	return nil
}
