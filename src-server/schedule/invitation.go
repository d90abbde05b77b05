package schedule

// InviteStatus tracks one invitee's answer to one event. The creator's
// own record never carries a status.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

// Valid reports whether s is one of the three known statuses.
func (s InviteStatus) Valid() bool {
	switch s {
	case InvitePending, InviteAccepted, InviteDeclined:
		return true
	}
	return false
}

// Terminal reports whether s can no longer change.
func (s InviteStatus) Terminal() bool {
	return s == InviteAccepted || s == InviteDeclined
}

// InviteAction is an invitee's response to a pending invite.
type InviteAction string

const (
	ActionAccept  InviteAction = "accept"
	ActionDecline InviteAction = "decline"
)

// Respond applies an action to a pairing's current status and returns
// the resulting status plus whether anything changed. Accepted and
// declined are terminal: responding again (a double click, a retried
// request) is a no-op, not an error.
func Respond(current InviteStatus, action InviteAction) (InviteStatus, bool) {
	if current.Terminal() {
		return current, false
	}
	switch action {
	case ActionAccept:
		return InviteAccepted, true
	case ActionDecline:
		return InviteDeclined, true
	}
	return current, false
}

// Invite is a derived (event, invitee) pairing produced at event
// creation time.
type Invite struct {
	UserID string
	Status InviteStatus
}

// BuildInvites derives the pending pairings for a new event. The owner
// never gets one, duplicates collapse to a single pairing, and a daily
// recurrence suppresses invites entirely.
func BuildInvites(ownerID string, inviteeIDs []string, recurrence Recurrence) []Invite {
	if recurrence.SuppressesInvites() {
		return nil
	}
	seen := make(map[string]struct{}, len(inviteeIDs))
	invites := make([]Invite, 0, len(inviteeIDs))
	for _, id := range inviteeIDs {
		if id == "" || id == ownerID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		invites = append(invites, Invite{UserID: id, Status: InvitePending})
	}
	return invites
}
