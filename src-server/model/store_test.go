package model_test

import (
	"context"
	"database/sql"
	"testing"
	"time"
	"workdeck/src-server/model"
	"workdeck/src-server/schedule"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestStore(t *testing.T) *model.Store {
	t.Helper()
	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	bundb := bun.NewDB(db, sqlitedialect.New())
	if err := model.CreateSchema(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}
	return model.NewStore(bundb)
}

func testEvent(userID, ownerID string, date time.Time, startMin, endMin int) *model.Event {
	return &model.Event{
		ID:          uuid.NewString(),
		UserID:      userID,
		OwnerID:     ownerID,
		Title:       "standup",
		DateUnixUTC: schedule.DateOf(date).Unix(),
		StartMin:    startMin,
		EndMin:      endMin,
		Recurrence:  string(schedule.RecurNone),
	}
}

func TestStorePutAndQuery(t *testing.T) {
	store := newTestStore(t)
	day := time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC)

	early := testEvent("alice", "alice", day, 9*60, 10*60)
	late := testEvent("alice", "alice", day, 14*60, 15*60)
	other := testEvent("bob", "bob", day, 9*60, 10*60)
	for _, event := range []*model.Event{late, early, other} {
		if err := store.Put(context.Background(), event); err != nil {
			t.Fatal(err)
		}
	}

	events, err := store.Query(context.Background(), "alice", day, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events on alice's calendar, got %d", len(events))
	}
	if events[0].ID != early.ID || events[1].ID != late.ID {
		t.Error("events should come back in start order")
	}
}

func TestStorePutReplacesByID(t *testing.T) {
	store := newTestStore(t)
	day := time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC)

	event := testEvent("alice", "alice", day, 9*60, 10*60)
	if err := store.Put(context.Background(), event); err != nil {
		t.Fatal(err)
	}

	event.Title = "retro"
	event.StartMin = 11 * 60
	event.EndMin = 12 * 60
	if err := store.Put(context.Background(), event); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(context.Background(), event.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("event should still exist")
	}
	if got.Title != "retro" || got.StartMin != 11*60 {
		t.Error("put should replace content by id")
	}
}

func TestStoreRemoveDoesNotCascadeToCopies(t *testing.T) {
	store := newTestStore(t)
	day := time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC)

	owner := testEvent("alice", "alice", day, 9*60, 10*60)
	invitee := testEvent("bob", "alice", day, 9*60, 10*60)
	invitee.SourceID = owner.ID
	invitee.InviteStatus = string(schedule.InvitePending)

	if err := store.PutAll(context.Background(), []*model.Event{owner, invitee}); err != nil {
		t.Fatal(err)
	}
	if err := store.Remove(context.Background(), owner.ID); err != nil {
		t.Fatal(err)
	}

	gone, err := store.Get(context.Background(), owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gone != nil {
		t.Error("owner record should be removed")
	}

	kept, err := store.CopyFor(context.Background(), owner.ID, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if kept == nil {
		t.Error("invitee copy must survive owner deletion")
	}
}

func TestStoreRemoveMissingIsNoOp(t *testing.T) {
	store := newTestStore(t)
	if err := store.Remove(context.Background(), uuid.NewString()); err != nil {
		t.Error("removing a missing event should not fail:", err)
	}
}

func TestStoreSubscribe(t *testing.T) {
	store := newTestStore(t)
	day := time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC)

	changes := make([]model.Change, 0)
	store.Subscribe(func(ch model.Change) {
		changes = append(changes, ch)
	})

	event := testEvent("alice", "alice", day, 9*60, 10*60)
	if err := store.Put(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if err := store.Remove(context.Background(), event.ID); err != nil {
		t.Fatal(err)
	}

	if len(changes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(changes))
	}
	if changes[0].Kind != model.ChangePut || changes[1].Kind != model.ChangeRemove {
		t.Error("subscriber should see put then remove")
	}
	if changes[0].EventID != event.ID || changes[0].UserID != "alice" {
		t.Error("notification should carry the event and calendar user ids")
	}
}

func TestStoreDueReminders(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2024, 9, 3, 9, 50, 0, 0, time.UTC)
	day := schedule.DateOf(now)

	soon := testEvent("alice", "alice", day, 10*60, 11*60)     // starts 10:00
	later := testEvent("alice", "alice", day, 14*60, 15*60)    // starts 14:00
	reminded := testEvent("alice", "alice", day, 10*60, 10*60+30)
	reminded.ReminderSent = true

	copyRow := testEvent("bob", "alice", day, 10*60, 11*60)
	copyRow.SourceID = soon.ID
	copyRow.InviteStatus = string(schedule.InvitePending)

	for _, event := range []*model.Event{soon, later, reminded, copyRow} {
		if err := store.Put(context.Background(), event); err != nil {
			t.Fatal(err)
		}
	}

	due, err := store.DueReminders(context.Background(), now, now.Add(15*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 due reminder, got %d", len(due))
	}
	if due[0].ID != soon.ID {
		t.Error("only the un-reminded creator record starting soon is due")
	}

	if err := store.MarkReminded(context.Background(), []string{soon.ID}); err != nil {
		t.Fatal(err)
	}
	due, err = store.DueReminders(context.Background(), now, now.Add(15*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Error("marked reminders should not come back")
	}
}

func TestEventValidate(t *testing.T) {
	day := time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC)

	// case: creator record carrying a status is rejected
	func() {
		event := testEvent("alice", "alice", day, 9*60, 10*60)
		event.InviteStatus = string(schedule.InviteAccepted)
		if err := event.Validate(); err == nil {
			t.Error("creator record with a status should be invalid")
		}
	}()

	// case: copy without a valid status is rejected
	func() {
		event := testEvent("bob", "alice", day, 9*60, 10*60)
		event.SourceID = uuid.NewString()
		if err := event.Validate(); err == nil {
			t.Error("copy without a status should be invalid")
		}
	}()

	// case: inverted range is rejected
	func() {
		event := testEvent("alice", "alice", day, 10*60, 9*60)
		if err := event.Validate(); err == nil {
			t.Error("inverted range should be invalid")
		}
	}()

	// case: unknown recurrence is rejected
	func() {
		event := testEvent("alice", "alice", day, 9*60, 10*60)
		event.Recurrence = "fortnightly"
		if err := event.Validate(); err == nil {
			t.Error("unknown recurrence should be invalid")
		}
	}()
}
