package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

// ErrStore wraps every persistence failure leaving this package, so
// callers can branch on "the store broke" without caring which query
// did. No retries happen here.
var ErrStore = errors.New("store error")

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

// ChangeKind says what a store notification is about.
type ChangeKind string

const (
	ChangePut    ChangeKind = "put"
	ChangeRemove ChangeKind = "remove"
)

// Change is delivered to subscribers after a successful write.
type Change struct {
	Kind    ChangeKind
	EventID string
	UserID  string
}

// Store is the event store: bun over SQLite underneath, with an
// explicit observer list replacing any ambient refresh broadcast.
// Subscribers run synchronously on the writing goroutine.
type Store struct {
	db *bun.DB

	mu          sync.RWMutex
	subscribers []func(Change)
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Subscribe registers a callback invoked after every successful write.
func (s *Store) Subscribe(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify(ch Change) {
	s.mu.RLock()
	subs := s.subscribers
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(ch)
	}
}

// Query returns every row on one user's calendar whose day falls inside
// [from, to], ordered by day then start time.
func (s *Store) Query(ctx context.Context, userID string, from, to time.Time) ([]Event, error) {
	events := make([]Event, 0)
	if err := s.db.NewSelect().
		Model(&events).
		Where("user_id = ?", userID).
		Where("date >= ?", from.UTC().Unix()).
		Where("date <= ?", to.UTC().Unix()).
		Order("date ASC", "start_min ASC").
		Scan(ctx); err != nil {
		return nil, storeErr("(*Store).Query", err)
	}
	return events, nil
}

// Day returns the rows on one user's calendar for a single day, in
// start order. This is the conflict comparison snapshot and the layout
// input.
func (s *Store) Day(ctx context.Context, userID string, date time.Time) ([]Event, error) {
	events := make([]Event, 0)
	if err := s.db.NewSelect().
		Model(&events).
		Where("user_id = ?", userID).
		Where("date = ?", date.UTC().Unix()).
		Order("start_min ASC").
		Scan(ctx); err != nil {
		return nil, storeErr("(*Store).Day", err)
	}
	return events, nil
}

// Get fetches one row by id. A missing row is (nil, nil), not an error.
func (s *Store) Get(ctx context.Context, id string) (*Event, error) {
	event := new(Event)
	err := s.db.NewSelect().
		Model(event).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("(*Store).Get", err)
	}
	return event, nil
}

// Put upserts one row, replacing content by id.
func (s *Store) Put(ctx context.Context, event *Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("(*Store).Put: %w", err)
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().UTC().Unix()
	}
	event.UpdatedAt = time.Now().UTC().Unix()

	if _, err := s.db.NewInsert().
		Model(event).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("location = EXCLUDED.location").
		Set("color = EXCLUDED.color").
		Set("date = EXCLUDED.date").
		Set("start_min = EXCLUDED.start_min").
		Set("end_min = EXCLUDED.end_min").
		Set("is_online = EXCLUDED.is_online").
		Set("meeting_link = EXCLUDED.meeting_link").
		Set("room_id = EXCLUDED.room_id").
		Set("recurrence = EXCLUDED.recurrence").
		Set("invite_status = EXCLUDED.invite_status").
		Set("reminder_sent = EXCLUDED.reminder_sent").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return storeErr("(*Store).Put", err)
	}

	s.notify(Change{Kind: ChangePut, EventID: event.ID, UserID: event.UserID})
	return nil
}

// PutAll writes a creator record and its derived invitee copies in one
// transaction, so a creation is atomic across calendars.
func (s *Store) PutAll(ctx context.Context, events []*Event) error {
	for _, event := range events {
		if err := event.Validate(); err != nil {
			return fmt.Errorf("(*Store).PutAll: %w", err)
		}
	}
	now := time.Now().UTC().Unix()
	if err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, event := range events {
			if event.CreatedAt == 0 {
				event.CreatedAt = now
			}
			event.UpdatedAt = now
			if _, err := tx.NewInsert().Model(event).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return storeErr("(*Store).PutAll", err)
	}

	for _, event := range events {
		s.notify(Change{Kind: ChangePut, EventID: event.ID, UserID: event.UserID})
	}
	return nil
}

// Remove deletes one row by id. Invitee copies deliberately don't
// cascade when a creator record goes away.
func (s *Store) Remove(ctx context.Context, id string) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("(*Store).Remove: %w", err)
	}
	if event == nil {
		return nil
	}
	if _, err := s.db.NewDelete().
		Model((*Event)(nil)).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return storeErr("(*Store).Remove", err)
	}
	s.notify(Change{Kind: ChangeRemove, EventID: id, UserID: event.UserID})
	return nil
}

// InviteCopies lists every derived copy of one creator event.
func (s *Store) InviteCopies(ctx context.Context, sourceID string) ([]Event, error) {
	copies := make([]Event, 0)
	if err := s.db.NewSelect().
		Model(&copies).
		Where("source_id = ?", sourceID).
		Order("user_id ASC").
		Scan(ctx); err != nil {
		return nil, storeErr("(*Store).InviteCopies", err)
	}
	return copies, nil
}

// CopyFor fetches one user's invitee copy of a creator event, or nil.
func (s *Store) CopyFor(ctx context.Context, sourceID, userID string) (*Event, error) {
	row := new(Event)
	err := s.db.NewSelect().
		Model(row).
		Where("source_id = ?", sourceID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("(*Store).CopyFor", err)
	}
	return row, nil
}

// DueReminders returns creator records starting inside (from, to] that
// haven't been reminded yet.
func (s *Store) DueReminders(ctx context.Context, from, to time.Time) ([]Event, error) {
	events := make([]Event, 0)
	if err := s.db.NewSelect().
		Model(&events).
		Where("source_id = ?", "").
		Where("reminder_sent = ?", false).
		Where("date = ?", time.Date(from.UTC().Year(), from.UTC().Month(), from.UTC().Day(), 0, 0, 0, 0, time.UTC).Unix()).
		Scan(ctx); err != nil {
		return nil, storeErr("(*Store).DueReminders", err)
	}

	due := make([]Event, 0, len(events))
	for _, event := range events {
		startsAt := event.StartsAt()
		if startsAt.After(from) && !startsAt.After(to) {
			due = append(due, event)
		}
	}
	return due, nil
}

// MarkReminded flips reminder_sent without touching updated_at, so a
// reminder pass doesn't look like an edit.
func (s *Store) MarkReminded(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.NewUpdate().
		Model((*Event)(nil)).
		Set("reminder_sent = ?", true).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx); err != nil {
		return storeErr("(*Store).MarkReminded", err)
	}
	return nil
}
