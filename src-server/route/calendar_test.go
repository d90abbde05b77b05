package route_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
	"workdeck/src-server/model"
	"workdeck/src-server/route"
	"workdeck/src-server/schedule"
	"workdeck/src-server/utils"

	"github.com/google/uuid"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Monday 2024-09-02, 08:00 UTC.
var testNow = time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	as    *utils.AppState
	muxer *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
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

	whenParser := when.New(nil)
	whenParser.Add(en.All...)
	whenParser.Add(common.All...)

	as := &utils.AppState{
		Config:             utils.NewConfig(),
		RawDB:              db,
		BunDB:              bundb,
		Store:              model.NewStore(bundb),
		Policy:             schedule.DefaultPolicy(),
		Clock:              schedule.ClockAt(testNow),
		When:               whenParser,
		MetricChans:        utils.NewMetric(),
		AppCloseSignalChan: make(chan os.Signal, 1),
	}

	muxer := http.NewServeMux()
	route.Auth(muxer, as)
	route.Calendar(muxer, as)
	route.Suggest(muxer, as)
	route.Invite(muxer, as)
	route.Ical(muxer, as)

	return &testEnv{as: as, muxer: muxer}
}

// loginAs seeds a user and a session, returning the session secret.
func (env *testEnv) loginAs(t *testing.T, username string) string {
	t.Helper()
	userModel := model.User{ID: "user-" + username, Username: username}
	if err := userModel.Upsert(context.Background(), env.as.BunDB); err != nil {
		t.Fatal(err)
	}
	sessionModel := model.Session{
		Secret:    uuid.NewString(),
		UserID:    userModel.ID,
		CreatedAt: time.Now().UTC().Unix(),
	}
	if _, err := env.as.BunDB.NewInsert().Model(&sessionModel).Exec(context.Background()); err != nil {
		t.Fatal(err)
	}
	return sessionModel.Secret
}

func (env *testEnv) do(t *testing.T, secret, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if secret != "" {
		req.AddCookie(&http.Cookie{Name: route.SessionSecretCookieName, Value: secret})
	}
	w := httptest.NewRecorder()
	env.muxer.ServeHTTP(w, req)
	return w
}

type eventBody struct {
	Title       string   `json:"title"`
	DateUnixUTC int64    `json:"dateUnixUTC"`
	StartMin    int      `json:"startMin"`
	EndMin      int      `json:"endMin"`
	Recurrence  string   `json:"recurrence"`
	Invitees    []string `json:"invitees"`
}

var testDay = time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC) // Tuesday

func TestCreateEventRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "", http.MethodPost, "/calendar/create-event", eventBody{})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestCreateEventConflict(t *testing.T) {
	env := newTestEnv(t)
	secret := env.loginAs(t, "alice")

	w := env.do(t, secret, http.MethodPost, "/calendar/create-event", eventBody{
		Title: "planning", DateUnixUTC: testDay.Unix(), StartMin: 9 * 60, EndMin: 10 * 60,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("first booking should succeed, got %d: %s", w.Code, w.Body.String())
	}
	firstID := w.Body.String()

	// overlapping second booking is refused with the conflicting id
	w = env.do(t, secret, http.MethodPost, "/calendar/create-event", eventBody{
		Title: "sync", DateUnixUTC: testDay.Unix(), StartMin: 9*60 + 30, EndMin: 10*60 + 30,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	var rejection struct {
		Code        string   `json:"code"`
		ConflictIDs []string `json:"conflictIds"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rejection); err != nil {
		t.Fatal(err)
	}
	if rejection.Code != string(schedule.RejectTimeConflict) {
		t.Errorf("expected TIME_CONFLICT, got %s", rejection.Code)
	}
	if len(rejection.ConflictIDs) != 1 || rejection.ConflictIDs[0] != firstID {
		t.Errorf("expected conflict with %s, got %v", firstID, rejection.ConflictIDs)
	}

	// back-to-back booking is fine
	w = env.do(t, secret, http.MethodPost, "/calendar/create-event", eventBody{
		Title: "review", DateUnixUTC: testDay.Unix(), StartMin: 10 * 60, EndMin: 11 * 60,
	})
	if w.Code != http.StatusOK {
		t.Errorf("touching boundaries should not conflict, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateEventRejectsOffDayAndPastDate(t *testing.T) {
	env := newTestEnv(t)
	secret := env.loginAs(t, "alice")

	saturday := time.Date(2024, 9, 7, 0, 0, 0, 0, time.UTC)
	w := env.do(t, secret, http.MethodPost, "/calendar/create-event", eventBody{
		Title: "weekend work", DateUnixUTC: saturday.Unix(), StartMin: 9 * 60, EndMin: 10 * 60,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("off day should be refused with 400, got %d", w.Code)
	}

	yesterday := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	w = env.do(t, secret, http.MethodPost, "/calendar/create-event", eventBody{
		Title: "time travel", DateUnixUTC: yesterday.Unix(), StartMin: 9 * 60, EndMin: 10 * 60,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("past date should be refused with 400, got %d", w.Code)
	}
}

func TestInviteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	aliceSecret := env.loginAs(t, "alice")
	bobSecret := env.loginAs(t, "bob")

	w := env.do(t, aliceSecret, http.MethodPost, "/calendar/create-event", eventBody{
		Title: "kickoff", DateUnixUTC: testDay.Unix(), StartMin: 9 * 60, EndMin: 10 * 60,
		Invitees: []string{"user-bob"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}
	eventID := w.Body.String()

	// bob's calendar carries a pending copy
	copyEvent, err := env.as.Store.CopyFor(context.Background(), eventID, "user-bob")
	if err != nil {
		t.Fatal(err)
	}
	if copyEvent == nil {
		t.Fatal("bob should have an invitee copy")
	}
	if copyEvent.InviteStatus != string(schedule.InvitePending) {
		t.Errorf("copy should start pending, got %s", copyEvent.InviteStatus)
	}

	// accept
	w = env.do(t, bobSecret, http.MethodPost, "/calendar/respond-invite", map[string]string{
		"eventId": eventID, "action": "accept",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("respond failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status  string `json:"status"`
		Changed bool   `json:"changed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != string(schedule.InviteAccepted) || !resp.Changed {
		t.Errorf("expected accepted/changed, got %+v", resp)
	}

	// a later decline is a no-op, not an error
	w = env.do(t, bobSecret, http.MethodPost, "/calendar/respond-invite", map[string]string{
		"eventId": eventID, "action": "decline",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("second respond should still be 200, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != string(schedule.InviteAccepted) || resp.Changed {
		t.Errorf("terminal status must not change, got %+v", resp)
	}
}

func TestDailyRecurrenceSuppressesInvites(t *testing.T) {
	env := newTestEnv(t)
	secret := env.loginAs(t, "alice")
	env.loginAs(t, "bob")

	w := env.do(t, secret, http.MethodPost, "/calendar/create-event", eventBody{
		Title: "standup", DateUnixUTC: testDay.Unix(), StartMin: 9 * 60, EndMin: 9*60 + 15,
		Recurrence: "daily", Invitees: []string{"user-bob"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}
	eventID := w.Body.String()

	copies, err := env.as.Store.InviteCopies(context.Background(), eventID)
	if err != nil {
		t.Fatal(err)
	}
	if len(copies) != 0 {
		t.Errorf("daily events must not create invitee copies, got %d", len(copies))
	}
}

func TestModifyEventKeepsIDAndCopies(t *testing.T) {
	env := newTestEnv(t)
	aliceSecret := env.loginAs(t, "alice")
	bobSecret := env.loginAs(t, "bob")

	w := env.do(t, aliceSecret, http.MethodPost, "/calendar/create-event", eventBody{
		Title: "design review", DateUnixUTC: testDay.Unix(), StartMin: 9 * 60, EndMin: 10 * 60,
		Invitees: []string{"user-bob"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}
	eventID := w.Body.String()

	// bob answers before the edit
	w = env.do(t, bobSecret, http.MethodPost, "/calendar/respond-invite", map[string]string{
		"eventId": eventID, "action": "accept",
	})
	if w.Code != http.StatusOK {
		t.Fatal("accept failed")
	}

	// replace the same interval by id: excluded from its own comparison set
	w = env.do(t, aliceSecret, http.MethodPost, "/calendar/modify-event", struct {
		ID string `json:"id"`
		eventBody
	}{
		ID: eventID,
		eventBody: eventBody{
			Title: "design review v2", DateUnixUTC: testDay.Unix(), StartMin: 9 * 60, EndMin: 10*60 + 30,
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("modify failed: %d %s", w.Code, w.Body.String())
	}
	if w.Body.String() != eventID {
		t.Error("modify must preserve the event id")
	}

	edited, err := env.as.Store.Get(context.Background(), eventID)
	if err != nil {
		t.Fatal(err)
	}
	if edited.Title != "Design Review V2" {
		t.Errorf("title should be replaced and cleaned, got %q", edited.Title)
	}

	// bob's answered copy is untouched by the edit
	copyEvent, err := env.as.Store.CopyFor(context.Background(), eventID, "user-bob")
	if err != nil {
		t.Fatal(err)
	}
	if copyEvent == nil {
		t.Fatal("copy should still exist")
	}
	if copyEvent.InviteStatus != string(schedule.InviteAccepted) {
		t.Errorf("edit must not reset responded copies, got %s", copyEvent.InviteStatus)
	}
}

func TestDeleteEventLeavesCopies(t *testing.T) {
	env := newTestEnv(t)
	aliceSecret := env.loginAs(t, "alice")
	env.loginAs(t, "bob")

	w := env.do(t, aliceSecret, http.MethodPost, "/calendar/create-event", eventBody{
		Title: "all hands", DateUnixUTC: testDay.Unix(), StartMin: 11 * 60, EndMin: 12 * 60,
		Invitees: []string{"user-bob"},
	})
	if w.Code != http.StatusOK {
		t.Fatal("create failed")
	}
	eventID := w.Body.String()

	w = env.do(t, aliceSecret, http.MethodPost, "/calendar/delete-event", map[string]string{"id": eventID})
	if w.Code != http.StatusOK {
		t.Fatalf("delete failed: %d", w.Code)
	}

	gone, err := env.as.Store.Get(context.Background(), eventID)
	if err != nil {
		t.Fatal(err)
	}
	if gone != nil {
		t.Error("owner record should be gone")
	}
	copyEvent, err := env.as.Store.CopyFor(context.Background(), eventID, "user-bob")
	if err != nil {
		t.Fatal(err)
	}
	if copyEvent == nil {
		t.Error("invitee copy must survive owner deletion")
	}
}

func TestDayLayoutRoute(t *testing.T) {
	env := newTestEnv(t)
	secret := env.loginAs(t, "alice")

	for _, interval := range [][2]int{
		{9 * 60, 10 * 60},
		{9*60 + 30, 10*60 + 30},
		{10*60 + 15, 11 * 60},
	} {
		// seeded directly: overlapping rows can't go through create-event
		event := model.Event{
			ID:          uuid.NewString(),
			UserID:      "user-alice",
			OwnerID:     "user-alice",
			Title:       "meeting",
			DateUnixUTC: testDay.Unix(),
			StartMin:    interval[0],
			EndMin:      interval[1],
			Recurrence:  string(schedule.RecurNone),
		}
		if err := env.as.Store.Put(context.Background(), &event); err != nil {
			t.Fatal(err)
		}
	}

	w := env.do(t, secret, http.MethodPost, "/calendar/day-layout", map[string]int64{
		"dateUnixUTC": testDay.Unix(),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("layout failed: %d %s", w.Code, w.Body.String())
	}
	var placed []struct {
		Column       int `json:"column"`
		TotalColumns int `json:"totalColumns"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &placed); err != nil {
		t.Fatal(err)
	}
	if len(placed) != 3 {
		t.Fatalf("expected 3 placements, got %d", len(placed))
	}
	wantColumns := []int{0, 1, 0}
	for i, p := range placed {
		if p.Column != wantColumns[i] {
			t.Errorf("event %d: expected column %d, got %d", i, wantColumns[i], p.Column)
		}
		if p.TotalColumns != 2 {
			t.Errorf("event %d: expected 2 total columns, got %d", i, p.TotalColumns)
		}
	}
}

func TestSuggestRoute(t *testing.T) {
	env := newTestEnv(t)
	secret := env.loginAs(t, "alice")

	// fully book tomorrow
	event := model.Event{
		ID:          uuid.NewString(),
		UserID:      "user-alice",
		OwnerID:     "user-alice",
		Title:       "offsite",
		DateUnixUTC: testDay.Unix(),
		StartMin:    9 * 60,
		EndMin:      17 * 60,
		Recurrence:  string(schedule.RecurNone),
	}
	if err := env.as.Store.Put(context.Background(), &event); err != nil {
		t.Fatal(err)
	}

	w := env.do(t, secret, http.MethodPost, "/calendar/suggest", map[string]int{
		"durationMinutes": 30,
		"horizonDays":     7,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("suggest failed: %d %s", w.Code, w.Body.String())
	}
	var slots []struct {
		DateUnixUTC int64 `json:"dateUnixUTC"`
		StartMin    int   `json:"startMin"`
		Score       int   `json:"score"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &slots); err != nil {
		t.Fatal(err)
	}
	if len(slots) == 0 || len(slots) > 5 {
		t.Fatalf("expected 1-5 slots, got %d", len(slots))
	}
	for _, slot := range slots {
		if slot.DateUnixUTC == testDay.Unix() {
			t.Error("no slot should land on the fully booked day")
		}
		if slot.DateUnixUTC < testNow.Truncate(24*time.Hour).Unix() {
			t.Error("no slot should predate today")
		}
	}
}

func TestIcalExport(t *testing.T) {
	env := newTestEnv(t)
	secret := env.loginAs(t, "alice")

	w := env.do(t, secret, http.MethodPost, "/calendar/create-event", eventBody{
		Title: "weekly sync", DateUnixUTC: testDay.Unix(), StartMin: 9 * 60, EndMin: 10 * 60,
		Recurrence: "weekly",
	})
	if w.Code != http.StatusOK {
		t.Fatal("create failed")
	}

	w = env.do(t, secret, http.MethodGet, "/calendar/export.ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export failed: %d %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT", "SUMMARY:Weekly Sync", "RRULE:FREQ=WEEKLY"} {
		if !bytes.Contains([]byte(body), []byte(want)) {
			t.Errorf("export should contain %q", want)
		}
	}
}
