package route

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"workdeck/src-server/model"
	"workdeck/src-server/schedule"
	"workdeck/src-server/utils"

	"github.com/emersion/go-ical"
)

func Ical(muxer *http.ServeMux, as *utils.AppState) {
	toVEvent := func(event *model.Event) (*ical.Component, error) {
		ve := ical.NewComponent(ical.CompEvent)
		ve.Props.SetText(ical.PropUID, event.ID)
		ve.Props.SetText(ical.PropSummary, event.Title)
		ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Unix(event.CreatedAt, 0).UTC())
		ve.Props.SetDateTime(ical.PropDateTimeStart, event.StartsAt())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, event.Date().Add(time.Duration(event.EndMin)*time.Minute))
		if event.Description != "" {
			ve.Props.SetText(ical.PropDescription, event.Description)
		}
		if event.Location != "" {
			ve.Props.SetText(ical.PropLocation, event.Location)
		}
		if event.IsOnline && event.MeetingLink != "" {
			ve.Props.SetText(ical.PropURL, event.MeetingLink)
		}

		rule, err := schedule.Recurrence(event.Recurrence).RRule(event.StartsAt())
		if err != nil {
			return nil, fmt.Errorf("toVEvent: %w", err)
		}
		if rule != "" {
			ve.Props.SetText(ical.PropRecurrenceRule, rule)
		}
		return ve, nil
	}

	// export the session user's calendar for the next year
	muxer.HandleFunc("GET /calendar/export.ics", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			sessionModel := sessionFrom(w, r)
			if sessionModel == nil {
				return
			}

			now := as.Clock.Now()
			events, err := as.Store.Query(r.Context(), sessionModel.UserID,
				schedule.DateOf(now).AddDate(0, 0, -30), schedule.DateOf(now).AddDate(1, 0, 0))
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get events"))
				slog.Error("can't get events", "error", err)
				return
			}

			cal := ical.NewCalendar()
			cal.Props.SetText(ical.PropVersion, "2.0")
			cal.Props.SetText(ical.PropProductID, "-//workdeck//EN")
			for i := range events {
				if events[i].InviteStatus == string(schedule.InviteDeclined) {
					continue
				}
				ve, err := toVEvent(&events[i])
				if err != nil {
					slog.Warn("can't convert event for export", "event", events[i].ID, "error", err)
					continue
				}
				cal.Children = append(cal.Children, ve)
			}

			var buf bytes.Buffer
			if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't encode calendar"))
				slog.Error("can't encode calendar", "error", err)
				return
			}

			w.Header().Set("Content-Type", "text/calendar")
			w.Header().Set("Content-Disposition", `attachment; filename="workdeck.ics"`)
			w.WriteHeader(http.StatusOK)
			w.Write(buf.Bytes())
		}))
}
