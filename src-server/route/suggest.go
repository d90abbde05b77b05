package route

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
	"workdeck/src-server/schedule"
	"workdeck/src-server/utils"
)

func Suggest(muxer *http.ServeMux, as *utils.AppState) {
	type SuggestReqBody struct {
		DurationMinutes int `json:"durationMinutes"`
		HorizonDays     int `json:"horizonDays"`

		// free-text alternative, e.g. "45 minutes sometime tomorrow";
		// a parsed date shrinks the horizon to end on that day
		Query string `json:"query"`
	}

	type OneSlotRespBody struct {
		DateUnixUTC int64 `json:"dateUnixUTC"`
		StartMin    int   `json:"startMin"`
		EndMin      int   `json:"endMin"`
		Score       int   `json:"score"`
	}

	// propose up to five free slots for the session user
	muxer.HandleFunc("POST /calendar/suggest", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			sessionModel := sessionFrom(w, r)
			if sessionModel == nil {
				return
			}

			var reqBody SuggestReqBody
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}

			now := as.Clock.Now()
			durationMin := reqBody.DurationMinutes
			horizonDays := reqBody.HorizonDays
			if horizonDays <= 0 {
				horizonDays = 7
			}
			if reqBody.Query != "" {
				result, err := as.When.Parse(reqBody.Query, now)
				if err == nil && result != nil {
					target := schedule.DateOf(result.Time)
					days := int(target.Sub(schedule.DateOf(now)).Hours()/24) + 1
					if days > 0 {
						horizonDays = days
					}
				}
			}
			if durationMin <= 0 {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Please provide a duration"))
				return
			}

			today := schedule.DateOf(now)
			events, err := as.Store.Query(r.Context(), sessionModel.UserID,
				today, today.AddDate(0, 0, horizonDays-1))
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get events"))
				slog.Error("can't get events", "error", err)
				return
			}
			busy := make([]schedule.Candidate, 0, len(events))
			for i := range events {
				if !events[i].CountsAsBusy() {
					continue
				}
				busy = append(busy, events[i].Candidate())
			}

			startTimer := time.Now()
			slots := schedule.Suggest(durationMin, horizonDays, busy, now, as.Policy)
			select {
			case as.MetricChans.SuggestLatency <- float64(time.Since(startTimer).Microseconds()):
			default:
			}

			respBody := make([]OneSlotRespBody, 0, len(slots))
			for _, slot := range slots {
				respBody = append(respBody, OneSlotRespBody{
					DateUnixUTC: slot.Date.Unix(),
					StartMin:    slot.Start,
					EndMin:      slot.End,
					Score:       slot.Score,
				})
			}
			respBodyJson, err := json.Marshal(respBody)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't marshal response body"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write(respBodyJson)
		}))

	type DayLayoutReqBody struct {
		DateUnixUTC int64 `json:"dateUnixUTC"`
	}

	type OnePlacedRespBody struct {
		ID           string `json:"id"`
		Column       int    `json:"column"`
		TotalColumns int    `json:"totalColumns"`
	}

	// pack one day's events into display columns
	muxer.HandleFunc("POST /calendar/day-layout", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			sessionModel := sessionFrom(w, r)
			if sessionModel == nil {
				return
			}

			var reqBody DayLayoutReqBody
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}
			if reqBody.DateUnixUTC == 0 {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Please provide a date"))
				return
			}

			date := schedule.DateOf(time.Unix(reqBody.DateUnixUTC, 0))
			events, err := as.Store.Day(r.Context(), sessionModel.UserID, date)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get events"))
				slog.Error("can't get events", "error", err)
				return
			}

			// Day returns rows in start order, which is what keeps the
			// greedy packing free of same-column overlaps
			booked := make([]schedule.Booked, 0, len(events))
			for i := range events {
				booked = append(booked, events[i].Booked())
			}

			placed := schedule.Layout(booked)
			respBody := make([]OnePlacedRespBody, 0, len(placed))
			for _, p := range placed {
				respBody = append(respBody, OnePlacedRespBody(p))
			}
			respBodyJson, err := json.Marshal(respBody)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't marshal response body"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write(respBodyJson)
		}))
}
