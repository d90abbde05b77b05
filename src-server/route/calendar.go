package route

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
	"workdeck/src-server/model"
	"workdeck/src-server/schedule"
	"workdeck/src-server/utils"

	"github.com/google/uuid"
)

func Calendar(muxer *http.ServeMux, as *utils.AppState) {
	type GetEventsReqBody struct {
		StartDateUnixUTC int64 `json:"startDateUnixUTC"`
		EndDateUnixUTC   int64 `json:"endDateUnixUTC"`
	}

	type InviteeRespBody struct {
		UserID string `json:"userId"`
		Status string `json:"status"`
	}

	type OneEventRespBody struct {
		ID           string            `json:"id"`
		OwnerID      string            `json:"ownerId"`
		SourceID     string            `json:"sourceId,omitempty"`
		Title        string            `json:"title"`
		Description  string            `json:"description"`
		Location     string            `json:"location"`
		Color        string            `json:"color"`
		DateUnixUTC  int64             `json:"dateUnixUTC"`
		StartMin     int               `json:"startMin"`
		EndMin       int               `json:"endMin"`
		IsOnline     bool              `json:"isOnline"`
		MeetingLink  string            `json:"meetingLink,omitempty"`
		RoomID       string            `json:"roomId,omitempty"`
		Recurrence   string            `json:"recurrence"`
		InviteStatus string            `json:"inviteStatus,omitempty"`
		Invitees     []InviteeRespBody `json:"invitees,omitempty"`
	}

	toRespBody := func(r *http.Request, event *model.Event) OneEventRespBody {
		resp := OneEventRespBody{
			ID:           event.ID,
			OwnerID:      event.OwnerID,
			SourceID:     event.SourceID,
			Title:        event.Title,
			Description:  event.Description,
			Location:     event.Location,
			Color:        event.Color,
			DateUnixUTC:  event.DateUnixUTC,
			StartMin:     event.StartMin,
			EndMin:       event.EndMin,
			IsOnline:     event.IsOnline,
			MeetingLink:  event.MeetingLink,
			RoomID:       event.RoomID,
			Recurrence:   event.Recurrence,
			InviteStatus: event.InviteStatus,
		}
		if !event.IsCopy() {
			copies, err := as.Store.InviteCopies(r.Context(), event.ID)
			if err != nil {
				slog.Error("can't get invite copies", "event", event.ID, "error", err)
				return resp
			}
			for _, c := range copies {
				resp.Invitees = append(resp.Invitees, InviteeRespBody{
					UserID: c.UserID,
					Status: c.InviteStatus,
				})
			}
		}
		return resp
	}

	// get all events on the session user's calendar in a date range
	muxer.HandleFunc("POST /calendar/get-events", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			sessionModel := sessionFrom(w, r)
			if sessionModel == nil {
				return
			}

			var reqBody GetEventsReqBody
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}
			if reqBody.StartDateUnixUTC == 0 || reqBody.EndDateUnixUTC == 0 {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Please provide a start date and end date"))
				return
			}

			events, err := as.Store.Query(r.Context(), sessionModel.UserID,
				time.Unix(reqBody.StartDateUnixUTC, 0).UTC(),
				time.Unix(reqBody.EndDateUnixUTC, 0).UTC())
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get events"))
				slog.Error("can't get events", "error", err)
				return
			}

			respBody := make([]OneEventRespBody, 0, len(events))
			for i := range events {
				respBody = append(respBody, toRespBody(r, &events[i]))
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

	type CreateEventReqBody struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Location    string   `json:"location"`
		Color       string   `json:"color"`
		DateUnixUTC int64    `json:"dateUnixUTC"`
		StartMin    int      `json:"startMin"`
		EndMin      int      `json:"endMin"`
		IsOnline    bool     `json:"isOnline"`
		MeetingLink string   `json:"meetingLink"`
		RoomID      string   `json:"roomId"`
		Recurrence  string   `json:"recurrence"`
		Invitees    []string `json:"invitees"`
	}

	type ModifyEventReqBody struct {
		ID string `json:"id"`
		CreateEventReqBody
	}

	type RejectionRespBody struct {
		Code        string   `json:"code"`
		Message     string   `json:"message"`
		ConflictIDs []string `json:"conflictIds,omitempty"`
	}

	// validate a placement against the user's day, writing the typed
	// rejection to the response when it fails
	checkPlacement := func(w http.ResponseWriter, r *http.Request, userID string, candidate schedule.Candidate, editingID string) bool {
		existingModels, err := as.Store.Day(r.Context(), userID, candidate.Date)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't get events for the day"))
			slog.Error("can't get events for the day", "error", err)
			return false
		}
		existing := make([]schedule.Booked, 0, len(existingModels))
		for i := range existingModels {
			if !existingModels[i].CountsAsBusy() {
				continue
			}
			existing = append(existing, existingModels[i].Booked())
		}

		err = schedule.Validate(candidate, existing, as.Clock.Now(), editingID, as.Policy)
		if err == nil {
			return true
		}
		rej := schedule.AsRejection(err)
		if rej == nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't validate event"))
			slog.Error("can't validate event", "error", err)
			return false
		}
		select {
		case as.MetricChans.Rejections <- string(rej.Code):
		default:
		}

		status := http.StatusBadRequest
		if rej.Code == schedule.RejectTimeConflict {
			status = http.StatusConflict
		}
		w.WriteHeader(status)
		respBodyJson, _ := json.Marshal(RejectionRespBody{
			Code:        string(rej.Code),
			Message:     rej.Message,
			ConflictIDs: rej.ConflictIDs,
		})
		w.Write(respBodyJson)
		return false
	}

	// create a new event plus its pending invitee copies; the success
	// response is the event ID
	muxer.HandleFunc("POST /calendar/create-event", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			sessionModel := sessionFrom(w, r)
			if sessionModel == nil {
				return
			}

			var reqBody CreateEventReqBody
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}
			recurrence, err := schedule.ParseRecurrence(reqBody.Recurrence)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid recurrence"))
				return
			}

			date := schedule.DateOf(time.Unix(reqBody.DateUnixUTC, 0))
			candidate := schedule.Candidate{
				Date:     date,
				Interval: schedule.Interval{StartMin: reqBody.StartMin, EndMin: reqBody.EndMin},
			}
			if !checkPlacement(w, r, sessionModel.UserID, candidate, "") {
				return
			}

			ownerEvent := model.Event{
				ID:          uuid.NewString(),
				UserID:      sessionModel.UserID,
				OwnerID:     sessionModel.UserID,
				Title:       utils.CleanupTitle(reqBody.Title),
				Description: reqBody.Description,
				Location:    reqBody.Location,
				Color:       reqBody.Color,
				DateUnixUTC: date.Unix(),
				StartMin:    reqBody.StartMin,
				EndMin:      reqBody.EndMin,
				IsOnline:    reqBody.IsOnline,
				MeetingLink: reqBody.MeetingLink,
				RoomID:      reqBody.RoomID,
				Recurrence:  string(recurrence),
			}

			toInsert := []*model.Event{&ownerEvent}
			for _, invite := range schedule.BuildInvites(sessionModel.UserID, reqBody.Invitees, recurrence) {
				copyEvent := ownerEvent
				copyEvent.ID = uuid.NewString()
				copyEvent.UserID = invite.UserID
				copyEvent.SourceID = ownerEvent.ID
				copyEvent.InviteStatus = string(invite.Status)
				toInsert = append(toInsert, &copyEvent)
			}

			if err := as.Store.PutAll(r.Context(), toInsert); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't create event"))
				slog.Error("can't create event", "error", err)
				return
			}

			w.WriteHeader(http.StatusOK)
			w.Write([]byte(ownerEvent.ID))
		}))

	// modify an event by full replacement; invitee copies not touched
	muxer.HandleFunc("POST /calendar/modify-event", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			sessionModel := sessionFrom(w, r)
			if sessionModel == nil {
				return
			}

			var reqBody ModifyEventReqBody
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}
			if reqBody.ID == "" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Please provide an event id"))
				return
			}
			recurrence, err := schedule.ParseRecurrence(reqBody.Recurrence)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid recurrence"))
				return
			}

			prior, err := as.Store.Get(r.Context(), reqBody.ID)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get event"))
				slog.Error("can't get event", "error", err)
				return
			}
			switch {
			case prior == nil:
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte("Event not found"))
				return
			case prior.OwnerID != sessionModel.UserID || prior.IsCopy():
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("Only the event owner can modify it"))
				return
			}

			date := schedule.DateOf(time.Unix(reqBody.DateUnixUTC, 0))
			candidate := schedule.Candidate{
				Date:     date,
				Interval: schedule.Interval{StartMin: reqBody.StartMin, EndMin: reqBody.EndMin},
			}
			if !checkPlacement(w, r, sessionModel.UserID, candidate, prior.ID) {
				return
			}

			edited := *prior
			edited.Title = utils.CleanupTitle(reqBody.Title)
			edited.Description = reqBody.Description
			edited.Location = reqBody.Location
			edited.Color = reqBody.Color
			edited.DateUnixUTC = date.Unix()
			edited.StartMin = reqBody.StartMin
			edited.EndMin = reqBody.EndMin
			edited.IsOnline = reqBody.IsOnline
			edited.MeetingLink = reqBody.MeetingLink
			edited.RoomID = reqBody.RoomID
			edited.Recurrence = string(recurrence)

			if err := as.Store.Put(r.Context(), &edited); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't modify event"))
				slog.Error("can't modify event", "error", err)
				return
			}

			w.WriteHeader(http.StatusOK)
			w.Write([]byte(edited.ID))
		}))

	type DeleteEventReqBody struct {
		ID string `json:"id"`
	}

	// delete the owner's record; invitee copies stay where they are
	muxer.HandleFunc("POST /calendar/delete-event", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			sessionModel := sessionFrom(w, r)
			if sessionModel == nil {
				return
			}

			var reqBody DeleteEventReqBody
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}

			event, err := as.Store.Get(r.Context(), reqBody.ID)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get event"))
				slog.Error("can't get event", "error", err)
				return
			}
			if event == nil {
				w.WriteHeader(http.StatusOK)
				return
			}
			if event.UserID != sessionModel.UserID {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("Only the calendar owner can delete this record"))
				return
			}

			if err := as.Store.Remove(r.Context(), reqBody.ID); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't delete event"))
				slog.Error("can't delete event", "error", err)
				return
			}

			w.WriteHeader(http.StatusOK)
		}))
}
