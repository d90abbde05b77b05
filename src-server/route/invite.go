package route

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"workdeck/src-server/schedule"
	"workdeck/src-server/utils"
)

func Invite(muxer *http.ServeMux, as *utils.AppState) {
	type RespondReqBody struct {
		// id of the invitee copy on the caller's calendar, or the
		// creator's event id
		EventID string `json:"eventId"`
		Action  string `json:"action"` // "accept" or "decline"
	}

	type RespondRespBody struct {
		Status  string `json:"status"`
		Changed bool   `json:"changed"`
	}

	// answer an invite; answering a settled invite again is a no-op
	muxer.HandleFunc("POST /calendar/respond-invite", AuthMiddleware(as,
		func(w http.ResponseWriter, r *http.Request) {
			sessionModel := sessionFrom(w, r)
			if sessionModel == nil {
				return
			}

			var reqBody RespondReqBody
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}
			action := schedule.InviteAction(reqBody.Action)
			if action != schedule.ActionAccept && action != schedule.ActionDecline {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Action must be accept or decline"))
				return
			}

			// accept either the copy's own id or the creator event id
			copyEvent, err := as.Store.Get(r.Context(), reqBody.EventID)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get event"))
				slog.Error("can't get event", "error", err)
				return
			}
			if copyEvent == nil || !copyEvent.IsCopy() || copyEvent.UserID != sessionModel.UserID {
				copyEvent, err = as.Store.CopyFor(r.Context(), reqBody.EventID, sessionModel.UserID)
				if err != nil {
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte("Can't get invite"))
					slog.Error("can't get invite", "error", err)
					return
				}
			}
			if copyEvent == nil {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte("No invite found for this event"))
				return
			}

			status, changed := schedule.Respond(schedule.InviteStatus(copyEvent.InviteStatus), action)
			if changed {
				copyEvent.InviteStatus = string(status)
				if err := as.Store.Put(r.Context(), copyEvent); err != nil {
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte("Can't update invite"))
					slog.Error("can't update invite", "error", err)
					return
				}
			}

			respBodyJson, err := json.Marshal(RespondRespBody{
				Status:  string(status),
				Changed: changed,
			})
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't marshal response body"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write(respBodyJson)
		}))
}
