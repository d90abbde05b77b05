package route

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"workdeck/src-server/model"
	"workdeck/src-server/utils"

	"github.com/google/uuid"
)

func Auth(muxer *http.ServeMux, as *utils.AppState) {
	// logout
	muxer.HandleFunc("DELETE /auth", func(w http.ResponseWriter, r *http.Request) {
		if sessionCookie, err := r.Cookie(SessionSecretCookieName); err == nil {
			if _, err := as.BunDB.
				NewDelete().
				Model((*model.Session)(nil)).
				Where("secret = ?", sessionCookie.Value).
				Exec(r.Context()); err != nil {
				slog.Error("can't delete session", "error", err)
			}
		}
		w.Header().Set("Set-Cookie", SessionSecretCookieName+"=; Path=/; HttpOnly; SameSite=Lax")
		w.WriteHeader(http.StatusOK)
	})

	type AuthReqBody struct {
		Username string `json:"username"`
	}

	// login; identity verification itself is the identity provider's
	// business, this just exchanges a known username for a session
	muxer.HandleFunc("POST /auth", func(w http.ResponseWriter, r *http.Request) {
		var reqBody AuthReqBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Invalid request body"))
			return
		}
		if reqBody.Username == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Please provide a username"))
			return
		}

		userModel := new(model.User)
		exists, err := as.BunDB.
			NewSelect().
			Model((*model.User)(nil)).
			Where("username = ?", reqBody.Username).
			Exists(r.Context())
		switch {
		case err != nil:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't check if user exists in DB"))
			slog.Error("can't check if user exists in DB", "error", err)
			return
		case !exists:
			userModel.ID = uuid.NewString()
			userModel.Username = reqBody.Username
			if err := userModel.Upsert(r.Context(), as.BunDB); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't create user"))
				slog.Error("can't create user", "error", err)
				return
			}
		default:
			if err := as.BunDB.
				NewSelect().
				Model(userModel).
				Where("username = ?", reqBody.Username).
				Scan(r.Context()); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't find user in DB"))
				slog.Error("can't find user in DB", "error", err)
				return
			}
		}

		sessionModel := model.Session{
			Secret:    uuid.NewString(),
			UserID:    userModel.ID,
			CreatedAt: time.Now().UTC().Unix(),
		}
		if _, err := as.BunDB.
			NewInsert().
			Model(&sessionModel).
			Exec(r.Context()); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't create session"))
			slog.Error("can't create session", "error", err)
			return
		}

		w.Header().Set("Set-Cookie", fmt.Sprintf(
			"%s=%s; Path=/; HttpOnly; SameSite=Lax",
			SessionSecretCookieName, sessionModel.Secret,
		))
		w.WriteHeader(http.StatusOK)
	})
}
