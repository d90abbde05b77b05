package route

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"workdeck/src-server/model"
	"workdeck/src-server/utils"
)

type SessionCtxKeyType string

const (
	SessionCtxKey           SessionCtxKeyType = "session"
	SessionSecretCookieName string            = "session-secret"
)

func AuthMiddleware(as *utils.AppState, next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		// extract session secret from cookies
		sessionSecret := func() string {
			sessionCookie, err := r.Cookie(SessionSecretCookieName)
			if err == nil {
				return strings.TrimSpace(sessionCookie.Value)
			}
			return ""
		}()
		if sessionSecret == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Session secret cookie not found"))
			return
		}

		startTimer := time.Now()
		exists, err := as.BunDB.
			NewSelect().
			Model((*model.Session)(nil)).
			Where("secret = ?", sessionSecret).
			Exists(r.Context())
		switch {
		case err != nil:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't check if session exists in DB"))
			slog.Error("can't check if session exists in DB", "error", err)
			return
		case !exists:
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Session secret not found"))
			return
		}
		select {
		case as.MetricChans.DatabaseReadForAuthMiddleware <- float64(time.Since(startTimer).Microseconds()):
		default:
		}

		sessionModel := new(model.Session)
		if err := as.BunDB.
			NewSelect().
			Model(sessionModel).
			Where("secret = ?", sessionSecret).
			Scan(r.Context()); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Can't find session model in DB"))
			slog.Error("can't find session model in DB", "error", err)
			return
		}

		if sessionModel.ExpiredAt(time.Now().UTC(), as.Config.GetSessionExpire()) {
			if _, err := as.BunDB.
				NewDelete().
				Model((*model.Session)(nil)).
				Where("secret = ?", sessionSecret).
				Exec(r.Context()); err != nil {
				slog.Error("can't delete expired session", "error", err)
			}
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Session expired"))
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), SessionCtxKey, sessionModel)))
	}
}

// sessionFrom pulls the session the middleware injected, or writes a
// 500 and returns nil.
func sessionFrom(w http.ResponseWriter, r *http.Request) *model.Session {
	sessionModel, ok := r.Context().Value(SessionCtxKey).(*model.Session)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Can't get session from middleware"))
		return nil
	}
	return sessionModel
}
