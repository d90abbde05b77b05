package scheduler

import (
	"context"
	"log/slog"
	"time"
	"workdeck/src-server/model"
	"workdeck/src-server/utils"
)

// SessionSweep evicts expired sessions so the sessions table doesn't
// grow without bound. The auth middleware already rejects expired
// secrets on use; this catches the ones nobody presents again.
func SessionSweep(as *utils.AppState) {
	for {
		time.Sleep(time.Hour)

		cutoff := time.Now().UTC().Add(-as.Config.GetSessionExpire()).Unix()
		res, err := as.BunDB.
			NewDelete().
			Model((*model.Session)(nil)).
			Where("created_at < ?", cutoff).
			Exec(context.Background())
		if err != nil {
			slog.Error("SessionSweep: can't delete expired sessions", "error", err)
			continue
		}
		if deleted, err := res.RowsAffected(); err == nil && deleted > 0 {
			slog.Debug("SessionSweep: evicted expired sessions", "count", deleted)
		}
	}
}
