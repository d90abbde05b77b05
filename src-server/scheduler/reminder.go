package scheduler

import (
	"context"
	"log/slog"
	"time"
	"workdeck/src-server/utils"
)

// Reminder periodically surfaces events starting within the next 15
// minutes. Actual delivery (mail, chat, push) belongs to whatever is
// subscribed downstream; this loop only finds due events, logs them and
// marks them so they never fire twice.
func Reminder(as *utils.AppState) {
	for {
		time.Sleep(time.Second * 30)

		now := as.Clock.Now()
		due, err := as.Store.DueReminders(context.Background(), now, now.Add(15*time.Minute))
		if err != nil {
			slog.Error("Reminder: can't get due events", "error", err)
			continue
		}
		if len(due) == 0 {
			continue
		}

		ids := make([]string, 0, len(due))
		for _, event := range due {
			slog.Info("event starting soon",
				"event", event.ID,
				"title", event.Title,
				"owner", event.OwnerID,
				"starts_at", event.StartsAt().Format(time.RFC1123Z),
			)
			ids = append(ids, event.ID)
		}

		if err := as.Store.MarkReminded(context.Background(), ids); err != nil {
			slog.Error("Reminder: can't mark events as reminded", "error", err)
		}
	}
}
