package model

import (
	"time"

	"github.com/uptrace/bun"
)

// Session keeps one logged-in browser's secret. The route middleware
// looks rows up by secret and evicts expired ones.
type Session struct {
	bun.BaseModel `bun:"table:sessions"`

	Secret    string `bun:"secret,pk"`          // required
	UserID    string `bun:"user_id,notnull"`    // required
	CreatedAt int64  `bun:"created_at,notnull"` // required, unix UTC
}

// ExpiredAt reports whether the session is past its lifetime at t.
func (s *Session) ExpiredAt(t time.Time, lifetime time.Duration) bool {
	return time.Unix(s.CreatedAt, 0).UTC().Add(lifetime).Before(t)
}
