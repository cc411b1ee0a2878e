package ports

import (
	"context"
	"time"

	"orderbot/internal/core/domain/model/session"
)

// SessionRepository stores conversation sessions keyed by user id.
type SessionRepository interface {
	// Get returns errs.ErrObjectNotFound when the user has no stored session.
	// A store that remembers the locale longer than the session may return a
	// fresh idle session carrying that locale.
	Get(ctx context.Context, userID string) (*session.Session, error)

	Save(ctx context.Context, s *session.Session) error

	// PurgeExpired deletes sessions last updated before the cutoff and
	// returns how many were removed.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
