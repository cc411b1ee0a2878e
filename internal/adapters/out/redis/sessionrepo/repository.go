// Package sessionrepo keeps conversation sessions in Redis. Each session is
// one JSON value that expires after the session TTL. The user's language is
// kept under a separate key that outlives the session.
package sessionrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/domain/model/session"
	"orderbot/internal/pkg/errs"

	goredis "github.com/redis/go-redis/v9"
)

const (
	sessionPrefix = "orderbot:session:"
	localePrefix  = "orderbot:locale:"

	// LocaleTTL bounds how long a language choice is remembered.
	LocaleTTL = 365 * 24 * time.Hour
)

// RedisSessionRepository implements ports.SessionRepository.
type RedisSessionRepository struct {
	client goredis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisSessionRepository(client goredis.UniversalClient, ttl time.Duration, now func() time.Time) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, ttl: ttl, now: now}
}

// Get returns the stored session. When only the language is remembered it
// returns a fresh idle session in that language.
func (r *RedisSessionRepository) Get(ctx context.Context, userID string) (*session.Session, error) {
	raw, err := r.client.Get(ctx, sessionPrefix+userID).Bytes()
	switch {
	case err == nil:
		var snap session.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, errs.NewValueIsInvalidErrorWithCause("session", err)
		}
		return session.RestoreSession(snap)
	case !errors.Is(err, goredis.Nil):
		return nil, err
	}

	locale, err := r.client.Get(ctx, localePrefix+userID).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, errs.NewObjectNotFoundError("session", userID)
	}
	if err != nil {
		return nil, err
	}
	l, err := kernel.ParseLocale(locale)
	if err != nil {
		return nil, errs.NewObjectNotFoundError("session", userID)
	}
	return session.NewSession(userID, l, r.now())
}

func (r *RedisSessionRepository) Save(ctx context.Context, s *session.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(s.Snapshot())
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, sessionPrefix+s.UserID(), raw, r.ttl)
		p.Set(ctx, localePrefix+s.UserID(), s.Locale().String(), LocaleTTL)
		return nil
	})
	return err
}

// PurgeExpired removes nothing: Redis expires session keys on its own.
func (r *RedisSessionRepository) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
