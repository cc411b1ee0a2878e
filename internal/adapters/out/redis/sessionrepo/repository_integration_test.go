package sessionrepo_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	redisadapter "orderbot/internal/adapters/out/redis"
	"orderbot/internal/adapters/out/redis/sessionrepo"
	"orderbot/internal/core/domain/model/kernel"
	"orderbot/internal/core/domain/model/session"
	"orderbot/internal/pkg/errs"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type RedisSessionRepositorySuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *goredis.Client
	repo      *sessionrepo.RedisSessionRepository
}

func (s *RedisSessionRepositorySuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	opts, err := goredis.ParseURL(url)
	s.Require().NoError(err)
	s.client = redisadapter.Open(ctx, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *RedisSessionRepositorySuite) TearDownSuite() {
	if s.client != nil {
		s.Require().NoError(s.client.Close())
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *RedisSessionRepositorySuite) SetupTest() {
	s.Require().NoError(s.client.FlushDB(context.Background()).Err())
	s.repo = sessionrepo.NewRedisSessionRepository(s.client, 100*time.Millisecond, func() time.Time { return now })
}

func (s *RedisSessionRepositorySuite) Test_SaveAndGet() {
	ctx := s.T().Context()
	sess, err := session.NewSession("user-1", kernel.LocaleUZ, now)
	s.Require().NoError(err)
	s.Require().NoError(sess.StartFlow(kernel.NewUUID(), now))
	s.Require().NoError(sess.Collect(session.FieldName, "Dilnoza", session.StepCollectPhone, now))
	s.Require().NoError(s.repo.Save(ctx, sess))

	got, err := s.repo.Get(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(session.StepCollectPhone, got.Step())
	name, ok := got.Fields().Get(session.FieldName)
	s.True(ok)
	s.Equal("Dilnoza", name)
}

func (s *RedisSessionRepositorySuite) Test_GetMissing() {
	_, err := s.repo.Get(s.T().Context(), "nobody")
	s.ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *RedisSessionRepositorySuite) Test_LocaleOutlivesSession() {
	ctx := s.T().Context()
	sess, err := session.NewSession("user-2", kernel.LocaleUZ, now)
	s.Require().NoError(err)
	s.Require().NoError(sess.StartFlow(kernel.NewUUID(), now))
	s.Require().NoError(s.repo.Save(ctx, sess))

	s.Eventually(func() bool {
		return s.client.Exists(ctx, "orderbot:session:user-2").Val() == 0
	}, 2*time.Second, 20*time.Millisecond)

	got, err := s.repo.Get(ctx, "user-2")
	s.Require().NoError(err)
	s.Equal(session.StepIdle, got.Step())
	s.Equal(kernel.LocaleUZ, got.Locale())
}

func (s *RedisSessionRepositorySuite) Test_PurgeExpiredIsNoop() {
	n, err := s.repo.PurgeExpired(s.T().Context(), now)
	s.NoError(err)
	s.Zero(n)
}

func TestRedisSessionRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(RedisSessionRepositorySuite))
}
