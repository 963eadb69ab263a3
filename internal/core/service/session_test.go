package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"tasklist/internal/adapter/database/sqlite/repository"
	"tasklist/internal/core/domain"
	"tasklist/internal/core/service"
	"tasklist/pkg/auth"
	. "tasklist/pkg/test"
	"tasklist/pkg/test/factory"
)

func TestSessionService_Resolve(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	db := SetupTestDB(t)
	users := repository.NewUserRepository(db, nil)

	alice, err := users.Create(ctx, factory.NewUser[domain.User](map[string]any{"Username": "alice"}))
	g.Expect(err).NotTo(HaveOccurred())

	now := time.Now()
	tokens := auth.NewJWT(testSecret, auth.WithClock(func() time.Time { return now }))
	sessions := service.NewSessionService(tokens, users)

	t.Run("valid token resolves to its user", func(t *testing.T) {
		g := NewWithT(t)

		token, err := tokens.Issue("alice", time.Minute)
		g.Expect(err).NotTo(HaveOccurred())

		user, err := sessions.Resolve(ctx, token)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(user.ID).To(Equal(alice.ID))
		g.Expect(user.PasswordHash).To(BeEmpty())
	})

	t.Run("expired token is unauthenticated and reports expiry", func(t *testing.T) {
		g := NewWithT(t)

		stale := auth.NewJWT(testSecret, auth.WithClock(func() time.Time { return now.Add(-time.Hour) }))
		token, err := stale.Issue("alice", time.Minute)
		g.Expect(err).NotTo(HaveOccurred())

		_, err = sessions.Resolve(ctx, token)
		g.Expect(err).To(MatchError(domain.ErrUnauthenticated))
		g.Expect(err).To(MatchError(domain.ErrTokenExpired))
	})

	t.Run("malformed token is unauthenticated", func(t *testing.T) {
		g := NewWithT(t)

		_, err := sessions.Resolve(ctx, "garbage")
		g.Expect(err).To(MatchError(domain.ErrUnauthenticated))
		g.Expect(err).To(MatchError(domain.ErrTokenInvalid))
	})

	t.Run("token for a missing user is unauthenticated", func(t *testing.T) {
		g := NewWithT(t)

		token, err := tokens.Issue("ghost", time.Minute)
		g.Expect(err).NotTo(HaveOccurred())

		_, err = sessions.Resolve(ctx, token)
		g.Expect(err).To(MatchError(domain.ErrUnauthenticated))
	})

	t.Run("storage failure is not reported as unauthenticated", func(t *testing.T) {
		g := NewWithT(t)
		boom := errors.New("boom")

		token, err := tokens.Issue("alice", time.Minute)
		g.Expect(err).NotTo(HaveOccurred())

		_, err = service.NewSessionService(tokens, failingUsers{err: boom}).Resolve(ctx, token)
		g.Expect(err).To(MatchError(boom))
		g.Expect(errors.Is(err, domain.ErrUnauthenticated)).To(BeFalse())
	})
}
