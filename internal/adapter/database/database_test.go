package database_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"tasklist/internal/adapter/database"
	"tasklist/internal/adapter/logger"
	"tasklist/internal/config"
	"tasklist/internal/core/domain"
)

func TestConnect_SQLiteMemory(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	store, err := database.Connect(ctx, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   ":memory:",
	}, nil, logger.NewNop())
	g.Expect(err).NotTo(HaveOccurred())
	defer store.Close()

	g.Expect(store.Ping(ctx)).To(Succeed())
	g.Expect(store.Migrate(ctx)).To(Succeed())
	g.Expect(store.Migrate(ctx)).To(Succeed())

	phone := "13800138000"
	user, err := store.Users.Create(ctx, domain.User{Username: "alice", PasswordHash: "x", PhoneNumber: &phone})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(user.ID).To(BeNumerically(">", 0))
}

func TestConnect_UnknownDriverIsNotRetried(t *testing.T) {
	g := NewWithT(t)

	_, err := database.Connect(context.Background(), config.DatabaseConfig{
		Driver:         "mongo",
		ConnectTimeout: 300 * time.Millisecond,
	}, nil, logger.NewNop())

	g.Expect(err).To(MatchError(ContainSubstring("unknown database driver")))
}
