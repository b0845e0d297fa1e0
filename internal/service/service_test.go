package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"learnlens/internal/database"
	"learnlens/internal/logger"
	"learnlens/internal/repository"
	"learnlens/internal/security"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	db    *database.DB
	users *repository.UserRepository
	auth  *AuthService
	kids  *KidService
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	tokens := security.NewTokenIssuer("test-secret", time.Hour)
	return &fixture{
		db:    db,
		users: users,
		auth:  NewAuthService(users, tokens, 24*time.Hour, logger.Nop()),
		kids:  NewKidService(repository.NewKidRepository(db), repository.NewActivityRepository(db), logger.Nop()),
	}
}
