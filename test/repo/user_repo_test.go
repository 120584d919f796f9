package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/creditchek/devbot/internal/model"
	appErr "github.com/creditchek/devbot/internal/pkg/errors"
	"github.com/creditchek/devbot/internal/repo"
	"github.com/creditchek/devbot/test/testutil"
)

func newTestUser(email string) *model.User {
	now := time.Now().UnixMilli()
	return &model.User{
		ID:           uuid.NewString(),
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "$2a$10$fakefakefakefakefakefa",
		Ctime:        now,
		Mtime:        now,
	}
}

func TestUserRepo_CreateAndGet(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	userRepo := repo.NewUserRepo(conn)
	ctx := context.Background()

	email := uuid.NewString() + "@example.com"
	user := newTestUser(email)
	require.NoError(t, userRepo.Create(ctx, user))

	byEmail, err := userRepo.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	byID, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, email, byID.Email)
}

func TestUserRepo_DuplicateEmailIsConflict(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	userRepo := repo.NewUserRepo(conn)
	ctx := context.Background()

	email := uuid.NewString() + "@example.com"
	require.NoError(t, userRepo.Create(ctx, newTestUser(email)))
	err := userRepo.Create(ctx, newTestUser(email))
	require.ErrorIs(t, err, appErr.ErrConflict)
}

func TestUserRepo_GetMissingIsNotFound(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	userRepo := repo.NewUserRepo(conn)

	_, err := userRepo.GetByID(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
