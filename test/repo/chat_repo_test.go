package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/creditchek/devbot/internal/model"
	"github.com/creditchek/devbot/internal/repo"
	"github.com/creditchek/devbot/test/testutil"
)

func TestChatRepo_AppendAndListOrdering(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	chatRepo := repo.NewChatRepo(conn)
	ctx := context.Background()
	userID := uuid.NewString()

	base := time.Now().UnixMilli()
	for i := 0; i < 3; i++ {
		require.NoError(t, chatRepo.Append(ctx, &model.ChatExchange{
			ID:        uuid.NewString(),
			UserID:    userID,
			UserInput: "question",
			Response:  "answer",
			Timestamp: base + int64(i),
		}))
	}

	newest, err := chatRepo.ListByUser(ctx, userID, true, 2)
	require.NoError(t, err)
	require.Len(t, newest, 2)
	require.Equal(t, base+2, newest[0].Timestamp)
	require.Equal(t, base+1, newest[1].Timestamp)

	all, err := chatRepo.ListByUser(ctx, userID, false, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, base, all[0].Timestamp)
}

func TestChatRepo_ListIsolatedByUser(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	chatRepo := repo.NewChatRepo(conn)
	ctx := context.Background()
	userA := uuid.NewString()
	userB := uuid.NewString()

	require.NoError(t, chatRepo.Append(ctx, &model.ChatExchange{
		ID: uuid.NewString(), UserID: userA, UserInput: "q", Response: "a", Timestamp: time.Now().UnixMilli(),
	}))

	items, err := chatRepo.ListByUser(ctx, userB, false, 0)
	require.NoError(t, err)
	require.Empty(t, items)
}
