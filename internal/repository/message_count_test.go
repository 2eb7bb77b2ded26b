package repository

import (
	"testing"
	"time"

	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_messageCountRepository_Increment(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewMessageCountRepository()

	testutil.InsertLottery(ctx, &entity.Lottery{
		Base:   entity.Base{ID: "lottery1"},
		Status: entity.LotteryActive,
	}, nil)

	first := time.Now().Add(-time.Minute)
	second := time.Now()

	require.NoError(t, repo.Increment(ctx, "lottery1", testutil.User1.ID, -100, first))
	require.NoError(t, repo.Increment(ctx, "lottery1", testutil.User1.ID, -100, second))

	got, err := repo.Get(ctx, "lottery1", testutil.User1.ID, -100)
	require.NoError(t, err)
	require.Equal(t, 2, got.MessageCount)
	require.WithinDuration(t, second, got.LastMessageTime, time.Second)

	// Other users accumulate independently.
	require.NoError(t, repo.Increment(ctx, "lottery1", testutil.User2.ID, -100, second))
	got, err = repo.Get(ctx, "lottery1", testutil.User2.ID, -100)
	require.NoError(t, err)
	require.Equal(t, 1, got.MessageCount)

	require.NoError(t, repo.DeleteByUser(ctx, "lottery1", testutil.User1.ID))
	_, err = repo.Get(ctx, "lottery1", testutil.User1.ID, -100)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
