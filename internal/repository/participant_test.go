package repository

import (
	"testing"
	"time"

	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/pkg/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_participantRepository_CreateIfNotExist(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewParticipantRepository()

	testutil.InsertLottery(ctx, &entity.Lottery{
		Base:   entity.Base{ID: "lottery1"},
		Status: entity.LotteryActive,
	}, nil)

	inserted, err := repo.CreateIfNotExist(ctx, &entity.Participant{
		Base:      entity.Base{ID: uuid.NewString()},
		LotteryID: "lottery1",
		UserID:    testutil.User1.ID,
		Nickname:  testutil.User1.Nickname,
		JoinTime:  time.Now(),
	})
	require.NoError(t, err)
	require.True(t, inserted)

	// A second attempt for the same (lottery, user) must be a silent no-op.
	inserted, err = repo.CreateIfNotExist(ctx, &entity.Participant{
		Base:      entity.Base{ID: uuid.NewString()},
		LotteryID: "lottery1",
		UserID:    testutil.User1.ID,
		Nickname:  testutil.User1.Nickname,
		JoinTime:  time.Now(),
	})
	require.NoError(t, err)
	require.False(t, inserted)

	count, err := repo.Count(ctx, "lottery1")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	// The same user can still join another lottery.
	testutil.InsertLottery(ctx, &entity.Lottery{
		Base:   entity.Base{ID: "lottery2"},
		Status: entity.LotteryActive,
	}, nil)

	inserted, err = repo.CreateIfNotExist(ctx, &entity.Participant{
		Base:      entity.Base{ID: uuid.NewString()},
		LotteryID: "lottery2",
		UserID:    testutil.User1.ID,
		Nickname:  testutil.User1.Nickname,
		JoinTime:  time.Now(),
	})
	require.NoError(t, err)
	require.True(t, inserted)
}

func Test_participantRepository_GetByLotteryID_order(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewParticipantRepository()

	testutil.InsertLottery(ctx, &entity.Lottery{
		Base:   entity.Base{ID: "lottery1"},
		Status: entity.LotteryActive,
	}, nil)

	base := time.Now().Add(-time.Hour)
	for i, user := range []int64{30, 10, 20} {
		_, err := repo.CreateIfNotExist(ctx, &entity.Participant{
			Base:      entity.Base{ID: uuid.NewString()},
			LotteryID: "lottery1",
			UserID:    user,
			JoinTime:  base.Add(time.Duration(user) * time.Minute),
		})
		require.NoError(t, err, "participant %d", i)
	}

	got, err := repo.GetByLotteryID(ctx, "lottery1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int64(10), got[0].UserID)
	require.Equal(t, int64(20), got[1].UserID)
	require.Equal(t, int64(30), got[2].UserID)
}
