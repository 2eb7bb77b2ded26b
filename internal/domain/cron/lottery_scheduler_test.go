package cron

import (
	"context"
	"testing"
	"time"

	"github.com/drawbot-lab/backend/internal/domain"
	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/internal/repository"
	"github.com/drawbot-lab/backend/pkg/testutil"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type noopNotifier struct{}

func (noopNotifier) LotteryActivated(context.Context, *entity.Lottery,
	*entity.LotterySettings, []entity.Prize) {
}

func (noopNotifier) DrawCompleted(context.Context, *entity.Lottery,
	*entity.LotterySettings, []entity.Prize, []entity.PrizeWinner, []entity.Participant) {
}

func newTestScheduler() *LotterySchedulerCronJob {
	lotteryRepo := repository.NewLotteryRepository()
	participantRepo := repository.NewParticipantRepository()
	prizeRepo := repository.NewPrizeRepository()
	prizeWinnerRepo := repository.NewPrizeWinnerRepository()
	messageCountRepo := repository.NewMessageCountRepository()

	drawDomain := domain.NewDrawDomain(
		lotteryRepo, prizeRepo, participantRepo, prizeWinnerRepo,
		messageCountRepo, noopNotifier{})

	return NewLotterySchedulerCronJob(
		lotteryRepo, participantRepo, prizeRepo, prizeWinnerRepo,
		messageCountRepo, drawDomain, time.Minute)
}

func Test_LotterySchedulerCronJob_Do(t *testing.T) {
	ctx := testutil.MockContext()
	job := newTestScheduler()
	now := time.Now()

	// Due for a timed draw.
	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "due"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:      "Due giveaway",
			JoinMethod: entity.JoinPrivateChat,
			DrawMethod: entity.DrawAtTime,
			DrawTime:   now.Add(-time.Minute),
		},
		&entity.Prize{Name: "Sticker pack", TotalCount: 1},
	)
	testutil.InsertParticipants(ctx, "due", testutil.User1, testutil.User2)

	// Reached its capacity.
	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "full"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:            "Full giveaway",
			JoinMethod:       entity.JoinPrivateChat,
			DrawMethod:       entity.DrawWhenFull,
			ParticipantCount: 2,
		},
		&entity.Prize{Name: "T-shirt", TotalCount: 1},
	)
	testutil.InsertParticipants(ctx, "full", testutil.User3, testutil.User4)

	// Still collecting participants.
	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "running"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:            "Running giveaway",
			JoinMethod:       entity.JoinPrivateChat,
			DrawMethod:       entity.DrawWhenFull,
			ParticipantCount: 5,
		},
		&entity.Prize{Name: "Mug", TotalCount: 1},
	)
	testutil.InsertParticipants(ctx, "running", testutil.User5)

	// Stale draft and creating lotteries past their windows.
	testutil.InsertLottery(ctx, &entity.Lottery{
		Base:   entity.Base{ID: "stale-draft", CreatedAt: now.Add(-2 * time.Hour)},
		Status: entity.LotteryDraft,
	}, nil)
	testutil.InsertLottery(ctx, &entity.Lottery{
		Base:   entity.Base{ID: "stale-creating", CreatedAt: now.Add(-2 * time.Hour)},
		Status: entity.LotteryCreating,
	}, nil)
	testutil.InsertLottery(ctx, &entity.Lottery{
		Base:   entity.Base{ID: "fresh-draft", CreatedAt: now},
		Status: entity.LotteryDraft,
	}, nil)

	// Terminal lottery past the retention window, with dependent rows.
	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "old"}, Status: entity.LotteryCancelled},
		&entity.LotterySettings{
			Title:      "Old giveaway",
			JoinMethod: entity.JoinPrivateChat,
			DrawMethod: entity.DrawWhenFull,
		},
		&entity.Prize{Name: "Cap", TotalCount: 1},
	)
	testutil.InsertParticipants(ctx, "old", testutil.User1)
	require.NoError(t, xcontext.DB(ctx).Create(&entity.PrizeWinner{
		Base:          entity.Base{ID: uuid.NewString()},
		LotteryID:     "old",
		PrizeID:       uuid.NewString(),
		ParticipantID: uuid.NewString(),
		Status:        entity.WinnerPending,
		WinTime:       now.Add(-25 * time.Hour),
	}).Error)
	require.NoError(t, xcontext.DB(ctx).Model(&entity.Lottery{}).
		Where("id=?", "old").
		UpdateColumn("updated_at", now.Add(-25*time.Hour)).Error)

	job.Do(ctx)

	lotteryRepo := repository.NewLotteryRepository()
	prizeWinnerRepo := repository.NewPrizeWinnerRepository()

	// Both draw triggers fired.
	for _, id := range []string{"due", "full"} {
		lottery, err := lotteryRepo.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, entity.LotteryCompleted, lottery.Status, id)

		winners, err := prizeWinnerRepo.GetByLotteryID(ctx, id)
		require.NoError(t, err)
		require.Len(t, winners, 1, id)
	}

	// Under-capacity lotteries keep running.
	lottery, err := lotteryRepo.GetByID(ctx, "running")
	require.NoError(t, err)
	require.Equal(t, entity.LotteryActive, lottery.Status)

	// Expiry windows.
	for _, id := range []string{"stale-draft", "stale-creating"} {
		lottery, err := lotteryRepo.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, entity.LotteryCancelled, lottery.Status, id)
	}

	lottery, err = lotteryRepo.GetByID(ctx, "fresh-draft")
	require.NoError(t, err)
	require.Equal(t, entity.LotteryDraft, lottery.Status)

	// The old terminal lottery is purged with all dependents.
	_, err = lotteryRepo.GetByID(ctx, "old")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = lotteryRepo.GetSettingsByLotteryID(ctx, "old")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	winners, err := prizeWinnerRepo.GetByLotteryID(ctx, "old")
	require.NoError(t, err)
	require.Empty(t, winners)

	count, err := repository.NewParticipantRepository().Count(ctx, "old")
	require.NoError(t, err)
	require.Zero(t, count)
}

func Test_LotterySchedulerCronJob_timing(t *testing.T) {
	job := newTestScheduler()
	require.True(t, job.RunNow())
	require.WithinDuration(t, time.Now().Add(time.Minute), job.Next(), time.Second)
}
