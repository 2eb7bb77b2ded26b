package domain

import (
	"testing"
	"time"

	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/internal/repository"
	"github.com/drawbot-lab/backend/pkg/errorx"
	"github.com/drawbot-lab/backend/pkg/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestDrawDomain() *drawDomain {
	return &drawDomain{
		lotteryRepo:      repository.NewLotteryRepository(),
		prizeRepo:        repository.NewPrizeRepository(),
		participantRepo:  repository.NewParticipantRepository(),
		prizeWinnerRepo:  repository.NewPrizeWinnerRepository(),
		messageCountRepo: repository.NewMessageCountRepository(),
		notifier:         noopNotifier{},
		randIntn:         func(n int) int { return 0 },
	}
}

func Test_drawDomain_Draw(t *testing.T) {
	ctx := testutil.MockContext()
	domain := newTestDrawDomain()

	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "giveaway"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:            "Grand giveaway",
			JoinMethod:       entity.JoinPrivateChat,
			DrawMethod:       entity.DrawWhenFull,
			ParticipantCount: 5,
		},
		&entity.Prize{Name: "Sticker pack", TotalCount: 2},
		&entity.Prize{Name: "T-shirt", TotalCount: 1},
	)
	testutil.InsertParticipants(ctx, "giveaway",
		testutil.User1, testutil.User2, testutil.User3, testutil.User4, testutil.User5)

	require.NoError(t, domain.Draw(ctx, "giveaway"))

	lottery, err := domain.lotteryRepo.GetByID(ctx, "giveaway")
	require.NoError(t, err)
	require.Equal(t, entity.LotteryCompleted, lottery.Status)

	winners, err := domain.prizeWinnerRepo.GetByLotteryID(ctx, "giveaway")
	require.NoError(t, err)
	require.Len(t, winners, 3)

	// Every winner is distinct and pending.
	seen := map[string]bool{}
	for _, winner := range winners {
		require.False(t, seen[winner.ParticipantID])
		seen[winner.ParticipantID] = true
		require.Equal(t, entity.WinnerPending, winner.Status)
	}

	// A completed lottery cannot be drawn again.
	err = domain.Draw(ctx, "giveaway")
	requireErrCode(t, err, errorx.Unavailable)
}

func Test_drawDomain_Draw_underSubscribed(t *testing.T) {
	ctx := testutil.MockContext()
	domain := newTestDrawDomain()

	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "quiet"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:      "Quiet giveaway",
			JoinMethod: entity.JoinPrivateChat,
			DrawMethod: entity.DrawAtTime,
			DrawTime:   time.Now().Add(-time.Minute),
		},
		&entity.Prize{Name: "Sticker pack", TotalCount: 3},
		&entity.Prize{Name: "T-shirt", TotalCount: 1},
	)
	testutil.InsertParticipants(ctx, "quiet", testutil.User1)

	// One participant for four slots: one winner, the rest stay void.
	require.NoError(t, domain.Draw(ctx, "quiet"))

	winners, err := domain.prizeWinnerRepo.GetByLotteryID(ctx, "quiet")
	require.NoError(t, err)
	require.Len(t, winners, 1)

	lottery, err := domain.lotteryRepo.GetByID(ctx, "quiet")
	require.NoError(t, err)
	require.Equal(t, entity.LotteryCompleted, lottery.Status)
}

func Test_drawDomain_Draw_refusals(t *testing.T) {
	ctx := testutil.MockContext()
	domain := newTestDrawDomain()

	// No participants.
	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "empty"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:      "Empty giveaway",
			JoinMethod: entity.JoinPrivateChat,
			DrawMethod: entity.DrawAtTime,
			DrawTime:   time.Now().Add(-time.Minute),
		},
		&entity.Prize{Name: "Sticker pack", TotalCount: 1},
	)

	err := domain.Draw(ctx, "empty")
	requireErrCode(t, err, errorx.InsufficientData)

	// The lottery stays active and is retried on a later tick.
	lottery, err := domain.lotteryRepo.GetByID(ctx, "empty")
	require.NoError(t, err)
	require.Equal(t, entity.LotteryActive, lottery.Status)

	// Existing winner rows forbid a re-draw even while active.
	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "half-drawn"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:      "Half drawn",
			JoinMethod: entity.JoinPrivateChat,
			DrawMethod: entity.DrawAtTime,
			DrawTime:   time.Now().Add(-time.Minute),
		},
		&entity.Prize{Name: "Sticker pack", TotalCount: 1},
	)
	testutil.InsertParticipants(ctx, "half-drawn", testutil.User1)

	require.NoError(t, domain.prizeWinnerRepo.BatchCreate(ctx, []*entity.PrizeWinner{{
		Base:          entity.Base{ID: uuid.NewString()},
		LotteryID:     "half-drawn",
		PrizeID:       uuid.NewString(),
		ParticipantID: uuid.NewString(),
		Status:        entity.WinnerPending,
		WinTime:       time.Now(),
	}}))

	err = domain.Draw(ctx, "half-drawn")
	requireErrCode(t, err, errorx.AlreadyDrawn)
}
