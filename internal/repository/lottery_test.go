package repository

import (
	"testing"
	"time"

	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/pkg/testutil"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_lotteryRepository_Transition(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewLotteryRepository()

	testutil.InsertLottery(ctx, &entity.Lottery{
		Base:   entity.Base{ID: "lottery1"},
		Status: entity.LotteryDraft,
	}, nil)

	require.NoError(t, repo.Transition(ctx,
		"lottery1", entity.LotteryDraft, entity.LotteryCreating))

	// A stale precondition must not apply and must be distinguishable.
	err := repo.Transition(ctx, "lottery1", entity.LotteryDraft, entity.LotteryCancelled)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := repo.GetByID(ctx, "lottery1")
	require.NoError(t, err)
	require.Equal(t, entity.LotteryCreating, got.Status)
}

func Test_lotteryRepository_FindActiveTimedDraws(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewLotteryRepository()
	now := time.Now()

	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "due"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:      "due",
			JoinMethod: entity.JoinPrivateChat,
			DrawMethod: entity.DrawAtTime,
			DrawTime:   now.Add(-time.Minute),
		})

	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "future"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:      "future",
			JoinMethod: entity.JoinPrivateChat,
			DrawMethod: entity.DrawAtTime,
			DrawTime:   now.Add(time.Hour),
		})

	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "done"}, Status: entity.LotteryCompleted},
		&entity.LotterySettings{
			Title:      "done",
			JoinMethod: entity.JoinPrivateChat,
			DrawMethod: entity.DrawAtTime,
			DrawTime:   now.Add(-time.Hour),
		})

	got, err := repo.FindActiveTimedDraws(ctx, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "due", got[0].ID)
}

func Test_lotteryRepository_FindActiveFullDraws(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewLotteryRepository()

	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "full"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:            "full",
			JoinMethod:       entity.JoinPrivateChat,
			DrawMethod:       entity.DrawWhenFull,
			ParticipantCount: 2,
		})
	testutil.InsertParticipants(ctx, "full", testutil.User1, testutil.User2)

	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "short"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:            "short",
			JoinMethod:       entity.JoinPrivateChat,
			DrawMethod:       entity.DrawWhenFull,
			ParticipantCount: 2,
		})
	testutil.InsertParticipants(ctx, "short", testutil.User3)

	got, err := repo.FindActiveFullDraws(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "full", got[0].ID)
}

func Test_lotteryRepository_expiryAndRetentionFinders(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewLotteryRepository()
	now := time.Now()

	testutil.InsertLottery(ctx, &entity.Lottery{
		Base:   entity.Base{ID: "stale-draft", CreatedAt: now.Add(-2 * time.Hour)},
		Status: entity.LotteryDraft,
	}, nil)
	testutil.InsertLottery(ctx, &entity.Lottery{
		Base:   entity.Base{ID: "fresh-draft", CreatedAt: now},
		Status: entity.LotteryDraft,
	}, nil)

	stale, err := repo.FindInStatusCreatedBefore(ctx, entity.LotteryDraft, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, "stale-draft", stale[0].ID)

	testutil.InsertLottery(ctx, &entity.Lottery{
		Base:   entity.Base{ID: "old-terminal"},
		Status: entity.LotteryCancelled,
	}, nil)
	require.NoError(t, xcontext.DB(ctx).Model(&entity.Lottery{}).
		Where("id=?", "old-terminal").
		UpdateColumn("updated_at", now.Add(-25*time.Hour)).Error)

	terminal, err := repo.FindTerminalUpdatedBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, terminal, 1)
	require.Equal(t, "old-terminal", terminal[0].ID)
}

func Test_lotteryRepository_activeSettingsLookups(t *testing.T) {
	ctx := testutil.MockContext()
	repo := NewLotteryRepository()

	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "kw"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:          "kw",
			JoinMethod:     entity.JoinGroupKeyword,
			KeywordGroupID: -100,
			Keyword:        "join me",
			DrawMethod:     entity.DrawWhenFull,
		})

	testutil.InsertLottery(ctx,
		&entity.Lottery{Base: entity.Base{ID: "msg"}, Status: entity.LotteryActive},
		&entity.LotterySettings{
			Title:          "msg",
			JoinMethod:     entity.JoinGroupMessage,
			MessageGroupID: -100,
			MessageCount:   3,
			DrawMethod:     entity.DrawWhenFull,
		})

	settings, err := repo.GetActiveKeywordSettings(ctx, -100, "join me")
	require.NoError(t, err)
	require.Equal(t, "kw", settings.LotteryID)

	_, err = repo.GetActiveKeywordSettings(ctx, -100, "other")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	tracked, err := repo.ListActiveMessageSettings(ctx, -100)
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	require.Equal(t, "msg", tracked[0].LotteryID)

	require.NoError(t, repo.MarkMessageCountTracked(ctx, "msg"))
	got, err := repo.GetSettingsByLotteryID(ctx, "msg")
	require.NoError(t, err)
	require.True(t, got.MessageCountTracked)
}
