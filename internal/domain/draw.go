package domain

import (
	"context"
	"errors"
	"time"

	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/internal/repository"
	"github.com/drawbot-lab/backend/pkg/crypto"
	"github.com/drawbot-lab/backend/pkg/errorx"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"github.com/pkg/math"
	"gorm.io/gorm"
)

type DrawDomain interface {
	Draw(ctx context.Context, lotteryID string) error
}

type drawDomain struct {
	lotteryRepo      repository.LotteryRepository
	prizeRepo        repository.PrizeRepository
	participantRepo  repository.ParticipantRepository
	prizeWinnerRepo  repository.PrizeWinnerRepository
	messageCountRepo repository.MessageCountRepository
	notifier         Notifier

	// randIntn is swapped for a seeded source in tests.
	randIntn func(n int) int
}

func NewDrawDomain(
	lotteryRepo repository.LotteryRepository,
	prizeRepo repository.PrizeRepository,
	participantRepo repository.ParticipantRepository,
	prizeWinnerRepo repository.PrizeWinnerRepository,
	messageCountRepo repository.MessageCountRepository,
	notifier Notifier,
) *drawDomain {
	return &drawDomain{
		lotteryRepo:      lotteryRepo,
		prizeRepo:        prizeRepo,
		participantRepo:  participantRepo,
		prizeWinnerRepo:  prizeWinnerRepo,
		messageCountRepo: messageCountRepo,
		notifier:         notifier,
		randIntn:         crypto.RandIntn,
	}
}

// Draw allocates every prize of an active lottery over a snapshot of its
// participants and completes the lottery. The winner batch and the status
// transition commit together; losing a concurrent race leaves no trace and the
// lottery is picked up as already handled.
func (d *drawDomain) Draw(ctx context.Context, lotteryID string) error {
	lottery, err := getLottery(ctx, d.lotteryRepo, lotteryID)
	if err != nil {
		return err
	}

	if lottery.Status != entity.LotteryActive {
		return errorx.New(errorx.Unavailable, "The lottery is not active")
	}

	drawn, err := d.prizeWinnerRepo.Count(ctx, lotteryID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count winners of lottery %s: %v", lotteryID, err)
		return errorx.Unknown
	}

	if drawn > 0 {
		return errorx.New(errorx.AlreadyDrawn, "The lottery has already been drawn")
	}

	prizes, err := d.prizeRepo.GetByLotteryID(ctx, lotteryID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get prizes of lottery %s: %v", lotteryID, err)
		return errorx.Unknown
	}

	participants, err := d.participantRepo.GetByLotteryID(ctx, lotteryID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get participants of lottery %s: %v", lotteryID, err)
		return errorx.Unknown
	}

	if len(prizes) == 0 || len(participants) == 0 {
		return errorx.New(errorx.InsufficientData,
			"The lottery has no prizes or no participants to draw")
	}

	totalSlots := 0
	for _, prize := range prizes {
		totalSlots += prize.TotalCount
	}

	if len(participants) < totalSlots {
		xcontext.Logger(ctx).Warnf(
			"Lottery %s is under-subscribed: %d participants for %d prize slots",
			lotteryID, len(participants), totalSlots)
	}

	winners := d.allocate(lotteryID, prizes, participants)

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.prizeWinnerRepo.BatchCreate(ctx, winners); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create winners of lottery %s: %v", lotteryID, err)
		return errorx.Unknown
	}

	err = d.lotteryRepo.Transition(ctx, lotteryID, entity.LotteryActive, entity.LotteryCompleted)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A concurrent draw or cancellation won the race.
			xcontext.Logger(ctx).Infof("Lottery %s left active state concurrently, skipping draw",
				lotteryID)
			return nil
		}

		xcontext.Logger(ctx).Errorf("Cannot complete lottery %s: %v", lotteryID, err)
		return errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)

	settings, err := d.lotteryRepo.GetSettingsByLotteryID(ctx, lotteryID)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot get settings of drawn lottery %s: %v", lotteryID, err)
		return nil
	}

	winnerValues := make([]entity.PrizeWinner, len(winners))
	for i := range winners {
		winnerValues[i] = *winners[i]
	}

	d.notifier.DrawCompleted(ctx, lottery, settings, prizes, winnerValues, participants)
	return nil
}

// allocate samples winners for each prize in insertion order, without
// replacement across the whole draw. Prizes past the point the pool empties
// receive no winners.
func (d *drawDomain) allocate(
	lotteryID string, prizes []entity.Prize, participants []entity.Participant,
) []*entity.PrizeWinner {
	pool := make([]entity.Participant, len(participants))
	copy(pool, participants)

	now := time.Now()
	var winners []*entity.PrizeWinner
	for _, prize := range prizes {
		// Unfilled slots stay void when the pool runs out.
		take := math.MinInt(prize.TotalCount, len(pool))
		if take == 0 {
			continue
		}

		for i := 0; i < take; i++ {
			j := d.randIntn(len(pool))
			picked := pool[j]
			pool[j] = pool[len(pool)-1]
			pool = pool[:len(pool)-1]

			winners = append(winners, &entity.PrizeWinner{
				Base:          entity.Base{ID: uuid.NewString()},
				LotteryID:     lotteryID,
				PrizeID:       prize.ID,
				ParticipantID: picked.ID,
				Status:        entity.WinnerPending,
				WinTime:       now,
			})
		}
	}

	return winners
}
