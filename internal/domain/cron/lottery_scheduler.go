package cron

import (
	"context"
	"errors"
	"time"

	"github.com/drawbot-lab/backend/internal/domain"
	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/internal/repository"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// LotterySchedulerCronJob advances every time-dependent part of the lottery
// lifecycle on a fixed interval: due draws, full draws, draft/creating expiry,
// and the retention purge. Each item is handled independently so one failure
// never blocks the rest of the tick.
type LotterySchedulerCronJob struct {
	lotteryRepo      repository.LotteryRepository
	participantRepo  repository.ParticipantRepository
	prizeRepo        repository.PrizeRepository
	prizeWinnerRepo  repository.PrizeWinnerRepository
	messageCountRepo repository.MessageCountRepository
	drawDomain       domain.DrawDomain
	interval         time.Duration
}

func NewLotterySchedulerCronJob(
	lotteryRepo repository.LotteryRepository,
	participantRepo repository.ParticipantRepository,
	prizeRepo repository.PrizeRepository,
	prizeWinnerRepo repository.PrizeWinnerRepository,
	messageCountRepo repository.MessageCountRepository,
	drawDomain domain.DrawDomain,
	interval time.Duration,
) *LotterySchedulerCronJob {
	return &LotterySchedulerCronJob{
		lotteryRepo:      lotteryRepo,
		participantRepo:  participantRepo,
		prizeRepo:        prizeRepo,
		prizeWinnerRepo:  prizeWinnerRepo,
		messageCountRepo: messageCountRepo,
		drawDomain:       drawDomain,
		interval:         interval,
	}
}

func (job *LotterySchedulerCronJob) Do(ctx context.Context) {
	now := time.Now()
	job.drawDueLotteries(ctx, now)
	job.drawFullLotteries(ctx)
	job.expireStale(ctx, now)
	job.purgeExpired(ctx, now)
}

func (job *LotterySchedulerCronJob) RunNow() bool {
	return true
}

func (job *LotterySchedulerCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}

func (job *LotterySchedulerCronJob) drawDueLotteries(ctx context.Context, now time.Time) {
	lotteries, err := job.lotteryRepo.FindActiveTimedDraws(ctx, now)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot find due lotteries: %v", err)
		return
	}

	for i := range lotteries {
		if err := job.drawDomain.Draw(ctx, lotteries[i].ID); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot draw due lottery %s: %v", lotteries[i].ID, err)
		}
	}
}

func (job *LotterySchedulerCronJob) drawFullLotteries(ctx context.Context) {
	lotteries, err := job.lotteryRepo.FindActiveFullDraws(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot find full lotteries: %v", err)
		return
	}

	for i := range lotteries {
		if err := job.drawDomain.Draw(ctx, lotteries[i].ID); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot draw full lottery %s: %v", lotteries[i].ID, err)
		}
	}
}

// expireStale cancels drafts whose creation link ran out and creating
// lotteries whose form was never submitted in time.
func (job *LotterySchedulerCronJob) expireStale(ctx context.Context, now time.Time) {
	cfg := xcontext.Configs(ctx).Lottery

	windows := []struct {
		status entity.LotteryStatus
		expiry time.Duration
	}{
		{entity.LotteryDraft, cfg.DraftExpiry.Duration},
		{entity.LotteryCreating, cfg.CreatingExpiry.Duration},
	}

	for _, w := range windows {
		lotteries, err := job.lotteryRepo.FindInStatusCreatedBefore(ctx, w.status, now.Add(-w.expiry))
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot find expired %s lotteries: %v", w.status, err)
			continue
		}

		for i := range lotteries {
			err := job.lotteryRepo.Transition(ctx,
				lotteries[i].ID, w.status, entity.LotteryCancelled)
			if err != nil {
				// A concurrent transition already moved it on.
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}

				xcontext.Logger(ctx).Warnf("Cannot expire lottery %s: %v", lotteries[i].ID, err)
				continue
			}

			xcontext.Logger(ctx).Infof("Expired %s lottery %s", w.status, lotteries[i].ID)
		}
	}
}

// purgeExpired hard-deletes terminal lotteries past the retention window,
// removing dependent rows before the lottery itself.
func (job *LotterySchedulerCronJob) purgeExpired(ctx context.Context, now time.Time) {
	retention := xcontext.Configs(ctx).Lottery.Retention.Duration
	lotteries, err := job.lotteryRepo.FindTerminalUpdatedBefore(ctx, now.Add(-retention))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot find purgeable lotteries: %v", err)
		return
	}

	for i := range lotteries {
		if err := job.purgeOne(ctx, lotteries[i].ID); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot purge lottery %s: %v", lotteries[i].ID, err)
			continue
		}

		xcontext.Logger(ctx).Infof("Purged lottery %s", lotteries[i].ID)
	}
}

func (job *LotterySchedulerCronJob) purgeOne(ctx context.Context, lotteryID string) error {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := job.prizeWinnerRepo.DeleteByLotteryID(ctx, lotteryID); err != nil {
		return err
	}

	if err := job.participantRepo.DeleteByLotteryID(ctx, lotteryID); err != nil {
		return err
	}

	if err := job.messageCountRepo.DeleteByLotteryID(ctx, lotteryID); err != nil {
		return err
	}

	if err := job.prizeRepo.DeleteByLotteryID(ctx, lotteryID); err != nil {
		return err
	}

	if err := job.lotteryRepo.DeleteSettingsByLotteryID(ctx, lotteryID); err != nil {
		return err
	}

	if err := job.lotteryRepo.Delete(ctx, lotteryID); err != nil {
		return err
	}

	xcontext.WithCommitDBTransaction(ctx)
	return nil
}
