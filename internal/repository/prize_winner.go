package repository

import (
	"context"

	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/pkg/xcontext"
)

type PrizeWinnerRepository interface {
	BatchCreate(ctx context.Context, winners []*entity.PrizeWinner) error
	GetByLotteryID(ctx context.Context, lotteryID string) ([]entity.PrizeWinner, error)
	Count(ctx context.Context, lotteryID string) (int64, error)
	DeleteByLotteryID(ctx context.Context, lotteryID string) error
}

type prizeWinnerRepository struct{}

func NewPrizeWinnerRepository() *prizeWinnerRepository {
	return &prizeWinnerRepository{}
}

// BatchCreate inserts all winner rows of one draw as a single statement so
// they commit or fail together.
func (r *prizeWinnerRepository) BatchCreate(
	ctx context.Context, winners []*entity.PrizeWinner,
) error {
	return xcontext.DB(ctx).Create(winners).Error
}

func (r *prizeWinnerRepository) GetByLotteryID(
	ctx context.Context, lotteryID string,
) ([]entity.PrizeWinner, error) {
	var result []entity.PrizeWinner
	err := xcontext.DB(ctx).Order("win_time ASC, id ASC").
		Find(&result, "lottery_id=?", lotteryID).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *prizeWinnerRepository) Count(ctx context.Context, lotteryID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.PrizeWinner{}).
		Where("lottery_id=?", lotteryID).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *prizeWinnerRepository) DeleteByLotteryID(ctx context.Context, lotteryID string) error {
	return xcontext.DB(ctx).Delete(&entity.PrizeWinner{}, "lottery_id=?", lotteryID).Error
}
