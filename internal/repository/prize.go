package repository

import (
	"context"

	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/pkg/xcontext"
)

type PrizeRepository interface {
	Create(ctx context.Context, prizes []*entity.Prize) error
	GetByLotteryID(ctx context.Context, lotteryID string) ([]entity.Prize, error)
	DeleteByLotteryID(ctx context.Context, lotteryID string) error
}

type prizeRepository struct{}

func NewPrizeRepository() *prizeRepository {
	return &prizeRepository{}
}

func (r *prizeRepository) Create(ctx context.Context, prizes []*entity.Prize) error {
	return xcontext.DB(ctx).Create(prizes).Error
}

// GetByLotteryID returns prizes in insertion order, which is also the order
// the draw processes them in.
func (r *prizeRepository) GetByLotteryID(
	ctx context.Context, lotteryID string,
) ([]entity.Prize, error) {
	var result []entity.Prize
	err := xcontext.DB(ctx).Order("created_at ASC, id ASC").
		Find(&result, "lottery_id=?", lotteryID).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *prizeRepository) DeleteByLotteryID(ctx context.Context, lotteryID string) error {
	return xcontext.DB(ctx).Delete(&entity.Prize{}, "lottery_id=?", lotteryID).Error
}
