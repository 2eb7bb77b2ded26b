package repository

import (
	"context"

	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type ParticipantRepository interface {
	CreateIfNotExist(ctx context.Context, participant *entity.Participant) (bool, error)
	Get(ctx context.Context, lotteryID string, userID int64) (*entity.Participant, error)
	GetByLotteryID(ctx context.Context, lotteryID string) ([]entity.Participant, error)
	Count(ctx context.Context, lotteryID string) (int64, error)
	DeleteByLotteryID(ctx context.Context, lotteryID string) error
}

type participantRepository struct{}

func NewParticipantRepository() *participantRepository {
	return &participantRepository{}
}

// CreateIfNotExist inserts the participant unless one already exists for the
// same lottery and user. It returns false on a duplicate, relying on the
// unique index to arbitrate concurrent attempts.
func (r *participantRepository) CreateIfNotExist(
	ctx context.Context, participant *entity.Participant,
) (bool, error) {
	tx := xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "lottery_id"},
				{Name: "user_id"},
			},
			DoNothing: true,
		}).Create(participant)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected > 0, nil
}

func (r *participantRepository) Get(
	ctx context.Context, lotteryID string, userID int64,
) (*entity.Participant, error) {
	var result entity.Participant
	err := xcontext.DB(ctx).Take(&result, "lottery_id=? AND user_id=?", lotteryID, userID).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *participantRepository) GetByLotteryID(
	ctx context.Context, lotteryID string,
) ([]entity.Participant, error) {
	var result []entity.Participant
	err := xcontext.DB(ctx).Order("join_time ASC, id ASC").
		Find(&result, "lottery_id=?", lotteryID).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *participantRepository) Count(ctx context.Context, lotteryID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.Participant{}).
		Where("lottery_id=?", lotteryID).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *participantRepository) DeleteByLotteryID(ctx context.Context, lotteryID string) error {
	return xcontext.DB(ctx).Delete(&entity.Participant{}, "lottery_id=?", lotteryID).Error
}
