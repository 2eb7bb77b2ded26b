package repository

import (
	"context"
	"time"

	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageCountRepository interface {
	Increment(ctx context.Context, lotteryID string, userID, groupID int64, at time.Time) error
	Get(ctx context.Context, lotteryID string, userID, groupID int64) (*entity.MessageCount, error)
	DeleteByUser(ctx context.Context, lotteryID string, userID int64) error
	DeleteByLotteryID(ctx context.Context, lotteryID string) error
}

type messageCountRepository struct{}

func NewMessageCountRepository() *messageCountRepository {
	return &messageCountRepository{}
}

// Increment adds one qualifying message to the tracking row, creating it when
// absent. The conditional assignment keeps racing upserts atomic.
func (r *messageCountRepository) Increment(
	ctx context.Context, lotteryID string, userID, groupID int64, at time.Time,
) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "lottery_id"},
				{Name: "user_id"},
				{Name: "group_id"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"message_count":     gorm.Expr("message_count + 1"),
				"last_message_time": at,
			}),
		}).
		Create(&entity.MessageCount{
			Base:            entity.Base{ID: uuid.NewString()},
			LotteryID:       lotteryID,
			UserID:          userID,
			GroupID:         groupID,
			MessageCount:    1,
			LastMessageTime: at,
		}).Error
}

func (r *messageCountRepository) Get(
	ctx context.Context, lotteryID string, userID, groupID int64,
) (*entity.MessageCount, error) {
	var result entity.MessageCount
	err := xcontext.DB(ctx).
		Take(&result, "lottery_id=? AND user_id=? AND group_id=?", lotteryID, userID, groupID).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *messageCountRepository) DeleteByUser(
	ctx context.Context, lotteryID string, userID int64,
) error {
	return xcontext.DB(ctx).
		Delete(&entity.MessageCount{}, "lottery_id=? AND user_id=?", lotteryID, userID).Error
}

func (r *messageCountRepository) DeleteByLotteryID(ctx context.Context, lotteryID string) error {
	return xcontext.DB(ctx).Delete(&entity.MessageCount{}, "lottery_id=?", lotteryID).Error
}
