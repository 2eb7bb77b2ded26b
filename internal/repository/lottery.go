package repository

import (
	"context"
	"time"

	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type LotteryRepository interface {
	// Lottery
	Create(ctx context.Context, lottery *entity.Lottery) error
	GetByID(ctx context.Context, id string) (*entity.Lottery, error)
	GetByCreatorID(ctx context.Context, creatorID int64) ([]entity.Lottery, error)
	Transition(ctx context.Context, id string, from, to entity.LotteryStatus) error
	FindActiveTimedDraws(ctx context.Context, now time.Time) ([]entity.Lottery, error)
	FindActiveFullDraws(ctx context.Context) ([]entity.Lottery, error)
	FindInStatusCreatedBefore(ctx context.Context, status entity.LotteryStatus, before time.Time) ([]entity.Lottery, error)
	FindTerminalUpdatedBefore(ctx context.Context, before time.Time) ([]entity.Lottery, error)
	Delete(ctx context.Context, id string) error

	// Settings
	CreateSettings(ctx context.Context, settings *entity.LotterySettings) error
	GetSettingsByLotteryID(ctx context.Context, lotteryID string) (*entity.LotterySettings, error)
	GetActiveKeywordSettings(ctx context.Context, groupID int64, keyword string) (*entity.LotterySettings, error)
	ListActiveMessageSettings(ctx context.Context, groupID int64) ([]entity.LotterySettings, error)
	MarkMessageCountTracked(ctx context.Context, lotteryID string) error
	DeleteSettingsByLotteryID(ctx context.Context, lotteryID string) error
}

type lotteryRepository struct{}

func NewLotteryRepository() *lotteryRepository {
	return &lotteryRepository{}
}

func (r *lotteryRepository) Create(ctx context.Context, lottery *entity.Lottery) error {
	return xcontext.DB(ctx).Create(lottery).Error
}

func (r *lotteryRepository) GetByID(ctx context.Context, id string) (*entity.Lottery, error) {
	var result entity.Lottery
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *lotteryRepository) GetByCreatorID(ctx context.Context, creatorID int64) ([]entity.Lottery, error) {
	var result []entity.Lottery
	err := xcontext.DB(ctx).Order("created_at DESC").
		Find(&result, "creator_id=?", creatorID).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Transition is the concurrency gate for every status change: the update only
// applies while the stored status still equals from. A stale precondition is
// reported as gorm.ErrRecordNotFound so callers can skip without side effects.
func (r *lotteryRepository) Transition(
	ctx context.Context, id string, from, to entity.LotteryStatus,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Lottery{}).
		Where("id=? AND status=?", id, from).
		Update("status", to)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *lotteryRepository) FindActiveTimedDraws(
	ctx context.Context, now time.Time,
) ([]entity.Lottery, error) {
	var result []entity.Lottery
	err := xcontext.DB(ctx).
		Joins("JOIN lottery_settings ON lottery_settings.lottery_id = lotteries.id").
		Where("lotteries.status=?", entity.LotteryActive).
		Where("lottery_settings.draw_method=?", entity.DrawAtTime).
		Where("lottery_settings.draw_time <= ?", now).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *lotteryRepository) FindActiveFullDraws(ctx context.Context) ([]entity.Lottery, error) {
	var result []entity.Lottery
	err := xcontext.DB(ctx).
		Joins("JOIN lottery_settings ON lottery_settings.lottery_id = lotteries.id").
		Where("lotteries.status=?", entity.LotteryActive).
		Where("lottery_settings.draw_method=?", entity.DrawWhenFull).
		Where(`(SELECT COUNT(*) FROM participants
			WHERE participants.lottery_id = lotteries.id) >= lottery_settings.participant_count`).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *lotteryRepository) FindInStatusCreatedBefore(
	ctx context.Context, status entity.LotteryStatus, before time.Time,
) ([]entity.Lottery, error) {
	var result []entity.Lottery
	err := xcontext.DB(ctx).
		Where("status=? AND created_at <= ?", status, before).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *lotteryRepository) FindTerminalUpdatedBefore(
	ctx context.Context, before time.Time,
) ([]entity.Lottery, error) {
	var result []entity.Lottery
	err := xcontext.DB(ctx).
		Where("status IN ? AND updated_at <= ?",
			[]entity.LotteryStatus{entity.LotteryCompleted, entity.LotteryCancelled}, before).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *lotteryRepository) Delete(ctx context.Context, id string) error {
	return xcontext.DB(ctx).Delete(&entity.Lottery{}, "id=?", id).Error
}

func (r *lotteryRepository) CreateSettings(
	ctx context.Context, settings *entity.LotterySettings,
) error {
	return xcontext.DB(ctx).Create(settings).Error
}

func (r *lotteryRepository) GetSettingsByLotteryID(
	ctx context.Context, lotteryID string,
) (*entity.LotterySettings, error) {
	var result entity.LotterySettings
	if err := xcontext.DB(ctx).Take(&result, "lottery_id=?", lotteryID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *lotteryRepository) GetActiveKeywordSettings(
	ctx context.Context, groupID int64, keyword string,
) (*entity.LotterySettings, error) {
	var result entity.LotterySettings
	err := xcontext.DB(ctx).Model(&entity.LotterySettings{}).
		Joins("JOIN lotteries ON lotteries.id = lottery_settings.lottery_id").
		Where("lotteries.status=?", entity.LotteryActive).
		Where("lottery_settings.join_method=?", entity.JoinGroupKeyword).
		Where("lottery_settings.keyword_group_id=? AND lottery_settings.keyword=?", groupID, keyword).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *lotteryRepository) ListActiveMessageSettings(
	ctx context.Context, groupID int64,
) ([]entity.LotterySettings, error) {
	var result []entity.LotterySettings
	err := xcontext.DB(ctx).Model(&entity.LotterySettings{}).
		Joins("JOIN lotteries ON lotteries.id = lottery_settings.lottery_id").
		Where("lotteries.status=?", entity.LotteryActive).
		Where("lottery_settings.join_method=?", entity.JoinGroupMessage).
		Where("lottery_settings.message_group_id=?", groupID).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// MarkMessageCountTracked flips the tracking flag at most once; repeated calls
// are no-ops.
func (r *lotteryRepository) MarkMessageCountTracked(ctx context.Context, lotteryID string) error {
	return xcontext.DB(ctx).Model(&entity.LotterySettings{}).
		Where("lottery_id=? AND message_count_tracked=?", lotteryID, false).
		Update("message_count_tracked", true).Error
}

func (r *lotteryRepository) DeleteSettingsByLotteryID(ctx context.Context, lotteryID string) error {
	return xcontext.DB(ctx).Delete(&entity.LotterySettings{}, "lottery_id=?", lotteryID).Error
}
