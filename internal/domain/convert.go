package domain

import (
	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/internal/model"
)

// convertLottery builds the client view. Settings and prizes may be nil for
// lotteries that were never activated.
func convertLottery(
	lottery *entity.Lottery,
	settings *entity.LotterySettings,
	prizes []entity.Prize,
	participantCount int64,
) model.Lottery {
	result := model.Lottery{
		ID:        lottery.ID,
		Status:    string(lottery.Status),
		CreatedAt: lottery.CreatedAt,
	}

	if settings != nil {
		result.Title = settings.Title
		result.Description = settings.Description
		result.JoinMethod = string(settings.JoinMethod)
		result.DrawMethod = string(settings.DrawMethod)
		result.DrawTime = settings.DrawTime
		result.Capacity = settings.ParticipantCount
		result.ParticipantCount = participantCount
	}

	for _, prize := range prizes {
		result.Prizes = append(result.Prizes, model.Prize{
			Name:       prize.Name,
			TotalCount: prize.TotalCount,
		})
	}

	return result
}
