package testutil

import (
	"context"

	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/internal/model"
	"github.com/drawbot-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
)

// Shared chat users for domain tests.
var (
	Creator = model.ChatUser{ID: 1000, Nickname: "alice", Username: "alice"}
	User1   = model.ChatUser{ID: 2001, Nickname: "bob", Username: "bob"}
	User2   = model.ChatUser{ID: 2002, Nickname: "carol", Username: "carol"}
	User3   = model.ChatUser{ID: 2003, Nickname: "dave", Username: "dave"}
	User4   = model.ChatUser{ID: 2004, Nickname: "erin", Username: "erin"}
	User5   = model.ChatUser{ID: 2005, Nickname: "frank", Username: "frank"}
)

// InsertLottery writes a lottery together with its optional settings and
// prizes, filling in missing IDs and links. It panics on failure, fixtures are
// not the subject under test.
func InsertLottery(
	ctx context.Context,
	lottery *entity.Lottery,
	settings *entity.LotterySettings,
	prizes ...*entity.Prize,
) {
	db := xcontext.DB(ctx)

	if lottery.ID == "" {
		lottery.ID = uuid.NewString()
	}

	if lottery.Status == "" {
		lottery.Status = entity.LotteryActive
	}

	if err := db.Create(lottery).Error; err != nil {
		panic(err)
	}

	if settings != nil {
		if settings.ID == "" {
			settings.ID = uuid.NewString()
		}

		settings.LotteryID = lottery.ID
		if err := db.Create(settings).Error; err != nil {
			panic(err)
		}
	}

	for _, prize := range prizes {
		if prize.ID == "" {
			prize.ID = uuid.NewString()
		}

		prize.LotteryID = lottery.ID
		if err := db.Create(prize).Error; err != nil {
			panic(err)
		}
	}
}

// InsertParticipants admits the given users directly, bypassing eligibility.
func InsertParticipants(ctx context.Context, lotteryID string, users ...model.ChatUser) {
	db := xcontext.DB(ctx)
	for _, user := range users {
		err := db.Create(&entity.Participant{
			Base:      entity.Base{ID: uuid.NewString()},
			LotteryID: lotteryID,
			UserID:    user.ID,
			Nickname:  user.Nickname,
			Username:  user.Username,
		}).Error
		if err != nil {
			panic(err)
		}
	}
}
