package entity

import (
	"context"

	"github.com/drawbot-lab/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&Lottery{},
		&LotterySettings{},
		&Prize{},
		&Participant{},
		&PrizeWinner{},
		&MessageCount{},
	)
}
