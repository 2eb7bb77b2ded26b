package testutil

import (
	"context"
	"time"

	"github.com/drawbot-lab/backend/config"
	"github.com/drawbot-lab/backend/internal/entity"
	"github.com/drawbot-lab/backend/pkg/logger"
	"github.com/drawbot-lab/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		Env: "test",
		Bot: config.BotConfigs{
			FormBaseURL:    "https://example.com/form",
			RequestTimeout: config.Duration{Duration: time.Second},
		},
		Lottery: config.LotteryConfigs{
			DraftExpiry:       config.Duration{Duration: 60 * time.Minute},
			CreatingExpiry:    config.Duration{Duration: 90 * time.Minute},
			Retention:         config.Duration{Duration: 24 * time.Hour},
			SchedulerInterval: config.Duration{Duration: time.Minute},
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.ERROR))
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}
