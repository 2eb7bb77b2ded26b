package entity

import (
	"github.com/drawbot-lab/backend/pkg/enum"
)

type LotteryStatus string

var (
	LotteryDraft     = enum.New(LotteryStatus("draft"))
	LotteryCreating  = enum.New(LotteryStatus("creating"))
	LotteryActive    = enum.New(LotteryStatus("active"))
	LotteryCompleted = enum.New(LotteryStatus("completed"))
	LotteryCancelled = enum.New(LotteryStatus("cancelled"))
)

// IsTerminal reports whether no further transition is permitted.
func (s LotteryStatus) IsTerminal() bool {
	return s == LotteryCompleted || s == LotteryCancelled
}

type Lottery struct {
	Base

	CreatorID   int64 `gorm:"index"`
	CreatorName string
	Status      LotteryStatus `gorm:"index"`
}
