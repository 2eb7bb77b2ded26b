package entity

import (
	"time"

	"github.com/drawbot-lab/backend/pkg/enum"
)

type WinnerStatus string

var (
	WinnerPending = enum.New(WinnerStatus("pending"))
	WinnerClaimed = enum.New(WinnerStatus("claimed"))
	WinnerExpired = enum.New(WinnerStatus("expired"))
)

// PrizeWinner is written exactly once per winning slot by the draw and never
// overwritten.
type PrizeWinner struct {
	Base

	LotteryID string  `gorm:"index"`
	Lottery   Lottery `gorm:"foreignKey:LotteryID"`

	PrizeID string `gorm:"index"`
	Prize   Prize  `gorm:"foreignKey:PrizeID"`

	ParticipantID string      `gorm:"index"`
	Participant   Participant `gorm:"foreignKey:ParticipantID"`

	Status  WinnerStatus
	WinTime time.Time
}
