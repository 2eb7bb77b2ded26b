package entity

import "time"

// Participant records a successful admission. The unique index on
// (lottery_id, user_id) is the authoritative guard against double admission.
type Participant struct {
	Base

	LotteryID string  `gorm:"uniqueIndex:idx_participants_lottery_user"`
	Lottery   Lottery `gorm:"foreignKey:LotteryID"`

	UserID   int64 `gorm:"uniqueIndex:idx_participants_lottery_user"`
	Nickname string
	Username string
	JoinTime time.Time
}
