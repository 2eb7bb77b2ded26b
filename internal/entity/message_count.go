package entity

import "time"

// MessageCount tracks progress towards a group_message admission. Rows exist
// only while the lottery is active and the user has not yet qualified.
type MessageCount struct {
	Base

	LotteryID string `gorm:"uniqueIndex:idx_message_counts_key"`
	UserID    int64  `gorm:"uniqueIndex:idx_message_counts_key"`
	GroupID   int64  `gorm:"uniqueIndex:idx_message_counts_key"`

	MessageCount    int
	LastMessageTime time.Time
}
