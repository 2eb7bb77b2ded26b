package entity

import (
	"time"

	"github.com/drawbot-lab/backend/pkg/enum"
)

type JoinMethod string

var (
	JoinPrivateChat  = enum.New(JoinMethod("private_chat"))
	JoinGroupKeyword = enum.New(JoinMethod("group_keyword"))
	JoinGroupMessage = enum.New(JoinMethod("group_message"))
)

type DrawMethod string

var (
	DrawWhenFull = enum.New(DrawMethod("draw_when_full"))
	DrawAtTime   = enum.New(DrawMethod("draw_at_time"))
)

// LotterySettings is created once at activation and never edited afterwards.
type LotterySettings struct {
	Base

	LotteryID string  `gorm:"uniqueIndex"`
	Lottery   Lottery `gorm:"foreignKey:LotteryID"`

	Title       string
	Description string
	MediaURL    string

	JoinMethod JoinMethod

	// Method-specific columns, kept flat for querying. Read them through
	// JoinConfig, which exposes only the variant selected by JoinMethod.
	KeywordGroupID    int64 `gorm:"index"`
	Keyword           string
	MessageGroupID    int64 `gorm:"index"`
	MessageCount      int
	MessageCheckHours int

	RequireUsername bool
	RequiredGroups  Array[int64]

	DrawMethod       DrawMethod
	ParticipantCount int
	DrawTime         time.Time

	MessageCountTracked bool
}

// KeywordJoin is the group_keyword variant: the admitting message must equal
// Keyword (trimmed) in group GroupID.
type KeywordJoin struct {
	GroupID int64
	Keyword string
}

// MessageJoin is the group_message variant: Count qualifying messages in
// group GroupID within WithinHours of activation.
type MessageJoin struct {
	GroupID     int64
	Count       int
	WithinHours int
}

// JoinConfig carries exactly one variant, selected by Method.
type JoinConfig struct {
	Method  JoinMethod
	Keyword *KeywordJoin
	Message *MessageJoin
}

func (s *LotterySettings) JoinConfig() JoinConfig {
	switch s.JoinMethod {
	case JoinGroupKeyword:
		return JoinConfig{
			Method:  JoinGroupKeyword,
			Keyword: &KeywordJoin{GroupID: s.KeywordGroupID, Keyword: s.Keyword},
		}

	case JoinGroupMessage:
		return JoinConfig{
			Method: JoinGroupMessage,
			Message: &MessageJoin{
				GroupID:     s.MessageGroupID,
				Count:       s.MessageCount,
				WithinHours: s.MessageCheckHours,
			},
		}

	default:
		return JoinConfig{Method: JoinPrivateChat}
	}
}
