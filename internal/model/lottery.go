package model

import "time"

// ChatUser identifies the acting chat user on participation and lifecycle
// requests.
type ChatUser struct {
	ID       int64
	Nickname string
	Username string
}

type CreateLotteryRequest struct {
	Creator ChatUser
}

type CreateLotteryResponse struct {
	LotteryID string
	FormURL   string
}

type OpenLotteryFormRequest struct {
	LotteryID string
	UserID    int64
}

type OpenLotteryFormResponse struct {
	Status string
}

type PrizeInput struct {
	Name  string
	Count int
}

type ActivateLotteryRequest struct {
	LotteryID string
	CreatorID int64

	Title       string
	Description string
	MediaURL    string

	JoinMethod        string
	KeywordGroupID    int64
	Keyword           string
	MessageGroupID    int64
	MessageCount      int
	MessageCheckHours int

	RequireUsername bool
	RequiredGroups  []int64

	DrawMethod       string
	ParticipantCount int
	DrawTime         time.Time

	Prizes []PrizeInput
}

type ActivateLotteryResponse struct{}

type CancelLotteryRequest struct {
	LotteryID string
	UserID    int64
}

type CancelLotteryResponse struct{}

type Prize struct {
	Name       string
	TotalCount int
}

type Lottery struct {
	ID               string
	Status           string
	Title            string
	Description      string
	JoinMethod       string
	DrawMethod       string
	DrawTime         time.Time
	ParticipantCount int64
	Capacity         int
	Prizes           []Prize
	CreatedAt        time.Time
}

type GetLotteryRequest struct {
	LotteryID string
}

type GetLotteryResponse struct {
	Lottery Lottery
}

type ListLotteriesRequest struct {
	CreatorID int64
}

type ListLotteriesResponse struct {
	Lotteries []Lottery
}

type JoinLotteryRequest struct {
	LotteryID string
	User      ChatUser
}

type JoinLotteryResponse struct {
	Title            string
	ParticipantCount int64
}

type GroupMessageRequest struct {
	GroupID int64
	Text    string
	SentAt  time.Time
	User    ChatUser
}

// GroupJoinResult reports the outcome of one lottery matched by a group
// message. Reason is empty when Joined is true.
type GroupJoinResult struct {
	LotteryID string
	Title     string
	Joined    bool
	Reason    string
}

type GroupMessageResponse struct {
	Results []GroupJoinResult
}
