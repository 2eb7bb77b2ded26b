package entity

type Prize struct {
	Base

	LotteryID string  `gorm:"index"`
	Lottery   Lottery `gorm:"foreignKey:LotteryID"`

	Name       string
	TotalCount int
}
