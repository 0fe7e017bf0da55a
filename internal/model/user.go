package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID            int64              `json:"id"`
	TelegramID    int64              `json:"telegram_id"`
	Username      string             `json:"username"`
	FirstName     string             `json:"first_name"`
	LastName      string             `json:"last_name"`
	IsInstructor  bool               `json:"is_instructor"`
	RewardRate    decimal.Decimal    `json:"reward_rate"` // вознаграждение инструктора за одного клиента
	Reward        decimal.Decimal    `json:"reward"`      // накопленное вознаграждение
	Family        Family             `json:"family"`
	Subscriptions []UserSubscription `json:"subscriptions"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Family ссылки на плательщика и иждивенцев. Хранятся только идентификаторы.
type Family struct {
	PayerID      *int64  `json:"payer_id"`
	IsIndividual bool    `json:"is_individual"`
	ChildrenIDs  []int64 `json:"children_ids"`
}

// PaysForSelf определяет, платит ли пользователь сам за себя
func (u *User) PaysForSelf() bool {
	return u.Family.IsIndividual || len(u.Subscriptions) > 0 || u.Family.PayerID == nil
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Clone глубокая копия пользователя вместе с абонементами
func (u *User) Clone() *User {
	c := *u
	if u.Family.PayerID != nil {
		payer := *u.Family.PayerID
		c.Family.PayerID = &payer
	}
	c.Family.ChildrenIDs = append([]int64(nil), u.Family.ChildrenIDs...)
	c.Subscriptions = make([]UserSubscription, len(u.Subscriptions))
	for i := range u.Subscriptions {
		c.Subscriptions[i] = u.Subscriptions[i].Clone()
	}
	return &c
}
