package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// FamilyView временное представление семьи пользователя.
// Собирается по ссылкам на каждый запрос и не сохраняется.
type FamilyView struct {
	Member     *User
	Payer      *User
	Dependents []*User
}

// PayerMut возвращает плательщика для изменения его абонементов
func (v *FamilyView) PayerMut() (*Payer, error) {
	if v.Payer == nil {
		return nil, ErrPayerNotResolved
	}
	return NewPayer(v.Payer), nil
}

// SubscriptionReason цель поиска абонемента
type SubscriptionReason int

const (
	ReasonLock SubscriptionReason = iota
	ReasonUnlock
	ReasonCharge
)

// Payer владелец общего пула абонементов
type Payer struct {
	user *User
}

func NewPayer(user *User) *Payer {
	return &Payer{user: user}
}

func (p *Payer) User() *User {
	return p.user
}

func (p *Payer) Subscriptions() []UserSubscription {
	return p.user.Subscriptions
}

// SubscriptionByID возвращает абонемент плательщика для изменения
func (p *Payer) SubscriptionByID(id uuid.UUID) *UserSubscription {
	for i := range p.user.Subscriptions {
		if p.user.Subscriptions[i].ID == id {
			return &p.user.Subscriptions[i]
		}
	}
	return nil
}

// FindSubscription выбирает абонемент для операции reason над занятием t.
// Активные абонементы идут раньше неактивных, среди активных первым
// берётся тот, что истекает раньше.
func (p *Payer) FindSubscription(reason SubscriptionReason, t *Training) *UserSubscription {
	candidates := make([]*UserSubscription, 0, len(p.user.Subscriptions))
	for i := range p.user.Subscriptions {
		if p.user.Subscriptions[i].Matches(t) {
			candidates = append(candidates, &p.user.Subscriptions[i])
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.IsActive() != b.IsActive() {
			return a.IsActive()
		}
		if a.IsActive() {
			return a.EndDate.Before(*b.EndDate)
		}
		return false
	})

	for _, sub := range candidates {
		switch reason {
		case ReasonLock:
			if sub.CanLock(t) {
				return sub
			}
		case ReasonUnlock, ReasonCharge:
			if sub.LockedBalance > 0 {
				return sub
			}
		}
	}
	return nil
}

// Expire удаляет истёкшие абонементы без зарезервированных единиц
func (p *Payer) Expire(now time.Time) []UserSubscription {
	return p.remove(func(s *UserSubscription) bool {
		return s.IsExpired(now) && s.LockedBalance == 0
	})
}

// CollectEmpty удаляет исчерпанные абонементы
func (p *Payer) CollectEmpty() []UserSubscription {
	return p.remove(func(s *UserSubscription) bool {
		return s.IsEmpty()
	})
}

func (p *Payer) remove(match func(s *UserSubscription) bool) []UserSubscription {
	var removed []UserSubscription
	kept := p.user.Subscriptions[:0]
	for i := range p.user.Subscriptions {
		if match(&p.user.Subscriptions[i]) {
			removed = append(removed, p.user.Subscriptions[i])
			continue
		}
		kept = append(kept, p.user.Subscriptions[i])
	}
	p.user.Subscriptions = kept
	return removed
}
