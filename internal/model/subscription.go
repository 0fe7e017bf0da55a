package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionType string

const (
	SubscriptionTypeGroup    SubscriptionType = "group"
	SubscriptionTypePersonal SubscriptionType = "personal"
)

// UserSubscription купленный абонемент.
// Абонемент не активен, пока StartDate и EndDate пусты.
type UserSubscription struct {
	ID            uuid.UUID        `json:"id"`
	PlanID        uuid.UUID        `json:"plan_id"`
	Name          string           `json:"name"`
	Items         int              `json:"items"`
	Days          int              `json:"days"`
	Price         decimal.Decimal  `json:"price"`
	Discount      *decimal.Decimal `json:"discount,omitempty"`
	Balance       int              `json:"balance"`
	LockedBalance int              `json:"locked_balance"`
	Unlimited     bool             `json:"unlimited"`
	Type          SubscriptionType `json:"type"`
	InstructorID  *int64           `json:"instructor_id,omitempty"` // только для персональных
	StartDate     *time.Time       `json:"start_date,omitempty"`
	EndDate       *time.Time       `json:"end_date,omitempty"`
}

func (s *UserSubscription) IsActive() bool {
	return s.StartDate != nil && s.EndDate != nil
}

// Activate запускает срок действия с дня момента at
func (s *UserSubscription) Activate(at time.Time) {
	start := NewDayID(at)
	end := start.AddDays(s.Days).Time()
	startTime := start.Time()
	s.StartDate = &startTime
	s.EndDate = &end
}

func (s *UserSubscription) IsExpired(now time.Time) bool {
	return s.IsActive() && !s.EndDate.After(now)
}

// IsEmpty абонемент исчерпан и ничего не зарезервировано
func (s *UserSubscription) IsEmpty() bool {
	return !s.Unlimited && s.Balance == 0 && s.LockedBalance == 0
}

// Matches проверяет, подходит ли абонемент для оплаты занятия
func (s *UserSubscription) Matches(t *Training) bool {
	switch s.Type {
	case SubscriptionTypeGroup:
		return !t.IsPersonal()
	case SubscriptionTypePersonal:
		if !t.IsPersonal() {
			return false
		}
		return s.InstructorID == nil || *s.InstructorID == t.InstructorID
	default:
		return false
	}
}

// CanLock можно ли зарезервировать единицу под занятие t
func (s *UserSubscription) CanLock(t *Training) bool {
	hasUnits := s.Unlimited || s.Balance > 0
	if !s.IsActive() {
		return hasUnits
	}
	return s.EndDate.After(t.StartAt) && hasUnits
}

// Lock резервирует одну единицу под занятие t.
// Неактивный абонемент активируется с дня занятия.
func (s *UserSubscription) Lock(t *Training) error {
	if !s.Unlimited {
		if s.Balance <= 0 {
			return ErrNotEnoughBalance
		}
		s.Balance--
	}
	if !s.IsActive() {
		s.Activate(t.StartAt)
	}
	s.LockedBalance++
	return nil
}

// Unlock возвращает зарезервированную единицу на баланс
func (s *UserSubscription) Unlock() error {
	if s.LockedBalance <= 0 {
		return ErrNotEnoughReservedBalance
	}
	s.LockedBalance--
	if !s.Unlimited {
		s.Balance++
	}
	return nil
}

// Charge окончательно списывает зарезервированную единицу
func (s *UserSubscription) Charge() error {
	if s.LockedBalance <= 0 {
		return ErrNotEnoughReservedBalance
	}
	s.LockedBalance--
	return nil
}

// UnitPrice стоимость одного посещения
func (s *UserSubscription) UnitPrice() decimal.Decimal {
	if s.Unlimited || s.Items <= 0 {
		return decimal.Zero
	}
	return s.Price.Div(decimal.NewFromInt(int64(s.Items))).Round(2)
}

func (s UserSubscription) Clone() UserSubscription {
	c := s
	if s.Discount != nil {
		d := *s.Discount
		c.Discount = &d
	}
	if s.InstructorID != nil {
		id := *s.InstructorID
		c.InstructorID = &id
	}
	if s.StartDate != nil {
		t := *s.StartDate
		c.StartDate = &t
	}
	if s.EndDate != nil {
		t := *s.EndDate
		c.EndDate = &t
	}
	return c
}
