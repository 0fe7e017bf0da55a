package model

import (
	"time"

	"github.com/google/uuid"
)

// Attendance запись клиента на занятие: кто платит и какой абонемент зарезервирован.
// SubscriptionID пуст для бесплатных занятий.
type Attendance struct {
	TrainingID     TrainingID `json:"training_id"`
	ClientID       int64      `json:"client_id"`
	PayerID        int64      `json:"payer_id"`
	SubscriptionID *uuid.UUID `json:"subscription_id"`
	CreatedAt      time.Time  `json:"created_at"`
}
