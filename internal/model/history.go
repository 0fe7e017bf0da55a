package model

import (
	"time"

	"github.com/google/uuid"
)

type HistoryAction string

const (
	HistoryActionSignUp             HistoryAction = "sign_up"
	HistoryActionSignOut            HistoryAction = "sign_out"
	HistoryActionExpireSubscription HistoryAction = "expire_subscription"
	HistoryActionFinalized          HistoryAction = "finalized"
	HistoryActionFinalizedCanceled  HistoryAction = "finalized_canceled"
)

// HistoryRow запись журнала действий
type HistoryRow struct {
	ID        uuid.UUID      `json:"id"`
	Actor     int64          `json:"actor"`
	SubActors []int64        `json:"sub_actors"`
	Action    HistoryAction  `json:"action"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
