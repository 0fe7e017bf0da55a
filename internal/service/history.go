package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/google/uuid"
)

// History пишет журнал действий над занятиями и абонементами
type History struct {
	store HistoryStore
}

func NewHistory(store HistoryStore) *History {
	return &History{store: store}
}

func (h *History) SignUp(ctx context.Context, now time.Time, clientID int64, t *model.Training, subscriptionID *uuid.UUID) error {
	return h.record(ctx, now, actorOr(ctx, clientID), []int64{clientID}, model.HistoryActionSignUp,
		trainingPayload(t, subscriptionID))
}

func (h *History) SignOut(ctx context.Context, now time.Time, clientID int64, t *model.Training, subscriptionID *uuid.UUID) error {
	return h.record(ctx, now, actorOr(ctx, clientID), []int64{clientID}, model.HistoryActionSignOut,
		trainingPayload(t, subscriptionID))
}

func (h *History) ExpireSubscription(ctx context.Context, now time.Time, userID int64, sub model.UserSubscription) error {
	payload := map[string]any{
		"subscription_id": sub.ID.String(),
		"name":            sub.Name,
		"balance":         sub.Balance,
	}
	return h.record(ctx, now, userID, nil, model.HistoryActionExpireSubscription, payload)
}

func (h *History) Finalized(ctx context.Context, now time.Time, t *model.Training) error {
	payload := trainingPayload(t, nil)
	if t.Statistics != nil {
		payload["earned"] = t.Statistics.Earned.String()
		payload["instructor_reward"] = t.Statistics.InstructorReward.String()
	}
	return h.record(ctx, now, t.InstructorID, t.Clients, model.HistoryActionFinalized, payload)
}

func (h *History) FinalizedCanceled(ctx context.Context, now time.Time, t *model.Training) error {
	return h.record(ctx, now, t.InstructorID, nil, model.HistoryActionFinalizedCanceled, trainingPayload(t, nil))
}

func (h *History) ListByActor(ctx context.Context, actor int64, limit int) ([]*model.HistoryRow, error) {
	return h.store.ListByActor(ctx, actor, limit)
}

// record пишет строку журнала с временем операции, а не временем записи
func (h *History) record(ctx context.Context, now time.Time, actor int64, subActors []int64, action model.HistoryAction, payload map[string]any) error {
	return h.store.Store(ctx, &model.HistoryRow{
		ID:        uuid.New(),
		Actor:     actor,
		SubActors: subActors,
		Action:    action,
		Payload:   payload,
		CreatedAt: now,
	})
}

func trainingPayload(t *model.Training, subscriptionID *uuid.UUID) map[string]any {
	payload := map[string]any{
		"training_id": t.ID().String(),
		"name":        t.Name,
		"start_at":    t.StartAt,
	}
	if subscriptionID != nil {
		payload["subscription_id"] = subscriptionID.String()
	}
	return payload
}
