package model

import "time"

type TrainingStatus string

const (
	TrainingStatusOpenToSignup   TrainingStatus = "open_to_signup"
	TrainingStatusClosedToSignup TrainingStatus = "closed_to_signup"
	TrainingStatusInProgress     TrainingStatus = "in_progress"
	TrainingStatusCancelled      TrainingStatus = "cancelled"
	TrainingStatusFinished       TrainingStatus = "finished"
)

// CanSignOut статусы, в которых допустима выписка
func (s TrainingStatus) CanSignOut() bool {
	switch s {
	case TrainingStatusOpenToSignup, TrainingStatusClosedToSignup, TrainingStatusInProgress:
		return true
	default:
		return false
	}
}

// Status вычисляет статус занятия на момент now.
// cutoff задаёт окно перед началом, в котором запись закрыта.
func (t *Training) Status(now time.Time, cutoff time.Duration) TrainingStatus {
	switch {
	case t.IsCanceled && !t.IsProcessed:
		return TrainingStatusCancelled
	case t.IsProcessed:
		return TrainingStatusFinished
	case t.Slot().Contains(now):
		return TrainingStatusInProgress
	case !now.Before(t.EndAt()):
		return TrainingStatusFinished
	case !t.KeepOpen && !now.Before(t.StartAt.Add(-cutoff)):
		return TrainingStatusClosedToSignup
	default:
		return TrainingStatusOpenToSignup
	}
}

func (t *Training) CanSignIn(now time.Time, cutoff time.Duration) bool {
	return t.Status(now, cutoff) == TrainingStatusOpenToSignup && !t.IsFull() && !t.IsProcessed
}

func (t *Training) CanSignOut(clientID int64, now time.Time, cutoff time.Duration) bool {
	return t.HasClient(clientID) && t.Status(now, cutoff).CanSignOut()
}

func (t *Training) CanBeCanceled(now time.Time, cutoff time.Duration) bool {
	status := t.Status(now, cutoff)
	return status != TrainingStatusCancelled && status != TrainingStatusFinished && !t.IsProcessed
}

func (t *Training) CanBeUncanceled(now time.Time, cutoff time.Duration) bool {
	return t.Status(now, cutoff) == TrainingStatusCancelled && !t.IsProcessed
}
