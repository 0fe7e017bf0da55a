package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/gym_bot/internal/model"
)

// FamilyResolver собирает семейное представление пользователя по ссылкам
type FamilyResolver struct {
	users UserStore
}

func NewFamilyResolver(users UserStore) *FamilyResolver {
	return &FamilyResolver{users: users}
}

// ResolvePayer находит плательщика без загрузки иждивенцев
func (r *FamilyResolver) ResolvePayer(ctx context.Context, user *model.User) (*model.FamilyView, error) {
	view := &model.FamilyView{Member: user}

	if user.PaysForSelf() {
		view.Payer = user
		return view, nil
	}

	payer, err := r.users.GetByID(ctx, *user.Family.PayerID)
	if err != nil {
		return nil, fmt.Errorf("get payer: %w", err)
	}
	view.Payer = payer

	return view, nil
}

// Resolve находит плательщика и иждивенцев пользователя
func (r *FamilyResolver) Resolve(ctx context.Context, user *model.User) (*model.FamilyView, error) {
	view, err := r.ResolvePayer(ctx, user)
	if err != nil {
		return nil, err
	}

	for _, childID := range user.Family.ChildrenIDs {
		child, err := r.users.GetByID(ctx, childID)
		if err != nil {
			return nil, fmt.Errorf("get dependent: %w", err)
		}
		if child != nil {
			view.Dependents = append(view.Dependents, child)
		}
	}

	return view, nil
}
