package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/gym_bot/internal/model"
	"github.com/Freeeeeet/gym_bot/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const userColumns = `id, telegram_id, username, first_name, last_name, is_instructor, reward_rate, reward, payer_id, is_individual, created_at`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name, is_instructor, reward_rate, payer_id, is_individual)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.IsInstructor,
		user.RewardRate,
		user.Family.PayerID,
		user.Family.IsIndividual,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`
	return r.get(ctx, query, telegramID)
}

// GetByID получает пользователя с абонементами и блокирует строку до конца транзакции.
// Строка плательщика служит точкой сериализации изменений баланса.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *UserRepository) get(ctx context.Context, query string, arg int64) (*model.User, error) {
	var user model.User
	err := r.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.IsInstructor,
		&user.RewardRate,
		&user.Reward,
		&user.Family.PayerID,
		&user.Family.IsIndividual,
		&user.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.Family.ChildrenIDs, err = r.childrenIDs(ctx, user.ID); err != nil {
		return nil, err
	}
	if user.Subscriptions, err = r.subscriptions(ctx, user.ID); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) childrenIDs(ctx context.Context, payerID int64) ([]int64, error) {
	rows, err := r.Query(ctx, `SELECT id FROM users WHERE payer_id = $1 ORDER BY id`, payerID)
	if err != nil {
		return nil, fmt.Errorf("get children: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan child id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UserRepository) subscriptions(ctx context.Context, userID int64) ([]model.UserSubscription, error) {
	query := `
		SELECT id, plan_id, name, items, days, price, discount, balance, locked_balance,
		       unlimited, type, instructor_id, start_date, end_date
		FROM user_subscriptions
		WHERE user_id = $1
		ORDER BY end_date NULLS LAST, id
	`

	rows, err := r.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.UserSubscription
	for rows.Next() {
		var (
			sub      model.UserSubscription
			discount decimal.NullDecimal
		)
		err := rows.Scan(
			&sub.ID,
			&sub.PlanID,
			&sub.Name,
			&sub.Items,
			&sub.Days,
			&sub.Price,
			&discount,
			&sub.Balance,
			&sub.LockedBalance,
			&sub.Unlimited,
			&sub.Type,
			&sub.InstructorID,
			&sub.StartDate,
			&sub.EndDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		if discount.Valid {
			sub.Discount = &discount.Decimal
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// Update сохраняет пользователя и синхронизирует его абонементы
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET username = $2, first_name = $3, last_name = $4, is_instructor = $5,
		    reward_rate = $6, reward = $7, payer_id = $8, is_individual = $9
		WHERE id = $1
	`

	_, err := r.ExecAffected(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.IsInstructor,
		user.RewardRate,
		user.Reward,
		user.Family.PayerID,
		user.Family.IsIndividual,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	ids := make([]string, 0, len(user.Subscriptions))
	for i := range user.Subscriptions {
		ids = append(ids, user.Subscriptions[i].ID.String())
		if err := r.upsertSubscription(ctx, user.ID, &user.Subscriptions[i]); err != nil {
			return err
		}
	}

	_, err = r.ExecAffected(ctx,
		`DELETE FROM user_subscriptions WHERE user_id = $1 AND NOT (id = ANY($2::uuid[]))`,
		user.ID, ids)
	if err != nil {
		return fmt.Errorf("delete removed subscriptions: %w", err)
	}

	return nil
}

func (r *UserRepository) upsertSubscription(ctx context.Context, userID int64, sub *model.UserSubscription) error {
	query := `
		INSERT INTO user_subscriptions (
			id, user_id, plan_id, name, items, days, price, discount, balance, locked_balance,
			unlimited, type, instructor_id, start_date, end_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE
		SET balance = EXCLUDED.balance,
		    locked_balance = EXCLUDED.locked_balance,
		    start_date = EXCLUDED.start_date,
		    end_date = EXCLUDED.end_date,
		    user_id = EXCLUDED.user_id
	`

	var discount decimal.NullDecimal
	if sub.Discount != nil {
		discount = decimal.NewNullDecimal(*sub.Discount)
	}

	_, err := r.ExecAffected(ctx, query,
		sub.ID,
		userID,
		sub.PlanID,
		sub.Name,
		sub.Items,
		sub.Days,
		sub.Price,
		discount,
		sub.Balance,
		sub.LockedBalance,
		sub.Unlimited,
		sub.Type,
		sub.InstructorID,
		sub.StartDate,
		sub.EndDate,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}

	return nil
}

// UsersWithStaleSubscriptions возвращает владельцев истёкших или исчерпанных абонементов
func (r *UserRepository) UsersWithStaleSubscriptions(ctx context.Context, now time.Time) ([]int64, error) {
	query := `
		SELECT DISTINCT user_id
		FROM user_subscriptions
		WHERE (end_date IS NOT NULL AND end_date <= $1 AND locked_balance = 0)
		   OR (NOT unlimited AND balance = 0 AND locked_balance = 0)
		ORDER BY user_id
	`

	rows, err := r.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("get users with stale subscriptions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
