package base

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// TxBeginner открывает транзакции. Его реализует *pgxpool.Pool.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TxManager выполняет функции в serializable транзакции и повторяет их
// при конфликтах сериализации
type TxManager struct {
	pool       TxBeginner
	maxRetries uint64
	logger     *zap.Logger
}

// NewTxManager создаёт менеджер транзакций. Всего делается не больше
// maxRetries+1 попыток.
func NewTxManager(pool TxBeginner, maxRetries uint64, logger *zap.Logger) *TxManager {
	return &TxManager{
		pool:       pool,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// WithinTx выполняет fn в транзакции. Если в контексте уже есть транзакция,
// fn выполняется в ней без повторов.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	backoff := retry.WithMaxRetries(m.maxRetries, retry.NewExponential(20*time.Millisecond))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := pgx.BeginTxFunc(ctx, m.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
			return fn(WithTx(ctx, tx))
		})
		if err == nil {
			return nil
		}

		if IsRetryable(err) {
			m.logger.Warn("Transaction conflict, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return retry.RetryableError(fmt.Errorf("transaction conflict: %w", err))
		}

		return err
	})
}

// IsRetryable проверяет, что ошибка вызвана конфликтом параллельных транзакций
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}
