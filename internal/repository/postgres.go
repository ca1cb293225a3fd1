// Package repository содержит журнал заказов: PostgreSQL и реализацию в памяти.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/silkroad-booking/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrOrderNotFound возвращается при обновлении заказа, которого нет в журнале.
var ErrOrderNotFound = errors.New("order not found in journal")

// PostgresRepository хранит журнал заказов в PostgreSQL.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	delays []time.Duration
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{
		pool:   pool,
		delays: []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second},
	}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// RecordOrder сохраняет заказ. Повторная запись того же заказа обновляет статус.
func (r *PostgresRepository) RecordOrder(ctx context.Context, e model.JournalEntry) error {
	return withRetry(ctx, r.delays, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO booking_orders (order_id, hotel_id, guest_name, guest_phone, total, status)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (order_id) DO UPDATE SET status = EXCLUDED.status, updated_at = now()`,
			e.OrderID, e.HotelID, e.GuestName, e.GuestPhone, e.Total, string(e.Status),
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
}

// UpdateStatus меняет статус заказа в журнале.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return withRetry(ctx, r.delays, func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE booking_orders SET status = $2, updated_at = now() WHERE order_id = $1`,
			orderID, string(status),
		)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
		}
		return nil
	})
}

// ListOrders возвращает записи журнала, новые первыми. Пустой статус означает все записи.
func (r *PostgresRepository) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.JournalEntry, error) {
	var (
		rows pgx.Rows
		err  error
	)
	const query = `SELECT order_id, hotel_id, guest_name, guest_phone, total::float8, status, created_at, updated_at
		 FROM booking_orders`
	if status == "" {
		rows, err = r.pool.Query(ctx, query+` ORDER BY created_at DESC, order_id DESC`)
	} else {
		rows, err = r.pool.Query(ctx, query+` WHERE status = $1 ORDER BY created_at DESC, order_id DESC`, string(status))
	}
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var res []model.JournalEntry
	for rows.Next() {
		var (
			e  model.JournalEntry
			st string
		)
		if err := rows.Scan(&e.OrderID, &e.HotelID, &e.GuestName, &e.GuestPhone, &e.Total, &st, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		e.Status = model.OrderStatus(st)
		res = append(res, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// withRetry повторяет fn для временных ошибок: сериализация, взаимоблокировка, обрыв соединения.
func withRetry(ctx context.Context, delays []time.Duration, fn func() error) error {
	var err error
	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil || !retryable(err) || i == len(delays) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delays[i]):
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected ||
			pgerrcode.IsConnectionException(pgErr.Code)
	}

	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset by peer")
}
