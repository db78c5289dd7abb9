package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"subgate/internal/platform/database"
)

// PostgresStore persists usage counters in PostgreSQL.
//
// The admit-or-reject decision is a single conditional upsert: the row is
// created at 1 on first access, and an existing row is only incremented when
// it is still below the limit. The database serializes writers on the row,
// so there is no separate read to race against. Resets are plain UPDATEs
// that contend on the same row locks.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) database.Querier {
	if tx, ok := database.TxFrom(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Increment(ctx context.Context, key Key, limit int) (int, error) {
	var calls int
	err := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO usage_counters (user_id, service_id, calls_made)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, service_id) DO UPDATE
			SET calls_made = usage_counters.calls_made + 1
			WHERE usage_counters.calls_made < $3
		RETURNING calls_made
	`, key.UserID, key.ServiceID, limit).Scan(&calls)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The conditional update matched nothing: counter at or above limit.
			return 0, ErrLimitReached
		}
		return 0, fmt.Errorf("increment usage counter: %w", err)
	}
	return calls, nil
}

func (s *PostgresStore) ResetUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		UPDATE usage_counters SET calls_made = 0 WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("reset user counters: %w", err)
	}
	return nil
}

func (s *PostgresStore) ResetAll(ctx context.Context) (int, error) {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE usage_counters SET calls_made = 0 WHERE calls_made <> 0
	`)
	if err != nil {
		return 0, fmt.Errorf("reset all counters: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset all counters: %w", err)
	}
	return int(affected), nil
}

func (s *PostgresStore) CountsForUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT service_id, calls_made FROM usage_counters WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user counters: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var serviceID uuid.UUID
		var calls int
		if err := rows.Scan(&serviceID, &calls); err != nil {
			return nil, fmt.Errorf("scan usage counter: %w", err)
		}
		counts[serviceID] = calls
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user counters: %w", err)
	}
	return counts, nil
}
