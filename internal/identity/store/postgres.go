package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"subgate/internal/identity/models"
	"subgate/internal/platform/database"
	"subgate/internal/sentinel"
)

// PostgresUserStore persists users in PostgreSQL.
type PostgresUserStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// q returns the enclosing transaction when one is carried by the context, so
// plan transitions can update the user row and reset counters atomically.
func (s *PostgresUserStore) q(ctx context.Context) database.Querier {
	if tx, ok := database.TxFrom(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresUserStore) Create(ctx context.Context, user *models.User) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, plan)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Username, user.PasswordHash, string(user.Role), user.PlanName)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", user.Username, sentinel.ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, plan FROM users WHERE id = $1
	`, userID)
	return scanUser(row, userID.String())
}

func (s *PostgresUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, plan FROM users WHERE username = $1
	`, username)
	return scanUser(row, username)
}

func (s *PostgresUserStore) SetPlan(ctx context.Context, userID uuid.UUID, planName string) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE users SET plan = $2 WHERE id = $1
	`, userID, planName)
	if err != nil {
		return fmt.Errorf("set user plan: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set user plan: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	return nil
}

func scanUser(row *sql.Row, ref string) (*models.User, error) {
	var user models.User
	var role string
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.PlanName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", ref, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Role = models.Role(role)
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
