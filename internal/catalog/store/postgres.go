package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"subgate/internal/catalog/models"
	"subgate/internal/platform/database"
	"subgate/internal/sentinel"
)

// PostgresStore persists the catalog in PostgreSQL. Association rows carry
// ON DELETE CASCADE foreign keys, so cascade semantics live in the schema.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed catalog store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) database.Querier {
	if tx, ok := database.TxFrom(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) CreateService(ctx context.Context, svc *models.Service) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO services (id, name, endpoint, description)
		VALUES ($1, $2, $3, $4)
	`, svc.ID, svc.Name, svc.Endpoint, svc.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("service %q: %w", svc.Name, sentinel.ErrDuplicate)
		}
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindServiceByName(ctx context.Context, name string) (*models.Service, error) {
	var svc models.Service
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, name, endpoint, description FROM services WHERE name = $1
	`, name).Scan(&svc.ID, &svc.Name, &svc.Endpoint, &svc.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("service %q: %w", name, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find service by name: %w", err)
	}
	return &svc, nil
}

func (s *PostgresStore) UpdateService(ctx context.Context, svc *models.Service) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE services SET name = $2, endpoint = $3, description = $4 WHERE id = $1
	`, svc.ID, svc.Name, svc.Endpoint, svc.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("service %q: %w", svc.Name, sentinel.ErrDuplicate)
		}
		return fmt.Errorf("update service: %w", err)
	}
	return requireAffected(res, "service", svc.ID)
}

func (s *PostgresStore) DeleteService(ctx context.Context, serviceID uuid.UUID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM services WHERE id = $1`, serviceID)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	return requireAffected(res, "service", serviceID)
}

func (s *PostgresStore) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO subscription_plans (id, name, call_limit, description)
		VALUES ($1, $2, $3, $4)
	`, plan.ID, plan.Name, plan.CallLimit, plan.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("plan %q: %w", plan.Name, sentinel.ErrDuplicate)
		}
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindPlanByName(ctx context.Context, name string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, name, call_limit, description FROM subscription_plans WHERE name = $1
	`, name).Scan(&plan.ID, &plan.Name, &plan.CallLimit, &plan.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("plan %q: %w", name, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find plan by name: %w", err)
	}
	return &plan, nil
}

func (s *PostgresStore) UpdatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE subscription_plans SET name = $2, call_limit = $3, description = $4 WHERE id = $1
	`, plan.ID, plan.Name, plan.CallLimit, plan.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("plan %q: %w", plan.Name, sentinel.ErrDuplicate)
		}
		return fmt.Errorf("update plan: %w", err)
	}
	return requireAffected(res, "plan", plan.ID)
}

func (s *PostgresStore) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM subscription_plans WHERE id = $1`, planID)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return requireAffected(res, "plan", planID)
}

func (s *PostgresStore) Associate(ctx context.Context, planID, serviceID uuid.UUID) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO plan_services (plan_id, service_id)
		VALUES ($1, $2)
		ON CONFLICT (plan_id, service_id) DO NOTHING
	`, planID, serviceID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("plan %s or service %s: %w", planID, serviceID, sentinel.ErrNotFound)
		}
		return fmt.Errorf("associate service with plan: %w", err)
	}
	return nil
}

func (s *PostgresStore) ReplacePlanServices(ctx context.Context, planID uuid.UUID, serviceIDs []uuid.UUID) error {
	q := s.q(ctx)
	if _, err := q.ExecContext(ctx, `DELETE FROM plan_services WHERE plan_id = $1`, planID); err != nil {
		return fmt.Errorf("clear plan services: %w", err)
	}
	for _, serviceID := range serviceIDs {
		_, err := q.ExecContext(ctx, `
			INSERT INTO plan_services (plan_id, service_id)
			VALUES ($1, $2)
			ON CONFLICT (plan_id, service_id) DO NOTHING
		`, planID, serviceID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("plan %s or service %s: %w", planID, serviceID, sentinel.ErrNotFound)
			}
			return fmt.Errorf("associate service with plan: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) PlanIncludesService(ctx context.Context, planID, serviceID uuid.UUID) (bool, error) {
	var included bool
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM plan_services WHERE plan_id = $1 AND service_id = $2
		)
	`, planID, serviceID).Scan(&included)
	if err != nil {
		return false, fmt.Errorf("check plan membership: %w", err)
	}
	return included, nil
}

func (s *PostgresStore) ServicesForPlan(ctx context.Context, planID uuid.UUID) ([]*models.Service, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT s.id, s.name, s.endpoint, s.description
		FROM services s
		JOIN plan_services ps ON ps.service_id = s.id
		WHERE ps.plan_id = $1
		ORDER BY s.name
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("list plan services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		var svc models.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Endpoint, &svc.Description); err != nil {
			return nil, fmt.Errorf("scan plan service: %w", err)
		}
		services = append(services, &svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plan services: %w", err)
	}
	return services, nil
}

func requireAffected(res sql.Result, kind string, id uuid.UUID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", kind, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, sentinel.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
