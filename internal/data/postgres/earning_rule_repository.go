package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/credits-ledger/internal/domain/earning"
	"github.com/credits-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// EarningRuleRepository implements the earning.Repository interface for
// PostgreSQL. Conditions are stored as a JSONB array of tagged
// predicates.
type EarningRuleRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewEarningRuleRepository creates a new PostgreSQL earning rule repository
func NewEarningRuleRepository(logger *slog.Logger, db *persistence.PostgresDB) earning.Repository {
	return &EarningRuleRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *EarningRuleRepository) WithTx(tx pgx.Tx) earning.Repository {
	return &EarningRuleRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func scanRule(row pgx.Row) (*earning.Rule, error) {
	var rule earning.Rule
	var conditions []byte
	err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Description,
		&rule.Amount,
		&rule.IsActive,
		&conditions,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
			return nil, fmt.Errorf("failed to decode rule conditions: %w", err)
		}
	}
	return &rule, nil
}

// GetActiveByName returns the active rule with the given name, or nil
// when no active rule exists.
func (r *EarningRuleRepository) GetActiveByName(ctx context.Context, name string) (*earning.Rule, error) {
	query := `
		SELECT id, name, description, amount, is_active, conditions, created_at, updated_at
		FROM earning_rules
		WHERE name = $1 AND is_active = TRUE
	`

	rule, err := scanRule(r.querier.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get earning rule", "name", name, "error", err)
		return nil, fmt.Errorf("failed to get earning rule: %w", err)
	}

	return rule, nil
}

// List returns all earning rules ordered by name.
func (r *EarningRuleRepository) List(ctx context.Context) ([]*earning.Rule, error) {
	query := `
		SELECT id, name, description, amount, is_active, conditions, created_at, updated_at
		FROM earning_rules
		ORDER BY name ASC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list earning rules", "error", err)
		return nil, fmt.Errorf("failed to list earning rules: %w", err)
	}
	defer rows.Close()

	var rules []*earning.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan earning rule row: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read earning rule rows: %w", err)
	}

	return rules, nil
}

// Create stores a new earning rule
func (r *EarningRuleRepository) Create(ctx context.Context, rule *earning.Rule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to encode rule conditions: %w", err)
	}

	query := `
		INSERT INTO earning_rules (id, name, description, amount, is_active, conditions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.querier.Exec(ctx, query,
		rule.ID,
		rule.Name,
		rule.Description,
		rule.Amount,
		rule.IsActive,
		conditions,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create earning rule", "name", rule.Name, "error", err)
		return fmt.Errorf("failed to create earning rule: %w", err)
	}

	return nil
}

// SetActive toggles a rule's active flag
func (r *EarningRuleRepository) SetActive(ctx context.Context, name string, active bool) error {
	query := `UPDATE earning_rules SET is_active = $1, updated_at = NOW() WHERE name = $2`

	result, err := r.querier.Exec(ctx, query, active, name)
	if err != nil {
		r.logger.Error("Failed to set earning rule active flag", "name", name, "error", err)
		return fmt.Errorf("failed to set earning rule active flag: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("earning rule not found: %s", name)
	}

	return nil
}
