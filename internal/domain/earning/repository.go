package earning

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository manages earning rule configuration
type Repository interface {
	// GetActiveByName returns the active rule with the given name, or
	// nil when no such rule exists. An absent or inactive rule is not an
	// error: award evaluation treats it as "not eligible".
	GetActiveByName(ctx context.Context, name string) (*Rule, error)

	List(ctx context.Context) ([]*Rule, error)
	Create(ctx context.Context, rule *Rule) error
	SetActive(ctx context.Context, name string, active bool) error

	WithTx(tx pgx.Tx) Repository
}
