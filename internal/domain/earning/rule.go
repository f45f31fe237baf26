package earning

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConditionKind selects one of the fixed predicate shapes a rule may
// use. Keeping the set closed keeps eligibility evaluation
// deterministic and testable.
type ConditionKind string

const (
	// ConditionMinThreshold requires a numeric fact to be >= Threshold
	// (e.g. accuracy >= 80, streak >= 7).
	ConditionMinThreshold ConditionKind = "min_threshold"

	// ConditionFlagSet requires a boolean fact to be true
	// (e.g. profile_complete).
	ConditionFlagSet ConditionKind = "flag_set"

	// ConditionFirstTime requires the first_time fact to be true; used
	// for one-off bonuses such as the first ever practice session.
	ConditionFirstTime ConditionKind = "first_time"
)

// Condition is one tagged predicate with typed parameters, evaluated
// against caller-supplied facts.
type Condition struct {
	Kind      ConditionKind `json:"kind"`
	Field     string        `json:"field,omitempty"`
	Threshold float64       `json:"threshold,omitempty"`
}

// Context carries the facts an activity reports about itself, such as
// accuracy, streak length, or first-time markers.
type Context map[string]any

// Float reads a numeric fact, accepting the types JSON decoding and
// direct callers produce.
func (c Context) Float(field string) (float64, bool) {
	switch v := c[field].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case decimal.Decimal:
		f, _ := v.Float64()
		return f, true
	}
	return 0, false
}

// Bool reads a boolean fact.
func (c Context) Bool(field string) bool {
	v, ok := c[field].(bool)
	return ok && v
}

// Met reports whether the condition holds for the given facts. A
// missing fact fails the condition rather than erroring.
func (cond Condition) Met(ctx Context) bool {
	switch cond.Kind {
	case ConditionMinThreshold:
		v, ok := ctx.Float(cond.Field)
		return ok && v >= cond.Threshold
	case ConditionFlagSet:
		return ctx.Bool(cond.Field)
	case ConditionFirstTime:
		return ctx.Bool("first_time")
	}
	return false
}

// Rule maps a named activity to a configured reward amount, gated by
// zero or more conditions. All conditions must hold.
type Rule struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	IsActive    bool            `json:"is_active"`
	Conditions  []Condition     `json:"conditions,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Eligible evaluates the rule's conditions against the activity facts.
func (r *Rule) Eligible(ctx Context) bool {
	if !r.IsActive {
		return false
	}
	for _, cond := range r.Conditions {
		if !cond.Met(ctx) {
			return false
		}
	}
	return true
}
