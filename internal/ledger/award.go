package ledger

import (
	"context"

	"github.com/credits-ledger/internal/domain/earning"
	"github.com/credits-ledger/internal/domain/transaction"
)

// AwardForActivity evaluates the named activity against its configured
// earning rule and credits the user's wallet when eligible. A missing
// or inactive rule, or unmet conditions, yields (nil, nil): no award,
// no error. The user's wallet is created lazily on their first award.
func (s *Service) AwardForActivity(ctx context.Context, userID, activity string, facts earning.Context) (*transaction.Transaction, error) {
	rule, err := s.rules.GetActiveByName(ctx, activity)
	if err != nil {
		return nil, err
	}
	if rule == nil || !rule.Eligible(facts) {
		s.logger.Debug("Activity not eligible for award", "user_id", userID, "activity", activity)
		return nil, nil
	}

	w, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := EntryParams{
		WalletID:    w.ID,
		Amount:      rule.Amount,
		Kind:        transaction.KindEarn,
		Description: rule.Description,
	}
	if ref, ok := facts["reference_id"].(string); ok {
		p.ReferenceID = ref
	}
	if refType, ok := facts["reference_type"].(string); ok {
		p.ReferenceType = refType
	}
	if len(facts) > 0 {
		metadata := make(map[string]any, len(facts)+1)
		for k, v := range facts {
			metadata[k] = v
		}
		metadata["activity"] = activity
		p.Metadata = metadata
	} else {
		p.Metadata = map[string]any{"activity": activity}
	}

	posted, err := s.Credit(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Activity award posted",
		"user_id", userID,
		"activity", activity,
		"amount", rule.Amount.String(),
		"transaction_id", posted.ID.String(),
	)
	return posted, nil
}

// ListRules returns the full earning rule catalog, active and inactive.
func (s *Service) ListRules(ctx context.Context) ([]*earning.Rule, error) {
	return s.rules.List(ctx)
}

// CreateRule adds a new earning rule to the catalog.
func (s *Service) CreateRule(ctx context.Context, rule *earning.Rule) error {
	return s.rules.Create(ctx, rule)
}

// SetRuleActive enables or disables an earning rule by name.
func (s *Service) SetRuleActive(ctx context.Context, name string, active bool) error {
	return s.rules.SetActive(ctx, name, active)
}
