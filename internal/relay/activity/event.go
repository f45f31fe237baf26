// Package activity consumes activity events from the event stream and
// turns eligible ones into earning-rule awards.
package activity

import (
	"errors"

	"github.com/credits-ledger/internal/domain/earning"
)

// Event is one reported user activity, such as a completed practice
// session or a daily login. Context carries the facts earning-rule
// conditions evaluate against.
type Event struct {
	UserID        string          `json:"user_id"`
	Activity      string          `json:"activity"`
	Context       earning.Context `json:"context,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// Validate checks the fields without which the event cannot be
// processed.
func (e *Event) Validate() error {
	if e.UserID == "" {
		return errors.New("activity event missing user_id")
	}
	if e.Activity == "" {
		return errors.New("activity event missing activity")
	}
	return nil
}
