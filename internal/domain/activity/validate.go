package activity

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/yungbote/activitylog-backend/internal/pkg/apperr"
)

// EventInput is the wire-level shape of one event before validation.
// Identity is never supplied by the caller; the store assigns it.
type EventInput struct {
	EventType         string           `json:"event_type"`
	SessionID         string           `json:"session_id"`
	DeviceID          string           `json:"device_id"`
	UserID            *int64           `json:"user_id,omitempty"`
	Metadata          map[string]any   `json:"metadata,omitempty"`
	ChildAge          *int             `json:"child_age,omitempty"`
	ChildNeeds        *string          `json:"child_needs,omitempty"`
	Diagnosis         *string          `json:"diagnosis,omitempty"`
	PreferredServices *string          `json:"preferred_services,omitempty"`
	IntentScore       *decimal.Decimal `json:"intent_score,omitempty"`
	Source            *string          `json:"source,omitempty"`
	IPHash            *string          `json:"ip_hash,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// Validate checks one input and materializes the row to append. Pure:
// no side effects, optional fields pass through verbatim, an empty
// metadata document is allowed. Errors wrap apperr.ErrValidation.
func Validate(in EventInput) (*ActivityEvent, error) {
	if strings.TrimSpace(in.EventType) == "" {
		return nil, apperr.Validation("event_type is required")
	}
	if strings.TrimSpace(in.SessionID) == "" {
		return nil, apperr.Validation("session_id is required")
	}
	if strings.TrimSpace(in.DeviceID) == "" {
		return nil, apperr.Validation("device_id is required")
	}
	if in.CreatedAt.IsZero() {
		return nil, apperr.Validation("created_at is required")
	}

	var score decimal.NullDecimal
	if in.IntentScore != nil {
		if in.IntentScore.Sign() < 0 {
			return nil, apperr.Validation("intent_score must not be negative")
		}
		score = decimal.NullDecimal{Decimal: *in.IntentScore, Valid: true}
	}

	var meta datatypes.JSON
	if in.Metadata != nil {
		b, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, apperr.Validationf("metadata not serializable: %v", err)
		}
		meta = datatypes.JSON(b)
	}

	return &ActivityEvent{
		EventType:         in.EventType,
		SessionID:         in.SessionID,
		DeviceID:          in.DeviceID,
		UserID:            in.UserID,
		Metadata:          meta,
		ChildAge:          in.ChildAge,
		ChildNeeds:        in.ChildNeeds,
		Diagnosis:         in.Diagnosis,
		PreferredServices: in.PreferredServices,
		IntentScore:       score,
		Source:            in.Source,
		IPHash:            in.IPHash,
		CreatedAt:         in.CreatedAt,
	}, nil
}
