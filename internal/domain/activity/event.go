package activity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ActivityEvent is one immutable logged occurrence. Rows are append-only:
// there is no update or delete path in this engine, corrections are
// recorded as new compensating events.
type ActivityEvent struct {
	// Assigned by the store's sequence at append time. Strictly increasing,
	// never reused.
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	EventType string `gorm:"column:event_type;not null;index:idx_user_activity_event_type" json:"event_type"`
	// Opaque client-session token produced upstream.
	SessionID string `gorm:"column:session_id;not null;index:idx_user_activity_session" json:"session_id"`
	// Opaque device token produced upstream.
	DeviceID string `gorm:"column:device_id;not null;index:idx_user_activity_device" json:"device_id"`
	// Soft foreign key to the externally-owned users table. Nil means an
	// anonymous event. Existence is checked at append time, not by a DB
	// constraint.
	UserID *int64 `gorm:"column:user_id;index:idx_user_activity_user" json:"user_id,omitempty"`
	// Schema-less payload, stored verbatim. Never inspected or indexed.
	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`

	// Optional domain facets, unindexed, stored verbatim.
	ChildAge          *int                `gorm:"column:child_age" json:"child_age,omitempty"`
	ChildNeeds        *string             `gorm:"column:child_needs" json:"child_needs,omitempty"`
	Diagnosis         *string             `gorm:"column:diagnosis" json:"diagnosis,omitempty"`
	PreferredServices *string             `gorm:"column:preferred_services" json:"preferred_services,omitempty"`
	IntentScore       decimal.NullDecimal `gorm:"type:numeric;column:intent_score" json:"intent_score,omitempty"`
	Source            *string             `gorm:"column:source" json:"source,omitempty"`
	IPHash            *string             `gorm:"column:ip_hash" json:"ip_hash,omitempty"`

	// Event occurrence time, set by the caller. Not a server receive time.
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (ActivityEvent) TableName() string { return "user_activity" }

// Dimension names one of the four indexed access paths over the log.
type Dimension string

const (
	DimEventType Dimension = "event_type"
	DimSession   Dimension = "session_id"
	DimDevice    Dimension = "device_id"
	DimUser      Dimension = "user_id"
)

// Column returns the whitelisted column name for the dimension, or ""
// for an unknown dimension. Lookups must never interpolate caller input
// into SQL identifiers.
func (d Dimension) Column() string {
	switch d {
	case DimEventType, DimSession, DimDevice, DimUser:
		return string(d)
	default:
		return ""
	}
}
