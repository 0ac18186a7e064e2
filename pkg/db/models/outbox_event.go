package models

import (
	"time"

	"github.com/freshfields/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OutboxEvent is a pending integration event written in the same
// transaction as the state change it describes. A publisher worker drains
// rows ordered by creation time and marks them published or failed.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"type:uuid;primaryKey" json:"id"`
	AggregateType enums.OutboxAggregateType `gorm:"not null" json:"aggregate_type"`
	AggregateID   uuid.UUID                 `gorm:"type:uuid;not null" json:"aggregate_id"`
	EventType     enums.OutboxEventType     `gorm:"not null" json:"event_type"`
	Payload       datatypes.JSON            `gorm:"type:jsonb;not null" json:"payload"`
	Attempts      int                       `gorm:"not null;default:0" json:"attempts"`
	LastError     string                    `json:"last_error,omitempty"`
	PublishedAt   *time.Time                `json:"published_at,omitempty"`
	FailedAt      *time.Time                `json:"failed_at,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

func (e *OutboxEvent) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
