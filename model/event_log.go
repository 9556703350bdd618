package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventLogProcessed = "processed"
	EventLogFailed    = "failed"
)

// EventLog is an audit row for every bus message the achievement worker consumed
type EventLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventID     string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"eventId"`
	EventType   string         `gorm:"type:varchar(50);not null;index" json:"eventType"`
	AggregateID string         `gorm:"type:varchar(64);index" json:"aggregateId"`
	Payload     datatypes.JSON `json:"payload"`
	Status      string         `gorm:"type:varchar(20);not null" json:"status"` // processed, failed
	Error       string         `gorm:"type:text" json:"error,omitempty"`
	ReceivedAt  time.Time      `gorm:"not null;index" json:"receivedAt"`
}
