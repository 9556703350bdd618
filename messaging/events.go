// Package messaging carries domain events between services over a pub/sub bus.
package messaging

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// Event types published on the bus
const (
	EventLessonCompleted    = "LessonCompleted"
	EventUserEnrolled       = "UserEnrolled"
	EventAchievementAwarded = "AchievementAwarded"
)

const subjectPrefix = "events."

// Subject returns the bus subject an event type is published on
func Subject(eventType string) string {
	return subjectPrefix + eventType
}

// DomainEvent is the envelope every message on the bus is wrapped in
type DomainEvent struct {
	EventID     string          `json:"eventId"`
	EventType   string          `json:"eventType"`
	AggregateID string          `json:"aggregateId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Data        json.RawMessage `json:"data"`
}

// Decode unmarshals the event payload into v
func (e DomainEvent) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.EventID)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.EventType, err)
	}
	return nil
}

// LessonCompletedData is the payload of a LessonCompleted event
type LessonCompletedData struct {
	UserID      uint      `json:"userId"`
	LessonID    uint      `json:"lessonId"`
	Subject     string    `json:"subject"`
	CompletedAt time.Time `json:"completedAt"`
}

// UserEnrolledData is the payload of a UserEnrolled event
type UserEnrolledData struct {
	UserID     uint      `json:"userId"`
	LessonID   uint      `json:"lessonId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// AchievementAwardedData is the payload of an AchievementAwarded event
type AchievementAwardedData struct {
	UserID          uint      `json:"userId"`
	AchievementID   uint      `json:"achievementId"`
	AchievementName string    `json:"achievementName"`
	Points          int       `json:"points"`
	AwardedAt       time.Time `json:"awardedAt"`
}

// NewDomainEvent wraps data in an envelope with a fresh event id
func NewDomainEvent(eventType, aggregateID string, data interface{}) (DomainEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return DomainEvent{}, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}

	return DomainEvent{
		EventID:     NewEventID(),
		EventType:   eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Data:        raw,
	}, nil
}

func NewLessonCompletedEvent(data LessonCompletedData) (DomainEvent, error) {
	return NewDomainEvent(EventLessonCompleted, userAggregate(data.UserID), data)
}

func NewUserEnrolledEvent(data UserEnrolledData) (DomainEvent, error) {
	return NewDomainEvent(EventUserEnrolled, userAggregate(data.UserID), data)
}

func NewAchievementAwardedEvent(data AchievementAwardedData) (DomainEvent, error) {
	return NewDomainEvent(EventAchievementAwarded, userAggregate(data.UserID), data)
}

func userAggregate(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

const (
	eventIDSuffixLen = 9
	base36           = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewEventID returns an id of the form event_<unix millis>_<9 base36 chars>
func NewEventID() string {
	suffix := make([]byte, eventIDSuffixLen)
	max := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is gone
			panic(fmt.Sprintf("messaging: reading random bytes: %v", err))
		}
		suffix[i] = base36[n.Int64()]
	}
	return fmt.Sprintf("event_%d_%s", time.Now().UnixMilli(), suffix)
}
