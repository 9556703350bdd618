// Package rules decides which achievements a learning event earns.
package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/learnhub/model"
)

// ErrUnknownAchievementType is returned by ForType for types with no rule
var ErrUnknownAchievementType = errors.New("unknown achievement type")

// DefaultSilverThreshold is used when a RuleSet is built with a threshold below 1
const DefaultSilverThreshold = 3

// EventKind identifies which learning event a rule is evaluated against
type EventKind string

const (
	LessonCompleted EventKind = "lesson_completed"
	UserEnrolled    EventKind = "user_enrolled"
)

// Event is the input to a rule predicate
type Event struct {
	Kind       EventKind
	UserID     uint
	LessonID   uint
	Subject    model.Subject
	OccurredAt time.Time
}

// Predicate reports whether a rule fires for the event
type Predicate func(ctx context.Context, event Event) (bool, error)

// Rule is one entry of the award table
type Rule struct {
	ID        string
	Type      model.AchievementType
	Category  model.AchievementCategory
	Points    int
	Threshold int
	Predicate Predicate
}

// CanAward evaluates the rule's predicate
func (r Rule) CanAward(ctx context.Context, event Event) (bool, error) {
	if r.Predicate == nil {
		return false, nil
	}
	return r.Predicate(ctx, event)
}

// AchievementName is the name given to an achievement created for this rule
func (r Rule) AchievementName() string {
	return fmt.Sprintf("%s %s", r.Type, r.Category)
}

// RuleSet is the fixed, ordered registry of rules
type RuleSet struct {
	rules  []Rule
	byType map[model.AchievementType]int
}

// NewRuleSet builds the Bronze, Silver, Gold registry in that evaluation order
func NewRuleSet(silverThreshold int) *RuleSet {
	if silverThreshold < 1 {
		silverThreshold = DefaultSilverThreshold
	}

	rs := &RuleSet{
		rules: []Rule{
			{
				ID:        "bronze",
				Type:      model.AchievementBronze,
				Category:  model.CategoryLessonCompletion,
				Points:    10,
				Threshold: 1,
				Predicate: always(true),
			},
			{
				// Subject mastery is not tracked per subject yet, so silver fires on every event
				ID:        "silver",
				Type:      model.AchievementSilver,
				Category:  model.CategorySubjectMastery,
				Points:    50,
				Threshold: silverThreshold,
				Predicate: always(true),
			},
			{
				ID:        "gold",
				Type:      model.AchievementGold,
				Category:  model.CategorySpecial,
				Points:    100,
				Threshold: 1,
				Predicate: always(false),
			},
		},
		byType: make(map[model.AchievementType]int),
	}

	for i, r := range rs.rules {
		rs.byType[r.Type] = i
	}
	return rs
}

// All returns the rules in evaluation order
func (rs *RuleSet) All() []Rule {
	return append([]Rule(nil), rs.rules...)
}

// ForType resolves the rule for an achievement type
func (rs *RuleSet) ForType(t model.AchievementType) (Rule, error) {
	i, ok := rs.byType[t]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %s", ErrUnknownAchievementType, t)
	}
	return rs.rules[i], nil
}

func always(result bool) Predicate {
	return func(context.Context, Event) (bool, error) {
		return result, nil
	}
}
