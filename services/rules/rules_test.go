package rules

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/learnhub/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllIsOrderedBronzeSilverGold(t *testing.T) {
	all := NewRuleSet(3).All()
	require.Len(t, all, 3)

	assert.Equal(t, model.AchievementBronze, all[0].Type)
	assert.Equal(t, model.CategoryLessonCompletion, all[0].Category)
	assert.Equal(t, 10, all[0].Points)
	assert.Equal(t, 1, all[0].Threshold)

	assert.Equal(t, model.AchievementSilver, all[1].Type)
	assert.Equal(t, model.CategorySubjectMastery, all[1].Category)
	assert.Equal(t, 50, all[1].Points)
	assert.Equal(t, 3, all[1].Threshold)

	assert.Equal(t, model.AchievementGold, all[2].Type)
	assert.Equal(t, model.CategorySpecial, all[2].Category)
	assert.Equal(t, 100, all[2].Points)
}

func TestAllReturnsCopy(t *testing.T) {
	rs := NewRuleSet(3)
	all := rs.All()
	all[0], all[2] = all[2], all[0]

	assert.Equal(t, model.AchievementBronze, rs.All()[0].Type)
}

func TestSilverThreshold(t *testing.T) {
	silver, err := NewRuleSet(5).ForType(model.AchievementSilver)
	require.NoError(t, err)
	assert.Equal(t, 5, silver.Threshold)

	silver, err = NewRuleSet(0).ForType(model.AchievementSilver)
	require.NoError(t, err)
	assert.Equal(t, DefaultSilverThreshold, silver.Threshold)
}

func TestPredicates(t *testing.T) {
	ctx := context.Background()
	rs := NewRuleSet(3)

	events := []Event{
		{Kind: LessonCompleted, UserID: 1, LessonID: 1, Subject: model.SubjectMath, OccurredAt: time.Now()},
		{Kind: UserEnrolled, UserID: 1, LessonID: 2, OccurredAt: time.Now()},
	}

	for _, e := range events {
		want := map[model.AchievementType]bool{
			model.AchievementBronze: true,
			model.AchievementSilver: true,
			model.AchievementGold:   false,
		}
		for _, r := range rs.All() {
			ok, err := r.CanAward(ctx, e)
			require.NoError(t, err)
			assert.Equal(t, want[r.Type], ok, "rule %s on %s", r.ID, e.Kind)
		}
	}
}

func TestForTypeUnknown(t *testing.T) {
	_, err := NewRuleSet(3).ForType(model.AchievementPlatinum)
	assert.ErrorIs(t, err, ErrUnknownAchievementType)
	assert.Contains(t, err.Error(), "PLATINUM")

	_, err = NewRuleSet(3).ForType("DIAMOND")
	assert.ErrorIs(t, err, ErrUnknownAchievementType)
}

func TestAchievementName(t *testing.T) {
	bronze, err := NewRuleSet(3).ForType(model.AchievementBronze)
	require.NoError(t, err)
	assert.Equal(t, "BRONZE LESSON_COMPLETION", bronze.AchievementName())
}
