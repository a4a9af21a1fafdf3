package learner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluator_ReconcileGrantsOnce(t *testing.T) {
	e := NewEvaluator()
	agg := Aggregates{TasksCompleted: 12, DailyStreak: 7, FeedbackCount: 1}

	held := map[BadgeName]struct{}{}
	granted := e.Reconcile(agg, held)

	names := make([]BadgeName, 0, len(granted))
	for _, b := range granted {
		names = append(names, b.Name)
		held[b.Name] = struct{}{}
	}
	assert.ElementsMatch(t, []BadgeName{BadgeFirstSteps, BadgeWeekOfFire, BadgeCritic}, names)

	// Повторний виклик без зміни стану — порожній список
	assert.Empty(t, e.Reconcile(agg, held))
}

func TestEvaluator_OrderIsFixed(t *testing.T) {
	e := NewEvaluator()
	agg := Aggregates{TasksCompleted: 150, Score: 200, AllTasksCompleted: true, CompletionRatio: 1}

	granted := e.Reconcile(agg, map[BadgeName]struct{}{})

	var names []BadgeName
	for _, b := range granted {
		names = append(names, b.Name)
	}
	assert.Equal(t, []BadgeName{
		BadgeFirstSteps, BadgeGettingHot, BadgeCenturion,
		BadgeHalfWay, BadgeConqueror, BadgeHundredClub,
	}, names)
}

func TestDefinition(t *testing.T) {
	b, ok := Definition(BadgeConqueror)
	assert.True(t, ok)
	assert.Equal(t, 100, b.Reward)

	_, ok = Definition("nope")
	assert.False(t, ok)
}

func TestLearner_GrantBadgeIdempotent(t *testing.T) {
	l, err := NewLearner(NewLearnerParams{TelegramID: 42, DisplayName: "Олег"})
	assert.NoError(t, err)

	assert.True(t, l.GrantBadge(BadgeCritic))
	assert.False(t, l.GrantBadge(BadgeCritic))
	assert.True(t, l.HasBadge(BadgeCritic))
}

func TestLearner_CanTakeDaily(t *testing.T) {
	l, err := NewLearner(NewLearnerParams{TelegramID: 42})
	assert.NoError(t, err)

	now := day(10)
	assert.True(t, l.CanTakeDaily(now))

	l.LastDailyAt = now
	assert.False(t, l.CanTakeDaily(now.Add(2*time.Hour)))
	assert.True(t, l.CanTakeDaily(day(11)))
}
