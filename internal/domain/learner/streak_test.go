package learner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(n int) time.Time {
	return time.Date(2025, time.March, n, 15, 30, 0, 0, time.UTC)
}

func TestDailyStreak_ConsecutiveDays(t *testing.T) {
	s := &DailyStreak{}

	r1 := s.RecordActivity(day(1))
	assert.Equal(t, 1, r1.Streak)
	assert.True(t, r1.Changed)
	assert.Zero(t, r1.Bonus)

	r2 := s.RecordActivity(day(2))
	assert.Equal(t, 2, r2.Streak)
	assert.Zero(t, r2.Bonus)

	r3 := s.RecordActivity(day(3))
	assert.Equal(t, 3, r3.Streak)
	assert.Equal(t, 5, r3.Bonus, "поріг 3 оплачується на третій день")
}

func TestDailyStreak_SameDayIsNoop(t *testing.T) {
	s := &DailyStreak{}
	s.RecordActivity(day(1))
	s.RecordActivity(day(2))
	s.RecordActivity(day(3))

	// Повторна активність того самого дня: без змін і без бонусу
	again := s.RecordActivity(day(3).Add(4 * time.Hour))
	assert.Equal(t, 3, again.Streak)
	assert.False(t, again.Changed)
	assert.Zero(t, again.Bonus, "поріг 3 не оплачується вдруге")
}

func TestDailyStreak_GapResets(t *testing.T) {
	s := &DailyStreak{}
	s.RecordActivity(day(1))
	s.RecordActivity(day(2))
	s.RecordActivity(day(3))

	r := s.RecordActivity(day(5))
	assert.Equal(t, 1, r.Streak)
	assert.True(t, r.WasReset)
}

func TestDailyStreak_MilestoneNotRetroactive(t *testing.T) {
	// Серія 6 → розрив → нова серія: поріг 7 не виплачується при
	// повторному проходженні значення 3..6, тільки при точному збігу.
	s := &DailyStreak{Current: 6, LastActiveDate: day(6)}

	r := s.RecordActivity(day(7))
	assert.Equal(t, 7, r.Streak)
	assert.Equal(t, 10, r.Bonus)

	r = s.RecordActivity(day(9))
	assert.Equal(t, 1, r.Streak)
	assert.Zero(t, r.Bonus)
}

func TestTopicStreak_MilestonesDue(t *testing.T) {
	s := &TopicStreak{Topic: "Логарифми"}

	var due []MilestoneAward
	for i := 0; i < 5; i++ {
		due = s.RecordCorrect()
	}
	assert.Equal(t, 5, s.Current)

	// Досяжні пороги ≤ 5; фільтр уже виплачених — на боці сховища
	thresholds := make([]int, 0, len(due))
	for _, a := range due {
		thresholds = append(thresholds, a.Threshold)
	}
	assert.Equal(t, []int{3, 5}, thresholds)
}

func TestTopicStreak_Reset(t *testing.T) {
	s := &TopicStreak{Topic: "Логарифми", Current: 4}
	s.Reset()
	assert.Zero(t, s.Current)

	due := s.RecordCorrect()
	assert.Empty(t, due)
	assert.Equal(t, 1, s.Current)
}

func TestMasteryThresholdReserved(t *testing.T) {
	for _, th := range TopicMilestones() {
		assert.NotEqual(t, MasteryThreshold, th)
	}
	for _, th := range DailyMilestones() {
		assert.NotEqual(t, MasteryThreshold, th)
	}
	assert.Equal(t, MasteryBonus, TopicMilestoneBonus(MasteryThreshold))
}
