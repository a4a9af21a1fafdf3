package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression(t *testing.T) {
	t.Run("every five minutes", func(t *testing.T) {
		ce, err := ParseCronExpression("*/5 * * * *")
		require.NoError(t, err)
		assert.Equal(t, []int{0, 5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55}, ce.minutes)
	})

	t.Run("fixed evening hour", func(t *testing.T) {
		ce, err := ParseCronExpression("0 19 * * *")
		require.NoError(t, err)
		assert.Equal(t, []int{0}, ce.minutes)
		assert.Equal(t, []int{19}, ce.hours)
	})

	t.Run("list and range", func(t *testing.T) {
		ce, err := ParseCronExpression("0 9-11 * * 1,3,5")
		require.NoError(t, err)
		assert.Equal(t, []int{9, 10, 11}, ce.hours)
		assert.Equal(t, []int{1, 3, 5}, ce.weekdays)
	})

	t.Run("rejects wrong field count", func(t *testing.T) {
		_, err := ParseCronExpression("* * *")
		assert.Error(t, err)
	})

	t.Run("rejects out of range value", func(t *testing.T) {
		_, err := ParseCronExpression("61 * * * *")
		assert.Error(t, err)
	})
}

func TestCronExpression_Next(t *testing.T) {
	ce := MustParseCronExpression("0 19 * * *")

	t.Run("same day before the hour", func(t *testing.T) {
		after := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
		next := ce.Next(after)
		assert.Equal(t, time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC), next)
	})

	t.Run("rolls to the next day after the hour", func(t *testing.T) {
		after := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)
		next := ce.Next(after)
		assert.Equal(t, time.Date(2026, 3, 11, 19, 0, 0, 0, time.UTC), next)
	})

	t.Run("keeps the location of the input", func(t *testing.T) {
		loc := time.FixedZone("EET", 2*60*60)
		after := time.Date(2026, 3, 10, 12, 0, 0, 0, loc)
		next := ce.Next(after)
		assert.Equal(t, 19, next.Hour())
		assert.Equal(t, loc, next.Location())
	})
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(15 * time.Minute)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(15*time.Minute), s.Next(base))
	assert.Equal(t, "@every 15m0s", s.String())
}
