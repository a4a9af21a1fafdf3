package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartAndEndOfDay(t *testing.T) {
	ts := DateTime(2026, 3, 15, 14, 30, 45)

	start := StartOfDay(ts)
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 0, start.Minute())
	assert.Equal(t, 15, start.Day())

	end := EndOfDay(ts)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
	assert.Equal(t, 15, end.Day())
}

func TestStartOfDay_ConvertsFromUTC(t *testing.T) {
	// 23:30 UTC is already the next day in Kyiv.
	utc := time.Date(2026, 3, 15, 23, 30, 0, 0, time.UTC)
	start := StartOfDay(utc)
	assert.Equal(t, 16, start.Day())
}

func TestIsSameDay(t *testing.T) {
	morning := DateTime(2026, 3, 15, 0, 1, 0)
	evening := DateTime(2026, 3, 15, 23, 59, 0)
	nextDay := DateTime(2026, 3, 16, 0, 1, 0)

	assert.True(t, IsSameDay(morning, evening))
	assert.False(t, IsSameDay(evening, nextDay))
}

func TestIsConsecutiveDay(t *testing.T) {
	day1 := DateTime(2026, 3, 15, 20, 0, 0)
	day2 := DateTime(2026, 3, 16, 7, 0, 0)
	day3 := DateTime(2026, 3, 17, 7, 0, 0)

	assert.True(t, IsConsecutiveDay(day1, day2))
	assert.False(t, IsConsecutiveDay(day1, day3))
	assert.False(t, IsConsecutiveDay(day2, day1))
}

func TestIsConsecutiveDay_AcrossMonthBoundary(t *testing.T) {
	lastOfMonth := DateTime(2026, 2, 28, 22, 0, 0)
	firstOfNext := DateTime(2026, 3, 1, 9, 0, 0)
	assert.True(t, IsConsecutiveDay(lastOfMonth, firstOfNext))
}

func TestDaysBetween(t *testing.T) {
	a := DateTime(2026, 3, 15, 23, 59, 0)
	b := DateTime(2026, 3, 18, 0, 1, 0)

	assert.Equal(t, 3, DaysBetween(a, b))
	assert.Equal(t, 3, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestFormatUkrainian(t *testing.T) {
	ts := Date(2026, 3, 5)
	assert.Equal(t, "05.03.2026", FormatUkrainian(ts))
}

func TestParseDateKyiv(t *testing.T) {
	ts, err := ParseDateKyiv("2026-03-15")
	assert.NoError(t, err)
	assert.Equal(t, 15, ts.Day())
	assert.Equal(t, time.March, ts.Month())

	_, err = ParseDateKyiv("not-a-date")
	assert.Error(t, err)
}

func TestIsSafeNotificationTime(t *testing.T) {
	assert.False(t, IsSafeNotificationTime(DateTime(2026, 3, 15, 8, 59, 0)))
	assert.True(t, IsSafeNotificationTime(DateTime(2026, 3, 15, 9, 0, 0)))
	assert.True(t, IsSafeNotificationTime(DateTime(2026, 3, 15, 19, 0, 0)))
	assert.True(t, IsSafeNotificationTime(DateTime(2026, 3, 15, 21, 59, 0)))
	assert.False(t, IsSafeNotificationTime(DateTime(2026, 3, 15, 22, 0, 0)))
}

func TestNextSafeNotificationTime(t *testing.T) {
	early := DateTime(2026, 3, 15, 6, 0, 0)
	next := NextSafeNotificationTime(early)
	assert.Equal(t, 9, next.Hour())
	assert.Equal(t, 15, next.Day())

	late := DateTime(2026, 3, 15, 23, 0, 0)
	next = NextSafeNotificationTime(late)
	assert.Equal(t, 9, next.Hour())
	assert.Equal(t, 16, next.Day())

	daytime := DateTime(2026, 3, 15, 12, 0, 0)
	assert.Equal(t, daytime, NextSafeNotificationTime(daytime))
}
