// Package timeutil provides timezone utilities for the Kyiv timezone.
// Daily streaks, daily tasks and reminder windows are all defined by the
// learner's wall clock, so every date boundary in the bot is computed here.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// KyivTZ is the Kyiv timezone. Ukraine observes DST, so the IANA database
// entry is used when available; the fixed UTC+2 fallback only matters on
// systems shipped without tzdata.
var KyivTZ = loadKyiv()

func loadKyiv() *time.Location {
	loc, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		return time.FixedZone("EET", 2*60*60)
	}
	return loc
}

// Now returns the current time in Kyiv timezone.
func Now() time.Time {
	return time.Now().In(KyivTZ)
}

// ToKyiv converts a time to Kyiv timezone.
func ToKyiv(t time.Time) time.Time {
	return t.In(KyivTZ)
}

// Date creates a time in Kyiv timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, KyivTZ)
}

// DateTime creates a time in Kyiv timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, KyivTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Kyiv timezone.
func StartOfDay(t time.Time) time.Time {
	kyiv := ToKyiv(t)
	return time.Date(kyiv.Year(), kyiv.Month(), kyiv.Day(), 0, 0, 0, 0, KyivTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Kyiv timezone.
func EndOfDay(t time.Time) time.Time {
	kyiv := ToKyiv(t)
	return time.Date(kyiv.Year(), kyiv.Month(), kyiv.Day(), 23, 59, 59, 999999999, KyivTZ)
}

// IsToday checks if the given time is today in Kyiv timezone.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// IsYesterday checks if the given time is yesterday in Kyiv timezone.
func IsYesterday(t time.Time) bool {
	return IsSameDay(t, Now().AddDate(0, 0, -1))
}

// IsSameDay checks if two times are on the same day in Kyiv timezone.
func IsSameDay(t1, t2 time.Time) bool {
	k1, k2 := ToKyiv(t1), ToKyiv(t2)
	return k1.Year() == k2.Year() && k1.YearDay() == k2.YearDay()
}

// IsConsecutiveDay checks if t2 is the day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	next := ToKyiv(t1).AddDate(0, 0, 1)
	return IsSameDay(next, t2)
}

// DaysSince calculates the number of days since the given time.
func DaysSince(t time.Time) int {
	return DaysBetween(t, Now())
}

// DaysBetween calculates the number of calendar days between two times.
func DaysBetween(t1, t2 time.Time) int {
	a := StartOfDay(t1)
	b := StartOfDay(t2)
	days := int(b.Sub(a).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatUkrainianDate is the date format shown to users (DD.MM.YYYY).
	FormatUkrainianDate = "02.01.2006"
)

// FormatKyiv formats a time in Kyiv timezone with the given layout.
func FormatKyiv(t time.Time, layout string) string {
	return ToKyiv(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in Kyiv timezone.
func FormatDateStr(t time.Time) string {
	return FormatKyiv(t, FormatDate)
}

// FormatUkrainian formats a time as DD.MM.YYYY in Kyiv timezone.
func FormatUkrainian(t time.Time) string {
	return FormatKyiv(t, FormatUkrainianDate)
}

// ParseKyiv parses a time string in Kyiv timezone.
func ParseKyiv(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, KyivTZ)
}

// ParseDateKyiv parses a date string (YYYY-MM-DD) in Kyiv timezone.
func ParseDateKyiv(value string) (time.Time, error) {
	return ParseKyiv(FormatDate, value)
}

// Notification timing helpers.

// IsSafeNotificationTime checks if it's appropriate to message users (9:00-22:00).
func IsSafeNotificationTime(t time.Time) bool {
	hour := ToKyiv(t).Hour()
	return hour >= 9 && hour < 22
}

// NextSafeNotificationTime returns the next time when messages are appropriate.
func NextSafeNotificationTime(t time.Time) time.Time {
	kyiv := ToKyiv(t)
	hour := kyiv.Hour()

	if hour < 9 {
		return DateTime(kyiv.Year(), int(kyiv.Month()), kyiv.Day(), 9, 0, 0)
	}
	if hour >= 22 {
		tomorrow := kyiv.AddDate(0, 0, 1)
		return DateTime(tomorrow.Year(), int(tomorrow.Month()), tomorrow.Day(), 9, 0, 0)
	}
	return kyiv
}
