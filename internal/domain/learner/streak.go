package learner

import (
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY STREAK
// Серія днів активності. Значення — функція тільки від розриву між
// "сьогодні" та датою останньої активності: той самий день — без змін,
// рівно один день — інкремент, більший розрив — скидання до 1.
// ══════════════════════════════════════════════════════════════════════════════

// DailyStreak — стан щоденного стріку користувача.
type DailyStreak struct {
	// Current — поточна довжина серії.
	Current int

	// LastActiveDate — дата останньої активності (без часу).
	LastActiveDate time.Time
}

// dailyMilestones — фіксована таблиця бонусів за довжину серії.
// Бонус виплачується тільки при точному збігу з НОВИМ значенням серії;
// пропущені пороги заднім числом не виплачуються.
var dailyMilestones = map[int]int{
	3:  5,
	7:  10,
	14: 20,
	30: 50,
}

// DailyMilestones повертає пороги щоденного стріку у зростаючому порядку.
func DailyMilestones() []int {
	out := make([]int, 0, len(dailyMilestones))
	for th := range dailyMilestones {
		out = append(out, th)
	}
	sort.Ints(out)
	return out
}

// DailyActivityResult — результат обробки активності за день.
type DailyActivityResult struct {
	// Streak — нове значення серії.
	Streak int

	// Changed — false, якщо активність того самого дня (no-op).
	Changed bool

	// WasReset — серія почалась заново.
	WasReset bool

	// Bonus — бонус за досягнутий поріг, 0 якщо порога немає.
	Bonus int
}

// RecordActivity обробляє активність за дату date та повертає результат.
// Повторний виклик того самого дня — ідемпотентний no-op.
func (s *DailyStreak) RecordActivity(date time.Time) DailyActivityResult {
	today := truncateToDay(date)

	if s.LastActiveDate.IsZero() {
		s.Current = 1
		s.LastActiveDate = today
		return DailyActivityResult{Streak: 1, Changed: true, WasReset: true, Bonus: dailyMilestones[1]}
	}

	last := truncateToDay(s.LastActiveDate)
	gap := int(today.Sub(last).Hours() / 24)

	switch gap {
	case 0:
		// Той самий день — нічого не змінюємо, бонус нульовий.
		return DailyActivityResult{Streak: s.Current, Changed: false}
	case 1:
		s.Current++
	default:
		s.Current = 1
	}

	s.LastActiveDate = today
	return DailyActivityResult{
		Streak:   s.Current,
		Changed:  true,
		WasReset: gap != 1,
		Bonus:    dailyMilestones[s.Current],
	}
}

// truncateToDay нормалізує момент часу до початку доби в UTC.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ══════════════════════════════════════════════════════════════════════════════
// TOPIC STREAK
// Серія правильних відповідей з першої спроби в межах теми.
// Повторні проходження (repeat lap) серію не торкаються в жодному напрямку.
// ══════════════════════════════════════════════════════════════════════════════

// TopicStreak — стан топікового стріку (user, topic).
type TopicStreak struct {
	Topic   string
	Current int
}

// topicMilestones — пороги топікового стріку та бонуси за них.
var topicMilestones = map[int]int{
	3:  2,
	5:  5,
	10: 10,
}

// MasteryThreshold — зарезервоване значення порога для одноразового
// бонусу за опанування теми (≥70% виконаних звичайних завдань).
// Не перетинається з порогами серії.
const MasteryThreshold = 70

// MasteryBonus — розмір бонусу за опанування теми.
const MasteryBonus = 15

// MasteryRatio — частка виконаних завдань теми, з якої тема
// вважається опанованою.
const MasteryRatio = 0.7

// TopicMilestones повертає пороги топікового стріку у зростаючому порядку.
func TopicMilestones() []int {
	out := make([]int, 0, len(topicMilestones))
	for th := range topicMilestones {
		out = append(out, th)
	}
	sort.Ints(out)
	return out
}

// TopicMilestoneBonus повертає бонус за поріг топікового стріку.
func TopicMilestoneBonus(threshold int) int {
	if threshold == MasteryThreshold {
		return MasteryBonus
	}
	return topicMilestones[threshold]
}

// MilestoneAward — одноразова виплата за поріг (user, topic, threshold).
type MilestoneAward struct {
	Topic     string
	Threshold int
	Bonus     int
}

// RecordCorrect інкрементує серію після правильної відповіді з першої
// спроби та повертає пороги, які стали досяжними (≤ нового значення).
// Фільтрацію вже виплачених порогів виконує викликаючий код через
// ProgressRepository.HasMilestoneAward.
func (s *TopicStreak) RecordCorrect() []MilestoneAward {
	s.Current++

	var due []MilestoneAward
	for _, th := range TopicMilestones() {
		if th <= s.Current {
			due = append(due, MilestoneAward{Topic: s.Topic, Threshold: th, Bonus: topicMilestones[th]})
		}
	}
	return due
}

// Reset скидає серію після неправильної відповіді з першої спроби
// або відповіді "не знаю".
func (s *TopicStreak) Reset() {
	s.Current = 0
}
