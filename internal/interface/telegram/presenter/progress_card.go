// Package presenter formats data for Telegram display.
package presenter

import (
	"fmt"
	"strings"

	"github.com/Matviy-commands/math-nmt-bot/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS CARD PRESENTER
// Форматує картку прогресу для Telegram: бали, звання, місце в рейтингу,
// щоденна серія, прогрес за темами та бейджі.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressCardPresenter форматує дані картки прогресу.
type ProgressCardPresenter struct{}

// NewProgressCardPresenter створює новий презентер картки прогресу.
func NewProgressCardPresenter() *ProgressCardPresenter {
	return &ProgressCardPresenter{}
}

// CardView містить відформатоване повідомлення.
type CardView struct {
	// Text — текст повідомлення з HTML-розміткою.
	Text string

	// ParseMode — режим парсингу ("HTML").
	ParseMode string
}

// FormatProgressCard форматує повну картку прогресу (кнопка "Мій прогрес").
func (p *ProgressCardPresenter) FormatProgressCard(result *query.GetProgressResult) *CardView {
	var sb strings.Builder

	sb.WriteString(p.formatHeader(result))
	sb.WriteString("\n\n")

	sb.WriteString(p.formatScoreSection(result))
	sb.WriteString("\n\n")

	sb.WriteString(p.formatTopicsSection(result.Topics))

	if len(result.Badges) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(p.formatBadgesSection(result.Badges))
	}

	return &CardView{
		Text:      sb.String(),
		ParseMode: "HTML",
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Секції
// ─────────────────────────────────────────────────────────────────────────────

func (p *ProgressCardPresenter) formatHeader(r *query.GetProgressResult) string {
	return fmt.Sprintf("👤 <b>%s</b> — %s", EscapeHTML(r.DisplayName), EscapeHTML(r.Title))
}

func (p *ProgressCardPresenter) formatScoreSection(r *query.GetProgressResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("⭐ Бали: <b>%d</b>\n", r.Score))
	if r.Rank > 0 {
		sb.WriteString(fmt.Sprintf("🏆 Місце в рейтингу: <b>#%d</b>\n", r.Rank))
	}
	if r.DailyStreak > 0 {
		sb.WriteString(fmt.Sprintf("🔥 Щоденна серія: <b>%d</b> %s\n", r.DailyStreak, DayWord(r.DailyStreak)))
	}
	sb.WriteString(fmt.Sprintf("✅ Завдань виконано: <b>%d з %d</b>", r.TasksCompleted, r.TasksTotal))

	return sb.String()
}

func (p *ProgressCardPresenter) formatTopicsSection(topics []query.TopicProgressDTO) string {
	if len(topics) == 0 {
		return "📚 Ще жодної теми не розпочато. Натисніть «" + BtnPractice + "»!"
	}

	var sb strings.Builder
	sb.WriteString("📚 <b>Теми</b>\n")

	for _, t := range topics {
		mark := ""
		if t.Mastered {
			mark = " 🎓"
		}
		sb.WriteString(fmt.Sprintf(
			"%s %s — %d/%d%s\n",
			progressBar(t.Ratio), EscapeHTML(t.Topic), t.Completed, t.Total, mark,
		))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (p *ProgressCardPresenter) formatBadgesSection(badges []query.BadgeDTO) string {
	var sb strings.Builder
	sb.WriteString("🏅 <b>Бейджі</b>\n")

	for _, b := range badges {
		sb.WriteString(fmt.Sprintf("%s %s\n", b.Emoji, EscapeHTML(b.Title)))
	}

	return strings.TrimRight(sb.String(), "\n")
}

// ─────────────────────────────────────────────────────────────────────────────
// Хелпери
// ─────────────────────────────────────────────────────────────────────────────

// progressBar малює п'ятисегментну шкалу заповнення.
func progressBar(ratio float64) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*5 + 0.5)
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 5-filled)
}

// DayWord підбирає форму слова "день" до числа.
func DayWord(n int) string {
	n = n % 100
	if n >= 11 && n <= 14 {
		return "днів"
	}
	switch n % 10 {
	case 1:
		return "день"
	case 2, 3, 4:
		return "дні"
	default:
		return "днів"
	}
}

// EscapeHTML екранує спецсимволи HTML у користувацькому тексті.
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
