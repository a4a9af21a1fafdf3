package presenter

import (
	"fmt"
	"strings"

	"github.com/Matviy-commands/math-nmt-bot/internal/application/command"
	"github.com/Matviy-commands/math-nmt-bot/internal/application/query"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK CARD PRESENTER
// Форматує умову поточного завдання та підсумок відповіді: вердикт,
// нараховані бали, бонуси за серії і щойно відкриті бейджі.
// ══════════════════════════════════════════════════════════════════════════════

// TaskCardPresenter форматує завдання і результати відповідей.
type TaskCardPresenter struct{}

// NewTaskCardPresenter створює новий презентер завдань.
func NewTaskCardPresenter() *TaskCardPresenter {
	return &TaskCardPresenter{}
}

// TaskView містить відформатовану умову завдання.
type TaskView struct {
	// Text — текст умови з HTML-розміткою.
	Text string

	// MediaRef — посилання на зображення умови, якщо є.
	MediaRef string

	// ParseMode — режим парсингу ("HTML").
	ParseMode string
}

// FormatTask форматує умову поточного завдання з заголовком позиції.
func (p *TaskCardPresenter) FormatTask(r *query.GetCurrentItemResult) *TaskView {
	var sb strings.Builder

	if r.IsDaily {
		sb.WriteString("🎯 <b>Щоденне завдання</b>\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("📝 Завдання <b>%d з %d</b>", r.Position, r.Total))
		if r.IsRepeatLap {
			sb.WriteString(" (повторення)")
		}
		if r.TopicStreak > 1 {
			sb.WriteString(fmt.Sprintf(" • 🔥 серія %d", r.TopicStreak))
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString(EscapeHTML(r.Task.Prompt))

	if r.Task.EffectiveType() == task.TypeMatch {
		sb.WriteString("\n\n<i>Введіть відповідності одним рядком, наприклад: 1А 2Б 3В</i>")
	}

	return &TaskView{
		Text:      sb.String(),
		MediaRef:  r.Task.MediaRef,
		ParseMode: "HTML",
	}
}

// FormatOutcome форматує підсумок однієї відповіді.
func (p *TaskCardPresenter) FormatOutcome(r *command.SubmitAnswerResult) *CardView {
	var sb strings.Builder

	sb.WriteString(p.formatVerdict(r))

	// Розбір показується після кожної відповіді, як правильної, так і ні.
	explanation := r.Explanation
	if explanation == "" {
		explanation = "Пояснення відсутнє!"
	}
	sb.WriteString(fmt.Sprintf("\n📖 Пояснення: %s", EscapeHTML(explanation)))

	for _, bonus := range r.StreakBonuses {
		sb.WriteString("\n")
		sb.WriteString(p.formatBonus(bonus))
	}

	for _, b := range r.NewBadges {
		sb.WriteString(fmt.Sprintf("\n🏅 Новий бейдж: %s <b>%s</b> (+%d)", b.Emoji, EscapeHTML(b.Title), b.Reward))
	}

	if r.SessionEnded {
		sb.WriteString("\n\n")
		sb.WriteString(p.formatCompletion(r))
	}

	return &CardView{Text: sb.String(), ParseMode: "HTML"}
}

// ─────────────────────────────────────────────────────────────────────────────
// Секції підсумку
// ─────────────────────────────────────────────────────────────────────────────

func (p *TaskCardPresenter) formatVerdict(r *command.SubmitAnswerResult) string {
	if r.IsCorrect {
		if r.Delta > 0 {
			return fmt.Sprintf("✅ Правильно! <b>+%d</b>", r.Delta)
		}
		return "✅ Правильно!"
	}

	verdict := "❌ Неправильно."
	if r.MatchCount > 0 {
		verdict = fmt.Sprintf("🔶 Частково: %d збіги.", r.MatchCount)
		if r.Delta > 0 {
			verdict += fmt.Sprintf(" <b>+%d</b>", r.Delta)
		}
	}
	if len(r.CorrectAnswer) > 0 {
		verdict += fmt.Sprintf("\nПравильна відповідь: <b>%s</b>", EscapeHTML(strings.Join(r.CorrectAnswer, ", ")))
	}
	return verdict
}

func (p *TaskCardPresenter) formatBonus(bonus command.StreakBonus) string {
	switch bonus.Kind {
	case "daily":
		return fmt.Sprintf("🔥 Серія %d %s — бонус <b>+%d</b>!", bonus.Threshold, DayWord(bonus.Threshold), bonus.Amount)
	case "topic":
		return fmt.Sprintf("⚡ %d правильних поспіль у темі — бонус <b>+%d</b>!", bonus.Threshold, bonus.Amount)
	case "mastery":
		return fmt.Sprintf("🎓 Тему «%s» опановано — бонус <b>+%d</b>!", EscapeHTML(bonus.Topic), bonus.Amount)
	default:
		return fmt.Sprintf("✨ Бонус <b>+%d</b>", bonus.Amount)
	}
}

func (p *TaskCardPresenter) formatCompletion(r *command.SubmitAnswerResult) string {
	var sb strings.Builder

	if r.Topic == "" {
		sb.WriteString("Щоденне завдання виконано. До завтра! 👋")
		return sb.String()
	}

	if r.IsRepeatLap {
		sb.WriteString(fmt.Sprintf("🏁 Повторення теми «%s» завершено.", EscapeHTML(r.Topic)))
	} else {
		sb.WriteString(fmt.Sprintf("🎉 Тему «%s» пройдено!", EscapeHTML(r.Topic)))
	}

	if len(r.NextLevels) > 0 {
		sb.WriteString(fmt.Sprintf("\nСпробуйте інший рівень: <b>%s</b>", strings.Join(LevelNames(r.NextLevels), ", ")))
	}

	return sb.String()
}

// LevelNames перетворює рівні на підписи кнопок.
func LevelNames(levels []task.Level) []string {
	names := make([]string, 0, len(levels))
	for _, l := range levels {
		names = append(names, l.String())
	}
	return names
}
