package presenter

import (
	"fmt"
	"strings"

	"github.com/Matviy-commands/math-nmt-bot/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD PRESENTER
// Форматує топ користувачів: медалі для перших трьох, підсвічування
// власного рядка і позиція користувача поза топом.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardPresenter форматує рейтинг для Telegram.
type LeaderboardPresenter struct{}

// NewLeaderboardPresenter створює новий презентер рейтингу.
func NewLeaderboardPresenter() *LeaderboardPresenter {
	return &LeaderboardPresenter{}
}

// FormatLeaderboard форматує рейтинг (кнопка "Рейтинг").
func (p *LeaderboardPresenter) FormatLeaderboard(result *query.GetLeaderboardResult) *CardView {
	var sb strings.Builder

	sb.WriteString("🏆 <b>Рейтинг</b>\n\n")

	if len(result.Rows) == 0 {
		sb.WriteString("Поки що порожньо. Стань першим — розв'яжи завдання!")
		return &CardView{Text: sb.String(), ParseMode: "HTML"}
	}

	for _, row := range result.Rows {
		sb.WriteString(p.formatRow(row))
		sb.WriteString("\n")
	}

	if result.CallerRank > 0 && !result.CallerInTop {
		sb.WriteString(fmt.Sprintf("\n…\nТи на <b>#%d</b> місці з %d", result.CallerRank, result.TotalCount))
	} else if result.TotalCount > len(result.Rows) {
		sb.WriteString(fmt.Sprintf("\n<i>Всього учасників: %d</i>", result.TotalCount))
	}

	return &CardView{
		Text:      strings.TrimRight(sb.String(), "\n"),
		ParseMode: "HTML",
	}
}

// formatRow форматує один рядок рейтингу.
func (p *LeaderboardPresenter) formatRow(row query.LeaderboardRowDTO) string {
	position := row.Medal
	if position == "" {
		position = fmt.Sprintf("%d.", row.Rank)
	}

	name := EscapeHTML(row.DisplayName)
	if row.IsCaller {
		name = "<b>" + name + "</b> 👈"
	}

	return fmt.Sprintf("%s %s — %d", position, name, row.Score)
}
