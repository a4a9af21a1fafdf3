package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Matviy-commands/math-nmt-bot/internal/application/command"
)

func TestFormatOutcome_ShowsExplanation(t *testing.T) {
	p := NewTaskCardPresenter()

	view := p.FormatOutcome(&command.SubmitAnswerResult{
		IsCorrect:   true,
		Delta:       1,
		Explanation: "Зводимо до спільного знаменника.",
	})
	assert.Contains(t, view.Text, "✅ Правильно!")
	assert.Contains(t, view.Text, "📖 Пояснення: Зводимо до спільного знаменника.")
}

func TestFormatOutcome_ExplanationFallback(t *testing.T) {
	p := NewTaskCardPresenter()

	// Розбір показується і для неправильної відповіді, з заглушкою
	// для контенту без пояснення.
	view := p.FormatOutcome(&command.SubmitAnswerResult{
		IsCorrect:     false,
		CorrectAnswer: []string{"4"},
	})
	assert.Contains(t, view.Text, "❌ Неправильно.")
	assert.Contains(t, view.Text, "Правильна відповідь: <b>4</b>")
	assert.Contains(t, view.Text, "📖 Пояснення: Пояснення відсутнє!")
}
