package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

func makeTask(t *testing.T, typ task.Type, answers []string) *task.Task {
	t.Helper()
	tk, err := task.NewTask(task.NewTaskParams{
		ID:      shared.TaskID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Topic:   "Квадратні рівняння",
		Level:   task.LevelEasy,
		Type:    typ,
		Prompt:  "x² = 4. Знайдіть усі корені.",
		Answers: answers,
	})
	require.NoError(t, err)
	return tk
}

func TestEvaluate_SingleExactSet(t *testing.T) {
	tk := makeTask(t, task.TypeSingle, []string{"2", "-2"})

	res := Evaluate(tk, "-2, 2")
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 0, res.MatchCount)
}

func TestEvaluate_UnicodeMinusNormalized(t *testing.T) {
	tk := makeTask(t, task.TypeSingle, []string{"2", "-2"})

	// U+2212 MINUS SIGN замість ASCII-дефіса
	res := Evaluate(tk, "−2, 2")
	assert.True(t, res.IsCorrect)
}

func TestEvaluate_SingleNoPartialCredit(t *testing.T) {
	tk := makeTask(t, task.TypeSingle, []string{"2", "-2"})

	res := Evaluate(tk, "2")
	assert.False(t, res.IsCorrect)
	assert.Equal(t, 0, res.MatchCount, "matchCount не має сенсу для single")
}

func TestEvaluate_MatchFullSet(t *testing.T) {
	tk := makeTask(t, task.TypeMatch, []string{"а", "б", "в"})

	res := Evaluate(tk, "в; а; б")
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 3, res.MatchCount)
}

func TestEvaluate_MatchPartial(t *testing.T) {
	tk := makeTask(t, task.TypeMatch, []string{"а", "б", "в"})

	res := Evaluate(tk, "а, б")
	assert.False(t, res.IsCorrect)
	assert.Equal(t, 2, res.MatchCount)
}

func TestEvaluate_MatchExtraTokenNotCorrect(t *testing.T) {
	tk := makeTask(t, task.TypeMatch, []string{"а", "б", "в"})

	// Усі три правильні токени присутні, але є зайвий
	res := Evaluate(tk, "а, б, в, г")
	assert.False(t, res.IsCorrect)
	assert.Equal(t, 3, res.MatchCount)
}

func TestEvaluate_DuplicatesNotCreditedTwice(t *testing.T) {
	tk := makeTask(t, task.TypeMatch, []string{"а", "б"})

	res := Evaluate(tk, "а, а")
	assert.False(t, res.IsCorrect)
	assert.Equal(t, 1, res.MatchCount)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"-2", "2"}, Tokenize(" −2 ;, 2 "))
	assert.Empty(t, Tokenize("  ,, ;; "))
	assert.Equal(t, []string{"x=1"}, Tokenize("x=1"))
}
