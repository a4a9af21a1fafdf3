package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

func scoringTask(t *testing.T, typ task.Type, level task.Level, daily bool, answers ...string) *task.Task {
	t.Helper()
	if len(answers) == 0 {
		answers = []string{"42"}
	}
	tk, err := task.NewTask(task.NewTaskParams{
		ID:      shared.TaskID("6ba7b811-9dad-11d1-80b4-00c04fd430c8"),
		Topic:   "Функції",
		Level:   level,
		Type:    typ,
		Prompt:  "Обчисліть.",
		Answers: answers,
		IsDaily: daily,
	})
	require.NoError(t, err)
	return tk
}

func TestStandardPolicy_Table(t *testing.T) {
	p := NewStandardPolicy()
	correct := EvaluationResult{IsCorrect: true}
	wrong := EvaluationResult{IsCorrect: false}

	assert.Equal(t, 1, p.ComputeDelta(scoringTask(t, task.TypeSingle, task.LevelEasy, false), correct))
	assert.Equal(t, 0, p.ComputeDelta(scoringTask(t, task.TypeSingle, task.LevelEasy, false), wrong))
	assert.Equal(t, 2, p.ComputeDelta(scoringTask(t, task.TypeOpen, task.LevelMedium, false), correct))
	assert.Equal(t, 10, p.ComputeDelta(scoringTask(t, task.TypeBoss, task.LevelHard, false), correct))
	assert.Equal(t, 0, p.ComputeDelta(scoringTask(t, task.TypeLight, task.LevelEasy, false), correct))
}

func TestStandardPolicy_MatchClamp(t *testing.T) {
	p := NewStandardPolicy()

	// Набір з 5 відповідей: дельта обрізається стелею 3
	big := scoringTask(t, task.TypeMatch, task.LevelMedium, false, "а", "б", "в", "г", "д")
	assert.Equal(t, 3, p.ComputeDelta(big, EvaluationResult{MatchCount: 5}))
	assert.Equal(t, 2, p.ComputeDelta(big, EvaluationResult{MatchCount: 2}))

	// Набір з 2 відповідей: стеля — розмір набору
	small := scoringTask(t, task.TypeMatch, task.LevelMedium, false, "а", "б")
	assert.Equal(t, 2, p.ComputeDelta(small, EvaluationResult{MatchCount: 7}))
	assert.Equal(t, 0, p.ComputeDelta(small, EvaluationResult{MatchCount: -1}))
}

func TestStandardPolicy_DailyAlwaysZero(t *testing.T) {
	p := NewStandardPolicy()
	daily := scoringTask(t, task.TypeBoss, task.LevelHard, true)

	assert.Equal(t, 0, p.ComputeDelta(daily, EvaluationResult{IsCorrect: true}))
}

func TestStandardPolicy_FallbackByLevel(t *testing.T) {
	p := NewStandardPolicy()
	correct := EvaluationResult{IsCorrect: true}

	// Тип відсутній — мапимо зі старого рівня
	assert.Equal(t, 1, p.ComputeDelta(scoringTask(t, "", task.LevelEasy, false), correct))
	assert.Equal(t, 2, p.ComputeDelta(scoringTask(t, "", task.LevelMedium, false), correct))
	assert.Equal(t, 10, p.ComputeDelta(scoringTask(t, "", task.LevelHard, false), correct))

	// Ні типу, ні рівня — дефолт single
	assert.Equal(t, 1, p.ComputeDelta(scoringTask(t, "", "", false), correct))
}

func TestStandardPolicy_Purity(t *testing.T) {
	p := NewStandardPolicy()
	tk := scoringTask(t, task.TypeOpen, task.LevelMedium, false)
	res := EvaluationResult{IsCorrect: true}

	first := p.ComputeDelta(tk, res)
	second := p.ComputeDelta(tk, res)
	assert.Equal(t, first, second)
}

func TestLegacyPolicy_FlatDelta(t *testing.T) {
	p := NewLegacyPolicy()
	correct := EvaluationResult{IsCorrect: true}

	assert.Equal(t, 10, p.ComputeDelta(scoringTask(t, task.TypeSingle, task.LevelEasy, false), correct))
	assert.Equal(t, 10, p.ComputeDelta(scoringTask(t, task.TypeLight, task.LevelEasy, false), correct))
	assert.Equal(t, 0, p.ComputeDelta(scoringTask(t, task.TypeSingle, task.LevelEasy, false), EvaluationResult{}))
	assert.Equal(t, 0, p.ComputeDelta(scoringTask(t, task.TypeBoss, task.LevelHard, true), correct))
}
