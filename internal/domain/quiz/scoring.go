package quiz

import (
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORING POLICY
// Дві версії політики нарахування за стратегією: актуальна (v2) та
// легасі. Обираються один раз на старті за фічефлагом і інжектяться;
// код, що викликає, від версії не залежить.
// ══════════════════════════════════════════════════════════════════════════════

// ScoringPolicy обчислює дельту балів за відповідь.
// Дельта завжди невід'ємна; виклик — чиста функція від аргументів.
type ScoringPolicy interface {
	// ComputeDelta повертає дельту балів за завдання t з результатом
	// перевірки res.
	ComputeDelta(t *task.Task, res EvaluationResult) int

	// Name повертає назву політики для логів.
	Name() string
}

// ─────────────────────────────────────────────────────────────────────────────
// Standard policy (v2)
// ─────────────────────────────────────────────────────────────────────────────

// matchCap — стеля балів за match незалежно від розміру набору відповідей.
const matchCap = 3

// StandardPolicy — актуальна таблиця балів:
// single 1, match 0..min(k,3), open 2, boss 10, light 0; щоденні — завжди 0
// (щоденні винагороджуються тільки бонусами стріку). Записи без валідного
// типу мапляться за рівнем: легкий→single, середній→open, важкий→boss.
type StandardPolicy struct{}

// NewStandardPolicy створює актуальну політику.
func NewStandardPolicy() *StandardPolicy {
	return &StandardPolicy{}
}

// Name implements ScoringPolicy.
func (p *StandardPolicy) Name() string { return "v2" }

// ComputeDelta implements ScoringPolicy.
func (p *StandardPolicy) ComputeDelta(t *task.Task, res EvaluationResult) int {
	if t.IsDaily {
		return 0
	}

	switch t.EffectiveType() {
	case task.TypeSingle:
		if res.IsCorrect {
			return 1
		}
		return 0
	case task.TypeMatch:
		limit := matchCap
		if k := len(t.Answers); k < limit {
			limit = k
		}
		mc := res.MatchCount
		if mc < 0 {
			mc = 0
		}
		if mc > limit {
			mc = limit
		}
		return mc
	case task.TypeOpen:
		if res.IsCorrect {
			return 2
		}
		return 0
	case task.TypeBoss:
		if res.IsCorrect {
			return 10
		}
		return 0
	case task.TypeLight:
		return 0
	}
	return 0
}

// ─────────────────────────────────────────────────────────────────────────────
// Legacy policy
// ─────────────────────────────────────────────────────────────────────────────

// legacyDelta — плоска дельта за будь-яку правильну відповідь у легасі.
const legacyDelta = 10

// LegacyPolicy — стара логіка: фіксовані бали за правильну відповідь
// незалежно від типу завдання. Щоденні так само не оплачуються.
type LegacyPolicy struct{}

// NewLegacyPolicy створює легасі-політику.
func NewLegacyPolicy() *LegacyPolicy {
	return &LegacyPolicy{}
}

// Name implements ScoringPolicy.
func (p *LegacyPolicy) Name() string { return "legacy" }

// ComputeDelta implements ScoringPolicy.
func (p *LegacyPolicy) ComputeDelta(t *task.Task, res EvaluationResult) int {
	if t.IsDaily {
		return 0
	}
	if res.IsCorrect {
		return legacyDelta
	}
	return 0
}
