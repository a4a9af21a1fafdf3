// Package quiz містить ядро движка: перевірку відповідей, політику
// нарахування балів та машину станів сесії вибору й розв'язування.
package quiz

import (
	"strings"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANSWER EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// EvaluationResult — результат перевірки відповіді.
type EvaluationResult struct {
	// IsCorrect — відповідь зарахована.
	IsCorrect bool

	// MatchCount — розмір перетину токенів відповіді з прийнятним набором.
	// Має сенс тільки для завдань типу match; для решти типів — 0.
	MatchCount int
}

// Evaluate перевіряє сиру відповідь користувача проти завдання.
//
// Токени розбиваються комою або крапкою з комою, обрізаються, порожні
// відкидаються, порівняння — як множин (порядок байдужий, дублікати
// не зараховуються двічі). Для match зараховується частковий збіг;
// для всіх інших типів — тільки точний збіг множин, без часткових балів.
func Evaluate(t *task.Task, rawResponse string) EvaluationResult {
	response := tokenSet(Tokenize(rawResponse))
	accepted := tokenSet(t.Answers)

	intersection := 0
	for tok := range response {
		if _, ok := accepted[tok]; ok {
			intersection++
		}
	}

	if t.EffectiveType() == task.TypeMatch {
		return EvaluationResult{
			IsCorrect:  intersection == len(accepted) && len(response) == len(accepted),
			MatchCount: intersection,
		}
	}

	exact := len(response) == len(accepted) && intersection == len(accepted)
	return EvaluationResult{IsCorrect: exact, MatchCount: 0}
}

// Tokenize розбиває сиру відповідь на нормалізовані токени.
func Tokenize(raw string) []string {
	normalized := normalize(raw)

	parts := strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ',' || r == ';'
	})

	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// normalize зводить типографські варіанти знаків до канонічних:
// юнікодні мінуси та дефіси — до ASCII "-", десяткова кома лишається
// комою-роздільником токенів (дробові відповіді задаються крапкою).
func normalize(s string) string {
	replacer := strings.NewReplacer(
		"−", "-", // MINUS SIGN
		"–", "-", // EN DASH
		"—", "-", // EM DASH
	)
	return replacer.Replace(s)
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(normalize(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}
