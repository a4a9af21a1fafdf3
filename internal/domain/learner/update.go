package learner

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATE UPDATE COMMANDS
// Закритий набір операцій зміни агрегату замість довільних пар
// "назва поля / значення": невалідне поле неможливе на рівні типів.
// ══════════════════════════════════════════════════════════════════════════════

// Update — команда зміни агрегату користувача. Запечатаний інтерфейс:
// реалізації визначені тільки в цьому пакеті.
type Update interface {
	isUpdate()
}

// AddScore — інкремент рахунку на Delta балів.
type AddScore struct {
	Delta int
}

// SetDailyStreak — встановлення щоденної серії та дати активності.
type SetDailyStreak struct {
	Streak         int
	LastActiveDate time.Time
}

// SetLastDaily — фіксація дати щоденного завдання.
type SetLastDaily struct {
	Date time.Time
}

// IncrementFeedback — інкремент лічильника відгуків.
type IncrementFeedback struct{}

// SetTopicsCompleted — оновлення лічильника закритих тем.
type SetTopicsCompleted struct {
	Count int
}

// SetAllTasksCompleted — оновлення ознаки повного проходження.
type SetAllTasksCompleted struct {
	Done bool
}

func (AddScore) isUpdate()             {}
func (SetDailyStreak) isUpdate()       {}
func (SetLastDaily) isUpdate()         {}
func (IncrementFeedback) isUpdate()    {}
func (SetTopicsCompleted) isUpdate()   {}
func (SetAllTasksCompleted) isUpdate() {}
