package learner

// ══════════════════════════════════════════════════════════════════════════════
// BADGES
// Фіксований упорядкований список бейджів. Кожен бейдж — це предикат над
// агрегатами користувача та одноразова винагорода. Повторна видача вже
// отриманого бейджа — no-op без виплати.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeName — ідентифікатор бейджа.
type BadgeName string

const (
	BadgeFirstSteps   BadgeName = "first_steps"   // 10 виконаних завдань
	BadgeGettingHot   BadgeName = "getting_hot"   // 50 виконаних завдань
	BadgeCenturion    BadgeName = "centurion"     // 100 виконаних завдань
	BadgeWeekOfFire   BadgeName = "week_of_fire"  // щоденний стрік 7
	BadgeIronWill     BadgeName = "iron_will"     // щоденний стрік 30
	BadgeCritic       BadgeName = "critic"        // перший відгук
	BadgeHalfWay      BadgeName = "half_way"      // ≥50% усіх завдань
	BadgeConqueror    BadgeName = "conqueror"     // всі завдання виконано
	BadgeHundredClub  BadgeName = "hundred_club"  // 100 балів рахунку
)

// String повертає рядкове представлення.
func (b BadgeName) String() string {
	return string(b)
}

// Aggregates — зріз стану користувача, над яким обчислюються предикати.
// Заповнюється викликаючим кодом з агрегату та сховища завдань.
type Aggregates struct {
	// Score — накопичені бали.
	Score int

	// TasksCompleted — кількість записів про виконання (звичайні завдання).
	TasksCompleted int

	// CompletionRatio — частка виконаних звичайних завдань від усіх (0..1).
	CompletionRatio float64

	// FeedbackCount — кількість залишених відгуків.
	FeedbackCount int

	// AllTasksCompleted — всі звичайні завдання виконано.
	AllTasksCompleted bool

	// DailyStreak — поточна довжина щоденної серії.
	DailyStreak int
}

// Badge — визначення бейджа: предикат і винагорода.
type Badge struct {
	Name      BadgeName
	Title     string
	Emoji     string
	Reward    int
	Predicate func(Aggregates) bool
}

// Definitions повертає повний упорядкований список бейджів.
// Порядок фіксований: предикати перевіряються саме в ньому.
func Definitions() []Badge {
	return []Badge{
		{BadgeFirstSteps, "Перші кроки", "👣", 3, func(a Aggregates) bool { return a.TasksCompleted >= 10 }},
		{BadgeGettingHot, "Розігрівся", "♨️", 10, func(a Aggregates) bool { return a.TasksCompleted >= 50 }},
		{BadgeCenturion, "Центуріон", "🏛", 25, func(a Aggregates) bool { return a.TasksCompleted >= 100 }},
		{BadgeWeekOfFire, "Тиждень вогню", "🔥", 10, func(a Aggregates) bool { return a.DailyStreak >= 7 }},
		{BadgeIronWill, "Залізна воля", "💪", 50, func(a Aggregates) bool { return a.DailyStreak >= 30 }},
		{BadgeCritic, "Критик", "✍️", 2, func(a Aggregates) bool { return a.FeedbackCount >= 1 }},
		{BadgeHalfWay, "Пів шляху", "⛰", 15, func(a Aggregates) bool { return a.CompletionRatio >= 0.5 }},
		{BadgeConqueror, "Підкорювач програми", "👑", 100, func(a Aggregates) bool { return a.AllTasksCompleted }},
		{BadgeHundredClub, "Клуб сотні", "💯", 20, func(a Aggregates) bool { return a.Score >= 100 }},
	}
}

// Definition повертає визначення бейджа за ім'ям.
func Definition(name BadgeName) (Badge, bool) {
	for _, b := range Definitions() {
		if b.Name == name {
			return b, true
		}
	}
	return Badge{}, false
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// Evaluator звіряє предикати бейджів з агрегатами користувача.
// Викликається після кожної події нарахування балів, щоб бейджі
// відкривались одразу, а не за розкладом.
type Evaluator struct {
	badges []Badge
}

// NewEvaluator створює evaluator зі стандартним списком бейджів.
func NewEvaluator() *Evaluator {
	return &Evaluator{badges: Definitions()}
}

// Reconcile повертає бейджі, які користувач щойно заслужив і ще не тримає.
// Сам факт видачі (запис + виплата) виконує викликаючий код; повторний
// виклик без зміни стану повертає порожній список.
func (e *Evaluator) Reconcile(agg Aggregates, held map[BadgeName]struct{}) []Badge {
	var granted []Badge
	for _, b := range e.badges {
		if _, ok := held[b.Name]; ok {
			continue
		}
		if b.Predicate(agg) {
			granted = append(granted, b)
		}
	}
	return granted
}
