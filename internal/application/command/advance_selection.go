package command

import (
	"context"
	"errors"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/quiz"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADVANCE SELECTION COMMAND
// Validates the user's choice against the options of the current step and
// transitions: category → topic → level → task queue. An unknown choice
// never advances the step: the caller re-prompts with the same option set.
// ══════════════════════════════════════════════════════════════════════════════

// ChoiceBack is the reserved "back" choice accepted on topic and level steps;
// on the category step it switches to unfiltered topic browsing.
const ChoiceBack = "↩️ Назад"

// ChoiceAllTopics browses topics across every category.
const ChoiceAllTopics = "📚 Всі теми"

// AdvanceSelectionCommand contains the user's choice.
type AdvanceSelectionCommand struct {
	// TelegramID is the user advancing the flow.
	TelegramID int64

	// Choice is the raw button/message text.
	Choice string
}

// Validate validates the command.
func (c AdvanceSelectionCommand) Validate() error {
	if c.TelegramID <= 0 {
		return errors.New("advance_selection: telegram_id is required")
	}
	if c.Choice == "" {
		return errors.New("advance_selection: choice is required")
	}
	return nil
}

// AdvanceSelectionResult describes either the next option set or the
// started queue.
type AdvanceSelectionResult struct {
	// Step is the step after processing the choice.
	Step quiz.Step

	// Invalid is true when the choice was rejected: Options then repeats
	// the valid set for the unchanged step.
	Invalid bool

	// Options are the choices for the step (topics, level names, ...).
	Options []string

	// QueueStarted is true once the solving step has begun.
	QueueStarted bool

	// IsRepeatLap reports a queue rebuilt from the full item set.
	IsRepeatLap bool

	// QueueLength is the number of items queued.
	QueueLength int

	// Topic and Level identify the started queue.
	Topic string
	Level task.Level

	// SessionCleared is true when the session was discarded (no items).
	SessionCleared bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AdvanceSelectionHandler handles AdvanceSelectionCommand.
type AdvanceSelectionHandler struct {
	sessions quiz.SessionStore
	tasks    task.Repository
}

// NewAdvanceSelectionHandler creates a new AdvanceSelectionHandler.
func NewAdvanceSelectionHandler(sessions quiz.SessionStore, tasks task.Repository) *AdvanceSelectionHandler {
	return &AdvanceSelectionHandler{sessions: sessions, tasks: tasks}
}

// Handle processes the command. A rejected choice is reported through
// Result.Invalid with the same options, not through an error: only
// repository failures and a missing session surface as errors.
func (h *AdvanceSelectionHandler) Handle(ctx context.Context, cmd AdvanceSelectionCommand) (*AdvanceSelectionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	user := shared.TelegramID(cmd.TelegramID)

	s, err := h.sessions.Get(ctx, user)
	if err != nil {
		return nil, err
	}

	switch s.Step {
	case quiz.StepCategory:
		return h.advanceCategory(ctx, s, cmd.Choice)
	case quiz.StepTopic:
		return h.advanceTopic(ctx, s, cmd.Choice)
	case quiz.StepLevel:
		return h.advanceLevel(ctx, s, cmd.Choice)
	default:
		// Solving step has no selection choices.
		return nil, shared.ErrStaleSession
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Category step
// ─────────────────────────────────────────────────────────────────────────────

func (h *AdvanceSelectionHandler) advanceCategory(ctx context.Context, s *quiz.Session, choice string) (*AdvanceSelectionResult, error) {
	categories, err := h.tasks.ListCategories(ctx)
	if err != nil {
		return nil, wrapRepo("AdvanceSelection", err)
	}

	category := ""
	if choice != ChoiceAllTopics && choice != ChoiceBack {
		if !contains(categories, choice) {
			return &AdvanceSelectionResult{Step: quiz.StepCategory, Invalid: true, Options: categories}, nil
		}
		category = choice
	}

	topics, err := h.tasks.ListTopics(ctx, category)
	if err != nil {
		return nil, wrapRepo("AdvanceSelection", err)
	}

	if err := s.ChooseCategory(category); err != nil {
		return nil, err
	}
	if err := h.sessions.Save(ctx, s); err != nil {
		return nil, err
	}

	return &AdvanceSelectionResult{Step: quiz.StepTopic, Options: topics}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic step
// ─────────────────────────────────────────────────────────────────────────────

func (h *AdvanceSelectionHandler) advanceTopic(ctx context.Context, s *quiz.Session, choice string) (*AdvanceSelectionResult, error) {
	if choice == ChoiceBack {
		s.BackToCategory()
		if err := h.sessions.Save(ctx, s); err != nil {
			return nil, err
		}
		categories, err := h.tasks.ListCategories(ctx)
		if err != nil {
			return nil, wrapRepo("AdvanceSelection", err)
		}
		return &AdvanceSelectionResult{Step: quiz.StepCategory, Options: categories}, nil
	}

	topics, err := h.tasks.ListTopics(ctx, s.Category)
	if err != nil {
		return nil, wrapRepo("AdvanceSelection", err)
	}
	if !contains(topics, choice) {
		return &AdvanceSelectionResult{Step: quiz.StepTopic, Invalid: true, Options: topics}, nil
	}

	levels, err := h.tasks.ListLevels(ctx, choice)
	if err != nil {
		return nil, wrapRepo("AdvanceSelection", err)
	}
	if len(levels) == 0 {
		// Topic without items: re-prompt, the step does not advance.
		return &AdvanceSelectionResult{Step: quiz.StepTopic, Invalid: true, Options: topics}, nil
	}

	if err := s.ChooseTopic(choice); err != nil {
		return nil, err
	}
	if err := h.sessions.Save(ctx, s); err != nil {
		return nil, err
	}

	return &AdvanceSelectionResult{Step: quiz.StepLevel, Options: levelNames(levels)}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Level step — builds the task queue
// ─────────────────────────────────────────────────────────────────────────────

func (h *AdvanceSelectionHandler) advanceLevel(ctx context.Context, s *quiz.Session, choice string) (*AdvanceSelectionResult, error) {
	if choice == ChoiceBack {
		s.BackToTopic()
		if err := h.sessions.Save(ctx, s); err != nil {
			return nil, err
		}
		topics, err := h.tasks.ListTopics(ctx, s.Category)
		if err != nil {
			return nil, wrapRepo("AdvanceSelection", err)
		}
		return &AdvanceSelectionResult{Step: quiz.StepTopic, Options: topics}, nil
	}

	levels, err := h.tasks.ListLevels(ctx, s.Topic)
	if err != nil {
		return nil, wrapRepo("AdvanceSelection", err)
	}

	level := task.Level(choice)
	if !level.IsValid() {
		// Free text that is not a level name: a no-op re-prompt.
		return &AdvanceSelectionResult{Step: quiz.StepLevel, Invalid: true, Options: levelNames(levels)}, nil
	}

	opts := task.OnlyRegular().WithTopic(s.Topic).WithLevel(level)

	all, err := h.tasks.Find(ctx, opts)
	if err != nil {
		return nil, wrapRepo("AdvanceSelection", err)
	}
	if len(all) == 0 {
		// NoItemsAvailable: clear the session, surface as a terminal message.
		if err := h.sessions.Clear(ctx, s.User); err != nil {
			return nil, err
		}
		return &AdvanceSelectionResult{SessionCleared: true}, shared.ErrEmptyQueue
	}

	completed, err := h.tasks.CompletedIDs(ctx, s.User, opts)
	if err != nil {
		return nil, wrapRepo("AdvanceSelection", err)
	}

	// Fresh lap: only not-yet-completed items. Nothing left — run the
	// full set again as a repeat lap.
	queue := make([]shared.TaskID, 0, len(all))
	for _, t := range all {
		if _, done := completed[t.ID]; !done {
			queue = append(queue, t.ID)
		}
	}
	repeat := false
	if len(queue) == 0 {
		repeat = true
		for _, t := range all {
			queue = append(queue, t.ID)
		}
	}

	if err := s.StartQueue(level, queue, completed, repeat); err != nil {
		return nil, err
	}
	if err := h.sessions.Save(ctx, s); err != nil {
		return nil, err
	}

	return &AdvanceSelectionResult{
		Step:         quiz.StepSolving,
		QueueStarted: true,
		IsRepeatLap:  repeat,
		QueueLength:  len(queue),
		Topic:        s.Topic,
		Level:        level,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func levelNames(levels []task.Level) []string {
	names := make([]string, 0, len(levels))
	for _, l := range levels {
		names = append(names, l.String())
	}
	return names
}

func wrapRepo(op string, err error) error {
	return shared.WrapError("quiz", op, shared.ErrServiceUnavailable, "item repository call failed", err)
}
