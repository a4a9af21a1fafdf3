package command

import (
	"context"
	"errors"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LEARNER COMMAND
// Handles /start: upserts the learner record, so a repeated /start simply
// refreshes the display name.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerCommand registers (or refreshes) a learner.
type RegisterLearnerCommand struct {
	// TelegramID is the user identifier.
	TelegramID int64

	// DisplayName is the Telegram first name or username.
	DisplayName string
}

// Validate validates the command.
func (c RegisterLearnerCommand) Validate() error {
	if c.TelegramID <= 0 {
		return errors.New("register_learner: telegram_id is required")
	}
	return nil
}

// RegisterLearnerResult reports the upsert outcome.
type RegisterLearnerResult struct {
	// Learner is the current learner record.
	Learner *learner.Learner

	// IsNew is true when the record did not exist before.
	IsNew bool

	// Events are the domain events produced by the registration.
	Events []shared.Event
}

// RegisterLearnerHandler handles RegisterLearnerCommand.
type RegisterLearnerHandler struct {
	learners learner.Repository
}

// NewRegisterLearnerHandler creates a new RegisterLearnerHandler.
func NewRegisterLearnerHandler(learners learner.Repository) *RegisterLearnerHandler {
	return &RegisterLearnerHandler{learners: learners}
}

// Handle processes the command.
func (h *RegisterLearnerHandler) Handle(ctx context.Context, cmd RegisterLearnerCommand) (*RegisterLearnerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	user := shared.TelegramID(cmd.TelegramID)

	existing, err := h.learners.GetByTelegramID(ctx, user)
	switch {
	case err == nil:
		if cmd.DisplayName != "" && cmd.DisplayName != existing.DisplayName {
			existing.DisplayName = cmd.DisplayName
			if err := h.learners.Upsert(ctx, existing); err != nil {
				return nil, err
			}
		}
		return &RegisterLearnerResult{Learner: existing, IsNew: false}, nil
	case shared.IsNotFound(err):
		// fall through to the insert path
	default:
		return nil, err
	}

	l, err := learner.NewLearner(learner.NewLearnerParams{
		TelegramID:  cmd.TelegramID,
		DisplayName: cmd.DisplayName,
	})
	if err != nil {
		return nil, err
	}
	if err := h.learners.Upsert(ctx, l); err != nil {
		return nil, err
	}

	return &RegisterLearnerResult{
		Learner: l,
		IsNew:   true,
		Events: []shared.Event{
			shared.NewLearnerRegisteredEvent(user.Int64(), l.DisplayName),
		},
	}, nil
}
