package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

func TestRegisterLearner_NewUser(t *testing.T) {
	ctx := context.Background()
	state := newMemLearnerState()
	h := NewRegisterLearnerHandler(state)

	res, err := h.Handle(ctx, RegisterLearnerCommand{TelegramID: 42, DisplayName: "Марія"})
	require.NoError(t, err)

	assert.True(t, res.IsNew)
	assert.Equal(t, shared.TelegramID(42), res.Learner.TelegramID)
	assert.Equal(t, "Марія", res.Learner.DisplayName)
	require.Len(t, res.Events, 1)
	assert.Equal(t, shared.EventLearnerRegistered, res.Events[0].EventType())

	stored, err := state.GetByTelegramID(ctx, shared.TelegramID(42))
	require.NoError(t, err)
	assert.Equal(t, shared.TelegramID(42), stored.TelegramID)
}

func TestRegisterLearner_RepeatRefreshesName(t *testing.T) {
	ctx := context.Background()
	state := newMemLearnerState()
	l, err := learner.NewLearner(learner.NewLearnerParams{TelegramID: 42, DisplayName: "Марія"})
	require.NoError(t, err)
	require.NoError(t, state.Upsert(ctx, l))

	h := NewRegisterLearnerHandler(state)
	res, err := h.Handle(ctx, RegisterLearnerCommand{TelegramID: 42, DisplayName: "Марічка"})
	require.NoError(t, err)

	assert.False(t, res.IsNew)
	assert.Empty(t, res.Events)
	assert.Equal(t, "Марічка", res.Learner.DisplayName)
}

func TestRegisterLearner_RejectsMissingID(t *testing.T) {
	h := NewRegisterLearnerHandler(newMemLearnerState())
	_, err := h.Handle(context.Background(), RegisterLearnerCommand{DisplayName: "Марія"})
	require.Error(t, err)
}
