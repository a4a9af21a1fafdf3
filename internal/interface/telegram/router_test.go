package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/handler"
)

func TestRespond_PropagatesHandlerError(t *testing.T) {
	r := NewRouter(RouterConfig{}, RouterHandlers{})
	sentinel := errors.New("handler failed")

	// The error path returns before any send, so no client is needed.
	err := r.respond(context.Background(), nil, 1, nil, sentinel)
	require.ErrorIs(t, err, sentinel)
}

func TestRespond_NilResponseIsNoop(t *testing.T) {
	r := NewRouter(RouterConfig{}, RouterHandlers{})
	assert.NoError(t, r.respond(context.Background(), nil, 1, nil, nil))
}

func TestRespond_EmptyResponseSendsNothing(t *testing.T) {
	r := NewRouter(RouterConfig{}, RouterHandlers{})
	assert.NoError(t, r.respond(context.Background(), nil, 1, &handler.Response{}, nil))
}
