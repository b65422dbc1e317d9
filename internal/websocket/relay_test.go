package websocket

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullscreenRelay_HoldsRequestUntilAttach(t *testing.T) {
	r := NewFullscreenRelay()
	require.NoError(t, r.RequestFullscreen())

	sent := 0
	detach, err := r.Attach(func() error { sent++; return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "held request is delivered on attach")

	require.NoError(t, r.RequestFullscreen())
	assert.Equal(t, 2, sent)

	detach()
	detach()
	assert.Zero(t, r.Attached())
}

func TestFullscreenRelay_NoHeldRequest(t *testing.T) {
	r := NewFullscreenRelay()
	sent := 0
	_, err := r.Attach(func() error { sent++; return nil })
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestFullscreenRelay_FailsWhenEveryPageFails(t *testing.T) {
	r := NewFullscreenRelay()
	_, _ = r.Attach(func() error { return errors.New("broken pipe") })

	err := r.RequestFullscreen()
	assert.ErrorIs(t, err, ErrNoClient)

	_, _ = r.Attach(func() error { return nil })
	assert.NoError(t, r.RequestFullscreen())
}
