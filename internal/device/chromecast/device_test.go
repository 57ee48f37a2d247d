package chromecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smarttv-bridge/bridge/internal/config"
)

func TestPlaybackFunctionHandleInvokesAction(t *testing.T) {
	called := false
	f := &playbackFunction{name: "PAUSE", action: func(ctx context.Context) error {
		called = true
		return nil
	}}

	assert.Equal(t, "PAUSE", f.Name())
	assert.True(t, f.Enabled(&config.Config{ChromecastEnabled: true}))
	assert.False(t, f.Enabled(&config.Config{ChromecastEnabled: false}))

	require := assert.New(t)
	require.NoError(f.Handle(context.Background()))
	require.True(called)
}

