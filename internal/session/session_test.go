package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/smarttv-bridge/bridge/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	closing atomic.Bool
}

func (f *fakeTransport) Closing() bool { return f.closing.Load() }

type fakeListener struct {
	calls int32
	token tokens.LocalToken
}

func (l *fakeListener) OnStreamClosed(remainingPercent float64, chatID int64, messageID uint64, token tokens.LocalToken) {
	atomic.AddInt32(&l.calls, 1)
	l.token = token
}

func TestSessionRemainingPercent(t *testing.T) {
	s := &Session{Size: 999, BlockSize: 100, downloadedBlocks: make(map[int64]struct{})}
	assert.Equal(t, int64(10), s.TotalBlocks())
	assert.InDelta(t, 100.0, s.RemainingPercent(), 0.001)

	s.MarkDownloaded(0)
	s.MarkDownloaded(100)
	assert.Equal(t, 2, s.DownloadedCount())
	assert.InDelta(t, 80.0, s.RemainingPercent(), 0.001)
}

func TestSessionAllTransportsClosing(t *testing.T) {
	s := &Session{transports: make(map[Transport]struct{})}
	assert.True(t, s.AllTransportsClosing(), "no transports registered counts as closing")

	open := &fakeTransport{}
	s.AddTransport(open)
	assert.False(t, s.AllTransportsClosing())

	open.closing.Store(true)
	assert.True(t, s.AllTransportsClosing())

	s.RemoveTransport(open)
	assert.True(t, s.AllTransportsClosing())
}

func TestRegistryAddGetRemove(t *testing.T) {
	listener := &fakeListener{}
	r := NewRegistry(50*time.Millisecond, listener)
	token := tokens.PackLocalToken(42, 7)

	s := r.AddRemoteToken(token, 1001, 999, 100)
	require.NotNil(t, s)

	got, ok := r.Get(token)
	require.True(t, ok)
	assert.Same(t, s, got)

	r.Remove(token)
	_, ok = r.Get(token)
	assert.False(t, ok)
	assert.EqualValues(t, 1, listener.calls)
	assert.Equal(t, token, listener.token)
}

func TestRegistryIdleCheckRemovesWhenAllTransportsClosing(t *testing.T) {
	listener := &fakeListener{}
	r := NewRegistry(20*time.Millisecond, listener)
	token := tokens.PackLocalToken(1, 2)
	r.AddRemoteToken(token, 55, 100, 10)

	require.Eventually(t, func() bool {
		_, ok := r.Get(token)
		return !ok
	}, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 1, listener.calls)
}

func TestRegistryIdleCheckReschedulesWhileTransportOpen(t *testing.T) {
	r := NewRegistry(15*time.Millisecond, nil)
	token := tokens.PackLocalToken(3, 4)
	s := r.AddRemoteToken(token, 1, 100, 10)

	open := &fakeTransport{}
	s.AddTransport(open)

	time.Sleep(80 * time.Millisecond)
	_, ok := r.Get(token)
	assert.True(t, ok, "session must survive while a transport is still open")

	open.closing.Store(true)
	require.Eventually(t, func() bool {
		_, ok := r.Get(token)
		return !ok
	}, time.Second, 5*time.Millisecond)
}
