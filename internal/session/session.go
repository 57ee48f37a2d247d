// Package session implements spec §3's stream-session state machine: the
// active local_token set, per-token downloaded-block tracking, bound
// transports, idle debounce, and the owning device/function registry.
package session

import (
	"sync"
	"time"

	"github.com/smarttv-bridge/bridge/internal/device"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

// Transport is a single bound HTTP connection serving part of a stream.
// Registered so the idle-close check (spec §4.G) can tell "all clients
// gone" from "one disconnected, another still receiving".
type Transport interface {
	// Closing reports whether the underlying connection is gone or going
	// away; the idle handler requires every registered transport to
	// report true before declaring the session closed.
	Closing() bool
}

// StreamClosedListener is notified once per stream when every transport
// has been idle for request_gone_timeout (spec §4.G, §4.I — the bot shim's
// OnStreamClosed).
type StreamClosedListener interface {
	OnStreamClosed(remainingPercent float64, chatID int64, messageID uint64, token tokens.LocalToken)
}

// Session is the per-local_token state spec §3 "Stream session state"
// describes.
type Session struct {
	mu sync.Mutex

	Token     tokens.LocalToken
	MessageID uint64
	ChatID    int64
	Size      int64
	BlockSize int64

	downloadedBlocks map[int64]struct{}
	transports       map[Transport]struct{}

	Device    device.Device
	Functions []device.Function

	debounce *Debounce
}

// MarkDownloaded records offset as successfully written to at least one
// client. downloaded_blocks only ever grows while a session is active
// (spec §8 invariant).
func (s *Session) MarkDownloaded(offset int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloadedBlocks[offset] = struct{}{}
}

// DownloadedCount returns |downloaded_blocks|.
func (s *Session) DownloadedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.downloadedBlocks)
}

// AddTransport registers a bound HTTP connection under this session.
func (s *Session) AddTransport(t Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transports[t] = struct{}{}
}

// RemoveTransport unregisters a connection, e.g. on handler return.
func (s *Session) RemoveTransport(t Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transports, t)
}

// AllTransportsClosing reports whether every registered transport is
// closing — the condition spec §4.G's idle handler checks before
// declaring a session "gone". A session with no transports at all (the
// debounce fired before the first block write registered one) counts as
// closing too.
func (s *Session) AllTransportsClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t := range s.transports {
		if !t.Closing() {
			return false
		}
	}
	return true
}

// TotalBlocks returns size/block_size + 1 (spec §3/§8).
func (s *Session) TotalBlocks() int64 {
	return s.Size/s.BlockSize + 1
}

// RemainingPercent computes spec §8's remaining_percent law.
func (s *Session) RemainingPercent() float64 {
	total := s.TotalBlocks()
	if total == 0 {
		return 0
	}
	remaining := total - int64(s.DownloadedCount())
	return float64(remaining) / float64(total) * 100
}

// RearmDebounce re-arms the session's idle timer (spec §4.G: "After every
// block write, the debounce is re-armed with request_gone_timeout").
func (s *Session) RearmDebounce() {
	s.mu.Lock()
	d := s.debounce
	s.mu.Unlock()
	if d != nil {
		d.Reschedule()
	}
}

// Registry is the process-wide active-token set (spec §3 "a local_token is
// in the active set iff it was added by the bot and has not yet been
// cleaned up by the idle-timeout handler"). A single mutex-guarded map
// stands in for the asyncio event loop's implicit single-thread
// confinement (spec §5).
type Registry struct {
	mu                 sync.Mutex
	sessions           map[tokens.LocalToken]*Session
	listener           StreamClosedListener
	requestGoneTimeout time.Duration
}

// NewRegistry builds an empty Registry. listener may be nil if no
// OnStreamClosed consumer is wired yet.
func NewRegistry(requestGoneTimeout time.Duration, listener StreamClosedListener) *Registry {
	return &Registry{
		sessions:           make(map[tokens.LocalToken]*Session),
		listener:           listener,
		requestGoneTimeout: requestGoneTimeout,
	}
}

// AddRemoteToken creates and activates a new Session for token (spec
// §4.G's add_remote_token), arming its idle debounce.
func (r *Registry) AddRemoteToken(token tokens.LocalToken, chatID int64, size, blockSize int64) *Session {
	s := &Session{
		Token:            token,
		MessageID:        token.MessageID,
		ChatID:           chatID,
		Size:             size,
		BlockSize:        blockSize,
		downloadedBlocks: make(map[int64]struct{}),
		transports:       make(map[Transport]struct{}),
	}
	s.debounce = NewDebounce(r.requestGoneTimeout, func(any) { r.checkIdle(token) })

	r.mu.Lock()
	r.sessions[token] = s
	r.mu.Unlock()

	s.debounce.UpdateArgs(nil)
	return s
}

// checkIdle is the debounce fire handler spec §4.G describes: if every
// transport is closing, the session is gone and is removed; otherwise a
// long read is still alive and the debounce reschedules itself.
func (r *Registry) checkIdle(token tokens.LocalToken) {
	s, ok := r.Get(token)
	if !ok {
		return
	}
	if s.AllTransportsClosing() {
		r.Remove(token)
		return
	}
	s.debounce.Reschedule()
}

// Get returns the Session for token, or nil/false if token is not in the
// active set.
func (r *Registry) Get(token tokens.LocalToken) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	return s, ok
}

// Remove evicts token from the active set and, if a listener is wired,
// invokes OnStreamClosed with the session's final remaining percentage
// (spec §4.G "Idle & close accounting").
func (r *Registry) Remove(token tokens.LocalToken) {
	r.mu.Lock()
	s, ok := r.sessions[token]
	if ok {
		delete(r.sessions, token)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	s.debounce.Cancel()
	if s.Device != nil {
		s.Device.OnClose(token)
	}
	if r.listener != nil {
		r.listener.OnStreamClosed(s.RemainingPercent(), s.ChatID, s.MessageID, token)
	}
}
