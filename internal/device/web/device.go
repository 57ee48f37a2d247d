// Package web implements the web-poll synthetic renderer (spec
// §4.E-Web): a browser page registers itself, then long-polls for a
// pending stream URL instead of receiving a pushed command like every
// other device kind.
package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smarttv-bridge/bridge/internal/device"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

// Device is one registered browser poller.
type Device struct {
	mu sync.Mutex

	remoteToken uint64
	clientIP    string

	pendingURL   string
	pendingTitle string
	lastSeen     time.Time
}

var _ device.Device = (*Device)(nil)

func (d *Device) Name() string {
	return fmt.Sprintf("web @(%s)", d.clientIP)
}

// Play stashes the URL for the next poll to pick up (spec §4.E-Web
// "if a pending URL exists, return it and clear it").
func (d *Device) Play(ctx context.Context, url, title string, token tokens.LocalToken) error {
	d.mu.Lock()
	d.pendingURL = url
	d.pendingTitle = title
	d.mu.Unlock()
	return nil
}

// Stop clears any pending URL so the next poll sees nothing to play.
func (d *Device) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.pendingURL = ""
	d.mu.Unlock()
	return nil
}

func (d *Device) OnClose(token tokens.LocalToken) {}

func (d *Device) Functions() []device.Function { return nil }

// poll refreshes lastSeen and returns (url, true) exactly once per URL set
// by Play, clearing it afterward (spec §4.E-Web poll semantics).
func (d *Device) poll(now time.Time) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastSeen = now
	if d.pendingURL == "" {
		return "", false
	}
	url := d.pendingURL
	d.pendingURL = ""
	return url, true
}

func (d *Device) staleSince(cutoff time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSeen.Before(cutoff)
}
