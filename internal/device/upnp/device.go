// Package upnp implements the DLNA/UPnP renderer device (spec §4.E-UPnP):
// SOAP playback control via goupnp's generated AVTransport1 client, GENA
// NOTIFY eventing, and a resubscribe loop that repairs misbehaving
// renderers.
package upnp

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/huin/goupnp/dcps/av1"
	"go.uber.org/zap"

	"github.com/smarttv-bridge/bridge/internal/device"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

const (
	avTransportInstanceID = 0
	resubscribeInterval   = 10 * time.Second
)

// Device is one discovered DLNA/UPnP media renderer.
type Device struct {
	name         string
	client       *av1.AVTransport1
	eventSub     *url.URL
	callbackBase string
	log          *zap.SugaredLogger
	notify       *notifyHandler

	mu        sync.Mutex
	cancelSub context.CancelFunc
	callback  string
}

var _ device.Device = (*Device)(nil)

func (d *Device) Name() string { return d.name }

// Play emits SetAVTransportURI with DIDL-Lite metadata, registers the
// device's status with the NOTIFY handler, starts the resubscribe loop,
// then issues Play (spec §4.E-UPnP steps 1-4).
func (d *Device) Play(ctx context.Context, streamURL, title string, token tokens.LocalToken) error {
	metadata, err := buildDIDL(title, streamURL)
	if err != nil {
		return fmt.Errorf("upnp: build DIDL metadata: %w", err)
	}

	if err := d.client.SetAVTransportURICtx(ctx, avTransportInstanceID, streamURL, metadata); err != nil {
		return fmt.Errorf("upnp: SetAVTransportURI: %w", err)
	}

	reconnect := func() {
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.client.PlayCtx(bg, avTransportInstanceID, "1"); err != nil {
			d.log.Warnw("upnp: reconnect play failed", "device", d.name, "error", err)
		}
	}
	d.notify.register(token, reconnect)
	d.startSubscriptionLoop(token)

	if err := d.client.PlayCtx(ctx, avTransportInstanceID, "1"); err != nil {
		return fmt.Errorf("upnp: Play: %w", err)
	}
	return nil
}

// startSubscriptionLoop runs the background resubscription spec
// §4.E-UPnP step 3 describes: every 10s, unsubscribe then resubscribe
// explicitly, because some renderers misbehave with a plain renewal.
func (d *Device) startSubscriptionLoop(token tokens.LocalToken) {
	ctx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.cancelSub = cancel
	d.callback = fmt.Sprintf("%s/%s", d.callbackBase, token.String())
	d.mu.Unlock()

	go func() {
		ticker := time.NewTicker(resubscribeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.resubscribe(ctx)
			}
		}
	}()
}

func (d *Device) resubscribe(ctx context.Context) {
	// goupnp's generated clients do not expose GENA subscription
	// management directly; the subscribe/unsubscribe round-trip is
	// issued over the AVTransport service's own event sub-URL, with the
	// bridge's NOTIFY endpoint as CALLBACK.
	if d.eventSub == nil {
		return
	}
	d.mu.Lock()
	callback := d.callback
	d.mu.Unlock()

	scoped, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := unsubscribe(scoped, d.eventSub); err != nil {
		d.log.Debugw("upnp: unsubscribe failed (renderer may not have had a subscription)", "device", d.name, "error", err)
	}
	if err := subscribe(scoped, d.eventSub, callback, resubscribeInterval*3); err != nil {
		d.log.Warnw("upnp: resubscribe failed", "device", d.name, "error", err)
	}
}

// Stop invokes Stop, suppressing "transition not available"/"action stop
// failed" errors that are harmless on an already-stopped renderer (spec
// §4.E-UPnP step 7).
func (d *Device) Stop(ctx context.Context) error {
	err := d.client.StopCtx(ctx, avTransportInstanceID)
	if err == nil {
		return nil
	}
	if isHarmlessStopError(err) {
		return nil
	}
	return fmt.Errorf("upnp: Stop: %w", err)
}

func isHarmlessStopError(err error) bool {
	msg := err.Error()
	for _, needle := range []string{"Transition not available", "ACTION_FAILED", "action stop failed"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// OnClose cancels the subscription loop and removes the device from the
// NOTIFY handler (spec §4.E-UPnP step 6).
func (d *Device) OnClose(token tokens.LocalToken) {
	d.mu.Lock()
	cancel := d.cancelSub
	d.cancelSub = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.notify.remove(token)
}

func (d *Device) Functions() []device.Function { return nil }
