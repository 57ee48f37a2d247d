// Package chromecast implements the Chromecast renderer device (spec
// §4.E-Chromecast): CASTV2 playback control over barnybug/go-cast with
// mDNS discovery via grandcat/zeroconf.
package chromecast

import (
	"context"
	"fmt"
	"sync"
	"time"

	cast "github.com/barnybug/go-cast"
	"github.com/barnybug/go-cast/controllers"
	"go.uber.org/zap"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/device"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

const appPollInterval = 100 * time.Millisecond

// Device is one discovered Chromecast receiver.
type Device struct {
	name   string
	client *cast.Client
	log    *zap.SugaredLogger

	mu        sync.Mutex
	connected bool

	release func()
}

var _ device.Device = (*Device)(nil)

func (d *Device) Name() string { return d.name }

// Play waits for the session to become ready, quits any foreground app if
// the receiver is not idle (polling app_id at 100ms), then invokes
// play_media (spec §4.E-Chromecast).
func (d *Device) Play(ctx context.Context, url, title string, token tokens.LocalToken) error {
	d.mu.Lock()
	needsConnect := !d.connected
	d.mu.Unlock()

	if needsConnect {
		if err := d.client.Connect(ctx); err != nil {
			return fmt.Errorf("chromecast: connect: %w", err)
		}
		d.mu.Lock()
		d.connected = true
		d.mu.Unlock()
	}

	media := d.client.Media(ctx)

	if err := d.waitForIdleApp(ctx); err != nil {
		return fmt.Errorf("chromecast: wait for idle app: %w", err)
	}

	item := controllers.MediaItem{
		ContentId:   url,
		StreamType:  "BUFFERED",
		ContentType: "video/mp4",
		Metadata: map[string]interface{}{
			"metadataType": 0,
			"title":        title,
		},
	}
	if _, err := media.LoadMedia(ctx, item, 0, true, nil); err != nil {
		return fmt.Errorf("chromecast: load media: %w", err)
	}
	return nil
}

// waitForIdleApp polls the receiver's running app_id until no app is
// foregrounded, quitting it if one is (spec §4.E-Chromecast).
func (d *Device) waitForIdleApp(ctx context.Context) error {
	recv := d.client.Receiver()
	status, err := recv.GetStatus(ctx)
	if err != nil {
		return err
	}
	if status == nil || len(status.Applications) == 0 {
		return nil
	}

	if err := recv.QuitApp(ctx); err != nil {
		d.log.Debugw("chromecast: quit app failed, continuing", "device", d.name, "error", err)
	}

	ticker := time.NewTicker(appPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			status, err := recv.GetStatus(ctx)
			if err != nil {
				return err
			}
			if status == nil || len(status.Applications) == 0 {
				return nil
			}
		}
	}
}

func (d *Device) Stop(ctx context.Context) error {
	media := d.client.Media(ctx)
	if _, err := media.Stop(ctx); err != nil {
		return fmt.Errorf("chromecast: stop: %w", err)
	}
	return nil
}

// OnClose disconnects the CASTV2 connection and releases the discovery
// browser's reference count (spec §4.E-Chromecast: "Browser lifetime is
// reference-counted across the devices the browser returned").
func (d *Device) OnClose(token tokens.LocalToken) {
	d.client.Close()
	d.mu.Lock()
	d.connected = false
	d.mu.Unlock()
	if d.release != nil {
		d.release()
	}
}

func (d *Device) Functions() []device.Function {
	return []device.Function{
		&playbackFunction{name: "PAUSE", action: d.pause},
		&playbackFunction{name: "PLAY", action: d.resume},
		&playbackFunction{name: "STOP", action: d.stopFunction},
	}
}

func (d *Device) pause(ctx context.Context) error {
	_, err := d.client.Media(ctx).Pause(ctx)
	return err
}

func (d *Device) resume(ctx context.Context) error {
	_, err := d.client.Media(ctx).Play(ctx)
	return err
}

func (d *Device) stopFunction(ctx context.Context) error {
	return d.Stop(ctx)
}

// playbackFunction adapts one of the PAUSE/PLAY/STOP buttons spec
// §4.E-Chromecast describes to the device.Function contract.
type playbackFunction struct {
	name   string
	action func(ctx context.Context) error
}

var _ device.Function = (*playbackFunction)(nil)

func (f *playbackFunction) Name() string { return f.name }

func (f *playbackFunction) Enabled(cfg *config.Config) bool {
	return cfg.ChromecastEnabled
}

func (f *playbackFunction) Handle(ctx context.Context) error {
	return f.action(ctx)
}
