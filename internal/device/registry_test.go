package device

import (
	"context"
	"testing"
	"time"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/tokens"
	"github.com/stretchr/testify/assert"
)

type stubDevice struct{ name string }

func (d *stubDevice) Name() string { return d.name }
func (d *stubDevice) Play(ctx context.Context, url, title string, token tokens.LocalToken) error {
	return nil
}
func (d *stubDevice) Stop(ctx context.Context) error        { return nil }
func (d *stubDevice) OnClose(token tokens.LocalToken)        {}
func (d *stubDevice) Functions() []Function                  { return nil }

type stubFinder struct {
	name    string
	enabled bool
	devices []Device
	err     error
}

func (f *stubFinder) Name() string                               { return f.name }
func (f *stubFinder) Enabled(cfg *config.Config) bool             { return f.enabled }
func (f *stubFinder) Routes(cfg *config.Config) []Route           { return nil }
func (f *stubFinder) Find(ctx context.Context, cfg *config.Config) ([]Device, error) {
	return f.devices, f.err
}

func TestCollectionDiscoverFiltersDisabled(t *testing.T) {
	cfg := &config.Config{DeviceRequestTimeout: time.Second}
	enabled := &stubFinder{name: "upnp", enabled: true, devices: []Device{&stubDevice{name: "tv"}}}
	disabled := &stubFinder{name: "xbmc", enabled: false, devices: []Device{&stubDevice{name: "kodi"}}}

	c := NewCollection(enabled, disabled)
	found := c.Discover(context.Background(), cfg)

	assert.Len(t, found, 1)
	assert.Equal(t, "tv", found[0].Name())
}

func TestCollectionDiscoverToleratesError(t *testing.T) {
	cfg := &config.Config{DeviceRequestTimeout: time.Second}
	failing := &stubFinder{name: "chromecast", enabled: true, err: context.DeadlineExceeded}
	ok := &stubFinder{name: "upnp", enabled: true, devices: []Device{&stubDevice{name: "tv"}}}

	c := NewCollection(failing, ok)
	found := c.Discover(context.Background(), cfg)

	assert.Len(t, found, 1)
}

func TestCollectionFinders(t *testing.T) {
	a := &stubFinder{name: "a"}
	b := &stubFinder{name: "b"}
	c := NewCollection(a, b)
	assert.Len(t, c.Finders(), 2)
}
