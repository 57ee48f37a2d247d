package vlc

import (
	"context"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/device"
)

// Finder wraps the statically configured VLC-telnet targets from
// discovery.vlc_devices — VLC's telnet interface has no discovery
// protocol, so "finding" a device just means instantiating one client
// per configured host (spec §6).
type Finder struct{}

var _ device.Finder = (*Finder)(nil)

func NewFinder() *Finder { return &Finder{} }

func (f *Finder) Name() string { return "vlc" }

func (f *Finder) Enabled(cfg *config.Config) bool { return cfg.VLCEnabled }

func (f *Finder) Find(ctx context.Context, cfg *config.Config) ([]device.Device, error) {
	devices := make([]device.Device, 0, len(cfg.VLCDevices))
	for _, d := range cfg.VLCDevices {
		devices = append(devices, New(d))
	}
	return devices, nil
}

func (f *Finder) Routes(cfg *config.Config) []device.Route { return nil }
