package xbmc

import (
	"context"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/device"
)

// Finder wraps the statically configured XBMC/Kodi targets from
// discovery.xbmc_devices — no network discovery protocol exists for
// Kodi's JSON-RPC surface, so "finding" a device just means instantiating
// one client per configured host (spec §6).
type Finder struct{}

var _ device.Finder = (*Finder)(nil)

func NewFinder() *Finder { return &Finder{} }

func (f *Finder) Name() string { return "xbmc" }

func (f *Finder) Enabled(cfg *config.Config) bool { return cfg.XBMCEnabled }

func (f *Finder) Find(ctx context.Context, cfg *config.Config) ([]device.Device, error) {
	devices := make([]device.Device, 0, len(cfg.XBMCDevices))
	for _, d := range cfg.XBMCDevices {
		devices = append(devices, New(d))
	}
	return devices, nil
}

func (f *Finder) Routes(cfg *config.Config) []device.Route { return nil }
