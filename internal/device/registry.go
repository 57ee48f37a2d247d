package device

import (
	"context"
	"time"

	"github.com/smarttv-bridge/bridge/internal/config"
)

// Collection is the discovery-collection aggregator (spec §4.F): it holds
// every registered Finder and runs Find across the enabled ones with a
// bounded, per-finder timeout.
type Collection struct {
	finders []Finder
}

// NewCollection builds a Collection from every registered Finder,
// regardless of whether each is currently enabled — enablement is checked
// per call so config reloads (if ever added) would not require re-wiring.
func NewCollection(finders ...Finder) *Collection {
	return &Collection{finders: finders}
}

// Finders returns every registered finder, enabled or not — used by the
// gateway to mount each finder's contributed routes at startup regardless
// of whether discovery later finds any devices of that kind.
func (c *Collection) Finders() []Finder {
	return c.finders
}

// Discover runs Find on every enabled finder with a scoped timeout of
// cfg.DeviceRequestTimeout+1s (spec §4.F), tolerating cancelled scans by
// discarding that finder's partial result rather than failing the whole
// discovery pass.
func (c *Collection) Discover(ctx context.Context, cfg *config.Config) []Device {
	var found []Device
	timeout := cfg.DeviceRequestTimeout + time.Second

	for _, finder := range c.finders {
		if !finder.Enabled(cfg) {
			continue
		}
		scoped, cancel := context.WithTimeout(ctx, timeout)
		devices, err := finder.Find(scoped, cfg)
		cancel()
		if err != nil {
			// Scan expired or otherwise failed: discard this finder's
			// partial result and keep going (spec §4.F).
			continue
		}
		found = append(found, devices...)
	}
	return found
}
