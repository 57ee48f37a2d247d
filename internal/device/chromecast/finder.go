package chromecast

import (
	"context"
	"fmt"
	"sync"

	cast "github.com/barnybug/go-cast"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/device"
)

const castServiceType = "_googlecast._tcp"

// Finder discovers Chromecast receivers over mDNS (spec §4.F/§4.D).
type Finder struct {
	log *zap.SugaredLogger

	mu       sync.Mutex
	refcount int
}

var _ device.Finder = (*Finder)(nil)

func NewFinder(log *zap.SugaredLogger) *Finder {
	return &Finder{log: log}
}

func (f *Finder) Name() string { return "chromecast" }

func (f *Finder) Enabled(cfg *config.Config) bool { return cfg.ChromecastEnabled }

// Find runs an mDNS browse bounded by cfg.ChromecastScanTimeout, building
// one CASTV2 client per responder. Each returned Device holds a release()
// that decrements the finder's reference count. The browse itself ends
// when Find returns; it does not depend on the reference count, and
// releasing the last reference only logs.
func (f *Finder) Find(ctx context.Context, cfg *config.Config) ([]device.Device, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("chromecast: new resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	scoped, cancel := context.WithTimeout(ctx, cfg.ChromecastScanTimeout)
	defer cancel()

	if err := resolver.Browse(scoped, castServiceType, "local.", entries); err != nil {
		return nil, fmt.Errorf("chromecast: browse: %w", err)
	}

	var found []device.Device
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return found, nil
			}
			if len(entry.AddrIPv4) == 0 {
				continue
			}
			f.acquire()
			client := cast.NewClient(entry.AddrIPv4[0], entry.Port)
			found = append(found, &Device{
				name:    deviceName(entry),
				client:  client,
				log:     f.log,
				release: f.release,
			})
		case <-scoped.Done():
			return found, nil
		}
	}
}

func deviceName(entry *zeroconf.ServiceEntry) string {
	if entry.Instance != "" {
		return entry.Instance
	}
	return fmt.Sprintf("chromecast@%s", entry.AddrIPv4[0])
}

func (f *Finder) acquire() {
	f.mu.Lock()
	f.refcount++
	f.mu.Unlock()
}

func (f *Finder) release() {
	f.mu.Lock()
	f.refcount--
	remaining := f.refcount
	f.mu.Unlock()
	if remaining <= 0 {
		f.log.Debugw("chromecast: last device reference released")
	}
}

func (f *Finder) Routes(cfg *config.Config) []device.Route { return nil }
