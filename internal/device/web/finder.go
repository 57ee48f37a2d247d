package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/device"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

const (
	registerPrefix = "/web/api/register/"
	pollPrefix     = "/web/api/poll/"
)

// Finder owns every registered web-poll device, keyed by remote_token
// (spec §4.E-Web).
type Finder struct {
	mu      sync.Mutex
	devices map[uint64]*Device
}

var _ device.Finder = (*Finder)(nil)

func NewFinder() *Finder {
	return &Finder{devices: make(map[uint64]*Device)}
}

func (f *Finder) Name() string { return "web" }

func (f *Finder) Enabled(cfg *config.Config) bool { return cfg.WebUIEnabled }

// Find sweeps the device table, evicting entries whose last poll is
// older than now - device_request_timeout, then returns the remainder
// (spec §4.E-Web discovery).
func (f *Finder) Find(ctx context.Context, cfg *config.Config) ([]device.Device, error) {
	cutoff := time.Now().Add(-cfg.DeviceRequestTimeout)

	f.mu.Lock()
	defer f.mu.Unlock()

	var found []device.Device
	for token, d := range f.devices {
		if d.staleSince(cutoff) {
			delete(f.devices, token)
			continue
		}
		found = append(found, d)
	}
	return found, nil
}

// Routes mounts /web/api/register/{password} and /web/api/poll/{remote_token}
// (spec §4.G endpoint table / §4.E-Web).
func (f *Finder) Routes(cfg *config.Config) []device.Route {
	return []device.Route{
		{Method: http.MethodGet, Path: registerPrefix + ":password", Handler: f.handleRegister(cfg)},
		{Method: http.MethodGet, Path: pollPrefix + ":remoteToken", Handler: f.handlePoll},
	}
}

func (f *Finder) handleRegister(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		password := strings.TrimPrefix(r.URL.Path, registerPrefix)
		if password != cfg.WebUIPassword {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		remoteToken, err := tokens.GenerateRemoteToken()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		clientIP := clientIPFrom(r)
		d := &Device{remoteToken: remoteToken, clientIP: clientIP, lastSeen: time.Now()}

		f.mu.Lock()
		f.devices[remoteToken] = d
		f.mu.Unlock()

		fmt.Fprintf(w, "%d", remoteToken)
	}
}

func (f *Finder) handlePoll(w http.ResponseWriter, r *http.Request) {
	tokenStr := strings.TrimPrefix(r.URL.Path, pollPrefix)
	remoteToken, err := strconv.ParseUint(tokenStr, 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	d, ok := f.devices[remoteToken]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	url, hasWork := d.poll(time.Now())
	if !hasWork {
		w.WriteHeader(http.StatusFound)
		return
	}
	fmt.Fprint(w, url)
}

func clientIPFrom(r *http.Request) string {
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	return host
}
