package upnp

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/huin/goupnp/dcps/av1"
	"go.uber.org/zap"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/device"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

// Finder discovers MediaRenderer1 devices over SSDP (spec §4.F/§4.D).
type Finder struct {
	log          *zap.SugaredLogger
	notify       *notifyHandler
	callbackBase string
}

var _ device.Finder = (*Finder)(nil)

// NewFinder builds a Finder; its Routes must be mounted so GENA events
// reach the devices it discovers.
func NewFinder(log *zap.SugaredLogger) *Finder {
	return &Finder{log: log, notify: newNotifyHandler(log)}
}

func (f *Finder) Name() string { return "upnp" }

func (f *Finder) Enabled(cfg *config.Config) bool { return cfg.UPnPEnabled }

// Find runs SSDP discovery bounded by cfg.UPnPScanTimeout and builds one
// AVTransport1 client per responding renderer. The bridge's own reachable
// listen address is captured here so GENA subscriptions built later point
// NOTIFY events back at this bridge, not at the renderer itself.
func (f *Finder) Find(ctx context.Context, cfg *config.Config) ([]device.Device, error) {
	f.callbackBase = fmt.Sprintf("http://%s:%d/upnp/notify", cfg.ListenHost, cfg.ListenPort)

	scoped, cancel := context.WithTimeout(ctx, cfg.UPnPScanTimeout)
	defer cancel()

	clients, errs := av1.NewAVTransport1ClientsCtx(scoped)
	for _, err := range errs {
		if err != nil {
			f.log.Debugw("upnp: discovery error for one renderer", "error", err)
		}
	}

	var found []device.Device
	for _, c := range clients {
		name := c.RootDevice.Device.FriendlyName
		if name == "" {
			name = c.Location.Host
		}
		found = append(found, &Device{
			name:         name,
			client:       c,
			eventSub:     &c.Service.EventSubURL.URL,
			callbackBase: f.callbackBase,
			log:          f.log,
			notify:       f.notify,
		})
	}
	return found, nil
}

// Routes mounts the NOTIFY callback (spec §4.G endpoint table).
func (f *Finder) Routes(cfg *config.Config) []device.Route {
	return []device.Route{
		{
			Method:  "NOTIFY",
			Path:    "/upnp/notify/:localToken",
			Handler: f.handleNotify,
		},
	}
}

func (f *Finder) handleNotify(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Path[len("/upnp/notify/"):]
	token, err := tokens.ParseLocalToken(tokenStr)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.notify.handle(token, body)
	w.WriteHeader(http.StatusOK)
}
