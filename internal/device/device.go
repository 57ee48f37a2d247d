// Package device defines the polymorphic Device/DeviceFinder/Function
// contracts spec §4.D describes, plus the discovery-collection aggregator
// of §4.F. Concrete renderers (UPnP, Chromecast, XBMC, VLC, Web) live in
// sibling packages and satisfy these interfaces.
package device

import (
	"context"
	"net/http"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

// Function is a per-player button a chat UI can render and route clicks
// back to (spec §4.D: "DevicePlayerFunction").
type Function interface {
	Name() string
	Enabled(cfg *config.Config) bool
	Handle(ctx context.Context) error
}

// Device is the polymorphic renderer contract spec §3/§4.D defines. Every
// concrete variant — UPnP, Chromecast, XBMC, VLC, Web — implements this.
type Device interface {
	Name() string
	Play(ctx context.Context, url, title string, token tokens.LocalToken) error
	Stop(ctx context.Context) error
	OnClose(token tokens.LocalToken)
	Functions() []Function
}

// Route is one HTTP endpoint a Finder contributes to the gateway (spec
// §4.D "get_routers" / §4.G "Sub-router mounting").
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Finder discovers Devices of one kind and may contribute gateway routes
// (spec §4.D "DeviceFinder contract").
type Finder interface {
	Name() string
	Enabled(cfg *config.Config) bool
	Find(ctx context.Context, cfg *config.Config) ([]Device, error)
	Routes(cfg *config.Config) []Route
}
