// Package gateway implements spec §4.G: the gin-based HTTP streaming
// gateway, its range-aware GET /stream handler, the healthcheck endpoint,
// and the mount point for every enabled device finder's own routes.
package gateway

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smarttv-bridge/bridge/internal/apperr"
	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/device"
	"github.com/smarttv-bridge/bridge/internal/reader"
	"github.com/smarttv-bridge/bridge/internal/session"
)

// chatFileReader is the subset of *reader.Reader the gateway calls, pulled
// out as an interface so tests can substitute a fake instead of standing
// up a real MTProto session (spec §4.C's get_message/get_block/health_check).
type chatFileReader interface {
	GetMessage(ctx context.Context, chatID int64, messageID uint64) (*reader.Message, error)
	GetBlock(ctx context.Context, msg *reader.Message, offset, blockSize int64) ([]byte, error)
	HealthCheck(ctx context.Context) error
}

// Gateway wires the active-token registry, the chat-file reader, and the
// finder collection's contributed routes into one gin.Engine (spec §4.G
// "Sub-router mounting"). Reader, sessions and devices are the singleton
// instances spec §9 describes as created once during process startup.
type Gateway struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	reader   chatFileReader
	sessions *session.Registry
	devices  *device.Collection
}

// New builds a Gateway.
func New(cfg *config.Config, rd *reader.Reader, sessions *session.Registry, devices *device.Collection, log *zap.SugaredLogger) *Gateway {
	return &Gateway{
		cfg:      cfg,
		log:      log,
		reader:   rd,
		sessions: sessions,
		devices:  devices,
	}
}

// Router builds the *gin.Engine mounting the fixed stream/healthcheck
// endpoints plus every enabled finder's contributed routes (spec §4.G
// endpoint table, "Sub-router mounting").
func (g *Gateway) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/stream/:messageID/:remoteToken", g.handleStream)
	router.OPTIONS("/stream/:messageID/:remoteToken", g.handleStreamProbe)
	router.PUT("/stream/:messageID/:remoteToken", g.handleStreamProbe)
	router.GET("/healthcheck", g.handleHealthcheck)

	if g.devices != nil {
		for _, finder := range g.devices.Finders() {
			if !finder.Enabled(g.cfg) {
				continue
			}
			for _, route := range finder.Routes(g.cfg) {
				router.Handle(route.Method, route.Path, gin.WrapF(route.Handler))
			}
		}
	}

	return router
}

// newForTest builds a Gateway against a fake chatFileReader, bypassing the
// real *reader.Reader dependency New requires.
func newForTest(cfg *config.Config, rd chatFileReader, sessions *session.Registry) *Gateway {
	return &Gateway{cfg: cfg, reader: rd, sessions: sessions}
}

// handleHealthcheck implements spec §4.G's GET /healthcheck: 200 "ok" if
// the reader reports every session connected, 500 "gone" otherwise.
func (g *Gateway) handleHealthcheck(c *gin.Context) {
	if err := g.reader.HealthCheck(c.Request.Context()); err != nil {
		c.String(http.StatusInternalServerError, "gone")
		return
	}
	c.String(http.StatusOK, "ok")
}

// writeError maps an apperr.Kind (or any error, defaulting to 500) to its
// HTTP status and a short plaintext body (spec §7's error table).
func (g *Gateway) writeError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if g.log != nil {
		g.log.Debugw("gateway request failed", "status", status, "error", err)
	}
	c.String(status, http.StatusText(status))
}
