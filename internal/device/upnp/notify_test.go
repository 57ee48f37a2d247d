package upnp

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/smarttv-bridge/bridge/internal/tokens"
)

func TestParseTransportStatusDirect(t *testing.T) {
	body := []byte(`<propertyset><property><TransportStatus>OK</TransportStatus></property></propertyset>`)
	assert.Equal(t, statePlaying, parseTransportStatus(body))
}

func TestParseTransportStatusNestedLastChange(t *testing.T) {
	body := []byte(`<propertyset><property><LastChange>&lt;Event&gt;&lt;InstanceID val=&quot;0&quot;&gt;&lt;TransportStatus val=&quot;ERROR_OCCURRED&quot;/&gt;&lt;/InstanceID&gt;&lt;/Event&gt;</LastChange></property></propertyset>`)
	assert.Equal(t, stateError, parseTransportStatus(body))
}

func TestNotifyHandlerReconnectsAfterErrorClears(t *testing.T) {
	log := zap.NewNop().Sugar()
	h := newNotifyHandler(log)
	token := tokens.PackLocalToken(1, 2)

	var reconnects int32
	h.register(token, func() { atomic.AddInt32(&reconnects, 1) })

	h.handle(token, []byte(`<propertyset><property><TransportStatus>OK</TransportStatus></property></propertyset>`))
	h.handle(token, []byte(`<propertyset><property><TransportStatus>ERROR_OCCURRED</TransportStatus></property></propertyset>`))
	assert.EqualValues(t, 0, atomic.LoadInt32(&reconnects))

	h.handle(token, []byte(`<propertyset><property></property></propertyset>`))
	assert.EqualValues(t, 1, atomic.LoadInt32(&reconnects))
}

func TestNotifyHandlerIgnoresUnknownToken(t *testing.T) {
	log := zap.NewNop().Sugar()
	h := newNotifyHandler(log)
	h.handle(tokens.PackLocalToken(9, 9), []byte(`<propertyset/>`))
}
