package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

func TestRegisterWrongPasswordForbidden(t *testing.T) {
	f := NewFinder()
	cfg := &config.Config{WebUIEnabled: true, WebUIPassword: "right"}

	req := httptest.NewRequest(http.MethodGet, registerPrefix+"wrong", nil)
	rec := httptest.NewRecorder()
	f.handleRegister(cfg)(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterThenPollRoundTrip(t *testing.T) {
	f := NewFinder()
	cfg := &config.Config{WebUIEnabled: true, WebUIPassword: "right", DeviceRequestTimeout: time.Minute}

	req := httptest.NewRequest(http.MethodGet, registerPrefix+"right", nil)
	req.RemoteAddr = "10.0.0.9:54321"
	rec := httptest.NewRecorder()
	f.handleRegister(cfg)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Body.String()

	pollReq := httptest.NewRequest(http.MethodGet, pollPrefix+token, nil)
	pollRec := httptest.NewRecorder()
	f.handlePoll(pollRec, pollReq)
	assert.Equal(t, http.StatusFound, pollRec.Code, "no pending URL yet")

	f.mu.Lock()
	var d *Device
	for _, dev := range f.devices {
		d = dev
	}
	f.mu.Unlock()
	require.NotNil(t, d)
	require.NoError(t, d.Play(context.Background(), "http://host/stream/1/2", "Movie", tokens.LocalToken{}))

	pollRec2 := httptest.NewRecorder()
	f.handlePoll(pollRec2, httptest.NewRequest(http.MethodGet, pollPrefix+token, nil))
	assert.Equal(t, http.StatusOK, pollRec2.Code)
	assert.Equal(t, "http://host/stream/1/2", pollRec2.Body.String())
}

func TestFindEvictsStaleDevices(t *testing.T) {
	f := NewFinder()
	cfg := &config.Config{WebUIEnabled: true, DeviceRequestTimeout: time.Millisecond}

	d := &Device{remoteToken: 1, lastSeen: time.Now().Add(-time.Hour)}
	f.devices[1] = d

	found, err := f.Find(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.NotContains(t, f.devices, uint64(1))
}
