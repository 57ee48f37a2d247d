package xbmc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

func newTestServer(t *testing.T, handler func(method string) (interface{}, *string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, rpcErr := handler(req.Method)
		resp := rpcResponse{}
		if rpcErr != nil {
			resp.Error = &struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			}{Code: -1, Message: *rpcErr}
		} else {
			b, _ := json.Marshal(result)
			resp.Result = b
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestDevicePlaySequencesCalls(t *testing.T) {
	var calls []string
	srv := newTestServer(t, func(method string) (interface{}, *string) {
		calls = append(calls, method)
		return map[string]int{}, nil
	})
	defer srv.Close()

	d := New(config.XBMCDevice{Host: "x", Port: 1})
	d.endpoint = srv.URL

	require.NoError(t, d.Play(context.Background(), "http://host/stream/1/2", "Movie", tokens.LocalToken{}))
	assert.Equal(t, []string{"Playlist.Clear", "Playlist.Add", "Player.Open"}, calls)
}

func TestDeviceStopWithNoActivePlayers(t *testing.T) {
	srv := newTestServer(t, func(method string) (interface{}, *string) {
		return []map[string]int{}, nil
	})
	defer srv.Close()

	d := New(config.XBMCDevice{Host: "x", Port: 1})
	d.endpoint = srv.URL
	require.NoError(t, d.Stop(context.Background()))
}

func TestDeviceStopStopsFirstActivePlayer(t *testing.T) {
	var stopped []int
	srv := newTestServer(t, func(method string) (interface{}, *string) {
		switch method {
		case "Player.GetActivePlayers":
			return []map[string]int{{"playerid": 1}, {"playerid": 2}}, nil
		case "Player.Stop":
			stopped = append(stopped, 1)
			return map[string]bool{}, nil
		}
		return nil, nil
	})
	defer srv.Close()

	d := New(config.XBMCDevice{Host: "x", Port: 1})
	d.endpoint = srv.URL
	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, []int{1}, stopped)
}
