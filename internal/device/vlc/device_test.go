package vlc

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

// fakeVLCServer emulates the telnet auth handshake and records every
// command line it receives.
func fakeVLCServer(t *testing.T, password string) (addr string, commands <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ch := make(chan string, 16)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		_, _ = conn.Write(telnetAuthMagic)
		r := bufio.NewReader(conn)
		got, _ := r.ReadString('\r')
		if got != password+telnetEOL {
			return
		}
		_, _ = conn.Write(telnetWelcomeMagic)
		_, _ = conn.Write([]byte("Welcome\r\n"))

		for {
			line, err := r.ReadString('\r')
			if err != nil {
				return
			}
			ch <- line[:len(line)-1]
		}
	}()

	return ln.Addr().String(), ch
}

func TestDevicePlaySendsAddThenPlay(t *testing.T) {
	addr, commands := fakeVLCServer(t, "secret")
	d := &Device{name: "vlc", addr: addr, password: "secret"}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, d.Play(ctx, "http://host/stream/1/2", "Movie", tokens.LocalToken{}))

	assert.Equal(t, "add http://host/stream/1/2\n", <-commands)
	assert.Equal(t, "play\n", <-commands)
}

func TestDeviceStopSendsStop(t *testing.T) {
	addr, commands := fakeVLCServer(t, "secret")
	d := &Device{name: "vlc", addr: addr, password: "secret"}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, d.Stop(ctx))
	assert.Equal(t, "stop\n", <-commands)
}

func TestNewNamesDeviceFromHostPort(t *testing.T) {
	d := New(config.VLCDevice{Host: "10.0.0.5", Port: 4212, Password: "x"})
	assert.Equal(t, "vlc@10.0.0.5:4212", d.Name())
}
