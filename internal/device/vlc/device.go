// Package vlc implements the VLC-telnet renderer device (spec §4.E-VLC):
// a raw TCP client speaking VLC's line-oriented telnet control interface.
// No ecosystem VLC-telnet client exists, so this is hand-rolled per spec,
// same as the original.
package vlc

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/smarttv-bridge/bridge/internal/config"
	"github.com/smarttv-bridge/bridge/internal/device"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

// telnetAuthMagic is the IAC DO ECHO sequence VLC's telnet server sends
// before prompting for a password (spec §4.E-VLC).
var telnetAuthMagic = []byte{0xff, 0xfb, 0x01}

// telnetWelcomeMagic is the IAC WON'T ECHO + welcome banner prefix VLC
// sends once authenticated.
var telnetWelcomeMagic = []byte{0xff, 0xfc, 0x01, '\r', '\n'}

const dialTimeout = 5 * time.Second

// telnetEOL terminates every line sent to VLC's telnet interface, password
// included (spec §4.E-VLC).
const telnetEOL = "\n\r"

// Device is one statically configured VLC-telnet target (spec §6
// discovery.vlc_devices).
type Device struct {
	name     string
	addr     string
	password string
}

var _ device.Device = (*Device)(nil)

func New(cfg config.VLCDevice) *Device {
	return &Device{
		name:     fmt.Sprintf("vlc@%s:%d", cfg.Host, cfg.Port),
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		password: cfg.Password,
	}
}

func (d *Device) Name() string { return d.name }

// dial opens the TCP connection and completes the telnet auth handshake
// spec §4.E-VLC describes: if the greeting ends with the auth magic, send
// the password and expect the welcome magic back.
func (d *Device) dial(ctx context.Context) (net.Conn, *bufio.Reader, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.addr)
	if err != nil {
		return nil, nil, fmt.Errorf("vlc: dial %s: %w", d.addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	r := bufio.NewReader(conn)
	greeting := make([]byte, 4096)
	n, err := r.Read(greeting)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("vlc: read greeting: %w", err)
	}

	if bytes.HasSuffix(greeting[:n], telnetAuthMagic) {
		if _, err := conn.Write([]byte(d.password + telnetEOL)); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("vlc: send password: %w", err)
		}
		welcome := make([]byte, len(telnetWelcomeMagic))
		if _, err := readFull(r, welcome); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("vlc: read welcome: %w", err)
		}
		if string(welcome) != string(telnetWelcomeMagic) {
			conn.Close()
			return nil, nil, fmt.Errorf("vlc: unexpected welcome sequence")
		}
		// drain the rest of the "Welcome" banner line.
		_, _ = r.ReadString('\n')
	}

	return conn, r, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		b, err := r.ReadByte()
		if err != nil {
			return n, err
		}
		buf[n] = b
		n++
	}
	return n, nil
}

// sendCommand writes one ASCII line terminated by telnetEOL (spec §4.E-VLC).
func (d *Device) sendCommand(ctx context.Context, cmds ...string) error {
	conn, _, err := d.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, cmd := range cmds {
		if _, err := conn.Write([]byte(cmd + telnetEOL)); err != nil {
			return fmt.Errorf("vlc: send %q: %w", cmd, err)
		}
	}
	return nil
}

// Play sends "add <url>" then "play" (spec §4.E-VLC).
func (d *Device) Play(ctx context.Context, url, title string, token tokens.LocalToken) error {
	return d.sendCommand(ctx, fmt.Sprintf("add %s", url), "play")
}

// Stop sends "stop" (spec §4.E-VLC).
func (d *Device) Stop(ctx context.Context) error {
	return d.sendCommand(ctx, "stop")
}

func (d *Device) OnClose(token tokens.LocalToken) {}

func (d *Device) Functions() []device.Function { return nil }
