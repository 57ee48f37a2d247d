// Package config loads the .ini-style configuration described in spec §6
// using viper, and exposes a typed, read-only surface to the rest of the
// program (spec §4.A).
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// XBMCDevice is one statically-configured Kodi/XBMC target (spec §6
// discovery.xbmc_devices).
type XBMCDevice struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// VLCDevice is one statically-configured VLC-telnet target (spec §6
// discovery.vlc_devices).
type VLCDevice struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
}

// Config is the fully validated, read-only configuration surface (spec
// §4.A). Every field is required unless its section says otherwise.
type Config struct {
	// mtproto.*
	APIID          int
	APIHash        string
	Token          string
	SessionName    string
	FileFakeFWWait time.Duration

	// http.*
	ListenHost string
	ListenPort int

	// discovery.*
	UPnPEnabled           bool
	UPnPScanTimeout       time.Duration
	ChromecastEnabled     bool
	ChromecastScanTimeout time.Duration
	XBMCEnabled           bool
	XBMCDevices           []XBMCDevice
	VLCEnabled            bool
	VLCDevices            []VLCDevice
	WebUIEnabled          bool
	WebUIPassword         string
	DeviceRequestTimeout  time.Duration
	RequestGoneTimeout    time.Duration

	// bot.*
	Admins          []int64 `mapstructure:"admins"`
	BlockSize       int     `mapstructure:"block_size"`
	MessageCacheSize int    `mapstructure:"message_cache_size"`
}

// Load reads path as an .ini file, validates it per spec §6, and returns a
// Config with durations already converted from the raw numeric fields.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")

	v.SetDefault("bot.message_cache_size", 4096)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{
		APIID:       v.GetInt("mtproto.api_id"),
		APIHash:     v.GetString("mtproto.api_hash"),
		Token:       v.GetString("mtproto.token"),
		SessionName: v.GetString("mtproto.session_name"),

		ListenHost: v.GetString("http.listen_host"),
		ListenPort: v.GetInt("http.listen_port"),

		UPnPEnabled:       v.GetBool("discovery.upnp_enabled"),
		ChromecastEnabled: v.GetBool("discovery.chromecast_enabled"),
		XBMCEnabled:       v.GetBool("discovery.xbmc_enabled"),
		VLCEnabled:        v.GetBool("discovery.vlc_enabled"),
		WebUIEnabled:      v.GetBool("discovery.web_ui_enabled"),
		WebUIPassword:     v.GetString("discovery.web_ui_password"),

		Admins:           toInt64Slice(v.Get("bot.admins")),
		BlockSize:        v.GetInt("bot.block_size"),
		MessageCacheSize: v.GetInt("bot.message_cache_size"),
	}

	cfg.FileFakeFWWait = time.Duration(v.GetFloat64("mtproto.file_fake_fw_wait") * float64(time.Second))
	cfg.UPnPScanTimeout = time.Duration(v.GetInt("discovery.upnp_scan_timeout")) * time.Second
	cfg.ChromecastScanTimeout = time.Duration(v.GetInt("discovery.chromecast_scan_timeout")) * time.Second
	cfg.DeviceRequestTimeout = time.Duration(v.GetInt("discovery.device_request_timeout")) * time.Second
	cfg.RequestGoneTimeout = time.Duration(v.GetInt("discovery.request_gone_timeout")) * time.Second

	if err := v.UnmarshalKey("discovery.xbmc_devices", &cfg.XBMCDevices); err != nil {
		return nil, fmt.Errorf("config: discovery.xbmc_devices: %w", err)
	}
	if err := v.UnmarshalKey("discovery.vlc_devices", &cfg.VLCDevices); err != nil {
		return nil, fmt.Errorf("config: discovery.vlc_devices: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate enforces spec §6: admins must be integers, device lists must be
// lists of dictionaries (already enforced structurally by UnmarshalKey
// above), and the handful of fields a misconfigured deployment would
// otherwise fail on only at request time.
func (c *Config) validate() error {
	if c.APIID == 0 {
		return fmt.Errorf("config: mtproto.api_id is required")
	}
	if c.APIHash == "" {
		return fmt.Errorf("config: mtproto.api_hash is required")
	}
	if c.Token == "" {
		return fmt.Errorf("config: mtproto.token is required")
	}
	if c.SessionName == "" {
		return fmt.Errorf("config: mtproto.session_name is required")
	}
	if c.ListenPort <= 0 {
		return fmt.Errorf("config: http.listen_port must be positive")
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("config: bot.block_size must be positive")
	}
	for _, admin := range c.Admins {
		if admin == 0 {
			return fmt.Errorf("config: bot.admins must be a list of non-zero integers")
		}
	}
	if c.WebUIEnabled && c.WebUIPassword == "" {
		return fmt.Errorf("config: discovery.web_ui_password is required when web_ui_enabled")
	}
	return nil
}

func toInt64Slice(v interface{}) []int64 {
	// .ini values arrive as a single string such as "111,222"; an entry
	// that is not an integer becomes 0 so validate rejects it.
	if s, ok := v.(string); ok {
		var out []int64
		for _, part := range strings.Split(strings.Trim(s, "[] "), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, _ := strconv.ParseInt(part, 10, 64)
			out = append(out, n)
		}
		return out
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(raw))
	for _, item := range raw {
		switch n := item.(type) {
		case int64:
			out = append(out, n)
		case int:
			out = append(out, int64(n))
		case float64:
			out = append(out, int64(n))
		}
	}
	return out
}
