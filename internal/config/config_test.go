package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleINI = `
[mtproto]
api_id = 12345
api_hash = deadbeef
token = 123:abc
session_name = bridge
file_fake_fw_wait = 1.5

[http]
listen_host = 0.0.0.0
listen_port = 8080

[discovery]
upnp_enabled = 1
upnp_scan_timeout = 5
chromecast_enabled = 0
chromecast_scan_timeout = 5
xbmc_enabled = 0
vlc_enabled = 0
web_ui_enabled = 1
web_ui_password = hunter2
device_request_timeout = 3
request_gone_timeout = 10

[bot]
admins = 111,222
block_size = 1048576
`

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadValid(t *testing.T) {
	path := writeTempConfig(t, sampleINI)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12345, cfg.APIID)
	assert.Equal(t, "deadbeef", cfg.APIHash)
	assert.Equal(t, 8080, cfg.ListenPort)
	assert.Equal(t, 1500*time.Millisecond, cfg.FileFakeFWWait)
	assert.Equal(t, 5*time.Second, cfg.UPnPScanTimeout)
	assert.ElementsMatch(t, []int64{111, 222}, cfg.Admins)
	assert.Equal(t, 4096, cfg.MessageCacheSize)
	assert.True(t, cfg.WebUIEnabled)
}

func TestLoadMissingRequired(t *testing.T) {
	path := writeTempConfig(t, `[http]
listen_port = 8080
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadWebUIRequiresPassword(t *testing.T) {
	body := sampleINI
	path := writeTempConfig(t, body+"\n[discovery]\nweb_ui_enabled = 1\nweb_ui_password =\n")
	_, err := Load(path)
	assert.Error(t, err)
}
