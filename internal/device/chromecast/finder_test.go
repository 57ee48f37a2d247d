package chromecast

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDeviceNamePrefersInstance(t *testing.T) {
	entry := &zeroconf.ServiceEntry{}
	entry.Instance = "Living Room TV"
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}
	assert.Equal(t, "Living Room TV", deviceName(entry))
}

func TestDeviceNameFallsBackToAddress(t *testing.T) {
	entry := &zeroconf.ServiceEntry{}
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.21")}
	assert.Equal(t, "chromecast@192.168.1.21", deviceName(entry))
}

func TestFinderRefcountReleasesToZero(t *testing.T) {
	f := NewFinder(zap.NewNop().Sugar())
	f.acquire()
	f.acquire()
	f.release()
	f.release()
	assert.Equal(t, 0, f.refcount)
}
