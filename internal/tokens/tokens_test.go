package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackLocalTokenLaw(t *testing.T) {
	cases := []struct {
		messageID, remoteToken uint64
		want                   string
	}{
		{0, 0, "0"},
		{1, 0, "1"},
		{1, 1, "18446744073709551617"},  // (1<<64) + 1
		{2, 1, "18446744073709551618"},  // (1<<64) + 2
		{1, 2, "36893488147419103233"}, // (2<<64) + 1
	}
	for _, c := range cases {
		got := PackLocalToken(c.messageID, c.remoteToken)
		assert.Equal(t, c.want, got.String())
	}
}

func TestPackLocalTokenIsComparable(t *testing.T) {
	a := PackLocalToken(10, 20)
	b := PackLocalToken(10, 20)
	c := PackLocalToken(10, 21)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	m := map[LocalToken]bool{a: true}
	assert.True(t, m[b])
	assert.False(t, m[c])
}

func TestGenerateRemoteTokenIsRandomish(t *testing.T) {
	a, err := GenerateRemoteToken()
	assert.NoError(t, err)
	b, err := GenerateRemoteToken()
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBuildStreamURL(t *testing.T) {
	url := BuildStreamURL("http", "0.0.0.0", 8080, 10, 1010)
	assert.Equal(t, "http://0.0.0.0:8080/stream/10/1010", url)
}
