package upnp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsciiOnlyFiltersHighBytes(t *testing.T) {
	assert.Equal(t, "Movie ", asciiOnly("Movie é"))
}

func TestBuildDIDLEscapesAndEmbeds(t *testing.T) {
	doc, err := buildDIDL("A & B", "http://host/stream/1/2")
	require.NoError(t, err)
	assert.Contains(t, doc, "A &amp; B")
	assert.Contains(t, doc, "http://host/stream/1/2")
	assert.Contains(t, doc, dlnaFlags)
}
