package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttv-bridge/bridge/internal/apperr"
)

func TestParseStreamRangeNoHeaderServesWholeFile(t *testing.T) {
	r, err := parseStreamRange("", 1024, 1023)
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.SafeOffset)
	assert.Equal(t, int64(0), r.DataToSkip)
	assert.Equal(t, int64(1023), r.MaxSize)
	assert.False(t, r.Partial)
}

func TestParseStreamRangePartial(t *testing.T) {
	r, err := parseStreamRange("bytes=1000-1023", 1024, 146515)
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.SafeOffset)
	assert.Equal(t, int64(1000), r.DataToSkip)
	assert.Equal(t, int64(1023), r.MaxSize)
	assert.True(t, r.Partial)
}

func TestParseStreamRangeOpenSuffixUsesFileSize(t *testing.T) {
	r, err := parseStreamRange("bytes=0-", 1024, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), r.MaxSize)
}

func TestValidateDataToSkipRejectsOversizedSkip(t *testing.T) {
	err := validateDataToSkip(2000, 1024)
	assert.True(t, apperr.Is(err, apperr.KindInternalInconsistent))
}

func TestValidateDataToSkipAcceptsInRangeSkip(t *testing.T) {
	assert.NoError(t, validateDataToSkip(512, 1024))
}

func TestParseStreamRangeInvalidHeader(t *testing.T) {
	_, err := parseStreamRange("not-a-range", 1024, 5000)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}
