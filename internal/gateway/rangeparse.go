package gateway

import (
	"fmt"
	"strings"

	range_parser "github.com/quantumsheep/range-parser"

	"github.com/smarttv-bridge/bridge/internal/apperr"
)

// parsedRange is the block-aligned view of a Range header spec §4.G step 3
// describes: safe_offset, data_to_skip, max_size, computed in that order
// on top of range_parser.Parse's raw first/last.
type parsedRange struct {
	SafeOffset int64
	DataToSkip int64
	MaxSize    int64
	Partial    bool
}

// parseStreamRange implements spec §4.G steps 3 and 5. An empty
// rangeHeader serves the full file (spec's "No header → serve full file").
func parseStreamRange(rangeHeader string, blockSize, size int64) (parsedRange, error) {
	if rangeHeader == "" {
		return parsedRange{SafeOffset: 0, DataToSkip: 0, MaxSize: size, Partial: false}, nil
	}

	ranges, err := range_parser.Parse(size, rangeHeader)
	if err != nil || len(ranges) == 0 {
		return parsedRange{}, apperr.New(apperr.KindBadRequest, "gateway.parseStreamRange", fmt.Errorf("invalid range header: %w", err))
	}

	first := ranges[0].Start
	last := ranges[0].End

	// range_parser fills in a default End even when the client wrote an
	// open-ended suffix ("bytes=1000-"); the no-explicit-last case spec
	// §4.G step 3 short-circuits to max_size := size is distinguished
	// here by the literal header text, not by the parsed value.
	hasExplicitLast := hasExplicitRangeEnd(rangeHeader)

	safeOffset := (first / blockSize) * blockSize
	dataToSkip := first - safeOffset

	var maxSize int64
	if hasExplicitLast {
		maxSize = last
	} else {
		maxSize = size
	}

	if err := validateDataToSkip(dataToSkip, blockSize); err != nil {
		return parsedRange{}, err
	}

	// 400 if safe_offset+data_to_skip > size, or if an explicit last is
	// below both size and first. A last at or beyond EOF is not rejected
	// here, and the end check never applies when no explicit last was given.
	if safeOffset+dataToSkip > size {
		return parsedRange{}, apperr.New(apperr.KindBadRequest, "gateway.parseStreamRange", fmt.Errorf("range start %d beyond size %d", first, size))
	}
	if hasExplicitLast && maxSize < size && maxSize < first {
		return parsedRange{}, apperr.New(apperr.KindBadRequest, "gateway.parseStreamRange", fmt.Errorf("range end %d before start %d", maxSize, first))
	}

	return parsedRange{
		SafeOffset: safeOffset,
		DataToSkip: dataToSkip,
		MaxSize:    maxSize,
		Partial:    true,
	}, nil
}

// validateDataToSkip guards spec §4.G step 3's internal-consistency
// check: data_to_skip = first - safe_offset can never exceed block_size
// under floor-division arithmetic, but the check is kept as a defensive
// boundary against a misbehaving range_parser result (spec §7
// InternalInconsistent / §8 scenario 3).
func validateDataToSkip(dataToSkip, blockSize int64) error {
	if dataToSkip > blockSize {
		return apperr.New(apperr.KindInternalInconsistent, "gateway.parseStreamRange", fmt.Errorf("data_to_skip %d exceeds block_size %d", dataToSkip, blockSize))
	}
	return nil
}

// hasExplicitRangeEnd reports whether a "bytes=first-last" header
// actually specified last, as opposed to an open suffix "bytes=first-".
func hasExplicitRangeEnd(rangeHeader string) bool {
	spec := strings.TrimPrefix(rangeHeader, "bytes=")
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return false
	}
	return strings.TrimSpace(parts[1]) != ""
}
