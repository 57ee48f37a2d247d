package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smarttv-bridge/bridge/internal/apperr"
	"github.com/smarttv-bridge/bridge/internal/reader"
	"github.com/smarttv-bridge/bridge/internal/session"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

// handleStreamProbe answers the OPTIONS/PUT probes some renderers send
// before GET with 200 and the DLNA/CORS header set, empty body (spec
// §4.G endpoint table).
func (g *Gateway) handleStreamProbe(c *gin.Context) {
	writeDLNAHeaders(c.Writer.Header())
	writeCORSHeaders(c.Writer.Header())
	c.Status(http.StatusOK)
}

// handleStream implements spec §4.G's GET /stream/{message_id}/{remote_token}
// request lifecycle end to end.
func (g *Gateway) handleStream(c *gin.Context) {
	messageID, _, token, err := parseStreamTokens(c)
	if err != nil {
		g.writeError(c, err)
		return
	}

	sess, ok := g.sessions.Get(token)
	if !ok {
		g.writeError(c, apperr.New(apperr.KindForbidden, "gateway.handleStream", fmt.Errorf("token %s not active", token)))
		return
	}

	msg, err := g.reader.GetMessage(c.Request.Context(), sess.ChatID, messageID)
	if err != nil {
		g.writeError(c, err)
		return
	}

	pr, err := parseStreamRange(c.GetHeader("Range"), sess.BlockSize, msg.Size)
	if err != nil {
		g.writeError(c, err)
		return
	}

	status := http.StatusOK
	if pr.Partial || pr.MaxSize != msg.Size {
		status = http.StatusPartialContent
	}

	header := c.Writer.Header()
	writeDLNAHeaders(header)
	writeCORSHeaders(header)
	header.Set("Accept-Ranges", "bytes")
	header.Set("Content-Type", "video/mp4")
	// Spec §9 flags this as an RFC 7233 violation preserved from the
	// original behaviour: the full resource size is always reported, even
	// for a partial response.
	header.Set("Content-Length", strconv.FormatInt(msg.Size, 10))
	header.Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, url.QueryEscape(msg.DisplayName())))
	// Mirrors the original's uniform f"bytes {read_after}-{max_size}/{size}"
	// formula: max_size already defaults to size when no range was given
	// (spec §4.G step 3), so the full-GET case naturally yields
	// "bytes 0-{size}/{size}" rather than a size-1 upper bound.
	first := pr.SafeOffset + pr.DataToSkip
	header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", first, pr.MaxSize, msg.Size))
	c.Writer.WriteHeader(status)

	if c.Request.Method == http.MethodHead {
		return
	}

	g.streamBlocks(c, sess, msg, pr)
}

// parseStreamTokens parses message_id/remote_token as non-negative decimals
// (spec §4.G step 1) and packs local_token (step 2).
func parseStreamTokens(c *gin.Context) (messageID, remoteToken uint64, token tokens.LocalToken, err error) {
	messageID, e1 := strconv.ParseUint(c.Param("messageID"), 10, 64)
	remoteToken, e2 := strconv.ParseUint(c.Param("remoteToken"), 10, 64)
	if e1 != nil || e2 != nil {
		return 0, 0, tokens.LocalToken{}, apperr.New(apperr.KindUnauthorized, "gateway.parseStreamTokens", errors.New("non-numeric message id or token"))
	}
	return messageID, remoteToken, tokens.PackLocalToken(messageID, remoteToken), nil
}

// streamBlocks runs spec §4.G step 8's streaming loop: fetch one block at a
// time from offset = safe_offset, trim the leading data_to_skip bytes once,
// truncate the tail once the response's max_size is reached, and bail out
// the moment the bound transport reports closing.
func (g *Gateway) streamBlocks(c *gin.Context, sess *session.Session, msg *reader.Message, pr parsedRange) {
	transport := &requestTransport{r: c.Request}
	sess.AddTransport(transport)
	defer sess.RemoveTransport(transport)

	flusher, _ := c.Writer.(http.Flusher)

	offset := pr.SafeOffset
	dataToSkip := pr.DataToSkip

	// pr.MaxSize is the last inclusive byte index for a partial range, but
	// the same field holds the (already-exclusive) file size for a full
	// request — parseStreamRange's "max_size = last or size" rule (spec
	// §4.G step 3). Normalise to one exclusive bound here.
	truncateAt := pr.MaxSize
	if pr.Partial {
		truncateAt = pr.MaxSize + 1
	}

	for offset < truncateAt {
		sess.RearmDebounce()

		block, err := g.reader.GetBlock(c.Request.Context(), msg, offset, sess.BlockSize)
		if err != nil {
			// The streaming loop never raises to the HTTP framework (spec
			// §7); the client simply sees a truncated body.
			return
		}
		if len(block) == 0 {
			return
		}
		newOffset := offset + int64(len(block))

		if dataToSkip > 0 {
			if dataToSkip >= int64(len(block)) {
				dataToSkip -= int64(len(block))
				offset = newOffset
				continue
			}
			block = block[dataToSkip:]
			dataToSkip = 0
		}

		if newOffset > truncateAt {
			overshoot := newOffset - truncateAt
			if overshoot < int64(len(block)) {
				block = block[:int64(len(block))-overshoot]
			}
		}

		if transport.Closing() {
			return
		}

		if _, err := c.Writer.Write(block); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		sess.MarkDownloaded(offset)

		offset = newOffset
	}
}

func writeDLNAHeaders(header http.Header) {
	header.Set("transferMode.dlna.org", "Streaming")
	header.Set("TimeSeekRange.dlna.org", "npt=0.00-")
	header.Set("contentFeatures.dlna.org", "DLNA.ORG_OP=01;DLNA.ORG_CI=0;")
}

func writeCORSHeaders(header http.Header) {
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "GET, OPTIONS, PUT")
	header.Set("Access-Control-Allow-Headers", "Range, Content-Type")
}
