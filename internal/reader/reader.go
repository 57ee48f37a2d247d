// Package reader implements spec §4.C: a multi-datacentre session pool
// that authenticates once per DC, persists per-DC keys across restarts,
// and serves fixed-size block reads with retry on fake rate-limit
// signals, in front of an LRU-capped message cache.
package reader

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"

	"github.com/smarttv-bridge/bridge/internal/apperr"
	"github.com/smarttv-bridge/bridge/internal/config"
)

// UpdateHandler is the dispatcher spec §4.C's register() attaches — the
// bot conversational shim (spec §4.I, out of this module's scope) is the
// only intended implementer.
type UpdateHandler interface {
	OnNewMessage(ctx context.Context, chatID int64, messageID uint64) error
	OnCallback(ctx context.Context, chatID int64, data []byte) error
}

// Reader is the process-wide chat-file reader (component C).
type Reader struct {
	cfg *config.Config
	log *zap.SugaredLogger

	client     *telegram.Client
	primaryAPI *tg.Client

	keys *keyStore

	mu      sync.RWMutex
	dcs     map[int]*dcSession
	handler UpdateHandler

	cache *lru.Cache[uint64, *Message]

	runErr chan error
}

// New builds a Reader that has not yet connected; call Start to do so.
func New(cfg *config.Config, log *zap.SugaredLogger) (*Reader, error) {
	cache, err := lru.New[uint64, *Message](cfg.MessageCacheSize)
	if err != nil {
		return nil, fmt.Errorf("reader: build message cache: %w", err)
	}

	r := &Reader{
		cfg:   cfg,
		log:   log,
		keys:  newKeyStore(cfg.SessionName + ".keys"),
		dcs:   make(map[int]*dcSession),
		cache: cache,
	}
	if err := r.keys.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Register attaches the incoming-message/inline-callback dispatcher (spec
// §4.C register()). Each incoming update reads the handler registered at
// that moment, so it may be called before or after Start.
func (r *Reader) Register(h UpdateHandler) {
	r.mu.Lock()
	r.handler = h
	r.mu.Unlock()
}

// Start opens the primary session, fetches the datacentre list, and
// ensures a media session exists for every DC (spec §4.C start()).
func (r *Reader) Start(ctx context.Context) error {
	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		return r.dispatchMessage(ctx, u.Message)
	})
	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		return r.dispatchMessage(ctx, u.Message)
	})

	r.client = telegram.NewClient(r.cfg.APIID, r.cfg.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: r.cfg.SessionName},
		UpdateHandler:  dispatcher,
	})

	r.runErr = make(chan error, 1)
	ready := make(chan error, 1)

	go func() {
		r.runErr <- r.client.Run(ctx, func(innerCtx context.Context) error {
			status, err := r.client.Auth().Status(innerCtx)
			if err != nil {
				ready <- fmt.Errorf("auth status: %w", err)
				return err
			}
			if !status.Authorized {
				if _, err := r.client.Auth().Bot(innerCtx, r.cfg.Token); err != nil {
					ready <- fmt.Errorf("bot auth: %w", err)
					return err
				}
			}

			r.primaryAPI = r.client.API()

			if err := r.connectAllDCs(innerCtx); err != nil {
				ready <- err
				return err
			}

			ready <- nil
			<-innerCtx.Done()
			return nil
		})
	}()

	select {
	case err := <-ready:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// connectAllDCs fetches help.getConfig and ensures every reported DC has a
// connected media session, per spec §4.C start().
func (r *Reader) connectAllDCs(ctx context.Context) error {
	cfg, err := r.primaryAPI.HelpGetConfig(ctx)
	if err != nil {
		return fmt.Errorf("reader: help.getConfig: %w", err)
	}

	seen := make(map[int]struct{})
	for _, opt := range cfg.DCOptions {
		if _, ok := seen[opt.ID]; ok {
			continue
		}
		seen[opt.ID] = struct{}{}

		dc, err := r.connectDC(ctx, opt.ID, cfg.DCOptions)
		if err != nil {
			return fmt.Errorf("reader: connect dc %d: %w", opt.ID, err)
		}
		r.mu.Lock()
		r.dcs[opt.ID] = dc
		r.mu.Unlock()
	}
	return nil
}

func (r *Reader) dispatchMessage(ctx context.Context, msgClass tg.MessageClass) error {
	r.mu.RLock()
	h := r.handler
	r.mu.RUnlock()
	if h == nil {
		return nil
	}
	msg, ok := msgClass.(*tg.Message)
	if !ok {
		return nil
	}
	peer, ok := msg.PeerID.(*tg.PeerChannel)
	var chatID int64
	if ok {
		chatID = peer.ChannelID
	}
	return h.OnNewMessage(ctx, chatID, uint64(msg.ID))
}

// GetMessage resolves message_id against the primary session, caching by
// message_id in an LRU cache of cfg.MessageCacheSize entries; an evicted
// message is fetched again (spec §4.C get_message()).
func (r *Reader) GetMessage(ctx context.Context, chatID int64, messageID uint64) (*Message, error) {
	if cached, ok := r.cache.Get(messageID); ok {
		return cached, nil
	}

	res, err := r.primaryAPI.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
		Channel: &tg.InputChannel{ChannelID: chatID},
		ID:      []tg.InputMessageClass{&tg.InputMessageID{ID: int(messageID)}},
	})
	if err != nil {
		return nil, apperr.New(apperr.KindNotFound, "reader.GetMessage", err)
	}

	msgs, ok := res.(*tg.MessagesChannelMessages)
	if !ok || len(msgs.Messages) == 0 {
		return nil, apperr.New(apperr.KindNotFound, "reader.GetMessage", fmt.Errorf("message %d not found in channel", messageID))
	}

	tgMsg, ok := msgs.Messages[0].(*tg.Message)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "reader.GetMessage", fmt.Errorf("message %d is not a message kind", messageID))
	}

	m, err := messageFromTG(chatID, tgMsg)
	if err != nil {
		return nil, apperr.New(apperr.KindNotFound, "reader.GetMessage", err)
	}

	r.cache.Add(messageID, m)
	return m, nil
}

// GetBlock fetches at most block_size bytes from offset, retrying
// indefinitely on a fake flood-wait signal (spec §4.C get_block()). A
// short returned buffer signals end-of-file.
func (r *Reader) GetBlock(ctx context.Context, msg *Message, offset int64, blockSize int64) ([]byte, error) {
	dc, err := r.dcFor(msg.DCID)
	if err != nil {
		return nil, err
	}

	for {
		res, err := dc.api.UploadGetFile(ctx, &tg.UploadGetFileRequest{
			Location: msg.Location(),
			Offset:   offset,
			Limit:    int(blockSize),
		})
		if err == nil {
			file, ok := res.(*tg.UploadFile)
			if !ok {
				return nil, fmt.Errorf("reader: unexpected upload.getFile response type")
			}
			return file.Bytes, nil
		}

		if isFakeFloodWait(err) {
			r.log.Debugw("fake flood wait on block read, retrying", "dc", msg.DCID, "offset", offset, "wait", r.cfg.FileFakeFWWait)
			select {
			case <-time.After(r.cfg.FileFakeFWWait):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return nil, fmt.Errorf("reader: upload.getFile: %w", err)
	}
}

// isFakeFloodWait reports whether err is the "flood wait used as a
// backpressure hint on file reads" spec §4.C describes. The upstream
// library surfaces this as an RPC error whose type tag starts with
// "FLOOD_WAIT".
func isFakeFloodWait(err error) bool {
	return tgerr.Is(err, "FLOOD_WAIT")
}

func (r *Reader) dcFor(dcID int) (*dcSession, error) {
	r.mu.RLock()
	dc, ok := r.dcs[dcID]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.New(apperr.KindDisconnected, "reader.dcFor", fmt.Errorf("no session for dc %d", dcID))
	}
	return dc, nil
}

// HealthCheck fails with apperr.KindDisconnected unless every media
// session and the primary session report connected (spec §4.C
// health_check()).
func (r *Reader) HealthCheck(ctx context.Context) error {
	if r.client == nil {
		return apperr.New(apperr.KindDisconnected, "reader.HealthCheck", fmt.Errorf("not started"))
	}
	select {
	case err := <-r.runErr:
		// Put the result back so every later check still sees it.
		r.runErr <- err
		return apperr.New(apperr.KindDisconnected, "reader.HealthCheck", fmt.Errorf("primary session ended: %w", err))
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, dc := range r.dcs {
		if !dc.connected() {
			return apperr.New(apperr.KindDisconnected, "reader.HealthCheck", fmt.Errorf("dc %d not connected", id))
		}
	}
	return nil
}

// ReplyMessage posts text as a reply to messageID (spec §4.C
// reply_message()). HTML entities in text are unescaped and the result is
// sent as plain text; HTML tags are not turned into formatting.
func (r *Reader) ReplyMessage(ctx context.Context, chatID int64, messageID uint64, text string) error {
	_, err := r.primaryAPI.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:     &tg.InputPeerChannel{ChannelID: chatID},
		Message:  html.UnescapeString(text),
		ReplyTo:  &tg.InputReplyToMessage{ReplyToMsgID: int(messageID)},
		RandomID: time.Now().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("reader: reply_message: %w", err)
	}
	return nil
}

// Close tears down every DC session. The primary connection is not closed
// here; it runs until the context passed to Start is cancelled.
func (r *Reader) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dc := range r.dcs {
		dc.close()
	}
}
