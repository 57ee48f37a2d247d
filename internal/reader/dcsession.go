package reader

import (
	"context"
	"fmt"
	"sync"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
)

// dcState is the per-DC authentication state machine spec §9 names:
// "Unknown → Exported → Imported → Connected; persisted keys short-circuit
// from Unknown to Connected."
type dcState int

const (
	dcUnknown dcState = iota
	dcExported
	dcImported
	dcConnected
)

// dcSession is one authenticated media session bound to a single
// datacentre (spec §3 "Multi-DC session map"). Telegram pins file content
// to the DC it was uploaded to, so every DC the primary session reports
// needs its own logged-in client before get_block can read from it.
type dcSession struct {
	mu    sync.Mutex
	dcID  int
	state dcState

	client *telegram.Client
	api    *tg.Client

	cancel context.CancelFunc
	ready  chan struct{}
}

// connectDC brings dc up to dcConnected, either by resuming a persisted
// auth key (short-circuiting Unknown→Connected) or by exporting the
// primary session's authorization and importing it against the target DC.
func (r *Reader) connectDC(ctx context.Context, dcID int, dcList []tg.DCOption) (*dcSession, error) {
	dc := &dcSession{dcID: dcID, ready: make(chan struct{})}

	storage := &dcSessionStorage{store: r.keys, dcID: dcID}
	hasPersisted, _ := r.keys.get(dcID)

	client := telegram.NewClient(r.cfg.APIID, r.cfg.APIHash, telegram.Options{
		DC:             dcID,
		DCList:         session.DCList{Options: dcList},
		SessionStorage: storage,
		NoUpdates:      true,
	})
	dc.client = client

	runCtx, cancel := context.WithCancel(context.Background())
	dc.cancel = cancel

	connected := make(chan error, 1)
	go func() {
		connected <- client.Run(runCtx, func(innerCtx context.Context) error {
			dc.api = client.API()

			if len(hasPersisted) == 0 {
				if err := r.importAuth(innerCtx, dc); err != nil {
					return fmt.Errorf("reader: dc %d import auth: %w", dcID, err)
				}
			}

			dc.mu.Lock()
			dc.state = dcConnected
			dc.mu.Unlock()
			close(dc.ready)

			<-innerCtx.Done()
			return nil
		})
	}()

	select {
	case <-dc.ready:
		return dc, nil
	case err := <-connected:
		if err != nil {
			return nil, fmt.Errorf("reader: dc %d connect: %w", dcID, err)
		}
		return dc, nil
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}
}

// importAuth exports the primary session's authorization for dc's
// datacentre and imports it into dc's own client, the Exported→Imported
// leg of spec §9's state machine.
func (r *Reader) importAuth(ctx context.Context, dc *dcSession) error {
	dc.mu.Lock()
	dc.state = dcExported
	dc.mu.Unlock()

	exported, err := r.primaryAPI.AuthExportAuthorization(ctx, dc.dcID)
	if err != nil {
		return fmt.Errorf("export authorization: %w", err)
	}

	dc.mu.Lock()
	dc.state = dcImported
	dc.mu.Unlock()

	_, err = dc.api.AuthImportAuthorization(ctx, &tg.AuthImportAuthorizationRequest{
		ID:    exported.ID,
		Bytes: exported.Bytes,
	})
	if err != nil {
		return fmt.Errorf("import authorization: %w", err)
	}
	return nil
}

func (dc *dcSession) connected() bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.state == dcConnected
}

func (dc *dcSession) close() {
	if dc.cancel != nil {
		dc.cancel()
	}
}
