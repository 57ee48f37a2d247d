package upnp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// subscribe and unsubscribe speak the raw GENA eventing verbs goupnp does
// not wrap: SUBSCRIBE/UNSUBSCRIBE are non-standard HTTP methods renderers
// expect on the service's event sub-URL. callback is the bridge's own
// reachable NOTIFY endpoint, never the renderer's own address.
func subscribe(ctx context.Context, eventSub *url.URL, callback string, timeout time.Duration) error {
	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", eventSub.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("CALLBACK", fmt.Sprintf("<%s>", callback))
	req.Header.Set("NT", "upnp:event")
	req.Header.Set("TIMEOUT", fmt.Sprintf("Second-%d", int(timeout.Seconds())))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gena subscribe: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func unsubscribe(ctx context.Context, eventSub *url.URL) error {
	req, err := http.NewRequestWithContext(ctx, "UNSUBSCRIBE", eventSub.String(), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gena unsubscribe: unexpected status %d", resp.StatusCode)
	}
	return nil
}
