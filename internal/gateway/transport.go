package gateway

import "net/http"

// requestTransport adapts one in-flight HTTP request to the
// session.Transport contract (spec §3 "transports: the set of
// currently-bound HTTP connections"). Closing reports true once the
// request's context has been cancelled — client disconnect, timeout, or
// normal completion all cancel it via net/http's server machinery.
type requestTransport struct {
	r *http.Request
}

func (t *requestTransport) Closing() bool {
	select {
	case <-t.r.Context().Done():
		return true
	default:
		return false
	}
}
