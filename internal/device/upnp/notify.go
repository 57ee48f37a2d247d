package upnp

import (
	"encoding/xml"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/smarttv-bridge/bridge/internal/tokens"
)

// transportState is the decoded TransportStatus value spec §4.E-UPnP step
// 5 walks the GENA event body for.
type transportState int

const (
	stateNothing transportState = iota
	statePlaying
	stateStopped
	stateError
)

// propertySet is the minimal GENA eventing envelope needed to find the
// TransportStatus property; renderers nest it under varying namespaces so
// we walk generically rather than binding a strict schema.
type propertySet struct {
	XMLName    xml.Name `xml:"propertyset"`
	Properties []struct {
		Any []struct {
			XMLName xml.Name
			Value   string `xml:",chardata"`
		} `xml:",any"`
	} `xml:"property"`
}

func parseTransportStatus(body []byte) transportState {
	var ps propertySet
	if err := xml.Unmarshal(body, &ps); err != nil {
		return stateNothing
	}
	for _, prop := range ps.Properties {
		for _, field := range prop.Any {
			if field.XMLName.Local != "LastChange" && field.XMLName.Local != "TransportStatus" {
				continue
			}
			switch field.Value {
			case "OK":
				return statePlaying
			case "ERROR_OCCURRED":
				return stateError
			case "STOPPED":
				return stateStopped
			}
			// LastChange events nest TransportStatus inside an
			// escaped XML blob rather than as a direct attribute;
			// substring match covers both forms.
			switch {
			case strings.Contains(field.Value, "TransportStatus val=\"OK\""):
				return statePlaying
			case strings.Contains(field.Value, "TransportStatus val=\"ERROR_OCCURRED\""):
				return stateError
			case strings.Contains(field.Value, "TransportStatus val=\"STOPPED\""):
				return stateStopped
			}
		}
	}
	return stateNothing
}

// deviceStatus is spec §4.E-UPnP's "DeviceStatus{reconnect-fn, playing,
// errored}" record, one per active local_token.
type deviceStatus struct {
	mu        sync.Mutex
	reconnect func()
	playing   bool
	errored   bool
}

// notifyHandler is the keyed registry the UPnP NOTIFY endpoint consults
// (spec §4.E-UPnP steps 2 and 5-6).
type notifyHandler struct {
	mu  sync.Mutex
	log *zap.SugaredLogger
	set map[tokens.LocalToken]*deviceStatus
}

func newNotifyHandler(log *zap.SugaredLogger) *notifyHandler {
	return &notifyHandler{log: log, set: make(map[tokens.LocalToken]*deviceStatus)}
}

func (n *notifyHandler) register(token tokens.LocalToken, reconnect func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.set[token] = &deviceStatus{reconnect: reconnect}
}

func (n *notifyHandler) remove(token tokens.LocalToken) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.set, token)
}

// handle implements the state machine spec §4.E-UPnP step 5 describes:
// PLAYING sets playing; ERROR while playing sets errored; errored+NOTHING
// clears both flags and calls reconnect.
func (n *notifyHandler) handle(token tokens.LocalToken, body []byte) {
	n.mu.Lock()
	status, ok := n.set[token]
	n.mu.Unlock()
	if !ok {
		return
	}

	state := parseTransportStatus(body)

	status.mu.Lock()
	switch state {
	case statePlaying:
		status.playing = true
	case stateError:
		if status.playing {
			status.errored = true
		}
	case stateNothing:
		if status.errored {
			status.errored = false
			status.playing = false
			reconnect := status.reconnect
			status.mu.Unlock()
			if reconnect != nil {
				n.log.Infow("upnp notify: reconnecting after error", "token", token)
				reconnect()
			}
			return
		}
	}
	status.mu.Unlock()
}
