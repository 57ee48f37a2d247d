// Package bot defines the boundary spec §4.I describes and §1 places out of
// scope: a chat-bot conversational shim that turns a forwarded message into
// a device selection and a minted stream token, and that consumes the
// gateway's close notification. Only the interfaces are defined here — no
// admin filter, keyboard rendering, or callback routing is implemented.
package bot

import (
	"context"

	"github.com/smarttv-bridge/bridge/internal/device"
	"github.com/smarttv-bridge/bridge/internal/tokens"
)

// StreamCloseListener is the consumer session.Registry.Remove invokes once
// per stream, when every bound transport has been idle for
// request_gone_timeout (spec §4.G "Idle & close accounting", §4.I).
type StreamCloseListener interface {
	OnStreamClosed(remainingPercent float64, chatID int64, messageID uint64, token tokens.LocalToken)
}

// DeviceSelector turns a forwarded message into a chosen device and, on
// selection, mints a token and issues Play against it (spec §1's
// "discovers nearby devices, offers them as a choice, mints a one-time
// stream token, issues PLAY commands"). The conversational mechanics
// (keyboard rendering, callback-id routing) belong to the implementer;
// this interface is only the contract the gateway/reader/device layers
// expose to it.
type DeviceSelector interface {
	// OfferDevices presents found as choices for the forwarded message and
	// returns once the admin has picked one, or ctx is cancelled.
	OfferDevices(ctx context.Context, chatID int64, messageID uint64, found []device.Device) (device.Device, error)

	// PlayOn mints a stream token for messageID, builds its URL, and calls
	// chosen.Play with it — the "mint token → add_remote_token →
	// device.play(url)" leg of spec §2's data-flow diagram.
	PlayOn(ctx context.Context, chatID int64, messageID uint64, chosen device.Device) (tokens.LocalToken, error)
}
