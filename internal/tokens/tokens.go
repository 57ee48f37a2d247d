// Package tokens implements spec §3/§4.B: remote-token generation,
// local-token packing, and stream URL construction.
package tokens

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
)

// LocalToken is the stream-session key, spec's "(remote_token << 64) ^
// message_id". Since message_id is a positive 64-bit value, the XOR never
// crosses the bit boundary between the two halves, so the packed 128-bit
// value is bit-for-bit the concatenation {RemoteToken, MessageID} — a
// comparable Go struct usable directly as a map key, with no need for a
// true int128 type.
type LocalToken struct {
	RemoteToken uint64
	MessageID   uint64
}

// PackLocalToken mirrors spec §3's serialize_token(message_id, remote_token).
func PackLocalToken(messageID, remoteToken uint64) LocalToken {
	return LocalToken{RemoteToken: remoteToken, MessageID: messageID}
}

// Big renders the token as the 128-bit integer the spec's formula produces,
// for logging and for any wire path that needs the packed decimal form.
func (t LocalToken) Big() *big.Int {
	hi := new(big.Int).Lsh(new(big.Int).SetUint64(t.RemoteToken), 64)
	return hi.Xor(hi, new(big.Int).SetUint64(t.MessageID))
}

func (t LocalToken) String() string {
	return t.Big().String()
}

// ParseLocalToken inverts Big/String: it splits the packed 128-bit decimal
// value back into {RemoteToken, MessageID} by shifting out the low 64
// bits, the same split PackLocalToken performs in struct form.
func ParseLocalToken(s string) (LocalToken, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return LocalToken{}, fmt.Errorf("tokens: invalid local token %q", s)
	}
	mask := new(big.Int).SetUint64(^uint64(0))
	messageID := new(big.Int).And(v, mask)
	remoteToken := new(big.Int).Rsh(v, 64)
	if !remoteToken.IsUint64() || !messageID.IsUint64() {
		return LocalToken{}, fmt.Errorf("tokens: local token %q out of range", s)
	}
	return LocalToken{RemoteToken: remoteToken.Uint64(), MessageID: messageID.Uint64()}, nil
}

// GenerateRemoteToken returns a cryptographically random 64-bit token
// (spec §3: "remote_token: 64-bit random"). crypto/rand is required, not
// math/rand, because the remote token is the stream's only access control
// (spec §1 Non-goals: "authentication beyond per-stream opaque tokens") —
// it must be unguessable.
func GenerateRemoteToken() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("tokens: generate remote token: %w", err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// BuildStreamURL builds the URL the spec's §6 "URL format" describes:
// http://{listen_host}:{listen_port}/stream/{message_id}/{remote_token}.
func BuildStreamURL(scheme, host string, port int, messageID, remoteToken uint64) string {
	return fmt.Sprintf("%s://%s:%d/stream/%d/%d", scheme, host, port, messageID, remoteToken)
}
