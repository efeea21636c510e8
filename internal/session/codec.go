package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Codec signs session ids so a cookie cannot be forged or truncated into
// another user's session. The cookie value is "<id>.<hex hmac>".
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec.
func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// Encode returns the signed cookie value for a session id.
func (c *Codec) Encode(id string) string {
	return id + "." + c.sign(id)
}

// Decode verifies the signature and returns the session id.
func (c *Codec) Decode(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(c.sign(id)), []byte(sig)) {
		return "", false
	}
	return id, true
}

func (c *Codec) sign(id string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}
