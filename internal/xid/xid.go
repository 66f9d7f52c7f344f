package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}

// Token returns an opaque 32-byte random token in hex. Unlike New it carries
// no timestamp, so tokens reveal nothing about when they were issued.
func Token() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return New("tok")
	}
	return hex.EncodeToString(buf)
}
