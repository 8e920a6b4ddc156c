package perk

import (
	"crypto/sha1"
	"encoding/hex"
	"sync"
)

// Fingerprint identifies a perk by its configuration. It is stable across
// restarts and is used as idempotency key and as map key for owned perks.
type Fingerprint string

// fingerprint hashes the type tag followed by fields in the given order.
// Every part is terminated by a NUL byte so shifted boundaries do not collide.
func fingerprint(t Type, fields ...string) Fingerprint {
	h := sha1.New()
	h.Write([]byte(t))
	h.Write([]byte{0})
	for _, f := range fields {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

type lazyID struct {
	once  sync.Once
	value Fingerprint
}

func (l *lazyID) get(compute func() Fingerprint) Fingerprint {
	l.once.Do(func() {
		l.value = compute()
	})
	return l.value
}
