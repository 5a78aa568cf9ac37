package registryhttp

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// pendingCreates remembers the Idempotency-Key of creates that failed in transit,
// keyed by token and request body. A user re-submitting the same record picks the
// key up again; any answer from the backend retires it.
type pendingCreates struct {
	mu   sync.Mutex
	keys map[string]string
}

func createFingerprint(token string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(token))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (p *pendingCreates) keyFor(fp string, newKey func() string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if k, ok := p.keys[fp]; ok {
		return k
	}
	return newKey()
}

func (p *pendingCreates) keep(fp, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.keys == nil {
		p.keys = make(map[string]string)
	}
	p.keys[fp] = key
}

func (p *pendingCreates) forget(fp string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.keys, fp)
}
