// Package nonce genera y persiste valores de un solo uso con TTL,
// usados para proteger los launches contra replay.
package nonce

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// DefaultTTL es la vida por defecto de un nonce.
const DefaultTTL = 600 * time.Second

// Nonce es un valor aleatorio con un instante de expiración absoluto.
type Nonce struct {
	Value     string
	ExpiresAt time.Time
}

// Expired indica si el nonce ya venció.
func (n Nonce) Expired(now time.Time) bool {
	return now.After(n.ExpiresAt)
}

// Generator produce nonces criptográficamente aleatorios.
type Generator struct {
	ttl time.Duration
	now func() time.Time
}

// GeneratorOption configura un Generator.
type GeneratorOption func(*Generator)

// WithTTL fija el TTL por defecto del generador.
func WithTTL(ttl time.Duration) GeneratorOption {
	return func(g *Generator) { g.ttl = ttl }
}

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator crea un Generator con TTL default de 600s.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produce un nonce nuevo. ttlOverride, si se pasa, reemplaza el
// TTL por defecto solo para este nonce.
func (g *Generator) Generate(ttlOverride ...time.Duration) (Nonce, error) {
	ttl := g.ttl
	if len(ttlOverride) > 0 && ttlOverride[0] > 0 {
		ttl = ttlOverride[0]
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return Nonce{}, fmt.Errorf("nonce: cannot read random source: %w", err)
	}
	return Nonce{
		Value:     base64.RawURLEncoding.EncodeToString(b),
		ExpiresAt: g.now().Add(ttl),
	}, nil
}
