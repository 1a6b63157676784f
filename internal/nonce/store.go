package nonce

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/hellolti/internal/cache"
)

const keyPrefix = "lti:nonce:"

// Store persiste nonces sobre un cache.Client.
// El chequeo de replay lo hace el caller: un Find con hit no expirado es
// un replay; un hit expirado (o un miss) permite continuar y re-guardar.
type Store struct {
	cache cache.Client
	now   func() time.Time
}

// NewStore crea un Store sobre el cache dado.
func NewStore(c cache.Client) *Store {
	return &Store{cache: c, now: time.Now}
}

// Save persiste value→expiry. El TTL de la entrada es lo que le queda de
// vida al nonce.
func (s *Store) Save(ctx context.Context, n Nonce) error {
	ttl := time.Until(n.ExpiresAt)
	if ttl <= 0 {
		// Ya vencido: no hay nada que proteger.
		return nil
	}
	err := s.cache.Set(ctx, keyPrefix+n.Value, n.ExpiresAt.UTC().Format(time.RFC3339), ttl)
	if err != nil {
		return fmt.Errorf("nonce: cannot persist value: %w", err)
	}
	return nil
}

// Find busca un nonce por valor. Un hit cuya expiry ya pasó se trata como
// ausente. Retorna (Nonce, true) solo para hits vigentes.
func (s *Store) Find(ctx context.Context, value string) (Nonce, bool) {
	raw, err := s.cache.Get(ctx, keyPrefix+value)
	if err != nil {
		return Nonce{}, false
	}
	exp, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Nonce{}, false
	}
	n := Nonce{Value: value, ExpiresAt: exp}
	if n.Expired(s.now()) {
		return Nonce{}, false
	}
	return n, true
}
