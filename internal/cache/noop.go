package cache

import (
	"context"
	"time"
)

// noopClient implementa Client sin guardar nada: todo Get es miss.
// Permite desactivar el cache (p.ej. en el fetcher de JWKS) manteniendo
// el mismo contrato, sin null-checks en los consumidores.
type noopClient struct{}

// NewNoop crea un cliente de cache que nunca almacena.
func NewNoop() *noopClient { return &noopClient{} }

func (noopClient) Get(ctx context.Context, key string) (string, error) { return "", ErrNotFound }

func (noopClient) Set(ctx context.Context, key, value string, ttl time.Duration) error { return nil }

func (noopClient) Delete(ctx context.Context, key string) error { return nil }

func (noopClient) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func (noopClient) Ping(ctx context.Context) error { return nil }

func (noopClient) Close() error { return nil }

func (noopClient) Stats(ctx context.Context) (Stats, error) {
	return Stats{Driver: "noop"}, nil
}
