package nonce_test

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/hellolti/internal/cache"
	"github.com/dropDatabas3/hellolti/internal/nonce"
)

func TestGenerate_ValuesAreUniqueAndBound(t *testing.T) {
	g := nonce.NewGenerator()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n, err := g.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if n.Value == "" || seen[n.Value] {
			t.Fatalf("value empty or repeated: %q", n.Value)
		}
		seen[n.Value] = true
		if time.Until(n.ExpiresAt) <= 0 {
			t.Fatalf("expiry must be in the future")
		}
	}
}

func TestGenerate_TTLOverride(t *testing.T) {
	at := time.Now()
	g := nonce.NewGenerator(nonce.WithClock(func() time.Time { return at }))

	n, err := g.Generate(30 * time.Second)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := n.ExpiresAt.Sub(at); got != 30*time.Second {
		t.Fatalf("override ttl: got %v", got)
	}

	n, err = g.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := n.ExpiresAt.Sub(at); got != nonce.DefaultTTL {
		t.Fatalf("default ttl: got %v", got)
	}
}

func TestStore_SaveThenFindIsReplayWithinTTL(t *testing.T) {
	ctx := context.Background()
	store := nonce.NewStore(cache.NewMemory(""))

	n, err := nonce.NewGenerator().Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := store.Save(ctx, n); err != nil {
		t.Fatalf("save: %v", err)
	}

	found, ok := store.Find(ctx, n.Value)
	if !ok {
		t.Fatalf("nonce saved within TTL must be found (replay signal)")
	}
	if found.Value != n.Value {
		t.Fatalf("value mismatch")
	}
}

func TestStore_ExpiredHitIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := nonce.NewStore(cache.NewMemory(""))

	// Guardado con expiry en el pasado: Save lo descarta y Find no lo ve.
	n := nonce.Nonce{Value: "stale", ExpiresAt: time.Now().Add(-time.Minute)}
	if err := store.Save(ctx, n); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := store.Find(ctx, "stale"); ok {
		t.Fatalf("expired nonce must read as not found")
	}
}

func TestStore_MissOnUnknownValue(t *testing.T) {
	store := nonce.NewStore(cache.NewMemory(""))
	if _, ok := store.Find(context.Background(), "never-saved"); ok {
		t.Fatalf("unknown value must be a miss")
	}
}
