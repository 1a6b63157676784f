// Package jwks resuelve claves de verificación por key id desde documentos
// JWKS remotos, con cache del documento completo por URL.
package jwks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/hellolti/internal/cache"
	"github.com/dropDatabas3/hellolti/internal/keys"
	"github.com/dropDatabas3/hellolti/internal/observability/logger"
)

// DefaultCacheTTL es el TTL del documento JWKS cacheado.
const DefaultCacheTTL = time.Hour

const cachePrefix = "lti:jwks:"

// maxBodySize limita la respuesta del endpoint JWKS remoto.
const maxBodySize = 1 << 20 // 1MB

type document struct {
	Keys []map[string]any `json:"keys"`
}

// Fetcher resuelve claves por (URL, kid). Los errores de cache se loguean
// y degradan a miss; los errores de red/parseo son fatales para ese fetch.
type Fetcher struct {
	cache   cache.Client
	http    *http.Client
	ttl     time.Duration
	observe func(time.Duration)
	log     *zap.Logger
	sf      singleflight.Group
}

// Option configura un Fetcher.
type Option func(*Fetcher)

// WithHTTPClient inyecta el cliente HTTP (timeouts/circuit-breaking son
// responsabilidad del caller; el core no impone ninguno).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.http = c }
}

// WithCacheTTL fija el TTL del documento cacheado.
func WithCacheTTL(ttl time.Duration) Option {
	return func(f *Fetcher) { f.ttl = ttl }
}

// WithFetchObserver registra un callback que recibe la duración de cada
// fetch por red (los hits de cache no lo disparan). Pensado para colgar
// métricas sin acoplar el fetcher a un registry.
func WithFetchObserver(fn func(time.Duration)) Option {
	return func(f *Fetcher) { f.observe = fn }
}

// NewFetcher crea un Fetcher sobre el cache dado.
// Para operar sin cache usar cache.NewNoop().
func NewFetcher(c cache.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		cache: c,
		http:  http.DefaultClient,
		ttl:   DefaultCacheTTL,
		log:   logger.Named("jwks"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchKey resuelve la clave pública identificada por keyID dentro del
// key set publicado en jwksURL. Orden: cache → scan → red → scan.
func (f *Fetcher) FetchKey(ctx context.Context, jwksURL, keyID string) (*keys.Key, error) {
	if cached, ok := f.cacheGet(ctx, jwksURL); ok {
		if key, ok := scan(cached, keyID); ok {
			return key, nil
		}
	}

	doc, err := f.fetch(ctx, jwksURL)
	if err != nil {
		return nil, err
	}
	if key, ok := scan(doc, keyID); ok {
		return key, nil
	}
	return nil, fmt.Errorf("jwks: key %q not found in key set %q", keyID, jwksURL)
}

// cacheGet intenta leer el documento cacheado. Cualquier error se loguea
// y cuenta como miss.
func (f *Fetcher) cacheGet(ctx context.Context, jwksURL string) (*document, bool) {
	raw, err := f.cache.Get(ctx, cachePrefix+jwksURL)
	if err != nil {
		if !cache.IsNotFound(err) {
			f.log.Warn("cache read failed, falling back to network",
				logger.JWKSURL(jwksURL), logger.Err(err))
		}
		return nil, false
	}
	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		f.log.Warn("cached JWKS document is corrupt, refetching",
			logger.JWKSURL(jwksURL), logger.Err(err))
		return nil, false
	}
	return &doc, true
}

// fetch trae el documento por red (deduplicado por URL con singleflight)
// y lo cachea en caso de éxito.
func (f *Fetcher) fetch(ctx context.Context, jwksURL string) (*document, error) {
	v, err, _ := f.sf.Do(jwksURL, func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
		if err != nil {
			return nil, fmt.Errorf("jwks: invalid URL %q: %w", jwksURL, err)
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		if f.observe != nil {
			defer func() { f.observe(time.Since(start)) }()
		}
		resp, err := f.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("jwks: cannot fetch key set %q: %w", jwksURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("jwks: key set %q returned status %d", jwksURL, resp.StatusCode)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("jwks: cannot read key set %q: %w", jwksURL, err)
		}
		var doc document
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("jwks: key set %q is not valid JSON: %w", jwksURL, err)
		}

		if err := f.cache.Set(ctx, cachePrefix+jwksURL, string(body), f.ttl); err != nil {
			f.log.Warn("cache write failed, continuing without cache",
				logger.JWKSURL(jwksURL), logger.Err(err))
		}
		return &doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*document), nil
}

// scan busca la entrada con el kid dado dentro del documento.
func scan(doc *document, keyID string) (*keys.Key, bool) {
	for _, entry := range doc.Keys {
		kid, _ := entry["kid"].(string)
		if kid != keyID {
			continue
		}
		alg, _ := entry["alg"].(string)
		if alg == "" {
			alg = keys.AlgRS256
		}
		return keys.NewKeyFromJWK(entry, keys.WithAlgorithm(alg)), true
	}
	return nil, false
}
