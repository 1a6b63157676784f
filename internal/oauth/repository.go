package oauth

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellolti/internal/cache"
	"github.com/dropDatabas3/hellolti/internal/observability/logger"
)

const (
	tokenPrefix   = "lti:oauth:token:"
	revokedPrefix = "lti:oauth:revoked:"
)

// AccessTokenRepository persiste access tokens emitidos sobre un
// cache.Client. Toda la persistencia es best effort: un error del cache
// se loguea y no interrumpe el flujo principal; un miss en lookup
// simplemente significa "no encontrado" o "no revocado".
type AccessTokenRepository struct {
	cache cache.Client
	log   *zap.Logger
}

// NewAccessTokenRepository crea el repositorio sobre el cache dado.
func NewAccessTokenRepository(c cache.Client) *AccessTokenRepository {
	return &AccessTokenRepository{cache: c, log: logger.Named("oauth.tokens")}
}

// Get busca un token emitido por id. Retorna (nil, false) en miss o error.
func (r *AccessTokenRepository) Get(ctx context.Context, id string) (*AccessToken, bool) {
	raw, err := r.cache.Get(ctx, tokenPrefix+id)
	if err != nil {
		if !cache.IsNotFound(err) {
			r.log.Warn("access token lookup failed", logger.Key(id), logger.Err(err))
		}
		return nil, false
	}
	var tok AccessToken
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		r.log.Warn("stored access token is corrupt", logger.Key(id), logger.Err(err))
		return nil, false
	}
	return &tok, true
}

// Persist guarda el token hasta su expiración.
func (r *AccessTokenRepository) Persist(ctx context.Context, tok *AccessToken) {
	ttl := time.Until(time.Unix(tok.ExpiresAt, 0))
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		r.log.Warn("cannot serialize access token", logger.Key(tok.ID), logger.Err(err))
		return
	}
	if err := r.cache.Set(ctx, tokenPrefix+tok.ID, string(raw), ttl); err != nil {
		r.log.Warn("cannot persist access token", logger.Key(tok.ID), logger.Err(err))
	}
}

// Revoke marca el token como revocado hasta su expiración natural.
func (r *AccessTokenRepository) Revoke(ctx context.Context, id string, until time.Time) {
	ttl := time.Until(until)
	if ttl <= 0 {
		return
	}
	if err := r.cache.Set(ctx, revokedPrefix+id, "1", ttl); err != nil {
		r.log.Warn("cannot persist token revocation", logger.Key(id), logger.Err(err))
	}
}

// IsRevoked indica si el token fue revocado. Un miss (o un error de
// cache) cuenta como no revocado.
func (r *AccessTokenRepository) IsRevoked(ctx context.Context, id string) bool {
	_, err := r.cache.Get(ctx, revokedPrefix+id)
	if err != nil {
		if !cache.IsNotFound(err) {
			r.log.Warn("revocation lookup failed", logger.Key(id), logger.Err(err))
		}
		return false
	}
	return true
}
