package oauth

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellolti/internal/claims"
	"github.com/dropDatabas3/hellolti/internal/jwks"
	"github.com/dropDatabas3/hellolti/internal/observability/logger"
	"github.com/dropDatabas3/hellolti/internal/registration"
	"github.com/dropDatabas3/hellolti/internal/token"
)

// DefaultAccessTokenTTL es la vida por defecto de un access token emitido.
const DefaultAccessTokenTTL = time.Hour

// defaultScopes son los scopes de servicio LTI otorgables si no se
// configura otra cosa.
var defaultScopes = []string{
	claims.ScopeAGSLineItem,
	claims.ScopeAGSLineItemReadonly,
	claims.ScopeAGSResultReadonly,
	claims.ScopeAGSScore,
	claims.ScopeNRPSMembership,
	claims.ScopeBasicOutcome,
}

// AssertionGrant responde requests del token endpoint bajo el grant
// client_credentials con client assertion JWT-bearer.
type AssertionGrant struct {
	registrations registration.Repository
	fetcher       *jwks.Fetcher
	accessTokens  *AccessTokenRepository
	allowed       []string
	ttl           time.Duration
	now           func() time.Time
	log           *zap.Logger
}

// GrantOption configura un AssertionGrant.
type GrantOption func(*AssertionGrant)

// WithAllowedScopes reemplaza el set de scopes otorgables.
func WithAllowedScopes(scopes []string) GrantOption {
	return func(g *AssertionGrant) { g.allowed = scopes }
}

// WithAccessTokenTTL fija la vida de los tokens emitidos.
func WithAccessTokenTTL(ttl time.Duration) GrantOption {
	return func(g *AssertionGrant) { g.ttl = ttl }
}

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) GrantOption {
	return func(g *AssertionGrant) { g.now = now }
}

// NewAssertionGrant crea el grant.
func NewAssertionGrant(regs registration.Repository, fetcher *jwks.Fetcher, tokens *AccessTokenRepository, opts ...GrantOption) *AssertionGrant {
	g := &AssertionGrant{
		registrations: regs,
		fetcher:       fetcher,
		accessTokens:  tokens,
		allowed:       defaultScopes,
		ttl:           DefaultAccessTokenTTL,
		now:           time.Now,
		log:           logger.Named("oauth.grant"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanRespond indica si el request corresponde a este grant: grant type
// client_credentials con un client assertion JWT-bearer presente.
func (g *AssertionGrant) CanRespond(req AccessTokenRequest) bool {
	return req.GrantType == GrantClientCredentials &&
		req.ClientAssertionType == AssertionTypeJWTBearer &&
		req.ClientAssertion != ""
}

// RespondToAccessTokenRequest valida el assertion y emite el access token.
// Ningún token se emite ni persiste si cualquier paso falla.
func (g *AssertionGrant) RespondToAccessTokenRequest(ctx context.Context, req AccessTokenRequest) (*AccessTokenResponse, error) {
	assertion, err := token.Parse(req.ClientAssertion)
	if err != nil {
		return nil, invalidRequest("client assertion is malformed: %v", err)
	}

	reg, err := g.resolveRegistration(ctx, assertion)
	if err != nil {
		return nil, err
	}
	if err := g.checkExpiry(assertion); err != nil {
		return nil, err
	}
	if err := g.verifyAssertion(ctx, assertion, reg); err != nil {
		return nil, err
	}
	scopes, err := g.validateScopes(req.Scopes)
	if err != nil {
		return nil, err
	}
	if reg.PlatformKeyChain == nil {
		return nil, invalidRequest("registration %q has no platform key chain to sign access tokens", reg.ID)
	}

	builder := token.NewBuilder(token.WithTTL(g.ttl), token.WithClock(g.now))
	access, err := builder.Build(nil, map[string]any{
		claims.NameIssuer:   reg.Platform.Audience,
		claims.NameAudience: reg.ClientID,
		claims.NameSubject:  reg.ClientID,
		"scopes":            scopes,
	}, reg.PlatformKeyChain)
	if err != nil {
		return nil, invalidRequest("cannot issue access token: %v", err)
	}

	expiresAt := g.now().Add(g.ttl)
	g.accessTokens.Persist(ctx, &AccessToken{
		ID:             access.GetString("jti"),
		RegistrationID: reg.ID,
		ClientID:       reg.ClientID,
		Scopes:         scopes,
		ExpiresAt:      expiresAt.Unix(),
	})

	g.log.Info("access token issued",
		logger.RegistrationID(reg.ID), logger.ClientID(reg.ClientID), logger.Count(len(scopes)))

	return &AccessTokenResponse{
		AccessToken: access.Serialized(),
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(g.ttl.Seconds()),
		Scope:       strings.Join(scopes, " "),
	}, nil
}

// resolveRegistration ubica la registration por los claims iss/sub del
// assertion (la tool se identifica con su client id en ambos).
func (g *AssertionGrant) resolveRegistration(ctx context.Context, assertion *token.Token) (*registration.Registration, error) {
	iss := assertion.GetString(claims.NameIssuer)
	sub := assertion.GetString(claims.NameSubject)
	if iss == "" && sub == "" {
		return nil, invalidRequest("client assertion has no iss nor sub claim")
	}
	for _, clientID := range []string{sub, iss} {
		if clientID == "" {
			continue
		}
		reg, err := g.registrations.FindByClientID(ctx, clientID)
		if err == nil {
			return reg, nil
		}
	}
	return nil, invalidRequest("no registration found for assertion issuer %q and subject %q", iss, sub)
}

func (g *AssertionGrant) checkExpiry(assertion *token.Token) error {
	exp, err := assertion.GetMandatory("exp")
	if err != nil {
		return invalidGrant("client assertion has no exp claim")
	}
	var expiresAt int64
	switch v := exp.(type) {
	case float64:
		expiresAt = int64(v)
	case int64:
		expiresAt = v
	default:
		return invalidGrant("client assertion exp claim is not a number")
	}
	if g.now().Unix() >= expiresAt {
		return invalidGrant("client assertion expired")
	}
	return nil
}

// verifyAssertion valida la firma contra la tool key chain configurada, o
// contra la clave resuelta desde la tool JWKS URL.
func (g *AssertionGrant) verifyAssertion(ctx context.Context, assertion *token.Token, reg *registration.Registration) error {
	if reg.ToolKeyChain != nil {
		if !token.VerifyWithChain(assertion, reg.ToolKeyChain) {
			return invalidGrant("client assertion signature is not valid")
		}
		return nil
	}
	if reg.ToolJWKSURL == "" {
		return invalidRequest("registration %q has no tool key chain nor JWKS URL", reg.ID)
	}
	key, err := g.fetcher.FetchKey(ctx, reg.ToolJWKSURL, assertion.KID())
	if err != nil {
		return invalidRequest("cannot resolve assertion verification key: %v", err)
	}
	if !token.VerifyWithKey(assertion, key) {
		return invalidGrant("client assertion signature is not valid")
	}
	return nil
}

// validateScopes intersecta lo pedido contra lo otorgable. Un scope
// pedido fuera del set otorgable es un error, no se ignora en silencio.
// Sin scopes pedidos se otorga el set completo.
func (g *AssertionGrant) validateScopes(requested []string) ([]string, error) {
	if len(requested) == 0 {
		out := make([]string, len(g.allowed))
		copy(out, g.allowed)
		return out, nil
	}
	out := make([]string, 0, len(requested))
	for _, s := range requested {
		if !contains(g.allowed, s) {
			return nil, invalidScope("scope %q is not grantable", s)
		}
		out = append(out, s)
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, it := range list {
		if it == s {
			return true
		}
	}
	return false
}
