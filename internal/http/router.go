package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/hellolti/internal/oauth"
	"github.com/dropDatabas3/hellolti/internal/registration"
)

// NewRouter arma el router completo del servidor LTI.
// Los chequeos de método/accept/bearer cortan antes de cada handler.
func NewRouter(h *Handlers, regs registration.Repository, accessTokens *oauth.AccessTokenRepository, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	// Health
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	// Key sets públicos
	r.Method(http.MethodGet, "/.well-known/jwks/{keySet}.json",
		RequireAccept("application/json", http.HandlerFunc(h.JWKS)))

	// Handshake OIDC
	r.Get("/lti/login", h.LoginInitiate)
	r.Get("/lti/oidc/initiation", h.OIDCInitiation)
	r.Post("/lti/oidc/initiation", h.OIDCInitiation)
	r.Get("/lti/oidc/auth", h.OIDCAuthentication)
	r.Post("/lti/oidc/auth", h.OIDCAuthentication)

	// Validación de launches
	r.Method(http.MethodPost, "/lti/launch/platform",
		RequireMethod(http.MethodPost, http.HandlerFunc(h.ValidatePlatformLaunch)))
	r.Method(http.MethodPost, "/lti/launch/tool",
		RequireMethod(http.MethodPost, http.HandlerFunc(h.ValidateToolLaunch)))

	// OAuth2
	r.Method(http.MethodPost, "/oauth2/token",
		RequireMethod(http.MethodPost, http.HandlerFunc(h.Token)))

	// Servicios protegidos por bearer
	r.Method(http.MethodGet, "/lti/services/token-info",
		RequireBearer(regs, accessTokens, http.HandlerFunc(h.TokenInfo)))

	// Middlewares de afuera hacia adentro: request id, recover, security
	// headers, métricas y logging.
	var handler http.Handler = r
	handler = WithLogging(handler)
	handler = WithMetrics(handler)
	handler = WithSecurityHeaders(handler)
	handler = WithRecover(handler)
	handler = WithRequestID(handler)
	return handler
}
