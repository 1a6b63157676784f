package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellolti/internal/cache"
	"github.com/dropDatabas3/hellolti/internal/keys"
	"github.com/dropDatabas3/hellolti/internal/launch"
	"github.com/dropDatabas3/hellolti/internal/oauth"
	"github.com/dropDatabas3/hellolti/internal/observability/logger"
	"github.com/dropDatabas3/hellolti/internal/oidc"
	"github.com/dropDatabas3/hellolti/internal/registration"
	"github.com/dropDatabas3/hellolti/internal/token"
)

// Handlers agrupa los endpoints del servidor LTI con sus dependencias.
type Handlers struct {
	keys          keys.Repository
	registrations registration.Repository
	initiator     *oidc.Initiator
	requests      *oidc.RequestBuilder
	responder     *oidc.Responder
	platform      *launch.PlatformLaunchValidator
	tool          *launch.ToolLaunchValidator
	grant         *oauth.AssertionGrant
	accessTokens  *oauth.AccessTokenRepository
	cache         cache.Client
	log           *zap.Logger
}

// NewHandlers crea el set de handlers.
func NewHandlers(
	keyRepo keys.Repository,
	regs registration.Repository,
	initiator *oidc.Initiator,
	requests *oidc.RequestBuilder,
	responder *oidc.Responder,
	platform *launch.PlatformLaunchValidator,
	tool *launch.ToolLaunchValidator,
	grant *oauth.AssertionGrant,
	accessTokens *oauth.AccessTokenRepository,
	c cache.Client,
) *Handlers {
	return &Handlers{
		keys:          keyRepo,
		registrations: regs,
		initiator:     initiator,
		requests:      requests,
		responder:     responder,
		platform:      platform,
		tool:          tool,
		grant:         grant,
		accessTokens:  accessTokens,
		cache:         c,
		log:           logger.Named("http.handlers"),
	}
}

// JWKS publica el key set pedido por nombre. Solo claves públicas.
func (h *Handlers) JWKS(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "keySet")
	chains := h.keys.FindByKeySetName(name)
	if len(chains) == 0 {
		WriteError(w, http.StatusNotFound, "not_found", "unknown key set "+name)
		return
	}
	doc, err := keys.BuildJWKS(chains...)
	if err != nil {
		h.log.Error("cannot build JWKS document", logger.Key(name), logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "cannot build key set")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(doc.JSON())
}

// LoginInitiate arranca el handshake del lado de la platform: resuelve el
// deployment y redirige al endpoint de iniciación OIDC de la tool.
func (h *Handlers) LoginInitiate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirect, err := h.initiator.Initiate(r.Context(), oidc.InitiationSpec{
		DeploymentID:  q.Get(oidc.ParamLTIDeployment),
		Issuer:        q.Get(oidc.ParamIssuer),
		ClientID:      q.Get(oidc.ParamClientID),
		LoginHint:     q.Get(oidc.ParamLoginHint),
		TargetLinkURI: q.Get(oidc.ParamTargetLinkURI),
		MessageType:   q.Get("message_type"),
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	http.Redirect(w, r, redirect.URL(), http.StatusFound)
}

// OIDCInitiation es el endpoint de iniciación del lado de la tool: recibe
// el login initiation de la platform y redirige con el authentication
// request (state firmado + nonce).
func (h *Handlers) OIDCInitiation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "cannot parse parameters")
		return
	}
	redirect, err := h.requests.BuildAuthenticationRequest(r.Context(), oidc.InitiationParams{
		Issuer:         r.Form.Get(oidc.ParamIssuer),
		LoginHint:      r.Form.Get(oidc.ParamLoginHint),
		TargetLinkURI:  r.Form.Get(oidc.ParamTargetLinkURI),
		LTIMessageHint: r.Form.Get(oidc.ParamLTIMessageHint),
		ClientID:       r.Form.Get(oidc.ParamClientID),
		DeploymentID:   r.Form.Get(oidc.ParamLTIDeployment),
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	http.Redirect(w, r, redirect.URL(), http.StatusFound)
}

// OIDCAuthentication es el endpoint de authentication del lado de la
// platform: verifica el hint, autentica y redirige a la tool con el
// id_token final.
func (h *Handlers) OIDCAuthentication(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "cannot parse parameters")
		return
	}
	redirect, err := h.responder.Respond(r.Context(), oidc.AuthenticationParams{
		ClientID:       r.Form.Get(oidc.ParamClientID),
		LoginHint:      r.Form.Get(oidc.ParamLoginHint),
		LTIMessageHint: r.Form.Get(oidc.ParamLTIMessageHint),
		RedirectURI:    r.Form.Get(oidc.ParamRedirectURI),
		State:          r.Form.Get(oidc.ParamState),
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	http.Redirect(w, r, redirect.URL(), http.StatusFound)
}

// launchResult es el JSON que devuelven los endpoints de validación.
type launchResult struct {
	Valid        bool           `json:"valid"`
	Successes    []string       `json:"successes"`
	Error        string         `json:"error,omitempty"`
	Registration string         `json:"registration_id,omitempty"`
	Claims       map[string]any `json:"claims,omitempty"`
}

// ValidatePlatformLaunch valida un launch originado en una tool.
func (h *Handlers) ValidatePlatformLaunch(w http.ResponseWriter, r *http.Request) {
	h.validateLaunch(w, r, "platform", h.platform.Validate)
}

// ValidateToolLaunch valida un launch originado en una platform.
func (h *Handlers) ValidateToolLaunch(w http.ResponseWriter, r *http.Request) {
	h.validateLaunch(w, r, "tool", h.tool.Validate)
}

func (h *Handlers) validateLaunch(w http.ResponseWriter, r *http.Request, direction string, validate func(ctx context.Context, serialized string) *launch.ValidationResult) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "cannot parse parameters")
		return
	}
	idToken := r.Form.Get("id_token")
	if idToken == "" {
		idToken = r.Form.Get("JWT")
	}
	if idToken == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "missing id_token parameter")
		return
	}

	res := validate(r.Context(), idToken)
	RecordLaunchValidation(direction, !res.HasError())

	if res.HasError() {
		WriteJSON(w, http.StatusBadRequest, launchResult{
			Successes: res.Successes(),
			Error:     res.Error(),
		})
		return
	}
	// Del lado de la tool, si la platform devolvió el state del
	// authentication request, tiene que seguir siendo el que firmamos.
	if direction == "tool" {
		if state := r.Form.Get(oidc.ParamState); state != "" {
			if err := h.requests.ValidateState(res.Registration(), state); err != nil {
				WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
				return
			}
		}
	}
	WriteJSON(w, http.StatusOK, launchResult{
		Valid:        true,
		Successes:    res.Successes(),
		Registration: res.Registration().ID,
		Claims:       res.Payload().Token().AllClaims(),
	})
}

// Token es el token endpoint OAuth2 (grant JWT-bearer).
func (h *Handlers) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, http.StatusBadRequest, oauth.ErrorInvalidRequest, "cannot parse form body")
		return
	}
	req := oauth.RequestFromForm(r.PostForm)
	if !h.grant.CanRespond(req) {
		WriteError(w, http.StatusBadRequest, "unsupported_grant_type",
			"only client_credentials with a JWT-bearer client assertion is supported")
		return
	}
	resp, err := h.grant.RespondToAccessTokenRequest(r.Context(), req)
	if err != nil {
		WriteGrantError(w, err)
		return
	}
	RecordAccessTokenIssued()
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	WriteJSON(w, http.StatusOK, resp)
}

// TokenInfo expone los claims del bearer token validado por RequireBearer.
func (h *Handlers) TokenInfo(w http.ResponseWriter, r *http.Request) {
	tk, ok := r.Context().Value(CtxAccessToken).(*token.Token)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "invalid_token", "no validated token in context")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"active": true,
		"claims": tk.AllClaims(),
	})
}

// Healthz responde mientras el proceso esté vivo.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz verifica las dependencias (cache).
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "not_ready", "cache unreachable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
