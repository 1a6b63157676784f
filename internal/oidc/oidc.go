// Package oidc implementa el handshake OIDC de tres pasos que precede a
// todo launch LTI: la platform inicia el login contra la tool, la tool
// responde con un authentication request hacia la platform, y la platform
// autentica al usuario y emite el id_token final.
package oidc

import (
	"context"
	"net/url"

	"github.com/dropDatabas3/hellolti/internal/claims"
)

// Parámetros wire del handshake.
const (
	ParamIssuer         = "iss"
	ParamLoginHint      = "login_hint"
	ParamTargetLinkURI  = "target_link_uri"
	ParamLTIMessageHint = "lti_message_hint"
	ParamLTIDeployment  = "lti_deployment_id"
	ParamClientID       = "client_id"
	ParamNonce          = "nonce"
	ParamState          = "state"
	ParamRedirectURI    = "redirect_uri"
)

// Authenticator es el colaborador externo que resuelve la autenticación
// del usuario durante el paso de authentication del handshake. El core
// no implementa autenticación propia.
type Authenticator interface {
	Authenticate(ctx context.Context, loginHint string) (*AuthenticationResult, error)
}

// AnonymousAuthenticator acepta cualquier login hint como sesión anónima.
// Útil para desarrollo y para platforms que resuelven identidad aguas abajo.
type AnonymousAuthenticator struct{}

func (AnonymousAuthenticator) Authenticate(ctx context.Context, loginHint string) (*AuthenticationResult, error) {
	return &AuthenticationResult{Success: true, Anonymous: true}, nil
}

// AuthenticationResult es el desenlace de autenticar un usuario.
type AuthenticationResult struct {
	Success   bool
	Anonymous bool
	User      *claims.UserIdentity
}

// UserClaims retorna los claims OIDC de identidad a inyectar en el
// id_token. Vacío para sesiones anónimas.
func (r *AuthenticationResult) UserClaims() map[string]any {
	if r == nil || r.Anonymous || r.User == nil {
		return nil
	}
	out := map[string]any{claims.NameSubject: r.User.ID}
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put("name", r.User.Name)
	put("email", r.User.Email)
	put("given_name", r.User.GivenName)
	put("family_name", r.User.FamilyName)
	put("middle_name", r.User.MiddleName)
	put("locale", r.User.Locale)
	put("picture", r.User.Picture)
	return out
}

// Redirect es un descriptor de redirección: URL destino + parámetros.
// Según el paso se materializa como query string (GET) o form post.
type Redirect struct {
	Endpoint string
	Params   url.Values
}

// URL arma la URL completa con los parámetros en el query string.
func (r *Redirect) URL() string {
	u, err := url.Parse(r.Endpoint)
	if err != nil {
		return r.Endpoint
	}
	q := u.Query()
	for k, vs := range r.Params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
