package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellolti/internal/claims"
	"github.com/dropDatabas3/hellolti/internal/nonce"
	"github.com/dropDatabas3/hellolti/internal/observability/logger"
	"github.com/dropDatabas3/hellolti/internal/payload"
	"github.com/dropDatabas3/hellolti/internal/registration"
	"github.com/dropDatabas3/hellolti/internal/token"
)

// AuthenticationParams son los parámetros que la platform recibe en su
// endpoint de authentication, originados en el request de la tool.
type AuthenticationParams struct {
	ClientID       string
	LoginHint      string
	LTIMessageHint string
	RedirectURI    string
	State          string
}

// Responder ejecuta, del lado de la platform, el tercer paso del
// handshake: verifica el message hint que la propia platform firmó en la
// iniciación, autentica al usuario y emite el id_token final como form
// post hacia la tool.
type Responder struct {
	registrations registration.Repository
	tokens        *token.Builder
	nonces        *nonce.Generator
	authenticator Authenticator
	log           *zap.Logger
}

// NewResponder crea el Responder. Cada Respond construye su propio
// payload.Builder; el Responder es seguro para requests concurrentes.
func NewResponder(regs registration.Repository, tokens *token.Builder, nonces *nonce.Generator, auth Authenticator) *Responder {
	return &Responder{
		registrations: regs,
		tokens:        tokens,
		nonces:        nonces,
		authenticator: auth,
		log:           logger.Named("oidc.responder"),
	}
}

// Respond valida el hint, re-resuelve registration y deployment, autentica
// al usuario y retorna el form post con el id_token firmado y el state
// devuelto intacto.
func (r *Responder) Respond(ctx context.Context, params AuthenticationParams) (*Redirect, error) {
	if params.RedirectURI == "" {
		return nil, errors.New("oidc: authentication request has no redirect_uri")
	}
	reg, err := r.registrations.FindByClientID(ctx, params.ClientID)
	if err != nil {
		return nil, fmt.Errorf("oidc: no registration found for client id %q", params.ClientID)
	}
	if reg.PlatformKeyChain == nil {
		return nil, fmt.Errorf("oidc: registration %q has no platform key chain", reg.ID)
	}

	hint, err := r.verifyHint(reg, params.LTIMessageHint)
	if err != nil {
		return nil, err
	}
	deploymentID := hint.GetString(claims.NameDeploymentID)
	if deploymentID == "" || !reg.HasDeployment(deploymentID) {
		return nil, fmt.Errorf("oidc: message hint deployment %q is not registered for %q", deploymentID, reg.ID)
	}

	result, err := r.authenticator.Authenticate(ctx, params.LoginHint)
	if err != nil {
		return nil, fmt.Errorf("oidc: authentication failed: %w", err)
	}
	if !result.Success {
		return nil, errors.New("oidc: user authentication was denied")
	}

	idToken, err := r.buildIDToken(reg, hint, result)
	if err != nil {
		return nil, err
	}

	r.log.Debug("authentication response built",
		logger.RegistrationID(reg.ID), logger.DeploymentID(deploymentID))

	return &Redirect{
		Endpoint: params.RedirectURI,
		Params: url.Values{
			"id_token": {idToken.Serialized()},
			ParamState: {params.State},
		},
	}, nil
}

// verifyHint parsea y valida el lti_message_hint contra la clave de la
// propia platform (firma y expiración).
func (r *Responder) verifyHint(reg *registration.Registration, raw string) (*token.Token, error) {
	if raw == "" {
		return nil, errors.New("oidc: authentication request has no lti_message_hint")
	}
	tk, err := token.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("oidc: message hint is malformed: %w", err)
	}
	if !token.VerifyWithChain(tk, reg.PlatformKeyChain) {
		return nil, errors.New("oidc: message hint signature is not valid or hint expired")
	}
	return tk, nil
}

// buildIDToken re-firma los claims del hint como id_token definitivo,
// sumando la identidad del usuario autenticado.
func (r *Responder) buildIDToken(reg *registration.Registration, hint *token.Token, result *AuthenticationResult) (*payload.Payload, error) {
	b := payload.NewBuilder(r.tokens, r.nonces)
	for name, value := range hint.AllClaims() {
		switch name {
		case "jti", "iat", "nbf", "exp", claims.NameNonce:
			// Los reinyecta el builder.
		default:
			b.WithClaim(name, value)
		}
	}
	b.WithClaims(result.UserClaims()).
		WithClaim(claims.NameIssuer, reg.Platform.Audience).
		WithClaim(claims.NameAudience, reg.ClientID)

	idToken, err := b.BuildPayload(reg.PlatformKeyChain)
	if err != nil {
		return nil, fmt.Errorf("oidc: cannot sign id_token: %w", err)
	}
	return idToken, nil
}
