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
	"github.com/dropDatabas3/hellolti/internal/registration"
	"github.com/dropDatabas3/hellolti/internal/token"
)

// InitiationParams son los parámetros que la tool recibe en su endpoint
// de iniciación OIDC.
type InitiationParams struct {
	Issuer         string
	LoginHint      string
	TargetLinkURI  string
	LTIMessageHint string
	ClientID       string
	DeploymentID   string
}

// RequestBuilder construye, del lado de la tool, el segundo paso del
// handshake: el authentication request hacia la platform, con un state
// firmado por la tool y un nonce fresco.
type RequestBuilder struct {
	registrations registration.Repository
	tokens        *token.Builder
	nonces        *nonce.Generator
	log           *zap.Logger
}

// NewRequestBuilder crea el RequestBuilder.
func NewRequestBuilder(regs registration.Repository, tokens *token.Builder, nonces *nonce.Generator) *RequestBuilder {
	return &RequestBuilder{
		registrations: regs,
		tokens:        tokens,
		nonces:        nonces,
		log:           logger.Named("oidc.request"),
	}
}

// BuildAuthenticationRequest resuelve la registration del issuer entrante
// y arma la redirección al endpoint de authentication de la platform.
// El lti_message_hint se arrastra opaco; lo verifica la platform al volver.
func (b *RequestBuilder) BuildAuthenticationRequest(ctx context.Context, params InitiationParams) (*Redirect, error) {
	if params.Issuer == "" {
		return nil, errors.New("oidc: initiation has no iss parameter")
	}
	if params.LoginHint == "" {
		return nil, errors.New("oidc: initiation has no login_hint parameter")
	}
	reg, err := b.registrations.FindByPlatformIssuer(ctx, params.Issuer, params.ClientID)
	if err != nil {
		return nil, fmt.Errorf("oidc: no registration found for issuer %q", params.Issuer)
	}
	if reg.Platform == nil || reg.Platform.OIDCAuthenticationURL == "" {
		return nil, fmt.Errorf("oidc: registration %q has no platform OIDC authentication URL", reg.ID)
	}
	if reg.ToolKeyChain == nil {
		return nil, fmt.Errorf("oidc: registration %q has no tool key chain to sign the state", reg.ID)
	}

	n, err := b.nonces.Generate()
	if err != nil {
		return nil, fmt.Errorf("oidc: cannot generate nonce: %w", err)
	}
	state, err := b.tokens.Build(nil, map[string]any{
		claims.NameIssuer:   reg.Tool.Audience,
		claims.NameAudience: reg.Platform.Audience,
		"registration_id":   reg.ID,
		ParamRedirectURI:    params.TargetLinkURI,
		ParamLTIDeployment:  params.DeploymentID,
	}, reg.ToolKeyChain)
	if err != nil {
		return nil, fmt.Errorf("oidc: cannot sign state: %w", err)
	}

	b.log.Debug("authentication request built",
		logger.RegistrationID(reg.ID), logger.Issuer(params.Issuer))

	return &Redirect{
		Endpoint: reg.Platform.OIDCAuthenticationURL,
		Params: url.Values{
			"response_type":     {"id_token"},
			"response_mode":     {"form_post"},
			"scope":             {"openid"},
			"prompt":            {"none"},
			ParamClientID:       {reg.ClientID},
			ParamRedirectURI:    {params.TargetLinkURI},
			ParamLoginHint:      {params.LoginHint},
			ParamLTIMessageHint: {params.LTIMessageHint},
			ParamNonce:          {n.Value},
			ParamState:          {state.Serialized()},
		},
	}, nil
}

// ValidateState verifica que un state devuelto por la platform sea el que
// esta tool firmó: firma válida con la tool key chain y no vencido.
func (b *RequestBuilder) ValidateState(reg *registration.Registration, state string) error {
	if state == "" {
		return errors.New("oidc: state is empty")
	}
	tk, err := token.Parse(state)
	if err != nil {
		return fmt.Errorf("oidc: state is malformed: %w", err)
	}
	if !token.VerifyWithChain(tk, reg.ToolKeyChain) {
		return errors.New("oidc: state signature is not valid or state expired")
	}
	return nil
}
