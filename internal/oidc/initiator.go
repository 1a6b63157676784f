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

// InitiationSpec describe el launch que la platform quiere iniciar.
// El deployment se resuelve por DeploymentID, o por (Issuer, ClientID)
// si DeploymentID viene vacío.
type InitiationSpec struct {
	DeploymentID  string
	Issuer        string
	ClientID      string
	LoginHint     string
	TargetLinkURI string         // default: launch URL de la tool
	MessageType   string         // default: LtiResourceLinkRequest
	Claims        map[string]any // claims adicionales a arrastrar al launch
}

// Initiator construye, del lado de la platform, el primer paso del
// handshake: la redirección de login initiation hacia la tool, con un
// lti_message_hint firmado que arrastra los claims del launch.
type Initiator struct {
	registrations registration.Repository
	deployments   registration.DeploymentRepository
	tokens        *token.Builder
	nonces        *nonce.Generator
	log           *zap.Logger
}

// NewInitiator crea el Initiator. Cada Initiate construye su propio
// payload.Builder; el Initiator es seguro para requests concurrentes.
func NewInitiator(regs registration.Repository, deps registration.DeploymentRepository, tokens *token.Builder, nonces *nonce.Generator) *Initiator {
	return &Initiator{
		registrations: regs,
		deployments:   deps,
		tokens:        tokens,
		nonces:        nonces,
		log:           logger.Named("oidc.initiator"),
	}
}

// Initiate resuelve el deployment, firma el lti_message_hint y retorna la
// redirección al endpoint de iniciación OIDC de la tool.
func (i *Initiator) Initiate(ctx context.Context, spec InitiationSpec) (*Redirect, error) {
	dep, err := i.resolveDeployment(ctx, spec)
	if err != nil {
		return nil, err
	}
	reg, err := i.registrations.Find(ctx, dep.RegistrationID)
	if err != nil {
		return nil, fmt.Errorf("oidc: deployment %q references unknown registration %q", dep.ID, dep.RegistrationID)
	}
	if reg.Tool == nil || reg.Tool.OIDCInitiationURL == "" {
		return nil, fmt.Errorf("oidc: registration %q has no tool OIDC initiation URL", reg.ID)
	}
	if reg.PlatformKeyChain == nil {
		return nil, fmt.Errorf("oidc: registration %q has no platform key chain to sign the message hint", reg.ID)
	}

	targetLinkURI := spec.TargetLinkURI
	if targetLinkURI == "" {
		targetLinkURI = reg.Tool.LaunchURL
	}
	messageType := spec.MessageType
	if messageType == "" {
		messageType = claims.MessageTypeResourceLinkRequest
	}

	hint, err := payload.NewBuilder(i.tokens, i.nonces).
		WithClaims(spec.Claims).
		WithClaim(claims.NameIssuer, reg.Platform.Audience).
		WithClaim(claims.NameAudience, reg.ClientID).
		WithClaim(claims.NameVersion, claims.VersionLTI1p3).
		WithClaim(claims.NameMessageType, messageType).
		WithClaim(claims.NameDeploymentID, dep.ID).
		WithClaim(claims.NameTargetLinkURI, targetLinkURI).
		BuildPayload(reg.PlatformKeyChain)
	if err != nil {
		return nil, fmt.Errorf("oidc: cannot sign message hint: %w", err)
	}

	i.log.Debug("login initiation built",
		logger.RegistrationID(reg.ID), logger.DeploymentID(dep.ID), logger.MessageType(messageType))

	return &Redirect{
		Endpoint: reg.Tool.OIDCInitiationURL,
		Params: url.Values{
			ParamIssuer:         {reg.Platform.Audience},
			ParamLoginHint:      {spec.LoginHint},
			ParamTargetLinkURI:  {targetLinkURI},
			ParamLTIMessageHint: {hint.Serialized()},
			ParamLTIDeployment:  {dep.ID},
			ParamClientID:       {reg.ClientID},
		},
	}, nil
}

func (i *Initiator) resolveDeployment(ctx context.Context, spec InitiationSpec) (*registration.Deployment, error) {
	if spec.DeploymentID != "" {
		dep, err := i.deployments.Find(ctx, spec.DeploymentID)
		if err != nil {
			return nil, fmt.Errorf("oidc: deployment %q not found", spec.DeploymentID)
		}
		return dep, nil
	}
	if spec.Issuer == "" {
		return nil, errors.New("oidc: a deployment id or an issuer is mandatory to initiate a launch")
	}
	dep, err := i.deployments.FindByIssuer(ctx, spec.Issuer, spec.ClientID)
	if err != nil {
		return nil, fmt.Errorf("oidc: no deployment found for issuer %q and client id %q", spec.Issuer, spec.ClientID)
	}
	return dep, nil
}
