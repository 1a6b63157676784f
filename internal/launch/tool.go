package launch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellolti/internal/claims"
	"github.com/dropDatabas3/hellolti/internal/jwks"
	"github.com/dropDatabas3/hellolti/internal/keys"
	"github.com/dropDatabas3/hellolti/internal/nonce"
	"github.com/dropDatabas3/hellolti/internal/observability/logger"
	"github.com/dropDatabas3/hellolti/internal/registration"
)

// Tipos de mensaje que una tool acepta de una platform.
var toolSupportedTypes = []string{
	claims.MessageTypeResourceLinkRequest,
	claims.MessageTypeDeepLinkingRequest,
	claims.MessageTypeStartProctoring,
	claims.MessageTypeEndAssessment,
}

// ToolLaunchValidator valida, del lado de la tool, los launches originados
// en una platform (resource link requests, deep linking requests,
// proctoring). Espejo de PlatformLaunchValidator: la firma se verifica
// con la platform key chain de la registration, o con una clave resuelta
// desde la platform JWKS URL.
type ToolLaunchValidator struct {
	registrations registration.Repository
	nonces        *nonce.Store
	fetcher       *jwks.Fetcher
	log           *zap.Logger
}

// NewToolLaunchValidator crea el validador.
func NewToolLaunchValidator(regs registration.Repository, nonces *nonce.Store, fetcher *jwks.Fetcher) *ToolLaunchValidator {
	return &ToolLaunchValidator{
		registrations: regs,
		nonces:        nonces,
		fetcher:       fetcher,
		log:           logger.Named("launch.tool"),
	}
}

// Validate corre el pipeline completo sobre el token serializado.
// Nunca retorna error: todo fallo queda plegado en el ValidationResult.
func (v *ToolLaunchValidator) Validate(ctx context.Context, serialized string) *ValidationResult {
	return run(ctx, v.log, serialized, []step{
		stepRegistration(v.resolve),
		stepKID(),
		stepSignature(v.fetcher, func(reg *registration.Registration) (*keys.KeyChain, string) {
			return reg.PlatformKeyChain, reg.PlatformJWKSURL
		}),
		stepVersion(),
		stepMessageType(toolSupportedTypes),
		stepNonce(v.nonces, v.log),
		stepDeployment(),
		stepTypeSpecific(typeChecks{
			claims.MessageTypeResourceLinkRequest: v.checkResourceLink,
			claims.MessageTypeDeepLinkingRequest:  v.checkDeepLinkingRequest,
			claims.MessageTypeStartProctoring:     v.checkStartProctoring,
			claims.MessageTypeEndAssessment:       v.checkEndAssessment,
		}),
	})
}

// resolve busca la registration con el iss del mensaje como issuer de la
// platform, probando cada entrada de aud como client id de la tool.
func (v *ToolLaunchValidator) resolve(ctx context.Context, iss string, audiences []string) (*registration.Registration, error) {
	for _, aud := range audiences {
		reg, err := v.registrations.FindByPlatformIssuer(ctx, iss, aud)
		if err == nil {
			return reg, nil
		}
	}
	return nil, registration.ErrNotFound
}

func (v *ToolLaunchValidator) checkResourceLink(ctx context.Context, s *state) error {
	rl := s.payload.ResourceLink()
	if rl == nil || rl.ID == "" {
		return errors.New("resource link launch has no resource link identifier")
	}
	return nil
}

func (v *ToolLaunchValidator) checkDeepLinkingRequest(ctx context.Context, s *state) error {
	settings := s.payload.DeepLinkingSettings()
	if settings == nil {
		return fmt.Errorf("deep linking request has no %q claim", claims.NameDeepLinkingSettings)
	}
	if settings.DeepLinkingReturnURL == "" {
		return errors.New("deep linking request settings have no return URL")
	}
	return nil
}

func (v *ToolLaunchValidator) checkStartProctoring(ctx context.Context, s *state) error {
	if s.payload.ProctoringSessionData() == "" {
		return fmt.Errorf("start proctoring launch has no %q claim", claims.NameProctoringSessionData)
	}
	if s.payload.ProctoringAttemptNumber() == "" {
		return fmt.Errorf("start proctoring launch has no %q claim", claims.NameProctoringAttemptNumber)
	}
	rl := s.payload.ResourceLink()
	if rl == nil || rl.ID == "" {
		return errors.New("start proctoring launch has no resource link identifier")
	}
	return nil
}

func (v *ToolLaunchValidator) checkEndAssessment(ctx context.Context, s *state) error {
	if s.payload.ProctoringAttemptNumber() == "" {
		return fmt.Errorf("end assessment launch has no %q claim", claims.NameProctoringAttemptNumber)
	}
	return nil
}
