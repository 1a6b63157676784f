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

// Tipos de mensaje que una platform acepta de una tool.
var platformSupportedTypes = []string{
	claims.MessageTypeDeepLinkingResponse,
	claims.MessageTypeStartAssessment,
}

// PlatformLaunchValidator valida, del lado de la platform, los launches
// originados en una tool (deep linking responses, start assessment).
// La firma se verifica con la tool key chain de la registration, o con
// una clave resuelta desde la tool JWKS URL si no hay chain configurada.
type PlatformLaunchValidator struct {
	registrations registration.Repository
	nonces        *nonce.Store
	fetcher       *jwks.Fetcher
	log           *zap.Logger
}

// NewPlatformLaunchValidator crea el validador.
func NewPlatformLaunchValidator(regs registration.Repository, nonces *nonce.Store, fetcher *jwks.Fetcher) *PlatformLaunchValidator {
	return &PlatformLaunchValidator{
		registrations: regs,
		nonces:        nonces,
		fetcher:       fetcher,
		log:           logger.Named("launch.platform"),
	}
}

// Validate corre el pipeline completo sobre el token serializado.
// Nunca retorna error: todo fallo queda plegado en el ValidationResult.
func (v *PlatformLaunchValidator) Validate(ctx context.Context, serialized string) *ValidationResult {
	return run(ctx, v.log, serialized, []step{
		stepRegistration(v.resolve),
		stepKID(),
		stepSignature(v.fetcher, func(reg *registration.Registration) (*keys.KeyChain, string) {
			return reg.ToolKeyChain, reg.ToolJWKSURL
		}),
		stepVersion(),
		stepMessageType(platformSupportedTypes),
		stepNonce(v.nonces, v.log),
		stepDeployment(),
		stepTypeSpecific(typeChecks{
			claims.MessageTypeDeepLinkingResponse: v.checkDeepLinkingResponse,
			claims.MessageTypeStartAssessment:     v.checkStartAssessment,
		}),
	})
}

// resolve busca la registration probando cada entrada de aud como issuer
// de la platform, con el iss del mensaje como client id de la tool.
func (v *PlatformLaunchValidator) resolve(ctx context.Context, iss string, audiences []string) (*registration.Registration, error) {
	for _, aud := range audiences {
		reg, err := v.registrations.FindByPlatformIssuer(ctx, aud, iss)
		if err == nil {
			return reg, nil
		}
	}
	return nil, registration.ErrNotFound
}

// checkDeepLinkingResponse valida el data token embebido, si viene, contra
// la clave de la platform que lo emitió.
func (v *PlatformLaunchValidator) checkDeepLinkingResponse(ctx context.Context, s *state) error {
	data := s.payload.DeepLinkingData()
	if data == "" {
		return nil
	}
	return verifyEmbedded(ctx, v.fetcher, s, data, "deep linking data")
}

// checkStartAssessment exige un session data token válido, un attempt
// number no vacío y un resource link con identificador.
func (v *PlatformLaunchValidator) checkStartAssessment(ctx context.Context, s *state) error {
	sessionData := s.payload.ProctoringSessionData()
	if sessionData == "" {
		return fmt.Errorf("start assessment launch has no %q claim", claims.NameProctoringSessionData)
	}
	if err := verifyEmbedded(ctx, v.fetcher, s, sessionData, "proctoring session data"); err != nil {
		return err
	}
	if s.payload.ProctoringAttemptNumber() == "" {
		return fmt.Errorf("start assessment launch has no %q claim", claims.NameProctoringAttemptNumber)
	}
	rl := s.payload.ResourceLink()
	if rl == nil || rl.ID == "" {
		return errors.New("start assessment launch has no resource link identifier")
	}
	return nil
}
