package launch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellolti/internal/claims"
	"github.com/dropDatabas3/hellolti/internal/jwks"
	"github.com/dropDatabas3/hellolti/internal/keys"
	"github.com/dropDatabas3/hellolti/internal/nonce"
	"github.com/dropDatabas3/hellolti/internal/observability/logger"
	"github.com/dropDatabas3/hellolti/internal/payload"
	"github.com/dropDatabas3/hellolti/internal/registration"
	"github.com/dropDatabas3/hellolti/internal/token"
)

// state acumula lo resuelto por los pasos previos del pipeline.
type state struct {
	token        *token.Token
	payload      *payload.Payload
	registration *registration.Registration
}

// step es un paso del pipeline: un chequeo que retorna error en fallo y
// el mensaje que se agrega al trail cuando pasa.
type step struct {
	success string
	run     func(ctx context.Context, s *state) error
}

// run ejecuta el pipeline sobre el token serializado, cortando en el
// primer paso que falla.
func run(ctx context.Context, log *zap.Logger, serialized string, steps []step) *ValidationResult {
	tk, err := token.Parse(serialized)
	if err != nil {
		return &ValidationResult{err: fmt.Sprintf("cannot parse launch token: %v", err)}
	}
	s := &state{token: tk, payload: payload.NewPayload(tk)}

	successes := make([]string, 0, len(steps))
	for _, st := range steps {
		if err := st.run(ctx, s); err != nil {
			log.Debug("launch validation failed",
				logger.KID(tk.KID()), logger.String("step", st.success), logger.Err(err))
			return &ValidationResult{successes: successes, err: err.Error()}
		}
		successes = append(successes, st.success)
	}
	return &ValidationResult{
		registration: s.registration,
		payload:      s.payload,
		successes:    successes,
	}
}

// resolveFunc resuelve la registration desde los claims iss/aud del token.
type resolveFunc func(ctx context.Context, iss string, audiences []string) (*registration.Registration, error)

func stepRegistration(resolve resolveFunc) step {
	return step{
		success: "registration found for the launch issuer and audience",
		run: func(ctx context.Context, s *state) error {
			iss := s.token.GetString(claims.NameIssuer)
			audiences := s.token.GetStringSlice(claims.NameAudience)
			if iss == "" || len(audiences) == 0 {
				return errors.New("launch token has no iss or aud claim to resolve a registration")
			}
			reg, err := resolve(ctx, iss, audiences)
			if err != nil {
				return fmt.Errorf("no registration found for issuer %q and audiences %v", iss, audiences)
			}
			s.registration = reg
			return nil
		},
	}
}

func stepKID() step {
	return step{
		success: "launch token kid header is present",
		run: func(ctx context.Context, s *state) error {
			if s.token.KID() == "" {
				return errors.New("launch token has no kid header")
			}
			return nil
		},
	}
}

// keySelector elige la chain configurada y la JWKS URL de fallback para
// verificar la firma, según la dirección del launch.
type keySelector func(reg *registration.Registration) (*keys.KeyChain, string)

func stepSignature(fetcher *jwks.Fetcher, selectKeys keySelector) step {
	return step{
		success: "launch token signature is valid",
		run: func(ctx context.Context, s *state) error {
			chain, jwksURL := selectKeys(s.registration)
			return verifySignature(ctx, fetcher, s.token, chain, jwksURL)
		},
	}
}

// verifySignature valida la firma del token contra la chain configurada,
// o contra la clave resuelta desde el JWKS remoto si no hay chain.
func verifySignature(ctx context.Context, fetcher *jwks.Fetcher, tk *token.Token, chain *keys.KeyChain, jwksURL string) error {
	if chain != nil {
		if !token.VerifyWithChain(tk, chain) {
			return errors.New("launch token signature is not valid")
		}
		return nil
	}
	if jwksURL == "" {
		return errors.New("registration has no key chain nor JWKS URL to verify the launch token")
	}
	key, err := fetcher.FetchKey(ctx, jwksURL, tk.KID())
	if err != nil {
		return fmt.Errorf("cannot resolve verification key: %w", err)
	}
	if !token.VerifyWithKey(tk, key) {
		return errors.New("launch token signature is not valid")
	}
	return nil
}

func stepVersion() step {
	return step{
		success: "launch token version claim is valid",
		run: func(ctx context.Context, s *state) error {
			v := s.token.GetString(claims.NameVersion)
			if v != claims.VersionLTI1p3 {
				return fmt.Errorf("launch token version %q is not supported, expected %q", v, claims.VersionLTI1p3)
			}
			return nil
		},
	}
}

func stepMessageType(supported []string) step {
	return step{
		success: "launch token message type is supported",
		run: func(ctx context.Context, s *state) error {
			mt := s.token.GetString(claims.NameMessageType)
			for _, want := range supported {
				if mt == want {
					return nil
				}
			}
			return fmt.Errorf("launch token message type %q is not supported", mt)
		},
	}
}

func stepNonce(store *nonce.Store, log *zap.Logger) step {
	return step{
		success: "launch token nonce is valid and stored",
		run: func(ctx context.Context, s *state) error {
			value := s.token.GetString(claims.NameNonce)
			if value == "" {
				return errors.New("launch token has no nonce claim")
			}
			if _, found := store.Find(ctx, value); found {
				return errors.New("launch token nonce was already used, replay rejected")
			}
			n := nonce.Nonce{Value: value, ExpiresAt: time.Now().Add(nonce.DefaultTTL)}
			if err := store.Save(ctx, n); err != nil {
				// Protección de replay degradada, no fatal para el launch.
				log.Warn("cannot persist launch nonce", logger.Err(err))
			}
			return nil
		},
	}
}

func stepDeployment() step {
	return step{
		success: "launch token deployment id is registered",
		run: func(ctx context.Context, s *state) error {
			dep := s.token.GetString(claims.NameDeploymentID)
			if dep == "" {
				return fmt.Errorf("launch token has no %q claim", claims.NameDeploymentID)
			}
			if !s.registration.HasDeployment(dep) {
				return fmt.Errorf("deployment id %q is not registered for registration %q", dep, s.registration.ID)
			}
			return nil
		},
	}
}

// typeChecks mapea message type → chequeo específico. Un tipo sin entrada
// no tiene chequeos adicionales.
type typeChecks map[string]func(ctx context.Context, s *state) error

func stepTypeSpecific(checks typeChecks) step {
	return step{
		success: "launch token message type specific claims are valid",
		run: func(ctx context.Context, s *state) error {
			check, ok := checks[s.token.GetString(claims.NameMessageType)]
			if !ok {
				return nil
			}
			return check(ctx, s)
		},
	}
}

// verifyEmbedded valida un token firmado embebido en un claim (deep
// linking data, proctoring session data) contra la clave de la platform
// de la registration resuelta.
func verifyEmbedded(ctx context.Context, fetcher *jwks.Fetcher, s *state, raw, what string) error {
	tk, err := token.Parse(raw)
	if err != nil {
		return fmt.Errorf("embedded %s token is malformed: %v", what, err)
	}
	err = verifySignature(ctx, fetcher, tk, s.registration.PlatformKeyChain, s.registration.PlatformJWKSURL)
	if err != nil {
		return fmt.Errorf("embedded %s token is not valid: %v", what, err)
	}
	return nil
}
