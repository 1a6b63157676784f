package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/hellolti/internal/oauth"
	"github.com/dropDatabas3/hellolti/internal/observability/logger"
	"github.com/dropDatabas3/hellolti/internal/registration"
	"github.com/dropDatabas3/hellolti/internal/token"
)

// ─────────────── Request ID ───────────────

// WithRequestID asigna (o propaga) el X-Request-ID y deja en el contexto
// un logger scoped con ese campo, recuperable vía logger.From(ctx).
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if rid == "" {
			var b [16]byte
			_, _ = rand.Read(b[:])
			rid = hex.EncodeToString(b[:])
		}
		w.Header().Set("X-Request-ID", rid)
		ctx := logger.ToContext(r.Context(), logger.With(logger.RequestID(rid)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ─────────────── Recover de pánicos ───────────────
func WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic recovered",
					logger.Path(r.URL.Path),
					logger.Any("recover", rec))
				WriteError(w, http.StatusInternalServerError, "internal_error", "panic recover")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ─────────────── Security Headers ───────────────

// WithSecurityHeaders inyecta cabeceras de defensa por defecto.
// No toca Cache-Control (eso lo maneja cada handler sensible a tokens).
func WithSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// ─────────────── Logging JSON ───────────────
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func WithLogging(next http.Handler) http.Handler {
	log := logger.Named("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		log.Info("request",
			logger.RequestID(w.Header().Get("X-Request-ID")),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(rec.status),
			logger.Count(rec.bytes),
			logger.Duration(time.Since(start)))
	})
}

// ─────────────── Precondiciones de endpoint ───────────────
// Los chequeos de método, accept y bearer cortan antes de la lógica de
// negocio: 405 / 406 / 401.

// RequireMethod responde 405 si el método no es el esperado.
func RequireMethod(method string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "expected "+method)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAccept responde 406 si el cliente no acepta el content type dado.
func RequireAccept(contentType string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept := r.Header.Get("Accept")
		if accept != "" && accept != "*/*" && !strings.Contains(accept, contentType) {
			WriteError(w, http.StatusNotAcceptable, "not_acceptable", "endpoint produces "+contentType)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey string

// CtxAccessToken es la clave de contexto del access token validado.
const CtxAccessToken ctxKey = "access_token"

// RequireBearer responde 401 si el request no trae un bearer token firmado
// por la platform de alguna registration, o si el token fue revocado.
// El token validado queda disponible en el contexto bajo CtxAccessToken.
func RequireBearer(regs registration.Repository, tokens *oauth.AccessTokenRepository, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="lti"`)
			WriteError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
			return
		}
		tk, err := token.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusUnauthorized, "invalid_token", "bearer token is malformed")
			return
		}
		reg, err := regs.FindByPlatformIssuer(r.Context(), tk.GetString("iss"), "")
		if err != nil || reg.PlatformKeyChain == nil || !token.VerifyWithChain(tk, reg.PlatformKeyChain) {
			WriteError(w, http.StatusUnauthorized, "invalid_token", "bearer token signature is not valid")
			return
		}
		if tokens != nil && tokens.IsRevoked(r.Context(), tk.GetString("jti")) {
			WriteError(w, http.StatusUnauthorized, "invalid_token", "bearer token was revoked")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), CtxAccessToken, tk)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
