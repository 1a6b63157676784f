package token

import (
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/hellolti/internal/claims"
	"github.com/dropDatabas3/hellolti/internal/keys"
)

// DefaultTTL es la vida por defecto de un token emitido.
const DefaultTTL = 600 * time.Second

// Builder firma tokens con la clave privada de un KeyChain.
// Inyecta siempre los claims estándar (jti/iat/nbf/exp) pisando los del
// caller, normaliza aud a array y convierte claims estructurados a su
// forma wire antes de firmar.
type Builder struct {
	ttl time.Duration
	now func() time.Time
}

// BuilderOption configura un Builder.
type BuilderOption func(*Builder)

// WithTTL fija la vida de los tokens emitidos.
func WithTTL(ttl time.Duration) BuilderOption {
	return func(b *Builder) { b.ttl = ttl }
}

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder crea un Builder con TTL default de 600s.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// TTL retorna la vida configurada.
func (b *Builder) TTL() time.Duration { return b.ttl }

// Build firma un token con los headers y claims dados usando la chain.
// El kid del header siempre es el ID de la chain.
func (b *Builder) Build(headers map[string]any, claimSet map[string]any, chain *keys.KeyChain) (*Token, error) {
	if chain == nil {
		return nil, &BuildError{Msg: "no signing key chain provided"}
	}
	priv, err := chain.PrivateKey()
	if err != nil {
		return nil, &BuildError{Msg: "cannot load private key of chain " + chain.ID(), Cause: err}
	}
	method := jwtv5.GetSigningMethod(chain.Algorithm())
	if method == nil {
		return nil, &BuildError{Msg: "unsupported signing algorithm " + chain.Algorithm()}
	}

	now := b.now().UTC().Truncate(time.Second)
	mc := jwtv5.MapClaims{}
	for name, value := range claimSet {
		mc[name] = normalizeValue(value)
	}
	if aud, ok := mc[claims.NameAudience]; ok {
		mc[claims.NameAudience] = normalizeAudience(aud)
	}
	// Los claims estándar siempre pisan los del caller.
	mc["jti"] = uuid.NewString()
	mc["iat"] = now.Unix()
	mc["nbf"] = now.Unix()
	mc["exp"] = now.Add(b.ttl).Unix()

	tk := jwtv5.NewWithClaims(method, mc)
	for k, v := range headers {
		tk.Header[k] = v
	}
	tk.Header["kid"] = chain.ID()
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(priv)
	if err != nil {
		return nil, &BuildError{Msg: "cannot sign token with chain " + chain.ID(), Cause: err}
	}

	claimsOut := make(map[string]any, len(mc))
	for k, v := range mc {
		claimsOut[k] = v
	}
	return &Token{
		headers:    tk.Header,
		claims:     claimsOut,
		serialized: signed,
	}, nil
}

// normalizeValue convierte claims estructurados (y slices que los contengan)
// a su representación wire.
func normalizeValue(v any) any {
	switch tv := v.(type) {
	case claims.Claim:
		return tv.Normalize()
	case []any:
		out := make([]any, len(tv))
		for i, it := range tv {
			out[i] = normalizeValue(it)
		}
		return out
	default:
		return v
	}
}

// normalizeAudience fuerza aud a array aunque venga como scalar.
func normalizeAudience(v any) []string {
	switch tv := v.(type) {
	case string:
		if tv == "" {
			return nil
		}
		return []string{tv}
	case []string:
		return tv
	case []any:
		out := make([]string, 0, len(tv))
		for _, it := range tv {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
