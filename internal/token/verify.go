package token

import (
	"crypto/rsa"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/hellolti/internal/keys"
)

// Leeway de reloj aceptada al validar exp/nbf.
const verifyLeeway = 30 * time.Second

var allowedMethods = []string{"RS256", "RS384", "RS512"}

// Verify valida firma y ventanas temporales (exp/nbf) del token contra la
// clave pública dada. No retorna error: cualquier fallo de validación es
// simplemente false y el caller decide cómo reportarlo.
func Verify(t *Token, pub *rsa.PublicKey) bool {
	if t == nil || pub == nil {
		return false
	}
	keyfunc := func(*jwtv5.Token) (any, error) { return pub, nil }
	parsed, err := jwtv5.Parse(
		t.Serialized(),
		keyfunc,
		jwtv5.WithValidMethods(allowedMethods),
		jwtv5.WithLeeway(verifyLeeway),
		jwtv5.WithIssuedAt(),
	)
	return err == nil && parsed.Valid
}

// VerifyWithChain valida contra la clave pública de un KeyChain.
func VerifyWithChain(t *Token, chain *keys.KeyChain) bool {
	if chain == nil {
		return false
	}
	pub, err := chain.PublicKey()
	if err != nil {
		return false
	}
	return Verify(t, pub)
}

// VerifyWithKey valida contra una Key suelta (p.ej. resuelta desde un JWKS remoto).
func VerifyWithKey(t *Token, key *keys.Key) bool {
	if key == nil {
		return false
	}
	pub, err := key.Public()
	if err != nil {
		return false
	}
	return Verify(t, pub)
}
