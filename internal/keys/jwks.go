package keys

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
)

// ----- JWKS (serialización) -----

// JWK es la representación wire de una clave pública RSA.
type JWK struct {
	Kty string `json:"kty"` // "RSA"
	Use string `json:"use"` // "sig"
	Alg string `json:"alg"` // "RS256"
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url(modulus)
	E   string `json:"e"` // base64url(exponent)
}

// JWKS es el documento publicado con las claves de un key set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// BuildJWKS construye el documento JWKS para un grupo de chains
// (normalmente las de un mismo key set, activa + históricas).
func BuildJWKS(chains ...*KeyChain) (*JWKS, error) {
	doc := &JWKS{Keys: make([]JWK, 0, len(chains))}
	for _, c := range chains {
		pub, err := c.PublicKey()
		if err != nil {
			return nil, &KeyChainError{Msg: fmt.Sprintf("chain %q cannot be exported to JWKS", c.ID()), Cause: err}
		}
		doc.Keys = append(doc.Keys, JWK{
			Kty: "RSA",
			Use: "sig",
			Alg: c.Algorithm(),
			Kid: c.ID(),
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	return doc, nil
}

// JSON serializa el documento JWKS.
func (s *JWKS) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
