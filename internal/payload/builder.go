// Package payload construye y expone los mensajes LTI firmados: un
// MessagePayload es un token cuyo claim set sigue el vocabulario LTI 1.3,
// con accessors tipados sobre los claims estructurados.
package payload

import (
	"fmt"

	"github.com/dropDatabas3/hellolti/internal/claims"
	"github.com/dropDatabas3/hellolti/internal/keys"
	"github.com/dropDatabas3/hellolti/internal/nonce"
	"github.com/dropDatabas3/hellolti/internal/token"
)

// Builder acumula claims y construye MessagePayloads firmados.
// Una misma instancia puede construir payloads independientes usando
// Reset() entre builds para no arrastrar claims, pero no es segura para
// uso concurrente: cada goroutine debe construir su propio Builder.
type Builder struct {
	tokens  *token.Builder
	nonces  *nonce.Generator
	pending map[string]any
}

// NewBuilder crea un Builder sobre el codec y generador dados.
func NewBuilder(tokens *token.Builder, nonces *nonce.Generator) *Builder {
	return &Builder{
		tokens:  tokens,
		nonces:  nonces,
		pending: make(map[string]any),
	}
}

// WithClaim agrega un claim. Acepta:
//   - un claim estructurado (claims.Claim), que se registra bajo su nombre canónico
//   - un nombre string + valor
func (b *Builder) WithClaim(nameOrClaim any, value ...any) *Builder {
	switch c := nameOrClaim.(type) {
	case claims.Claim:
		b.pending[c.ClaimName()] = c
	case string:
		var v any
		if len(value) > 0 {
			v = value[0]
		}
		b.pending[c] = v
	}
	return b
}

// WithClaims agrega todos los claims del mapa.
func (b *Builder) WithClaims(m map[string]any) *Builder {
	for k, v := range m {
		b.pending[k] = v
	}
	return b
}

// Reset descarta los claims acumulados.
func (b *Builder) Reset() *Builder {
	b.pending = make(map[string]any)
	return b
}

// BuildPayload firma los claims acumulados con la chain dada, inyectando
// siempre un nonce recién generado.
func (b *Builder) BuildPayload(chain *keys.KeyChain) (*Payload, error) {
	n, err := b.nonces.Generate()
	if err != nil {
		return nil, fmt.Errorf("payload: cannot generate nonce: %w", err)
	}
	claimSet := make(map[string]any, len(b.pending)+1)
	for k, v := range b.pending {
		claimSet[k] = v
	}
	claimSet[claims.NameNonce] = n.Value

	tk, err := b.tokens.Build(nil, claimSet, chain)
	if err != nil {
		return nil, err
	}
	return NewPayload(tk), nil
}
