// Package token implementa el codec de tokens firmados (build/parse/verify)
// sobre golang-jwt. Un Token es inmutable: un bundle de headers y claims
// con su forma serializada compact (header.payload.signature).
package token

import "fmt"

// Token es un token firmado ya construido o parseado.
type Token struct {
	headers    map[string]any
	claims     map[string]any
	serialized string
}

// MissingClaimError indica que un claim obligatorio no está presente.
type MissingClaimError struct {
	Claim string
}

func (e *MissingClaimError) Error() string {
	return fmt.Sprintf("token: missing mandatory claim %q", e.Claim)
}

// Serialized retorna la forma compact firmada.
func (t *Token) Serialized() string { return t.serialized }

// Headers retorna una copia de los headers del token. Mutar el mapa
// retornado no afecta al Token.
func (t *Token) Headers() map[string]any { return copyMap(t.headers) }

// KID retorna el header kid, o "" si no está.
func (t *Token) KID() string {
	kid, _ := t.headers["kid"].(string)
	return kid
}

// AllClaims retorna una copia del mapa completo de claims. Mutar el mapa
// retornado no afecta al Token.
func (t *Token) AllClaims() map[string]any { return copyMap(t.claims) }

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Has indica si el claim existe.
func (t *Token) Has(name string) bool {
	_, ok := t.claims[name]
	return ok
}

// Get retorna el claim o el default si no existe.
func (t *Token) Get(name string, def any) any {
	if v, ok := t.claims[name]; ok {
		return v
	}
	return def
}

// GetMandatory retorna el claim o MissingClaimError nombrándolo.
func (t *Token) GetMandatory(name string) (any, error) {
	v, ok := t.claims[name]
	if !ok {
		return nil, &MissingClaimError{Claim: name}
	}
	return v, nil
}

// GetString retorna el claim como string ("" si falta o no es string).
func (t *Token) GetString(name string) string {
	s, _ := t.Get(name, "").(string)
	return s
}

// GetStringSlice normaliza un claim string-o-array a []string.
func (t *Token) GetStringSlice(name string) []string {
	switch v := t.claims[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, it := range v {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// GetMap retorna un claim anidado como mapa (nil si falta o no es mapa).
func (t *Token) GetMap(name string) map[string]any {
	m, _ := t.claims[name].(map[string]any)
	return m
}
