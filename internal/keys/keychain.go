package keys

import (
	"crypto/rsa"
	"errors"
	"fmt"
)

// KeyChainError envuelve la causa de un fallo construyendo o usando un KeyChain.
type KeyChainError struct {
	Msg   string
	Cause error
}

func (e *KeyChainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("keychain: %s: %v", e.Msg, e.Cause)
	}
	return "keychain: " + e.Msg
}

func (e *KeyChainError) Unwrap() error { return e.Cause }

// KeyChain agrupa el material de una parte (platform o tool) bajo un key id.
// La clave pública es obligatoria; la privada es opcional (chains de solo
// verificación). El KeySetName agrupa chains históricas de una misma
// identidad lógica para la exposición JWKS.
type KeyChain struct {
	id         string
	keySetName string
	public     *Key
	private    *Key
}

// NewKeyChain construye un KeyChain validando que el material sea parseable.
// Material inválido retorna KeyChainError con la causa envuelta.
func NewKeyChain(id, keySetName string, public, private *Key) (*KeyChain, error) {
	if id == "" {
		return nil, &KeyChainError{Msg: "identifier is mandatory"}
	}
	if public == nil {
		return nil, &KeyChainError{Msg: fmt.Sprintf("chain %q needs a public key", id)}
	}
	if _, err := public.Public(); err != nil {
		return nil, &KeyChainError{Msg: fmt.Sprintf("chain %q public key is not usable", id), Cause: err}
	}
	if private != nil {
		if _, err := private.Private(); err != nil {
			return nil, &KeyChainError{Msg: fmt.Sprintf("chain %q private key is not usable", id), Cause: err}
		}
	}
	return &KeyChain{
		id:         id,
		keySetName: keySetName,
		public:     public,
		private:    private,
	}, nil
}

// ID retorna el identificador único de la chain (también usado como kid).
func (c *KeyChain) ID() string { return c.id }

// KeySetName retorna el nombre del key set al que pertenece la chain.
func (c *KeyChain) KeySetName() string { return c.keySetName }

// Algorithm retorna el algoritmo de firma de la chain.
func (c *KeyChain) Algorithm() string { return c.public.Algorithm() }

// CanSign indica si la chain tiene clave privada.
func (c *KeyChain) CanSign() bool { return c.private != nil }

// PublicKey retorna la clave pública RSA parseada.
func (c *KeyChain) PublicKey() (*rsa.PublicKey, error) {
	return c.public.Public()
}

// PrivateKey retorna la clave privada RSA parseada.
// Falla si la chain es de solo verificación.
func (c *KeyChain) PrivateKey() (*rsa.PrivateKey, error) {
	if c.private == nil {
		return nil, &KeyChainError{Msg: fmt.Sprintf("chain %q has no private key", c.id)}
	}
	return c.private.Private()
}

// ErrKeyChainNotFound se retorna cuando un repositorio no encuentra la chain.
var ErrKeyChainNotFound = errors.New("keychain: not found")
