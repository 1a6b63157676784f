// Package keys modela el material criptográfico de las partes de una
// registration LTI: claves RSA individuales (Key), pares identificados
// por un key id (KeyChain) y su exposición como JWKS.
//
// El origen del contenido de una Key es explícito (Source): PEM plano,
// PEM envuelto en base64, referencia a archivo o mapa JWK. No se adivina
// base64 por decodificación exitosa; esa heurística clasifica mal PEM
// válido que casualmente decodifica.
package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/youmark/pkcs8"
)

// Source identifica el origen del contenido de una Key.
type Source int

const (
	// SourcePEM: contenido PEM en texto plano.
	SourcePEM Source = iota
	// SourceBase64: PEM codificado en base64 estándar.
	SourceBase64
	// SourceFile: referencia "file://" a un archivo PEM en disco.
	SourceFile
	// SourceJWK: mapa JWK (kty RSA) en memoria.
	SourceJWK
)

// AlgRS256 es el algoritmo de firma por defecto (el único obligatorio en LTI 1.3).
const AlgRS256 = "RS256"

const filePrefix = "file://"

// DetectSource resuelve el origen solo en los casos no ambiguos:
// prefijo "file://" → SourceFile; cualquier otro texto → SourcePEM.
// Base64 y JWK deben pedirse explícitamente (WithSource / NewKeyFromJWK).
func DetectSource(content string) Source {
	if strings.HasPrefix(content, filePrefix) {
		return SourceFile
	}
	return SourcePEM
}

// Key representa material de clave RSA. Inmutable una vez construida.
type Key struct {
	content    string
	jwk        map[string]any
	source     Source
	passphrase string
	alg        string
}

// Option configura una Key en construcción.
type Option func(*Key)

// WithSource fija el origen del contenido en lugar de autodetectarlo.
func WithSource(s Source) Option {
	return func(k *Key) { k.source = s }
}

// WithPassphrase fija la passphrase para claves privadas PKCS#8 cifradas.
func WithPassphrase(p string) Option {
	return func(k *Key) { k.passphrase = p }
}

// WithAlgorithm fija el algoritmo de firma (default RS256).
func WithAlgorithm(alg string) Option {
	return func(k *Key) { k.alg = alg }
}

// NewKey construye una Key desde contenido textual (PEM, base64 o file://).
func NewKey(content string, opts ...Option) *Key {
	k := &Key{
		content: content,
		source:  DetectSource(content),
		alg:     AlgRS256,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// NewKeyFromJWK construye una Key desde un mapa JWK (kty "RSA").
func NewKeyFromJWK(jwk map[string]any, opts ...Option) *Key {
	k := &Key{
		jwk:    jwk,
		source: SourceJWK,
		alg:    AlgRS256,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Algorithm retorna el algoritmo de firma de la clave.
func (k *Key) Algorithm() string { return k.alg }

// SourceKind retorna el origen del contenido.
func (k *Key) SourceKind() Source { return k.source }

// pemBytes materializa el contenido como bytes PEM según el origen.
func (k *Key) pemBytes() ([]byte, error) {
	switch k.source {
	case SourcePEM:
		return []byte(k.content), nil
	case SourceBase64:
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(k.content))
		if err != nil {
			return nil, fmt.Errorf("keys: invalid base64 content: %w", err)
		}
		return b, nil
	case SourceFile:
		path := strings.TrimPrefix(k.content, filePrefix)
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("keys: cannot read key file %q: %w", path, err)
		}
		return b, nil
	case SourceJWK:
		return nil, errors.New("keys: JWK keys have no PEM form")
	default:
		return nil, fmt.Errorf("keys: unknown source %d", k.source)
	}
}

// Private parsea el contenido como clave privada RSA.
// Acepta PKCS#1, PKCS#8 y PKCS#8 cifrado (passphrase requerida).
func (k *Key) Private() (*rsa.PrivateKey, error) {
	if k.source == SourceJWK {
		return rsaPrivateFromJWK(k.jwk)
	}
	raw, err := k.pemBytes()
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("keys: no PEM block found in private key content")
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "ENCRYPTED PRIVATE KEY":
		if k.passphrase == "" {
			return nil, errors.New("keys: encrypted private key requires a passphrase")
		}
		key, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, []byte(k.passphrase))
		if err != nil {
			return nil, fmt.Errorf("keys: cannot decrypt PKCS#8 key: %w", err)
		}
		return key, nil
	case "PRIVATE KEY":
		if k.passphrase != "" {
			// PKCS#8 cifrado puede venir con header genérico según el emisor.
			if key, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, []byte(k.passphrase)); err == nil {
				return key, nil
			}
		}
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("keys: cannot parse PKCS#8 key: %w", err)
		}
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("keys: unsupported private key type %T (want RSA)", parsed)
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("keys: unsupported PEM block %q for private key", block.Type)
	}
}

// Public parsea el contenido como clave pública RSA.
// Acepta PKIX, PKCS#1 público, certificados X.509 y claves privadas
// (de las que se deriva la pública).
func (k *Key) Public() (*rsa.PublicKey, error) {
	if k.source == SourceJWK {
		return rsaPublicFromJWK(k.jwk)
	}
	raw, err := k.pemBytes()
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("keys: no PEM block found in public key content")
	}
	switch block.Type {
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("keys: cannot parse PKIX public key: %w", err)
		}
		rsaKey, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("keys: unsupported public key type %T (want RSA)", parsed)
		}
		return rsaKey, nil
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("keys: cannot parse certificate: %w", err)
		}
		rsaKey, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("keys: certificate key type %T not supported (want RSA)", cert.PublicKey)
		}
		return rsaKey, nil
	case "RSA PRIVATE KEY", "PRIVATE KEY", "ENCRYPTED PRIVATE KEY":
		priv, err := k.Private()
		if err != nil {
			return nil, err
		}
		return &priv.PublicKey, nil
	default:
		return nil, fmt.Errorf("keys: unsupported PEM block %q for public key", block.Type)
	}
}

// ----- JWK (kty RSA) -----

func jwkString(m map[string]any, field string) (string, bool) {
	v, ok := m[field].(string)
	return v, ok && v != ""
}

func jwkBigInt(m map[string]any, field string) (*big.Int, error) {
	s, ok := jwkString(m, field)
	if !ok {
		return nil, fmt.Errorf("keys: JWK missing field %q", field)
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("keys: JWK field %q is not base64url: %w", field, err)
	}
	return new(big.Int).SetBytes(b), nil
}

func rsaPublicFromJWK(m map[string]any) (*rsa.PublicKey, error) {
	if kty, _ := jwkString(m, "kty"); kty != "RSA" {
		return nil, fmt.Errorf("keys: unsupported JWK kty %q (want RSA)", kty)
	}
	n, err := jwkBigInt(m, "n")
	if err != nil {
		return nil, err
	}
	e, err := jwkBigInt(m, "e")
	if err != nil {
		return nil, err
	}
	if !e.IsInt64() || e.Int64() <= 0 {
		return nil, errors.New("keys: JWK exponent out of range")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func rsaPrivateFromJWK(m map[string]any) (*rsa.PrivateKey, error) {
	pub, err := rsaPublicFromJWK(m)
	if err != nil {
		return nil, err
	}
	d, err := jwkBigInt(m, "d")
	if err != nil {
		return nil, err
	}
	p, err := jwkBigInt(m, "p")
	if err != nil {
		return nil, err
	}
	q, err := jwkBigInt(m, "q")
	if err != nil {
		return nil, err
	}
	priv := &rsa.PrivateKey{
		PublicKey: *pub,
		D:         d,
		Primes:    []*big.Int{p, q},
	}
	priv.Precompute()
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("keys: invalid JWK private key: %w", err)
	}
	return priv, nil
}
