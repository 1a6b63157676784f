// Package keystest genera material RSA efímero para tests.
package keystest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/dropDatabas3/hellolti/internal/keys"
)

// GenerateRSA genera un par RSA de 2048 bits en PEM (PKCS#8 / PKIX).
func GenerateRSA() (privPEM, pubPEM string, err error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", "", err
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", "", err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return "", "", err
	}
	privPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	pubPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	return privPEM, pubPEM, nil
}

// GenerateChain crea un KeyChain firmante con claves recién generadas.
func GenerateChain(id, keySetName string) (*keys.KeyChain, error) {
	privPEM, pubPEM, err := GenerateRSA()
	if err != nil {
		return nil, fmt.Errorf("keystest: generate RSA: %w", err)
	}
	return keys.NewKeyChain(id, keySetName, keys.NewKey(pubPEM), keys.NewKey(privPEM))
}

// GenerateVerifyOnlyChain crea un KeyChain sin clave privada.
func GenerateVerifyOnlyChain(id, keySetName string) (*keys.KeyChain, error) {
	_, pubPEM, err := GenerateRSA()
	if err != nil {
		return nil, fmt.Errorf("keystest: generate RSA: %w", err)
	}
	return keys.NewKeyChain(id, keySetName, keys.NewKey(pubPEM), nil)
}
