// Package registration modela el vínculo durable entre una platform y un
// tool: client id, deployments habilitados y el material de claves de cada
// dirección. El core consume los directorios (repositorios) de
// registrations y deployments; la carga/administración es externa.
package registration

import (
	"errors"

	"github.com/dropDatabas3/hellolti/internal/keys"
)

// ErrNotFound se retorna cuando un directorio no encuentra la entidad.
var ErrNotFound = errors.New("registration: not found")

// Platform describe la plataforma (LMS) de una registration.
type Platform struct {
	Name                  string
	Audience              string // issuer de los mensajes platform→tool
	OIDCAuthenticationURL string
	OAuth2AccessTokenURL  string
}

// Tool describe la herramienta de una registration.
type Tool struct {
	Name              string
	Audience          string // issuer de los mensajes tool→platform
	OIDCInitiationURL string
	LaunchURL         string
	DeepLinkingURL    string
}

// Registration vincula una platform con un tool bajo un client id.
// Invariante: por cada dirección realmente usada debe resolver una clave
// utilizable (KeyChain configurada o JWKS URL).
type Registration struct {
	ID               string
	ClientID         string
	Platform         *Platform
	Tool             *Tool
	DeploymentIDs    []string
	PlatformKeyChain *keys.KeyChain
	ToolKeyChain     *keys.KeyChain
	PlatformJWKSURL  string
	ToolJWKSURL      string
}

// HasDeployment indica si el deployment id pertenece a la registration.
func (r *Registration) HasDeployment(id string) bool {
	for _, d := range r.DeploymentIDs {
		if d == id {
			return true
		}
	}
	return false
}

// DefaultDeploymentID retorna el primer deployment id, o "".
func (r *Registration) DefaultDeploymentID() string {
	if len(r.DeploymentIDs) == 0 {
		return ""
	}
	return r.DeploymentIDs[0]
}

// Deployment es una instalación concreta del tool dentro de la platform.
type Deployment struct {
	ID             string
	RegistrationID string
	ContextID      string // contexto (curso) asociado, si aplica
}
