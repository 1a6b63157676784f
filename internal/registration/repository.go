package registration

import "context"

// Repository define el directorio de registrations.
type Repository interface {
	// Find busca por identificador. Retorna ErrNotFound si no existe.
	Find(ctx context.Context, id string) (*Registration, error)

	// FindByClientID busca por client id OAuth2.
	FindByClientID(ctx context.Context, clientID string) (*Registration, error)

	// FindByPlatformIssuer busca por el par (issuer de la platform, client id).
	// Con clientID vacío matchea solo por issuer.
	FindByPlatformIssuer(ctx context.Context, issuer, clientID string) (*Registration, error)
}

// DeploymentRepository define el directorio de deployments.
type DeploymentRepository interface {
	// Find busca por deployment id. Retorna ErrNotFound si no existe.
	Find(ctx context.Context, deploymentID string) (*Deployment, error)

	// FindByIssuer busca un deployment por (issuer, client id).
	FindByIssuer(ctx context.Context, issuer, clientID string) (*Deployment, error)
}
