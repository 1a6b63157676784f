package registration

import (
	"context"
	"sync"
)

// MemoryRepository implementa los dos directorios en memoria.
// Útil para desarrollo, testing y despliegues con configuración estática.
type MemoryRepository struct {
	mu          sync.RWMutex
	byID        map[string]*Registration
	deployments map[string]*Deployment
}

// NewMemoryRepository crea el directorio con las registrations dadas.
func NewMemoryRepository(regs ...*Registration) *MemoryRepository {
	r := &MemoryRepository{
		byID:        make(map[string]*Registration),
		deployments: make(map[string]*Deployment),
	}
	for _, reg := range regs {
		r.Add(reg)
	}
	return r
}

// Add registra una registration y deriva sus deployments.
func (r *MemoryRepository) Add(reg *Registration) {
	if reg == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[reg.ID] = reg
	for _, dep := range reg.DeploymentIDs {
		r.deployments[dep] = &Deployment{ID: dep, RegistrationID: reg.ID}
	}
}

func (r *MemoryRepository) Find(ctx context.Context, id string) (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return reg, nil
}

func (r *MemoryRepository) FindByClientID(ctx context.Context, clientID string) (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.byID {
		if reg.ClientID == clientID {
			return reg, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) FindByPlatformIssuer(ctx context.Context, issuer, clientID string) (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, reg := range r.byID {
		if reg.Platform == nil || reg.Platform.Audience != issuer {
			continue
		}
		if clientID == "" || reg.ClientID == clientID {
			return reg, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) FindDeployment(ctx context.Context, deploymentID string) (*Deployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dep, ok := r.deployments[deploymentID]
	if !ok {
		return nil, ErrNotFound
	}
	return dep, nil
}

// Deployments retorna una vista DeploymentRepository del directorio.
func (r *MemoryRepository) Deployments() DeploymentRepository {
	return &memoryDeployments{parent: r}
}

type memoryDeployments struct {
	parent *MemoryRepository
}

func (d *memoryDeployments) Find(ctx context.Context, deploymentID string) (*Deployment, error) {
	return d.parent.FindDeployment(ctx, deploymentID)
}

func (d *memoryDeployments) FindByIssuer(ctx context.Context, issuer, clientID string) (*Deployment, error) {
	reg, err := d.parent.FindByPlatformIssuer(ctx, issuer, clientID)
	if err != nil {
		return nil, err
	}
	dep := reg.DefaultDeploymentID()
	if dep == "" {
		return nil, ErrNotFound
	}
	return &Deployment{ID: dep, RegistrationID: reg.ID}, nil
}
