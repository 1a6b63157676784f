package keys

import "sync"

// Repository define la búsqueda de KeyChains por identificador o key set.
type Repository interface {
	// Find busca una chain por su identificador.
	// Retorna ErrKeyChainNotFound si no existe.
	Find(id string) (*KeyChain, error)

	// FindByKeySetName retorna las chains del key set en orden de inserción.
	// El orden importa: la primera chain es la activa, el resto son claves
	// históricas aún publicadas para verificación.
	FindByKeySetName(name string) []*KeyChain
}

// MemoryRepository implementa Repository en memoria.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*KeyChain
	order []string
}

// NewMemoryRepository crea un repositorio en memoria con las chains dadas.
func NewMemoryRepository(chains ...*KeyChain) *MemoryRepository {
	r := &MemoryRepository{byID: make(map[string]*KeyChain)}
	for _, c := range chains {
		r.Add(c)
	}
	return r
}

// Add registra una chain. Re-registrar el mismo ID reemplaza la chain
// conservando su posición original.
func (r *MemoryRepository) Add(c *KeyChain) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID()]; !ok {
		r.order = append(r.order, c.ID())
	}
	r.byID[c.ID()] = c
}

func (r *MemoryRepository) Find(id string) (*KeyChain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrKeyChainNotFound
	}
	return c, nil
}

func (r *MemoryRepository) FindByKeySetName(name string) []*KeyChain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*KeyChain
	for _, id := range r.order {
		if c := r.byID[id]; c.KeySetName() == name {
			out = append(out, c)
		}
	}
	return out
}
