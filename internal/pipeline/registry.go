package pipeline

import (
	"fmt"
	"sort"
	"sync"

	"github.com/steveyegge/curator/internal/types"
)

// Registry maps catalog identifiers to stage implementations.
type Registry struct {
	mu     sync.RWMutex
	stages map[types.StageID]Stage
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stages: make(map[types.StageID]Stage),
	}
}

// Register adds a stage to the registry.
func (r *Registry) Register(stage Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := stage.ID()
	if !id.IsValid() {
		return fmt.Errorf("stage %q is not part of the catalog", id)
	}
	if _, exists := r.stages[id]; exists {
		return fmt.Errorf("stage %q already registered", id)
	}

	r.stages[id] = stage
	return nil
}

// Get returns a registered stage by identifier.
func (r *Registry) Get(id types.StageID) (Stage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stage, exists := r.stages[id]
	return stage, exists
}

// List returns all registered identifiers in catalog order.
func (r *Registry) List() []types.StageID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]types.StageID, 0, len(r.stages))
	for id := range r.stages {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Position() < ids[j].Position() })
	return ids
}

// Resolve maps planned identifiers to stages, preserving their order.
func (r *Registry) Resolve(ids []types.StageID) ([]Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stages := make([]Stage, len(ids))
	for i, id := range ids {
		stage, exists := r.stages[id]
		if !exists {
			return nil, fmt.Errorf("stage %q not registered", id)
		}
		stages[i] = stage
	}
	return stages, nil
}
