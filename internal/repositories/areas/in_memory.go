package areas

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/errors"
)

type inMemoryRepository struct {
	mu      sync.RWMutex
	areas   map[string]*area.Source
	byScene map[string][]string // sceneID -> area IDs
}

// NewInMemoryRepository creates a new in-memory area repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		areas:   make(map[string]*area.Source),
		byScene: make(map[string][]string),
	}
}

// Create stores a new area source
func (r *inMemoryRepository) Create(ctx context.Context, src *area.Source) error {
	if src == nil {
		return errors.InvalidArgument("area source cannot be nil")
	}
	if src.ID == "" {
		return errors.InvalidArgument("area source ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.areas[src.ID]; exists {
		return errors.AlreadyExists("area already exists: " + src.ID)
	}

	r.areas[src.ID] = copySource(src)
	r.byScene[src.SceneID] = append(r.byScene[src.SceneID], src.ID)
	return nil
}

// Get retrieves an area source by ID
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*area.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, exists := r.areas[id]
	if !exists {
		return nil, errors.NotFoundf("area not found: %s", id)
	}
	return copySource(src), nil
}

// Update modifies an existing area source
func (r *inMemoryRepository) Update(ctx context.Context, src *area.Source) error {
	if src == nil {
		return errors.InvalidArgument("area source cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.areas[src.ID]; !exists {
		return errors.NotFoundf("area not found: %s", src.ID)
	}

	r.areas[src.ID] = copySource(src)
	return nil
}

// Delete removes an area source
func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, exists := r.areas[id]
	if !exists {
		return errors.NotFoundf("area not found: %s", id)
	}

	delete(r.areas, id)

	ids := r.byScene[src.SceneID]
	for i, aid := range ids {
		if aid == id {
			r.byScene[src.SceneID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// ListByScene retrieves all area sources in a scene
func (r *inMemoryRepository) ListByScene(ctx context.Context, sceneID string) ([]*area.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*area.Source, 0, len(r.byScene[sceneID]))
	for _, id := range r.byScene[sceneID] {
		if src, exists := r.areas[id]; exists {
			out = append(out, copySource(src))
		}
	}
	return out, nil
}

// copySource deep-copies through JSON so callers cannot mutate stored state
func copySource(src *area.Source) *area.Source {
	data, err := json.Marshal(src)
	if err != nil {
		return src
	}
	var out area.Source
	if err := json.Unmarshal(data, &out); err != nil {
		return src
	}
	return &out
}
