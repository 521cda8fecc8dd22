package tokens

import (
	"context"
	"sync"

	"github.com/vttforge/areatrigger/internal/domain/scene"
	"github.com/vttforge/areatrigger/internal/errors"
)

type inMemoryRepository struct {
	mu     sync.RWMutex
	tokens map[string]*scene.Token
}

// NewInMemoryRepository creates a new in-memory token repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		tokens: make(map[string]*scene.Token),
	}
}

// Put stores or replaces a token
func (r *inMemoryRepository) Put(ctx context.Context, token *scene.Token) error {
	if token == nil {
		return errors.InvalidArgument("token cannot be nil")
	}
	if token.ID == "" {
		return errors.InvalidArgument("token ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *token
	r.tokens[token.ID] = &copied
	return nil
}

// Get retrieves a token by ID
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*scene.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, exists := r.tokens[id]
	if !exists {
		return nil, errors.NotFoundf("token not found: %s", id)
	}

	copied := *token
	return &copied, nil
}

// Delete removes a token
func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokens[id]; !exists {
		return errors.NotFoundf("token not found: %s", id)
	}
	delete(r.tokens, id)
	return nil
}

// ListByScene retrieves all tokens in a scene
func (r *inMemoryRepository) ListByScene(ctx context.Context, sceneID string) ([]*scene.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*scene.Token
	for _, token := range r.tokens {
		if token.SceneID == sceneID {
			copied := *token
			out = append(out, &copied)
		}
	}
	return out, nil
}
