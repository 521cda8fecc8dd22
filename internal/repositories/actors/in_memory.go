package actors

import (
	"context"
	"sync"

	"github.com/vttforge/areatrigger/internal/domain/scene"
	"github.com/vttforge/areatrigger/internal/errors"
)

type inMemoryRepository struct {
	mu       sync.RWMutex
	actors   map[string]*scene.Actor
	grants   map[string]*scene.Grant
	byOrigin map[string]map[string]string // actorID -> areaID -> grantID
	byArea   map[string][]string          // areaID -> grant IDs
}

// NewInMemoryRepository creates a new in-memory actor repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		actors:   make(map[string]*scene.Actor),
		grants:   make(map[string]*scene.Grant),
		byOrigin: make(map[string]map[string]string),
		byArea:   make(map[string][]string),
	}
}

// PutActor stores or replaces an actor
func (r *inMemoryRepository) PutActor(ctx context.Context, actor *scene.Actor) error {
	if actor == nil {
		return errors.InvalidArgument("actor cannot be nil")
	}
	if actor.ID == "" {
		return errors.InvalidArgument("actor ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.actors[actor.ID] = copyActor(actor)
	return nil
}

// GetActor retrieves an actor by ID
func (r *inMemoryRepository) GetActor(ctx context.Context, id string) (*scene.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actor, exists := r.actors[id]
	if !exists {
		return nil, errors.NotFoundf("actor not found: %s", id)
	}
	return copyActor(actor), nil
}

// AddGrant stores a grant and indexes it by origin area
func (r *inMemoryRepository) AddGrant(ctx context.Context, grant *scene.Grant) error {
	if grant == nil {
		return errors.InvalidArgument("grant cannot be nil")
	}
	if grant.ID == "" || grant.ActorID == "" || grant.OriginAreaID == "" {
		return errors.InvalidArgument("grant needs id, actor id, and origin area id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *grant
	r.grants[grant.ID] = &copied

	if r.byOrigin[grant.ActorID] == nil {
		r.byOrigin[grant.ActorID] = make(map[string]string)
	}
	r.byOrigin[grant.ActorID][grant.OriginAreaID] = grant.ID
	r.byArea[grant.OriginAreaID] = append(r.byArea[grant.OriginAreaID], grant.ID)
	return nil
}

// GetGrantByOrigin looks up the grant a specific area has placed on an actor
func (r *inMemoryRepository) GetGrantByOrigin(ctx context.Context, actorID, areaID string) (*scene.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	grantID, ok := r.byOrigin[actorID][areaID]
	if !ok {
		return nil, errors.NotFoundf("no grant from area %s on actor %s", areaID, actorID)
	}

	grant := r.grants[grantID]
	copied := *grant
	return &copied, nil
}

// ListGrants retrieves all grants on an actor
func (r *inMemoryRepository) ListGrants(ctx context.Context, actorID string) ([]*scene.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*scene.Grant
	for _, grantID := range r.byOrigin[actorID] {
		if grant, ok := r.grants[grantID]; ok {
			copied := *grant
			out = append(out, &copied)
		}
	}
	return out, nil
}

// RemoveGrant removes a single grant
func (r *inMemoryRepository) RemoveGrant(ctx context.Context, grantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	grant, exists := r.grants[grantID]
	if !exists {
		return errors.NotFoundf("grant not found: %s", grantID)
	}
	r.removeLocked(grant)
	return nil
}

// RemoveGrantsByOrigin removes every grant tagged with the given area id
func (r *inMemoryRepository) RemoveGrantsByOrigin(ctx context.Context, areaID string) ([]*scene.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []*scene.Grant
	for _, grantID := range append([]string(nil), r.byArea[areaID]...) {
		if grant, ok := r.grants[grantID]; ok {
			copied := *grant
			removed = append(removed, &copied)
			r.removeLocked(grant)
		}
	}
	return removed, nil
}

func (r *inMemoryRepository) removeLocked(grant *scene.Grant) {
	delete(r.grants, grant.ID)

	if origins, ok := r.byOrigin[grant.ActorID]; ok {
		if origins[grant.OriginAreaID] == grant.ID {
			delete(origins, grant.OriginAreaID)
		}
	}

	ids := r.byArea[grant.OriginAreaID]
	for i, id := range ids {
		if id == grant.ID {
			r.byArea[grant.OriginAreaID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

func copyActor(actor *scene.Actor) *scene.Actor {
	copied := *actor
	if actor.Abilities != nil {
		copied.Abilities = make(map[string]int, len(actor.Abilities))
		for k, v := range actor.Abilities {
			copied.Abilities[k] = v
		}
	}
	return &copied
}
