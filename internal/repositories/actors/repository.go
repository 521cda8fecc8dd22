package actors

//go:generate mockgen -destination=mock/mock_repository.go -package=mockactors -source=repository.go

import (
	"context"

	"github.com/vttforge/areatrigger/internal/domain/scene"
)

// Repository stores actors and their condition grants. Grants keep an
// explicit origin index (areaID -> grantID per actor) so idempotency checks
// and revocation never scan an actor's full grant list.
type Repository interface {
	// PutActor stores or replaces an actor
	PutActor(ctx context.Context, actor *scene.Actor) error

	// GetActor retrieves an actor by ID
	GetActor(ctx context.Context, id string) (*scene.Actor, error)

	// AddGrant stores a grant and indexes it by origin area
	AddGrant(ctx context.Context, grant *scene.Grant) error

	// GetGrantByOrigin looks up the grant a specific area has placed on an
	// actor, if any
	GetGrantByOrigin(ctx context.Context, actorID, areaID string) (*scene.Grant, error)

	// ListGrants retrieves all grants on an actor
	ListGrants(ctx context.Context, actorID string) ([]*scene.Grant, error)

	// RemoveGrant removes a single grant
	RemoveGrant(ctx context.Context, grantID string) error

	// RemoveGrantsByOrigin removes every grant tagged with the given area id,
	// across all actors, returning the removed grants
	RemoveGrantsByOrigin(ctx context.Context, areaID string) ([]*scene.Grant, error)
}
