package areas

//go:generate mockgen -destination=mock/mock_repository.go -package=mockareas -source=repository.go

import (
	"context"

	"github.com/vttforge/areatrigger/internal/domain/area"
)

// Repository defines the interface for area storage operations
type Repository interface {
	// Create stores a new area source
	Create(ctx context.Context, src *area.Source) error

	// Get retrieves an area source by ID
	Get(ctx context.Context, id string) (*area.Source, error)

	// Update modifies an existing area source
	Update(ctx context.Context, src *area.Source) error

	// Delete removes an area source
	Delete(ctx context.Context, id string) error

	// ListByScene retrieves all area sources in a scene
	ListByScene(ctx context.Context, sceneID string) ([]*area.Source, error)
}
