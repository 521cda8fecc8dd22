package tokens

//go:generate mockgen -destination=mock/mock_repository.go -package=mocktokens -source=repository.go

import (
	"context"

	"github.com/vttforge/areatrigger/internal/domain/scene"
)

// Repository defines the interface for token storage operations
type Repository interface {
	// Put stores or replaces a token
	Put(ctx context.Context, token *scene.Token) error

	// Get retrieves a token by ID
	Get(ctx context.Context, id string) (*scene.Token, error)

	// Delete removes a token
	Delete(ctx context.Context, id string) error

	// ListByScene retrieves all tokens in a scene
	ListByScene(ctx context.Context, sceneID string) ([]*scene.Token, error)
}
