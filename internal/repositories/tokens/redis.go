package tokens

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/vttforge/areatrigger/internal/domain/scene"
	"github.com/vttforge/areatrigger/internal/errors"
)

const (
	tokenKeyPrefix = "token:"
	sceneTokensKey = "scene:%s:tokens"
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
}

// redisRepository implements Repository using Redis
type redisRepository struct {
	client redis.UniversalClient
}

// NewRedisRepository creates a new Redis-backed token repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}
	return &redisRepository{client: cfg.Client}
}

// Put stores or replaces a token
func (r *redisRepository) Put(ctx context.Context, token *scene.Token) error {
	if token == nil {
		return errors.InvalidArgument("token cannot be nil")
	}
	if token.ID == "" {
		return errors.InvalidArgument("token ID cannot be empty")
	}

	data, err := json.Marshal(token)
	if err != nil {
		return errors.Wrap(err, "failed to serialize token")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, tokenKeyPrefix+token.ID, data, 0)
	pipe.SAdd(ctx, fmt.Sprintf(sceneTokensKey, token.SceneID), token.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to store token %s", token.ID)
	}
	return nil
}

// Get retrieves a token by ID
func (r *redisRepository) Get(ctx context.Context, id string) (*scene.Token, error) {
	data, err := r.client.Get(ctx, tokenKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, errors.NotFoundf("token not found: %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get token %s", id)
	}

	var token scene.Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, errors.Wrapf(err, "failed to deserialize token %s", id)
	}
	return &token, nil
}

// Delete removes a token
func (r *redisRepository) Delete(ctx context.Context, id string) error {
	token, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, tokenKeyPrefix+id)
	pipe.SRem(ctx, fmt.Sprintf(sceneTokensKey, token.SceneID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to delete token %s", id)
	}
	return nil
}

// ListByScene retrieves all tokens in a scene
func (r *redisRepository) ListByScene(ctx context.Context, sceneID string) ([]*scene.Token, error) {
	ids, err := r.client.SMembers(ctx, fmt.Sprintf(sceneTokensKey, sceneID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list tokens for scene %s", sceneID)
	}

	tokens := make([]*scene.Token, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			token, err := r.Get(ctx, id)
			if err != nil {
				return err
			}
			tokens[i] = token
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tokens, nil
}
