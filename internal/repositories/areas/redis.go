package areas

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/vttforge/areatrigger/internal/domain/area"
	"github.com/vttforge/areatrigger/internal/errors"
)

const (
	areaKeyPrefix = "area:"
	sceneAreasKey = "scene:%s:areas"
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
}

// redisRepository implements Repository using Redis
type redisRepository struct {
	client redis.UniversalClient
}

// NewRedisRepository creates a new Redis-backed area repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}
	return &redisRepository{client: cfg.Client}
}

// Create stores a new area source
func (r *redisRepository) Create(ctx context.Context, src *area.Source) error {
	if src == nil {
		return errors.InvalidArgument("area source cannot be nil")
	}
	if src.ID == "" {
		return errors.InvalidArgument("area source ID cannot be empty")
	}

	key := areaKeyPrefix + src.ID
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return errors.Wrap(err, "failed to check area existence")
	}
	if exists > 0 {
		return errors.AlreadyExists("area already exists: " + src.ID)
	}

	return r.write(ctx, src)
}

// Get retrieves an area source by ID
func (r *redisRepository) Get(ctx context.Context, id string) (*area.Source, error) {
	data, err := r.client.Get(ctx, areaKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, errors.NotFoundf("area not found: %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get area %s", id)
	}

	var src area.Source
	if err := json.Unmarshal([]byte(data), &src); err != nil {
		return nil, errors.Wrapf(err, "failed to deserialize area %s", id)
	}
	return &src, nil
}

// Update modifies an existing area source
func (r *redisRepository) Update(ctx context.Context, src *area.Source) error {
	if src == nil {
		return errors.InvalidArgument("area source cannot be nil")
	}

	exists, err := r.client.Exists(ctx, areaKeyPrefix+src.ID).Result()
	if err != nil {
		return errors.Wrap(err, "failed to check area existence")
	}
	if exists == 0 {
		return errors.NotFoundf("area not found: %s", src.ID)
	}

	return r.write(ctx, src)
}

// Delete removes an area source
func (r *redisRepository) Delete(ctx context.Context, id string) error {
	src, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, areaKeyPrefix+id)
	pipe.SRem(ctx, fmt.Sprintf(sceneAreasKey, src.SceneID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to delete area %s", id)
	}
	return nil
}

// ListByScene retrieves all area sources in a scene
func (r *redisRepository) ListByScene(ctx context.Context, sceneID string) ([]*area.Source, error) {
	ids, err := r.client.SMembers(ctx, fmt.Sprintf(sceneAreasKey, sceneID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list areas for scene %s", sceneID)
	}

	sources := make([]*area.Source, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			src, err := r.Get(ctx, id)
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *redisRepository) write(ctx context.Context, src *area.Source) error {
	data, err := json.Marshal(src)
	if err != nil {
		return errors.Wrap(err, "failed to serialize area")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, areaKeyPrefix+src.ID, data, 0)
	pipe.SAdd(ctx, fmt.Sprintf(sceneAreasKey, src.SceneID), src.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to store area %s", src.ID)
	}
	return nil
}
