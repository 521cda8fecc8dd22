package actors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vttforge/areatrigger/internal/domain/scene"
	"github.com/vttforge/areatrigger/internal/errors"
)

const (
	actorKeyPrefix = "actor:"
	grantKeyPrefix = "grant:"

	// actorGrantOriginsKey is a hash: areaID -> grantID, the explicit
	// origin index that keeps idempotency checks O(1)
	actorGrantOriginsKey = "actor:%s:grant_origins"

	// areaGrantsKey is a set of grant ids placed by one area, across actors
	areaGrantsKey = "area:%s:grants"
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client redis.UniversalClient
}

// redisRepository implements Repository using Redis
type redisRepository struct {
	client redis.UniversalClient
}

// NewRedisRepository creates a new Redis-backed actor repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}
	return &redisRepository{client: cfg.Client}
}

// PutActor stores or replaces an actor
func (r *redisRepository) PutActor(ctx context.Context, actor *scene.Actor) error {
	if actor == nil {
		return errors.InvalidArgument("actor cannot be nil")
	}
	if actor.ID == "" {
		return errors.InvalidArgument("actor ID cannot be empty")
	}

	data, err := json.Marshal(actor)
	if err != nil {
		return errors.Wrap(err, "failed to serialize actor")
	}

	if err := r.client.Set(ctx, actorKeyPrefix+actor.ID, data, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to store actor %s", actor.ID)
	}
	return nil
}

// GetActor retrieves an actor by ID
func (r *redisRepository) GetActor(ctx context.Context, id string) (*scene.Actor, error) {
	data, err := r.client.Get(ctx, actorKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, errors.NotFoundf("actor not found: %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get actor %s", id)
	}

	var actor scene.Actor
	if err := json.Unmarshal([]byte(data), &actor); err != nil {
		return nil, errors.Wrapf(err, "failed to deserialize actor %s", id)
	}
	return &actor, nil
}

// AddGrant stores a grant and indexes it by origin area
func (r *redisRepository) AddGrant(ctx context.Context, grant *scene.Grant) error {
	if grant == nil {
		return errors.InvalidArgument("grant cannot be nil")
	}
	if grant.ID == "" || grant.ActorID == "" || grant.OriginAreaID == "" {
		return errors.InvalidArgument("grant needs id, actor id, and origin area id")
	}

	data, err := json.Marshal(grant)
	if err != nil {
		return errors.Wrap(err, "failed to serialize grant")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, grantKeyPrefix+grant.ID, data, 0)
	pipe.HSet(ctx, fmt.Sprintf(actorGrantOriginsKey, grant.ActorID), grant.OriginAreaID, grant.ID)
	pipe.SAdd(ctx, fmt.Sprintf(areaGrantsKey, grant.OriginAreaID), grant.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to store grant %s", grant.ID)
	}
	return nil
}

// GetGrantByOrigin looks up the grant a specific area has placed on an actor
func (r *redisRepository) GetGrantByOrigin(ctx context.Context, actorID, areaID string) (*scene.Grant, error) {
	grantID, err := r.client.HGet(ctx, fmt.Sprintf(actorGrantOriginsKey, actorID), areaID).Result()
	if err == redis.Nil {
		return nil, errors.NotFoundf("no grant from area %s on actor %s", areaID, actorID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read grant origin index")
	}
	return r.getGrant(ctx, grantID)
}

// ListGrants retrieves all grants on an actor
func (r *redisRepository) ListGrants(ctx context.Context, actorID string) ([]*scene.Grant, error) {
	index, err := r.client.HGetAll(ctx, fmt.Sprintf(actorGrantOriginsKey, actorID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list grants for actor %s", actorID)
	}

	var out []*scene.Grant
	for _, grantID := range index {
		grant, err := r.getGrant(ctx, grantID)
		if err != nil {
			if errors.IsNotFound(err) {
				continue // index entry outlived its grant document
			}
			return nil, err
		}
		out = append(out, grant)
	}
	return out, nil
}

// RemoveGrant removes a single grant
func (r *redisRepository) RemoveGrant(ctx context.Context, grantID string) error {
	grant, err := r.getGrant(ctx, grantID)
	if err != nil {
		return err
	}
	return r.removeGrant(ctx, grant)
}

// RemoveGrantsByOrigin removes every grant tagged with the given area id
func (r *redisRepository) RemoveGrantsByOrigin(ctx context.Context, areaID string) ([]*scene.Grant, error) {
	grantIDs, err := r.client.SMembers(ctx, fmt.Sprintf(areaGrantsKey, areaID)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list grants for area %s", areaID)
	}

	var removed []*scene.Grant
	for _, grantID := range grantIDs {
		grant, err := r.getGrant(ctx, grantID)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return removed, err
		}
		if err := r.removeGrant(ctx, grant); err != nil {
			return removed, err
		}
		removed = append(removed, grant)
	}
	return removed, nil
}

func (r *redisRepository) getGrant(ctx context.Context, grantID string) (*scene.Grant, error) {
	data, err := r.client.Get(ctx, grantKeyPrefix+grantID).Result()
	if err == redis.Nil {
		return nil, errors.NotFoundf("grant not found: %s", grantID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get grant %s", grantID)
	}

	var grant scene.Grant
	if err := json.Unmarshal([]byte(data), &grant); err != nil {
		return nil, errors.Wrapf(err, "failed to deserialize grant %s", grantID)
	}
	return &grant, nil
}

func (r *redisRepository) removeGrant(ctx context.Context, grant *scene.Grant) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, grantKeyPrefix+grant.ID)
	pipe.HDel(ctx, fmt.Sprintf(actorGrantOriginsKey, grant.ActorID), grant.OriginAreaID)
	pipe.SRem(ctx, fmt.Sprintf(areaGrantsKey, grant.OriginAreaID), grant.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to remove grant %s", grant.ID)
	}
	return nil
}
