package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/joshua-takyi/tzevents/internal/metrics"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileCache holds profiles looked up on every authenticated request.
// Implementations fail open: a cache error is a miss, never a request error.
type ProfileCache interface {
	GetProfile(ctx context.Context, id primitive.ObjectID) (*Profile, bool)
	SetProfile(ctx context.Context, profile *Profile)
	DeleteProfile(ctx context.Context, id primitive.ObjectID)
}

type RedisProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProfileCache(client *redis.Client, ttl time.Duration) *RedisProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisProfileCache{client: client, ttl: ttl}
}

func profileCacheKey(id primitive.ObjectID) string {
	return "profile:" + id.Hex()
}

func (rc *RedisProfileCache) GetProfile(ctx context.Context, id primitive.ObjectID) (*Profile, bool) {
	raw, err := rc.client.Get(ctx, profileCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.ProfileCacheLookups.WithLabelValues("miss").Inc()
		} else {
			metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
		}
		return nil, false
	}
	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.ProfileCacheLookups.WithLabelValues("hit").Inc()
	return &profile, true
}

func (rc *RedisProfileCache) SetProfile(ctx context.Context, profile *Profile) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	rc.client.Set(ctx, profileCacheKey(profile.ID), raw, rc.ttl)
}

func (rc *RedisProfileCache) DeleteProfile(ctx context.Context, id primitive.ObjectID) {
	rc.client.Del(ctx, profileCacheKey(id))
}

// CachedProfileRepo reads single profiles through a cache and invalidates on
// update. Every other call goes straight to the wrapped repository.
type CachedProfileRepo struct {
	ProfileRepo
	cache ProfileCache
}

func NewCachedProfileRepo(repo ProfileRepo, cache ProfileCache) *CachedProfileRepo {
	return &CachedProfileRepo{ProfileRepo: repo, cache: cache}
}

func (cr *CachedProfileRepo) FindProfileByID(ctx context.Context, id primitive.ObjectID) (*Profile, error) {
	if profile, ok := cr.cache.GetProfile(ctx, id); ok {
		return profile, nil
	}
	profile, err := cr.ProfileRepo.FindProfileByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cr.cache.SetProfile(ctx, profile)
	return profile, nil
}

func (cr *CachedProfileRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*Profile, error) {
	profile, err := cr.ProfileRepo.UpdateProfile(ctx, id, fields)
	cr.cache.DeleteProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	return profile, nil
}
