// Package settings implements the runtime-mutable configuration store with a
// short-TTL read-through cache. Values are stored as strings and parsed into
// typed values on read; reads never fail the caller.
package settings

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"salonbook/database/repository"
	"salonbook/models"
)

// Repo is the persistence surface the store needs.
type Repo interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]models.Setting, error)
}

// SettingsStore exposes typed reads and write-through updates.
type SettingsStore interface {
	GetInt(ctx context.Context, key string, def int) int
	GetBool(ctx context.Context, key string, def bool) bool
	GetFloat(ctx context.Context, key string, def float64) float64
	GetString(ctx context.Context, key string, def string) string
	Set(ctx context.Context, key string, value any) error
	List(ctx context.Context) ([]models.Setting, error)
}

// DefaultSettingsStore reads through a per-key redis cache with a short TTL.
// A nil cache client disables caching, every read then hits the repository.
type DefaultSettingsStore struct {
	Repo   Repo
	Cache  *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

const cachePrefix = "settings:"

// NewDefaultSettingsStore wires the store with its cache TTL.
func NewDefaultSettingsStore(repo Repo, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *DefaultSettingsStore {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &DefaultSettingsStore{Repo: repo, Cache: cache, TTL: ttl, Logger: logger}
}

// lookup returns the parsed value for a key and whether it was found.
// Failures of the backing store degrade to "not found" so callers fall back
// to their defaults.
func (s *DefaultSettingsStore) lookup(ctx context.Context, key string) (models.SettingValue, bool) {
	if s.Cache != nil {
		if raw, err := s.Cache.Get(ctx, cachePrefix+key).Result(); err == nil {
			return models.ParseSettingValue(raw), true
		}
	}

	setting, err := s.Repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrSettingNotFound) && s.Logger != nil {
			s.Logger.Warn("settings read failed", zap.String("key", key), zap.Error(err))
		}
		return models.SettingValue{}, false
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, cachePrefix+key, setting.Value, s.TTL).Err(); err != nil && s.Logger != nil {
			s.Logger.Warn("settings cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return models.ParseSettingValue(setting.Value), true
}

// GetInt returns the integer value for a key, or def.
func (s *DefaultSettingsStore) GetInt(ctx context.Context, key string, def int) int {
	if v, ok := s.lookup(ctx, key); ok {
		return v.AsInt(def)
	}
	return def
}

// GetBool returns the boolean value for a key, or def.
func (s *DefaultSettingsStore) GetBool(ctx context.Context, key string, def bool) bool {
	if v, ok := s.lookup(ctx, key); ok {
		return v.AsBool(def)
	}
	return def
}

// GetFloat returns the float value for a key, or def.
func (s *DefaultSettingsStore) GetFloat(ctx context.Context, key string, def float64) float64 {
	if v, ok := s.lookup(ctx, key); ok {
		return v.AsFloat(def)
	}
	return def
}

// GetString returns the string value for a key, or def.
func (s *DefaultSettingsStore) GetString(ctx context.Context, key string, def string) string {
	if v, ok := s.lookup(ctx, key); ok {
		return v.AsString(def)
	}
	return def
}

// Set writes the value through to the backing store and invalidates the
// cache entry.
func (s *DefaultSettingsStore) Set(ctx context.Context, key string, value any) error {
	encoded, err := models.EncodeSettingValue(value)
	if err != nil {
		return err
	}
	if err := s.Repo.Set(ctx, key, encoded); err != nil {
		return err
	}
	if s.Cache != nil {
		if err := s.Cache.Del(ctx, cachePrefix+key).Err(); err != nil && s.Logger != nil {
			s.Logger.Warn("settings cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// List returns all persisted settings.
func (s *DefaultSettingsStore) List(ctx context.Context) ([]models.Setting, error) {
	return s.Repo.List(ctx)
}
