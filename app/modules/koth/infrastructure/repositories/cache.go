package kothdb

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// SettingsCache is the subset of the redis client the settings cache uses.
type SettingsCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedRepository serves settings reads from redis. Reads inside a
// transaction and every other query go straight to the wrapped repository.
type CachedRepository struct {
	Repository
	cache  SettingsCache
	ttl    time.Duration
	logger *slog.Logger
}

var _ Repository = (*CachedRepository)(nil)

var _ SettingsCache = (*redis.Client)(nil)

// NewCachedRepository wraps inner with a redis read-through settings cache.
func NewCachedRepository(inner Repository, cache SettingsCache, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedRepository{Repository: inner, cache: cache, ttl: ttl, logger: logger}
}

func settingsKey(guildID sharedtypes.GuildID) string {
	return "koth:settings:" + string(guildID)
}

func (c *CachedRepository) GetSettings(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*GuildSettings, error) {
	if db != nil {
		return c.Repository.GetSettings(ctx, db, guildID)
	}

	key := settingsKey(guildID)
	raw, err := c.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var settings GuildSettings
		jsonErr := json.Unmarshal(raw, &settings)
		if jsonErr == nil {
			return &settings, nil
		}
		c.logger.WarnContext(ctx, "Discarding unreadable cached settings", attr.GuildID(guildID), attr.Error(jsonErr))
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "Settings cache read failed", attr.GuildID(guildID), attr.Error(err))
	}

	settings, err := c.Repository.GetSettings(ctx, nil, guildID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(settings); err == nil {
		if err := c.cache.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "Settings cache write failed", attr.GuildID(guildID), attr.Error(err))
		}
	}
	return settings, nil
}

func (c *CachedRepository) UpdateSettings(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, update SettingsUpdate) error {
	if err := c.Repository.UpdateSettings(ctx, db, guildID, update); err != nil {
		return err
	}
	c.invalidateAfterCommit(ctx, guildID)
	return nil
}

func (c *CachedRepository) TransitionStatus(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, from, to kothdomain.Status, update SettingsUpdate) error {
	if err := c.Repository.TransitionStatus(ctx, db, guildID, from, to, update); err != nil {
		return err
	}
	c.invalidateAfterCommit(ctx, guildID)
	return nil
}

// invalidateAfterCommit drops the cached settings once the write is visible,
// so a concurrent read-through cannot re-cache the old row.
func (c *CachedRepository) invalidateAfterCommit(ctx context.Context, guildID sharedtypes.GuildID) {
	AfterCommit(ctx, func(ctx context.Context) { c.Invalidate(ctx, guildID) })
}

// Invalidate drops the cached settings of a guild.
func (c *CachedRepository) Invalidate(ctx context.Context, guildID sharedtypes.GuildID) {
	if err := c.cache.Del(ctx, settingsKey(guildID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "Settings cache invalidation failed", attr.GuildID(guildID), attr.Error(err))
	}
}
