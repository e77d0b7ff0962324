package session

import (
	"encoding/json"
	"errors"

	"go-portal/internal/auth"

	"go.uber.org/zap"
)

// CurrentUserKey is the only key the cache writes.
const CurrentUserKey = "currentUser"

// Cache remembers the signed-in user's public profile between runs. A Cache
// without storage is valid and does nothing.
type Cache struct {
	storage Storage
	logger  *zap.Logger
}

func NewCache(storage Storage, logger ...*zap.Logger) *Cache {
	l := zap.L().Named("session.cache")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("session.cache")
	}
	return &Cache{storage: storage, logger: l}
}

// Save overwrites the stored profile. A profile without an email is not a
// signed-in user and is ignored. Failures are logged, not returned.
func (c *Cache) Save(profile auth.PublicProfile) {
	if c == nil || c.storage == nil {
		return
	}
	if profile.Email == "" {
		c.logger.Warn("refusing to save current user without email")
		return
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		c.logger.Warn("encode current user failed", zap.Error(err))
		return
	}
	if err := c.storage.Put(CurrentUserKey, raw); err != nil {
		c.logger.Warn("save current user failed", zap.Error(err))
	}
}

// Load returns nil when nothing is stored, the read fails or the entry is
// not a profile.
func (c *Cache) Load() *auth.PublicProfile {
	if c == nil || c.storage == nil {
		return nil
	}

	raw, err := c.storage.Get(CurrentUserKey)
	if err != nil {
		if !errors.Is(err, ErrNoEntry) {
			c.logger.Warn("read current user failed", zap.Error(err))
		}
		return nil
	}

	var profile auth.PublicProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		c.logger.Warn("current user entry is corrupted", zap.Error(err))
		return nil
	}
	if profile.Email == "" {
		c.logger.Warn("current user entry has no email")
		return nil
	}
	return &profile
}

func (c *Cache) Clear() {
	if c == nil || c.storage == nil {
		return
	}
	if err := c.storage.Remove(CurrentUserKey); err != nil {
		c.logger.Warn("clear current user failed", zap.Error(err))
	}
}
