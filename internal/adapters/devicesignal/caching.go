package devicesignal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"judokit/internal/core/ports"
)

const cacheKeyPrefix = "judokit:devicesignal:"

// CachingProvider keeps the last signal of a device in Redis for ttl and
// only asks next on a miss.
type CachingProvider struct {
	rdb      redis.Cmdable
	next     ports.DeviceSignalProvider
	deviceID string
	ttl      time.Duration
	logger   *slog.Logger
}

func NewCachingProvider(rdb redis.Cmdable, next ports.DeviceSignalProvider, deviceID string, ttl time.Duration, logger *slog.Logger) *CachingProvider {
	if deviceID == "" {
		deviceID = "default"
	}
	return &CachingProvider{rdb: rdb, next: next, deviceID: deviceID, ttl: ttl, logger: logger}
}

func (p *CachingProvider) Signal(ctx context.Context) (map[string]any, error) {
	key := cacheKeyPrefix + p.deviceID

	raw, err := p.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var signal map[string]any
		if jsonErr := json.Unmarshal(raw, &signal); jsonErr == nil {
			return signal, nil
		}
		p.logger.Warn("discarding corrupt cached device signal", "device_id", p.deviceID)
	case !errors.Is(err, redis.Nil):
		// Cache outage: fall through to the upstream provider.
		p.logger.Warn("device signal cache unavailable", "error", err)
	}

	signal, err := p.next.Signal(ctx)
	if err != nil {
		return nil, fmt.Errorf("deviceSignal: upstream: %w", err)
	}

	if b, err := json.Marshal(signal); err == nil {
		if err := p.rdb.Set(ctx, key, b, p.ttl).Err(); err != nil {
			p.logger.Warn("failed to cache device signal", "error", err)
		}
	}
	return signal, nil
}
