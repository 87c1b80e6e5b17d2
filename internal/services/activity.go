package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/social-platform/social-platform/pkg/cache"
	"github.com/social-platform/social-platform/pkg/logger"
	"github.com/social-platform/social-platform/pkg/queue"
)

// ActivityService keeps per-user activity tallies in redis, fed by the event
// worker. It is derived data only; domain reads never consult it.
type ActivityService struct {
	cache  *cache.RedisClient
	logger *logger.Logger
}

func NewActivityService(cache *cache.RedisClient, logger *logger.Logger) *ActivityService {
	return &ActivityService{
		cache:  cache,
		logger: logger,
	}
}

const activityTTL = 30 * 24 * time.Hour

func activityKey(userID string) string {
	return fmt.Sprintf("activity:%s", userID)
}

// Record bumps the counter for the event's type under the acting user.
func (s *ActivityService) Record(ctx context.Context, event queue.Event) error {
	userID := event.Data["user_id"]
	if userID == "" {
		userID = event.Data["follower_id"]
	}
	if userID == "" {
		s.logger.WithField("event_type", string(event.Type)).Warn("Activity event without user id")
		return nil
	}

	key := activityKey(userID)
	if _, err := s.cache.HIncrBy(ctx, key, string(event.Type), 1); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	if err := s.cache.Expire(ctx, key, activityTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to refresh activity TTL")
	}
	return nil
}

// Stats returns the per-event-type tallies for a user.
func (s *ActivityService) Stats(ctx context.Context, userID string) (map[string]int64, error) {
	raw, err := s.cache.HGetAll(ctx, activityKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get activity stats: %w", err)
	}

	stats := make(map[string]int64, len(raw))
	for field, value := range raw {
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		stats[field] = count
	}
	return stats, nil
}
