package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/events"
)

// Invalidator drops cached search results.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// StartSearchCacheWorker invalidates the search cache whenever a user is
// created or changed.
func StartSearchCacheWorker(dispatcher events.Dispatcher, cache Invalidator, logger *zap.Logger) {
	if dispatcher == nil || cache == nil {
		return
	}
	handler := func(ctx context.Context, event events.Event) error {
		if err := cache.Invalidate(ctx); err != nil {
			logger.Warn("search cache invalidation failed",
				zap.String("event", string(event.Type)),
				zap.String("user_id", event.UserID),
				zap.Error(err),
			)
			return err
		}
		return nil
	}
	dispatcher.Subscribe(events.EventUserRegistered, handler)
	dispatcher.Subscribe(events.EventUserUpdated, handler)
}
