package exposure

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"rateview/domain"
	"rateview/pkg/logger"
)

// ExposureService is the only entry point external callers should use.
// Reads go through the two-tier cache; misses rebuild through a per-key
// singleflight group so concurrent cold requests share one build.
type ExposureService struct {
	builder *Builder
	cache   *PayloadCache
	slots   SlotRepository
	group   singleflight.Group
}

func NewExposureService(builder *Builder, cache *PayloadCache, slots SlotRepository) *ExposureService {
	return &ExposureService{
		builder: builder,
		cache:   cache,
		slots:   slots,
	}
}

// GetExposure returns the mix for (context, user, category), served from
// cache when fresh. On a miss, exactly one build runs per key; late arrivals
// wait for and share its result.
func (s *ExposureService) GetExposure(
	ctx context.Context,
	displayContext string,
	userID *string,
	categoryID *uuid.UUID,
	limit int,
) (*domain.ExposureResponse, error) {
	if limit <= 0 {
		limit = 12
	}

	key := cacheKey(displayContext, userID, categoryID)
	if payload, ok := s.cache.Get(ctx, key); ok {
		return payload, nil
	}
	ExposureCacheMissesTotal.Inc()

	result, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.builder.Build(ctx, displayContext, userID, categoryID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("build exposure mix: %w", err)
	}
	if shared {
		logger.Debug("exposure build shared across waiters", "key", key)
	}

	return result.(*domain.ExposureResponse), nil
}

// Refresh forces a rebuild, bypassing the cache read. The build still
// repopulates the cache and slot. Intended for administrative use.
func (s *ExposureService) Refresh(
	ctx context.Context,
	displayContext string,
	userID *string,
	categoryID *uuid.UUID,
	limit int,
) (*domain.ExposureResponse, error) {
	if limit <= 0 {
		limit = 12
	}
	return s.builder.Build(ctx, displayContext, userID, categoryID, limit)
}

// ClearCache invalidates cache entries together with their durable slots so
// the two stay consistent. With a context it clears one key; without, it
// flushes everything.
func (s *ExposureService) ClearCache(
	ctx context.Context,
	displayContext string,
	userID *string,
	categoryID *uuid.UUID,
) error {
	if displayContext != "" {
		s.cache.Clear(ctx, cacheKey(displayContext, userID, categoryID))
		if err := s.slots.Delete(ctx, slotContext(displayContext, categoryID), userValue(userID)); err != nil {
			return fmt.Errorf("delete exposure slot: %w", err)
		}
		return nil
	}

	s.cache.ClearAll(ctx)
	if err := s.slots.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete exposure slots: %w", err)
	}

	return nil
}
