package exposure

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"rateview/domain"
	"rateview/pkg/logger"
)

// candidateOverscan multiplies the requested limit when fetching ranked
// candidates, leaving headroom for category capping and repeat avoidance.
const candidateOverscan = 4

type Config struct {
	PopularityWeight   float64
	StrategicWeight    float64
	CategoryCap        int
	ColdThreshold      float64
	StockThreshold     int
	FreshnessThreshold float64
	CacheTTL           time.Duration
}

func DefaultConfig() Config {
	return Config{
		PopularityWeight:   0.7,
		StrategicWeight:    0.3,
		CategoryCap:        3,
		ColdThreshold:      0.6,
		StockThreshold:     15,
		FreshnessThreshold: 0.7,
		CacheTTL:           600 * time.Second,
	}
}

// ---- Repository interfaces ----

type CandidateRepository interface {
	TopCandidates(ctx context.Context, categoryID *uuid.UUID, limit int) ([]domain.RankedCandidate, error)
}

type SlotRepository interface {
	Get(ctx context.Context, slotContext, userID string) (*domain.ExposureSlot, error)
	Upsert(ctx context.Context, slot *domain.ExposureSlot) error
	Delete(ctx context.Context, slotContext, userID string) error
	DeleteAll(ctx context.Context) error
}

type PromotionRepository interface {
	ListActive(ctx context.Context) ([]domain.Promotion, error)
}

type FinancialMetricsProvider interface {
	GetFinancialMetrics(ctx context.Context, productID uuid.UUID) (domain.FinancialMetrics, error)
}

// ---- Builder ----

// Builder assembles exposure mixes: a fresh selection pass over ranked
// candidates, a backfill pass over repeat-skipped candidates, and a cold
// boost pass, all under one shared category cap. It persists the resulting
// slot and writes through the payload cache.
type Builder struct {
	candidates CandidateRepository
	slots      SlotRepository
	promotions PromotionRepository
	financials FinancialMetricsProvider
	cache      *PayloadCache
	cfg        Config

	now func() time.Time
}

func NewBuilder(
	candidates CandidateRepository,
	slots SlotRepository,
	promotions PromotionRepository,
	financials FinancialMetricsProvider,
	cache *PayloadCache,
	cfg Config,
) *Builder {
	return &Builder{
		candidates: candidates,
		slots:      slots,
		promotions: promotions,
		financials: financials,
		cache:      cache,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Build computes a fresh mix for (context, user, category), persists it as
// the new exposure slot and write-through caches it. For a fixed snapshot of
// rankings, previous slot, promotions and financials, the output is fully
// deterministic: ties keep the candidate fetch order.
func (b *Builder) Build(
	ctx context.Context,
	displayContext string,
	userID *string,
	categoryID *uuid.UUID,
	limit int,
) (*domain.ExposureResponse, error) {
	started := b.now()
	slotCtx := slotContext(displayContext, categoryID)

	activePromos, err := b.promotions.ListActive(ctx)
	if err != nil {
		logger.Warn("promotion load failed, building without promotions", "error", err)
		activePromos = nil
	}
	promoByProduct := promotionsByProduct(activePromos)

	candidates, err := b.candidates.TopCandidates(ctx, categoryID, limit*candidateOverscan)
	if err != nil {
		return nil, fmt.Errorf("load ranking candidates: %w", err)
	}

	previouslyShown := b.loadPreviousMix(ctx, slotCtx, userID)

	categoryCounts := make(map[uuid.UUID]int)
	selected := make([]domain.ExposureItem, 0, limit)
	selectedIDs := make(map[uuid.UUID]struct{}, limit)
	var skippedForRepeat []domain.RankedCandidate
	var coldCandidates []domain.RankedCandidate

	// First pass: fresh selection in ranking order. Candidates skipped for
	// the category cap never re-enter; repeat-skipped candidates stay alive
	// for backfill and cold boost.
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context error: %w", err)
		}
		if b.capReached(categoryCounts, cand.CategoryID) {
			continue
		}

		stock := b.stockFor(ctx, cand.Ranking.ProductID)

		if _, shown := previouslyShown[cand.Ranking.ProductID]; shown {
			skippedForRepeat = append(skippedForRepeat, cand)
			coldCandidates = append(coldCandidates, cand)
			continue
		}
		coldCandidates = append(coldCandidates, cand)

		promo := b.resolvePromotion(activePromos, promoByProduct, cand)
		selected = append(selected, b.buildItem(cand, stock, promo, false))
		selectedIDs[cand.Ranking.ProductID] = struct{}{}
		categoryCounts[cand.CategoryID]++

		if len(selected) >= limit {
			break
		}
	}

	// Backfill pass: reuse repeat-skipped candidates when quota is short.
	if len(selected) < limit {
		for _, cand := range skippedForRepeat {
			if len(selected) >= limit {
				break
			}
			if b.capReached(categoryCounts, cand.CategoryID) {
				continue
			}
			stock := b.stockFor(ctx, cand.Ranking.ProductID)
			promo := b.resolvePromotion(activePromos, promoByProduct, cand)
			selected = append(selected, b.buildItem(cand, stock, promo, false))
			selectedIDs[cand.Ranking.ProductID] = struct{}{}
			categoryCounts[cand.CategoryID]++
		}
	}

	// Cold boost pass: surface under-exposed, well-stocked products.
	sort.SliceStable(coldCandidates, func(i, j int) bool {
		return coldCandidates[i].Ranking.ColdScore > coldCandidates[j].Ranking.ColdScore
	})
	for _, cand := range coldCandidates {
		if len(selected) >= limit {
			break
		}
		if _, ok := selectedIDs[cand.Ranking.ProductID]; ok {
			continue
		}
		if cand.Ranking.ColdScore < b.cfg.ColdThreshold {
			continue
		}
		if b.capReached(categoryCounts, cand.CategoryID) {
			continue
		}
		stock := b.stockFor(ctx, cand.Ranking.ProductID)
		if stock < b.cfg.StockThreshold {
			continue
		}
		promo := b.resolvePromotion(activePromos, promoByProduct, cand)
		selected = append(selected, b.buildItem(cand, stock, promo, true))
		selectedIDs[cand.Ranking.ProductID] = struct{}{}
		categoryCounts[cand.CategoryID]++
	}

	if len(selected) > limit {
		selected = selected[:limit]
	}

	generatedAt := b.now().UTC()
	payload := &domain.ExposureResponse{
		Context:     displayContext,
		UserID:      userID,
		CategoryID:  categoryID,
		GeneratedAt: generatedAt,
		ExpiresAt:   generatedAt.Add(b.cfg.CacheTTL),
		Mix:         selected,
	}

	if err := b.persistSlot(ctx, slotCtx, userID, payload); err != nil {
		return nil, err
	}
	b.cache.Set(ctx, cacheKey(displayContext, userID, categoryID), payload)

	logger.Debug("exposure_build",
		"context", displayContext,
		"slot", slotCtx,
		"candidates", len(candidates),
		"selected", len(selected),
		"previously_shown", len(previouslyShown),
	)
	ExposureBuildsTotal.WithLabelValues(displayContext).Inc()
	ExposureBuildDuration.Observe(b.now().Sub(started).Seconds())

	return payload, nil
}

func (b *Builder) capReached(counts map[uuid.UUID]int, categoryID uuid.UUID) bool {
	return b.cfg.CategoryCap > 0 && counts[categoryID] >= b.cfg.CategoryCap
}

// loadPreviousMix extracts the product IDs of the last mix shown for this
// slot key. A missing or unreadable slot means no repeat-avoidance data.
func (b *Builder) loadPreviousMix(ctx context.Context, slotCtx string, userID *string) map[uuid.UUID]struct{} {
	shown := make(map[uuid.UUID]struct{})

	slot, err := b.slots.Get(ctx, slotCtx, userValue(userID))
	if err != nil {
		logger.Warn("previous slot load failed, skipping repeat avoidance", "slot", slotCtx, "error", err)
		return shown
	}
	if slot == nil || len(slot.PayloadJSON) == 0 {
		return shown
	}

	var payload domain.ExposureResponse
	if err := json.Unmarshal(slot.PayloadJSON, &payload); err != nil {
		logger.Warn("previous slot payload unreadable", "slot", slotCtx, "error", err)
		return shown
	}
	for _, item := range payload.Mix {
		shown[item.ProductID] = struct{}{}
	}

	return shown
}

// stockFor degrades a failed financial lookup to zero stock.
func (b *Builder) stockFor(ctx context.Context, productID uuid.UUID) int {
	fin, err := b.financials.GetFinancialMetrics(ctx, productID)
	if err != nil {
		logger.Debug("stock lookup failed, treating as zero", "product_id", productID, "error", err)
		return 0
	}
	return fin.StockOnHand
}

// resolvePromotion prefers a product-scoped promotion, then the first active
// category promotion matching the candidate's category. Customer-scoped
// promotions are resolved elsewhere, against user context.
func (b *Builder) resolvePromotion(
	promos []domain.Promotion,
	byProduct map[uuid.UUID]*domain.Promotion,
	cand domain.RankedCandidate,
) *domain.Promotion {
	if promo, ok := byProduct[cand.Ranking.ProductID]; ok {
		return promo
	}
	for i := range promos {
		if promos[i].MatchesCategory(cand.CategoryID) {
			return &promos[i]
		}
	}
	return nil
}

func (b *Builder) buildItem(cand domain.RankedCandidate, stock int, promo *domain.Promotion, coldBoost bool) domain.ExposureItem {
	reasons := []string{}
	badges := []string{}

	if cand.Ranking.PopularityScore >= 0.5 {
		reasons = append(reasons, fmt.Sprintf("popular_%d", int(b.cfg.PopularityWeight*100)))
	}
	if stock >= b.cfg.StockThreshold {
		reasons = append(reasons, "in_stock")
	}
	if coldBoost && cand.Ranking.ColdScore >= b.cfg.ColdThreshold {
		reasons = append(reasons, fmt.Sprintf("cold_boost_%d", int(b.cfg.StrategicWeight*100)))
	}
	if cand.Ranking.FreshnessScore >= b.cfg.FreshnessThreshold {
		reasons = append(reasons, "fresh")
	}
	if promo != nil {
		badges = append(badges, "promo")
		reasons = append(reasons, "promo:"+promo.ID.String())
	}

	return domain.ExposureItem{
		ProductID: cand.Ranking.ProductID,
		Reason:    reasons,
		Badges:    badges,
	}
}

func (b *Builder) persistSlot(ctx context.Context, slotCtx string, userID *string, payload *domain.ExposureResponse) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal exposure payload: %w", err)
	}

	slot := &domain.ExposureSlot{
		SlotID:      uuid.New(),
		Context:     slotCtx,
		UserID:      userValue(userID),
		PayloadJSON: datatypes.JSON(raw),
		GeneratedAt: payload.GeneratedAt,
		ExpiresAt:   payload.ExpiresAt,
	}
	if err := b.slots.Upsert(ctx, slot); err != nil {
		return fmt.Errorf("persist exposure slot: %w", err)
	}

	return nil
}

func promotionsByProduct(promos []domain.Promotion) map[uuid.UUID]*domain.Promotion {
	byProduct := make(map[uuid.UUID]*domain.Promotion)
	for i := range promos {
		if promos[i].Type != domain.PromotionTypeProduct {
			continue
		}
		for _, productID := range promos[i].ProductIDs {
			if _, ok := byProduct[productID]; !ok {
				byProduct[productID] = &promos[i]
			}
		}
	}
	return byProduct
}
