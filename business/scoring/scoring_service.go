package scoring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rateview/domain"
	"rateview/pkg/logger"
)

// coldStockDivisor scales stock-on-hand into the cold signal. The constant is
// a tuned heuristic, not a principled unit conversion.
const coldStockDivisor = 50.0

// ErrRunInProgress is returned when a scoring run is requested while another
// one is still executing. Runs mutate the same ranking rows, so they are
// never allowed to overlap.
var ErrRunInProgress = errors.New("scoring run already in progress")

type Config struct {
	PopularityWeight  float64
	StrategicWeight   float64
	WindowDays        int
	HalfLifeDays      float64
	FreshnessHalfLife float64
}

func DefaultConfig() Config {
	return Config{
		PopularityWeight:  0.7,
		StrategicWeight:   0.3,
		WindowDays:        14,
		HalfLifeDays:      3.0,
		FreshnessHalfLife: 1.5,
	}
}

type ScoringResult struct {
	UpdatedProductIDs []string `json:"updated"`
	Count             int      `json:"count"`
	WindowDays        int      `json:"window_days"`
}

// ---- Repository interfaces ----

type EngagementRepository interface {
	ListProductDailySince(ctx context.Context, start time.Time) ([]domain.ProductEngagementDaily, error)
}

type RankingRepository interface {
	Upsert(ctx context.Context, ranking *domain.ProductRanking) error
	TopByExposure(ctx context.Context, limit int) ([]domain.ProductRanking, error)
}

// FinancialMetricsProvider is the catalog/inventory collaborator. A lookup
// failure for one product degrades that product to zero margin and stock.
type FinancialMetricsProvider interface {
	GetFinancialMetrics(ctx context.Context, productID uuid.UUID) (domain.FinancialMetrics, error)
}

// ---- Service ----

type ScoringService struct {
	engagementRepo EngagementRepository
	rankingRepo    RankingRepository
	financials     FinancialMetricsProvider
	cfg            Config

	// serializes runs; see ErrRunInProgress
	mu sync.Mutex

	now func() time.Time
}

func NewScoringService(
	engagementRepo EngagementRepository,
	rankingRepo RankingRepository,
	financials FinancialMetricsProvider,
	cfg Config,
) *ScoringService {
	return &ScoringService{
		engagementRepo: engagementRepo,
		rankingRepo:    rankingRepo,
		financials:     financials,
		cfg:            cfg,
		now:            time.Now,
	}
}

// productAggregate holds decayed sums for one product across the window.
type productAggregate struct {
	views     float64
	clicks    float64
	carts     float64
	purchases float64
	revenue   float64
	freshness float64
}

type rawSignals struct {
	popularityRaw float64
	profitRaw     float64
	coldRaw       float64
	freshness     float64
}

// RunScoring recomputes all product rankings from the engagement window.
//
// Scores are min-max normalized against the maximum raw value of this run's
// candidate set, so they are comparable within one run but not across runs:
// the denominator moves with the batch.
//
// windowDays <= 0 falls back to the configured window. A second concurrent
// call fails fast with ErrRunInProgress.
func (s *ScoringService) RunScoring(ctx context.Context, windowDays int) (ScoringResult, error) {
	if !s.mu.TryLock() {
		return ScoringResult{}, ErrRunInProgress
	}
	defer s.mu.Unlock()

	if windowDays <= 0 {
		windowDays = s.cfg.WindowDays
	}
	result := ScoringResult{UpdatedProductIDs: []string{}, WindowDays: windowDays}

	aggregates, err := s.loadEngagement(ctx, windowDays)
	if err != nil {
		ScoringRunsTotal.WithLabelValues("error").Inc()
		return ScoringResult{}, err
	}
	if len(aggregates) == 0 {
		ScoringRunsTotal.WithLabelValues("empty").Inc()
		return result, nil
	}

	// Stable iteration order: sorted product IDs.
	productIDs := make([]uuid.UUID, 0, len(aggregates))
	for id := range aggregates {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool {
		return productIDs[i].String() < productIDs[j].String()
	})

	signals := make(map[uuid.UUID]rawSignals, len(aggregates))
	maxPopularity, maxProfit, maxCold := 0.0, 0.0, 0.0

	for _, productID := range productIDs {
		if err := ctx.Err(); err != nil {
			ScoringRunsTotal.WithLabelValues("cancelled").Inc()
			return ScoringResult{}, fmt.Errorf("context error: %w", err)
		}

		agg := aggregates[productID]
		popularity := agg.views*0.2 + agg.clicks*0.3 + agg.carts*0.5 + agg.purchases*1.2

		margin, stock := s.lookupFinancials(ctx, productID)

		totalViews := agg.views
		if totalViews == 0 {
			totalViews = 1.0
		}
		conversion := agg.purchases / totalViews
		profitRaw := margin * conversion

		popularityRatio := popularity / (totalViews + 1e-6)
		if popularityRatio > 1 {
			popularityRatio = 1
		}
		coldRaw := (1 - popularityRatio) + float64(stock)/coldStockDivisor

		sig := rawSignals{
			popularityRaw: max(0.0, popularity),
			profitRaw:     max(0.0, profitRaw),
			coldRaw:       max(0.0, coldRaw),
			freshness:     agg.freshness,
		}
		signals[productID] = sig

		maxPopularity = max(maxPopularity, sig.popularityRaw)
		maxProfit = max(maxProfit, sig.profitRaw)
		maxCold = max(maxCold, sig.coldRaw)
	}

	// All-zero batches divide by 1 and score 0 across the board.
	if maxPopularity == 0 {
		maxPopularity = 1.0
	}
	if maxProfit == 0 {
		maxProfit = 1.0
	}
	if maxCold == 0 {
		maxCold = 1.0
	}

	now := s.now().UTC()
	for _, productID := range productIDs {
		if err := ctx.Err(); err != nil {
			ScoringRunsTotal.WithLabelValues("cancelled").Inc()
			return ScoringResult{}, fmt.Errorf("context error: %w", err)
		}

		sig := signals[productID]
		popularityScore := round4(sig.popularityRaw / maxPopularity)
		profitScore := round4(sig.profitRaw / maxProfit)
		coldScore := round4(min(1.0, sig.coldRaw/maxCold))
		freshnessScore := round4(sig.freshness)

		strategic := (coldScore + freshnessScore) / 2
		exposureScore := round4(clamp01(s.cfg.PopularityWeight*popularityScore + s.cfg.StrategicWeight*strategic))

		ranking := domain.ProductRanking{
			ProductID:       productID,
			PopularityScore: popularityScore,
			ColdScore:       coldScore,
			ProfitScore:     profitScore,
			FreshnessScore:  freshnessScore,
			ExposureScore:   exposureScore,
			UpdatedAt:       now,
		}

		if err := s.rankingRepo.Upsert(ctx, &ranking); err != nil {
			logger.Error("ranking upsert failed", "product_id", productID, "error", err)
			continue
		}
		result.UpdatedProductIDs = append(result.UpdatedProductIDs, productID.String())
	}

	result.Count = len(result.UpdatedProductIDs)

	logger.Info("scoring_run",
		"window_days", windowDays,
		"products", len(aggregates),
		"updated", result.Count,
	)
	ScoringRunsTotal.WithLabelValues("ok").Inc()
	ScoringProductsUpdated.Set(float64(result.Count))

	return result, nil
}

// GetLatestRankings returns the current top-N rankings by exposure score.
func (s *ScoringService) GetLatestRankings(ctx context.Context, limit int) ([]domain.ProductRanking, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.rankingRepo.TopByExposure(ctx, limit)
}

// loadEngagement aggregates the in-window daily rows into decayed per-product
// sums. Freshness is the max decay factor observed, i.e. the most recent
// activity, not a sum.
func (s *ScoringService) loadEngagement(ctx context.Context, windowDays int) (map[uuid.UUID]*productAggregate, error) {
	today := s.today()
	start := today.AddDate(0, 0, -(windowDays - 1))

	rows, err := s.engagementRepo.ListProductDailySince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("load engagement window: %w", err)
	}

	aggregates := make(map[uuid.UUID]*productAggregate)
	for _, row := range rows {
		rowDate := time.Date(row.Date.Year(), row.Date.Month(), row.Date.Day(), 0, 0, 0, 0, time.UTC)
		ageDays := today.Sub(rowDate).Hours() / 24.0
		// future-dated rows (client clock skew at ingest) count as today;
		// a negative age would push the decay factor above 1
		if ageDays < 0 {
			ageDays = 0
		}
		decay := decayFactor(ageDays, s.cfg.HalfLifeDays)
		freshness := decayFactor(ageDays, s.cfg.FreshnessHalfLife)

		agg, ok := aggregates[row.ProductID]
		if !ok {
			agg = &productAggregate{}
			aggregates[row.ProductID] = agg
		}

		agg.views += float64(row.Views) * decay
		agg.clicks += float64(row.Clicks) * decay
		agg.carts += float64(row.Carts) * decay
		agg.purchases += float64(row.Purchases) * decay
		agg.revenue += row.Revenue.InexactFloat64() * decay
		agg.freshness = max(agg.freshness, freshness)
	}

	return aggregates, nil
}

// lookupFinancials degrades a failed collaborator call to zero margin/stock.
func (s *ScoringService) lookupFinancials(ctx context.Context, productID uuid.UUID) (margin float64, stock int) {
	fin, err := s.financials.GetFinancialMetrics(ctx, productID)
	if err != nil {
		logger.Debug("financial metrics lookup failed, treating as zero",
			"product_id", productID, "error", err)
		return 0, 0
	}
	if fin.Margin.Equal(decimal.Zero) {
		return 0, fin.StockOnHand
	}
	return fin.Margin.InexactFloat64(), fin.StockOnHand
}

func (s *ScoringService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
