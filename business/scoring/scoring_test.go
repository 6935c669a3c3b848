package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rateview/domain"
)

type fakeEngagementRepo struct {
	rows    []domain.ProductEngagementDaily
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeEngagementRepo) ListProductDailySince(ctx context.Context, start time.Time) ([]domain.ProductEngagementDaily, error) {
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.release != nil {
		<-f.release
	}
	return f.rows, f.err
}

type fakeRankingRepo struct {
	upserts   map[uuid.UUID]domain.ProductRanking
	upsertErr error
}

func newFakeRankingRepo() *fakeRankingRepo {
	return &fakeRankingRepo{upserts: make(map[uuid.UUID]domain.ProductRanking)}
}

func (f *fakeRankingRepo) Upsert(ctx context.Context, ranking *domain.ProductRanking) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts[ranking.ProductID] = *ranking
	return nil
}

func (f *fakeRankingRepo) TopByExposure(ctx context.Context, limit int) ([]domain.ProductRanking, error) {
	out := make([]domain.ProductRanking, 0, len(f.upserts))
	for _, r := range f.upserts {
		out = append(out, r)
	}
	return out, nil
}

type fakeFinancials struct {
	metrics map[uuid.UUID]domain.FinancialMetrics
	err     error
}

func (f *fakeFinancials) GetFinancialMetrics(ctx context.Context, productID uuid.UUID) (domain.FinancialMetrics, error) {
	if f.err != nil {
		return domain.FinancialMetrics{}, f.err
	}
	return f.metrics[productID], nil
}

var scoringNow = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

func newTestService(engagement *fakeEngagementRepo, rankings *fakeRankingRepo, financials *fakeFinancials) *ScoringService {
	svc := NewScoringService(engagement, rankings, financials, DefaultConfig())
	svc.now = func() time.Time { return scoringNow }
	return svc
}

func dailyRow(productID uuid.UUID, daysAgo, views, clicks, carts, purchases int) domain.ProductEngagementDaily {
	return domain.ProductEngagementDaily{
		ProductID: productID,
		Date:      time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo),
		Views:     views,
		Clicks:    clicks,
		Carts:     carts,
		Purchases: purchases,
		Revenue:   decimal.Zero,
	}
}

func TestDecayFactor(t *testing.T) {
	if got := decayFactor(0, 3.0); got != 1.0 {
		t.Fatalf("decay at age 0 = %f, want 1.0", got)
	}
	if got := decayFactor(3.0, 3.0); got < 0.499 || got > 0.501 {
		t.Fatalf("decay at one half-life = %f, want ~0.5", got)
	}
	if got := decayFactor(5.0, 0); got != 1.0 {
		t.Fatalf("decay with non-positive half-life = %f, want 1.0", got)
	}
}

func TestRunScoring_BatchMaxNormalizesToOne(t *testing.T) {
	hot := uuid.New()
	warm := uuid.New()
	repo := &fakeEngagementRepo{rows: []domain.ProductEngagementDaily{
		dailyRow(hot, 0, 100, 50, 20, 10),
		dailyRow(warm, 0, 10, 5, 2, 1),
	}}
	rankings := newFakeRankingRepo()
	svc := newTestService(repo, rankings, &fakeFinancials{})

	result, err := svc.RunScoring(context.Background(), 14)
	if err != nil {
		t.Fatalf("RunScoring: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("updated %d products, want 2", result.Count)
	}

	if got := rankings.upserts[hot].PopularityScore; got != 1.0 {
		t.Errorf("batch max popularity = %f, want 1.0", got)
	}
	if got := rankings.upserts[warm].PopularityScore; got >= 1.0 || got <= 0 {
		t.Errorf("warm popularity = %f, want in (0, 1)", got)
	}

	for id, ranking := range rankings.upserts {
		for name, score := range map[string]float64{
			"popularity": ranking.PopularityScore,
			"cold":       ranking.ColdScore,
			"profit":     ranking.ProfitScore,
			"freshness":  ranking.FreshnessScore,
			"exposure":   ranking.ExposureScore,
		} {
			if score < 0 || score > 1 {
				t.Errorf("product %s: %s score %f out of [0,1]", id, name, score)
			}
		}
	}
}

func TestRunScoring_DecayFavorsRecentActivity(t *testing.T) {
	recent := uuid.New()
	stale := uuid.New()
	repo := &fakeEngagementRepo{rows: []domain.ProductEngagementDaily{
		// 10 purchases yesterday vs 100 views thirteen days ago
		dailyRow(recent, 1, 0, 0, 0, 10),
		dailyRow(stale, 13, 100, 0, 0, 0),
	}}
	rankings := newFakeRankingRepo()
	svc := newTestService(repo, rankings, &fakeFinancials{})

	if _, err := svc.RunScoring(context.Background(), 14); err != nil {
		t.Fatalf("RunScoring: %v", err)
	}

	recentPop := rankings.upserts[recent].PopularityScore
	stalePop := rankings.upserts[stale].PopularityScore
	if recentPop != 1.0 {
		t.Errorf("recent popularity = %f, want 1.0 (batch max)", recentPop)
	}
	if stalePop >= recentPop {
		t.Errorf("stale popularity %f not below recent %f", stalePop, recentPop)
	}
	if rankings.upserts[recent].FreshnessScore <= rankings.upserts[stale].FreshnessScore {
		t.Errorf("freshness did not favor recent activity: recent=%f stale=%f",
			rankings.upserts[recent].FreshnessScore, rankings.upserts[stale].FreshnessScore)
	}
}

func TestRunScoring_FutureDatedRowsDoNotInflateScores(t *testing.T) {
	future := uuid.New()
	past := uuid.New()
	repo := &fakeEngagementRepo{rows: []domain.ProductEngagementDaily{
		// ingest accepts client timestamps, so a skewed clock can produce a
		// row dated ahead of the scoring run
		dailyRow(future, -2, 5, 0, 0, 1),
		dailyRow(past, 1, 5, 0, 0, 1),
	}}
	rankings := newFakeRankingRepo()
	svc := newTestService(repo, rankings, &fakeFinancials{})

	if _, err := svc.RunScoring(context.Background(), 14); err != nil {
		t.Fatalf("RunScoring: %v", err)
	}

	if got := rankings.upserts[future].FreshnessScore; got != 1.0 {
		t.Errorf("future-dated freshness = %f, want clamped to 1.0", got)
	}
	for id, ranking := range rankings.upserts {
		for name, score := range map[string]float64{
			"popularity": ranking.PopularityScore,
			"cold":       ranking.ColdScore,
			"profit":     ranking.ProfitScore,
			"freshness":  ranking.FreshnessScore,
			"exposure":   ranking.ExposureScore,
		} {
			if score < 0 || score > 1 {
				t.Errorf("product %s: %s score %f out of [0,1]", id, name, score)
			}
		}
	}
}

func TestRunScoring_EmptyWindow(t *testing.T) {
	svc := newTestService(&fakeEngagementRepo{}, newFakeRankingRepo(), &fakeFinancials{})

	result, err := svc.RunScoring(context.Background(), 14)
	if err != nil {
		t.Fatalf("RunScoring: %v", err)
	}
	if result.Count != 0 || len(result.UpdatedProductIDs) != 0 {
		t.Fatalf("empty window produced updates: %+v", result)
	}
	if result.WindowDays != 14 {
		t.Fatalf("window days = %d, want 14", result.WindowDays)
	}
}

func TestRunScoring_FinancialLookupFailureDegradesToZero(t *testing.T) {
	productID := uuid.New()
	repo := &fakeEngagementRepo{rows: []domain.ProductEngagementDaily{
		dailyRow(productID, 0, 10, 0, 0, 5),
	}}
	rankings := newFakeRankingRepo()
	svc := newTestService(repo, rankings, &fakeFinancials{err: errors.New("catalog down")})

	result, err := svc.RunScoring(context.Background(), 14)
	if err != nil {
		t.Fatalf("RunScoring: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("updated %d products, want 1", result.Count)
	}
	if got := rankings.upserts[productID].ProfitScore; got != 0 {
		t.Errorf("profit score with failed lookup = %f, want 0", got)
	}
}

func TestRunScoring_RejectsConcurrentRun(t *testing.T) {
	repo := &fakeEngagementRepo{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	started := repo.started
	svc := newTestService(repo, newFakeRankingRepo(), &fakeFinancials{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.RunScoring(context.Background(), 14)
		done <- err
	}()

	<-started
	if _, err := svc.RunScoring(context.Background(), 14); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("concurrent run error = %v, want ErrRunInProgress", err)
	}

	close(repo.release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
}

func TestGetLatestRankings_DefaultLimit(t *testing.T) {
	rankings := newFakeRankingRepo()
	rankings.upserts[uuid.New()] = domain.ProductRanking{ExposureScore: 0.5}
	svc := newTestService(&fakeEngagementRepo{}, rankings, &fakeFinancials{})

	rows, err := svc.GetLatestRankings(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetLatestRankings: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
}
