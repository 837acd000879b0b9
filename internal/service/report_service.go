// internal/service/report_service.go
package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cmass/marketshare-backend/internal/cache"
	"github.com/cmass/marketshare-backend/internal/domain"
	"github.com/cmass/marketshare-backend/internal/market"
)

// shareFilter is the cache key payload for share reports.
type shareFilter struct {
	Year    int    `json:"year"`
	GroupBy string `json:"group_by"`
}

// ReportService computes dashboard reports over the loaded dataset. The
// dataset is immutable between reloads; Reload swaps it atomically and
// drops every cached table.
type ReportService struct {
	mu         sync.RWMutex
	ds         *domain.Dataset
	dir        *market.Directory
	reportYear int
	prevYear   int

	cache cache.ReportCache
}

func NewReportService(ds *domain.Dataset, cacheImpl cache.ReportCache, reportYear int) *ReportService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &ReportService{
		ds:         ds,
		dir:        market.BuildDirectory(ds.Distributors),
		reportYear: reportYear,
		prevYear:   reportYear - 1,
		cache:      cacheImpl,
	}
}

// Reload replaces the dataset and invalidates every cached report.
func (s *ReportService) Reload(ctx context.Context, ds *domain.Dataset) {
	s.mu.Lock()
	s.ds = ds
	s.dir = market.BuildDirectory(ds.Distributors)
	s.mu.Unlock()

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("reports: cache invalidation failed")
	}
}

func (s *ReportService) snapshot() (*domain.Dataset, *market.Directory) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds, s.dir
}

func (s *ReportService) ReportYear() int { return s.reportYear }

func (s *ReportService) aggregator(ds *domain.Dataset) *market.Aggregator {
	agg := market.NewAggregator()
	if ds.HasYears {
		agg = agg.WithHistory(ds.Orders, s.prevYear, s.reportYear)
	}
	return agg
}

// shares is the cached backbone of the four grouping endpoints.
func (s *ReportService) shares(ctx context.Context, groupBy market.GroupBy, name string) ([]domain.MarketShareRow, error) {
	filter := shareFilter{Year: s.reportYear, GroupBy: name}

	var cached []domain.MarketShareRow
	if ok, err := s.cache.Get(ctx, "shares", filter, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Str("report", name).Msg("reports: cache get failed")
	}

	ds, _ := s.snapshot()
	rows := s.aggregator(ds).Aggregate(ds.OrdersForYear(s.reportYear), ds.Roster, groupBy)

	if err := s.cache.Set(ctx, "shares", filter, rows); err != nil {
		log.Warn().Err(err).Str("report", name).Msg("reports: cache set failed")
	}
	return rows, nil
}

func (s *ReportService) SharesBySubject(ctx context.Context) ([]domain.MarketShareRow, error) {
	return s.shares(ctx, market.BySubject, "subject")
}

func (s *ReportService) SharesByDistributor(ctx context.Context) ([]domain.MarketShareRow, error) {
	return s.shares(ctx, market.ByDistributor, "distributor")
}

func (s *ReportService) SharesByRegion(ctx context.Context) ([]domain.MarketShareRow, error) {
	return s.shares(ctx, market.ByRegion, "region")
}

// ShareMatrix is the distributor×subject cross table.
func (s *ReportService) ShareMatrix(ctx context.Context) ([]domain.MarketShareRow, error) {
	return s.shares(ctx, market.ByDistributorSubject, "distributor_subject")
}

// Achievement builds the target-vs-actual table for the reporting year.
func (s *ReportService) Achievement(ctx context.Context) ([]domain.AchievementRow, error) {
	filter := shareFilter{Year: s.reportYear, GroupBy: "achievement"}

	var cached []domain.AchievementRow
	if ok, err := s.cache.Get(ctx, "achievement", filter, &cached); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("reports: cache get failed")
	}

	ds, dir := s.snapshot()
	rows := market.NewAchievementEngine(dir, s.reportYear).Build(ds.Orders, ds.Targets, ds.Roster)

	if err := s.cache.Set(ctx, "achievement", filter, rows); err != nil {
		log.Warn().Err(err).Msg("reports: cache set failed")
	}
	return rows, nil
}

// YearComparison compares the reporting year against the previous one at
// subject granularity, plus the school retention split.
func (s *ReportService) YearComparison(ctx context.Context) ([]domain.YearComparisonRow, domain.SchoolChurn, error) {
	ds, _ := s.snapshot()
	prev := ds.OrdersForYear(s.prevYear)
	next := ds.OrdersForYear(s.reportYear)

	rows := s.aggregator(ds).YearOverYear(prev, next, market.BySubject)
	churn := market.SchoolChurnBetween(prev, next)
	return rows, churn, nil
}

// DistributorMarkets is the per-distributor market split over assigned
// schools, including distributors that ordered nothing.
func (s *ReportService) DistributorMarkets(ctx context.Context) ([]domain.DistributorMarketRow, error) {
	ds, dir := s.snapshot()
	return market.DistributorMarkets(ds.OrdersForYear(s.reportYear), ds.Roster, dir), nil
}

// Unmapped surfaces order identities the directory cannot resolve.
func (s *ReportService) Unmapped(ctx context.Context) ([]domain.UnmappedDistributor, error) {
	ds, dir := s.snapshot()
	return dir.Unmapped(ds.OrdersForYear(s.reportYear)), nil
}

// Suggestions pairs unmapped names with similar official entries. Repair
// hints only; nothing is applied to the data.
func (s *ReportService) Suggestions(ctx context.Context) ([]domain.NameSuggestion, error) {
	ds, dir := s.snapshot()
	return dir.SuggestNameMatches(ds.OrdersForYear(s.reportYear)), nil
}

// Summary is the KPI header of the landing page.
func (s *ReportService) Summary(ctx context.Context) (*domain.ExecutiveSummary, error) {
	ds, _ := s.snapshot()
	orders := ds.OrdersForYear(s.reportYear)

	calc := market.NewCalculator()
	totalMarket := calc.LevelMarketSizes(ds.Roster)[domain.LevelUnknown]

	sum := &domain.ExecutiveSummary{}
	schools := make(map[string]bool)
	subjects := make(map[string]bool)
	distributors := make(map[string]bool)
	regions := make(map[string]bool)
	for _, sch := range ds.Roster {
		sum.TotalStudents += sch.TotalStudents
	}
	for _, o := range orders {
		sum.TotalOrders += o.Quantity
		sum.TotalAmount += o.Amount
		if o.SchoolCode != "" {
			schools[o.SchoolCode] = true
		}
		if o.DisplaySubject != "" {
			subjects[o.DisplaySubject] = true
		}
		if o.OfficialDist != "" {
			distributors[o.OfficialDist] = true
		}
		if o.Region != "" {
			regions[o.Region] = true
		}
	}
	sum.OrderSchools = len(schools)
	sum.Subjects = len(subjects)
	sum.Distributors = len(distributors)
	sum.Regions = len(regions)
	if totalMarket > 0 {
		sum.OverallSharePct = float64(sum.TotalOrders) / float64(totalMarket) * 100
	}
	if len(ds.Roster) > 0 {
		sum.PenetrationPct = float64(sum.OrderSchools) / float64(len(ds.Roster)) * 100
	}
	if sum.OrderSchools > 0 {
		sum.AvgPerSchool = float64(sum.TotalOrders) / float64(sum.OrderSchools)
	}
	return sum, nil
}

// ReportBundle is every table one batch run produces.
type ReportBundle struct {
	Summary             *domain.ExecutiveSummary
	SharesBySubject     []domain.MarketShareRow
	SharesByDistributor []domain.MarketShareRow
	SharesByRegion      []domain.MarketShareRow
	ShareMatrix         []domain.MarketShareRow
	Achievement         []domain.AchievementRow
	YearComparison      []domain.YearComparisonRow
	Churn               domain.SchoolChurn
	DistributorMarkets  []domain.DistributorMarketRow
	Unmapped            []domain.UnmappedDistributor
	Suggestions         []domain.NameSuggestion
}

// BuildAll computes every report table. The tables are independent, so they
// run concurrently.
func (s *ReportService) BuildAll(ctx context.Context) (*ReportBundle, error) {
	bundle := &ReportBundle{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		bundle.Summary, err = s.Summary(gctx)
		return
	})
	g.Go(func() (err error) {
		bundle.SharesBySubject, err = s.SharesBySubject(gctx)
		return
	})
	g.Go(func() (err error) {
		bundle.SharesByDistributor, err = s.SharesByDistributor(gctx)
		return
	})
	g.Go(func() (err error) {
		bundle.SharesByRegion, err = s.SharesByRegion(gctx)
		return
	})
	g.Go(func() (err error) {
		bundle.ShareMatrix, err = s.ShareMatrix(gctx)
		return
	})
	g.Go(func() (err error) {
		bundle.Achievement, err = s.Achievement(gctx)
		return
	})
	g.Go(func() (err error) {
		bundle.YearComparison, bundle.Churn, err = s.YearComparison(gctx)
		return
	})
	g.Go(func() (err error) {
		bundle.DistributorMarkets, err = s.DistributorMarkets(gctx)
		return
	})
	g.Go(func() (err error) {
		bundle.Unmapped, err = s.Unmapped(gctx)
		return
	})
	g.Go(func() (err error) {
		bundle.Suggestions, err = s.Suggestions(gctx)
		return
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundle, nil
}
