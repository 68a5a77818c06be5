package service

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/budget/domain"
	"github.com/efren319/GovFunds/internal/budget/repository"
	"github.com/efren319/GovFunds/internal/logging"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
)

// FailureRecorder counts degraded queries; *metrics.Metrics implements it.
type FailureRecorder interface {
	AggregationFailure(query string)
}

// AggregationService computes dashboard figures. It never returns an error:
// a failed query is logged, counted and replaced by an empty result.
type AggregationService struct {
	repo    *repository.BudgetRepository
	metrics FailureRecorder
}

func NewAggregationService(repo *repository.BudgetRepository, metrics FailureRecorder) *AggregationService {
	return &AggregationService{repo: repo, metrics: metrics}
}

func (s *AggregationService) degrade(ctx context.Context, query string, err error) {
	logging.FromContext(ctx).Warn("aggregation query failed, using empty result",
		zap.String("query", query), zap.Error(err))
	if s.metrics != nil {
		s.metrics.AggregationFailure(query)
	}
}

// Totals returns (count, Σallocated, Σspent) over all projects.
func (s *AggregationService) Totals(ctx context.Context) domain.Totals {
	t, err := s.repo.Totals(ctx)
	if err != nil {
		s.degrade(ctx, "totals", err)
		return domain.Totals{}
	}
	return t
}

// BySector partitions projects by sector, alphabetically.
func (s *AggregationService) BySector(ctx context.Context) []domain.Bucket {
	out, err := s.repo.BySector(ctx)
	if err != nil {
		s.degrade(ctx, "by_sector", err)
		return []domain.Bucket{}
	}
	return out
}

// ByRegion partitions projects by region, alphabetically.
func (s *AggregationService) ByRegion(ctx context.Context) []domain.Bucket {
	out, err := s.repo.ByRegion(ctx)
	if err != nil {
		s.degrade(ctx, "by_region", err)
		return []domain.Bucket{}
	}
	return out
}

// StatusCounts returns one entry per known status, in display order, zeros included.
func (s *AggregationService) StatusCounts(ctx context.Context) []domain.StatusCount {
	rows, err := s.repo.StatusCounts(ctx)
	if err != nil {
		s.degrade(ctx, "status_counts", err)
		rows = nil
	}

	byStatus := make(map[string]int64, len(rows))
	for _, row := range rows {
		byStatus[row.Status] += row.Count
	}

	out := make([]domain.StatusCount, 0, len(projectsdomain.Statuses))
	for _, st := range projectsdomain.Statuses {
		out = append(out, domain.StatusCount{Status: string(st), Count: byStatus[string(st)]})
	}
	return out
}

// ResolveYear applies the fallback policy: a requested year with figures is
// used as is; year 0 or a year without figures falls back to the most recent
// year that has any. With no figures at all the effective year is 0.
func (s *AggregationService) ResolveYear(ctx context.Context, requested int) (effective int, fellBack bool, available []int) {
	years, err := s.repo.Years(ctx)
	if err != nil {
		s.degrade(ctx, "budget_years", err)
		return 0, requested != 0, []int{}
	}
	if len(years) == 0 {
		return 0, requested != 0, []int{}
	}
	if requested != 0 && slices.Contains(years, requested) {
		return requested, false, years
	}
	return years[0], true, years
}

// ByRegionYear returns the region figures for the effective year.
func (s *AggregationService) ByRegionYear(ctx context.Context, year int) ([]domain.Amount, int) {
	effective, _, _ := s.ResolveYear(ctx, year)
	return s.regionAmounts(ctx, effective), effective
}

// BySectorYear returns the sector figures for the effective year.
func (s *AggregationService) BySectorYear(ctx context.Context, year int) ([]domain.Amount, int) {
	effective, _, _ := s.ResolveYear(ctx, year)
	return s.sectorAmounts(ctx, effective), effective
}

// AnnualTotal returns the national total for the effective year.
func (s *AggregationService) AnnualTotal(ctx context.Context, year int) (float64, int) {
	effective, _, _ := s.ResolveYear(ctx, year)
	return s.annual(ctx, effective), effective
}

// YearView bundles the three reference views for one effective year.
func (s *AggregationService) YearView(ctx context.Context, year int) domain.YearView {
	effective, fellBack, available := s.ResolveYear(ctx, year)
	return domain.YearView{
		Requested: year,
		Effective: effective,
		FellBack:  fellBack,
		Available: available,
		Regions:   s.regionAmounts(ctx, effective),
		Sectors:   s.sectorAmounts(ctx, effective),
		Annual:    s.annual(ctx, effective),
	}
}

func (s *AggregationService) regionAmounts(ctx context.Context, year int) []domain.Amount {
	if year == 0 {
		return []domain.Amount{}
	}
	out, err := s.repo.RegionBudgets(ctx, year)
	if err != nil {
		s.degrade(ctx, "by_region_year", err)
		return []domain.Amount{}
	}
	return out
}

func (s *AggregationService) sectorAmounts(ctx context.Context, year int) []domain.Amount {
	if year == 0 {
		return []domain.Amount{}
	}
	out, err := s.repo.SectorBudgets(ctx, year)
	if err != nil {
		s.degrade(ctx, "by_sector_year", err)
		return []domain.Amount{}
	}
	return out
}

func (s *AggregationService) annual(ctx context.Context, year int) float64 {
	if year == 0 {
		return 0
	}
	total, _, err := s.repo.AnnualTotal(ctx, year)
	if err != nil {
		s.degrade(ctx, "annual_total", err)
		return 0
	}
	return total
}
