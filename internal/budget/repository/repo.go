package repository

import (
	"context"
	"sort"

	"github.com/efren319/GovFunds/internal/budget/domain"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
	"github.com/efren319/GovFunds/internal/store"
)

// BudgetRepository runs the read-only rollups over projects and the
// curated budget tables.
type BudgetRepository struct {
	db *store.DB
}

func NewBudgetRepository(db *store.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// Totals sums every project; an empty table yields zeros.
func (r *BudgetRepository) Totals(ctx context.Context) (domain.Totals, error) {
	var t domain.Totals
	err := r.db.Gorm.WithContext(ctx).
		Model(&projectsdomain.Project{}).
		Select("COUNT(*) AS count, COALESCE(SUM(allocated_budget), 0) AS allocated, COALESCE(SUM(budget_spent), 0) AS spent").
		Scan(&t).Error
	if err != nil {
		return domain.Totals{}, store.Classify("project totals", err)
	}
	return t, nil
}

func (r *BudgetRepository) rollup(ctx context.Context, column, op string) ([]domain.Bucket, error) {
	out := make([]domain.Bucket, 0, 8)
	err := r.db.Gorm.WithContext(ctx).
		Model(&projectsdomain.Project{}).
		Select("COALESCE(" + column + ", '') AS name, COUNT(*) AS projects, " +
			"COALESCE(SUM(allocated_budget), 0) AS allocated, COALESCE(SUM(budget_spent), 0) AS spent").
		Group("COALESCE(" + column + ", '')").
		Order("name ASC").
		Scan(&out).Error
	if err != nil {
		return nil, store.Classify(op, err)
	}
	return out, nil
}

// BySector groups projects by sector_name in alphabetical order.
func (r *BudgetRepository) BySector(ctx context.Context) ([]domain.Bucket, error) {
	return r.rollup(ctx, "sector_name", "projects by sector")
}

// ByRegion groups projects by region_name in alphabetical order.
func (r *BudgetRepository) ByRegion(ctx context.Context) ([]domain.Bucket, error) {
	return r.rollup(ctx, "region_name", "projects by region")
}

// StatusCounts counts projects per stored status.
func (r *BudgetRepository) StatusCounts(ctx context.Context) ([]domain.StatusCount, error) {
	out := make([]domain.StatusCount, 0, 3)
	err := r.db.Gorm.WithContext(ctx).
		Model(&projectsdomain.Project{}).
		Select("project_status AS status, COUNT(*) AS count").
		Group("project_status").
		Scan(&out).Error
	if err != nil {
		return nil, store.Classify("project status counts", err)
	}
	return out, nil
}

// Years lists every year with curated figures in any budget table, newest first.
func (r *BudgetRepository) Years(ctx context.Context) ([]int, error) {
	seen := make(map[int]struct{})
	for _, model := range []any{&domain.RegionBudget{}, &domain.SectorBudget{}, &domain.AnnualBudget{}} {
		var years []int
		if err := r.db.Gorm.WithContext(ctx).Model(model).Distinct().Pluck("year", &years).Error; err != nil {
			return nil, store.Classify("budget years", err)
		}
		for _, y := range years {
			seen[y] = struct{}{}
		}
	}

	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out, nil
}

// RegionBudgets returns the curated region figures for year, by region name.
func (r *BudgetRepository) RegionBudgets(ctx context.Context, year int) ([]domain.Amount, error) {
	var rows []domain.RegionBudget
	if err := r.db.Gorm.WithContext(ctx).Where("year = ?", year).Order("region_name ASC").Find(&rows).Error; err != nil {
		return nil, store.Classify("region budgets", err)
	}
	out := make([]domain.Amount, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Amount{Name: row.RegionName, Budget: row.Budget})
	}
	return out, nil
}

// SectorBudgets returns the curated sector figures for year, by sector name.
func (r *BudgetRepository) SectorBudgets(ctx context.Context, year int) ([]domain.Amount, error) {
	var rows []domain.SectorBudget
	if err := r.db.Gorm.WithContext(ctx).Where("year = ?", year).Order("sector_name ASC").Find(&rows).Error; err != nil {
		return nil, store.Classify("sector budgets", err)
	}
	out := make([]domain.Amount, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Amount{Name: row.SectorName, Budget: row.Budget})
	}
	return out, nil
}

// AnnualTotal returns the national total for year; ok is false when there is none.
func (r *BudgetRepository) AnnualTotal(ctx context.Context, year int) (total float64, ok bool, err error) {
	var rows []domain.AnnualBudget
	if err := r.db.Gorm.WithContext(ctx).Where("year = ?", year).Limit(1).Find(&rows).Error; err != nil {
		return 0, false, store.Classify("annual budget", err)
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[0].TotalBudget, true, nil
}
