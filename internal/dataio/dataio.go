// Package dataio moves application data in and out of the store: the
// embedded sample fixture, JSON export and JSON import.
package dataio

import (
	"context"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	budgetdomain "github.com/efren319/GovFunds/internal/budget/domain"
	"github.com/efren319/GovFunds/internal/logging"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
	reportsdomain "github.com/efren319/GovFunds/internal/reports/domain"
	"github.com/efren319/GovFunds/internal/store"
)

const batchSize = 500

//go:embed fixture.yaml
var fixtureYAML []byte

// Fixture is the shape of the embedded sample data.
type Fixture struct {
	Projects      []ProjectRecord      `yaml:"projects"`
	Feedback      []FeedbackRecord     `yaml:"feedback"`
	RegionBudgets []RegionBudgetRecord `yaml:"region_budgets"`
	SectorBudgets []SectorBudgetRecord `yaml:"sector_budgets"`
	AnnualBudgets []AnnualBudgetRecord `yaml:"annual_budgets"`
}

// LoadFixture decodes the embedded sample data.
func LoadFixture() (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(fixtureYAML, &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// Summary counts rows per table.
type Summary struct {
	Projects      int `json:"projects"`
	Feedback      int `json:"feedback"`
	Reports       int `json:"reports"`
	RegionBudgets int `json:"region_budgets"`
	SectorBudgets int `json:"sector_budgets"`
	AnnualBudgets int `json:"annual_budgets"`
}

func (s Summary) fields() []zap.Field {
	return []zap.Field{
		zap.Int("projects", s.Projects),
		zap.Int("feedback", s.Feedback),
		zap.Int("reports", s.Reports),
		zap.Int("region_budgets", s.RegionBudgets),
		zap.Int("sector_budgets", s.SectorBudgets),
		zap.Int("annual_budgets", s.AnnualBudgets),
	}
}

// Service runs seed, export and import against one store.
type Service struct {
	db *store.DB
}

func NewService(db *store.DB) *Service {
	return &Service{db: db}
}

// SeedIfEmpty loads the fixture in one transaction when there are no
// projects. Reference budget rows that already exist are kept.
func (s *Service) SeedIfEmpty(ctx context.Context) (bool, error) {
	var n int64
	if err := s.db.Gorm.WithContext(ctx).Model(&projectsdomain.Project{}).Count(&n).Error; err != nil {
		return false, store.Classify("count projects", err)
	}
	if n > 0 {
		logging.FromContext(ctx).Debug("store already has projects, skipping seed", zap.Int64("projects", n))
		return false, nil
	}

	fx, err := LoadFixture()
	if err != nil {
		return false, err
	}

	var sum Summary
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		sum, err = insertFixture(tx, fx)
		return err
	})
	if err != nil {
		return false, err
	}

	logging.FromContext(ctx).Info("seeded sample data", sum.fields()...)
	return true, nil
}

func insertFixture(tx *gorm.DB, fx *Fixture) (Summary, error) {
	var sum Summary

	projects := make([]projectsdomain.Project, 0, len(fx.Projects))
	for _, r := range fx.Projects {
		p, err := r.Project()
		if err != nil {
			return sum, err
		}
		projects = append(projects, p)
	}
	feedback := make([]reportsdomain.Feedback, 0, len(fx.Feedback))
	for _, r := range fx.Feedback {
		f, err := r.Feedback()
		if err != nil {
			return sum, err
		}
		feedback = append(feedback, f)
	}
	regions, sectors, annual, err := budgets(fx.RegionBudgets, fx.SectorBudgets, fx.AnnualBudgets)
	if err != nil {
		return sum, err
	}

	if err := createAll(tx, "projects", projects); err != nil {
		return sum, err
	}
	if err := createAll(tx, "feedback", feedback); err != nil {
		return sum, err
	}
	keep := clause.OnConflict{DoNothing: true}
	if err := createAll(tx, "region_budgets", regions, keep); err != nil {
		return sum, err
	}
	if err := createAll(tx, "sector_budgets", sectors, keep); err != nil {
		return sum, err
	}
	if err := createAll(tx, "annual_budgets", annual, keep); err != nil {
		return sum, err
	}

	return Summary{
		Projects:      len(projects),
		Feedback:      len(feedback),
		RegionBudgets: len(regions),
		SectorBudgets: len(sectors),
		AnnualBudgets: len(annual),
	}, nil
}

func budgets(rr []RegionBudgetRecord, sr []SectorBudgetRecord, ar []AnnualBudgetRecord) (
	[]budgetdomain.RegionBudget, []budgetdomain.SectorBudget, []budgetdomain.AnnualBudget, error,
) {
	regions := make([]budgetdomain.RegionBudget, 0, len(rr))
	for _, r := range rr {
		b, err := r.RegionBudget()
		if err != nil {
			return nil, nil, nil, err
		}
		regions = append(regions, b)
	}
	sectors := make([]budgetdomain.SectorBudget, 0, len(sr))
	for _, r := range sr {
		b, err := r.SectorBudget()
		if err != nil {
			return nil, nil, nil, err
		}
		sectors = append(sectors, b)
	}
	annual := make([]budgetdomain.AnnualBudget, 0, len(ar))
	for _, r := range ar {
		b, err := r.AnnualBudget()
		if err != nil {
			return nil, nil, nil, err
		}
		annual = append(annual, b)
	}
	return regions, sectors, annual, nil
}

func createAll[T any](tx *gorm.DB, table string, rows []T, clauses ...clause.Expression) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Clauses(clauses...).CreateInBatches(rows, batchSize).Error; err != nil {
		return store.Classify("insert "+table, err)
	}
	return nil
}

// Counts returns the number of rows in every table.
func (s *Service) Counts(ctx context.Context) (Summary, error) {
	return countAll(s.db.Gorm.WithContext(ctx))
}

func countAll(db *gorm.DB) (Summary, error) {
	var sum Summary
	counts := []struct {
		model any
		dst   *int
	}{
		{&projectsdomain.Project{}, &sum.Projects},
		{&reportsdomain.Feedback{}, &sum.Feedback},
		{&reportsdomain.ProjectReport{}, &sum.Reports},
		{&budgetdomain.RegionBudget{}, &sum.RegionBudgets},
		{&budgetdomain.SectorBudget{}, &sum.SectorBudgets},
		{&budgetdomain.AnnualBudget{}, &sum.AnnualBudgets},
	}
	for _, c := range counts {
		var n int64
		if err := db.Model(c.model).Count(&n).Error; err != nil {
			return Summary{}, store.Classify("count rows", err)
		}
		*c.dst = int(n)
	}
	return sum, nil
}

func (s Summary) empty() bool {
	return s == Summary{}
}
