package dataio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	budgetdomain "github.com/efren319/GovFunds/internal/budget/domain"
	"github.com/efren319/GovFunds/internal/logging"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
	reportsdomain "github.com/efren319/GovFunds/internal/reports/domain"
	"github.com/efren319/GovFunds/internal/store"
)

// File names inside the data directory.
const (
	FileProjects      = "projects.json"
	FileFeedback      = "feedback.json"
	FileReports       = "reports.json"
	FileRegionBudgets = "region_budgets.json"
	FileSectorBudgets = "sector_budgets.json"
	FileAnnualBudgets = "annual_budgets.json"

	// fileDepartmentBudgets is the historical name of sector_budgets.json.
	fileDepartmentBudgets = "department_budgets.json"
)

func fetch[T any](db *gorm.DB, order string) ([]T, error) {
	var rows []T
	if err := db.Order(order).Find(&rows).Error; err != nil {
		return nil, store.Classify("export", err)
	}
	return rows, nil
}

func mapRows[T, R any](rows []T, fn func(T) R) []R {
	out := make([]R, 0, len(rows))
	for _, r := range rows {
		out = append(out, fn(r))
	}
	return out
}

// ExportAll writes every table to dir as indented JSON, one file per table.
// Identities are preserved so the files can be imported elsewhere.
func (s *Service) ExportAll(ctx context.Context, dir string) (Summary, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create data dir: %w", err)
	}
	var (
		projects []projectsdomain.Project
		feedback []reportsdomain.Feedback
		reports  []reportsdomain.ProjectReport
		regions  []budgetdomain.RegionBudget
		sectors  []budgetdomain.SectorBudget
		annual   []budgetdomain.AnnualBudget
	)
	err := s.db.WithSnapshot(ctx, func(tx *gorm.DB) error {
		var err error
		if projects, err = fetch[projectsdomain.Project](tx, "project_id"); err != nil {
			return err
		}
		if feedback, err = fetch[reportsdomain.Feedback](tx, "feedback_id"); err != nil {
			return err
		}
		if reports, err = fetch[reportsdomain.ProjectReport](tx, "report_id"); err != nil {
			return err
		}
		if regions, err = fetch[budgetdomain.RegionBudget](tx, "year, region_name"); err != nil {
			return err
		}
		if sectors, err = fetch[budgetdomain.SectorBudget](tx, "year, sector_name"); err != nil {
			return err
		}
		annual, err = fetch[budgetdomain.AnnualBudget](tx, "year")
		return err
	})
	if err != nil {
		return Summary{}, err
	}

	files := []struct {
		name string
		data any
	}{
		{FileProjects, mapRows(projects, projectRecord)},
		{FileFeedback, mapRows(feedback, feedbackRecord)},
		{FileReports, mapRows(reports, reportRecord)},
		{FileRegionBudgets, mapRows(regions, func(b budgetdomain.RegionBudget) RegionBudgetRecord {
			return RegionBudgetRecord{RegionName: b.RegionName, Year: b.Year, Budget: b.Budget}
		})},
		{FileSectorBudgets, mapRows(sectors, func(b budgetdomain.SectorBudget) SectorBudgetRecord {
			return SectorBudgetRecord{SectorName: b.SectorName, Year: b.Year, Budget: b.Budget}
		})},
		{FileAnnualBudgets, mapRows(annual, func(b budgetdomain.AnnualBudget) AnnualBudgetRecord {
			return AnnualBudgetRecord{Year: b.Year, TotalBudget: b.TotalBudget}
		})},
	}
	for _, f := range files {
		if err := writeJSON(filepath.Join(dir, f.name), f.data); err != nil {
			return Summary{}, err
		}
	}

	sum := Summary{
		Projects:      len(projects),
		Feedback:      len(feedback),
		Reports:       len(reports),
		RegionBudgets: len(regions),
		SectorBudgets: len(sectors),
		AnnualBudgets: len(annual),
	}
	logging.FromContext(ctx).Info("exported data", append(sum.fields(), zap.String("dir", dir))...)
	return sum, nil
}

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
