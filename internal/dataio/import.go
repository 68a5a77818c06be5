package dataio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/efren319/GovFunds/internal/apperrors"
	budgetdomain "github.com/efren319/GovFunds/internal/budget/domain"
	"github.com/efren319/GovFunds/internal/logging"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
	reportsdomain "github.com/efren319/GovFunds/internal/reports/domain"
	"github.com/efren319/GovFunds/internal/store"
)

// readJSON decodes dir/name into a slice. A missing file yields (nil, false, nil).
func readJSON[T any](ctx context.Context, dir, name string) ([]T, bool, error) {
	path := filepath.Join(dir, name)
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.FromContext(ctx).Info("data file not found, skipping", zap.String("file", path))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}

	var rows []T
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, true, fmt.Errorf("decode %s: %w", name, err)
	}
	return rows, true, nil
}

func convert[R, T any](rows []R, fn func(R) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := fn(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// dataset is a fully validated import, ready to insert.
type dataset struct {
	projects []projectsdomain.Project
	feedback []reportsdomain.Feedback
	reports  []reportsdomain.ProjectReport
	regions  []budgetdomain.RegionBudget
	sectors  []budgetdomain.SectorBudget
	annual   []budgetdomain.AnnualBudget
}

func (d dataset) summary() Summary {
	return Summary{
		Projects:      len(d.projects),
		Feedback:      len(d.feedback),
		Reports:       len(d.reports),
		RegionBudgets: len(d.regions),
		SectorBudgets: len(d.sectors),
		AnnualBudgets: len(d.annual),
	}
}

func load(ctx context.Context, dir string) (dataset, error) {
	var d dataset

	projects, _, err := readJSON[ProjectRecord](ctx, dir, FileProjects)
	if err != nil {
		return d, err
	}
	feedback, _, err := readJSON[FeedbackRecord](ctx, dir, FileFeedback)
	if err != nil {
		return d, err
	}
	reports, _, err := readJSON[ReportRecord](ctx, dir, FileReports)
	if err != nil {
		return d, err
	}
	regions, _, err := readJSON[RegionBudgetRecord](ctx, dir, FileRegionBudgets)
	if err != nil {
		return d, err
	}
	sectors, found, err := readJSON[SectorBudgetRecord](ctx, dir, FileSectorBudgets)
	if err != nil {
		return d, err
	}
	if !found {
		if sectors, _, err = readJSON[SectorBudgetRecord](ctx, dir, fileDepartmentBudgets); err != nil {
			return d, err
		}
	}
	annual, _, err := readJSON[AnnualBudgetRecord](ctx, dir, FileAnnualBudgets)
	if err != nil {
		return d, err
	}

	if d.projects, err = convert(projects, ProjectRecord.Project); err != nil {
		return d, err
	}
	if d.feedback, err = convert(feedback, FeedbackRecord.Feedback); err != nil {
		return d, err
	}
	if d.reports, err = convert(reports, ReportRecord.Report); err != nil {
		return d, err
	}
	d.regions, d.sectors, d.annual, err = budgets(regions, sectors, annual)
	return d, err
}

// ImportAll loads the JSON files in dir in one transaction. Missing files
// are skipped. A store that already holds data is refused with
// ErrStoreNotEmpty unless replace is set, in which case every table is
// cleared first. Identities are kept, so reports stay attached to their
// projects.
func (s *Service) ImportAll(ctx context.Context, dir string, replace bool) (Summary, error) {
	d, err := load(ctx, dir)
	if err != nil {
		return Summary{}, err
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		existing, err := countAll(tx)
		if err != nil {
			return err
		}
		if !existing.empty() {
			if !replace {
				return fmt.Errorf("import into %d projects, %d feedback, %d reports: %w",
					existing.Projects, existing.Feedback, existing.Reports, apperrors.ErrStoreNotEmpty)
			}
			if err := clearAll(tx); err != nil {
				return err
			}
			logging.FromContext(ctx).Info("cleared existing data before import", existing.fields()...)
		}

		if err := createAll(tx, "projects", d.projects); err != nil {
			return err
		}
		if err := createAll(tx, "feedback", d.feedback); err != nil {
			return err
		}
		if err := createAll(tx.Omit("Project"), "project_reports", d.reports); err != nil {
			return err
		}
		if err := createAll(tx, "region_budgets", d.regions); err != nil {
			return err
		}
		if err := createAll(tx, "sector_budgets", d.sectors); err != nil {
			return err
		}
		if err := createAll(tx, "annual_budgets", d.annual); err != nil {
			return err
		}
		return store.ResetSequences(tx)
	})
	if err != nil {
		return Summary{}, err
	}

	sum := d.summary()
	logging.FromContext(ctx).Info("imported data", append(sum.fields(), zap.String("dir", dir))...)
	return sum, nil
}

// clearAll empties every table, children first.
func clearAll(tx *gorm.DB) error {
	models := []any{
		&reportsdomain.ProjectReport{},
		&projectsdomain.Project{},
		&reportsdomain.Feedback{},
		&budgetdomain.RegionBudget{},
		&budgetdomain.SectorBudget{},
		&budgetdomain.AnnualBudget{},
	}
	for _, m := range models {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return store.Classify("clear tables", err)
		}
	}
	return nil
}
