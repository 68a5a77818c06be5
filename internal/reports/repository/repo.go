package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/efren319/GovFunds/internal/apperrors"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
	"github.com/efren319/GovFunds/internal/reports/domain"
	"github.com/efren319/GovFunds/internal/store"
)

// ReportRepository persists feedback and project reports.
type ReportRepository struct {
	db *store.DB
}

func NewReportRepository(db *store.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CreateFeedback validates and inserts f.
func (r *ReportRepository) CreateFeedback(ctx context.Context, f *domain.Feedback) error {
	if err := f.Validate(); err != nil {
		return err
	}
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(f).Error
	})
	return store.Classify("create feedback", err)
}

// RecentFeedback returns up to limit entries, newest first.
func (r *ReportRepository) RecentFeedback(ctx context.Context, limit int) ([]domain.Feedback, error) {
	out := make([]domain.Feedback, 0, limit)
	q := r.db.Gorm.WithContext(ctx).Order("created_at DESC").Order("feedback_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, store.Classify("recent feedback", err)
	}
	return out, nil
}

// CreateReport inserts rep after confirming its project exists in the same transaction.
func (r *ReportRepository) CreateReport(ctx context.Context, rep *domain.ProjectReport) error {
	if err := rep.Validate(); err != nil {
		return err
	}
	rep.IsResolved = false

	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&projectsdomain.Project{}).Where("project_id = ?", rep.ProjectID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperrors.NotFoundf("project %d", rep.ProjectID)
		}
		return tx.Omit("Project").Create(rep).Error
	})
	return store.Classify("create report", err)
}

// GetReport returns one report or ErrNotFound.
func (r *ReportRepository) GetReport(ctx context.Context, id int64) (*domain.ProjectReport, error) {
	var rep domain.ProjectReport
	if err := r.db.Gorm.WithContext(ctx).First(&rep, "report_id = ?", id).Error; err != nil {
		return nil, store.Classify(fmt.Sprintf("get report %d", id), err)
	}
	return &rep, nil
}

// Resolve marks a report resolved. Resolving twice is not an error.
func (r *ReportRepository) Resolve(ctx context.Context, id int64) (*domain.ProjectReport, error) {
	var rep domain.ProjectReport
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&rep, "report_id = ?", id).Error; err != nil {
			return err
		}
		if rep.IsResolved {
			return nil
		}
		rep.IsResolved = true
		return tx.Model(&domain.ProjectReport{}).Where("report_id = ?", id).Update("is_resolved", true).Error
	})
	if err != nil {
		return nil, store.Classify(fmt.Sprintf("resolve report %d", id), err)
	}
	return &rep, nil
}

// ListUnresolved returns every open report with its project name, newest first.
func (r *ReportRepository) ListUnresolved(ctx context.Context) ([]domain.UnresolvedReport, error) {
	out := make([]domain.UnresolvedReport, 0, 16)
	err := r.db.Gorm.WithContext(ctx).
		Table("project_reports AS r").
		Select("r.*, p.project_name").
		Joins("JOIN projects AS p ON p.project_id = r.project_id").
		Where("r.is_resolved = ?", false).
		Order("r.created_at DESC").Order("r.report_id DESC").
		Scan(&out).Error
	if err != nil {
		return nil, store.Classify("list unresolved reports", err)
	}
	return out, nil
}

// ListForProject returns a project's reports, newest first.
func (r *ReportRepository) ListForProject(ctx context.Context, projectID int64) ([]domain.ProjectReport, error) {
	out := make([]domain.ProjectReport, 0, 8)
	err := r.db.Gorm.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").Order("report_id DESC").
		Find(&out).Error
	if err != nil {
		return nil, store.Classify("list project reports", err)
	}
	return out, nil
}

type projectCount struct {
	ProjectID int64 `gorm:"column:project_id"`
	Open      int64 `gorm:"column:open_count"`
}

// UnresolvedCounts maps project id to its number of open reports.
// Projects without open reports are absent.
func (r *ReportRepository) UnresolvedCounts(ctx context.Context) (map[int64]int64, error) {
	var rows []projectCount
	err := r.db.Gorm.WithContext(ctx).
		Model(&domain.ProjectReport{}).
		Select("project_id, COUNT(*) AS open_count").
		Where("is_resolved = ?", false).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, store.Classify("count unresolved reports", err)
	}

	out := make(map[int64]int64, len(rows))
	for _, row := range rows {
		out[row.ProjectID] = row.Open
	}
	return out, nil
}

// CountReports returns the number of stored reports.
func (r *ReportRepository) CountReports(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Gorm.WithContext(ctx).Model(&domain.ProjectReport{}).Count(&n).Error; err != nil {
		return 0, store.Classify("count reports", err)
	}
	return n, nil
}

// CountFeedback returns the number of stored feedback entries.
func (r *ReportRepository) CountFeedback(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Gorm.WithContext(ctx).Model(&domain.Feedback{}).Count(&n).Error; err != nil {
		return 0, store.Classify("count feedback", err)
	}
	return n, nil
}
