package repository

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"gorm.io/gorm"

	"github.com/efren319/GovFunds/internal/apperrors"
	"github.com/efren319/GovFunds/internal/projects/domain"
	reportsdomain "github.com/efren319/GovFunds/internal/reports/domain"
	"github.com/efren319/GovFunds/internal/store"
)

// ProjectRepository provides persistence operations for projects.
type ProjectRepository struct {
	db *store.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *store.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create validates p and inserts it, filling in its id and timestamps.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}

	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(p).Error
	})
	return store.Classify("create project", err)
}

// Get returns the project with id or ErrNotFound.
func (r *ProjectRepository) Get(ctx context.Context, id int64) (*domain.Project, error) {
	var p domain.Project
	if err := r.db.Gorm.WithContext(ctx).First(&p, "project_id = ?", id).Error; err != nil {
		return nil, store.Classify(fmt.Sprintf("get project %d", id), err)
	}
	return &p, nil
}

func (r *ProjectRepository) query(ctx context.Context, f domain.Filter) *gorm.DB {
	q := r.db.Gorm.WithContext(ctx).Model(&domain.Project{})

	if f.Status != "" {
		q = q.Where("project_status = ?", f.Status)
	}
	if f.Region != "" {
		q = q.Where("region_name = ?", f.Region)
	}
	if f.Sector != "" {
		q = q.Where("sector_name = ?", f.Sector)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(project_name) LIKE ? OR LOWER(project_description) LIKE ?)", like, like)
	}

	switch f.Order {
	case domain.ByName:
		q = q.Order("project_name ASC").Order("project_id ASC")
	default:
		q = q.Order("project_id DESC")
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return q
}

// All streams the projects matching f. Each range over the returned
// sequence runs the query again.
func (r *ProjectRepository) All(ctx context.Context, f domain.Filter) iter.Seq2[domain.Project, error] {
	return func(yield func(domain.Project, error) bool) {
		q := r.query(ctx, f)
		rows, err := q.Rows()
		if err != nil {
			yield(domain.Project{}, store.Classify("list projects", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var p domain.Project
			if err := q.ScanRows(rows, &p); err != nil {
				yield(domain.Project{}, store.Classify("scan project", err))
				return
			}
			if !yield(p, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.Project{}, store.Classify("list projects", err))
		}
	}
}

// List collects All into a slice.
func (r *ProjectRepository) List(ctx context.Context, f domain.Filter) ([]domain.Project, error) {
	out := make([]domain.Project, 0, 16)
	for p, err := range r.All(ctx, f) {
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Update applies patch to the project with id in one transaction.
func (r *ProjectRepository) Update(ctx context.Context, id int64, patch domain.Patch) (*domain.Project, error) {
	var p domain.Project
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&p, "project_id = ?", id).Error; err != nil {
			return err
		}

		patch.Apply(&p)
		p.Normalize()
		if err := p.Validate(); err != nil {
			return err
		}
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, store.Classify(fmt.Sprintf("update project %d", id), err)
	}
	return &p, nil
}

// Delete removes the project and its reports together and returns what was deleted.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) (*domain.Project, error) {
	var p domain.Project
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&p, "project_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&reportsdomain.ProjectReport{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Project{}, "project_id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFoundf("project %d", id)
		}
		return nil
	})
	if err != nil {
		return nil, store.Classify(fmt.Sprintf("delete project %d", id), err)
	}
	return &p, nil
}

// Count returns the number of stored projects.
func (r *ProjectRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Gorm.WithContext(ctx).Model(&domain.Project{}).Count(&n).Error; err != nil {
		return 0, store.Classify("count projects", err)
	}
	return n, nil
}

// Exists reports whether a project with id is stored.
func (r *ProjectRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.Gorm.WithContext(ctx).Model(&domain.Project{}).Where("project_id = ?", id).Count(&n).Error
	if err != nil {
		return false, store.Classify("project exists", err)
	}
	return n > 0, nil
}
