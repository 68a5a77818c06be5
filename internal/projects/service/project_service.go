package service

import (
	"context"
	"iter"
	"mime/multipart"

	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/logging"
	"github.com/efren319/GovFunds/internal/projects/domain"
	"github.com/efren319/GovFunds/internal/projects/repository"
	"github.com/efren319/GovFunds/internal/uploads"
)

// ImageStore persists uploaded images; uploads.Manager implements it.
type ImageStore interface {
	Save(ctx context.Context, kind uploads.Kind, fh *multipart.FileHeader) (string, error)
	Remove(ctx context.Context, key string)
}

// ProjectService handles project-related business logic.
type ProjectService struct {
	repo   *repository.ProjectRepository
	images ImageStore
}

// NewProjectService creates a new project service.
func NewProjectService(repo *repository.ProjectRepository, images ImageStore) *ProjectService {
	return &ProjectService{repo: repo, images: images}
}

// Create stores the optional image, then the project. The image is removed
// again when the project cannot be written.
func (s *ProjectService) Create(ctx context.Context, p *domain.Project, image *multipart.FileHeader) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}

	key, err := s.images.Save(ctx, uploads.KindProject, image)
	if err != nil {
		return err
	}
	if key != "" {
		p.Image = key
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.images.Remove(ctx, key)
		return err
	}

	logging.FromContext(ctx).Info("project created",
		zap.Int64("project_id", p.ID), zap.String("project_name", p.Name))
	return nil
}

// Get returns a project by id.
func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	return s.repo.Get(ctx, id)
}

// List returns the projects matching f.
func (s *ProjectService) List(ctx context.Context, f domain.Filter) ([]domain.Project, error) {
	return s.repo.List(ctx, f)
}

// All streams the projects matching f.
func (s *ProjectService) All(ctx context.Context, f domain.Filter) iter.Seq2[domain.Project, error] {
	return s.repo.All(ctx, f)
}

// Update patches a project. A new image replaces the stored one.
func (s *ProjectService) Update(ctx context.Context, id int64, patch domain.Patch, image *multipart.FileHeader) (*domain.Project, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key, err := s.images.Save(ctx, uploads.KindProject, image)
	if err != nil {
		return nil, err
	}
	if key != "" {
		patch.Image = &key
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.images.Remove(ctx, key)
		return nil, err
	}

	if key != "" && before.Image != "" && before.Image != key {
		s.images.Remove(ctx, before.Image)
	}

	logging.FromContext(ctx).Info("project updated", zap.Int64("project_id", id))
	return updated, nil
}

// Delete removes the project, its reports and its image.
func (s *ProjectService) Delete(ctx context.Context, id int64) (*domain.Project, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.images.Remove(ctx, deleted.Image)

	logging.FromContext(ctx).Info("project deleted",
		zap.Int64("project_id", id), zap.String("project_name", deleted.Name))
	return deleted, nil
}

// Count returns the number of stored projects.
func (s *ProjectService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
