package service

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efren319/GovFunds/internal/apperrors"
	"github.com/efren319/GovFunds/internal/projects/domain"
	"github.com/efren319/GovFunds/internal/projects/repository"
	"github.com/efren319/GovFunds/internal/store/storetest"
	"github.com/efren319/GovFunds/internal/uploads"
)

type fakeImages struct {
	next    string
	saveErr error
	saved   []string
	removed []string
}

func (f *fakeImages) Save(_ context.Context, _ uploads.Kind, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", nil
	}
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved = append(f.saved, f.next)
	return f.next, nil
}

func (f *fakeImages) Remove(_ context.Context, key string) {
	if key != "" {
		f.removed = append(f.removed, key)
	}
}

func newService(t *testing.T) (*ProjectService, *fakeImages) {
	t.Helper()
	images := &fakeImages{}
	repo := repository.NewProjectRepository(storetest.NewSQLite(t))
	return NewProjectService(repo, images), images
}

func TestCreateStoresImage(t *testing.T) {
	svc, images := newService(t)
	images.next = "images/projects/1_road.png"
	ctx := context.Background()

	p := &domain.Project{Name: "Road", AllocatedBudget: 10}
	require.NoError(t, svc.Create(ctx, p, &multipart.FileHeader{Filename: "road.png"}))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "images/projects/1_road.png", got.Image)
}

func TestCreateInvalidDoesNotUpload(t *testing.T) {
	svc, images := newService(t)
	images.next = "images/projects/1_x.png"

	err := svc.Create(context.Background(), &domain.Project{Name: "X", AllocatedBudget: 1, BudgetSpent: 5},
		&multipart.FileHeader{Filename: "x.png"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, images.saved)
}

func TestCreateRejectedImage(t *testing.T) {
	svc, images := newService(t)
	images.saveErr = apperrors.Invalid("image", "bad type")
	ctx := context.Background()

	err := svc.Create(ctx, &domain.Project{Name: "X"}, &multipart.FileHeader{Filename: "x.exe"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateReplacesImage(t *testing.T) {
	svc, images := newService(t)
	ctx := context.Background()

	images.next = "images/projects/1_old.png"
	p := &domain.Project{Name: "Bridge", AllocatedBudget: 2_000_000}
	require.NoError(t, svc.Create(ctx, p, &multipart.FileHeader{Filename: "old.png"}))

	images.next = "images/projects/2_new.png"
	name := "Bridge Construction Project"
	updated, err := svc.Update(ctx, p.ID, domain.Patch{Name: &name}, &multipart.FileHeader{Filename: "new.png"})
	require.NoError(t, err)

	assert.Equal(t, "Bridge Construction Project", updated.Name)
	assert.Equal(t, "images/projects/2_new.png", updated.Image)
	assert.Equal(t, []string{"images/projects/1_old.png"}, images.removed)
}

func TestUpdateFailureRemovesNewImage(t *testing.T) {
	svc, images := newService(t)
	ctx := context.Background()

	p := &domain.Project{Name: "Bridge", AllocatedBudget: 100}
	require.NoError(t, svc.Create(ctx, p, nil))

	images.next = "images/projects/3_new.png"
	spent := 500.0
	_, err := svc.Update(ctx, p.ID, domain.Patch{BudgetSpent: &spent}, &multipart.FileHeader{Filename: "new.png"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, []string{"images/projects/3_new.png"}, images.removed)

	_, err = svc.Update(ctx, 999, domain.Patch{}, nil)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteRemovesImage(t *testing.T) {
	svc, images := newService(t)
	ctx := context.Background()

	images.next = "images/projects/1_flood.png"
	p := &domain.Project{Name: "Flood Control"}
	require.NoError(t, svc.Create(ctx, p, &multipart.FileHeader{Filename: "flood.png"}))

	deleted, err := svc.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Flood Control", deleted.Name)
	assert.Equal(t, []string{"images/projects/1_flood.png"}, images.removed)

	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
