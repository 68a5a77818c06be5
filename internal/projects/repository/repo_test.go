package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efren319/GovFunds/internal/apperrors"
	"github.com/efren319/GovFunds/internal/projects/domain"
	"github.com/efren319/GovFunds/internal/projects/repository"
	reportsdomain "github.com/efren319/GovFunds/internal/reports/domain"
	"github.com/efren319/GovFunds/internal/store/storetest"
)

func seed(t *testing.T, repo *repository.ProjectRepository, projects ...domain.Project) []domain.Project {
	t.Helper()
	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		require.NoError(t, repo.Create(context.Background(), &p))
		out = append(out, p)
	}
	return out
}

func TestCreateAndGet(t *testing.T) {
	db := storetest.NewSQLite(t)
	repo := repository.NewProjectRepository(db)
	ctx := context.Background()

	p := domain.Project{Name: "  Road Rehabilitation  ", AllocatedBudget: 5_000_000, BudgetSpent: 3_500_000,
		Status: domain.StatusOngoing, RegionName: "Region I", SectorName: "Road Infrastructure"}
	require.NoError(t, repo.Create(ctx, &p))
	require.NotZero(t, p.ID)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Road Rehabilitation", got.Name)
	assert.Equal(t, 3_500_000.0, got.BudgetSpent)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.Get(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateCanonicalisesStatus(t *testing.T) {
	db := storetest.NewSQLite(t)
	repo := repository.NewProjectRepository(db)
	ctx := context.Background()

	p := domain.Project{Name: "Lowercase", AllocatedBudget: 10, Status: "ongoing"}
	require.NoError(t, repo.Create(ctx, &p))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOngoing, got.Status)
}

func TestCreateRejectsInvalid(t *testing.T) {
	db := storetest.NewSQLite(t)
	repo := repository.NewProjectRepository(db)
	ctx := context.Background()

	err := repo.Create(ctx, &domain.Project{Name: "", AllocatedBudget: 1})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = repo.Create(ctx, &domain.Project{Name: "Overspent", AllocatedBudget: 1, BudgetSpent: 2})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListFiltersAndOrder(t *testing.T) {
	db := storetest.NewSQLite(t)
	repo := repository.NewProjectRepository(db)
	ctx := context.Background()

	seed(t, repo,
		domain.Project{Name: "Bridge Construction", Status: domain.StatusCompleted, SectorName: "Bridge Infrastructure", RegionName: "Region II"},
		domain.Project{Name: "Road Rehabilitation", Status: domain.StatusOngoing, SectorName: "Road Infrastructure", RegionName: "Region I"},
		domain.Project{Name: "Flood Control System", Status: domain.StatusOngoing, SectorName: "Flood Control and Drainage", RegionName: "Region III"},
	)

	all, err := repo.List(ctx, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Flood Control System", all[0].Name, "newest first")

	byName, err := repo.List(ctx, domain.Filter{Order: domain.ByName})
	require.NoError(t, err)
	assert.Equal(t, "Bridge Construction", byName[0].Name)

	ongoing, err := repo.List(ctx, domain.Filter{Status: domain.StatusOngoing})
	require.NoError(t, err)
	assert.Len(t, ongoing, 2)

	search, err := repo.List(ctx, domain.Filter{Query: "ROAD"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "Road Rehabilitation", search[0].Name)

	limited, err := repo.List(ctx, domain.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestAllIsRestartable(t *testing.T) {
	db := storetest.NewSQLite(t)
	repo := repository.NewProjectRepository(db)
	ctx := context.Background()

	seed(t, repo, domain.Project{Name: "A"}, domain.Project{Name: "B"})
	seq := repo.All(ctx, domain.Filter{})

	count := func() int {
		n := 0
		for _, err := range seq {
			require.NoError(t, err)
			n++
		}
		return n
	}
	assert.Equal(t, 2, count())

	seed(t, repo, domain.Project{Name: "C"})
	assert.Equal(t, 3, count(), "second range re-runs the query")

	// early break releases the rows
	for range seq {
		break
	}
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestUpdate(t *testing.T) {
	db := storetest.NewSQLite(t)
	repo := repository.NewProjectRepository(db)
	ctx := context.Background()

	p := seed(t, repo, domain.Project{Name: "Irrigation", AllocatedBudget: 1_500_000, BudgetSpent: 200_000})[0]

	spent := 900_000.0
	status := domain.StatusOngoing
	updated, err := repo.Update(ctx, p.ID, domain.Patch{BudgetSpent: &spent, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, spent, updated.BudgetSpent)
	assert.Equal(t, domain.StatusOngoing, updated.Status)
	assert.Equal(t, "Irrigation", updated.Name)

	tooMuch := 2_000_000.0
	_, err = repo.Update(ctx, p.ID, domain.Patch{BudgetSpent: &tooMuch})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, spent, got.BudgetSpent, "failed update rolled back")

	_, err = repo.Update(ctx, 12345, domain.Patch{BudgetSpent: &spent})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteCascadesReports(t *testing.T) {
	db := storetest.NewSQLite(t)
	repo := repository.NewProjectRepository(db)
	ctx := context.Background()

	ps := seed(t, repo, domain.Project{Name: "Keep"}, domain.Project{Name: "Drop", Image: "images/projects/1_drop.png"})
	keep, drop := ps[0], ps[1]

	for _, pid := range []int64{keep.ID, drop.ID, drop.ID} {
		require.NoError(t, db.Gorm.Create(&reportsdomain.ProjectReport{
			ProjectID: pid, Subject: "s", Message: "m", Type: reportsdomain.TypeGeneral,
		}).Error)
	}

	deleted, err := repo.Delete(ctx, drop.ID)
	require.NoError(t, err)
	assert.Equal(t, "images/projects/1_drop.png", deleted.Image)

	var orphans int64
	require.NoError(t, db.Gorm.Model(&reportsdomain.ProjectReport{}).Where("project_id = ?", drop.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)

	var kept int64
	require.NoError(t, db.Gorm.Model(&reportsdomain.ProjectReport{}).Where("project_id = ?", keep.ID).Count(&kept).Error)
	assert.EqualValues(t, 1, kept)

	_, err = repo.Delete(ctx, drop.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	exists, err := repo.Exists(ctx, keep.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}
