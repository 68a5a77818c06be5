package dataio

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/apperrors"
	budgetdomain "github.com/efren319/GovFunds/internal/budget/domain"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
	reportsdomain "github.com/efren319/GovFunds/internal/reports/domain"
	"github.com/efren319/GovFunds/internal/store/storetest"
)

func TestLoadFixture(t *testing.T) {
	fx, err := LoadFixture()
	require.NoError(t, err)

	assert.Len(t, fx.Projects, 4)
	assert.Len(t, fx.Feedback, 2)
	assert.Len(t, fx.RegionBudgets, 3*len(projectsdomain.Regions))
	assert.Len(t, fx.SectorBudgets, 3*len(projectsdomain.Sectors))
	assert.Equal(t, []AnnualBudgetRecord{
		{Year: 2023, TotalBudget: 5278700000000},
		{Year: 2024, TotalBudget: 5705700000000},
		{Year: 2025, TotalBudget: 6095900000000},
	}, fx.AnnualBudgets)

	for _, r := range fx.Projects {
		_, err := r.Project()
		assert.NoError(t, err, r.Name)
	}
}

func TestSeedIfEmpty(t *testing.T) {
	svc := NewService(storetest.NewSQLite(t))
	ctx := context.Background()

	seeded, err := svc.SeedIfEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	sum, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Projects: 4, Feedback: 2, RegionBudgets: 51, SectorBudgets: 24, AnnualBudgets: 3}, sum)

	seeded, err = svc.SeedIfEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	again, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, sum, again)
}

func TestSeedKeepsExistingBudgets(t *testing.T) {
	db := storetest.NewSQLite(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, db.Gorm.Create(&budgetdomain.AnnualBudget{Year: 2025, TotalBudget: 1}).Error)

	seeded, err := svc.SeedIfEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	var annual budgetdomain.AnnualBudget
	require.NoError(t, db.Gorm.Where("year = ?", 2025).First(&annual).Error)
	assert.Equal(t, float64(1), annual.TotalBudget)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := storetest.NewSQLite(t)
	srcSvc := NewService(src)

	_, err := srcSvc.SeedIfEmpty(ctx)
	require.NoError(t, err)

	var road projectsdomain.Project
	require.NoError(t, src.Gorm.Where("project_name LIKE ?", "Road%").First(&road).Error)
	rep := reportsdomain.ProjectReport{ProjectID: road.ID, Subject: "Potholes", Message: "Still there", Type: reportsdomain.TypeIssue}
	require.NoError(t, src.Gorm.Omit("Project").Create(&rep).Error)

	dir := t.TempDir()
	exported, err := srcSvc.ExportAll(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, exported.Reports)

	for _, name := range []string{FileProjects, FileFeedback, FileReports, FileRegionBudgets, FileSectorBudgets, FileAnnualBudgets} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	raw, err := os.ReadFile(filepath.Join(dir, FileProjects))
	require.NoError(t, err)
	var projects []map[string]any
	require.NoError(t, json.Unmarshal(raw, &projects))
	require.Len(t, projects, 4)
	assert.Equal(t, "2024-05-01", projects[0]["start_date"])
	created, err := time.Parse(time.RFC3339Nano, projects[0]["created_at"].(string))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, created.Location())

	dst := storetest.NewSQLite(t)
	dstSvc := NewService(dst)
	imported, err := dstSvc.ImportAll(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, exported, imported)

	var got reportsdomain.ProjectReport
	require.NoError(t, dst.Gorm.First(&got, rep.ID).Error)
	assert.Equal(t, road.ID, got.ProjectID)
	assert.Equal(t, "Potholes", got.Subject)

	assert.True(t, rep.CreatedAt.Equal(got.CreatedAt), "report created_at %v != %v", rep.CreatedAt, got.CreatedAt)

	var gotProject projectsdomain.Project
	require.NoError(t, dst.Gorm.First(&gotProject, road.ID).Error)
	assert.Equal(t, road.Name, gotProject.Name)
	assert.Equal(t, road.BudgetSpent, gotProject.BudgetSpent)

	// Timestamps survive to the nanosecond, so ordering by created_at holds.
	var srcProjects, dstProjects []projectsdomain.Project
	require.NoError(t, src.Gorm.Order("project_id").Find(&srcProjects).Error)
	require.NoError(t, dst.Gorm.Order("project_id").Find(&dstProjects).Error)
	require.Len(t, dstProjects, len(srcProjects))
	for i := range srcProjects {
		assert.True(t, srcProjects[i].CreatedAt.Equal(dstProjects[i].CreatedAt), srcProjects[i].Name)
		assert.True(t, srcProjects[i].UpdatedAt.Equal(dstProjects[i].UpdatedAt), srcProjects[i].Name)
	}

	var srcFeedback, dstFeedback []reportsdomain.Feedback
	require.NoError(t, src.Gorm.Order("feedback_id").Find(&srcFeedback).Error)
	require.NoError(t, dst.Gorm.Order("feedback_id").Find(&dstFeedback).Error)
	require.Len(t, dstFeedback, len(srcFeedback))
	for i := range srcFeedback {
		assert.True(t, srcFeedback[i].CreatedAt.Equal(dstFeedback[i].CreatedAt), srcFeedback[i].Message)
	}

	// New rows continue after the imported ids.
	fresh := projectsdomain.Project{Name: "Fresh", Status: projectsdomain.StatusPlanned}
	require.NoError(t, dst.Gorm.Create(&fresh).Error)
	assert.Greater(t, fresh.ID, int64(4))
}

func TestImportRefusesNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewSQLite(t)
	svc := NewService(db)
	_, err := svc.SeedIfEmpty(ctx)
	require.NoError(t, err)

	dir := t.TempDir()
	writeFile(t, dir, FileProjects, `[{"project_id": 10, "project_name": "Only", "allocated_budget": 5, "budget_spent": 1, "project_status": "Ongoing"}]`)

	_, err = svc.ImportAll(ctx, dir, false)
	assert.ErrorIs(t, err, apperrors.ErrStoreNotEmpty)

	sum, err := svc.ImportAll(ctx, dir, true)
	require.NoError(t, err)
	assert.Equal(t, Summary{Projects: 1}, sum)

	after, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Projects: 1}, after)
}

func TestImportLegacyFormat(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewSQLite(t)
	svc := NewService(db)

	dir := t.TempDir()
	writeFile(t, dir, FileProjects, `[
		{"id": 3, "name": "Old Road", "department": "Road Infrastructure", "description": "legacy",
		 "allocated_budget": 100, "spent": 40, "status": "ongoing", "region": "Region I",
		 "start_date": "2024-05-01T00:00:00"}
	]`)
	writeFile(t, dir, FileFeedback, `[{"id": 1, "message": "hi", "created_at": "2024-06-01T08:30:00.123456"}]`)
	writeFile(t, dir, fileDepartmentBudgets, `[{"department": "Road Infrastructure", "year": 2024, "budget": 9}]`)
	writeFile(t, dir, FileRegionBudgets, `[{"region": "Region I", "year": 2024, "budget": 7}]`)

	sum, err := svc.ImportAll(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, Summary{Projects: 1, Feedback: 1, RegionBudgets: 1, SectorBudgets: 1}, sum)

	var p projectsdomain.Project
	require.NoError(t, db.Gorm.First(&p, 3).Error)
	assert.Equal(t, "Old Road", p.Name)
	assert.Equal(t, "Road Infrastructure", p.SectorName)
	assert.Equal(t, "Region I", p.RegionName)
	assert.Equal(t, projectsdomain.StatusOngoing, p.Status)
	assert.Equal(t, float64(40), p.BudgetSpent)
	require.NotNil(t, p.StartDate)
	assert.Equal(t, "2024-05-01", p.StartDate.Format("2006-01-02"))

	var sb budgetdomain.SectorBudget
	require.NoError(t, db.Gorm.First(&sb).Error)
	assert.Equal(t, "Road Infrastructure", sb.SectorName)
}

func TestImportRejectsOverspentProject(t *testing.T) {
	svc := NewService(storetest.NewSQLite(t))
	dir := t.TempDir()
	writeFile(t, dir, FileProjects, `[{"project_name": "Over", "allocated_budget": 1, "budget_spent": 2}]`)

	_, err := svc.ImportAll(context.Background(), dir, false)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestImportMissingFilesIsEmpty(t *testing.T) {
	svc := NewService(storetest.NewSQLite(t))
	sum, err := svc.ImportAll(context.Background(), t.TempDir(), false)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
}

type countingExporter struct{ runs chan string }

func (c countingExporter) ExportAll(_ context.Context, dir string) (Summary, error) {
	c.runs <- dir
	return Summary{}, nil
}

func TestScheduler(t *testing.T) {
	_, err := NewScheduler(countingExporter{}, "data", "not a schedule", zap.NewNop())
	assert.Error(t, err)

	exp := countingExporter{runs: make(chan string, 4)}
	s, err := NewScheduler(exp, "out", "* * * * * *", zap.NewNop())
	require.NoError(t, err)
	s.Start()
	defer s.Stop(context.Background())

	select {
	case dir := <-exp.runs:
		assert.Equal(t, "out", dir)
	case <-time.After(3 * time.Second):
		t.Fatal("export did not run")
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}
