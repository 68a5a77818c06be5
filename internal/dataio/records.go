package dataio

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	budgetdomain "github.com/efren319/GovFunds/internal/budget/domain"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
	reportsdomain "github.com/efren319/GovFunds/internal/reports/domain"
)

const dateLayout = "2006-01-02"

// timestampLayouts are tried in order when reading created_at values.
// The naive layouts come from older exports that wrote local ISO strings.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dateLayout,
}

func parseTimestamp(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: unrecognised timestamp %q", field, raw)
}

func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if len(raw) > len(dateLayout) {
		raw = raw[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: unrecognised date %q", field, raw)
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// pick returns the first non-nil value.
func pick[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// ProjectRecord is a project as written to projects.json.
type ProjectRecord struct {
	ID              int64   `json:"project_id" yaml:"project_id,omitempty"`
	Name            string  `json:"project_name" yaml:"project_name"`
	Description     string  `json:"project_description" yaml:"project_description"`
	Image           string  `json:"project_image,omitempty" yaml:"project_image,omitempty"`
	AllocatedBudget float64 `json:"allocated_budget" yaml:"allocated_budget"`
	BudgetSpent     float64 `json:"budget_spent" yaml:"budget_spent"`
	Status          string  `json:"project_status" yaml:"project_status"`
	StartDate       string  `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate         string  `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	RegionName      string  `json:"region_name" yaml:"region_name"`
	SectorName      string  `json:"sector_name" yaml:"sector_name"`
	CreatedAt       string  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// UnmarshalJSON accepts the current field names and the historical ones
// (id, name, description, department, project_sector, spent, status, region).
func (r *ProjectRecord) UnmarshalJSON(b []byte) error {
	var raw struct {
		ProjectID          *int64   `json:"project_id"`
		ID                 *int64   `json:"id"`
		ProjectName        *string  `json:"project_name"`
		Name               *string  `json:"name"`
		ProjectDescription *string  `json:"project_description"`
		Description        *string  `json:"description"`
		ProjectImage       *string  `json:"project_image"`
		AllocatedBudget    *float64 `json:"allocated_budget"`
		BudgetSpent        *float64 `json:"budget_spent"`
		Spent              *float64 `json:"spent"`
		ProjectStatus      *string  `json:"project_status"`
		Status             *string  `json:"status"`
		StartDate          *string  `json:"start_date"`
		EndDate            *string  `json:"end_date"`
		RegionName         *string  `json:"region_name"`
		Region             *string  `json:"region"`
		SectorName         *string  `json:"sector_name"`
		ProjectSector      *string  `json:"project_sector"`
		Department         *string  `json:"department"`
		CreatedAt          *string  `json:"created_at"`
		UpdatedAt          *string  `json:"updated_at"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*r = ProjectRecord{
		ID:              deref(pick(raw.ProjectID, raw.ID)),
		Name:            deref(pick(raw.ProjectName, raw.Name)),
		Description:     deref(pick(raw.ProjectDescription, raw.Description)),
		Image:           deref(raw.ProjectImage),
		AllocatedBudget: deref(raw.AllocatedBudget),
		BudgetSpent:     deref(pick(raw.BudgetSpent, raw.Spent)),
		Status:          deref(pick(raw.ProjectStatus, raw.Status)),
		StartDate:       deref(raw.StartDate),
		EndDate:         deref(raw.EndDate),
		RegionName:      deref(pick(raw.RegionName, raw.Region)),
		SectorName:      deref(pick(raw.SectorName, raw.ProjectSector, raw.Department)),
		CreatedAt:       deref(raw.CreatedAt),
		UpdatedAt:       deref(raw.UpdatedAt),
	}
	return nil
}

func projectRecord(p projectsdomain.Project) ProjectRecord {
	return ProjectRecord{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Image:           p.Image,
		AllocatedBudget: p.AllocatedBudget,
		BudgetSpent:     p.BudgetSpent,
		Status:          string(p.Status),
		StartDate:       formatDate(p.StartDate),
		EndDate:         formatDate(p.EndDate),
		RegionName:      p.RegionName,
		SectorName:      p.SectorName,
		CreatedAt:       formatTimestamp(p.CreatedAt),
		UpdatedAt:       formatTimestamp(p.UpdatedAt),
	}
}

// Project converts the record, validating it like any other write.
func (r ProjectRecord) Project() (projectsdomain.Project, error) {
	status, ok := projectsdomain.ParseStatus(r.Status)
	if !ok {
		return projectsdomain.Project{}, fmt.Errorf("project %d: unknown status %q", r.ID, r.Status)
	}
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return projectsdomain.Project{}, fmt.Errorf("project %d: %w", r.ID, err)
	}
	end, err := parseDate("end_date", r.EndDate)
	if err != nil {
		return projectsdomain.Project{}, fmt.Errorf("project %d: %w", r.ID, err)
	}
	created, err := parseTimestamp("created_at", r.CreatedAt)
	if err != nil {
		return projectsdomain.Project{}, fmt.Errorf("project %d: %w", r.ID, err)
	}
	updated, err := parseTimestamp("updated_at", r.UpdatedAt)
	if err != nil {
		return projectsdomain.Project{}, fmt.Errorf("project %d: %w", r.ID, err)
	}

	p := projectsdomain.Project{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		Image:           r.Image,
		AllocatedBudget: r.AllocatedBudget,
		BudgetSpent:     r.BudgetSpent,
		Status:          status,
		StartDate:       start,
		EndDate:         end,
		RegionName:      r.RegionName,
		SectorName:      r.SectorName,
		CreatedAt:       created,
		UpdatedAt:       updated,
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return projectsdomain.Project{}, fmt.Errorf("project %d (%s): %w", r.ID, r.Name, err)
	}
	return p, nil
}

// FeedbackRecord is one row of feedback.json.
type FeedbackRecord struct {
	ID        int64  `json:"feedback_id" yaml:"feedback_id,omitempty"`
	Name      string `json:"name" yaml:"name"`
	Email     string `json:"email" yaml:"email"`
	Message   string `json:"message" yaml:"message"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

func (r *FeedbackRecord) UnmarshalJSON(b []byte) error {
	var raw struct {
		FeedbackID *int64  `json:"feedback_id"`
		ID         *int64  `json:"id"`
		Name       *string `json:"name"`
		Email      *string `json:"email"`
		Message    *string `json:"message"`
		CreatedAt  *string `json:"created_at"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = FeedbackRecord{
		ID:        deref(pick(raw.FeedbackID, raw.ID)),
		Name:      deref(raw.Name),
		Email:     deref(raw.Email),
		Message:   deref(raw.Message),
		CreatedAt: deref(raw.CreatedAt),
	}
	return nil
}

func feedbackRecord(f reportsdomain.Feedback) FeedbackRecord {
	return FeedbackRecord{
		ID:        f.ID,
		Name:      f.Name,
		Email:     f.Email,
		Message:   f.Message,
		CreatedAt: formatTimestamp(f.CreatedAt),
	}
}

func (r FeedbackRecord) Feedback() (reportsdomain.Feedback, error) {
	created, err := parseTimestamp("created_at", r.CreatedAt)
	if err != nil {
		return reportsdomain.Feedback{}, fmt.Errorf("feedback %d: %w", r.ID, err)
	}
	f := reportsdomain.Feedback{ID: r.ID, Name: r.Name, Email: r.Email, Message: r.Message, CreatedAt: created}
	if err := f.Validate(); err != nil {
		return reportsdomain.Feedback{}, fmt.Errorf("feedback %d: %w", r.ID, err)
	}
	return f, nil
}

// ReportRecord is one row of reports.json.
type ReportRecord struct {
	ID            int64  `json:"report_id"`
	ProjectID     int64  `json:"project_id"`
	ReporterName  string `json:"reporter_name"`
	ReporterEmail string `json:"reporter_email"`
	Subject       string `json:"report_subject"`
	Message       string `json:"report_message"`
	Type          string `json:"report_type"`
	Image         string `json:"report_image,omitempty"`
	IsResolved    bool   `json:"is_resolved"`
	CreatedAt     string `json:"created_at,omitempty"`
}

func (r *ReportRecord) UnmarshalJSON(b []byte) error {
	var raw struct {
		ReportID      *int64  `json:"report_id"`
		ID            *int64  `json:"id"`
		ProjectID     *int64  `json:"project_id"`
		ReporterName  *string `json:"reporter_name"`
		ReporterEmail *string `json:"reporter_email"`
		Subject       *string `json:"report_subject"`
		Message       *string `json:"report_message"`
		Type          *string `json:"report_type"`
		Image         *string `json:"report_image"`
		IsResolved    *bool   `json:"is_resolved"`
		CreatedAt     *string `json:"created_at"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = ReportRecord{
		ID:            deref(pick(raw.ReportID, raw.ID)),
		ProjectID:     deref(raw.ProjectID),
		ReporterName:  deref(raw.ReporterName),
		ReporterEmail: deref(raw.ReporterEmail),
		Subject:       deref(raw.Subject),
		Message:       deref(raw.Message),
		Type:          deref(raw.Type),
		Image:         deref(raw.Image),
		IsResolved:    deref(raw.IsResolved),
		CreatedAt:     deref(raw.CreatedAt),
	}
	return nil
}

func reportRecord(r reportsdomain.ProjectReport) ReportRecord {
	return ReportRecord{
		ID:            r.ID,
		ProjectID:     r.ProjectID,
		ReporterName:  r.ReporterName,
		ReporterEmail: r.ReporterEmail,
		Subject:       r.Subject,
		Message:       r.Message,
		Type:          string(r.Type),
		Image:         r.Image,
		IsResolved:    r.IsResolved,
		CreatedAt:     formatTimestamp(r.CreatedAt),
	}
}

func (r ReportRecord) Report() (reportsdomain.ProjectReport, error) {
	created, err := parseTimestamp("created_at", r.CreatedAt)
	if err != nil {
		return reportsdomain.ProjectReport{}, fmt.Errorf("report %d: %w", r.ID, err)
	}
	rep := reportsdomain.ProjectReport{
		ID:            r.ID,
		ProjectID:     r.ProjectID,
		ReporterName:  r.ReporterName,
		ReporterEmail: r.ReporterEmail,
		Subject:       r.Subject,
		Message:       r.Message,
		Type:          reportsdomain.ReportType(r.Type),
		Image:         r.Image,
		IsResolved:    r.IsResolved,
		CreatedAt:     created,
	}
	if err := rep.Validate(); err != nil {
		return reportsdomain.ProjectReport{}, fmt.Errorf("report %d: %w", r.ID, err)
	}
	return rep, nil
}

// RegionBudgetRecord is one row of region_budgets.json.
type RegionBudgetRecord struct {
	RegionName string  `json:"region_name" yaml:"region_name"`
	Year       int     `json:"year" yaml:"year"`
	Budget     float64 `json:"budget" yaml:"budget"`
}

func (r *RegionBudgetRecord) UnmarshalJSON(b []byte) error {
	var raw struct {
		RegionName *string  `json:"region_name"`
		Region     *string  `json:"region"`
		Year       *int     `json:"year"`
		Budget     *float64 `json:"budget"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = RegionBudgetRecord{
		RegionName: deref(pick(raw.RegionName, raw.Region)),
		Year:       deref(raw.Year),
		Budget:     deref(raw.Budget),
	}
	return nil
}

func (r RegionBudgetRecord) RegionBudget() (budgetdomain.RegionBudget, error) {
	name := strings.TrimSpace(r.RegionName)
	if name == "" || r.Year <= 0 {
		return budgetdomain.RegionBudget{}, fmt.Errorf("region budget %q/%d: region and year are required", name, r.Year)
	}
	return budgetdomain.RegionBudget{RegionName: name, Year: r.Year, Budget: r.Budget}, nil
}

// SectorBudgetRecord is one row of sector_budgets.json (or the historical
// department_budgets.json).
type SectorBudgetRecord struct {
	SectorName string  `json:"sector_name" yaml:"sector_name"`
	Year       int     `json:"year" yaml:"year"`
	Budget     float64 `json:"budget" yaml:"budget"`
}

func (r *SectorBudgetRecord) UnmarshalJSON(b []byte) error {
	var raw struct {
		SectorName *string  `json:"sector_name"`
		Sector     *string  `json:"sector"`
		Department *string  `json:"department"`
		Year       *int     `json:"year"`
		Budget     *float64 `json:"budget"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = SectorBudgetRecord{
		SectorName: deref(pick(raw.SectorName, raw.Sector, raw.Department)),
		Year:       deref(raw.Year),
		Budget:     deref(raw.Budget),
	}
	return nil
}

func (r SectorBudgetRecord) SectorBudget() (budgetdomain.SectorBudget, error) {
	name := strings.TrimSpace(r.SectorName)
	if name == "" || r.Year <= 0 {
		return budgetdomain.SectorBudget{}, fmt.Errorf("sector budget %q/%d: sector and year are required", name, r.Year)
	}
	return budgetdomain.SectorBudget{SectorName: name, Year: r.Year, Budget: r.Budget}, nil
}

// AnnualBudgetRecord is one row of annual_budgets.json.
type AnnualBudgetRecord struct {
	Year        int     `json:"year" yaml:"year"`
	TotalBudget float64 `json:"total_budget" yaml:"total_budget"`
}

func (r AnnualBudgetRecord) AnnualBudget() (budgetdomain.AnnualBudget, error) {
	if r.Year <= 0 {
		return budgetdomain.AnnualBudget{}, fmt.Errorf("annual budget: year is required")
	}
	return budgetdomain.AnnualBudget{Year: r.Year, TotalBudget: r.TotalBudget}, nil
}
