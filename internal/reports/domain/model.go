package domain

import (
	"strings"
	"time"

	"github.com/efren319/GovFunds/internal/apperrors"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
)

// Feedback is a general citizen comment. It is never edited or deleted.
type Feedback struct {
	ID        int64     `gorm:"column:feedback_id;primaryKey;autoIncrement" json:"feedback_id"`
	Name      string    `gorm:"column:name;size:100" json:"name"`
	Email     string    `gorm:"column:email;size:100" json:"email"`
	Message   string    `gorm:"column:message;type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Feedback) TableName() string { return "feedback" }

func (f *Feedback) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Message = strings.TrimSpace(f.Message)
	if f.Message == "" {
		return apperrors.Required("message")
	}
	return nil
}

type ReportType string

const (
	TypeGeneral    ReportType = "General"
	TypeIssue      ReportType = "Issue"
	TypeConcern    ReportType = "Concern"
	TypeSuggestion ReportType = "Suggestion"
)

var ReportTypes = []ReportType{TypeGeneral, TypeIssue, TypeConcern, TypeSuggestion}

// ParseReportType accepts a type name case-insensitively. Empty means General.
func ParseReportType(s string) (ReportType, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeGeneral, true
	}
	for _, t := range ReportTypes {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// ProjectReport is a citizen issue tied to exactly one project.
type ProjectReport struct {
	ID            int64      `gorm:"column:report_id;primaryKey;autoIncrement" json:"report_id"`
	ProjectID     int64      `gorm:"column:project_id;not null;index" json:"project_id"`
	ReporterName  string     `gorm:"column:reporter_name;size:100" json:"reporter_name"`
	ReporterEmail string     `gorm:"column:reporter_email;size:100" json:"reporter_email"`
	Subject       string     `gorm:"column:report_subject;size:200;not null" json:"report_subject"`
	Message       string     `gorm:"column:report_message;type:text;not null" json:"report_message"`
	Type          ReportType `gorm:"column:report_type;size:50;not null;default:General" json:"report_type"`
	Image         string     `gorm:"column:report_image;size:300" json:"report_image,omitempty"`
	IsResolved    bool       `gorm:"column:is_resolved;not null;default:false" json:"is_resolved"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`

	Project *projectsdomain.Project `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ProjectReport) TableName() string { return "project_reports" }

func (r *ProjectReport) Validate() error {
	r.ReporterName = strings.TrimSpace(r.ReporterName)
	r.ReporterEmail = strings.TrimSpace(r.ReporterEmail)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Message = strings.TrimSpace(r.Message)

	if r.ProjectID <= 0 {
		return apperrors.Required("project_id")
	}
	if r.Subject == "" {
		return apperrors.Required("report_subject")
	}
	if r.Message == "" {
		return apperrors.Required("report_message")
	}
	t, ok := ParseReportType(string(r.Type))
	if !ok {
		return apperrors.Invalid("report_type", "must be General, Issue, Concern or Suggestion")
	}
	r.Type = t
	return nil
}

// UnresolvedReport is an open report joined with its project's name.
type UnresolvedReport struct {
	ProjectReport
	ProjectName string `gorm:"column:project_name" json:"project_name"`
}
