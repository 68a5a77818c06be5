package domain

import (
	"math"
	"strings"
	"time"

	"github.com/efren319/GovFunds/internal/apperrors"
)

type Status string

const (
	StatusPlanned   Status = "Planned"
	StatusOngoing   Status = "Ongoing"
	StatusCompleted Status = "Completed"
)

// Statuses lists every project status in display order.
var Statuses = []Status{StatusPlanned, StatusOngoing, StatusCompleted}

// ParseStatus accepts a status name case-insensitively. Empty means Planned.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusPlanned, true
	}
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// Project is a public infrastructure project and its budget figures.
// Region and sector are plain text; the reference lists only feed dropdowns.
type Project struct {
	ID              int64      `gorm:"column:project_id;primaryKey;autoIncrement" json:"project_id"`
	Name            string     `gorm:"column:project_name;size:200;not null" json:"project_name"`
	Description     string     `gorm:"column:project_description;type:text" json:"project_description"`
	Image           string     `gorm:"column:project_image;size:300" json:"project_image,omitempty"`
	AllocatedBudget float64    `gorm:"column:allocated_budget;not null;default:0" json:"allocated_budget"`
	BudgetSpent     float64    `gorm:"column:budget_spent;not null;default:0" json:"budget_spent"`
	Status          Status     `gorm:"column:project_status;size:50;not null;default:Planned" json:"project_status"`
	StartDate       *time.Time `gorm:"column:start_date;type:date" json:"start_date,omitempty"`
	EndDate         *time.Time `gorm:"column:end_date;type:date" json:"end_date,omitempty"`
	RegionName      string     `gorm:"column:region_name;size:100;index" json:"region_name"`
	SectorName      string     `gorm:"column:sector_name;size:100;index" json:"sector_name"`
	CreatedAt       time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// Remaining is the unspent part of the allocation.
func (p Project) Remaining() float64 {
	return p.AllocatedBudget - p.BudgetSpent
}

// Utilization is spent/allocated as a percentage, 0 when nothing is allocated.
func (p Project) Utilization() float64 {
	if p.AllocatedBudget <= 0 {
		return 0
	}
	return p.BudgetSpent / p.AllocatedBudget * 100
}

// Normalize trims text fields and canonicalises the status. An unknown
// status is kept as given so Validate can reject it.
func (p *Project) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.RegionName = strings.TrimSpace(p.RegionName)
	p.SectorName = strings.TrimSpace(p.SectorName)
	if st, ok := ParseStatus(string(p.Status)); ok {
		p.Status = st
	}
}

// Validate enforces required fields and the budget policy:
// amounts are non-negative and spent never exceeds allocated.
func (p *Project) Validate() error {
	if p.Name == "" {
		return apperrors.Required("project_name")
	}
	if _, ok := ParseStatus(string(p.Status)); !ok {
		return apperrors.Invalid("project_status", "must be Planned, Ongoing or Completed")
	}
	if !finite(p.AllocatedBudget) {
		return apperrors.Invalid("allocated_budget", "must be a finite number")
	}
	if !finite(p.BudgetSpent) {
		return apperrors.Invalid("budget_spent", "must be a finite number")
	}
	if p.AllocatedBudget < 0 {
		return apperrors.Invalid("allocated_budget", "must not be negative")
	}
	if p.BudgetSpent < 0 {
		return apperrors.Invalid("budget_spent", "must not be negative")
	}
	if p.BudgetSpent > p.AllocatedBudget {
		return apperrors.Invalid("budget_spent", "must not exceed allocated_budget")
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return apperrors.Invalid("end_date", "must not be before start_date")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Patch carries field-level changes; nil fields are left untouched.
type Patch struct {
	Name            *string
	Description     *string
	Image           *string
	AllocatedBudget *float64
	BudgetSpent     *float64
	Status          *Status
	StartDate       **time.Time
	EndDate         **time.Time
	RegionName      *string
	SectorName      *string
}

// Apply copies the set fields of patch onto p.
func (patch Patch) Apply(p *Project) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.AllocatedBudget != nil {
		p.AllocatedBudget = *patch.AllocatedBudget
	}
	if patch.BudgetSpent != nil {
		p.BudgetSpent = *patch.BudgetSpent
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.StartDate != nil {
		p.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		p.EndDate = *patch.EndDate
	}
	if patch.RegionName != nil {
		p.RegionName = *patch.RegionName
	}
	if patch.SectorName != nil {
		p.SectorName = *patch.SectorName
	}
}

// Order selects the listing order.
type Order int

const (
	// NewestFirst orders by id descending.
	NewestFirst Order = iota
	ByName
)

// Filter narrows a project listing. Zero values mean "any".
type Filter struct {
	Status Status
	Region string
	Sector string
	Query  string
	Order  Order
	Limit  int
}
