package http

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/efren319/GovFunds/internal/apperrors"
	"github.com/efren319/GovFunds/internal/projects/domain"
)

// Form field names used by the admin and edit screens.
const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldSector      = "project_sector"
	fieldRegion      = "region"
	fieldStatus      = "status"
	fieldAllocated   = "allocated_budget"
	fieldSpent       = "spent"
	fieldStartDate   = "start_date"
	fieldEndDate     = "end_date"
	fieldImage       = "project_image"
)

func parseAmount(field, raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.Invalid(field, "must be a number")
	}
	return v, nil
}

func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperrors.Invalid(field, "must be a date (YYYY-MM-DD)")
	}
	return &t, nil
}

func parseStatus(raw string) (domain.Status, error) {
	st, ok := domain.ParseStatus(raw)
	if !ok {
		return "", apperrors.Invalid("project_status", "must be Planned, Ongoing or Completed")
	}
	return st, nil
}

// projectFromForm reads the add-project form.
func projectFromForm(c *gin.Context) (*domain.Project, error) {
	allocated, err := parseAmount("allocated_budget", c.PostForm(fieldAllocated))
	if err != nil {
		return nil, err
	}
	spent, err := parseAmount("budget_spent", c.PostForm(fieldSpent))
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(c.PostForm(fieldStatus))
	if err != nil {
		return nil, err
	}
	start, err := parseDate("start_date", c.PostForm(fieldStartDate))
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", c.PostForm(fieldEndDate))
	if err != nil {
		return nil, err
	}

	return &domain.Project{
		Name:            c.PostForm(fieldName),
		Description:     c.PostForm(fieldDescription),
		SectorName:      c.PostForm(fieldSector),
		RegionName:      c.PostForm(fieldRegion),
		Status:          status,
		AllocatedBudget: allocated,
		BudgetSpent:     spent,
		StartDate:       start,
		EndDate:         end,
	}, nil
}

// patchFromForm builds a patch from the fields present in the edit form.
// Absent fields are left unchanged.
func patchFromForm(c *gin.Context) (domain.Patch, error) {
	var patch domain.Patch

	text := func(name string, dst **string) {
		if v, ok := c.GetPostForm(name); ok {
			v = strings.TrimSpace(v)
			*dst = &v
		}
	}
	text(fieldName, &patch.Name)
	text(fieldDescription, &patch.Description)
	text(fieldSector, &patch.SectorName)
	text(fieldRegion, &patch.RegionName)

	if v, ok := c.GetPostForm(fieldStatus); ok {
		st, err := parseStatus(v)
		if err != nil {
			return patch, err
		}
		patch.Status = &st
	}
	if v, ok := c.GetPostForm(fieldAllocated); ok {
		amount, err := parseAmount("allocated_budget", v)
		if err != nil {
			return patch, err
		}
		patch.AllocatedBudget = &amount
	}
	if v, ok := c.GetPostForm(fieldSpent); ok {
		amount, err := parseAmount("budget_spent", v)
		if err != nil {
			return patch, err
		}
		patch.BudgetSpent = &amount
	}
	if v, ok := c.GetPostForm(fieldStartDate); ok {
		d, err := parseDate("start_date", v)
		if err != nil {
			return patch, err
		}
		patch.StartDate = &d
	}
	if v, ok := c.GetPostForm(fieldEndDate); ok {
		d, err := parseDate("end_date", v)
		if err != nil {
			return patch, err
		}
		patch.EndDate = &d
	}
	return patch, nil
}
