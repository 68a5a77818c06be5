package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efren319/GovFunds/internal/apperrors"
	"github.com/efren319/GovFunds/internal/projects/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func formContext(t *testing.T, form url.Values) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodPost, "/admin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Request = req
	return c
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{"1,250,000.50", 1250000.50, false},
		{" 42 ", 42, false},
		{"twelve", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"-infinity", 0, true},
		{"1e400", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseAmount("allocated_budget", tt.raw)
			if tt.wantErr {
				var ve *apperrors.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "allocated_budget", ve.Field)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestProjectFromForm(t *testing.T) {
	c := formContext(t, url.Values{
		fieldName:      {"Flood Wall"},
		fieldSector:    {"Flood Control and Drainage"},
		fieldRegion:    {"Region III"},
		fieldStatus:    {"completed"},
		fieldAllocated: {"2,000,000"},
		fieldSpent:     {"1,999,999"},
		fieldStartDate: {"2024-02-01"},
	})

	p, err := projectFromForm(c)
	require.NoError(t, err)
	assert.Equal(t, "Flood Wall", p.Name)
	assert.Equal(t, domain.StatusCompleted, p.Status)
	assert.InDelta(t, 2_000_000, p.AllocatedBudget, 0.001)
	require.NotNil(t, p.StartDate)
	assert.Equal(t, "2024-02-01", p.StartDate.Format("2006-01-02"))
	assert.Nil(t, p.EndDate)
}

func TestProjectFromFormRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"status", url.Values{fieldStatus: {"Abandoned"}}, "project_status"},
		{"spent", url.Values{fieldSpent: {"lots"}}, "budget_spent"},
		{"date", url.Values{fieldEndDate: {"31/12/2025"}}, "end_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := projectFromForm(formContext(t, tt.form))
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestPatchFromFormOnlyTouchesPresentFields(t *testing.T) {
	c := formContext(t, url.Values{fieldSpent: {"10"}, fieldEndDate: {""}})

	patch, err := patchFromForm(c)
	require.NoError(t, err)

	assert.Nil(t, patch.Name)
	assert.Nil(t, patch.Status)
	assert.Nil(t, patch.AllocatedBudget)
	require.NotNil(t, patch.BudgetSpent)
	assert.InDelta(t, 10, *patch.BudgetSpent, 0.001)

	require.NotNil(t, patch.EndDate, "an empty date field clears the date")
	assert.Nil(t, *patch.EndDate)
	assert.Nil(t, patch.StartDate)
}
