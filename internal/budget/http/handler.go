package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/budget/service"
	"github.com/efren319/GovFunds/internal/logging"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
	"github.com/efren319/GovFunds/internal/web"
)

// ProjectLister supplies the project table on the budget page.
type ProjectLister interface {
	List(ctx context.Context, f projectsdomain.Filter) ([]projectsdomain.Project, error)
}

type Handler struct {
	svc      *service.AggregationService
	projects ProjectLister
	render   *web.Renderer
}

func New(svc *service.AggregationService, projects ProjectLister, render *web.Renderer) *Handler {
	return &Handler{svc: svc, projects: projects, render: render}
}

// Register mounts the budget page on pub and the chart data endpoints on api.
func (h *Handler) Register(pub, api *gin.RouterGroup) {
	pub.GET("/budget", h.page)
	api.GET("/budget_data", h.budgetData)
	api.GET("/budget_years/:year", h.yearData)
}

// yearParam reads a year; anything unparsable counts as unspecified.
func yearParam(raw string) int {
	y, err := strconv.Atoi(raw)
	if err != nil || y < 0 {
		return 0
	}
	return y
}

func (h *Handler) page(c *gin.Context) {
	ctx := c.Request.Context()

	projects, err := h.projects.List(ctx, projectsdomain.Filter{Order: projectsdomain.NewestFirst})
	if err != nil {
		logging.FromContext(ctx).Error("failed to list projects for budget page", zap.Error(err))
		projects = nil
	}

	view := h.svc.YearView(ctx, yearParam(c.Query("year")))

	h.render.HTML(c, http.StatusOK, "budget.html", gin.H{
		"Title":    "Budget",
		"Projects": projects,
		"Totals":   h.svc.Totals(ctx),
		"Sectors":  h.svc.BySector(ctx),
		"Regions":  h.svc.ByRegion(ctx),
		"Year":     view,
	})
}

type sectorRow struct {
	Sector    string  `json:"sector"`
	Allocated float64 `json:"allocated"`
	Spent     float64 `json:"spent"`
	Projects  int64   `json:"projects"`
}

func (h *Handler) budgetData(c *gin.Context) {
	buckets := h.svc.BySector(c.Request.Context())
	rows := make([]sectorRow, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, sectorRow{Sector: b.Name, Allocated: b.Allocated, Spent: b.Spent, Projects: b.Projects})
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) yearData(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.YearView(c.Request.Context(), yearParam(c.Param("year"))))
}
