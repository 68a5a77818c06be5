package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/apperrors"
	budgetdomain "github.com/efren319/GovFunds/internal/budget/domain"
	"github.com/efren319/GovFunds/internal/logging"
	"github.com/efren319/GovFunds/internal/projects/domain"
	"github.com/efren319/GovFunds/internal/projects/service"
	reportsdomain "github.com/efren319/GovFunds/internal/reports/domain"
	"github.com/efren319/GovFunds/internal/web"
)

const adminProjectLimit = 50

// Reports is the slice of the intake service the project pages read.
type Reports interface {
	ListForProject(ctx context.Context, projectID int64) ([]reportsdomain.ProjectReport, error)
	ListUnresolved(ctx context.Context) ([]reportsdomain.UnresolvedReport, error)
	UnresolvedCounts(ctx context.Context) (map[int64]int64, error)
}

// StatusCounter supplies the projects page header; the aggregation service implements it.
type StatusCounter interface {
	StatusCounts(ctx context.Context) []budgetdomain.StatusCount
}

type Handler struct {
	svc     *service.ProjectService
	reports Reports
	stats   StatusCounter
	render  *web.Renderer
}

func New(svc *service.ProjectService, reports Reports, stats StatusCounter, render *web.Renderer) *Handler {
	return &Handler{svc: svc, reports: reports, stats: stats, render: render}
}

// Register mounts the public pages on pub and the admin pages on admin.
// admin is expected to carry RequireAdmin; adminAPI RequireAdminJSON.
func (h *Handler) Register(pub, admin, adminAPI *gin.RouterGroup) {
	pub.GET("/projects", h.list)
	pub.GET("/project/:id", h.detail)

	admin.GET("/admin", h.adminPage)
	admin.POST("/admin", h.adminAction)
	admin.GET("/project/:id/edit", h.editPage)
	admin.POST("/project/:id/edit", h.update)
	admin.POST("/project/:id/delete", h.delete)

	adminAPI.GET("/project/:id", h.apiGet)
}

func projectID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NotFoundf("project %q", c.Param("id"))
	}
	return id, nil
}

// ProjectCard is a project with its derived figures for listing pages.
type ProjectCard struct {
	domain.Project
	Remaining   float64
	Utilization float64
	OpenReports int64
}

func card(p domain.Project, open int64) ProjectCard {
	return ProjectCard{Project: p, Remaining: p.Remaining(), Utilization: p.Utilization(), OpenReports: open}
}

func (h *Handler) list(c *gin.Context) {
	ctx := c.Request.Context()
	f := domain.Filter{
		Region: strings.TrimSpace(c.Query("region")),
		Sector: strings.TrimSpace(c.Query("sector")),
		Query:  strings.TrimSpace(c.Query("q")),
	}
	if c.Query("sort") == "name" {
		f.Order = domain.ByName
	}
	if raw := c.Query("status"); raw != "" {
		if st, ok := domain.ParseStatus(raw); ok {
			f.Status = st
		}
	}

	var cards []ProjectCard
	for p, err := range h.svc.All(ctx, f) {
		if err != nil {
			logging.FromContext(ctx).Error("failed to list projects", zap.Error(err))
			h.render.Flash(c, web.FlashDanger, "Projects could not be loaded. Please try again.")
			cards = nil
			break
		}
		cards = append(cards, card(p, 0))
	}

	counts := h.stats.StatusCounts(ctx)
	var total int64
	for _, sc := range counts {
		total += sc.Count
	}

	h.render.HTML(c, http.StatusOK, "projects.html", gin.H{
		"Title":        "Projects",
		"Projects":     cards,
		"StatusCounts": counts,
		"TotalCount":   total,
		"Filter":       f,
		"Statuses":     domain.Statuses,
		"Regions":      domain.Regions,
		"Sectors":      domain.Sectors,
	})
}

func (h *Handler) detail(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := projectID(c)
	if err != nil {
		h.render.Fail(c, err, "/projects", "/projects")
		return
	}

	p, err := h.svc.Get(ctx, id)
	if err != nil {
		h.render.Fail(c, err, "/projects", "/projects")
		return
	}

	reports, err := h.reports.ListForProject(ctx, id)
	if err != nil {
		logging.FromContext(ctx).Warn("failed to load project reports", zap.Int64("project_id", id), zap.Error(err))
		reports = nil
	}

	h.render.HTML(c, http.StatusOK, "project.html", gin.H{
		"Title":   p.Name,
		"Project": card(*p, 0),
		"Reports": reports,
	})
}

func (h *Handler) apiGet(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}

	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		logging.FromContext(c.Request.Context()).Error("failed to fetch project", zap.Int64("project_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "error fetching project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) editPage(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		h.render.Fail(c, err, "/projects", "/projects")
		return
	}

	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.render.Fail(c, err, "/projects", "/projects")
		return
	}

	h.render.HTML(c, http.StatusOK, "project_edit.html", gin.H{
		"Title":    "Edit " + p.Name,
		"Project":  p,
		"Statuses": domain.Statuses,
		"Regions":  domain.Regions,
		"Sectors":  domain.Sectors,
	})
}

func (h *Handler) update(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		h.render.Fail(c, err, "/projects", "/projects")
		return
	}
	editURL := fmt.Sprintf("/project/%d/edit", id)

	patch, err := patchFromForm(c)
	if err != nil {
		h.render.Fail(c, err, editURL, "/projects")
		return
	}
	image, err := web.FormImage(c, fieldImage)
	if err != nil {
		h.render.Fail(c, err, editURL, "/projects")
		return
	}

	if _, err := h.svc.Update(c.Request.Context(), id, patch, image); err != nil {
		h.render.Fail(c, err, editURL, "/projects")
		return
	}
	h.render.RedirectWith(c, fmt.Sprintf("/project/%d", id), web.FlashSuccess, "Project updated successfully.")
}

func (h *Handler) delete(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		h.render.Fail(c, err, "/projects", "/projects")
		return
	}

	deleted, err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		h.render.Fail(c, err, "/projects", "/projects")
		return
	}
	h.render.RedirectWith(c, "/projects", web.FlashSuccess, fmt.Sprintf("Project %q deleted.", deleted.Name))
}

func (h *Handler) adminPage(c *gin.Context) {
	ctx := c.Request.Context()
	log := logging.FromContext(ctx)

	projects, err := h.svc.List(ctx, domain.Filter{Order: domain.NewestFirst, Limit: adminProjectLimit})
	if err != nil {
		log.Error("failed to list projects", zap.Error(err))
		h.render.Flash(c, web.FlashDanger, "Projects could not be loaded. Please try again.")
	}

	counts, err := h.reports.UnresolvedCounts(ctx)
	if err != nil {
		log.Error("failed to count unresolved reports", zap.Error(err))
	}

	unresolved, err := h.reports.ListUnresolved(ctx)
	if err != nil {
		log.Error("failed to list unresolved reports", zap.Error(err))
	}

	cards := make([]ProjectCard, 0, len(projects))
	for _, p := range projects {
		cards = append(cards, card(p, counts[p.ID]))
	}

	h.render.HTML(c, http.StatusOK, "admin.html", gin.H{
		"Title":      "Admin",
		"Projects":   cards,
		"Unresolved": unresolved,
		"Statuses":   domain.Statuses,
		"Regions":    domain.Regions,
		"Sectors":    domain.Sectors,
	})
}

func (h *Handler) adminAction(c *gin.Context) {
	action := c.DefaultPostForm("action", "add_project")
	if action != "add_project" {
		h.render.RedirectWith(c, "/admin", web.FlashWarning, "Unknown admin action.")
		return
	}

	p, err := projectFromForm(c)
	if err != nil {
		h.render.Fail(c, err, "/admin", "/admin")
		return
	}
	image, err := web.FormImage(c, fieldImage)
	if err != nil {
		h.render.Fail(c, err, "/admin", "/admin")
		return
	}

	if err := h.svc.Create(c.Request.Context(), p, image); err != nil {
		h.render.Fail(c, err, "/admin", "/admin")
		return
	}
	h.render.RedirectWith(c, "/admin", web.FlashSuccess, fmt.Sprintf("Project %q added.", p.Name))
}
