package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/apperrors"
	"github.com/efren319/GovFunds/internal/logging"
	projectsdomain "github.com/efren319/GovFunds/internal/projects/domain"
	"github.com/efren319/GovFunds/internal/reports/domain"
	"github.com/efren319/GovFunds/internal/reports/service"
	"github.com/efren319/GovFunds/internal/web"
)

const recentFeedbackOnForm = 10

// ProjectLister feeds the report form's project dropdown.
type ProjectLister interface {
	List(ctx context.Context, f projectsdomain.Filter) ([]projectsdomain.Project, error)
}

type Handler struct {
	svc      *service.IntakeService
	projects ProjectLister
	render   *web.Renderer
}

func New(svc *service.IntakeService, projects ProjectLister, render *web.Renderer) *Handler {
	return &Handler{svc: svc, projects: projects, render: render}
}

// Register mounts the public forms on pub and report resolution on admin.
// limit guards the public POST endpoints.
func (h *Handler) Register(pub, admin *gin.RouterGroup, limit gin.HandlerFunc) {
	pub.GET("/feedback", h.feedbackPage)
	pub.POST("/feedback", limit, h.submit)
	pub.GET("/contact", h.contactPage)
	pub.POST("/contact", limit, h.contact)

	admin.POST("/admin/resolve-report/:id", h.resolve)
}

func (h *Handler) feedbackPage(c *gin.Context) {
	ctx := c.Request.Context()
	log := logging.FromContext(ctx)

	projects, err := h.projects.List(ctx, projectsdomain.Filter{Order: projectsdomain.ByName})
	if err != nil {
		log.Error("failed to list projects for report form", zap.Error(err))
	}
	recent, err := h.svc.RecentFeedback(ctx, recentFeedbackOnForm)
	if err != nil {
		log.Error("failed to load recent feedback", zap.Error(err))
	}

	h.render.HTML(c, http.StatusOK, "feedback.html", gin.H{
		"Title":       "Feedback",
		"Projects":    projects,
		"Recent":      recent,
		"ReportTypes": domain.ReportTypes,
		"Selected":    c.Query("project_id"),
	})
}

func (h *Handler) submit(c *gin.Context) {
	if c.PostForm("feedback_type") == "report" {
		h.submitReport(c)
		return
	}

	_, err := h.svc.SubmitFeedback(c.Request.Context(),
		c.PostForm("name"), c.PostForm("email"), c.PostForm("message"))
	if err != nil {
		h.render.Fail(c, err, "/feedback", "/feedback")
		return
	}
	h.render.RedirectWith(c, "/feedback", web.FlashSuccess, "Thank you, your feedback has been submitted.")
}

func (h *Handler) submitReport(c *gin.Context) {
	in := service.ReportInput{
		ReporterName:  c.PostForm("reporter_name"),
		ReporterEmail: c.PostForm("reporter_email"),
		Subject:       c.PostForm("report_subject"),
		Message:       c.PostForm("report_message"),
		Type:          c.PostForm("report_type"),
	}
	if raw := strings.TrimSpace(c.PostForm("project_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.render.Fail(c, apperrors.Invalid("project_id", "is not a valid project"), "/feedback", "/feedback")
			return
		}
		in.ProjectID = id
	}

	image, err := web.FormImage(c, "report_image")
	if err != nil {
		h.render.Fail(c, err, "/feedback", "/feedback")
		return
	}

	rep, err := h.svc.SubmitReport(c.Request.Context(), in, image)
	if err != nil {
		h.render.Fail(c, err, "/feedback", "/feedback")
		return
	}
	h.render.RedirectWith(c, fmt.Sprintf("/project/%d", rep.ProjectID), web.FlashSuccess,
		"Thank you, your project report has been submitted.")
}

func (h *Handler) contactPage(c *gin.Context) {
	h.render.HTML(c, http.StatusOK, "contact.html", gin.H{"Title": "Contact"})
}

func (h *Handler) contact(c *gin.Context) {
	err := h.svc.SubmitContact(c.Request.Context(), service.ContactMessage{
		Name:    c.PostForm("name"),
		Email:   c.PostForm("email"),
		Subject: c.PostForm("subject"),
		Message: c.PostForm("message"),
	})
	if err != nil {
		h.render.Fail(c, err, "/contact", "/contact")
		return
	}
	h.render.RedirectWith(c, "/contact", web.FlashSuccess, "Thank you for contacting us. We will get back to you soon.")
}

func (h *Handler) resolve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.render.Fail(c, apperrors.NotFoundf("report %q", c.Param("id")), "/admin", "/admin")
		return
	}

	if _, err := h.svc.Resolve(c.Request.Context(), id); err != nil {
		h.render.Fail(c, err, "/admin", "/admin")
		return
	}
	h.render.RedirectWith(c, "/admin", web.FlashSuccess, "Report marked as resolved.")
}
