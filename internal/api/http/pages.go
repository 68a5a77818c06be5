package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	budgetdomain "github.com/efren319/GovFunds/internal/budget/domain"
	"github.com/efren319/GovFunds/internal/logging"
	reportsdomain "github.com/efren319/GovFunds/internal/reports/domain"
	"github.com/efren319/GovFunds/internal/web"
)

const homeFeedbackLimit = 20

type TotalsSource interface {
	Totals(ctx context.Context) budgetdomain.Totals
}

type FeedbackSource interface {
	RecentFeedback(ctx context.Context, limit int) ([]reportsdomain.Feedback, error)
}

// PagesHandler serves the static-content pages and the home dashboard.
type PagesHandler struct {
	totals   TotalsSource
	feedback FeedbackSource
	render   *web.Renderer
}

func NewPagesHandler(totals TotalsSource, feedback FeedbackSource, render *web.Renderer) *PagesHandler {
	return &PagesHandler{totals: totals, feedback: feedback, render: render}
}

func (h *PagesHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.home)
	r.GET("/about", h.about)
}

func (h *PagesHandler) home(c *gin.Context) {
	ctx := c.Request.Context()

	recent, err := h.feedback.RecentFeedback(ctx, homeFeedbackLimit)
	if err != nil {
		logging.FromContext(ctx).Error("failed to load recent feedback", zap.Error(err))
		recent = nil
	}

	h.render.HTML(c, http.StatusOK, "home.html", gin.H{
		"Title":    "Home",
		"Totals":   h.totals.Totals(ctx),
		"Feedback": recent,
	})
}

func (h *PagesHandler) about(c *gin.Context) {
	h.render.HTML(c, http.StatusOK, "about.html", gin.H{"Title": "About"})
}
