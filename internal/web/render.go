// Package web holds the HTML shell shared by every page handler: templates,
// flash notices, redirects and the mapping from errors to notices.
package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/apperrors"
	"github.com/efren319/GovFunds/internal/logging"
)

// CtxUsername is the gin context key holding the signed-in admin's name.
const CtxUsername = "admin_user"

// Renderer renders pages and redirects with notices.
type Renderer struct {
	Sessions *Sessions
}

func NewRenderer(sessions *Sessions) *Renderer {
	return &Renderer{Sessions: sessions}
}

// HTML renders the named page, adding pending flashes and the signed-in user.
func (r *Renderer) HTML(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Flashes"] = r.Sessions.Flashes(c)
	data["AdminUser"] = c.GetString(CtxUsername)
	data["Path"] = c.Request.URL.Path
	c.HTML(status, name, data)
}

// Redirect answers a POST with 303 See Other and anything else with 302.
func (r *Renderer) Redirect(c *gin.Context, location string) {
	code := http.StatusFound
	if c.Request.Method == http.MethodPost {
		code = http.StatusSeeOther
	}
	c.Redirect(code, location)
}

// Flash queues a notice for the next page.
func (r *Renderer) Flash(c *gin.Context, category, message string) {
	r.Sessions.AddFlash(c, category, message)
}

// RedirectWith queues a notice and redirects.
func (r *Renderer) RedirectWith(c *gin.Context, location, category, message string) {
	r.Flash(c, category, message)
	r.Redirect(c, location)
}

// Fail turns err into a redirect with a notice. Validation errors go back to
// formURL, missing records to listURL, anything unexpected back to formURL
// with a generic message. The raw error is logged, never shown.
func (r *Renderer) Fail(c *gin.Context, err error, formURL, listURL string) {
	log := logging.FromContext(c.Request.Context())

	if ve, ok := apperrors.IsValidation(err); ok {
		log.Info("validation failed", zap.String("field", ve.Field), zap.String("reason", ve.Message))
		r.RedirectWith(c, formURL, FlashDanger, ValidationMessage(ve))
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		log.Info("record not found", zap.Error(err))
		r.RedirectWith(c, listURL, FlashWarning, "The requested record was not found.")
	case errors.Is(err, apperrors.ErrUnauthorized):
		r.RedirectWith(c, "/login", FlashWarning, "Please log in to access the admin panel.")
	case errors.Is(err, apperrors.ErrConflict):
		log.Warn("conflicting write", zap.Error(err))
		r.RedirectWith(c, formURL, FlashDanger, "That record conflicts with existing data.")
	default:
		log.Error("request failed", zap.Error(err))
		r.RedirectWith(c, formURL, FlashDanger, "Something went wrong. Please try again.")
	}
}

var fieldLabels = map[string]string{
	"project_name":     "Project name",
	"allocated_budget": "Allocated budget",
	"budget_spent":     "Budget spent",
	"project_status":   "Status",
	"start_date":       "Start date",
	"end_date":         "End date",
	"project_id":       "Project",
	"report_subject":   "Subject",
	"report_message":   "Message",
	"report_type":      "Report type",
	"message":          "Message",
	"email":            "Email",
	"image":            "Image",
	"username":         "Username",
	"password":         "Password",
}

// ValidationMessage phrases ve for display.
func ValidationMessage(ve *apperrors.ValidationError) string {
	label, ok := fieldLabels[ve.Field]
	if !ok {
		label = ve.Field
	}
	if label == "" {
		return ve.Message + "."
	}
	return label + " " + ve.Message + "."
}
