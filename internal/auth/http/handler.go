package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/internal/apperrors"
	"github.com/efren319/GovFunds/internal/auth"
	"github.com/efren319/GovFunds/internal/auth/domain"
	"github.com/efren319/GovFunds/internal/logging"
	"github.com/efren319/GovFunds/internal/web"
)

// Handler serves the login and logout pages.
type Handler struct {
	creds    *auth.Credentials
	firebase *auth.FirebaseLogin
	store    auth.SessionStore
	render   *web.Renderer
}

// New creates the auth handler. firebase may be nil when Firebase login is off.
func New(creds *auth.Credentials, firebase *auth.FirebaseLogin, store auth.SessionStore, render *web.Renderer) *Handler {
	return &Handler{creds: creds, firebase: firebase, store: store, render: render}
}

func (h *Handler) Register(rg *gin.RouterGroup, limit gin.HandlerFunc) {
	rg.GET("/login", h.loginPage)
	rg.POST("/login", limit, h.login)
	rg.POST("/login/firebase", limit, h.loginFirebase)
	rg.GET("/logout", h.logout)
}

func (h *Handler) loginPage(c *gin.Context) {
	if _, ok := auth.IdentityFromContext(c.Request.Context()); ok {
		h.render.Redirect(c, "/admin")
		return
	}
	h.render.HTML(c, http.StatusOK, "login.html", gin.H{"Title": "Admin Login"})
}

func (h *Handler) login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	err := h.creds.Check(c.Request.Context(), username, c.PostForm("password"))
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			logging.FromContext(c.Request.Context()).Info("login rejected", zap.String("username", username))
			h.render.RedirectWith(c, "/login", web.FlashDanger, "Invalid username or password.")
			return
		}
		h.render.Fail(c, err, "/login", "/login")
		return
	}

	if err := h.startSession(c, username, domain.MethodPassword); err != nil {
		h.render.Fail(c, err, "/login", "/login")
		return
	}
	h.render.RedirectWith(c, "/admin", web.FlashSuccess, "Welcome back, "+username+".")
}

type firebaseLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

func (h *Handler) loginFirebase(c *gin.Context) {
	if h.firebase == nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "firebase login is not enabled"})
		return
	}

	var req firebaseLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "id_token is required"})
		return
	}

	email, err := h.firebase.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		logging.FromContext(c.Request.Context()).Info("firebase login rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
		return
	}

	if err := h.startSession(c, email, domain.MethodFirebase); err != nil {
		logging.FromContext(c.Request.Context()).Error("failed to start session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
		return
	}
	h.render.Flash(c, web.FlashSuccess, "Welcome back, "+email+".")
	c.JSON(http.StatusOK, gin.H{"ok": true, "redirect": "/admin"})
}

func (h *Handler) startSession(c *gin.Context, username string, method domain.Method) error {
	id, _, err := h.store.Create(c.Request.Context(), username, method)
	if err != nil {
		return err
	}
	h.render.Sessions.SetSessionID(c, id)
	logging.FromContext(c.Request.Context()).Info("admin signed in",
		zap.String("username", username),
		zap.String("method", string(method)),
	)
	return nil
}

func (h *Handler) logout(c *gin.Context) {
	if id := h.render.Sessions.SessionID(c); id != "" {
		if err := h.store.Delete(c.Request.Context(), id); err != nil {
			logging.FromContext(c.Request.Context()).Warn("failed to delete session", zap.Error(err))
		}
	}
	h.render.Sessions.ClearSessionID(c)
	h.render.RedirectWith(c, "/", web.FlashInfo, "You have been logged out.")
}
