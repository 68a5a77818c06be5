package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/efren319/GovFunds/internal/api/http"
	"github.com/efren319/GovFunds/internal/api/http/middleware"
	"github.com/efren319/GovFunds/internal/auth"
	authhttp "github.com/efren319/GovFunds/internal/auth/http"
	budgethttp "github.com/efren319/GovFunds/internal/budget/http"
	budgetrepo "github.com/efren319/GovFunds/internal/budget/repository"
	budgetsvc "github.com/efren319/GovFunds/internal/budget/service"
	"github.com/efren319/GovFunds/internal/logging"
	"github.com/efren319/GovFunds/internal/metrics"
	projectshttp "github.com/efren319/GovFunds/internal/projects/http"
	projectsrepo "github.com/efren319/GovFunds/internal/projects/repository"
	projectssvc "github.com/efren319/GovFunds/internal/projects/service"
	reportshttp "github.com/efren319/GovFunds/internal/reports/http"
	reportsrepo "github.com/efren319/GovFunds/internal/reports/repository"
	reportssvc "github.com/efren319/GovFunds/internal/reports/service"
	"github.com/efren319/GovFunds/internal/store"
	"github.com/efren319/GovFunds/internal/uploads"
	"github.com/efren319/GovFunds/internal/web"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string

	Log     *zap.Logger
	Metrics *metrics.Metrics
	DB      *store.DB
	Redis   *redis.Client

	Sessions     *web.Sessions
	SessionStore auth.SessionStore
	Credentials  *auth.Credentials
	Firebase     *auth.FirebaseLogin
	Limiter      *middleware.IPRateLimiter

	Uploads *uploads.Manager
	// UploadDir is served under UploadURLPrefix; empty when images live in S3.
	UploadDir       string
	UploadURLPrefix string
}

func BuildRouter(dep RouterDeps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(dep.Log))
	r.Use(dep.Metrics.Middleware())

	tmpl, err := web.LoadTemplates(dep.Uploads.URL)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.StaticFS("/static", http.FS(web.Static()))
	if dep.UploadDir != "" {
		r.Static(dep.UploadURLPrefix, dep.UploadDir)
	}
	r.GET("/metrics", gin.WrapH(dep.Metrics.Handler()))

	var redisPinger httpapi.Pinger
	if dep.Redis != nil {
		redisPinger = httpapi.PingFunc(func(ctx context.Context) error { return dep.Redis.Ping(ctx).Err() })
	}
	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, redisPinger)
	healthHandler.RegisterRoutes(r)

	render := web.NewRenderer(dep.Sessions)

	projectRepo := projectsrepo.NewProjectRepository(dep.DB)
	reportRepo := reportsrepo.NewReportRepository(dep.DB)
	budgetRepo := budgetrepo.NewBudgetRepository(dep.DB)

	projectSvc := projectssvc.NewProjectService(projectRepo, dep.Uploads)
	intakeSvc := reportssvc.NewIntakeService(reportRepo, dep.Uploads, dep.Metrics)
	aggregation := budgetsvc.NewAggregationService(budgetRepo, dep.Metrics)

	site := r.Group("/")
	site.Use(auth.LoadIdentity(dep.Sessions, dep.SessionStore))

	admin := site.Group("/")
	admin.Use(auth.RequireAdmin(render))

	api := site.Group("/api")
	api.Use(corsMiddleware(dep.CORSOrigins))

	adminAPI := site.Group("/api")
	adminAPI.Use(auth.RequireAdminJSON())

	limit := middleware.RateLimit(dep.Limiter, tooManyRequests(render), http.MethodPost)

	httpapi.NewPagesHandler(aggregation, intakeSvc, render).RegisterRoutes(site)
	budgethttp.New(aggregation, projectSvc, render).Register(site, api)
	projectshttp.New(projectSvc, intakeSvc, aggregation, render).Register(site, admin, adminAPI)
	reportshttp.New(intakeSvc, projectSvc, render).Register(site, admin, limit)
	authhttp.New(dep.Credentials, dep.Firebase, dep.SessionStore, render).Register(site, limit)

	return r, nil
}

// tooManyRequests sends a throttled form post back where it came from.
func tooManyRequests(render *web.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		logging.FromContext(c.Request.Context()).Warn("intake rate limit exceeded", zap.String("ip", c.ClientIP()))
		render.RedirectWith(c, c.Request.URL.Path, web.FlashDanger, "Too many submissions. Please try again in a minute.")
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
