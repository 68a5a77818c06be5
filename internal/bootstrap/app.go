package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/efren319/GovFunds/config"
	"github.com/efren319/GovFunds/internal/api/http/middleware"
	"github.com/efren319/GovFunds/internal/auth"
	"github.com/efren319/GovFunds/internal/dataio"
	"github.com/efren319/GovFunds/internal/metrics"
	"github.com/efren319/GovFunds/internal/store"
	"github.com/efren319/GovFunds/internal/uploads"
	"github.com/efren319/GovFunds/internal/web"
)

const serviceName = "govfunds"

// App is the assembled server: router plus the resources it must release.
type App struct {
	Router    *gin.Engine
	DB        *store.DB
	Redis     *redis.Client
	Scheduler *dataio.Scheduler

	log *zap.Logger
}

// OpenStore connects to the configured database and brings its schema up to date.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store.DB, error) {
	db, err := store.Open(ctx, &cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// NewApp wires every dependency named in cfg. The caller owns Close.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	SetGinMode(cfg.App.Environment)

	db, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app := &App{DB: db, log: log}

	if cfg.Data.SeedOnStart {
		seeded, err := dataio.NewService(db).SeedIfEmpty(ctx)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
		if seeded {
			log.Info("seeded empty store from fixture")
		}
	}

	app.Redis, err = OpenRedis(ctx, RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	var sessionStore auth.SessionStore
	if app.Redis != nil {
		sessionStore = auth.NewRedisSessionStore(app.Redis, cfg.Auth.SessionTTL)
		log.Info("sessions stored in redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		sessionStore = auth.NewMemorySessionStore(cfg.Auth.SessionTTL)
		log.Info("sessions stored in memory")
	}

	creds, err := auth.NewCredentials(cfg.Auth.Credentials)
	if err != nil {
		app.Close()
		return nil, err
	}
	if creds.Len() == 0 {
		log.Warn("no admin credentials configured; password login is disabled")
	}

	var firebaseLogin *auth.FirebaseLogin
	if cfg.Auth.FirebaseCredentialsPath != "" {
		client, err := auth.InitializeFirebase(ctx, cfg.Auth.FirebaseCredentialsPath)
		if err != nil {
			app.Close()
			return nil, err
		}
		firebaseLogin = auth.NewFirebaseLogin(client, cfg.Auth.FirebaseAdminEmails)
		log.Info("firebase login enabled", zap.Int("admins", len(cfg.Auth.FirebaseAdminEmails)))
	}

	backend, localDir, err := uploadBackend(ctx, &cfg.Uploads)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Router, err = BuildRouter(RouterDeps{
		ServiceName:     serviceName,
		Version:         cfg.App.Version,
		CORSOrigins:     cfg.Server.CORSOrigins,
		Log:             log,
		Metrics:         metrics.New(),
		DB:              db,
		Redis:           app.Redis,
		Sessions:        web.NewSessions(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, cfg.Auth.SecureCookie),
		SessionStore:    sessionStore,
		Credentials:     creds,
		Firebase:        firebaseLogin,
		Limiter:         middleware.NewIPRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
		Uploads:         uploads.NewManager(backend, log),
		UploadDir:       localDir,
		UploadURLPrefix: cfg.Uploads.URLPrefix,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	if cfg.Data.ExportSchedule != "" {
		app.Scheduler, err = dataio.NewScheduler(dataio.NewService(db), cfg.Data.Dir, cfg.Data.ExportSchedule, log)
		if err != nil {
			app.Close()
			return nil, err
		}
	}

	return app, nil
}

// uploadBackend picks S3 when a bucket is configured, otherwise the local
// directory, which is also returned so the router can serve it.
func uploadBackend(ctx context.Context, cfg *config.UploadsConfig) (uploads.Backend, string, error) {
	if cfg.S3Bucket != "" {
		b, err := uploads.NewS3Backend(ctx, uploads.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, "", fmt.Errorf("s3 uploads: %w", err)
		}
		return b, "", nil
	}

	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, "", fmt.Errorf("upload dir: %w", err)
	}
	return uploads.NewLocalBackend(dir, cfg.URLPrefix), dir, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.log.Warn("redis close failed", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.log.Warn("db close failed", zap.Error(err))
		}
	}
}
