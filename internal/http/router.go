// Package httpapi wires the Gin engine to the Pill Mate services, the
// middleware stack and the route handlers.
//
// Global middleware runs on every request (tracing, correlation ids,
// logging, recovery, body cap, metrics, compression, CORS, security
// headers). The API group adds the Home Assistant ingress identity, the
// JSON content-type check, idempotency detection and rate limiting, and
// every route except POST /user requires a registered user.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/pill-mate/docs"
	"github.com/tbourn/pill-mate/internal/config"
	"github.com/tbourn/pill-mate/internal/domain"
	"github.com/tbourn/pill-mate/internal/http/handlers"
	"github.com/tbourn/pill-mate/internal/http/middleware"
	"github.com/tbourn/pill-mate/internal/repo"
	"github.com/tbourn/pill-mate/internal/services"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Deps are the long-lived collaborators built by main. The reminder store
// is shared with the scheduler so that writes re-arm timers.
type Deps struct {
	DB          *gorm.DB
	Reminders   *repo.ReminderStore
	Idempotency *repo.IdempotencyStore
	Devices     handlers.DeviceLister
	Location    *time.Location
}

// RegisterRoutes attaches the middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID, then the redacting and scoped loggers
//  3. Recovery (after the loggers so panics carry the request id)
//  4. Body size limit, Metrics, gzip
//  5. CORS and security headers
//
// API group: HomeAssistantHeaders, ApplicationJSON, IdempotencyValidator
// (before the rate limiter so replays bypass it), rate limiter.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.Use(cors.New(corsConfig(cfg.CORS)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "Route not found.")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "Method not allowed.")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Services
	users := services.NewUserService(deps.DB, services.GormUserRepo{})
	meds := services.NewMedicationService(deps.DB, services.GormMedicationRepo{}, users, deps.Reminders)
	reminders := services.NewReminderService(deps.DB, deps.Reminders, services.GormMedicationRepo{}, users, deps.Location)

	hd := handlers.Deps{
		Users:       users,
		Medications: meds,
		Reminders:   reminders,
		Devices:     deps.Devices,
		MedicationStats: func(ctx context.Context, userID uint) (int64, *time.Time, error) {
			return repo.MedicationsStats(ctx, deps.DB, userID)
		},
		ReminderStats: func(ctx context.Context, userID uint) (int64, *time.Time, error) {
			return repo.RemindersStats(ctx, deps.DB, userID)
		},
	}
	if deps.Idempotency != nil {
		hd.Idempotency = deps.Idempotency
	}
	h := handlers.New(hd)

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(
		middleware.HomeAssistantHeaders(),
		middleware.ApplicationJSON(),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, idempotencyLookup(users, deps.Idempotency)),
		rl.Handler(),
	)

	if cfg.StaticDir != "" {
		r.Static(joinPath(cfg.APIBasePath, "/static"), cfg.StaticDir)
	}

	// Registration is the only route open to unknown users.
	api.POST("/user", h.CreateUser)

	authed := api.Group("", middleware.RequireUser(userLookup(users)))
	{
		authed.GET("/user/me", h.Me)
		authed.PATCH("/user/me", h.UpdateMe)
		authed.GET("/user/helped", h.ListHelpedUsers)
		authed.POST("/user/helped", h.AddHelpedUser)
		authed.GET("/user/:id/reminders", h.UserReminders)

		authed.GET("/medication", h.ListMedications)
		authed.POST("/medication", h.CreateMedication)
		authed.GET("/medication/:id", h.GetMedication)
		authed.PATCH("/medication/:id", h.PatchMedication)
		authed.DELETE("/medication/:id", h.DeleteMedication)

		authed.GET("/reminder", h.ListReminders)
		authed.POST("/reminder", h.CreateReminder)
		authed.GET("/reminder/:id", h.GetReminder)
		authed.PATCH("/reminder/:id", h.PatchReminder)
		authed.DELETE("/reminder/:id", h.DeleteReminder)
		authed.GET("/reminder/:id/occurrences", h.ReminderOccurrences)

		authed.GET("/homeassistant/mobile-app-devices", h.MobileAppDevices)
	}
}

// userLookup adapts UserService.Lookup to middleware.RequireUser, which
// expects (nil, nil) for unknown users.
func userLookup(users *services.UserService) middleware.UserLookup {
	return func(ctx context.Context, haID string) (*domain.User, error) {
		u, err := users.Lookup(ctx, haID)
		if errors.Is(err, services.ErrUserNotRegistered) {
			return nil, nil
		}
		return u, err
	}
}

// idempotencyLookup resolves the ingress user before consulting the store.
// Unregistered callers never have stored keys.
func idempotencyLookup(users *services.UserService, store *repo.IdempotencyStore) middleware.IdempotencyLookup {
	if store == nil {
		return nil
	}
	return func(ctx context.Context, haID, scope, key string) (uint, bool, error) {
		u, err := users.Lookup(ctx, haID)
		if errors.Is(err, services.ErrUserNotRegistered) {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		return store.Lookup(ctx, u.ID, scope, key)
	}
}

// corsConfig allows every origin when none are configured. Credentials stay
// off in that case.
func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "If-None-Match",
			middleware.HeaderRemoteUserID,
			middleware.HeaderRemoteUserName,
			middleware.HeaderRemoteUserDisplayName,
			middleware.HeaderIdempotencyKey,
		},
		ExposeHeaders: []string{"X-Request-ID", "ETag", "Retry-After", "Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cc
}

// limitBody caps the request body at maxBytes; reads past the cap fail
// with *http.MaxBytesError.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

func joinPath(base, p string) string {
	if base == "" || base == "/" {
		return p
	}
	return base + p
}
