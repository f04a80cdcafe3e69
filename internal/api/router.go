package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	iauth "github.com/girishiitm/synergysphere/internal/auth"
	"github.com/girishiitm/synergysphere/internal/cache"
	"github.com/girishiitm/synergysphere/internal/handlers"
	"github.com/girishiitm/synergysphere/internal/middleware"
	"github.com/girishiitm/synergysphere/internal/monitoring"
	"github.com/girishiitm/synergysphere/internal/monitoring/checks"
	"github.com/girishiitm/synergysphere/internal/routecache"
	"github.com/girishiitm/synergysphere/internal/services"
	"github.com/girishiitm/synergysphere/pkg/mail"
)

// Options bundles everything the router needs beyond its hard dependencies.
type Options struct {
	Mailer    mail.Mailer
	RateStore middleware.RateStore

	// CacheTTLRules overrides the default per-route cache lifetimes.
	CacheTTLRules []routecache.TTLRule

	// MetricsEndpoint overrides where the Prometheus handler is mounted.
	// Defaults to /metrics; DisableMetrics removes it entirely.
	MetricsEndpoint string
	DisableMetrics  bool

	// DisableHealthProbes keeps /health but skips dependency checks.
	DisableHealthProbes bool
}

// NewRouter builds the Gin engine: middleware stack, service graph, and all
// route registrations. The kv store may be nil. Response caching and token
// revocation then switch off silently while OTP issuance runs on a
// process-local store.
func NewRouter(db *gorm.DB, kv cache.Store, jwt *iauth.JWTService, opts Options) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}

	client := cache.NewClient(kv)
	tags := routecache.NewTagRegistry(client)

	managerOpts := []routecache.ManagerOption{}
	if len(opts.CacheTTLRules) > 0 {
		// Overrides are consulted before the stock rules.
		rules := append(append([]routecache.TTLRule{}, opts.CacheTTLRules...), routecache.DefaultTTLRules()...)
		managerOpts = append(managerOpts, routecache.WithTTLTable(routecache.NewTTLTable(rules, 0)))
	}
	manager := routecache.NewManager(client, tags, managerOpts...)
	revocations := iauth.NewRevocationRegistry(client)

	// Service graph
	notificationSvc, err := services.NewNotificationService(db)
	if err != nil {
		return nil, err
	}
	userSvc, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	projectSvc, err := services.NewProjectService(db, notificationSvc)
	if err != nil {
		return nil, err
	}
	taskSvc, err := services.NewTaskService(db, projectSvc, notificationSvc)
	if err != nil {
		return nil, err
	}
	messageSvc, err := services.NewMessageService(db, projectSvc)
	if err != nil {
		return nil, err
	}
	dashboardSvc, err := services.NewDashboardService(db)
	if err != nil {
		return nil, err
	}

	var verificationSvc *services.VerificationService
	var resetSvc *services.PasswordResetService
	if kv != nil {
		if verificationSvc, err = services.NewVerificationService(kv, opts.Mailer); err != nil {
			return nil, err
		}
		if resetSvc, err = services.NewPasswordResetService(kv, opts.Mailer); err != nil {
			return nil, err
		}
	} else {
		// Last resort when no store at all is supplied: codes and reset
		// tokens live only as long as the process.
		memory := cache.NewMemoryStore()
		if verificationSvc, err = services.NewVerificationService(memory, opts.Mailer); err != nil {
			return nil, err
		}
		if resetSvc, err = services.NewPasswordResetService(memory, opts.Mailer); err != nil {
			return nil, err
		}
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(opts.RateStore, 300, time.Minute))

	r.NoRoute(middleware.NotFoundHandler)

	if !opts.DisableMetrics {
		endpoint := opts.MetricsEndpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	var health *monitoring.HealthManager
	if !opts.DisableHealthProbes {
		health = monitoring.NewHealthManager()
		health.Register(checks.Database(db, 0))
		health.Register(checks.KVStore(kv, 0))
	}
	registerHealthRoutes(r, manager, health)

	requireAuth := middleware.Auth(jwt, revocations)
	serveCached := middleware.CacheRoute(manager)

	authHandler := handlers.NewAuthHandler(userSvc, verificationSvc, resetSvc, notificationSvc, jwt, revocations)
	registerAuthRoutes(r, authHandler, requireAuth, opts.RateStore)

	api := r.Group("/api")
	api.Use(requireAuth, serveCached)

	registerDashboardRoutes(api, handlers.NewDashboardHandler(dashboardSvc))
	registerProjectRoutes(api, handlers.NewProjectHandler(projectSvc), tags)
	registerTaskRoutes(api, handlers.NewTaskHandler(taskSvc), tags)
	registerMessageRoutes(api, handlers.NewMessageHandler(messageSvc), tags)
	registerNotificationRoutes(api, handlers.NewNotificationHandler(notificationSvc), tags)
	registerProfileRoutes(api, handlers.NewProfileHandler(userSvc), tags)
	registerUserRoutes(api, handlers.NewUserHandler(userSvc))
	registerCacheRoutes(api, handlers.NewCacheAdminHandler(manager))

	return r, nil
}
