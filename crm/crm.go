// Package crm provides a multi-tenant dealership CRM backend as a mountable
// library.
//
// Setup:
//
//  1. Run migrations from migrations/ folder using your preferred tool
//  2. Create a CRM instance and mount its router
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/dealer_crm?sslmode=disable")
//
//	app, err := crm.New(crm.Config{
//	    DB:        db,
//	    JWTSecret: "your-secret-key-at-least-32-chars",
//	})
//	if err != nil {
//	    log.Fatal(err) // Will fail if migrations haven't been run
//	}
//
//	http.ListenAndServe(":8080", app.Router())
package crm

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/dealer-crm/internal/config"
	"github.com/tendant/dealer-crm/internal/http/features/companies"
	"github.com/tendant/dealer-crm/internal/http/features/inbound"
	"github.com/tendant/dealer-crm/internal/http/features/inventory"
	"github.com/tendant/dealer-crm/internal/http/features/leads"
	"github.com/tendant/dealer-crm/internal/http/features/password"
	"github.com/tendant/dealer-crm/internal/http/features/session"
	"github.com/tendant/dealer-crm/internal/http/middleware"
	"github.com/tendant/dealer-crm/internal/httputil"
	"github.com/tendant/dealer-crm/pkg/auth"
	companysvc "github.com/tendant/dealer-crm/pkg/company"
	"github.com/tendant/dealer-crm/pkg/guard"
	inventorysvc "github.com/tendant/dealer-crm/pkg/inventory"
	leadsvc "github.com/tendant/dealer-crm/pkg/leads"
	"github.com/tendant/dealer-crm/pkg/repository"
)

// Config holds the configuration for the CRM library.
type Config struct {
	// DB is the database connection (required).
	DB *sql.DB

	// JWTSecret is the secret key for signing JWT tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the issuer claim in JWT tokens (default: "dealer-crm").
	JWTIssuer string

	// AccessTokenTTL is the lifetime of access tokens (default: 15 minutes).
	AccessTokenTTL time.Duration

	// RefreshTokenTTL is the lifetime of refresh tokens (default: 7 days).
	RefreshTokenTTL time.Duration

	// InboundLeadsToken is the shared secret of the inbound lead webhook.
	// Empty disables the endpoint.
	InboundLeadsToken string

	// RateLimit configures per-endpoint-class rate limiting.
	RateLimit config.RateLimitConfig

	// SecurityHeaders configures the response security headers.
	SecurityHeaders config.SecurityHeadersConfig

	// MaxRequestBodySize caps request bodies in bytes (default: 1 MiB).
	MaxRequestBodySize int64

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// CRM is the main application instance.
type CRM struct {
	config           Config
	db               *sql.DB
	usersRepo        *repository.UsersRepository
	sessionsRepo     *repository.SessionsRepository
	companiesRepo    *repository.CompaniesRepository
	membershipsRepo  *repository.MembershipsRepository
	vehiclesRepo     *repository.VehiclesRepository
	leadsRepo        *repository.LeadsRepository
	activitiesRepo   *repository.ActivitiesRepository
	passwordService  *auth.PasswordService
	sessionService   *auth.SessionService
	companyService   *companysvc.Service
	inventoryService *inventorysvc.Service
	leadsService     *leadsvc.Service
	ingester         *leadsvc.Ingester
}

// New creates a new CRM instance with the given configuration.
// Returns an error if required database tables don't exist.
// Run migrations first - see migrations/ folder for SQL files.
func New(cfg Config) (*CRM, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	// Validate schema exists
	if err := validateSchema(cfg.DB); err != nil {
		return nil, err
	}

	// Initialize repositories
	usersRepo := repository.NewUsersRepository(cfg.DB)
	sessionsRepo := repository.NewSessionsRepository(cfg.DB)
	companiesRepo := repository.NewCompaniesRepository(cfg.DB)
	membershipsRepo := repository.NewMembershipsRepository(cfg.DB)
	vehiclesRepo := repository.NewVehiclesRepository(cfg.DB)
	leadsRepo := repository.NewLeadsRepository(cfg.DB)
	activitiesRepo := repository.NewActivitiesRepository(cfg.DB)

	// Initialize services
	passwordService := auth.NewPasswordService(usersRepo)
	sessionService := auth.NewSessionService(auth.SessionConfig{
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		JWTSecret:       []byte(cfg.JWTSecret),
		Issuer:          cfg.JWTIssuer,
	}, sessionsRepo, usersRepo)

	companyService := companysvc.NewService(companiesRepo, membershipsRepo)
	companyGuard := guard.New(companiesRepo)
	inventoryService := inventorysvc.NewService(vehiclesRepo, companyGuard)
	leadsService := leadsvc.NewService(leadsRepo, activitiesRepo, vehiclesRepo, companyGuard)
	ingester := leadsvc.NewIngester(leadsService, companiesRepo, vehiclesRepo)

	return &CRM{
		config:           cfg,
		db:               cfg.DB,
		usersRepo:        usersRepo,
		sessionsRepo:     sessionsRepo,
		companiesRepo:    companiesRepo,
		membershipsRepo:  membershipsRepo,
		vehiclesRepo:     vehiclesRepo,
		leadsRepo:        leadsRepo,
		activitiesRepo:   activitiesRepo,
		passwordService:  passwordService,
		sessionService:   sessionService,
		companyService:   companyService,
		inventoryService: inventoryService,
		leadsService:     leadsService,
		ingester:         ingester,
	}, nil
}

// Router returns a chi router with every route wired.
//
// Routes:
//
//	POST /v1/auth/register                        - Register with email/password
//	POST /v1/auth/login                           - Login with email/password
//	POST /v1/auth/refresh                         - Refresh access token
//	POST /v1/auth/logout                          - Logout (revoke session)
//	POST /v1/auth/logout/all                      - Logout all sessions (protected)
//	POST /v1/companies                            - Register a company (protected)
//	GET  /v1/companies/status                     - Current company status (protected)
//	POST /v1/vehicles, GET /v1/vehicles, ...      - Inventory (protected)
//	POST /v1/leads, GET /v1/leads, ...            - Lead pipeline (protected)
//	POST /v1/inbound/leads                        - Inbound lead webhook (token)
//	GET  /v1/admin/companies, .../approve, ...    - Company approvals (staff)
//	POST /v1/admin/leads/bulk-stage               - Bulk stage change (staff)
//	GET  /health                                  - Health check
func (c *CRM) Router() chi.Router {
	logger := c.config.Logger
	r := chi.NewRouter()

	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.SecurityHeaders(c.config.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(c.config.MaxRequestBodySize))

	limiters := middleware.CreateRateLimiters(c.config.RateLimit, logger)

	r.Get("/health", c.HealthHandler())

	// Public auth routes, rate limited per IP
	passwordHandler := password.NewHandler(logger, c.passwordService, c.sessionService)
	sessionHandler := session.NewHandler(c.sessionService)
	r.Group(func(r chi.Router) {
		r.Use(limiters["auth"])
		passwordHandler.RegisterRoutes(r)
		r.Post("/v1/auth/refresh", sessionHandler.Refresh)
		r.Post("/v1/auth/logout", sessionHandler.Logout)
	})

	// Inbound webhook, shared-secret auth
	inboundHandler := inbound.NewHandler(logger, c.ingester, c.config.InboundLeadsToken)
	r.Group(func(r chi.Router) {
		r.Use(limiters["inbound"])
		inboundHandler.RegisterRoutes(r)
	})

	companiesHandler := companies.NewHandler(logger, c.companyService, c.usersRepo)
	inventoryHandler := inventory.NewHandler(logger, c.inventoryService, c.companyService)
	leadsHandler := leads.NewHandler(logger, c.leadsService, c.companyService, c.usersRepo)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(c.sessionService))

		r.Post("/v1/auth/logout/all", sessionHandler.LogoutAll)
		companiesHandler.RegisterRoutes(r)
		inventoryHandler.RegisterRoutes(r)
		leadsHandler.RegisterRoutes(r)
	})

	// Staff routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(c.sessionService))
		r.Use(middleware.RequireStaff())

		companiesHandler.RegisterAdminRoutes(r)
		leadsHandler.RegisterAdminRoutes(r)
	})

	return r
}

// SessionService returns the session service for advanced usage.
func (c *CRM) SessionService() *auth.SessionService {
	return c.sessionService
}

// AuthMiddleware returns middleware that validates JWT tokens.
// Use this to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(app.AuthMiddleware())
//	    r.Get("/protected", handler)
//	})
func (c *CRM) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(c.sessionService)
}

// HealthHandler returns a simple health check handler.
func (c *CRM) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Handler returns an http.Handler for mounting with http.StripPrefix.
func (c *CRM) Handler() http.Handler {
	return c.Router()
}

func validateConfig(cfg *Config) error {
	if cfg.DB == nil {
		return errors.New("crm: DB is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("crm: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("crm: JWTSecret must be at least 32 characters")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "dealer-crm"
	}
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL == 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.MaxRequestBodySize == 0 {
		cfg.MaxRequestBodySize = 1 << 20
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}

// validateSchema checks that required database tables exist.
func validateSchema(db *sql.DB) error {
	requiredTables := []string{"users", "sessions", "companies", "memberships", "vehicles", "leads", "activities"}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	`

	for _, table := range requiredTables {
		var name string
		err := db.QueryRow(query, table).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("crm: missing table '%s' - run migrations first (see migrations/ folder)", table)
		}
		if err != nil {
			return fmt.Errorf("crm: failed to check schema: %w", err)
		}
	}

	return nil
}
