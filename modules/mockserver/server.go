package mockserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/guarzo/recruitapi/common"
)

// Config controls the mock API.
type Config struct {
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

const (
	defaultJWTSecret  = "mockapi-dev-secret"
	defaultAdminEmail = "admin@recruit.local"
	defaultAdminPass  = "Admin1234"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// ConfigFromEnv reads the MOCKAPI_* variables, falling back to development defaults.
func ConfigFromEnv() Config {
	return Config{
		JWTSecret:     common.EnvOrDefault("MOCKAPI_JWT_SECRET", defaultJWTSecret),
		AdminEmail:    common.EnvOrDefault("MOCKAPI_ADMIN_EMAIL", defaultAdminEmail),
		AdminPassword: common.EnvOrDefault("MOCKAPI_ADMIN_PASSWORD", defaultAdminPass),
		AccessTTL:     time.Duration(common.EnvIntOrDefault("MOCKAPI_ACCESS_TTL_SECONDS", int(defaultAccessTTL.Seconds()))) * time.Second,
		RefreshTTL:    defaultRefreshTTL,
	}
}

type user struct {
	id           string
	email        string
	passwordHash []byte
}

type refreshGrant struct {
	userID    string
	expiresAt time.Time
}

// Server is an in-memory implementation of the recruitment admin API.
type Server struct {
	cfg    Config
	secret []byte
	logger *slog.Logger
	engine *gin.Engine

	mu       sync.Mutex
	users    map[string]*user // by lower-cased email
	grants   map[string]refreshGrant
	revoked  map[string]struct{} // access token ids revoked by logout
	entities map[string]*collection

	// tokenGeneration is embedded in access tokens; bumping it invalidates all of them.
	tokenGeneration atomic.Int64
	refreshCount    atomic.Int64
	loginCount      atomic.Int64
}

// New builds the server and seeds the admin account.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = defaultAdminEmail
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = defaultAdminPass
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
		logger: logger,
		users: map[string]*user{
			strings.ToLower(cfg.AdminEmail): {
				id:           common.NewRequestID(),
				email:        cfg.AdminEmail,
				passwordHash: hash,
			},
		},
		grants:   make(map[string]refreshGrant),
		revoked:  make(map[string]struct{}),
		entities: make(map[string]*collection),
	}
	for _, name := range resourceNames {
		s.entities[name] = newCollection()
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving the API under /api.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// RevokeAccessTokens invalidates every access token issued so far. Refresh
// tokens stay valid, so clients recover through /auth/refresh.
func (s *Server) RevokeAccessTokens() {
	s.tokenGeneration.Add(1)
}

// RevokeRefreshTokens drops every outstanding refresh grant.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants = make(map[string]refreshGrant)
}

// RefreshCount is the number of refresh requests received.
func (s *Server) RefreshCount() int64 {
	return s.refreshCount.Load()
}

// LoginCount is the number of successful logins.
func (s *Server) LoginCount() int64 {
	return s.loginCount.Load()
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(s.recoverMiddleware(), s.requestLogger())

	api := r.Group("/api")
	api.POST("/auth/login", s.login)
	api.POST("/auth/refresh", s.refresh)
	api.POST("/auth/logout", s.requireAuth, s.logout)

	for _, name := range resourceNames {
		g := api.Group("/"+name, s.requireAuth)
		listPath := "/all"
		if name == "organization" {
			listPath = "/All"
		}
		g.POST(listPath, s.listHandler(name))
		g.POST("", s.createHandler(name))
		g.PUT("/:uid", s.updateHandler(name))
		g.DELETE("/:uid", s.deleteHandler(name))
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	return r
}
