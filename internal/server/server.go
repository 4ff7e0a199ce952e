package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/logging"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/jonathan/resume-builder/internal/templates"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxBodyBytes = 1 << 20

// AuthService is the account and session logic behind /auth. *auth.Service
// implements it.
type AuthService interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.Account, error)
	VerifyCode(ctx context.Context, email, code string) (*auth.Session, error)
	ResendCode(ctx context.Context, email string) error
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentAccount(ctx context.Context, token string) (*auth.Account, error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// ResumeStore is the resume persistence behind /resumes. *db.DB implements it.
type ResumeStore interface {
	ListOrCreateResumes(ctx context.Context, userID uuid.UUID, title, templateID string) ([]resume.StoredResume, error)
	CreateResume(ctx context.Context, userID uuid.UUID, title, templateID string) (*resume.StoredResume, error)
	GetResume(ctx context.Context, userID, id uuid.UUID) (*resume.StoredResume, error)
	UpdateResume(ctx context.Context, userID uuid.UUID, u db.ResumeUpdate) (*resume.StoredResume, error)
}

// Maintenance is the periodic housekeeping the server runs while serving.
// *db.DB implements it.
type Maintenance interface {
	Ping(ctx context.Context) error
	PurgeExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}

// Config holds server configuration
type Config struct {
	Port            int
	AllowedOrigin   string
	ShutdownTimeout time.Duration
	PurgeInterval   time.Duration
}

// Deps are the collaborators the handlers use. Maintenance and Limiter are
// optional.
type Deps struct {
	Auth        AuthService
	Resumes     ResumeStore
	Catalog     *templates.Catalog
	Maintenance Maintenance
	Limiter     *ratelimit.Limiter
	Logger      *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	config      Config
	auth        AuthService
	resumes     ResumeStore
	catalog     *templates.Catalog
	maintenance Maintenance
	rateLimiter *ratelimit.Limiter
	authHandler *AuthHandler
	validator   *validator.Validate
	logger      *zap.Logger
	suggest     func() string
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.PurgeInterval <= 0 {
		cfg.PurgeInterval = time.Hour
	}
	logger := deps.Logger
	logger = logging.OrNop(logger)
	catalog := deps.Catalog
	if catalog == nil {
		catalog = templates.NewCatalog(nil, logger)
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}

	s := &Server{
		config:      cfg,
		auth:        deps.Auth,
		resumes:     deps.Resumes,
		catalog:     catalog,
		maintenance: deps.Maintenance,
		rateLimiter: limiter,
		validator:   newValidator(),
		logger:      logger,
		suggest:     func() string { return resume.Suggest(nil) },
	}
	s.authHandler = NewAuthHandler(s)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain:
// rate limit, logging, CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.AuthMiddleware(sessionValidator{auth: s.auth})
	protected := func(h http.HandlerFunc) http.Handler { return requireAuth(h) }

	mux.HandleFunc("GET /health", s.handleHealth)

	// Accounts and sessions
	mux.HandleFunc("POST /auth/signup", s.authHandler.SignUp)
	mux.HandleFunc("POST /auth/verify", s.authHandler.Verify)
	mux.HandleFunc("POST /auth/resend", s.authHandler.Resend)
	mux.HandleFunc("POST /auth/signin", s.authHandler.SignIn)
	mux.Handle("POST /auth/signout", protected(s.authHandler.SignOut))
	mux.Handle("GET /auth/session", protected(s.authHandler.Session))

	// Resumes
	mux.Handle("GET /resumes", protected(s.handleListResumes))
	mux.Handle("POST /resumes", protected(s.handleCreateResume))
	mux.Handle("GET /resumes/{id}", protected(s.handleGetResume))
	mux.Handle("PUT /resumes/{id}", protected(s.handleSaveResume))
	mux.Handle("GET /resumes/{id}/preview", protected(s.handleResumePreview))
	mux.Handle("GET /resumes/{id}/export", protected(s.handleResumeExport))

	// Public rendering and catalog
	mux.HandleFunc("POST /preview", s.handlePreview)
	mux.HandleFunc("GET /templates", s.handleListTemplates)
	mux.HandleFunc("GET /suggestions", s.handleSuggestion)

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Run serves until ctx is cancelled, then shuts down gracefully. Expired
// revocation records are purged in the background while serving.
func (s *Server) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if s.maintenance != nil {
		g.Go(func() error {
			s.purgeRevocations(gCtx)
			return nil
		})
	}

	err := g.Wait()
	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return err
}

func (s *Server) purgeRevocations(ctx context.Context) {
	ticker := time.NewTicker(s.config.PurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.maintenance.PurgeExpiredRevocations(ctx, now)
			if err != nil {
				s.logger.Warn("failed to purge revoked sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Debug("purged revoked sessions", zap.Int64("count", n))
			}
		}
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.config.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.maintenance != nil {
		if err := s.maintenance.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse logs err and writes its generic JSON form.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	if body.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(body.RetryAfter))
	}
	s.jsonResponse(w, status, body)
}

// decodeJSON reads the request body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return &requestError{Reason: "body is not valid JSON"}
	}
	if err := s.validator.Struct(dst); err != nil {
		return extractValidationError(err)
	}
	return nil
}

// extractValidationError converts the first validator failure into an
// auth.ErrValidation naming the JSON field.
func extractValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &auth.ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &auth.ErrValidation{Message: "invalid request"}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; forwarded headers are not trusted.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	retryAfter := int(info.RetryAfter.Round(time.Second).Seconds())
	if info.RetryAfter > 0 && retryAfter == 0 {
		retryAfter = 1
	}
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", extractClientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, ErrorResponse{
		Error:      CodeRateLimited,
		Message:    "Rate limit exceeded. Please try again later.",
		RetryAfter: retryAfter,
	})
}

// sessionValidator adapts AuthService to the middleware. Rejected tokens stay
// 401; failures to check a token surface as unavailable.
type sessionValidator struct {
	auth AuthService
}

func (v sessionValidator) ValidateToken(ctx context.Context, token string) (middleware.UserIDGetter, error) {
	claims, err := v.auth.Authenticate(ctx, token)
	if err != nil {
		var unauthorized *auth.ErrUnauthorized
		if errors.As(err, &unauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", middleware.ErrUnavailable, err)
	}
	return claims, nil
}
