package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/papa-aryan/ascii-web/internal/auth"
	"github.com/papa-aryan/ascii-web/internal/content"
)

// AccessGate is the slice of the auth service the transport depends on.
type AccessGate interface {
	VerifyAdmin(ctx context.Context, token string) (*auth.User, error)
	SignIn(ctx context.Context, email, password string) (*auth.SignInResult, error)
	SignOut(ctx context.Context, token string)
}

// Publisher is the slice of the content publisher the transport depends on.
type Publisher interface {
	Publish(ctx context.Context, token string, req content.PublishRequest) (*content.PublishResult, error)
}

// Options configures the HTTP server wiring.
type Options struct {
	Repository  content.Repository
	Publisher   Publisher
	Gate        AccessGate
	Database    *gorm.DB
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
	RateLimiter RateLimiterSettings
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

const (
	defaultRateLimitBurst = 20
	defaultRateLimitRPS   = 10
	defaultRateLimitTTL   = 5 * time.Minute
)

// Server wires the HTTP transport layer via Huma.
type Server struct {
	api         huma.API
	mux         *stdhttp.ServeMux
	repository  content.Repository
	publisher   Publisher
	gate        AccessGate
	logger      *logrus.Logger
	sentry      *sentry.Hub
	db          *gorm.DB
	rateLimiter *RateLimiter
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Repository == nil {
		return nil, eris.New("content repository is required")
	}
	if opts.Publisher == nil {
		return nil, eris.New("content publisher is required")
	}
	if opts.Gate == nil {
		return nil, eris.New("access gate is required")
	}
	if opts.Database == nil {
		return nil, eris.New("database is required")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("ascii-web", "1.0.0")

	api := humago.New(mux, config)

	srv := &Server{
		api:        api,
		mux:        mux,
		repository: opts.Repository,
		publisher:  opts.Publisher,
		gate:       opts.Gate,
		logger:     opts.Logger,
		sentry:     opts.SentryHub,
		db:         opts.Database,
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		settings.Burst = defaultRateLimitBurst
	}
	if settings.RequestsPerSecond <= 0 {
		settings.RequestsPerSecond = defaultRateLimitRPS
	}
	if settings.ClientTTL <= 0 {
		settings.ClientTTL = defaultRateLimitTTL
	}

	srv.rateLimiter = NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL)

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerAuthRoute()
	s.registerBlogPostRoutes()
	s.registerJournalRoutes()
	s.registerDraftRoutes()
	s.registerPublishRoute()
	s.registerServeBlogPostRoute()
	s.registerHealthRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
