// Package api exposes Fritter over a JSON REST API built on gin.
//
// Handlers follow the same shape throughout: bind and validate the request,
// look up the records involved, check the signed-in user may act on them,
// persist through the Store and shape the response for the viewer.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tfkr-ae/fritter/auth"
	"github.com/tfkr-ae/fritter/domain"
	"github.com/tfkr-ae/fritter/observability"
)

// Store is the persistence the API needs.
type Store interface {
	domain.UserRepository
	domain.SessionRepository
	domain.FreetRepository
	domain.CommentRepository
	domain.FollowRepository
	domain.ReactionRepository
	domain.StatsRepository
}

// Options tunes a Server. Zero values fall back to defaults.
type Options struct {
	SessionTTL     time.Duration // Lifetime of a session, default 7 days
	SecureCookies  bool          // Set the Secure flag on the session cookie
	RateLimitRPS   float64       // Sign-in and registration rate per client IP, default 1
	RateLimitBurst int           // Burst for the rate above, default 5
	StaticDir      string        // Serve a built frontend from here when set

	Metrics  *observability.HTTPMetrics
	Gatherer prometheus.Gatherer // Source for /metrics, default prometheus.DefaultGatherer
	Now      func() time.Time    // Clock used by date based feeds, default time.Now
}

// Server holds the dependencies shared by the handlers.
type Server struct {
	store   Store
	tokens  *auth.TokenManager
	logger  *slog.Logger
	limiter *RateLimiter
	opts    Options
}

// NewServer creates a Server. A nil logger discards output.
func NewServer(store Store, tokens *auth.TokenManager, logger *slog.Logger, opts Options) (*Server, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 1
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 5
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		store:   store,
		tokens:  tokens,
		logger:  logger,
		limiter: NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		opts:    opts,
	}, nil
}

// Handler builds the gin engine serving every route.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), s.instrument(), s.logRequests())
	SetupRoutes(router, s)
	return router
}
