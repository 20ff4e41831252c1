// Package fritter wires the Fritter social posting server together: configuration,
// the SQLite repository, session tokens, structured logging with an audit trail,
// and the HTTP API.
//
// An App is assembled with functional options and then served:
//
//	app, err := fritter.New(fritter.WithConfigDir(dir))
//	if err != nil { ... }
//	defer app.Close()
//	listener, err := app.Listen()
//	if err != nil { ... }
//	err = app.Serve(ctx, listener)
package fritter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tfkr-ae/fritter/api"
	"github.com/tfkr-ae/fritter/auth"
	"github.com/tfkr-ae/fritter/domain"
	"github.com/tfkr-ae/fritter/logging"
	"github.com/tfkr-ae/fritter/observability"
)

// logBufferSize is the capacity of the audit log write channel.
const logBufferSize = 100

// shutdownTimeout bounds how long in-flight requests may run after Serve is cancelled.
const shutdownTimeout = 10 * time.Second

// Repository is the storage the application runs on.
type Repository interface {
	api.Store
	domain.LogRepository
	Close() error
}

// App is the Fritter server. It owns the repository and the audit log writer.
type App struct {
	ConfigDir      string                      // The configuration directory
	Config         *Config                     // Server configuration
	Repo           Repository                  // DB Repository Interface
	Tokens         *auth.TokenManager          // Signs and verifies session cookies
	Logger         *slog.Logger                // Structured logger
	Registry       *prometheus.Registry        // Registry behind /metrics
	Metrics        *observability.HTTPMetrics  // Request and reaction metrics
	DBWriteChannel chan *domain.Log            // Audit log entries waiting to be stored
	OnLog          func(log *domain.Log) error // Called after each audit entry is stored

	writerOnce sync.Once
	writerDone chan struct{}
	mu         sync.RWMutex
	closed     bool
}

// New creates an App and applies options. Anything not configured by an option
// is filled from the configuration: the logger, the token manager and, when a
// config directory was given, the database.
func New(options ...func(*App) error) (*App, error) {
	app := &App{
		Registry:       prometheus.NewRegistry(),
		DBWriteChannel: make(chan *domain.Log, logBufferSize),
	}
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Metrics = observability.NewHTTPMetrics(app.Registry)
	if err := app.WithOptions(options...); err != nil {
		return nil, err
	}

	if app.Config == nil {
		app.Config = DefaultConfig()
	}
	if app.Logger == nil {
		logger, err := logging.New(os.Stderr, logging.Options{
			Level:      app.Config.LogLevel,
			Format:     app.Config.LogFormat,
			AuditLevel: app.Config.AuditLevel,
		}, app.queueLog)
		if err != nil {
			return nil, fmt.Errorf("creating logger : %w", err)
		}
		app.Logger = logger
	}
	if app.Tokens == nil && app.Config.SessionSecret != "" {
		tokens, err := auth.NewTokenManager([]byte(app.Config.SessionSecret))
		if err != nil {
			return nil, err
		}
		app.Tokens = tokens
	}
	if app.Repo == nil && app.Config.DatabasePath != "" {
		if err := WithDatabase(app.Config.DatabasePath)(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// WithOptions applies a series of configuration functions to the app.
func (app *App) WithOptions(options ...func(*App) error) error {
	for _, option := range options {
		if err := option(app); err != nil {
			return fmt.Errorf("applying option on fritter : %w", err)
		}
	}
	return nil
}

// WriteLog queues an audit log entry for the database writer. It never blocks:
// when the queue is full the entry is dropped and an error returned.
func (app *App) WriteLog(level string, message string, options ...func(log *domain.Log) error) error {
	switch level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("level should be either: DEBUG, INFO, WARN, ERROR")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating new uuid : %w", err)
	}
	entry := &domain.Log{
		ID:        id,
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Context:   make(map[string]any),
	}
	for _, option := range options {
		if err := option(entry); err != nil {
			return fmt.Errorf("applying log option : %w", err)
		}
	}
	return app.queueLog(entry)
}

// queueLog is the audit sink handed to the logger.
func (app *App) queueLog(entry *domain.Log) error {
	app.mu.RLock()
	defer app.mu.RUnlock()
	if app.closed {
		return errors.New("app is closed")
	}
	select {
	case app.DBWriteChannel <- entry:
		return nil
	default:
		return errors.New("audit log queue is full")
	}
}

// StartWriter launches the goroutine that drains DBWriteChannel into the
// repository. Calling it more than once has no effect.
func (app *App) StartWriter() {
	app.writerOnce.Do(func() {
		app.writerDone = make(chan struct{})
		go app.WriteToDB()
	})
}

// WriteToDB stores queued audit entries until DBWriteChannel is closed.
func (app *App) WriteToDB() {
	defer func() {
		if app.writerDone != nil {
			close(app.writerDone)
		}
	}()
	for entry := range app.DBWriteChannel {
		if app.Repo == nil {
			continue
		}
		// The logger feeds this channel, so failures go to the standard logger.
		if err := app.Repo.InsertLog(entry); err != nil {
			log.Print(err)
			continue
		}
		if app.OnLog != nil {
			if err := app.OnLog(entry); err != nil {
				log.Print(err)
			}
		}
	}
}

// Handler builds the HTTP handler serving the API.
func (app *App) Handler() (http.Handler, error) {
	if app.Repo == nil {
		return nil, errors.New("app has no repository, use WithDatabase or WithRepo")
	}
	if app.Tokens == nil {
		return nil, errors.New("app has no session secret configured")
	}

	server, err := api.NewServer(app.Repo, app.Tokens, app.Logger, api.Options{
		SessionTTL:     app.Config.SessionTTL,
		SecureCookies:  app.Config.SecureCookies,
		RateLimitRPS:   app.Config.RateLimitRPS,
		RateLimitBurst: app.Config.RateLimitBurst,
		StaticDir:      app.Config.StaticDir,
		Metrics:        app.Metrics,
		Gatherer:       app.Registry,
	})
	if err != nil {
		return nil, fmt.Errorf("creating api server : %w", err)
	}
	return server.Handler(), nil
}

// Listen opens the TCP listener on the configured address and port.
func (app *App) Listen() (net.Listener, error) {
	address := net.JoinHostPort(app.Config.Address, app.Config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("setting up listener on address:port %s : %w", address, err)
	}
	return listener, nil
}

// Serve runs the HTTP server on listener until ctx is cancelled, then shuts it
// down gracefully. Expired sessions are swept in the background meanwhile.
func (app *App) Serve(ctx context.Context, listener net.Listener) error {
	gin.SetMode(gin.ReleaseMode)
	handler, err := app.Handler()
	if err != nil {
		listener.Close()
		return err
	}
	app.StartWriter()

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go app.sweepSessions(sweepCtx, app.Config.SessionSweepInterval)

	errs := make(chan error, 1)
	go func() {
		errs <- server.Serve(listener)
	}()
	app.Logger.Info("fritter listening", "address", listener.Addr().String())

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http : %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server : %w", err)
	}
	app.Logger.Info("fritter stopped")
	return nil
}

// SweepSessions deletes the sessions that expired before now.
func (app *App) SweepSessions(now time.Time) (int, error) {
	removed, err := app.Repo.DeleteExpiredSessions(now)
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions : %w", err)
	}
	if removed > 0 {
		app.Logger.Debug("removed expired sessions", "count", removed)
	}
	return removed, nil
}

// PruneLogs deletes the audit entries older than the configured retention.
// A zero retention keeps every entry.
func (app *App) PruneLogs(now time.Time) (int, error) {
	if app.Config.AuditRetention <= 0 {
		return 0, nil
	}
	removed, err := app.Repo.DeleteLogsBefore(now.Add(-app.Config.AuditRetention))
	if err != nil {
		return 0, fmt.Errorf("pruning audit logs : %w", err)
	}
	return removed, nil
}

func (app *App) sweepSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := app.SweepSessions(now); err != nil {
				app.Logger.Error("session sweep failed", "error", err)
			}
			if _, err := app.PruneLogs(now); err != nil {
				app.Logger.Error("audit log pruning failed", "error", err)
			}
		}
	}
}

// Close stops the audit log writer after it has stored the queued entries and
// closes the repository.
func (app *App) Close() error {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return nil
	}
	app.closed = true
	close(app.DBWriteChannel)
	app.mu.Unlock()

	if app.writerDone != nil {
		<-app.writerDone
	}
	if app.Repo != nil {
		return app.Repo.Close()
	}
	return nil
}
