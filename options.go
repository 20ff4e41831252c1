package fritter

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tfkr-ae/fritter/db"
	"github.com/tfkr-ae/fritter/domain"
)

// WithConfigDir loads config.yaml from appConfigDir, creating the directory and
// a default file when missing.
func WithConfigDir(appConfigDir string) func(*App) error {
	return func(app *App) error {
		cfg, err := LoadConfig(appConfigDir)
		if err != nil {
			return err
		}
		app.ConfigDir = appConfigDir
		app.Config = cfg
		return nil
	}
}

// WithConfig uses cfg as is, without reading or writing any file.
func WithConfig(cfg *Config) func(*App) error {
	return func(app *App) error {
		if cfg == nil {
			return errors.New("config must not be nil")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		app.Config = cfg
		return nil
	}
}

// WithDatabase opens the SQLite database at path, applies pending migrations
// and uses it as the repository.
func WithDatabase(path string) func(*App) error {
	return func(app *App) error {
		conn, err := db.New(path)
		if err != nil {
			return fmt.Errorf("opening database %s : %w", path, err)
		}
		return WithRepo(db.NewRepository(conn))(app)
	}
}

// WithRepo sets the repository, closing the one previously set.
func WithRepo(repo Repository) func(*App) error {
	return func(app *App) error {
		if app.Repo != nil {
			if err := app.Repo.Close(); err != nil {
				return err
			}
			app.Repo = nil
		}
		app.Repo = repo
		return nil
	}
}

// WithLogger sets a custom logger. A nil logger is ignored and the default one
// is built from the configuration.
func WithLogger(logger *slog.Logger) func(*App) error {
	return func(app *App) error {
		if logger != nil {
			app.Logger = logger
		}
		return nil
	}
}

// WithLogHandler takes a handler function that will be executed on each stored audit log
func WithLogHandler(handler func(log *domain.Log) error) func(*App) error {
	return func(app *App) error {
		if app.OnLog != nil {
			return errors.New("app already has a log handler defined")
		}
		app.OnLog = handler
		return nil
	}
}

// LOG OPTIONS
func LogWithContext(context map[string]any) func(log *domain.Log) error {
	return func(log *domain.Log) error {
		for key, value := range context {
			log.Context[key] = value
		}
		return nil
	}
}

func LogWithUserID(id uuid.UUID) func(log *domain.Log) error {
	return func(log *domain.Log) error {
		log.UserID = &id
		return nil
	}
}
