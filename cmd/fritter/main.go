// Command fritter runs the Fritter server and manages its database.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"github.com/tfkr-ae/fritter"
	"github.com/tfkr-ae/fritter/db"
	"github.com/tfkr-ae/fritter/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "fritter"
	}
	return filepath.Join(dir, "fritter")
}

func newRootCmd() *cobra.Command {
	var configDir string

	root := &cobra.Command{
		Use:          "fritter",
		Short:        "Fritter social posting server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", defaultConfigDir(), "directory holding config.yaml and the database")

	root.AddCommand(newServeCmd(&configDir), newMigrateCmd(&configDir), newLogsCmd(&configDir))
	return root
}

func newServeCmd(configDir *string) *cobra.Command {
	var address, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := fritter.New(fritter.WithConfigDir(*configDir))
			if err != nil {
				return err
			}
			defer app.Close()

			if cmd.Flags().Changed("addr") {
				app.Config.Address = address
			}
			if cmd.Flags().Changed("port") {
				app.Config.Port = port
			}

			listener, err := app.Listen()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx, listener)
		},
	}
	cmd.Flags().StringVar(&address, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides config)")
	return cmd
}

func newMigrateCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [status|up|down]",
		Short:     "Inspect or change the database schema version",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"status", "up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "status"
			if len(args) == 1 {
				command = args[0]
			}

			cfg, err := fritter.LoadConfig(*configDir)
			if err != nil {
				return err
			}
			conn, err := db.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer conn.Close()

			goose.SetLogger(log.New(cmd.OutOrStdout(), "", 0))
			if err := db.Migrate(conn, command); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", command)
			return nil
		},
	}
}

func newLogsCmd(configDir *string) *cobra.Command {
	var (
		level    string
		username string
		since    time.Duration
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the audit log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := fritter.LoadConfig(*configDir)
			if err != nil {
				return err
			}
			conn, err := db.New(cfg.DatabasePath)
			if err != nil {
				return err
			}
			repo := db.NewRepository(conn)
			defer repo.Close()

			filter := domain.LogFilter{MinLevel: level, Limit: limit}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			if username != "" {
				user, err := repo.GetUserByUsername(username)
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("unknown user %q", username)
				}
				if err != nil {
					return err
				}
				filter.UserID = &user.ID
			}

			entries, err := repo.ListLogs(filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, entry := range entries {
				context, err := json.Marshal(entry.Context)
				if err != nil {
					return fmt.Errorf("encoding context of log %s: %w", entry.ID, err)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Timestamp.UTC().Format(time.RFC3339), entry.Level, entry.Message, context)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "lowest level to print (debug, info, warn, error)")
	cmd.Flags().StringVar(&username, "user", "", "only entries about this user")
	cmd.Flags().DurationVar(&since, "since", 0, "only entries newer than this age, e.g. 24h")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries, 0 for all")
	return cmd
}
