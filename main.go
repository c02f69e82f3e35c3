package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aitomarabdeljalil/42-Matcha/config"
	"github.com/aitomarabdeljalil/42-Matcha/discovery"
	"github.com/aitomarabdeljalil/42-Matcha/logging"
	"github.com/aitomarabdeljalil/42-Matcha/migrations"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "matcha",
		Short:         "Matcha dating backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logging.Init(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Caller: cfg.Logging.Caller,
				Output: os.Stdout,
			})
			jwtSecret = []byte(cfg.Auth.JWTSecret)
			tokenTTL = cfg.Auth.TokenTTL
			refreshSecret = []byte(cfg.Auth.RefreshSecret)
			refreshTokenTTL = cfg.Auth.RefreshTokenTTL
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(func() *config.Config { return cfg }),
		newMigrateCmd(func() *config.Config { return cfg }),
		newSeedCmd(func() *config.Config { return cfg }),
	)
	return root
}

func newServeCmd(cfg func() *config.Config) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := openDB(ctx, c.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			logging.Info().Msg("database connection established")

			if migrate || c.Database.MigrateOnStart {
				if err := migrations.Up(db); err != nil {
					return err
				}
				logging.Info().Msg("migrations applied")
			}

			if err := os.MkdirAll(c.Uploads.AvatarDir, 0o755); err != nil {
				return fmt.Errorf("create avatar dir: %w", err)
			}

			users := newUserStore(db)
			likes := newLikeStore(db)
			handler := newRouter(routerDeps{
				Users:     users,
				Likes:     likes,
				Discovery: discovery.NewService(users, likes),
				Security:  c.Security,
				Uploads:   c.Uploads,
			})

			srv := &http.Server{
				Addr:         c.Server.Addr(),
				Handler:      handler,
				ReadTimeout:  c.Server.ReadTimeout,
				WriteTimeout: c.Server.WriteTimeout,
				IdleTimeout:  c.Server.IdleTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logging.Info().Str("addr", srv.Addr).Str("env", c.Server.Environment).Msg("starting matcha backend")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logging.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func newMigrateCmd(cfg func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), cfg().Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrations.Up(db); err != nil {
				return err
			}
			logging.Info().Msg("migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), cfg().Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrations.Down(db, steps); err != nil {
				return err
			}
			logging.Info().Int("steps", steps).Msg("migrations rolled back")
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), cfg().Database)
			if err != nil {
				return err
			}
			defer db.Close()
			v, dirty, err := migrations.Version(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func newSeedCmd(cfg func() *config.Config) *cobra.Command {
	var sc seedConfig
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with deterministic fake profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sc.validate(); err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg().Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return runSeed(cmd.Context(), db, sc)
		},
	}
	f := cmd.Flags()
	f.IntVar(&sc.Count, "count", 300, "number of users to create")
	f.Int64Var(&sc.Seed, "seed", 42, "RNG seed (deterministic)")
	f.BoolVar(&sc.Truncate, "truncate", false, "truncate users, likes and views first")
	f.Float64Var(&sc.LikeRate, "like-rate", 0.05, "share of other users each user likes (0..1)")
	f.Float64Var(&sc.ViewRate, "view-rate", 0.15, "share of other users each user views (0..1)")
	f.StringVar(&sc.Password, "password", "test1234", "password assigned to all users")
	f.Float64Var(&sc.SpreadKm, "spread-km", 15, "scatter radius around each city in km")
	return cmd
}
