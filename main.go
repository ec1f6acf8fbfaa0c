package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"notula-server/config"
	"notula-server/flow"
	"notula-server/handlers"
	"notula-server/middleware"
	"notula-server/models"
	"notula-server/scheduler"
	"notula-server/session"
	"notula-server/store"
	"notula-server/timeparse"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var verbose bool

	serve := func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), configPath, verbose)
	}

	root := &cobra.Command{
		Use:          "notula-server",
		Short:        "Chat bot for reminders and work reports",
		SilenceUsage: true,
		RunE:         serve,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the bot server",
		RunE:  serve,
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(configPath, verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			s, err := store.New(cfg.Storage.Path, logger.Named("store"))
			if err != nil {
				return err
			}
			return s.Close()
		},
	})
	return root
}

func setup(configPath string, verbose bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Log, verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(lc config.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func runServe(ctx context.Context, configPath string, verbose bool) error {
	cfg, logger, err := setup(configPath, verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Bot.Location()
	if err != nil {
		return err
	}
	auth, err := middleware.NewAuthenticator(cfg.Server.JWTSecret, middleware.DefaultTokenTTL)
	if err != nil {
		return err
	}

	s, err := store.New(cfg.Storage.Path, logger.Named("store"))
	if err != nil {
		logger.Error("failed to initialize database", zap.Error(err))
		return err
	}
	defer s.Close()

	sched := scheduler.New(logger.Named("scheduler"))
	defer sched.Stop()
	sessions := session.NewManager(cfg.Bot.SessionTimeout, logger.Named("session"))
	defer sessions.Stop()

	dispatcher := flow.NewDispatcher(0, logger.Named("dispatcher"))
	hub := handlers.NewHub(auth, dispatcher, logger.Named("hub"))
	orch := flow.New(s, sched, sessions, hub, timeparse.NewResolver(loc), logger.Named("flow"))

	sessions.OnExpire(func(ownerID string) {
		dispatcher.Submit(models.Event{Kind: models.EventExpired, OwnerID: ownerID})
	})

	armed, err := sched.Recover(s, func(r models.Reminder) scheduler.Func {
		return orch.FireReminder(r.ID)
	})
	if err != nil {
		return err
	}
	logger.Info("reminders recovered",
		zap.Int("armed", armed),
		zap.Duration("session_timeout", sessions.Timeout()),
	)

	go hub.Run(ctx)
	go dispatcher.Run(ctx, orch)

	authHandler := handlers.NewAuthHandler(s, auth, logger.Named("auth"))
	reminderHandler := handlers.NewReminderHandler(s, sched, logger.Named("reminders"))
	reportHandler := handlers.NewReportHandler(s, loc, logger.Named("reports"))

	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/ws", hub.HandleWebSocket)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Protected routes
	mux.HandleFunc("GET /api/auth/me", auth.WithAuth(authHandler.Me))

	mux.HandleFunc("GET /api/reminders", auth.WithAuth(reminderHandler.List))
	mux.HandleFunc("POST /api/reminders/{id}/done", auth.WithAuth(reminderHandler.Done))
	mux.HandleFunc("DELETE /api/reminders/{id}", auth.WithAuth(reminderHandler.Delete))

	mux.HandleFunc("GET /api/reports", auth.WithAuth(reportHandler.List))
	mux.HandleFunc("DELETE /api/reports/{id}", auth.WithAuth(reportHandler.Delete))

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("notula server starting", zap.String("addr", cfg.Server.Address), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
