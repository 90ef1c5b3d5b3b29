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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/akyapi/warehouse-auth/internal/config"
	"github.com/akyapi/warehouse-auth/internal/db"
	"github.com/akyapi/warehouse-auth/internal/handler"
	"github.com/akyapi/warehouse-auth/internal/logging"
	"github.com/akyapi/warehouse-auth/internal/metrics"
	"github.com/akyapi/warehouse-auth/internal/password"
	"github.com/akyapi/warehouse-auth/internal/service"
	"github.com/akyapi/warehouse-auth/internal/token"
)

func NewServeCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on start")
	return cmd
}

func runServe(ctx context.Context, skipMigrations bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Env, os.Stdout)

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("database connection failed", logging.Err(err))
		return err
	}
	defer store.close()

	if store.sqlDB != nil && !skipMigrations {
		if err := db.RunMigrations(ctx, store.sqlDB, cfg.DBDriver, log); err != nil {
			log.Error("migrations failed", logging.Err(err))
			return err
		}
	}

	sender, err := newSender(cfg)
	if err != nil {
		return err
	}

	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("failed to create session issuer: %w", err)
	}

	auth := service.NewAuthService(
		service.NewUserStore(store.users, password.NewBcryptHasher(cfg.BcryptCost)),
		service.NewResetTokenStore(store.tokens, cfg.ResetTokenTTL),
		issuer,
		service.NewEmailService(sender, cfg.MailFromName, cfg.FrontendOrigin, cfg.MailLogoPath, log),
		log,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: handler.NewRouter(handler.RouterConfig{
			Auth:           auth,
			Verifier:       issuer,
			Metrics:        metrics.New(reg),
			AllowedOrigins: cfg.AllowedOrigins,
			Log:            log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr, "env", cfg.Env, "db_driver", cfg.DBDriver, "mail_provider", cfg.MailProvider)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logging.Err(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}
