package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/celerix-dev/certify-one/internal/api"
	"github.com/celerix-dev/certify-one/internal/auth"
	"github.com/celerix-dev/certify-one/internal/config"
	"github.com/celerix-dev/certify-one/internal/engine"
	"github.com/celerix-dev/certify-one/internal/logger"
	"github.com/celerix-dev/certify-one/internal/observability"
	"github.com/celerix-dev/certify-one/internal/prefs"
	"github.com/celerix-dev/certify-one/internal/server"
	"github.com/celerix-dev/certify-one/internal/users"
	"github.com/celerix-dev/certify-one/internal/vault"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "certify-stored",
		Short: "certify-one store daemon",
		Long: `certify-stored owns the training store and serves it over an HTTP JSON API
and a line-oriented TCP protocol. Settings come from --config and CERTIFY_*
environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CERTIFY_CONFIG"), "path to a YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the daemon (default)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve(configPath)
		},
	})
	root.AddCommand(newMigrateCmd(&configPath))
	return root
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting certify-one store daemon", "backend", cfg.Storage.Backend)

	shutdownTracing, err := observability.InitTracing(ctx, log, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("Flushing traces failed", "error", err)
		}
	}()

	// 1. Durable slots
	slots, err := engine.OpenConfigured(ctx, cfg, log)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer func() {
		if err := slots.Close(); err != nil {
			log.Warn("Closing storage failed", "error", err)
		}
	}()

	// 2. Stores
	store, err := engine.NewStore(ctx, slots,
		engine.WithLogger(log),
		engine.WithLatency(engine.Latency{
			Add:    cfg.Latency.Add,
			Update: cfg.Latency.Update,
			Delete: cfg.Latency.Delete,
		}),
		engine.WithObserver(api.EventLogger(log)),
	)
	if err != nil {
		return err
	}
	log.Info("Engine started", "records", store.Len())

	authn, err := auth.New(ctx, slots, log, auth.Options{
		Secret:  cfg.Auth.JWTSecret,
		TTL:     cfg.Auth.TokenTTL,
		Latency: cfg.Latency.Login,
	})
	if err != nil {
		return err
	}
	directory, err := users.NewDirectory(ctx, slots, log)
	if err != nil {
		return err
	}

	// 3. TCP router
	router := server.NewRouter(store, log)
	if !cfg.Server.DisableTLS {
		cert, err := vault.GenerateSelfSignedCert()
		if err != nil {
			return errors.Wrap(err, "generate TLS certificate")
		}
		router.SetCertificate(cert)
	} else {
		log.Warn("TLS encryption disabled", "env", "CERTIFY_DISABLE_TLS")
	}

	// 4. HTTP API
	if cfg.Log.Mode == "prod" || cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(cfg.Tracing.ServiceName), api.RequestLogger(log), api.CORS())
	h := &api.Handler{
		Store: store,
		Auth:  authn,
		Prefs: prefs.New(slots, log),
		Users: directory,
		Log:   log,
	}
	h.Register(r)
	r.NoRoute(api.NoRoute)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP API listening", "port", cfg.Server.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "HTTP server failed")
		}
		return nil
	})
	g.Go(func() error {
		return errors.Wrap(router.Listen(cfg.Server.Port), "TCP server failed")
	})

	// 5. Stop both listeners on a signal or when either one fails
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			log.Info("Shutdown signal received")
		}
		router.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP shutdown incomplete", "error", err)
		}
		return nil
	})

	err = g.Wait()
	if err != nil {
		log.Error("Server failed", "error", err)
	}
	log.Info("Shutdown complete")
	return err
}
