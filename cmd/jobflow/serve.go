package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	adapthttp "jobflow/internal/adapter/http"
	"jobflow/internal/app"
	"jobflow/internal/config"
	"jobflow/internal/logging"
	"jobflow/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty, cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize tracing")
		shutdownTracing = func(context.Context) error { return nil }
	}

	st, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()
	log.Info().Str("storage", cfg.Storage.Backend).Msg("storage ready")

	var (
		metrics        *telemetry.Metrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = telemetry.NewMetrics(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	sessions := app.NewSessionManager(st.sessions, st, app.SessionConfig{
		CookieName:  cfg.Session.CookieName,
		Lifetime:    cfg.Session.Lifetime,
		RenewWithin: cfg.Session.RenewWithin,
		Secure:      cfg.Production(),
	})

	var oidcCfg *adapthttp.OIDCConfig
	if cfg.OIDC.Enabled() {
		oidcCfg, err = adapthttp.NewOIDCConfig(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return err
		}
		log.Info().Str("issuer", cfg.OIDC.Issuer).Msg("sso enabled")
	}

	var observer app.AuthObserver
	if metrics != nil {
		observer = metrics
	}
	handler := adapthttp.New(adapthttp.Deps{
		Auth:           app.NewAuthService(st, sessions),
		Sessions:       sessions,
		Gate:           app.NewGate(sessions, observer),
		Jobs:           app.NewJobService(st),
		Connections:    app.NewConnectionService(st, st),
		Outreach:       app.NewOutreachService(st, st),
		Dashboard:      app.NewDashboardService(st, st, st),
		Health:         app.NewHealthService(st, st),
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
		OIDC:           oidcCfg,
		WebDir:         cfg.WebDir,
		Production:     cfg.Production(),
	}).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sweepSessions(gctx, sessions, cfg.Session.SweepInterval, metrics)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server shutdown error")
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("tracer shutdown error")
		}
		return nil
	})

	err = g.Wait()
	log.Info().Msg("shutdown complete")
	return err
}

// sweepSessions deletes expired sessions every interval until ctx is done.
func sweepSessions(ctx context.Context, sessions *app.SessionManager, every time.Duration, metrics *telemetry.Metrics) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("session sweep failed")
				continue
			}
			if metrics != nil {
				metrics.SessionsPruned(n)
			}
			if n > 0 {
				log.Info().Int64("deleted", n).Msg("expired sessions swept")
			}
		}
	}
}
