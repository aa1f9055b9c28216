package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"crawldash/internal/backend"
	"crawldash/internal/config"
	"crawldash/internal/handlers"
	"crawldash/internal/livesync"
	"crawldash/internal/metrics"
	"crawldash/internal/middleware"
	"crawldash/internal/render"
	"crawldash/internal/render/htmldoc"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard to browsers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			logger := openLogger(cfg, "")
			defer logger.Close()
			return serve(cmd.Context(), cfg, logger.Logger)
		},
	}
	cmd.Flags().String("listen", config.DefaultListen, "address to serve the dashboard on")
	return cmd
}

// app is one wired dashboard host.
type app struct {
	controller  *livesync.Controller
	hub         *middleware.Hub
	rateLimiter *middleware.RateLimiter
	router      *gin.Engine
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	m := metrics.New()
	id := uuid.NewString()

	client, err := backend.NewClient(cfg.Backend.URL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithMetrics(m),
		backend.WithClientID(id),
	)
	if err != nil {
		return nil, err
	}

	var hub *middleware.Hub
	doc := htmldoc.New(
		htmldoc.WithLogger(logger),
		htmldoc.WithChangeFunc(func(id render.SlotID, fragment template.HTML) {
			hub.BroadcastSlot(id, fragment)
		}),
	)
	hub = middleware.NewHub(logger, middleware.WithSnapshot(doc.Snapshot), middleware.WithHubMetrics(m))

	controller := livesync.New(client, render.NewRenderer(doc), livesync.WebsocketDialer{}, client.PushURL(),
		livesync.WithLogger(logger),
		livesync.WithMetrics(m),
		livesync.WithID(id),
	)

	rl := middleware.NewRateLimiter(middleware.PerMinute(cfg.RateLimit.PerMinute), cfg.RateLimit.Burst)
	router, err := handlers.NewRouter(handlers.RouterOptions{
		Dashboard:   handlers.NewDashboardHandlers(controller, doc, client, cfg.Backend.URL, logger),
		Hub:         hub,
		Metrics:     m,
		RateLimiter: rl,
		Logger:      logger,
		TLS:         cfg.TLS.Enabled,
	})
	if err != nil {
		rl.Stop()
		return nil, fmt.Errorf("failed to set up routes: %w", err)
	}
	return &app{controller: controller, hub: hub, rateLimiter: rl, router: router}, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.rateLimiter.Stop()

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           a.router,
		BaseContext:       func(net.Listener) context.Context { return egctx },
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	eg.Go(func() error {
		a.hub.Run(egctx)
		return nil
	})
	eg.Go(func() error {
		if err := a.controller.Run(egctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		logger.Info("starting dashboard server", "addr", cfg.Listen, "backend", cfg.Backend.URL, "tls", cfg.TLS.Enabled)
		var err error
		if cfg.TLS.Enabled {
			err = srv.ListenAndServeTLS(cfg.TLS.Cert, cfg.TLS.Key)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down dashboard server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
