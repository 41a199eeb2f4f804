package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/metrics"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	redisAdapter "github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes the command tree over a JSON API, streams caller messages as
server-sent events and publishes Prometheus metrics on /metrics.

With a Redis address, disconnects published on the configured channel cancel
tracked jobs here, and guarded commands lock across instances.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.close()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.Addr = addr
		}

		var opts []httpAdapter.Option
		opts = append(opts, httpAdapter.WithLogger(a.logger))
		if a.cfg.RateLimit > 0 {
			opts = append(opts, httpAdapter.WithRateLimit(a.cfg.RateLimit, a.cfg.RateBurst))
		}
		api := httpAdapter.NewServer(a.engine, opts...)
		a.callers = api.Callers

		a.metrics.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		r := chi.NewRouter()
		r.Handle("/metrics", metrics.Handler(prometheus.Gatherer(a.metrics)))
		r.Mount("/", api.Routes())

		srv := &http.Server{
			Addr:    a.cfg.Addr,
			Handler: r,
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		if a.redis != nil {
			feed := redisAdapter.NewFeed(a.redis, a.engine,
				redisAdapter.WithChannel(a.cfg.RedisChannel),
				redisAdapter.WithLogger(a.logger),
			)
			go func() {
				if err := feed.Run(sigCtx); err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Error("disconnect feed stopped", "err", err)
				}
			}()
		}

		serverErrors := make(chan error, 1)
		go func() {
			a.logger.Info("arbor server listening", "addr", srv.Addr, "tree", a.cfg.Tree)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-sigCtx.Done():
			a.logger.Info("shutting down", "signal", sigCtx.Signal())
		}

		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownWait)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Warn("graceful shutdown did not complete", "wait", a.cfg.ShutdownWait, "err", err)
			if err := srv.Close(); err != nil {
				a.logger.Error("error killing server", "err", err)
			}
		}
		a.logger.Info("arbor server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address; overrides ARBOR_ADDR")
}
