package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/demo"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/metrics"
	"github.com/aretw0/arbor/pkg/adapters/console"
	redisAdapter "github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/command"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/guard"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor serves hierarchical command trees",
	Long: `Arbor routes chat-style command lines through a tree of subcommands,
checks permissions, and runs handlers asynchronously.

Without --tree it serves the built-in guild demo.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides ARBOR_LOG_LEVEL")
	rootCmd.PersistentFlags().String("tree", "", "Command tree definition (YAML or JSON); overrides ARBOR_TREE")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for disconnect feed and locks; overrides ARBOR_REDIS_ADDR")
}

// app bundles everything a subcommand needs.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	engine  *arbor.Engine
	metrics *prometheus.Registry
	redis   backend.UniversalClient
	roster  *demo.Roster
	// callers is set by transports that track remote callers.
	callers *console.Directory
}

// newApp loads configuration, applies flag overrides and builds the engine.
// quiet keeps logs off unless a level is asked for explicitly, so stdio
// transports and the console stay clean.
func newApp(cmd *cobra.Command, quiet bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	explicitLevel := os.Getenv("ARBOR_LOG_LEVEL") != ""
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
		explicitLevel = true
	}
	if v, _ := flags.GetString("tree"); v != "" {
		cfg.Tree = v
	}
	if v, _ := flags.GetString("redis"); v != "" {
		cfg.RedisAddr = v
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)
	if quiet && !explicitLevel {
		logger = logging.NewNop()
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: prometheus.NewRegistry(),
		roster:  demo.NewRoster(),
	}
	m := metrics.New(a.metrics, func() int {
		if a.engine == nil {
			return 0
		}
		return a.engine.Scope().Running()
	})

	guardOpts := []guard.Option{guard.WithLogger(logger)}
	if cfg.RedisAddr != "" {
		a.redis = backend.NewClient(&backend.Options{Addr: cfg.RedisAddr})
		guardOpts = append(guardOpts, guard.WithLocker(redisAdapter.NewLocker(a.redis, "arbor:lock:")))
	}

	a.engine = arbor.New(
		arbor.WithLogger(logger),
		arbor.WithHooks(domain.Merge(observability.LogHooks(logger), m.Hooks())),
		arbor.WithErrorHandler(command.NotifyErrors("An internal error occurred.", command.LogErrors(logger))),
		arbor.WithBaselineCompleter(ports.BaselineFunc(a.completeOnline)),
	)

	handlers := demo.New(a.roster,
		demo.WithGuard(guard.New(guardOpts...)),
		demo.WithOnline(a.onlineNames),
	)
	if err := demo.Install(a.engine, handlers, cfg.Tree); err != nil {
		return nil, err
	}
	logger.Debug("command tree loaded", "tree", cfg.Tree, "roots", len(a.engine.Commands()))
	return a, nil
}

// onlineNames lists remote callers known to the transport's directory.
func (a *app) onlineNames() []string {
	if a.callers == nil {
		return nil
	}
	return a.callers.Names()
}

// completeOnline offers online names for the word being typed, the way a
// game host suggests player names.
func (a *app) completeOnline(_ domain.Caller, _ string, args []string) []string {
	prefix := ""
	if len(args) > 0 {
		prefix = strings.ToLower(args[len(args)-1])
	}
	out := []string{}
	for _, name := range a.onlineNames() {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			out = append(out, name)
		}
	}
	return out
}

// close stops the engine, waiting up to the configured shutdown window.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownWait)
	defer cancel()
	if err := a.engine.Shutdown(ctx); err != nil {
		a.logger.Warn("handlers still running at exit", "err", err)
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
