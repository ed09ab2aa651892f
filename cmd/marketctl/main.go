package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/marketplace-client/internal/app"
	"github.com/angelmondragon/marketplace-client/internal/smartclient"
	"github.com/angelmondragon/marketplace-client/internal/tokenstore"
	"github.com/angelmondragon/marketplace-client/pkg/config"
	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
	"github.com/angelmondragon/marketplace-client/pkg/metrics"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "marketctl", Output: os.Stderr})

	_ = godotenv.Load()

	var f flags
	f.register(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "marketctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": f.cmd})

	var clientMetrics *metrics.ClientMetrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		clientMetrics = metrics.NewClientMetrics(reg)
		serveMetrics(ctx, logg, cfg.Metrics.Address, reg)
	}

	tokens, err := tokenstore.Open(ctx, cfg, logg)
	requireResource(ctx, logg, "token store", err)

	client, err := app.NewClient(app.Params{
		Config:     cfg,
		Logger:     logg,
		TokenStore: tokens,
		Metrics:    clientMetrics,
		Prompt: func(_ context.Context, authErr *smartclient.AuthRequiredError) {
			fmt.Fprintf(os.Stderr, "%s (run: marketctl -cmd=login -role=%s)\n", authErr.Message(), authErr.Role)
		},
	})
	requireResource(ctx, logg, "client", err)
	defer func() {
		if err := client.Close(); err != nil {
			logg.Error(context.Background(), "error closing token store", err)
		}
	}()

	if _, err := client.Session.Rehydrate(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "marketctl.rehydrate_failed")
	}

	if err := run(ctx, os.Stdout, client, f); err != nil {
		client.Errors.Handle(ctx, err, func(message string) {
			fmt.Fprintln(os.Stderr, message)
		})
		printFieldErrors(os.Stderr, err)
		if _, ok := smartclient.AsAuthRequired(err); ok {
			os.Exit(exitSignInRequired)
		}
		os.Exit(1)
	}
}

const exitSignInRequired = 2

// printFieldErrors lists the per-field messages of a server-side validation failure.
func printFieldErrors(out io.Writer, err error) {
	httpErr, ok := httpclient.AsHTTPError(err)
	if !ok {
		return
	}
	fields := httpErr.FieldErrors()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %s\n", name, fields[name])
	}
}

func serveMetrics(ctx context.Context, logg *logger.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
