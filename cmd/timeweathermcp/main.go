// Command timeweathermcp runs the time/weather MCP server. By default it
// speaks JSON-RPC over stdin/stdout for process-pipe integration; with --http
// it serves the streaming HTTP transport instead.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/spf13/cobra"

	"timeweathermcp/internal/dispatch"
	"timeweathermcp/internal/logctx"
	"timeweathermcp/mcp"
	"timeweathermcp/registry"
	"timeweathermcp/stdio"
	"timeweathermcp/streaminghttp"
	"timeweathermcp/timeweather"
)

const (
	serverName    = "time-weather-mcp"
	serverVersion = "1.0.0"
)

type envConfig struct {
	Port          int    `env:"PORT,default=8000"`
	WeatherAPIKey string `env:"WEATHER_API_KEY"`
	WeatherAPIURL string `env:"WEATHER_API_URL"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
}

var (
	flagHTTP bool
	flagPort int
)

var rootCmd = &cobra.Command{
	Use:   "timeweathermcp",
	Short: "MCP server exposing time and weather tools",
	Long: `An MCP server exposing time and weather tools over two transports:
newline-delimited JSON-RPC on stdin/stdout (default) or streaming HTTP.`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().BoolVar(&flagHTTP, "http", false, "serve the streaming HTTP transport instead of stdio")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "HTTP listen port (overrides PORT, default 8000)")
}

func run(cmd *cobra.Command, args []string) error {
	var cfg envConfig
	if err := envdecode.Decode(&cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}

	// Logs go to stderr: on the stdio transport, stdout is the wire. The
	// logctx wrapper folds request/RPC/tool attributes carried in contexts
	// into every record.
	base := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})
	log := slog.New(logctx.Handler{Handler: base})
	slog.SetDefault(log)

	reg, err := registry.New(timeweather.Definitions(timeweather.WeatherConfig{
		APIKey:  cfg.WeatherAPIKey,
		BaseURL: cfg.WeatherAPIURL,
	}), registry.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to build tool registry: %w", err)
	}

	d := dispatch.New(mcp.ImplementationInfo{Name: serverName, Version: serverVersion}, reg, dispatch.WithLogger(log))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagHTTP {
		// The HTTP handler wraps its logger itself; hand it the bare handler.
		h := streaminghttp.New(d, streaminghttp.WithLogger(slog.New(base)))
		srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: h}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		log.Info("http.serve.start", slog.Int("port", cfg.Port))

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			log.Info("http.serve.stop")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}

	log.Info("stdio.serve")
	return stdio.NewHandler(d, stdio.WithLogger(log)).Serve(ctx)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
