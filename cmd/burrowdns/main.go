// Command burrowdns runs the DNS resolver/forwarder with its optional
// management API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/cvanloo/burrowdns/internal/api"
	"github.com/cvanloo/burrowdns/internal/api/handlers"
	"github.com/cvanloo/burrowdns/internal/config"
	"github.com/cvanloo/burrowdns/internal/database"
	"github.com/cvanloo/burrowdns/internal/logging"
	"github.com/cvanloo/burrowdns/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds parsed command-line flag values.
type cliFlags struct {
	configPath string
	host       string
	port       int
	mode       string
	upstream   string
	queryLog   bool
	jsonLogs   bool
	debug      bool
}

// parseFlags parses command-line flags and returns the values.
func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&f.host, "host", "", "Override DNS server bind host")
	flag.IntVar(&f.port, "port", 0, "Override DNS server bind port")
	flag.StringVar(&f.mode, "mode", "", "Override resolver mode (forward or recursive)")
	flag.StringVar(&f.upstream, "upstream", "", "Override forward-mode upstream IPv4")
	flag.BoolVar(&f.queryLog, "query-log", false, "Enable the persistent query log")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.Parse()
	return f
}

// applyCLIOverrides applies command-line overrides to the config.
func applyCLIOverrides(cfg *config.Config, f cliFlags) {
	if f.host != "" {
		cfg.Server.Host = f.host
	}
	if f.port != 0 {
		cfg.Server.Port = f.port
	}
	if f.mode != "" {
		cfg.Resolver.Mode = f.mode
	}
	if f.upstream != "" {
		cfg.Resolver.Upstream = f.upstream
	}
	if f.queryLog {
		cfg.QueryLog.Enabled = true
	}
	if f.jsonLogs {
		cfg.Logging.JSON = true
	}
	if f.debug {
		cfg.Logging.Level = "DEBUG"
	}
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	applyCLIOverrides(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	instanceID := uuid.New().String()[:8]
	logger := logging.Configure(logging.Config{
		Level:       cfg.Logging.Level,
		JSON:        cfg.Logging.JSON,
		IncludePID:  cfg.Logging.IncludePID,
		ExtraFields: cfg.Logging.ExtraFields,
	}).With("instance", instanceID)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var queryLog *database.DB
	if cfg.QueryLog.Enabled {
		queryLog, err = database.Open(cfg.QueryLog.Path)
		if err != nil {
			return fmt.Errorf("failed to open query log: %w", err)
		}
		defer queryLog.Close()
		logger.Info("query log enabled", "path", cfg.QueryLog.Path, "max_rows", cfg.QueryLog.MaxRows)
	}

	stats := server.NewDNSStats()

	if cfg.API.Enabled {
		h := handlers.New(cfg, logger, instanceID, stats.Snapshot, queryLog)
		apiSrv := api.New(cfg, logger, h)
		go func() {
			logger.Info("management api listening", "addr", apiSrv.Addr())
			if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("management api failed", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = apiSrv.Shutdown(shutdownCtx)
		}()
	}

	runner := &server.Runner{Logger: logger, Stats: stats, QueryLog: queryLog}
	return runner.Run(ctx, cfg)
}
