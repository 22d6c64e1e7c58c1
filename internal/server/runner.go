package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"runtime"
	"strconv"

	"github.com/cvanloo/burrowdns/internal/config"
	"github.com/cvanloo/burrowdns/internal/database"
	"github.com/cvanloo/burrowdns/internal/resolvers"
)

// Runner assembles the DNS side of the process from configuration: the
// upstream client, the configured resolution strategy, the query handler and
// the UDP server.
type Runner struct {
	Logger   *slog.Logger
	Stats    *DNSStats
	QueryLog *database.DB // nil when the query log is disabled
}

// Run serves DNS until the context is cancelled.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) error {
	client := &resolvers.Client{Timeout: cfg.Resolver.ExchangeTimeoutDuration()}

	var resolver resolvers.Resolver
	switch cfg.Resolver.Mode {
	case config.ModeForward:
		resolver = resolvers.NewForwardingResolver(cfg.Resolver.UpstreamIP(), client)
	case config.ModeRecursive:
		recursive := resolvers.NewRecursiveResolver(cfg.Resolver.RootIP(), cfg.Resolver.MaxDelegations, client)
		recursive.Logger = r.Logger
		resolver = recursive
	default:
		return fmt.Errorf("unknown resolver mode: %q", cfg.Resolver.Mode)
	}
	defer resolver.Close()

	handler := &QueryHandler{
		Logger:          r.Logger,
		Resolver:        resolver,
		Stats:           r.Stats,
		QueryLog:        r.QueryLog,
		QueryLogMaxRows: cfg.QueryLog.MaxRows,
	}

	workers := cfg.Server.Workers
	if workers <= 0 {
		workers = min(runtime.NumCPU()*16, 256)
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	if r.Logger != nil {
		r.Logger.Info("starting dns server",
			"addr", addr,
			"mode", cfg.Resolver.Mode,
			"workers", workers,
			"query_log", cfg.QueryLog.Enabled,
		)
	}

	udp := &UDPServer{Logger: r.Logger, Handler: handler, Workers: workers}
	return udp.Run(ctx, addr)
}
