// Package handlers implements the REST API endpoint handlers for burrowdns.
//
// The API is read-only: it exposes health, runtime statistics, the effective
// configuration and the recent query log. Anything that changes server
// behavior goes through the config file or environment, not HTTP.
package handlers

import (
	"log/slog"
	"time"

	"github.com/cvanloo/burrowdns/internal/config"
	"github.com/cvanloo/burrowdns/internal/database"
	"github.com/cvanloo/burrowdns/internal/server"
)

// Handler contains dependencies for API handlers.
type Handler struct {
	cfg        *config.Config
	logger     *slog.Logger
	instanceID string
	startTime  time.Time

	dnsStats func() server.DNSStatsSnapshot
	queryLog *database.DB // nil when the query log is disabled
}

// New creates a Handler with the given dependencies. dnsStats and queryLog
// may be nil; the corresponding endpoints degrade gracefully.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	instanceID string,
	dnsStats func() server.DNSStatsSnapshot,
	queryLog *database.DB,
) *Handler {
	return &Handler{
		cfg:        cfg,
		logger:     logger,
		instanceID: instanceID,
		startTime:  time.Now(),
		dnsStats:   dnsStats,
		queryLog:   queryLog,
	}
}
