package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cvanloo/burrowdns/internal/config"
)

// GetConfig returns the effective configuration with secrets redacted.
func (h *Handler) GetConfig(c *gin.Context) {
	sanitized := *h.cfg
	if sanitized.API.APIKey != "" {
		sanitized.API.APIKey = "<redacted>"
	}
	c.JSON(http.StatusOK, configView(sanitized))
}

// configView shapes the config for JSON output.
func configView(cfg config.Config) gin.H {
	return gin.H{
		"server": gin.H{
			"host":    cfg.Server.Host,
			"port":    cfg.Server.Port,
			"workers": cfg.Server.Workers,
		},
		"resolver": gin.H{
			"mode":             cfg.Resolver.Mode,
			"upstream":         cfg.Resolver.Upstream,
			"root":             cfg.Resolver.Root,
			"exchange_timeout": cfg.Resolver.ExchangeTimeout,
			"max_delegations":  cfg.Resolver.MaxDelegations,
		},
		"query_log": gin.H{
			"enabled":  cfg.QueryLog.Enabled,
			"path":     cfg.QueryLog.Path,
			"max_rows": cfg.QueryLog.MaxRows,
		},
		"api": gin.H{
			"enabled": cfg.API.Enabled,
			"host":    cfg.API.Host,
			"port":    cfg.API.Port,
			"api_key": cfg.API.APIKey,
		},
	}
}
