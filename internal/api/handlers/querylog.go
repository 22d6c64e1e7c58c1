package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cvanloo/burrowdns/internal/database"
	"github.com/cvanloo/burrowdns/internal/helpers"
)

// maxQueryLogLimit caps how many entries one request may ask for.
const maxQueryLogLimit = 1000

// QueryLogResponse is the body of GET /api/v1/querylog.
type QueryLogResponse struct {
	Entries []database.QueryLogEntry `json:"entries"`
	Total   int64                    `json:"total"`
}

// QueryLog returns the most recent query log entries, newest first.
// The optional "limit" query parameter bounds the page size (default 100).
func (h *Handler) QueryLog(c *gin.Context) {
	if h.queryLog == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "query log is disabled"})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = helpers.ClampInt(n, 1, maxQueryLogLimit)
	}

	entries, err := h.queryLog.RecentQueries(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read query log"})
		return
	}
	total, err := h.queryLog.CountQueries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read query log"})
		return
	}

	if entries == nil {
		entries = []database.QueryLogEntry{}
	}
	c.JSON(http.StatusOK, QueryLogResponse{Entries: entries, Total: total})
}
