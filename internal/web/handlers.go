package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/antigravity-tools/quota-monitor/internal/models"
	"github.com/antigravity-tools/quota-monitor/internal/quota"
	"github.com/antigravity-tools/quota-monitor/internal/version"
)

func handlePing() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": version.Get(),
		})
	}
}

// handleGetQuota returns the current quota report. A missing language server
// maps to 503; an unreachable or misbehaving one maps to 500.
func handleGetQuota(svc QuotaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := svc.Refresh()
		if err != nil {
			if errors.Is(err, quota.ErrNotFound) {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error": "Language Server not found. Is Antigravity running?",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func handleInvalidate(svc QuotaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc.Invalidate()
		c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
	}
}

// handleGetHistory returns stored snapshots. The optional hours query
// parameter bounds the window; it defaults to 24 and rejects garbage.
func handleGetHistory(svc QuotaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		hours := 24
		if raw := c.Query("hours"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
				return
			}
			hours = parsed
		}

		since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
		snapshots, err := svc.History(since)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if snapshots == nil {
			snapshots = []models.QuotaSnapshot{}
		}

		c.JSON(http.StatusOK, gin.H{
			"snapshots": snapshots,
			"count":     len(snapshots),
		})
	}
}
