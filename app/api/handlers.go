package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/boilerevents/boiler-events/app/events"
)

func NewHandler(pipeline PipelineRunner, health HealthChecker, version string) *Handler {
	return &Handler{
		pipeline: pipeline,
		health:   health,
		version:  version,
	}
}

// GetEvents serves the normalized event array for the requested audience.
// A missing audience parameter defaults to the student view.
func (h *Handler) GetEvents(c *gin.Context) {
	audience, err := events.ParseAudience(c.Query("audience"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid audience",
			"details": err.Error(),
		})
		return
	}

	result, err := h.pipeline.Run(c.Request.Context(), audience)
	if err != nil {
		slog.Error("Pipeline failed", "audience", audience, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to fetch events",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
		"audiences": []events.Audience{events.AudienceStudent, events.AudienceFaculty},
	}

	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			health["cache"] = "unreachable"
		} else {
			health["cache"] = "ok"
		}
	} else {
		health["cache"] = "in-memory"
	}

	c.JSON(http.StatusOK, health)
}
