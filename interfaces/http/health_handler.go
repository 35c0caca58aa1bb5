package http

import (
	"net/http"
	"strconv"

	"trackpub/infrastructure/persistence"

	"github.com/gin-gonic/gin"
)

type IHealthHandler interface {
	Healthz(ctx *gin.Context)
	Snapshot(ctx *gin.Context)
	History(ctx *gin.Context)
}

type HealthHandler struct {
	healthRepository persistence.IHealthRepository
}

func NewHealthHandler(healthRepository persistence.IHealthRepository) IHealthHandler {
	return &HealthHandler{healthRepository: healthRepository}
}

// Healthz returns OK for load balancer probes.
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Snapshot probes the backing services and reports per-component status.
func (h *HealthHandler) Snapshot(ctx *gin.Context) {
	snap, err := h.healthRepository.Snapshot(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusOK
	if !snap.Healthy() {
		status = http.StatusServiceUnavailable
	}
	ctx.JSON(status, snap)
}

func (h *HealthHandler) History(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	snaps, err := h.healthRepository.History(ctx.Request.Context(), limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"snapshots": snaps, "count": len(snaps)})
}
