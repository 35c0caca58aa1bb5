package http

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"trackpub/domain/dto"
	"trackpub/infrastructure/logger"
	"trackpub/infrastructure/realtime"
	"trackpub/usecase"

	"github.com/gin-gonic/gin"
)

type ITrackHandler interface {
	Create(ctx *gin.Context)
	List(ctx *gin.Context)
	Get(ctx *gin.Context)
	Update(ctx *gin.Context)
	Process(ctx *gin.Context)
	Publish(ctx *gin.Context)
	PublishAll(ctx *gin.Context)
	Stop(ctx *gin.Context)
	ResetPublish(ctx *gin.Context)
	Stream(ctx *gin.Context)
}

type TrackHandler struct {
	trackUsecase   usecase.ITrackUsecase
	publishUsecase usecase.IPublishUsecase
	hub            *realtime.Hub
}

func NewTrackHandler(trackUsecase usecase.ITrackUsecase, publishUsecase usecase.IPublishUsecase, hub *realtime.Hub) ITrackHandler {
	return &TrackHandler{trackUsecase: trackUsecase, publishUsecase: publishUsecase, hub: hub}
}

func trackID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("trackId"), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid track id"})
		return 0, false
	}
	return id, true
}

func (h *TrackHandler) Create(ctx *gin.Context) {
	var req dto.TrackCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	track, err := h.trackUsecase.Create(ctx.Request.Context(), &req)
	if err != nil {
		logger.GetLogger().WithField("error", err.Error()).Warn("Track creation failed")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, track)
}

func (h *TrackHandler) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	tracks, err := h.trackUsecase.List(ctx.Request.Context(), limit, offset)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tracks": tracks, "count": len(tracks)})
}

func (h *TrackHandler) Get(ctx *gin.Context) {
	id, ok := trackID(ctx)
	if !ok {
		return
	}
	track, err := h.trackUsecase.GetByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, track)
}

func (h *TrackHandler) Update(ctx *gin.Context) {
	id, ok := trackID(ctx)
	if !ok {
		return
	}
	var req dto.TrackUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	track, err := h.trackUsecase.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, track)
}

// Process queues the fetch+transcode pipeline for the track.
func (h *TrackHandler) Process(ctx *gin.Context) {
	id, ok := trackID(ctx)
	if !ok {
		return
	}
	job, err := h.trackUsecase.RequestProcess(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
			return
		}
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"queued": true, "job": job})
}

// Publish queues an upload for the track.
func (h *TrackHandler) Publish(ctx *gin.Context) {
	id, ok := trackID(ctx)
	if !ok {
		return
	}
	job, err := h.trackUsecase.RequestPublish(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
			return
		}
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"queued": true, "job": job})
}

// PublishAll uploads every eligible track synchronously (admin/dev utility).
func (h *TrackHandler) PublishAll(ctx *gin.Context) {
	limit := 20
	if v := ctx.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if err := h.publishUsecase.PublishAllPending(ctx.Request.Context(), limit); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"processed": false, "error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"processed": true, "limit": limit})
}

func (h *TrackHandler) Stop(ctx *gin.Context) {
	id, ok := trackID(ctx)
	if !ok {
		return
	}
	if err := h.trackUsecase.Stop(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
			return
		}
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"stopped": true})
}

func (h *TrackHandler) ResetPublish(ctx *gin.Context) {
	id, ok := trackID(ctx)
	if !ok {
		return
	}
	if err := h.trackUsecase.ResetPublish(ctx.Request.Context(), id); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reset": true})
}

// Stream serves the SSE feed of track status updates.
func (h *TrackHandler) Stream(ctx *gin.Context) {
	h.hub.Serve(ctx)
}
