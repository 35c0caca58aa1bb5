package http

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"trackpub/infrastructure/logger"
	"trackpub/usecase"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody caps inbound payloads at 1 MiB.
const maxWebhookBody = 1 << 20

type IWebhookHandler interface {
	Receive(ctx *gin.Context)
	ListReceipts(ctx *gin.Context)
}

type WebhookHandler struct {
	webhookUsecase usecase.IWebhookUsecase
}

func NewWebhookHandler(webhookUsecase usecase.IWebhookUsecase) IWebhookHandler {
	return &WebhookHandler{webhookUsecase: webhookUsecase}
}

// Receive stores the raw payload durably, acknowledges the provider with 202
// and dispatches asynchronously. The provider's delivery loop must never
// wait on our processing.
func (h *WebhookHandler) Receive(ctx *gin.Context) {
	provider := ctx.Param("provider")
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxWebhookBody))
	if err != nil || len(body) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "empty or unreadable body"})
		return
	}

	receipt, err := h.webhookUsecase.Ingest(ctx.Request.Context(), provider, body)
	if err != nil {
		logger.GetLogger().WithField("provider", provider).WithField("error", err.Error()).Error("Webhook ingest failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store webhook"})
		return
	}

	go func() {
		dispatchCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.webhookUsecase.Dispatch(dispatchCtx, receipt)
	}()

	ctx.JSON(http.StatusAccepted, gin.H{"receipt_id": receipt.ID})
}

func (h *WebhookHandler) ListReceipts(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	receipts, err := h.webhookUsecase.ListReceipts(ctx.Request.Context(), limit, offset)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"receipts": receipts, "count": len(receipts)})
}
