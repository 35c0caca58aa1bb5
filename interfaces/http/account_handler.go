package http

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"trackpub/domain/dto"
	"trackpub/infrastructure/logger"
	"trackpub/usecase"

	"github.com/gin-gonic/gin"
)

type IAccountHandler interface {
	List(ctx *gin.Context)
	Activate(ctx *gin.Context)
	GetAuthURL(ctx *gin.Context)
	HandleCallback(ctx *gin.Context)
	ConnectManual(ctx *gin.Context)
	Status(ctx *gin.Context)
}

type AccountHandler struct {
	accountUsecase usecase.IAccountUsecase
}

func NewAccountHandler(accountUsecase usecase.IAccountUsecase) IAccountHandler {
	return &AccountHandler{accountUsecase: accountUsecase}
}

func (h *AccountHandler) List(ctx *gin.Context) {
	accounts, err := h.accountUsecase.List(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"accounts": accounts, "count": len(accounts)})
}

func (h *AccountHandler) Activate(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("accountId"), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	if err := h.accountUsecase.Activate(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"activated": true, "account_id": id})
}

// GetAuthURL starts the OAuth connect flow.
func (h *AccountHandler) GetAuthURL(ctx *gin.Context) {
	state := ctx.DefaultQuery("state", "state-token")
	ctx.JSON(http.StatusOK, gin.H{"auth_url": h.accountUsecase.ConnectURL(state)})
}

// HandleCallback finishes the OAuth connect flow and stores the account.
func (h *AccountHandler) HandleCallback(ctx *gin.Context) {
	code := ctx.Query("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}
	account, err := h.accountUsecase.HandleCallback(ctx.Request.Context(), code)
	if err != nil {
		logger.GetLogger().WithField("error", err.Error()).Error("Account connect failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"connected": true, "account": account})
}

// ConnectManual stores tokens obtained out-of-band.
func (h *AccountHandler) ConnectManual(ctx *gin.Context) {
	var req dto.AccountConnectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	account, err := h.accountUsecase.ConnectManual(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, account)
}

// Status reports whether an active account is ready for publishing.
func (h *AccountHandler) Status(ctx *gin.Context) {
	account, err := h.accountUsecase.GetActive(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			ctx.JSON(http.StatusOK, gin.H{"connected": false})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"connected":    true,
		"account_id":   account.ID,
		"display_name": account.DisplayName,
		"channel_id":   account.ChannelID,
	})
}
