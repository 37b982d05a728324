package api

import (
	"errors"
	"net/http"

	"lmx_presale/internal/model"
	"lmx_presale/internal/service"
	"lmx_presale/pkg/auth"
	"lmx_presale/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type purchaseRoutes struct {
	ps service.PurchaseServiceI
	bs service.BonusServiceI
}

func NewPurchaseRoutes(handler *gin.RouterGroup, ps service.PurchaseServiceI, bs service.BonusServiceI, a *auth.ServiceAuth) {
	r := &purchaseRoutes{ps: ps, bs: bs}
	h := handler.Group("/purchases")
	h.Use(a.Middleware())
	{
		h.POST("/", r.CreatePurchase)
		h.POST("/:purchase_id/confirm", r.ConfirmPurchase)
		h.POST("/:purchase_id/bonus", r.ProcessBonus)
	}
}

type CreatePurchaseRequest struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
	Tokens    string `json:"tokens" binding:"required"`
}

func (r *purchaseRoutes) CreatePurchase(c *gin.Context) {
	log := logger.Logger()

	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account_id"})
		return
	}

	p, err := r.ps.CreatePurchase(c.Request.Context(), accountID, req.Tokens)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTokenAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "tokens must be a positive amount"})
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		default:
			log.Error("failed to create purchase", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create purchase"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"purchase_id": p.ID,
		"account_id":  p.AccountID,
		"status":      p.Status,
		"tokens":      p.TokensAllocated.String(),
	})
}

type ConfirmPurchaseRequest struct {
	Chain       string `json:"chain" binding:"required,oneof=evm solana"`
	TxReference string `json:"tx_reference" binding:"required"`
}

func (r *purchaseRoutes) ConfirmPurchase(c *gin.Context) {
	log := logger.Logger()

	purchaseID, err := uuid.Parse(c.Param("purchase_id"))
	if err != nil {
		log.Error("failed to parse purchase_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase_id"})
		return
	}

	var req ConfirmPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err = r.ps.ConfirmPurchase(c.Request.Context(), purchaseID, model.Chain(req.Chain), req.TxReference)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPurchaseNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "purchase not found"})
		case errors.Is(err, service.ErrPurchaseNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "purchase is not pending"})
		case errors.Is(err, service.ErrVerificationFailed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "transaction could not be verified"})
		case errors.Is(err, service.ErrInsufficientPayment):
			c.JSON(http.StatusBadRequest, gin.H{"error": "transferred amount is below the payment minimum"})
		case errors.Is(err, service.ErrWalletNotOnAccount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "transaction signer does not match a wallet on this account"})
		default:
			log.Error("failed to confirm purchase", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm purchase"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ProcessBonus is the explicit accrual trigger. Webhook retries land here;
// repeat calls are harmless and report processed=false.
func (r *purchaseRoutes) ProcessBonus(c *gin.Context) {
	log := logger.Logger()

	purchaseID, err := uuid.Parse(c.Param("purchase_id"))
	if err != nil {
		log.Error("failed to parse purchase_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase_id"})
		return
	}

	processed, err := r.bs.ProcessBonus(c.Request.Context(), purchaseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPurchaseNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "purchase not found"})
		case errors.Is(err, service.ErrReferrerNotFound):
			log.Error("referrer integrity fault during accrual",
				zap.String("purchase_id", purchaseID.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process bonus"})
		default:
			log.Error("failed to process bonus", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process bonus"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"processed": processed})
}
