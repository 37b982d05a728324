package api

import (
	"errors"
	"net/http"

	"lmx_presale/internal/model"
	"lmx_presale/internal/service"
	"lmx_presale/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type referralRoutes struct {
	rs  service.ReferralServiceI
	rep service.ReportingServiceI
}

func NewReferralRoutes(handler *gin.RouterGroup, rs service.ReferralServiceI, rep service.ReportingServiceI) {
	r := &referralRoutes{rs: rs, rep: rep}
	h := handler.Group("/referral")
	{
		h.POST("/apply", r.ApplyReferralCode)
		h.GET("/stats/:account_id", r.GetReferralStats)
		h.GET("/code/:code", r.GetReferrerInfo)
		h.GET("/:account_id/referees", r.GetReferees)
	}
}

type ApplyReferralRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	Chain         string `json:"chain" binding:"required,oneof=evm solana"`
	ReferralCode  string `json:"referral_code" binding:"required"`
}

type ApplyReferralResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	AccountID  string `json:"account_id,omitempty"`
	NewAccount bool   `json:"new_account,omitempty"`
}

func (r *referralRoutes) ApplyReferralCode(c *gin.Context) {
	log := logger.Logger()

	var req ApplyReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ApplyReferralResponse{Success: false, Message: "invalid request"})
		return
	}

	result, err := r.rs.Attribute(c.Request.Context(), req.WalletAddress, model.Chain(req.Chain), req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReferralCode):
			c.JSON(http.StatusNotFound, ApplyReferralResponse{Success: false, Message: "referral code not found"})
		case errors.Is(err, service.ErrSelfReferral):
			c.JSON(http.StatusBadRequest, ApplyReferralResponse{Success: false, Message: "you cannot use your own referral code"})
		case errors.Is(err, service.ErrReferrerAlreadySet):
			c.JSON(http.StatusConflict, ApplyReferralResponse{Success: false, Message: "a referrer is already set for this account"})
		default:
			log.Error("failed to apply referral code", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ApplyReferralResponse{Success: false, Message: "failed to apply referral code"})
		}
		return
	}

	message := "referral code applied"
	if result.AlreadyAttributed {
		message = "referral code was already applied"
	}

	c.JSON(http.StatusOK, ApplyReferralResponse{
		Success:    true,
		Message:    message,
		AccountID:  result.AccountID.String(),
		NewAccount: result.AccountCreated,
	})
}

func (r *referralRoutes) GetReferralStats(c *gin.Context) {
	log := logger.Logger()

	accountID, err := uuid.Parse(c.Param("account_id"))
	if err != nil {
		log.Error("failed to parse account_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account_id"})
		return
	}

	stats, err := r.rep.GetReferralStats(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		log.Error("failed to get referral stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code":  stats.ReferralCode,
		"referral_count": stats.ReferralCount,
		"total_bonus":    stats.TotalBonus.String(),
	})
}

func (r *referralRoutes) GetReferrerInfo(c *gin.Context) {
	log := logger.Logger()

	info, err := r.rep.GetReferrerInfo(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidReferralCode) {
			c.JSON(http.StatusNotFound, gin.H{"error": "referral code not found"})
			return
		}
		log.Error("failed to get referrer info", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referrer info"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrer_id": info.ReferrerID,
		"username":    info.Username,
		"verified":    info.Verified,
	})
}

type refereeResponse struct {
	AccountID       string   `json:"account_id"`
	Username        string   `json:"username"`
	WalletAddresses []string `json:"wallet_addresses"`
	JoinedAt        string   `json:"joined_at"`
}

func (r *referralRoutes) GetReferees(c *gin.Context) {
	log := logger.Logger()

	accountID, err := uuid.Parse(c.Param("account_id"))
	if err != nil {
		log.Error("failed to parse account_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account_id"})
		return
	}

	referees, err := r.rep.GetReferees(c.Request.Context(), accountID)
	if err != nil {
		log.Error("failed to get referees", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referees"})
		return
	}

	out := make([]refereeResponse, len(referees))
	for i, ref := range referees {
		out[i] = refereeResponse{
			AccountID:       ref.AccountID.String(),
			Username:        ref.Username,
			WalletAddresses: ref.WalletAddresses,
			JoinedAt:        ref.JoinedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	c.JSON(http.StatusOK, out)
}
