package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lmx_presale/internal/model"
	"lmx_presale/internal/repository"
	"lmx_presale/pkg/logger"
	"lmx_presale/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultBonusPercent is the referrer's cut of a referred purchase. Single
// source of truth, overridable through config.
var DefaultBonusPercent = decimal.NewFromInt(5)

var oneHundred = decimal.NewFromInt(100)

type BonusService struct {
	repo    BonusRepository
	percent decimal.Decimal
}

func NewBonusService(repo BonusRepository, percent decimal.Decimal) *BonusService {
	if percent.IsZero() {
		percent = DefaultBonusPercent
	}
	return &BonusService{
		repo:    repo,
		percent: percent,
	}
}

// ProcessBonus credits the referrer of the purchase's owner, exactly once
// per purchase. Returns true when a ledger entry was written, false for any
// benign skip: bonus already processed, purchase not completed yet, or no
// referrer to credit. Safe to call repeatedly and concurrently.
func (s *BonusService) ProcessBonus(ctx context.Context, purchaseID uuid.UUID) (bool, error) {
	log := logger.Logger()

	pa, err := s.repo.GetPurchaseAccrual(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrPurchaseNotFound
		}
		return false, fmt.Errorf("failed to load purchase: %w", err)
	}

	if pa.BonusProcessed {
		metrics.BonusAccrualsTotal.WithLabelValues("already_processed").Inc()
		return false, nil
	}
	if pa.Status != model.PurchaseCompleted {
		metrics.BonusAccrualsTotal.WithLabelValues("not_completed").Inc()
		return false, nil
	}
	if pa.ReferrerID == nil {
		metrics.BonusAccrualsTotal.WithLabelValues("no_referrer").Inc()
		return false, nil
	}
	if !pa.ReferrerExists {
		log.Error("referrer row missing for attributed account",
			zap.String("purchase_id", purchaseID.String()),
			zap.String("account_id", pa.AccountID.String()),
			zap.String("referrer_id", pa.ReferrerID.String()))
		metrics.BonusAccrualsTotal.WithLabelValues("integrity_fault").Inc()
		return false, ErrReferrerNotFound
	}

	bonus := &model.ReferralBonus{
		ID:             uuid.New(),
		PurchaseID:     purchaseID,
		ReferrerID:     *pa.ReferrerID,
		PurchaseAmount: pa.TokensAllocated,
		BonusPercent:   s.percent,
		BonusAmount:    pa.TokensAllocated.Mul(s.percent).Div(oneHundred),
		Status:         model.BonusProcessed,
		CreatedAt:      time.Now().UTC(),
	}

	err = s.repo.CreateBonus(ctx, bonus)
	if err != nil {
		if errors.Is(err, repository.ErrBonusProcessed) {
			// A concurrent caller won the constraint race.
			metrics.BonusAccrualsTotal.WithLabelValues("already_processed").Inc()
			return false, nil
		}
		return false, fmt.Errorf("failed to create referral bonus: %w", err)
	}

	log.Info("referral bonus accrued",
		zap.String("purchase_id", purchaseID.String()),
		zap.String("referrer_id", pa.ReferrerID.String()),
		zap.String("bonus_amount", bonus.BonusAmount.String()))
	metrics.BonusAccrualsTotal.WithLabelValues("accrued").Inc()

	return true, nil
}
