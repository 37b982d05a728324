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
	"go.uber.org/zap"
)

type ReferralService struct {
	repo ReferralRepository
	gen  CodeGenerator
}

func NewReferralService(repo ReferralRepository, gen CodeGenerator) *ReferralService {
	return &ReferralService{
		repo: repo,
		gen:  gen,
	}
}

// Attribute links the account behind walletAddress to the referrer behind
// code. The first attribution wins and is never overwritten: repeating the
// same attribution is a no-op, attempting a different one fails with
// ErrReferrerAlreadySet. A wallet that has never been seen gets a fresh
// account, with its own referral code, created as part of the attribution.
func (s *ReferralService) Attribute(ctx context.Context, walletAddress string, chain model.Chain, code string) (*model.AttributionResult, error) {
	if !chain.Valid() {
		return nil, ErrInvalidChain
	}

	referrer, err := s.repo.GetAccountByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.AttributionsTotal.WithLabelValues("invalid_code").Inc()
			return nil, ErrInvalidReferralCode
		}
		return nil, fmt.Errorf("failed to resolve referrer: %w", err)
	}

	account, err := s.repo.GetAccountByWalletAddress(ctx, walletAddress)
	if errors.Is(err, repository.ErrNotFound) {
		result, createErr := s.createAttributed(ctx, walletAddress, chain, referrer.ID)
		if createErr == nil {
			metrics.AttributionsTotal.WithLabelValues("attributed").Inc()
			return result, nil
		}
		if !errors.Is(createErr, repository.ErrWalletExists) {
			return nil, createErr
		}
		// Lost the creation race, the wallet exists now. Fall through to
		// the existing-account path.
		account, err = s.repo.GetAccountByWalletAddress(ctx, walletAddress)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account by wallet: %w", err)
	}

	if account.ID == referrer.ID {
		metrics.AttributionsTotal.WithLabelValues("self_referral").Inc()
		return nil, ErrSelfReferral
	}

	err = s.repo.SetReferrer(ctx, account.ID, referrer.ID)
	switch {
	case err == nil:
		metrics.AttributionsTotal.WithLabelValues("attributed").Inc()
		return &model.AttributionResult{
			AccountID:  account.ID,
			ReferrerID: referrer.ID,
		}, nil
	case errors.Is(err, repository.ErrAlreadyAttributed):
		metrics.AttributionsTotal.WithLabelValues("repeat").Inc()
		return &model.AttributionResult{
			AccountID:         account.ID,
			ReferrerID:        referrer.ID,
			AlreadyAttributed: true,
		}, nil
	case errors.Is(err, repository.ErrReferrerConflict):
		metrics.AttributionsTotal.WithLabelValues("conflict").Inc()
		return nil, ErrReferrerAlreadySet
	default:
		return nil, fmt.Errorf("failed to set referrer: %w", err)
	}
}

// createAttributed creates the referee account with the referrer already
// set, so attribution for a brand-new wallet commits in one transaction.
// A referral code collision on insert re-rolls the code.
func (s *ReferralService) createAttributed(ctx context.Context, walletAddress string, chain model.Chain, referrerID uuid.UUID) (*model.AttributionResult, error) {
	for attempt := 0; attempt < 2; attempt++ {
		newCode, err := s.gen.Generate(ctx)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		account := &model.Account{
			ID:           uuid.New(),
			ReferralCode: newCode,
			ReferrerID:   &referrerID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		wallet := &model.Wallet{
			Address:   walletAddress,
			AccountID: account.ID,
			Chain:     chain,
			CreatedAt: now,
		}

		err = s.repo.CreateAccountWithWallet(ctx, account, wallet)
		if errors.Is(err, repository.ErrCodeExists) {
			logger.Logger().Warn("referral code collided on insert, re-rolling",
				zap.String("code", newCode))
			continue
		}
		if err != nil {
			return nil, err
		}

		return &model.AttributionResult{
			AccountID:      account.ID,
			ReferrerID:     referrerID,
			AccountCreated: true,
		}, nil
	}

	return nil, ErrCodeGenerationExhausted
}
