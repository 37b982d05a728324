package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lmx_presale/internal/model"
	"lmx_presale/internal/repository"
	"lmx_presale/pkg/chainrpc"
	"lmx_presale/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PurchaseService struct {
	repo     PurchaseRepository
	verifier chainrpc.Verifier
	bonus    BonusServiceI

	// minPayment is the smallest verified on-chain transfer, in native
	// currency units, accepted as payment. Zero disables the floor;
	// zero-value transfers are rejected regardless.
	minPayment decimal.Decimal
}

func NewPurchaseService(repo PurchaseRepository, verifier chainrpc.Verifier, bonus BonusServiceI, minPayment decimal.Decimal) *PurchaseService {
	return &PurchaseService{
		repo:       repo,
		verifier:   verifier,
		bonus:      bonus,
		minPayment: minPayment,
	}
}

func (s *PurchaseService) CreatePurchase(ctx context.Context, accountID uuid.UUID, tokens string) (*model.Purchase, error) {
	amount, err := decimal.NewFromString(tokens)
	if err != nil || !amount.IsPositive() {
		return nil, ErrInvalidTokenAmount
	}

	_, err = s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	p := &model.Purchase{
		ID:              uuid.New(),
		AccountID:       accountID,
		Status:          model.PurchasePending,
		TokensAllocated: amount,
		CreatedAt:       time.Now().UTC(),
	}

	err = s.repo.CreatePurchase(ctx, p)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// ConfirmPurchase checks the on-chain transaction through the verifier,
// requires the transferred amount to clear the payment minimum and the
// signer to be one of the buyer's wallets, then flips the purchase to
// completed. Bonus accrual runs asynchronously afterwards;
// the sweeper picks up anything this kick misses.
func (s *PurchaseService) ConfirmPurchase(ctx context.Context, purchaseID uuid.UUID, chain model.Chain, txReference string) error {
	log := logger.Logger()

	if !chain.Valid() {
		return ErrInvalidChain
	}

	p, err := s.repo.GetPurchaseByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPurchaseNotFound
		}
		return fmt.Errorf("failed to load purchase: %w", err)
	}
	if p.Status == model.PurchaseCompleted {
		return nil
	}
	if p.Status != model.PurchasePending {
		return ErrPurchaseNotPending
	}

	transfer, err := s.verifier.VerifyTransfer(ctx, chain, txReference)
	if err != nil {
		log.Warn("transaction verification failed",
			zap.String("purchase_id", purchaseID.String()),
			zap.String("tx_reference", txReference),
			zap.Error(err))
		return ErrVerificationFailed
	}
	if !transfer.Amount.IsPositive() || transfer.Amount.LessThan(s.minPayment) {
		log.Warn("verified transfer below payment minimum",
			zap.String("purchase_id", purchaseID.String()),
			zap.String("amount", transfer.Amount.String()),
			zap.String("min_payment", s.minPayment.String()))
		return ErrInsufficientPayment
	}

	wallets, err := s.repo.GetWalletsByAccount(ctx, p.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load account wallets: %w", err)
	}
	if !signerOwnsWallet(transfer.Sender, wallets) {
		return ErrWalletNotOnAccount
	}

	err = s.repo.CompletePurchase(ctx, purchaseID, txReference)
	if err != nil {
		if errors.Is(err, repository.ErrPurchaseNotPending) {
			// Concurrent confirm already won.
			return nil
		}
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPurchaseNotFound
		}
		return fmt.Errorf("failed to complete purchase: %w", err)
	}

	go func() {
		bctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.bonus.ProcessBonus(bctx, purchaseID); err != nil {
			log.Error("async bonus accrual failed",
				zap.String("purchase_id", purchaseID.String()),
				zap.Error(err))
		}
	}()

	return nil
}

func signerOwnsWallet(sender string, wallets []*model.Wallet) bool {
	for _, w := range wallets {
		if strings.EqualFold(w.Address, sender) {
			return true
		}
	}
	return false
}
