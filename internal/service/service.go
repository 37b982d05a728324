package service

import (
	"context"
	"errors"

	"lmx_presale/internal/model"

	"github.com/google/uuid"
)

var (
	ErrInvalidReferralCode     = errors.New("invalid referral code")
	ErrSelfReferral            = errors.New("self referral is not allowed")
	ErrReferrerAlreadySet      = errors.New("referrer already set")
	ErrCodeGenerationExhausted = errors.New("referral code generation attempts exhausted")

	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrReferrerNotFound = errors.New("referrer not found")

	ErrAccountNotFound     = errors.New("account not found")
	ErrVerificationFailed  = errors.New("transaction verification failed")
	ErrInsufficientPayment = errors.New("transfer amount below payment minimum")
	ErrWalletNotOnAccount  = errors.New("wallet does not belong to account")
	ErrPurchaseNotPending  = errors.New("purchase is not pending")
	ErrInvalidChain        = errors.New("unsupported chain")
	ErrInvalidTokenAmount  = errors.New("token amount must be positive")
)

type Service struct {
	*ReferralService
	*BonusService
	*PurchaseService
	*ReportingService
}

func NewService(rs *ReferralService, bs *BonusService, ps *PurchaseService, reps *ReportingService) *Service {
	return &Service{
		ReferralService:  rs,
		BonusService:     bs,
		PurchaseService:  ps,
		ReportingService: reps,
	}
}

type ReferralServiceI interface {
	Attribute(ctx context.Context, walletAddress string, chain model.Chain, code string) (*model.AttributionResult, error)
}

type BonusServiceI interface {
	ProcessBonus(ctx context.Context, purchaseID uuid.UUID) (bool, error)
}

type PurchaseServiceI interface {
	CreatePurchase(ctx context.Context, accountID uuid.UUID, tokens string) (*model.Purchase, error)
	ConfirmPurchase(ctx context.Context, purchaseID uuid.UUID, chain model.Chain, txReference string) error
}

type ReportingServiceI interface {
	GetReferralStats(ctx context.Context, accountID uuid.UUID) (*model.ReferralStats, error)
	GetReferrerInfo(ctx context.Context, code string) (*model.ReferrerInfo, error)
	GetReferees(ctx context.Context, accountID uuid.UUID) ([]*model.Referee, error)
}

// CodeGenerator produces collision-checked referral codes.
type CodeGenerator interface {
	Generate(ctx context.Context) (string, error)
}

type ReferralRepository interface {
	GetAccountByReferralCode(ctx context.Context, code string) (*model.Account, error)
	GetAccountByWalletAddress(ctx context.Context, address string) (*model.Account, error)
	CreateAccountWithWallet(ctx context.Context, acc *model.Account, w *model.Wallet) error
	SetReferrer(ctx context.Context, accountID, referrerID uuid.UUID) error
}

type CodeRepository interface {
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
}

type BonusRepository interface {
	GetPurchaseAccrual(ctx context.Context, purchaseID uuid.UUID) (*model.PurchaseAccrual, error)
	CreateBonus(ctx context.Context, b *model.ReferralBonus) error
}

type PurchaseRepository interface {
	CreatePurchase(ctx context.Context, p *model.Purchase) error
	GetPurchaseByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	CompletePurchase(ctx context.Context, id uuid.UUID, txReference string) error
	GetWalletsByAccount(ctx context.Context, accountID uuid.UUID) ([]*model.Wallet, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
}

type ReportingRepository interface {
	GetReferralStats(ctx context.Context, accountID uuid.UUID) (*model.ReferralStats, error)
	GetReferrerInfoByCode(ctx context.Context, code string) (*model.ReferrerInfo, error)
	GetReferees(ctx context.Context, accountID uuid.UUID) ([]*model.Referee, error)
}
