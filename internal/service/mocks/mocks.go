package mocks

import (
	"context"
	"time"

	"lmx_presale/internal/model"
	"lmx_presale/pkg/chainrpc"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) GetAccountByReferralCode(ctx context.Context, code string) (*model.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockReferralRepository) GetAccountByWalletAddress(ctx context.Context, address string) (*model.Account, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockReferralRepository) CreateAccountWithWallet(ctx context.Context, acc *model.Account, w *model.Wallet) error {
	args := m.Called(ctx, acc, w)
	return args.Error(0)
}

func (m *MockReferralRepository) SetReferrer(ctx context.Context, accountID, referrerID uuid.UUID) error {
	args := m.Called(ctx, accountID, referrerID)
	return args.Error(0)
}

type MockCodeRepository struct {
	mock.Mock
}

func (m *MockCodeRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) Generate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockBonusRepository struct {
	mock.Mock
}

func (m *MockBonusRepository) GetPurchaseAccrual(ctx context.Context, purchaseID uuid.UUID) (*model.PurchaseAccrual, error) {
	args := m.Called(ctx, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PurchaseAccrual), args.Error(1)
}

func (m *MockBonusRepository) CreateBonus(ctx context.Context, b *model.ReferralBonus) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPurchaseRepository) GetPurchaseByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) CompletePurchase(ctx context.Context, id uuid.UUID, txReference string) error {
	args := m.Called(ctx, id, txReference)
	return args.Error(0)
}

func (m *MockPurchaseRepository) GetWalletsByAccount(ctx context.Context, accountID uuid.UUID) ([]*model.Wallet, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Wallet), args.Error(1)
}

func (m *MockPurchaseRepository) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

type MockReportingRepository struct {
	mock.Mock
}

func (m *MockReportingRepository) GetReferralStats(ctx context.Context, accountID uuid.UUID) (*model.ReferralStats, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferralStats), args.Error(1)
}

func (m *MockReportingRepository) GetReferrerInfoByCode(ctx context.Context, code string) (*model.ReferrerInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReferrerInfo), args.Error(1)
}

func (m *MockReportingRepository) GetReferees(ctx context.Context, accountID uuid.UUID) ([]*model.Referee, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Referee), args.Error(1)
}

type MockBonusService struct {
	mock.Mock
}

func (m *MockBonusService) ProcessBonus(ctx context.Context, purchaseID uuid.UUID) (bool, error) {
	args := m.Called(ctx, purchaseID)
	return args.Bool(0), args.Error(1)
}

type MockStatsCache struct {
	mock.Mock
}

func (m *MockStatsCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockStatsCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyTransfer(ctx context.Context, chain model.Chain, txReference string) (*chainrpc.VerifiedTransfer, error) {
	args := m.Called(ctx, chain, txReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chainrpc.VerifiedTransfer), args.Error(1)
}
