package service

import (
	"context"
	"testing"

	"lmx_presale/internal/model"
	"lmx_presale/internal/repository"
	"lmx_presale/internal/service/mocks"
	"lmx_presale/pkg/chainrpc"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPurchaseService_CreatePurchase(t *testing.T) {
	accountID := uuid.New()

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		service := NewPurchaseService(&mocks.MockPurchaseRepository{}, &mocks.MockVerifier{}, &mocks.MockBonusService{}, decimal.Zero)

		for _, tokens := range []string{"0", "-5", "abc", ""} {
			_, err := service.CreatePurchase(context.Background(), accountID, tokens)
			assert.ErrorIs(t, err, ErrInvalidTokenAmount, "tokens=%q", tokens)
		}
	})

	t.Run("creates a pending purchase", func(t *testing.T) {
		mockRepo := &mocks.MockPurchaseRepository{}
		mockRepo.On("GetAccountByID", mock.Anything, accountID).
			Return(&model.Account{ID: accountID}, nil)
		mockRepo.On("CreatePurchase", mock.Anything, mock.MatchedBy(func(p *model.Purchase) bool {
			return p.AccountID == accountID &&
				p.Status == model.PurchasePending &&
				p.TokensAllocated.Equal(decimal.RequireFromString("2000"))
		})).Return(nil)

		service := NewPurchaseService(mockRepo, &mocks.MockVerifier{}, &mocks.MockBonusService{}, decimal.Zero)

		p, err := service.CreatePurchase(context.Background(), accountID, "2000")
		assert.NoError(t, err)
		assert.Equal(t, model.PurchasePending, p.Status)

		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown account", func(t *testing.T) {
		mockRepo := &mocks.MockPurchaseRepository{}
		mockRepo.On("GetAccountByID", mock.Anything, accountID).
			Return(nil, repository.ErrNotFound)

		service := NewPurchaseService(mockRepo, &mocks.MockVerifier{}, &mocks.MockBonusService{}, decimal.Zero)

		_, err := service.CreatePurchase(context.Background(), accountID, "2000")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestPurchaseService_ConfirmPurchase(t *testing.T) {
	purchaseID := uuid.New()
	accountID := uuid.New()

	pending := func() *model.Purchase {
		return &model.Purchase{
			ID:              purchaseID,
			AccountID:       accountID,
			Status:          model.PurchasePending,
			TokensAllocated: decimal.NewFromInt(2000),
		}
	}
	wallets := []*model.Wallet{
		{Address: "0xAbC123", AccountID: accountID, Chain: model.ChainEVM},
	}

	t.Run("verifies and completes", func(t *testing.T) {
		mockRepo := &mocks.MockPurchaseRepository{}
		mockVerifier := &mocks.MockVerifier{}
		mockBonus := &mocks.MockBonusService{}

		mockRepo.On("GetPurchaseByID", mock.Anything, purchaseID).Return(pending(), nil)
		mockVerifier.On("VerifyTransfer", mock.Anything, model.ChainEVM, "0xtx").
			Return(&chainrpc.VerifiedTransfer{Sender: "0xabc123", Amount: decimal.NewFromInt(1)}, nil)
		mockRepo.On("GetWalletsByAccount", mock.Anything, accountID).Return(wallets, nil)
		mockRepo.On("CompletePurchase", mock.Anything, purchaseID, "0xtx").Return(nil)
		mockBonus.On("ProcessBonus", mock.Anything, purchaseID).Return(true, nil).Maybe()

		service := NewPurchaseService(mockRepo, mockVerifier, mockBonus, decimal.RequireFromString("0.01"))

		err := service.ConfirmPurchase(context.Background(), purchaseID, model.ChainEVM, "0xtx")
		assert.NoError(t, err)

		mockRepo.AssertExpectations(t)
		mockVerifier.AssertExpectations(t)
	})

	t.Run("already completed is a no-op", func(t *testing.T) {
		mockRepo := &mocks.MockPurchaseRepository{}
		completed := pending()
		completed.Status = model.PurchaseCompleted
		mockRepo.On("GetPurchaseByID", mock.Anything, purchaseID).Return(completed, nil)

		service := NewPurchaseService(mockRepo, &mocks.MockVerifier{}, &mocks.MockBonusService{}, decimal.Zero)

		err := service.ConfirmPurchase(context.Background(), purchaseID, model.ChainEVM, "0xtx")
		assert.NoError(t, err)

		mockRepo.AssertNotCalled(t, "CompletePurchase", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("verification failure", func(t *testing.T) {
		mockRepo := &mocks.MockPurchaseRepository{}
		mockVerifier := &mocks.MockVerifier{}

		mockRepo.On("GetPurchaseByID", mock.Anything, purchaseID).Return(pending(), nil)
		mockVerifier.On("VerifyTransfer", mock.Anything, model.ChainEVM, "0xtx").
			Return(nil, chainrpc.ErrTxNotFound)

		service := NewPurchaseService(mockRepo, mockVerifier, &mocks.MockBonusService{}, decimal.Zero)

		err := service.ConfirmPurchase(context.Background(), purchaseID, model.ChainEVM, "0xtx")
		assert.ErrorIs(t, err, ErrVerificationFailed)
	})

	t.Run("zero-value transfer is rejected", func(t *testing.T) {
		mockRepo := &mocks.MockPurchaseRepository{}
		mockVerifier := &mocks.MockVerifier{}

		mockRepo.On("GetPurchaseByID", mock.Anything, purchaseID).Return(pending(), nil)
		mockVerifier.On("VerifyTransfer", mock.Anything, model.ChainEVM, "0xtx").
			Return(&chainrpc.VerifiedTransfer{Sender: "0xAbC123", Amount: decimal.Zero}, nil)

		service := NewPurchaseService(mockRepo, mockVerifier, &mocks.MockBonusService{}, decimal.Zero)

		err := service.ConfirmPurchase(context.Background(), purchaseID, model.ChainEVM, "0xtx")
		assert.ErrorIs(t, err, ErrInsufficientPayment)

		mockRepo.AssertNotCalled(t, "CompletePurchase", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("transfer below the payment minimum", func(t *testing.T) {
		mockRepo := &mocks.MockPurchaseRepository{}
		mockVerifier := &mocks.MockVerifier{}

		mockRepo.On("GetPurchaseByID", mock.Anything, purchaseID).Return(pending(), nil)
		mockVerifier.On("VerifyTransfer", mock.Anything, model.ChainEVM, "0xtx").
			Return(&chainrpc.VerifiedTransfer{Sender: "0xAbC123", Amount: decimal.RequireFromString("0.004")}, nil)

		service := NewPurchaseService(mockRepo, mockVerifier, &mocks.MockBonusService{},
			decimal.RequireFromString("0.01"))

		err := service.ConfirmPurchase(context.Background(), purchaseID, model.ChainEVM, "0xtx")
		assert.ErrorIs(t, err, ErrInsufficientPayment)

		mockRepo.AssertNotCalled(t, "CompletePurchase", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("signer not on account", func(t *testing.T) {
		mockRepo := &mocks.MockPurchaseRepository{}
		mockVerifier := &mocks.MockVerifier{}

		mockRepo.On("GetPurchaseByID", mock.Anything, purchaseID).Return(pending(), nil)
		mockVerifier.On("VerifyTransfer", mock.Anything, model.ChainEVM, "0xtx").
			Return(&chainrpc.VerifiedTransfer{Sender: "0xstranger", Amount: decimal.NewFromInt(1)}, nil)
		mockRepo.On("GetWalletsByAccount", mock.Anything, accountID).Return(wallets, nil)

		service := NewPurchaseService(mockRepo, mockVerifier, &mocks.MockBonusService{}, decimal.Zero)

		err := service.ConfirmPurchase(context.Background(), purchaseID, model.ChainEVM, "0xtx")
		assert.ErrorIs(t, err, ErrWalletNotOnAccount)
	})

	t.Run("concurrent confirm already won", func(t *testing.T) {
		mockRepo := &mocks.MockPurchaseRepository{}
		mockVerifier := &mocks.MockVerifier{}

		mockRepo.On("GetPurchaseByID", mock.Anything, purchaseID).Return(pending(), nil)
		mockVerifier.On("VerifyTransfer", mock.Anything, model.ChainEVM, "0xtx").
			Return(&chainrpc.VerifiedTransfer{Sender: "0xAbC123", Amount: decimal.NewFromInt(1)}, nil)
		mockRepo.On("GetWalletsByAccount", mock.Anything, accountID).Return(wallets, nil)
		mockRepo.On("CompletePurchase", mock.Anything, purchaseID, "0xtx").
			Return(repository.ErrPurchaseNotPending)

		service := NewPurchaseService(mockRepo, mockVerifier, &mocks.MockBonusService{}, decimal.Zero)

		err := service.ConfirmPurchase(context.Background(), purchaseID, model.ChainEVM, "0xtx")
		assert.NoError(t, err)
	})
}
