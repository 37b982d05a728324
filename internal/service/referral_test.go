package service

import (
	"context"
	"testing"

	"lmx_presale/internal/model"
	"lmx_presale/internal/repository"
	"lmx_presale/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReferralService_Attribute(t *testing.T) {
	referrerID := uuid.New()
	accountID := uuid.New()
	referrer := &model.Account{ID: referrerID, ReferralCode: "LMXABCD1234"}

	tests := []struct {
		name          string
		walletAddress string
		chain         model.Chain
		code          string
		mockSetup     func(repo *mocks.MockReferralRepository, gen *mocks.MockCodeGenerator)
		expectedError error
		checkResult   func(t *testing.T, result *model.AttributionResult)
	}{
		{
			name:          "invalid referral code",
			walletAddress: "0xabc",
			chain:         model.ChainEVM,
			code:          "LMXMISSING1",
			mockSetup: func(repo *mocks.MockReferralRepository, gen *mocks.MockCodeGenerator) {
				repo.On("GetAccountByReferralCode", mock.Anything, "LMXMISSING1").
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrInvalidReferralCode,
		},
		{
			name:          "unsupported chain",
			walletAddress: "0xabc",
			chain:         model.Chain("tron"),
			code:          "LMXABCD1234",
			mockSetup:     func(repo *mocks.MockReferralRepository, gen *mocks.MockCodeGenerator) {},
			expectedError: ErrInvalidChain,
		},
		{
			name:          "self referral rejected",
			walletAddress: "0xself",
			chain:         model.ChainEVM,
			code:          "LMXABCD1234",
			mockSetup: func(repo *mocks.MockReferralRepository, gen *mocks.MockCodeGenerator) {
				repo.On("GetAccountByReferralCode", mock.Anything, "LMXABCD1234").
					Return(referrer, nil)
				repo.On("GetAccountByWalletAddress", mock.Anything, "0xself").
					Return(&model.Account{ID: referrerID, ReferralCode: "LMXABCD1234"}, nil)
			},
			expectedError: ErrSelfReferral,
		},
		{
			name:          "new wallet creates attributed account",
			walletAddress: "0xabc",
			chain:         model.ChainEVM,
			code:          "LMXABCD1234",
			mockSetup: func(repo *mocks.MockReferralRepository, gen *mocks.MockCodeGenerator) {
				repo.On("GetAccountByReferralCode", mock.Anything, "LMXABCD1234").
					Return(referrer, nil)
				repo.On("GetAccountByWalletAddress", mock.Anything, "0xabc").
					Return(nil, repository.ErrNotFound)
				gen.On("Generate", mock.Anything).Return("LMXFRESH001", nil)
				repo.On("CreateAccountWithWallet", mock.Anything,
					mock.MatchedBy(func(acc *model.Account) bool {
						return acc.ReferralCode == "LMXFRESH001" &&
							acc.ReferrerID != nil && *acc.ReferrerID == referrerID
					}),
					mock.MatchedBy(func(w *model.Wallet) bool {
						return w.Address == "0xabc" && w.Chain == model.ChainEVM
					})).Return(nil)
			},
			checkResult: func(t *testing.T, result *model.AttributionResult) {
				assert.True(t, result.AccountCreated)
				assert.False(t, result.AlreadyAttributed)
				assert.Equal(t, referrerID, result.ReferrerID)
			},
		},
		{
			name:          "first attribution on existing account",
			walletAddress: "0xdef",
			chain:         model.ChainEVM,
			code:          "LMXABCD1234",
			mockSetup: func(repo *mocks.MockReferralRepository, gen *mocks.MockCodeGenerator) {
				repo.On("GetAccountByReferralCode", mock.Anything, "LMXABCD1234").
					Return(referrer, nil)
				repo.On("GetAccountByWalletAddress", mock.Anything, "0xdef").
					Return(&model.Account{ID: accountID, ReferralCode: "LMXOTHER001"}, nil)
				repo.On("SetReferrer", mock.Anything, accountID, referrerID).Return(nil)
			},
			checkResult: func(t *testing.T, result *model.AttributionResult) {
				assert.False(t, result.AccountCreated)
				assert.False(t, result.AlreadyAttributed)
				assert.Equal(t, accountID, result.AccountID)
			},
		},
		{
			name:          "repeat attribution is a no-op",
			walletAddress: "0xdef",
			chain:         model.ChainEVM,
			code:          "LMXABCD1234",
			mockSetup: func(repo *mocks.MockReferralRepository, gen *mocks.MockCodeGenerator) {
				repo.On("GetAccountByReferralCode", mock.Anything, "LMXABCD1234").
					Return(referrer, nil)
				repo.On("GetAccountByWalletAddress", mock.Anything, "0xdef").
					Return(&model.Account{ID: accountID, ReferrerID: &referrerID}, nil)
				repo.On("SetReferrer", mock.Anything, accountID, referrerID).
					Return(repository.ErrAlreadyAttributed)
			},
			checkResult: func(t *testing.T, result *model.AttributionResult) {
				assert.True(t, result.AlreadyAttributed)
				assert.Equal(t, accountID, result.AccountID)
				assert.Equal(t, referrerID, result.ReferrerID)
			},
		},
		{
			name:          "different referrer never overrides",
			walletAddress: "0xdef",
			chain:         model.ChainEVM,
			code:          "LMXABCD1234",
			mockSetup: func(repo *mocks.MockReferralRepository, gen *mocks.MockCodeGenerator) {
				otherReferrer := uuid.New()
				repo.On("GetAccountByReferralCode", mock.Anything, "LMXABCD1234").
					Return(referrer, nil)
				repo.On("GetAccountByWalletAddress", mock.Anything, "0xdef").
					Return(&model.Account{ID: accountID, ReferrerID: &otherReferrer}, nil)
				repo.On("SetReferrer", mock.Anything, accountID, referrerID).
					Return(repository.ErrReferrerConflict)
			},
			expectedError: ErrReferrerAlreadySet,
		},
		{
			name:          "creation race falls back to existing account",
			walletAddress: "0xrace",
			chain:         model.ChainSolana,
			code:          "LMXABCD1234",
			mockSetup: func(repo *mocks.MockReferralRepository, gen *mocks.MockCodeGenerator) {
				repo.On("GetAccountByReferralCode", mock.Anything, "LMXABCD1234").
					Return(referrer, nil)
				repo.On("GetAccountByWalletAddress", mock.Anything, "0xrace").
					Return(nil, repository.ErrNotFound).Once()
				gen.On("Generate", mock.Anything).Return("LMXFRESH002", nil)
				repo.On("CreateAccountWithWallet", mock.Anything, mock.Anything, mock.Anything).
					Return(repository.ErrWalletExists)
				repo.On("GetAccountByWalletAddress", mock.Anything, "0xrace").
					Return(&model.Account{ID: accountID}, nil).Once()
				repo.On("SetReferrer", mock.Anything, accountID, referrerID).Return(nil)
			},
			checkResult: func(t *testing.T, result *model.AttributionResult) {
				assert.False(t, result.AccountCreated)
				assert.Equal(t, accountID, result.AccountID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockReferralRepository{}
			mockGen := &mocks.MockCodeGenerator{}
			tt.mockSetup(mockRepo, mockGen)

			service := NewReferralService(mockRepo, mockGen)
			result, err := service.Attribute(context.Background(), tt.walletAddress, tt.chain, tt.code)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, result)
				if tt.checkResult != nil {
					tt.checkResult(t, result)
				}
			}

			mockRepo.AssertExpectations(t)
			mockGen.AssertExpectations(t)
		})
	}
}
