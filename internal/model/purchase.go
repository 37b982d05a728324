package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

type Purchase struct {
	ID              uuid.UUID
	AccountID       uuid.UUID
	Status          PurchaseStatus
	TokensAllocated decimal.Decimal
	TxReference     *string
	BonusProcessed  bool
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

type BonusStatus string

const (
	BonusProcessed BonusStatus = "processed"
	BonusReversed  BonusStatus = "reversed"
)

// ReferralBonus is the ledger entry for a referrer's reward on a single
// purchase. PurchaseID carries a unique constraint, so at most one entry
// can ever exist per purchase.
type ReferralBonus struct {
	ID             uuid.UUID
	PurchaseID     uuid.UUID
	ReferrerID     uuid.UUID
	PurchaseAmount decimal.Decimal
	BonusPercent   decimal.Decimal
	BonusAmount    decimal.Decimal
	Status         BonusStatus
	CreatedAt      time.Time
}

// PurchaseAccrual is the accrual engine's view of a purchase: the purchase
// row joined with its owner's referrer reference. ReferrerExists reports
// whether the referenced referrer row could actually be resolved.
type PurchaseAccrual struct {
	PurchaseID      uuid.UUID
	AccountID       uuid.UUID
	Status          PurchaseStatus
	TokensAllocated decimal.Decimal
	BonusProcessed  bool
	ReferrerID      *uuid.UUID
	ReferrerExists  bool
}
