package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AttributionResult struct {
	AccountID         uuid.UUID
	ReferrerID        uuid.UUID
	AccountCreated    bool
	AlreadyAttributed bool
}

type ReferralStats struct {
	ReferralCode  string
	ReferralCount int
	TotalBonus    decimal.Decimal
}

type ReferrerInfo struct {
	ReferrerID uuid.UUID
	Username   string
	Verified   bool
}

type Referee struct {
	AccountID       uuid.UUID
	Username        string
	WalletAddresses []string
	JoinedAt        time.Time
}
