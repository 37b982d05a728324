package model

import (
	"time"

	"github.com/google/uuid"
)

type Chain string

const (
	ChainEVM    Chain = "evm"
	ChainSolana Chain = "solana"
)

func (c Chain) Valid() bool {
	return c == ChainEVM || c == ChainSolana
}

type Account struct {
	ID            uuid.UUID
	Username      string
	Email         string
	ReferralCode  string
	ReferrerID    *uuid.UUID
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Wallet is keyed by address: one address belongs to exactly one account.
type Wallet struct {
	Address   string
	AccountID uuid.UUID
	Chain     Chain
	Verified  bool
	CreatedAt time.Time
}
