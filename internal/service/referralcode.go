package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	codePrefix       = "LMX"
	codeSuffixLength = 8
	codeCharset      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Collision probability at 36^8 is negligible; the retry cap is a
	// safety valve, not an expected path.
	maxCodeAttempts = 10
)

type ReferralCodeGenerator struct {
	repo CodeRepository
}

func NewReferralCodeGenerator(repo CodeRepository) *ReferralCodeGenerator {
	return &ReferralCodeGenerator{repo: repo}
}

// Generate produces a fresh referral code and re-rolls until the store
// reports it unused, failing with ErrCodeGenerationExhausted after
// maxCodeAttempts collisions.
func (g *ReferralCodeGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate referral code: %w", err)
		}

		exists, err := g.repo.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}

	return "", ErrCodeGenerationExhausted
}

func randomCode() (string, error) {
	suffix := make([]byte, codeSuffixLength)
	max := big.NewInt(int64(len(codeCharset)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = codeCharset[n.Int64()]
	}
	return codePrefix + string(suffix), nil
}
