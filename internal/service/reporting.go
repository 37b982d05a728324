package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lmx_presale/internal/model"
	"lmx_presale/internal/repository"
	"lmx_presale/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const statsCacheTTL = 30 * time.Second

// StatsCache is the optional read cache in front of the aggregation
// queries. Entries expire on TTL; accrual does not invalidate.
type StatsCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type ReportingService struct {
	repo  ReportingRepository
	cache StatsCache
}

func NewReportingService(repo ReportingRepository, cache StatsCache) *ReportingService {
	return &ReportingService{
		repo:  repo,
		cache: cache,
	}
}

func statsCacheKey(accountID uuid.UUID) string {
	return fmt.Sprintf("referral:stats:%s", accountID)
}

func (s *ReportingService) GetReferralStats(ctx context.Context, accountID uuid.UUID) (*model.ReferralStats, error) {
	log := logger.Logger()

	if s.cache != nil {
		var cached model.ReferralStats
		hit, err := s.cache.Get(ctx, statsCacheKey(accountID), &cached)
		if err != nil {
			log.Warn("stats cache read failed", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	stats, err := s.repo.GetReferralStats(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get referral stats: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey(accountID), stats, statsCacheTTL); err != nil {
			log.Warn("stats cache write failed", zap.Error(err))
		}
	}

	return stats, nil
}

func (s *ReportingService) GetReferrerInfo(ctx context.Context, code string) (*model.ReferrerInfo, error) {
	info, err := s.repo.GetReferrerInfoByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidReferralCode
		}
		return nil, fmt.Errorf("failed to get referrer info: %w", err)
	}
	return info, nil
}

func (s *ReportingService) GetReferees(ctx context.Context, accountID uuid.UUID) ([]*model.Referee, error) {
	referees, err := s.repo.GetReferees(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referees: %w", err)
	}
	return referees, nil
}
