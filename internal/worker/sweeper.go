package worker

import (
	"context"
	"time"

	"lmx_presale/pkg/logger"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Config struct {
	IntervalSeconds int `json:"intervalSeconds"`
	BatchSize       int `json:"batchSize"`
}

type BonusProcessor interface {
	ProcessBonus(ctx context.Context, purchaseID uuid.UUID) (bool, error)
}

type SweepRepository interface {
	ListUnprocessedPurchases(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// BonusSweeper periodically retries accrual for completed purchases whose
// bonus never got processed, e.g. when the post-confirmation kick was lost
// to a crash. Accrual is idempotent, so overlap with live processing is
// harmless.
type BonusSweeper struct {
	cfg       Config
	repo      SweepRepository
	bonus     BonusProcessor
	scheduler gocron.Scheduler
}

func NewBonusSweeper(cfg Config, repo SweepRepository, bonus BonusProcessor) *BonusSweeper {
	if cfg.IntervalSeconds <= 0 {
		cfg.IntervalSeconds = 300
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &BonusSweeper{
		cfg:   cfg,
		repo:  repo,
		bonus: bonus,
	}
}

func (s *BonusSweeper) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(time.Duration(s.cfg.IntervalSeconds)*time.Second),
		gocron.NewTask(s.Sweep),
	)
	if err != nil {
		return err
	}

	sched.Start()
	s.scheduler = sched

	return nil
}

func (s *BonusSweeper) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

func (s *BonusSweeper) Sweep() {
	log := logger.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ids, err := s.repo.ListUnprocessedPurchases(ctx, s.cfg.BatchSize)
	if err != nil {
		log.Error("sweeper failed to list unprocessed purchases", zap.Error(err))
		return
	}
	if len(ids) == 0 {
		return
	}

	var accrued int
	for _, id := range ids {
		processed, err := s.bonus.ProcessBonus(ctx, id)
		if err != nil {
			log.Error("sweeper failed to process bonus",
				zap.String("purchase_id", id.String()), zap.Error(err))
			continue
		}
		if processed {
			accrued++
		}
	}

	log.Info("bonus sweep finished",
		zap.Int("candidates", len(ids)),
		zap.Int("accrued", accrued))
}
