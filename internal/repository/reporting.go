package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lmx_presale/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type referralStats struct {
	ReferralCode  string          `db:"referral_code"`
	ReferralCount int             `db:"referral_count"`
	TotalBonus    decimal.Decimal `db:"total_bonus"`
}

type referee struct {
	AccountID       uuid.UUID      `db:"id"`
	Username        string         `db:"username"`
	WalletAddresses pq.StringArray `db:"wallet_addresses"`
	JoinedAt        time.Time      `db:"created_at"`
}

// GetReferralStats aggregates direct referees and processed bonus totals for
// one referrer. Accounts with no referrals get zero-valued stats, not an error.
func (r *Repository) GetReferralStats(ctx context.Context, accountID uuid.UUID) (*model.ReferralStats, error) {
	var stats referralStats
	query, args, err := squirrel.
		Select(
			"a.referral_code",
			"(SELECT COUNT(*) FROM accounts ref WHERE ref.referrer_id = a.id) AS referral_count",
			"COALESCE((SELECT SUM(b.bonus_amount) FROM referral_bonuses b"+
				" WHERE b.referrer_id = a.id AND b.status = 'processed'), 0) AS total_bonus",
		).
		From("accounts a").
		Where(squirrel.Eq{"a.id": accountID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &stats, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.ReferralStats{
		ReferralCode:  stats.ReferralCode,
		ReferralCount: stats.ReferralCount,
		TotalBonus:    stats.TotalBonus,
	}, nil
}

func (r *Repository) GetReferrerInfoByCode(ctx context.Context, code string) (*model.ReferrerInfo, error) {
	var info struct {
		ID       uuid.UUID `db:"id"`
		Username string    `db:"username"`
		Verified bool      `db:"verified"`
	}

	query, args, err := squirrel.
		Select("a.id", "a.username",
			"(a.email_verified OR EXISTS"+
				" (SELECT 1 FROM wallets w WHERE w.account_id = a.id AND w.verified)) AS verified").
		From("accounts a").
		Where(squirrel.Eq{"a.referral_code": code}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &info, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.ReferrerInfo{
		ReferrerID: info.ID,
		Username:   info.Username,
		Verified:   info.Verified,
	}, nil
}

func (r *Repository) GetReferees(ctx context.Context, accountID uuid.UUID) ([]*model.Referee, error) {
	query, args, err := squirrel.
		Select("a.id", "a.username",
			"COALESCE(array_agg(w.address) FILTER (WHERE w.address IS NOT NULL), '{}') AS wallet_addresses",
			"a.created_at").
		From("accounts a").
		LeftJoin("wallets w ON w.account_id = a.id").
		Where(squirrel.Eq{"a.referrer_id": accountID}).
		GroupBy("a.id", "a.username", "a.created_at").
		OrderBy("a.created_at DESC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build referees query: %w", err)
	}

	var rows []referee
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get referees: %w", err)
	}

	referees := make([]*model.Referee, len(rows))
	for i, row := range rows {
		referees[i] = &model.Referee{
			AccountID:       row.AccountID,
			Username:        row.Username,
			WalletAddresses: row.WalletAddresses,
			JoinedAt:        row.JoinedAt,
		}
	}

	return referees, nil
}
