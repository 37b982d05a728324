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
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type purchase struct {
	ID              uuid.UUID            `db:"id"`
	AccountID       uuid.UUID            `db:"account_id"`
	Status          model.PurchaseStatus `db:"status"`
	TokensAllocated decimal.Decimal      `db:"tokens_allocated"`
	TxReference     *string              `db:"tx_reference"`
	BonusProcessed  bool                 `db:"bonus_processed"`
	CreatedAt       time.Time            `db:"created_at"`
	CompletedAt     *time.Time           `db:"completed_at"`
}

func (p *purchase) toModel() *model.Purchase {
	return &model.Purchase{
		ID:              p.ID,
		AccountID:       p.AccountID,
		Status:          p.Status,
		TokensAllocated: p.TokensAllocated,
		TxReference:     p.TxReference,
		BonusProcessed:  p.BonusProcessed,
		CreatedAt:       p.CreatedAt,
		CompletedAt:     p.CompletedAt,
	}
}

type purchaseAccrual struct {
	PurchaseID      uuid.UUID            `db:"purchase_id"`
	AccountID       uuid.UUID            `db:"account_id"`
	Status          model.PurchaseStatus `db:"status"`
	TokensAllocated decimal.Decimal      `db:"tokens_allocated"`
	BonusProcessed  bool                 `db:"bonus_processed"`
	ReferrerID      *uuid.UUID           `db:"referrer_id"`
	ResolvedID      *uuid.UUID           `db:"resolved_referrer_id"`
}

func (r *Repository) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	query, args, err := squirrel.
		Insert("purchases").
		SetMap(map[string]interface{}{
			"id":               p.ID,
			"account_id":       p.AccountID,
			"status":           p.Status,
			"tokens_allocated": p.TokensAllocated,
			"tx_reference":     p.TxReference,
			"bonus_processed":  p.BonusProcessed,
			"created_at":       p.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build purchase insert query: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}

	return nil
}

func (r *Repository) GetPurchaseByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var p purchase
	query, args, err := squirrel.
		Select("*").
		From("purchases").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &p, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return p.toModel(), nil
}

// CompletePurchase flips a pending purchase to completed. Zero rows affected
// means the purchase is missing or no longer pending; the follow-up read
// distinguishes the two.
func (r *Repository) CompletePurchase(ctx context.Context, id uuid.UUID, txReference string) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("purchases").
			Set("status", model.PurchaseCompleted).
			Set("tx_reference", txReference).
			Set("completed_at", time.Now().UTC()).
			Where(squirrel.Eq{"id": id, "status": model.PurchasePending}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build purchase update query: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to complete purchase: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 1 {
			return nil
		}

		selectQuery, selectArgs, err := squirrel.
			Select("status").
			From("purchases").
			Where(squirrel.Eq{"id": id}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var status model.PurchaseStatus
		err = tx.GetContext(ctx, &status, selectQuery, selectArgs...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return ErrPurchaseNotPending
	})
}

// GetPurchaseAccrual loads the purchase together with its owner's referrer
// reference. resolved_referrer_id stays NULL when the referenced referrer
// row cannot be found, which the accrual engine treats as an integrity fault.
func (r *Repository) GetPurchaseAccrual(ctx context.Context, purchaseID uuid.UUID) (*model.PurchaseAccrual, error) {
	var pa purchaseAccrual
	query, args, err := squirrel.
		Select("p.id AS purchase_id", "p.account_id", "p.status", "p.tokens_allocated",
			"p.bonus_processed", "a.referrer_id", "ref.id AS resolved_referrer_id").
		From("purchases p").
		Join("accounts a ON a.id = p.account_id").
		LeftJoin("accounts ref ON ref.id = a.referrer_id").
		Where(squirrel.Eq{"p.id": purchaseID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &pa, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.PurchaseAccrual{
		PurchaseID:      pa.PurchaseID,
		AccountID:       pa.AccountID,
		Status:          pa.Status,
		TokensAllocated: pa.TokensAllocated,
		BonusProcessed:  pa.BonusProcessed,
		ReferrerID:      pa.ReferrerID,
		ReferrerExists:  pa.ResolvedID != nil,
	}, nil
}

// CreateBonus writes the ledger entry and flips the purchase's
// bonus_processed flag in one transaction, both-or-neither. The unique
// constraint on referral_bonuses.purchase_id is the backstop for concurrent
// callers; losers get ErrBonusProcessed.
func (r *Repository) CreateBonus(ctx context.Context, b *model.ReferralBonus) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		updateQuery, updateArgs, err := squirrel.
			Update("purchases").
			Set("bonus_processed", true).
			Where(squirrel.Eq{"id": b.PurchaseID}).
			Where("NOT bonus_processed").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build bonus flag update query: %w", err)
		}

		res, err := tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("failed to mark purchase bonus processed: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrBonusProcessed
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("referral_bonuses").
			SetMap(map[string]interface{}{
				"id":              b.ID,
				"purchase_id":     b.PurchaseID,
				"referrer_id":     b.ReferrerID,
				"purchase_amount": b.PurchaseAmount,
				"bonus_percent":   b.BonusPercent,
				"bonus_amount":    b.BonusAmount,
				"status":          b.Status,
				"created_at":      b.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build bonus insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, insertQuery, insertArgs...)
		if err != nil {
			if isUniqueViolation(err, "referral_bonuses_purchase_id_key") {
				return ErrBonusProcessed
			}
			return fmt.Errorf("failed to insert referral bonus: %w", err)
		}

		return nil
	})
}

// ListUnprocessedPurchases returns completed purchases that still owe a
// bonus to a referrer. Purchases whose owner has no referrer are excluded,
// there is nothing to credit for them.
func (r *Repository) ListUnprocessedPurchases(ctx context.Context, limit int) ([]uuid.UUID, error) {
	query, args, err := squirrel.
		Select("p.id").
		From("purchases p").
		Join("accounts a ON a.id = p.account_id").
		Where(squirrel.Eq{"p.status": model.PurchaseCompleted}).
		Where("NOT p.bonus_processed").
		Where("a.referrer_id IS NOT NULL").
		OrderBy("p.completed_at").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	err = r.db.SelectContext(ctx, &ids, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed purchases: %w", err)
	}

	return ids, nil
}
