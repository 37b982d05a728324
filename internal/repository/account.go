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
)

type account struct {
	ID            uuid.UUID  `db:"id"`
	Username      string     `db:"username"`
	Email         string     `db:"email"`
	ReferralCode  string     `db:"referral_code"`
	ReferrerID    *uuid.UUID `db:"referrer_id"`
	EmailVerified bool       `db:"email_verified"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (a *account) toModel() *model.Account {
	return &model.Account{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		ReferralCode:  a.ReferralCode,
		ReferrerID:    a.ReferrerID,
		EmailVerified: a.EmailVerified,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

type wallet struct {
	Address   string      `db:"address"`
	AccountID uuid.UUID   `db:"account_id"`
	Chain     model.Chain `db:"chain"`
	Verified  bool        `db:"verified"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r *Repository) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return r.getAccountBy(ctx, squirrel.Eq{"id": id})
}

func (r *Repository) GetAccountByReferralCode(ctx context.Context, code string) (*model.Account, error) {
	return r.getAccountBy(ctx, squirrel.Eq{"referral_code": code})
}

func (r *Repository) getAccountBy(ctx context.Context, pred squirrel.Eq) (*model.Account, error) {
	var acc account
	query, args, err := squirrel.
		Select("*").
		From("accounts").
		Where(pred).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &acc, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return acc.toModel(), nil
}

func (r *Repository) GetAccountByWalletAddress(ctx context.Context, address string) (*model.Account, error) {
	var acc account
	query, args, err := squirrel.
		Select("a.id", "a.username", "a.email", "a.referral_code", "a.referrer_id",
			"a.email_verified", "a.created_at", "a.updated_at").
		From("accounts a").
		Join("wallets w ON w.account_id = a.id").
		Where(squirrel.Eq{"w.address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &acc, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return acc.toModel(), nil
}

// CreateAccountWithWallet inserts the account row and its first wallet in a
// single transaction. A concurrent insert of the same wallet address maps to
// ErrWalletExists, a referral code collision to ErrCodeExists.
func (r *Repository) CreateAccountWithWallet(ctx context.Context, acc *model.Account, w *model.Wallet) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("accounts").
			SetMap(map[string]interface{}{
				"id":             acc.ID,
				"username":       acc.Username,
				"email":          acc.Email,
				"referral_code":  acc.ReferralCode,
				"referrer_id":    acc.ReferrerID,
				"email_verified": acc.EmailVerified,
				"created_at":     acc.CreatedAt,
				"updated_at":     acc.UpdatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build account insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err, "accounts_referral_code_key") {
				return ErrCodeExists
			}
			return fmt.Errorf("failed to insert account: %w", err)
		}

		walletQuery, walletArgs, err := squirrel.
			Insert("wallets").
			SetMap(map[string]interface{}{
				"address":    w.Address,
				"account_id": acc.ID,
				"chain":      w.Chain,
				"verified":   w.Verified,
				"created_at": w.CreatedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build wallet insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, walletQuery, walletArgs...)
		if err != nil {
			if isUniqueViolation(err, "wallets_pkey") {
				return ErrWalletExists
			}
			return fmt.Errorf("failed to insert wallet: %w", err)
		}

		return nil
	})
}

func (r *Repository) AddWallet(ctx context.Context, w *model.Wallet) error {
	query, args, err := squirrel.
		Insert("wallets").
		SetMap(map[string]interface{}{
			"address":    w.Address,
			"account_id": w.AccountID,
			"chain":      w.Chain,
			"verified":   w.Verified,
			"created_at": w.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, "wallets_pkey") {
			return ErrWalletExists
		}
		return fmt.Errorf("failed to insert wallet: %w", err)
	}

	return nil
}

func (r *Repository) GetWalletsByAccount(ctx context.Context, accountID uuid.UUID) ([]*model.Wallet, error) {
	query, args, err := squirrel.
		Select("*").
		From("wallets").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []wallet
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallets: %w", err)
	}

	wallets := make([]*model.Wallet, len(rows))
	for i, row := range rows {
		wallets[i] = &model.Wallet{
			Address:   row.Address,
			AccountID: row.AccountID,
			Chain:     row.Chain,
			Verified:  row.Verified,
			CreatedAt: row.CreatedAt,
		}
	}

	return wallets, nil
}

func (r *Repository) MarkWalletVerified(ctx context.Context, address string) error {
	query, args, err := squirrel.
		Update("wallets").
		Set("verified", true).
		Where(squirrel.Eq{"address": address}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark wallet verified: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetReferrer applies the first-write-wins attribution rule atomically. The
// conditional update only succeeds while referrer_id is NULL; on zero rows
// affected the row is re-read inside the same transaction to tell a repeat
// of the same attribution (ErrAlreadyAttributed) apart from an attempt to
// override an earlier one (ErrReferrerConflict).
func (r *Repository) SetReferrer(ctx context.Context, accountID, referrerID uuid.UUID) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Update("accounts").
			Set("referrer_id", referrerID).
			Set("updated_at", time.Now().UTC()).
			Where(squirrel.Eq{"id": accountID}).
			Where("referrer_id IS NULL").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build referrer update query: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update referrer: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 1 {
			return nil
		}

		selectQuery, selectArgs, err := squirrel.
			Select("referrer_id").
			From("accounts").
			Where(squirrel.Eq{"id": accountID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		var current *uuid.UUID
		err = tx.GetContext(ctx, &current, selectQuery, selectArgs...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if current != nil && *current == referrerID {
			return ErrAlreadyAttributed
		}
		return ErrReferrerConflict
	})
}

// ReferralCodeExists is the generator's collision check.
func (r *Repository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	query, args, err := squirrel.
		Select("1").
		From("accounts").
		Where(squirrel.Eq{"referral_code": code}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = r.db.GetContext(ctx, &one, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
