package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
	"github.com/playerwallet/wallet-service/internal/domain/repositories"
	infradb "github.com/playerwallet/wallet-service/internal/infrastructure/database"
)

// UserWalletRepository persists per-player balances in user_wallet,
// unique on (client_id, user_id, currency_id, wallet_source_id).
type UserWalletRepository struct {
	db infradb.Executor
}

func NewUserWalletRepository(db infradb.Executor) *UserWalletRepository {
	return &UserWalletRepository{db: db}
}

func (r *UserWalletRepository) exec(ctx context.Context) infradb.Executor {
	return infradb.ExecutorFromContext(ctx, r.db)
}

const userWalletColumns = `
	id, client_id, user_id, currency_id, currency_name,
	wallet_source_id, wallet_source_name, amount, created_at, updated_at
`

func (r *UserWalletRepository) get(ctx context.Context, info entities.WalletInfo, forUpdate bool) (*entities.UserWallet, error) {
	query := `SELECT ` + userWalletColumns + `
		FROM user_wallet
		WHERE client_id = $1 AND user_id = $2 AND currency_id = $3 AND wallet_source_id = $4`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var wallet entities.UserWallet
	err := r.exec(ctx).GetContext(ctx, &wallet, query, info.ClientID, info.UserID, info.Currency.ID, info.WalletSource.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user wallet: %w", err)
	}
	return &wallet, nil
}

func (r *UserWalletRepository) Get(ctx context.Context, info entities.WalletInfo) (*entities.UserWallet, error) {
	return r.get(ctx, info, false)
}

// LockForUpdate behaves like Get but takes a row lock. It returns nil, nil
// when the wallet has never been referenced before; callers rely on the
// wallet engine's GetOrCreate to insert it inside the same transaction
// immediately afterward, so the row is still covered for the rest of the
// application-service method.
func (r *UserWalletRepository) LockForUpdate(ctx context.Context, info entities.WalletInfo) (*entities.UserWallet, error) {
	return r.get(ctx, info, true)
}

func (r *UserWalletRepository) Insert(ctx context.Context, wallet *entities.UserWallet) (*entities.UserWallet, error) {
	if err := wallet.Validate(); err != nil {
		return nil, fmt.Errorf("validate user wallet: %w", err)
	}

	query := `
		INSERT INTO user_wallet (
			id, client_id, user_id, currency_id, currency_name,
			wallet_source_id, wallet_source_name, amount, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (client_id, user_id, currency_id, wallet_source_id) DO NOTHING
		RETURNING ` + userWalletColumns

	var inserted entities.UserWallet
	err := r.exec(ctx).QueryRowxContext(
		ctx, query,
		wallet.ID, wallet.ClientID, wallet.UserID, wallet.CurrencyID, wallet.CurrencyName,
		wallet.WalletSourceID, wallet.WalletSourceName, wallet.Amount, wallet.CreatedAt, wallet.UpdatedAt,
	).StructScan(&inserted)
	if err != nil {
		if err == sql.ErrNoRows {
			// Lost the race to a concurrent insert; the repository
			// contract promises a row exists either way.
			existing, getErr := r.get(ctx, entities.WalletInfo{
				ClientID: wallet.ClientID, UserID: wallet.UserID,
				Currency:     entities.Currency{ID: wallet.CurrencyID, Name: wallet.CurrencyName},
				WalletSource: entities.WalletSource{ID: wallet.WalletSourceID, Name: wallet.WalletSourceName},
			}, false)
			if getErr != nil {
				return nil, getErr
			}
			return existing, nil
		}
		if pqErr, ok := err.(*pq.Error); ok {
			return nil, fmt.Errorf("insert user wallet: %s: %w", pqErr.Message, err)
		}
		return nil, fmt.Errorf("insert user wallet: %w", err)
	}
	return &inserted, nil
}

func (r *UserWalletRepository) Update(ctx context.Context, wallet *entities.UserWallet) (*entities.UserWallet, error) {
	wallet.UpdatedAt = time.Now()

	query := `
		UPDATE user_wallet
		SET amount = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + userWalletColumns

	var updated entities.UserWallet
	err := r.exec(ctx).QueryRowxContext(ctx, query, wallet.Amount, wallet.UpdatedAt, wallet.ID).StructScan(&updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainerrors.DataNotFoundError("user wallet")
		}
		return nil, fmt.Errorf("update user wallet: %w", err)
	}
	return &updated, nil
}

// ListWithRollover pages the admin listing operation over an inner join of
// user_wallet and rollover_main, scoped to one client and narrowed by the
// non-empty subsets of players, currencies, and wallet sources in filter.
func (r *UserWalletRepository) ListWithRollover(ctx context.Context, filter repositories.UserWalletFilter) ([]*entities.UserWalletWithRollover, int, error) {
	var (
		conditions []string
		args       []interface{}
	)

	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	add("uw.client_id = $%d", filter.ClientID)
	if len(filter.PlayerIDs) > 0 {
		add("uw.user_id = ANY($%d)", pq.Array(filter.PlayerIDs))
	}
	if len(filter.CurrencyIDs) > 0 {
		add("uw.currency_id = ANY($%d)", pq.Array(filter.CurrencyIDs))
	}
	if len(filter.WalletSourceIDs) > 0 {
		add("uw.wallet_source_id = ANY($%d)", pq.Array(filter.WalletSourceIDs))
	}

	where := "WHERE " + strings.Join(conditions, " AND ")
	const fromJoin = `FROM user_wallet uw INNER JOIN rollover_main rm ON rm.user_wallet_id = uw.id `

	var total int
	countQuery := `SELECT COUNT(*) ` + fromJoin + where
	if err := r.exec(ctx).GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count user wallets: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 25 {
		pageSize = 25
	}
	offset := (page - 1) * pageSize

	args = append(args, pageSize, offset)
	selectCols := `uw.id, uw.client_id, uw.user_id, uw.currency_id, uw.currency_name,
		uw.wallet_source_id, uw.wallet_source_name, uw.amount, uw.created_at, uw.updated_at,
		rm.requirement_rollover, rm.achievement_rollover`
	listQuery := fmt.Sprintf(`SELECT %s %s %s ORDER BY uw.updated_at DESC, uw.id DESC LIMIT $%d OFFSET $%d`,
		selectCols, fromJoin, where, len(args)-1, len(args))

	var wallets []*entities.UserWalletWithRollover
	if err := r.exec(ctx).SelectContext(ctx, &wallets, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list user wallets: %w", err)
	}

	return wallets, total, nil
}
