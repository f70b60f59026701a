package repositories

import (
	"context"
	"fmt"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	infradb "github.com/playerwallet/wallet-service/internal/infrastructure/database"
)

// WalletTransactionRepository persists the append-only wallet_transaction
// chain, never updated or deleted once inserted.
type WalletTransactionRepository struct {
	db infradb.Executor
}

func NewWalletTransactionRepository(db infradb.Executor) *WalletTransactionRepository {
	return &WalletTransactionRepository{db: db}
}

func (r *WalletTransactionRepository) exec(ctx context.Context) infradb.Executor {
	return infradb.ExecutorFromContext(ctx, r.db)
}

const walletTransactionColumns = `
	id, parent_id, client_id, user_id, currency_id, wallet_source_id, action,
	transaction_source_id, before_amount, change_amount, after_amount,
	status, created_at, updated_at
`

func (r *WalletTransactionRepository) Insert(ctx context.Context, txn *entities.WalletTransaction) (*entities.WalletTransaction, error) {
	if err := txn.Validate(); err != nil {
		return nil, fmt.Errorf("validate wallet transaction: %w", err)
	}

	query := `
		INSERT INTO wallet_transaction (
			id, parent_id, client_id, user_id, currency_id, wallet_source_id, action,
			transaction_source_id, before_amount, change_amount, after_amount,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + walletTransactionColumns

	var inserted entities.WalletTransaction
	err := r.exec(ctx).QueryRowxContext(
		ctx, query,
		txn.ID, txn.ParentID, txn.ClientID, txn.UserID, txn.CurrencyID, txn.WalletSourceID, txn.Action,
		txn.TransactionSourceID, txn.BeforeAmount, txn.ChangeAmount, txn.AfterAmount,
		txn.Status, txn.CreatedAt, txn.UpdatedAt,
	).StructScan(&inserted)
	if err != nil {
		return nil, fmt.Errorf("insert wallet transaction: %w", err)
	}
	return &inserted, nil
}

func (r *WalletTransactionRepository) ListByTransactionSourceID(ctx context.Context, clientID, userID, sourceTxnID int64) ([]*entities.WalletTransaction, error) {
	query := `SELECT ` + walletTransactionColumns + `
		FROM wallet_transaction
		WHERE client_id = $1 AND user_id = $2 AND transaction_source_id = $3`

	var txns []*entities.WalletTransaction
	if err := r.exec(ctx).SelectContext(ctx, &txns, query, clientID, userID, sourceTxnID); err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	return txns, nil
}
