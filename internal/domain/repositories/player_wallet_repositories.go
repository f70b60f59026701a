package repositories

import (
	"context"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
)

// WalletSourceRepository resolves the two seeded wallet-source rows.
type WalletSourceRepository interface {
	GetByID(ctx context.Context, id entities.WalletSourceID) (*entities.WalletSource, error)
	GetByName(ctx context.Context, name string) (*entities.WalletSource, error)
}

// UserWalletRepository persists per-player balances. Every method is
// expected to run against the ambient executor resolved from ctx (see
// internal/infrastructure/database.ExecutorFromContext), so callers within
// the same application-service transaction observe each other's writes.
type UserWalletRepository interface {
	Get(ctx context.Context, info entities.WalletInfo) (*entities.UserWallet, error)
	// LockForUpdate behaves like Get but takes a row-level lock (SELECT ...
	// FOR UPDATE), used once at the start of any mutating sequence.
	LockForUpdate(ctx context.Context, info entities.WalletInfo) (*entities.UserWallet, error)
	Insert(ctx context.Context, wallet *entities.UserWallet) (*entities.UserWallet, error)
	Update(ctx context.Context, wallet *entities.UserWallet) (*entities.UserWallet, error)
	// ListWithRollover pages over the inner join of user_wallet and
	// rollover_main the payment facet's admin GetList operation exposes.
	ListWithRollover(ctx context.Context, filter UserWalletFilter) ([]*entities.UserWalletWithRollover, int, error)
}

// UserWalletFilter paginates and filters the payment facet's GetList
// operation, scoped to one client and optionally narrowed to non-empty
// subsets of players, currencies, and wallet sources. Ordering is
// user_wallet.updated_at DESC with id DESC as a stability tiebreaker.
type UserWalletFilter struct {
	ClientID        int64
	PlayerIDs       []int64
	CurrencyIDs     []int64
	WalletSourceIDs []entities.WalletSourceID
	// Page is 1-based; PageSize floors at 25 per the listing contract.
	Page     int
	PageSize int
}

// WalletTransactionRepository persists the append-only transaction chain.
type WalletTransactionRepository interface {
	Insert(ctx context.Context, txn *entities.WalletTransaction) (*entities.WalletTransaction, error)
	ListByTransactionSourceID(ctx context.Context, clientID, userID, sourceTxnID int64) ([]*entities.WalletTransaction, error)
}

// RolloverMainRepository persists the per-wallet wagering ledger.
type RolloverMainRepository interface {
	Get(ctx context.Context, info entities.WalletInfo) (*entities.RolloverMain, error)
	Insert(ctx context.Context, main *entities.RolloverMain) (*entities.RolloverMain, error)
	Update(ctx context.Context, main *entities.RolloverMain) (*entities.RolloverMain, error)
}

// RolloverRecordRepository persists immutable rollover history entries.
type RolloverRecordRepository interface {
	Insert(ctx context.Context, record *entities.RolloverRecord) (*entities.RolloverRecord, error)
	// GetByWalletTransactionID returns nil, nil if no record exists for the
	// given wallet transaction; callers use this to distinguish "nothing
	// to roll back" from a lookup failure.
	GetByWalletTransactionID(ctx context.Context, walletTxnID int64) (*entities.RolloverRecord, error)
}

// CurrencyClient resolves currency reference data from the external
// currency oracle. It is a domain-level contract even though its single
// implementation makes an outbound HTTP call, because every engine and
// strategy depends only on this interface, never on the transport detail.
type CurrencyClient interface {
	GetEnabledByName(ctx context.Context, clientID int64, name string) (entities.Currency, error)
	GetEnabledByID(ctx context.Context, clientID int64, currencyID int64) (entities.Currency, error)
}
