// Package walletapp composes the wallet and rollover engines (directly, or
// through a strategy) into the operations the game and payment facets
// expose, and owns the single database transaction each mutating operation
// runs in.
package walletapp

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
)

// WalletEngine is the subset of walletengine.Service the application
// services depend on.
type WalletEngine interface {
	GetOrCreate(ctx context.Context, info entities.WalletInfo) (*entities.UserWallet, error)
	IsEnough(ctx context.Context, info entities.WalletInfo, withdrawAmount decimal.Decimal) (bool, error)
	ChangeAmount(ctx context.Context, info entities.WalletInfo, parentWalletTxnID, sourceTxnID int64, amount decimal.Decimal, action entities.WalletAction) (*entities.UserWallet, *entities.WalletTransaction, error)
	GetLastBySource(ctx context.Context, clientID, userID, sourceTxnID int64) (*entities.WalletTransaction, error)
	RollbackTransaction(ctx context.Context, info entities.WalletInfo, txn *entities.WalletTransaction) (*entities.UserWallet, *entities.WalletTransaction, error)
}

// RolloverEngine is the subset of rolloverengine.Service the application
// services depend on.
type RolloverEngine interface {
	GetOrCreate(ctx context.Context, userWalletID int64, info entities.WalletInfo) (*entities.RolloverMain, error)
	IsAchieved(ctx context.Context, info entities.WalletInfo) (bool, error)
	ChangeRollover(ctx context.Context, userWalletID int64, info entities.WalletInfo, walletTxnID int64, amount, rolloverRate decimal.Decimal, action entities.WalletAction, changeBy int64) (*entities.RolloverMain, *entities.RolloverRecord, error)
	RollbackRollover(ctx context.Context, userWalletID int64, info entities.WalletInfo, originWalletTxnID, rollbackWalletTxnID, createBy int64) (*entities.RolloverMain, *entities.RolloverRecord, error)
}

// WalletModel is the composed (balance, rollover) view the payment facet
// returns to callers; the game facet only ever needs the balance.
type WalletModel struct {
	ClientID            int64
	UserID              int64
	CurrencyID          int64
	CurrencyName        string
	WalletSourceID      entities.WalletSourceID
	WalletSourceName    string
	Amount              decimal.Decimal
	RequirementRollover decimal.Decimal
	AchievementRollover decimal.Decimal
}

func newWalletModel(wallet *entities.UserWallet, rollover *entities.RolloverMain) WalletModel {
	model := WalletModel{
		ClientID:         wallet.ClientID,
		UserID:           wallet.UserID,
		CurrencyID:       wallet.CurrencyID,
		CurrencyName:     wallet.CurrencyName,
		WalletSourceID:   wallet.WalletSourceID,
		WalletSourceName: wallet.WalletSourceName,
		Amount:           wallet.Amount,
	}
	if rollover != nil {
		model.RequirementRollover = rollover.RequirementRollover
		model.AchievementRollover = rollover.AchievementRollover
	}
	return model
}
