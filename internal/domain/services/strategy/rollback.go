// Package strategy implements the wallet-source-specialised rollback and
// update behaviour: a bonus wallet has to consider spilling over onto the
// principal wallet when it can't itself cover a reversal, while the
// principal wallet never does.
package strategy

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	"github.com/playerwallet/wallet-service/internal/domain/repositories"
)

// walletService and rolloverService are the subsets of the engines the
// strategies depend on, declared here so this package has no import-time
// dependency on the concrete engine packages.
type walletService interface {
	GetLastBySource(ctx context.Context, clientID, userID, sourceTxnID int64) (*entities.WalletTransaction, error)
	RollbackTransaction(ctx context.Context, info entities.WalletInfo, txn *entities.WalletTransaction) (*entities.UserWallet, *entities.WalletTransaction, error)
	ChangeAmount(ctx context.Context, info entities.WalletInfo, parentWalletTxnID, sourceTxnID int64, amount decimal.Decimal, action entities.WalletAction) (*entities.UserWallet, *entities.WalletTransaction, error)
	IsEnough(ctx context.Context, info entities.WalletInfo, withdrawAmount decimal.Decimal) (bool, error)
}

type rolloverService interface {
	RollbackRollover(ctx context.Context, userWalletID int64, info entities.WalletInfo, originWalletTxnID, rollbackWalletTxnID, createBy int64) (*entities.RolloverMain, *entities.RolloverRecord, error)
	ChangeRollover(ctx context.Context, userWalletID int64, info entities.WalletInfo, walletTxnID int64, amount, rolloverRate decimal.Decimal, action entities.WalletAction, changeBy int64) (*entities.RolloverMain, *entities.RolloverRecord, error)
}

// RollbackWalletStrategy undoes every transaction identified by
// sourceTxnIDs against wallet_info's wallet source; the game facet's
// bulk rollback operation. Apply returns the wallet and rollover state
// after the final compensation so callers can answer with the resulting
// balance (for a spilled-over bonus batch that is the principal wallet's
// state, since that is the wallet the compensations actually hit).
type RollbackWalletStrategy interface {
	Apply(ctx context.Context, info entities.WalletInfo, sourceTxnIDs []int64) (*entities.UserWallet, *entities.RolloverMain, error)
}

// NewRollbackStrategy selects the rollback strategy for info.WalletSource.ID.
func NewRollbackStrategy(
	info entities.WalletInfo,
	walletSourceRepo repositories.WalletSourceRepository,
	wallet walletService,
	rollover rolloverService,
) (RollbackWalletStrategy, error) {
	if err := info.WalletSource.ID.Validate(); err != nil {
		return nil, err
	}

	switch info.WalletSource.ID {
	case entities.WalletSourceBonus:
		return &bonusRollback{wallet: wallet, rollover: rollover, walletSourceRepo: walletSourceRepo}, nil
	default:
		return &normalRollback{wallet: wallet, rollover: rollover}, nil
	}
}

// normalRollback is used for the principal wallet: rollback is applied
// directly, there is no other wallet source it can spill onto.
type normalRollback struct {
	wallet   walletService
	rollover rolloverService
}

func (s *normalRollback) Apply(ctx context.Context, info entities.WalletInfo, sourceTxnIDs []int64) (*entities.UserWallet, *entities.RolloverMain, error) {
	txns, err := collectLastTransactions(ctx, s.wallet, info, sourceTxnIDs)
	if err != nil {
		return nil, nil, err
	}

	var (
		userWallet   *entities.UserWallet
		rolloverMain *entities.RolloverMain
	)
	for _, txn := range txns {
		if userWallet, rolloverMain, err = rollbackOne(ctx, s.wallet, s.rollover, info, txn); err != nil {
			return nil, nil, err
		}
	}
	return userWallet, rolloverMain, nil
}

// bonusRollback is used for the bonus wallet: if the bonus wallet cannot
// itself cover the total rollback amount, the whole batch is rolled back
// against the principal wallet instead; bonus rollbacks never leave a
// bonus wallet negative by spilling only part of a batch.
type bonusRollback struct {
	wallet           walletService
	rollover         rolloverService
	walletSourceRepo repositories.WalletSourceRepository
}

func (s *bonusRollback) Apply(ctx context.Context, info entities.WalletInfo, sourceTxnIDs []int64) (*entities.UserWallet, *entities.RolloverMain, error) {
	txns, err := collectLastTransactions(ctx, s.wallet, info, sourceTxnIDs)
	if err != nil {
		return nil, nil, err
	}

	needRollbackAmount := decimal.Zero
	for _, txn := range txns {
		if txn.Action.IsCredit() {
			needRollbackAmount = needRollbackAmount.Sub(txn.ChangeAmount)
		} else {
			needRollbackAmount = needRollbackAmount.Add(txn.ChangeAmount)
		}
	}

	// needRollbackAmount is negative when the rollback will debit the wallet
	// (it undoes a net deposit); IsEnough expects a non-negative withdraw
	// amount, so only the debit case constrains the balance.
	enough, err := s.wallet.IsEnough(ctx, info, needRollbackAmount.Neg())
	if err != nil {
		return nil, nil, err
	}

	effectiveInfo := info
	if !enough {
		normalSource, err := s.walletSourceRepo.GetByID(ctx, entities.WalletSourceNormal)
		if err != nil {
			return nil, nil, err
		}
		effectiveInfo = info.WithSource(*normalSource)
	}

	var (
		userWallet   *entities.UserWallet
		rolloverMain *entities.RolloverMain
	)
	for _, txn := range txns {
		if userWallet, rolloverMain, err = rollbackOne(ctx, s.wallet, s.rollover, effectiveInfo, txn); err != nil {
			return nil, nil, err
		}
	}
	return userWallet, rolloverMain, nil
}

func collectLastTransactions(ctx context.Context, wallet walletService, info entities.WalletInfo, sourceTxnIDs []int64) ([]*entities.WalletTransaction, error) {
	txns := make([]*entities.WalletTransaction, 0, len(sourceTxnIDs))
	for _, sourceTxnID := range sourceTxnIDs {
		txn, err := wallet.GetLastBySource(ctx, info.ClientID, info.UserID, sourceTxnID)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func rollbackOne(ctx context.Context, wallet walletService, rollover rolloverService, info entities.WalletInfo, txn *entities.WalletTransaction) (*entities.UserWallet, *entities.RolloverMain, error) {
	userWallet, walletTxn, err := wallet.RollbackTransaction(ctx, info, txn)
	if err != nil {
		return nil, nil, err
	}

	rolloverMain, _, err := rollover.RollbackRollover(ctx, userWallet.ID, info, walletTxn.ParentID, walletTxn.ID, userWallet.UserID)
	if err != nil {
		return nil, nil, err
	}
	return userWallet, rolloverMain, nil
}
