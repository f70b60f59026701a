// Package walletengine implements the core balance-mutation primitive
// every game and payment operation is built from: changing a wallet's
// amount always creates a paired, parent-linked WalletTransaction.
package walletengine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
	"github.com/playerwallet/wallet-service/internal/domain/repositories"
	"github.com/playerwallet/wallet-service/pkg/logger"
	"github.com/playerwallet/wallet-service/pkg/snowflake"
)

// Service is the Wallet Engine. It has no SQL of its own; every read and
// write goes through the repository contracts, keeping transaction
// orchestration separate from persistence.
type Service struct {
	walletRepo    repositories.UserWalletRepository
	walletTxnRepo repositories.WalletTransactionRepository
	ids           *snowflake.Generator
	logger        *logger.Logger
}

func New(
	walletRepo repositories.UserWalletRepository,
	walletTxnRepo repositories.WalletTransactionRepository,
	ids *snowflake.Generator,
	log *logger.Logger,
) *Service {
	return &Service{
		walletRepo:    walletRepo,
		walletTxnRepo: walletTxnRepo,
		ids:           ids,
		logger:        log,
	}
}

// GetOrCreate returns the wallet for info, lazily creating a zero-balance
// row the first time it is referenced.
func (s *Service) GetOrCreate(ctx context.Context, info entities.WalletInfo) (*entities.UserWallet, error) {
	wallet, err := s.walletRepo.Get(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("get user wallet: %w", err)
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet = entities.NewUserWallet(info)
	wallet.ID = s.ids.NextID()
	return s.walletRepo.Insert(ctx, wallet)
}

// IsEnough reports whether info's wallet can cover withdrawAmount.
func (s *Service) IsEnough(ctx context.Context, info entities.WalletInfo, withdrawAmount decimal.Decimal) (bool, error) {
	wallet, err := s.GetOrCreate(ctx, info)
	if err != nil {
		return false, err
	}
	return wallet.IsEnough(withdrawAmount), nil
}

// ChangeAmount applies amount to info's wallet according to action and
// records the paired WalletTransaction. parentWalletTxnID is 0 for a new
// chain root, or the id of the transaction this one continues.
//
// Callers are expected to have already taken the row lock on the wallet
// (repositories.UserWalletRepository.LockForUpdate) before calling this -
// the engine itself does not lock, since a single RPC may call it more
// than once against the same already-locked row (see the update strategies).
func (s *Service) ChangeAmount(
	ctx context.Context,
	info entities.WalletInfo,
	parentWalletTxnID int64,
	sourceTxnID int64,
	amount decimal.Decimal,
	action entities.WalletAction,
) (*entities.UserWallet, *entities.WalletTransaction, error) {
	wallet, err := s.GetOrCreate(ctx, info)
	if err != nil {
		return nil, nil, err
	}

	txn := entities.NewWalletTransaction(wallet, parentWalletTxnID, sourceTxnID, action, amount)
	txn.ID = s.ids.NextID()

	if action.IsCredit() {
		wallet.Deposit(amount)
	} else {
		if !wallet.IsEnough(amount) {
			return nil, nil, domainerrors.WalletAmountNotEnoughError()
		}
		wallet.Withdraw(amount)
	}

	updatedWallet, err := s.walletRepo.Update(ctx, wallet)
	if err != nil {
		return nil, nil, fmt.Errorf("update user wallet: %w", err)
	}
	insertedTxn, err := s.walletTxnRepo.Insert(ctx, txn)
	if err != nil {
		return nil, nil, fmt.Errorf("insert wallet transaction: %w", err)
	}

	s.logger.Info("wallet.change_amount",
		"client_id", info.ClientID,
		"user_id", info.UserID,
		"wallet_source_id", info.WalletSource.ID,
		"action", action,
		"amount", amount.String(),
		"after_amount", updatedWallet.Amount.String(),
	)

	return updatedWallet, insertedTxn, nil
}

// GetLastBySource reconstructs the transaction chain for
// (client_id, user_id, transaction_source_id) and returns its tail; the
// transaction a rollback or update operates on.
//
// The chain is walked from its unique root (parent_id == 0) rather than
// sorted and popped: a chain that revisits an id, forks into more than one
// successor, or never reaches every listed transaction is reported as
// InternalServerError instead of silently returning whatever the last
// comparison happened to leave in place.
func (s *Service) GetLastBySource(ctx context.Context, clientID, userID, sourceTxnID int64) (*entities.WalletTransaction, error) {
	txns, err := s.walletTxnRepo.ListByTransactionSourceID(ctx, clientID, userID, sourceTxnID)
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	if len(txns) == 0 {
		s.logger.Warn("wallet.get_last_by_source: no transactions found",
			"client_id", clientID, "user_id", userID, "transaction_source_id", sourceTxnID)
		return nil, domainerrors.DataNotFoundError("wallet transaction")
	}

	byID := make(map[int64]*entities.WalletTransaction, len(txns))
	childByParent := make(map[int64]*entities.WalletTransaction, len(txns))
	var root *entities.WalletTransaction

	for _, t := range txns {
		t := t
		byID[t.ID] = t
		if t.IsRoot() {
			if root != nil {
				s.logger.Warn("wallet.get_last_by_source: multiple chain roots",
					"client_id", clientID, "user_id", userID, "transaction_source_id", sourceTxnID)
				return nil, domainerrors.InternalError("malformed wallet transaction chain: multiple roots", nil)
			}
			root = t
			continue
		}
		if existing, ok := childByParent[t.ParentID]; ok {
			s.logger.Warn("wallet.get_last_by_source: forked chain",
				"client_id", clientID, "user_id", userID, "transaction_source_id", sourceTxnID,
				"parent_id", t.ParentID, "sibling_a", existing.ID, "sibling_b", t.ID)
			return nil, domainerrors.InternalError("malformed wallet transaction chain: forked chain", nil)
		}
		childByParent[t.ParentID] = t
	}

	if root == nil {
		s.logger.Warn("wallet.get_last_by_source: no chain root",
			"client_id", clientID, "user_id", userID, "transaction_source_id", sourceTxnID)
		return nil, domainerrors.InternalError("malformed wallet transaction chain: no root", nil)
	}

	current := root
	visited := map[int64]bool{current.ID: true}
	for {
		next, ok := childByParent[current.ID]
		if !ok {
			break
		}
		if visited[next.ID] {
			s.logger.Warn("wallet.get_last_by_source: cycle detected",
				"client_id", clientID, "user_id", userID, "transaction_source_id", sourceTxnID)
			return nil, domainerrors.InternalError("malformed wallet transaction chain: cycle", nil)
		}
		visited[next.ID] = true
		current = next
	}

	if len(visited) != len(txns) {
		s.logger.Warn("wallet.get_last_by_source: disconnected transactions",
			"client_id", clientID, "user_id", userID, "transaction_source_id", sourceTxnID,
			"chain_length", len(visited), "total_found", len(txns))
		return nil, domainerrors.InternalError("malformed wallet transaction chain: disconnected nodes", nil)
	}

	return current, nil
}

// RollbackTransaction compensates txn by applying the opposite action for
// the same absolute amount, chained onto txn as its parent; so a rollback
// of a rollback is just another link in the same chain.
func (s *Service) RollbackTransaction(ctx context.Context, info entities.WalletInfo, txn *entities.WalletTransaction) (*entities.UserWallet, *entities.WalletTransaction, error) {
	rollbackAction, err := txn.Action.Opposite()
	if err != nil {
		return nil, nil, err
	}

	return s.ChangeAmount(ctx, info, txn.ID, txn.TransactionSourceID, txn.ChangeAmount, rollbackAction)
}
