package strategy

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
	"github.com/playerwallet/wallet-service/internal/domain/repositories"
)

// UpdateWalletStrategy replaces the settled amount of a previously
// recorded game round: it rolls back the original transaction and records
// a fresh one for new_amount, the game facet's in-place correction
// operation (used when a provider reports a settlement after the fact).
// Apply returns the wallet and rollover state after the replacement is
// applied, so callers can answer with the resulting balance.
type UpdateWalletStrategy interface {
	Apply(ctx context.Context, info entities.WalletInfo, sourceTxnID int64, oldAmount, newAmount, effectiveBet, rolloverRate decimal.Decimal) (*entities.UserWallet, *entities.RolloverMain, error)
}

// NewUpdateStrategy selects the update strategy for info.WalletSource.ID.
func NewUpdateStrategy(
	info entities.WalletInfo,
	walletSourceRepo repositories.WalletSourceRepository,
	wallet walletService,
	rollover rolloverService,
) (UpdateWalletStrategy, error) {
	if err := info.WalletSource.ID.Validate(); err != nil {
		return nil, err
	}

	switch info.WalletSource.ID {
	case entities.WalletSourceBonus:
		return &bonusUpdate{wallet: wallet, rollover: rollover, walletSourceRepo: walletSourceRepo}, nil
	default:
		return &normalUpdate{wallet: wallet, rollover: rollover}, nil
	}
}

type normalUpdate struct {
	wallet   walletService
	rollover rolloverService
}

func (s *normalUpdate) Apply(ctx context.Context, info entities.WalletInfo, sourceTxnID int64, oldAmount, newAmount, effectiveBet, rolloverRate decimal.Decimal) (*entities.UserWallet, *entities.RolloverMain, error) {
	origin, err := s.wallet.GetLastBySource(ctx, info.ClientID, info.UserID, sourceTxnID)
	if err != nil {
		return nil, nil, err
	}
	if !origin.SignedAmount().Equal(oldAmount) {
		return nil, nil, domainerrors.GameRollbackAmountErrorf()
	}

	userWallet, walletTxn, err := s.wallet.RollbackTransaction(ctx, info, origin)
	if err != nil {
		return nil, nil, err
	}
	if _, _, err := s.rollover.RollbackRollover(ctx, userWallet.ID, info, walletTxn.ParentID, walletTxn.ID, userWallet.UserID); err != nil {
		return nil, nil, err
	}

	action := entities.SignedDepositAction(origin.Action, newAmount)
	userWallet, walletTxn, err = s.wallet.ChangeAmount(ctx, info, walletTxn.ID, origin.TransactionSourceID, newAmount.Abs(), action)
	if err != nil {
		return nil, nil, err
	}

	rolloverMain, _, err := s.rollover.ChangeRollover(ctx, userWallet.ID, info, walletTxn.ID, effectiveBet.Abs(), rolloverRate, action, userWallet.UserID)
	if err != nil {
		return nil, nil, err
	}
	return userWallet, rolloverMain, nil
}

// bonusUpdate mirrors normalUpdate but, like bonusRollback, re-binds to the
// principal wallet source when the bonus wallet cannot cover the
// difference between old_amount and new_amount.
type bonusUpdate struct {
	wallet           walletService
	rollover         rolloverService
	walletSourceRepo repositories.WalletSourceRepository
}

func (s *bonusUpdate) Apply(ctx context.Context, info entities.WalletInfo, sourceTxnID int64, oldAmount, newAmount, effectiveBet, rolloverRate decimal.Decimal) (*entities.UserWallet, *entities.RolloverMain, error) {
	origin, err := s.wallet.GetLastBySource(ctx, info.ClientID, info.UserID, sourceTxnID)
	if err != nil {
		return nil, nil, err
	}
	if !origin.SignedAmount().Equal(oldAmount) {
		return nil, nil, domainerrors.GameRollbackAmountErrorf()
	}

	diffAmount := newAmount.Sub(oldAmount)

	// diffAmount is negative when the correction nets a debit relative to
	// the currently-applied amount; IsEnough expects a non-negative
	// withdraw amount, so a net-credit diff is always affordable.
	enough, err := s.wallet.IsEnough(ctx, info, diffAmount.Neg())
	if err != nil {
		return nil, nil, err
	}

	effectiveInfo := info
	if !enough {
		// Re-bind to the principal wallet source rather than re-fetching the
		// current (bonus) source, mirroring the rollback strategy.
		normalSource, err := s.walletSourceRepo.GetByID(ctx, entities.WalletSourceNormal)
		if err != nil {
			return nil, nil, err
		}
		effectiveInfo = info.WithSource(*normalSource)
	}

	userWallet, walletTxn, err := s.wallet.RollbackTransaction(ctx, effectiveInfo, origin)
	if err != nil {
		return nil, nil, err
	}
	if _, _, err := s.rollover.RollbackRollover(ctx, userWallet.ID, effectiveInfo, walletTxn.ParentID, walletTxn.ID, userWallet.UserID); err != nil {
		return nil, nil, err
	}

	action := entities.SignedDepositAction(origin.Action, newAmount)
	userWallet, walletTxn, err = s.wallet.ChangeAmount(ctx, effectiveInfo, walletTxn.ID, origin.TransactionSourceID, newAmount.Abs(), action)
	if err != nil {
		return nil, nil, err
	}

	rolloverMain, _, err := s.rollover.ChangeRollover(ctx, userWallet.ID, effectiveInfo, walletTxn.ID, effectiveBet.Abs(), rolloverRate, action, userWallet.UserID)
	if err != nil {
		return nil, nil, err
	}
	return userWallet, rolloverMain, nil
}
