package strategy

import (
	"context"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	"github.com/playerwallet/wallet-service/internal/domain/repositories"
)

// PaymentRollbackStrategy undoes a single source transaction against the
// payment facet's wallet; unlike RollbackWalletStrategy it resolves the
// currency itself (the payment facet's rollback RPC only carries a
// client/user/wallet-source triple and a source transaction id, not an
// already-resolved WalletInfo) and returns the resulting wallet and
// rollover state for the response.
type PaymentRollbackStrategy interface {
	Apply(ctx context.Context, clientID, userID int64, walletSource entities.WalletSource, sourceTxnID int64) (*entities.UserWallet, *entities.RolloverMain, error)
}

// NewPaymentRollbackStrategy selects the payment rollback strategy for
// walletSource.ID.
func NewPaymentRollbackStrategy(
	walletSource entities.WalletSource,
	currency repositories.CurrencyClient,
	walletSourceRepo repositories.WalletSourceRepository,
	wallet walletService,
	rollover rolloverService,
) (PaymentRollbackStrategy, error) {
	if err := walletSource.ID.Validate(); err != nil {
		return nil, err
	}

	switch walletSource.ID {
	case entities.WalletSourceBonus:
		return &bonusPaymentRollback{wallet: wallet, rollover: rollover, walletSourceRepo: walletSourceRepo, currency: currency}, nil
	default:
		return &normalPaymentRollback{wallet: wallet, rollover: rollover, currency: currency}, nil
	}
}

type normalPaymentRollback struct {
	wallet   walletService
	rollover rolloverService
	currency repositories.CurrencyClient
}

func (s *normalPaymentRollback) Apply(ctx context.Context, clientID, userID int64, walletSource entities.WalletSource, sourceTxnID int64) (*entities.UserWallet, *entities.RolloverMain, error) {
	lastTxn, err := s.wallet.GetLastBySource(ctx, clientID, userID, sourceTxnID)
	if err != nil {
		return nil, nil, err
	}

	currency, err := s.currency.GetEnabledByID(ctx, clientID, lastTxn.CurrencyID)
	if err != nil {
		return nil, nil, err
	}

	info := entities.WalletInfo{ClientID: clientID, UserID: userID, Currency: currency, WalletSource: walletSource}

	userWallet, walletTxn, err := s.wallet.RollbackTransaction(ctx, info, lastTxn)
	if err != nil {
		return nil, nil, err
	}

	rolloverMain, _, err := s.rollover.RollbackRollover(ctx, userWallet.ID, info, walletTxn.ParentID, walletTxn.ID, userID)
	if err != nil {
		return nil, nil, err
	}

	return userWallet, rolloverMain, nil
}

type bonusPaymentRollback struct {
	wallet           walletService
	rollover         rolloverService
	walletSourceRepo repositories.WalletSourceRepository
	currency         repositories.CurrencyClient
}

func (s *bonusPaymentRollback) Apply(ctx context.Context, clientID, userID int64, walletSource entities.WalletSource, sourceTxnID int64) (*entities.UserWallet, *entities.RolloverMain, error) {
	lastTxn, err := s.wallet.GetLastBySource(ctx, clientID, userID, sourceTxnID)
	if err != nil {
		return nil, nil, err
	}

	currency, err := s.currency.GetEnabledByID(ctx, clientID, lastTxn.CurrencyID)
	if err != nil {
		return nil, nil, err
	}

	info := entities.WalletInfo{ClientID: clientID, UserID: userID, Currency: currency, WalletSource: walletSource}

	// Rolling back a credit (e.g. PaymentDeposit) debits the wallet by
	// ChangeAmount; rolling back a debit only credits it, which never needs
	// a balance check.
	enough := true
	if lastTxn.Action.IsCredit() {
		var err error
		enough, err = s.wallet.IsEnough(ctx, info, lastTxn.ChangeAmount)
		if err != nil {
			return nil, nil, err
		}
	}
	if !enough {
		normalSource, err := s.walletSourceRepo.GetByID(ctx, entities.WalletSourceNormal)
		if err != nil {
			return nil, nil, err
		}
		info = info.WithSource(*normalSource)
	}

	userWallet, walletTxn, err := s.wallet.RollbackTransaction(ctx, info, lastTxn)
	if err != nil {
		return nil, nil, err
	}

	rolloverMain, _, err := s.rollover.RollbackRollover(ctx, userWallet.ID, info, walletTxn.ParentID, walletTxn.ID, userID)
	if err != nil {
		return nil, nil, err
	}

	return userWallet, rolloverMain, nil
}
