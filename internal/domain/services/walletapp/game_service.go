package walletapp

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	"github.com/playerwallet/wallet-service/internal/domain/repositories"
	"github.com/playerwallet/wallet-service/internal/domain/services/strategy"
	"github.com/playerwallet/wallet-service/internal/infrastructure/database"
	"github.com/playerwallet/wallet-service/pkg/logger"
)

// GameService is the game facet: settle rounds against a player's wallet
// and roll the corresponding wagering progress forward, with no withdrawal
// eligibility gate; a game result is never blocked by an outstanding
// rollover requirement, unlike a payment withdrawal.
type GameService struct {
	db               *database.SqlxDB
	currency         repositories.CurrencyClient
	walletSourceRepo repositories.WalletSourceRepository
	walletRepo       repositories.UserWalletRepository
	wallet           WalletEngine
	rollover         RolloverEngine
	logger           *logger.Logger
}

func NewGameService(
	db *database.SqlxDB,
	currency repositories.CurrencyClient,
	walletSourceRepo repositories.WalletSourceRepository,
	walletRepo repositories.UserWalletRepository,
	wallet WalletEngine,
	rollover RolloverEngine,
	log *logger.Logger,
) *GameService {
	return &GameService{
		db:               db,
		currency:         currency,
		walletSourceRepo: walletSourceRepo,
		walletRepo:       walletRepo,
		wallet:           wallet,
		rollover:         rollover,
		logger:           log,
	}
}

func (s *GameService) resolveInfo(ctx context.Context, clientID, userID int64, currencyName string, walletSourceID entities.WalletSourceID) (entities.WalletInfo, error) {
	currency, err := s.currency.GetEnabledByName(ctx, clientID, currencyName)
	if err != nil {
		return entities.WalletInfo{}, fmt.Errorf("resolve currency: %w", err)
	}
	source, err := s.walletSourceRepo.GetByID(ctx, walletSourceID)
	if err != nil {
		return entities.WalletInfo{}, fmt.Errorf("resolve wallet source: %w", err)
	}
	return entities.WalletInfo{ClientID: clientID, UserID: userID, Currency: currency, WalletSource: *source}, nil
}

// GetBalance returns the current balance for one wallet, creating it with a
// zero balance if it has never been referenced before.
func (s *GameService) GetBalance(ctx context.Context, clientID, userID int64, currencyName string, walletSourceID entities.WalletSourceID) (decimal.Decimal, error) {
	info, err := s.resolveInfo(ctx, clientID, userID, currencyName, walletSourceID)
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err = s.db.WithTx(ctx, func(ctx context.Context, _ *sqlx.Tx) error {
		wallet, err := s.wallet.GetOrCreate(ctx, info)
		if err != nil {
			return err
		}
		balance = wallet.Amount
		return nil
	})
	return balance, err
}

// Deposit credits a settled game round and advances achievement rollover by
// effectiveBet * rolloverRate; the wager that produced the win is what
// counts toward wagering progress, not the win amount itself.
func (s *GameService) Deposit(
	ctx context.Context,
	clientID, userID int64,
	currencyName string,
	walletSourceID entities.WalletSourceID,
	sourceTxnID int64,
	amount, effectiveBet, rolloverRate decimal.Decimal,
) (decimal.Decimal, error) {
	info, err := s.resolveInfo(ctx, clientID, userID, currencyName, walletSourceID)
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err = s.db.WithTx(ctx, func(ctx context.Context, _ *sqlx.Tx) error {
		if _, err := s.walletRepo.LockForUpdate(ctx, info); err != nil {
			return err
		}

		userWallet, walletTxn, err := s.wallet.ChangeAmount(ctx, info, 0, sourceTxnID, amount, entities.WalletActionGameDeposit)
		if err != nil {
			return err
		}
		// TODO(bonus-wallet-clearance): when walletSourceID is the bonus
		// source and this deposit clears the rollover requirement, the
		// bonus balance should sweep into the principal wallet.
		if _, _, err := s.rollover.ChangeRollover(ctx, userWallet.ID, info, walletTxn.ID, effectiveBet, rolloverRate, entities.WalletActionGameDeposit, userID); err != nil {
			return err
		}

		balance = userWallet.Amount
		return nil
	})
	return balance, err
}

// Withdraw debits a wager's stake. There is no rollover effect for a
// withdrawal; only a win (Deposit) counts toward wagering progress.
func (s *GameService) Withdraw(
	ctx context.Context,
	clientID, userID int64,
	currencyName string,
	walletSourceID entities.WalletSourceID,
	sourceTxnID int64,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	info, err := s.resolveInfo(ctx, clientID, userID, currencyName, walletSourceID)
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err = s.db.WithTx(ctx, func(ctx context.Context, _ *sqlx.Tx) error {
		if _, err := s.walletRepo.LockForUpdate(ctx, info); err != nil {
			return err
		}

		userWallet, walletTxn, err := s.wallet.ChangeAmount(ctx, info, 0, sourceTxnID, amount, entities.WalletActionGameWithdraw)
		if err != nil {
			return err
		}
		if _, _, err := s.rollover.ChangeRollover(ctx, userWallet.ID, info, walletTxn.ID, decimal.Zero, decimal.Zero, entities.WalletActionGameWithdraw, userID); err != nil {
			return err
		}

		balance = userWallet.Amount
		return nil
	})
	return balance, err
}

// Rollback undoes every source transaction id listed, spilling a bonus
// wallet's batch onto the principal wallet when it cannot cover the total.
// The returned balance is the wallet the compensations actually hit, which
// for a spilled-over bonus batch is the principal wallet.
func (s *GameService) Rollback(
	ctx context.Context,
	clientID, userID int64,
	currencyName string,
	walletSourceID entities.WalletSourceID,
	sourceTxnIDs []int64,
) (decimal.Decimal, error) {
	info, err := s.resolveInfo(ctx, clientID, userID, currencyName, walletSourceID)
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err = s.db.WithTx(ctx, func(ctx context.Context, _ *sqlx.Tx) error {
		if _, err := s.walletRepo.LockForUpdate(ctx, info); err != nil {
			return err
		}

		rollbackStrategy, err := strategy.NewRollbackStrategy(info, s.walletSourceRepo, s.wallet, s.rollover)
		if err != nil {
			return err
		}
		userWallet, _, err := rollbackStrategy.Apply(ctx, info, sourceTxnIDs)
		if err != nil {
			return err
		}
		balance = userWallet.Amount
		return nil
	})
	return balance, err
}

// Update replaces a previously settled round's amount with a corrected one,
// as reported after the fact by a game provider, returning the balance
// after the replacement is applied.
func (s *GameService) Update(
	ctx context.Context,
	clientID, userID int64,
	currencyName string,
	walletSourceID entities.WalletSourceID,
	sourceTxnID int64,
	oldAmount, newAmount, effectiveBet, rolloverRate decimal.Decimal,
) (decimal.Decimal, error) {
	info, err := s.resolveInfo(ctx, clientID, userID, currencyName, walletSourceID)
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err = s.db.WithTx(ctx, func(ctx context.Context, _ *sqlx.Tx) error {
		if _, err := s.walletRepo.LockForUpdate(ctx, info); err != nil {
			return err
		}

		updateStrategy, err := strategy.NewUpdateStrategy(info, s.walletSourceRepo, s.wallet, s.rollover)
		if err != nil {
			return err
		}
		userWallet, _, err := updateStrategy.Apply(ctx, info, sourceTxnID, oldAmount, newAmount, effectiveBet, rolloverRate)
		if err != nil {
			return err
		}
		balance = userWallet.Amount
		return nil
	})
	return balance, err
}
