package walletapp

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
	"github.com/playerwallet/wallet-service/internal/domain/repositories"
	"github.com/playerwallet/wallet-service/internal/domain/services/strategy"
	"github.com/playerwallet/wallet-service/internal/infrastructure/database"
	"github.com/playerwallet/wallet-service/pkg/logger"
)

// PaymentService is the payment facet: player-initiated funding and
// withdrawal, gated on the rollover ledger for withdrawals.
type PaymentService struct {
	db               *database.SqlxDB
	currency         repositories.CurrencyClient
	walletSourceRepo repositories.WalletSourceRepository
	walletRepo       repositories.UserWalletRepository
	wallet           WalletEngine
	rollover         RolloverEngine
	logger           *logger.Logger
}

func NewPaymentService(
	db *database.SqlxDB,
	currency repositories.CurrencyClient,
	walletSourceRepo repositories.WalletSourceRepository,
	walletRepo repositories.UserWalletRepository,
	wallet WalletEngine,
	rollover RolloverEngine,
	log *logger.Logger,
) *PaymentService {
	return &PaymentService{
		db:               db,
		currency:         currency,
		walletSourceRepo: walletSourceRepo,
		walletRepo:       walletRepo,
		wallet:           wallet,
		rollover:         rollover,
		logger:           log,
	}
}

func (s *PaymentService) resolveInfo(ctx context.Context, clientID, userID int64, currencyName string, walletSourceID entities.WalletSourceID) (entities.WalletInfo, error) {
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

// Get returns the composed balance and rollover state for one wallet.
func (s *PaymentService) Get(ctx context.Context, clientID, userID int64, currencyName string, walletSourceID entities.WalletSourceID) (WalletModel, error) {
	info, err := s.resolveInfo(ctx, clientID, userID, currencyName, walletSourceID)
	if err != nil {
		return WalletModel{}, err
	}

	var model WalletModel
	err = s.db.WithTx(ctx, func(ctx context.Context, _ *sqlx.Tx) error {
		userWallet, err := s.wallet.GetOrCreate(ctx, info)
		if err != nil {
			return err
		}
		rolloverMain, err := s.rollover.GetOrCreate(ctx, userWallet.ID, info)
		if err != nil {
			return err
		}
		model = newWalletModel(userWallet, rolloverMain)
		return nil
	})
	return model, err
}

// GetList is the administrator query: it pages over every wallet for a
// client, optionally narrowed to specific players, currencies (resolved by
// name through the oracle), and wallet sources.
func (s *PaymentService) GetList(
	ctx context.Context,
	clientID int64,
	playerIDs []int64,
	currencyNames []string,
	walletSourceIDs []entities.WalletSourceID,
	page, pageSize int,
) ([]WalletModel, int, error) {
	filter := repositories.UserWalletFilter{
		ClientID:        clientID,
		PlayerIDs:       playerIDs,
		WalletSourceIDs: walletSourceIDs,
		Page:            page,
		PageSize:        pageSize,
	}

	for _, name := range currencyNames {
		currency, err := s.currency.GetEnabledByName(ctx, clientID, name)
		if err != nil {
			return nil, 0, fmt.Errorf("resolve currency %q: %w", name, err)
		}
		filter.CurrencyIDs = append(filter.CurrencyIDs, currency.ID)
	}

	var (
		rows  []*entities.UserWalletWithRollover
		total int
	)
	err := s.db.WithTx(ctx, func(ctx context.Context, _ *sqlx.Tx) error {
		var err error
		rows, total, err = s.walletRepo.ListWithRollover(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	models := make([]WalletModel, 0, len(rows))
	for _, row := range rows {
		models = append(models, WalletModel{
			ClientID:            row.ClientID,
			UserID:              row.UserID,
			CurrencyID:          row.CurrencyID,
			CurrencyName:        row.CurrencyName,
			WalletSourceID:      row.WalletSourceID,
			WalletSourceName:    row.WalletSourceName,
			Amount:              row.Amount,
			RequirementRollover: row.RequirementRollover,
			AchievementRollover: row.AchievementRollover,
		})
	}
	return models, total, nil
}

// Deposit funds the wallet and adds to the outstanding wagering requirement.
func (s *PaymentService) Deposit(
	ctx context.Context,
	clientID, userID int64,
	currencyName string,
	walletSourceID entities.WalletSourceID,
	sourceTxnID int64,
	amount, rolloverRate decimal.Decimal,
) (WalletModel, error) {
	info, err := s.resolveInfo(ctx, clientID, userID, currencyName, walletSourceID)
	if err != nil {
		return WalletModel{}, err
	}

	var model WalletModel
	err = s.db.WithTx(ctx, func(ctx context.Context, _ *sqlx.Tx) error {
		if _, err := s.walletRepo.LockForUpdate(ctx, info); err != nil {
			return err
		}

		userWallet, walletTxn, err := s.wallet.ChangeAmount(ctx, info, 0, sourceTxnID, amount, entities.WalletActionPaymentDeposit)
		if err != nil {
			return err
		}
		rolloverMain, _, err := s.rollover.ChangeRollover(ctx, userWallet.ID, info, walletTxn.ID, amount, rolloverRate, entities.WalletActionPaymentDeposit, userID)
		if err != nil {
			return err
		}

		model = newWalletModel(userWallet, rolloverMain)
		return nil
	})
	return model, err
}

// Withdraw debits the wallet, refusing the request outright if the wagering
// requirement has not yet been achieved.
func (s *PaymentService) Withdraw(
	ctx context.Context,
	clientID, userID int64,
	currencyName string,
	walletSourceID entities.WalletSourceID,
	sourceTxnID int64,
	amount decimal.Decimal,
) (WalletModel, error) {
	info, err := s.resolveInfo(ctx, clientID, userID, currencyName, walletSourceID)
	if err != nil {
		return WalletModel{}, err
	}

	var model WalletModel
	err = s.db.WithTx(ctx, func(ctx context.Context, _ *sqlx.Tx) error {
		if _, err := s.walletRepo.LockForUpdate(ctx, info); err != nil {
			return err
		}

		achieved, err := s.rollover.IsAchieved(ctx, info)
		if err != nil {
			return err
		}
		if !achieved {
			return domainerrors.RolloverNotAchievedError()
		}

		userWallet, walletTxn, err := s.wallet.ChangeAmount(ctx, info, 0, sourceTxnID, amount, entities.WalletActionPaymentWithdraw)
		if err != nil {
			return err
		}
		rolloverMain, _, err := s.rollover.ChangeRollover(ctx, userWallet.ID, info, walletTxn.ID, decimal.Zero, decimal.Zero, entities.WalletActionPaymentWithdraw, userID)
		if err != nil {
			return err
		}

		model = newWalletModel(userWallet, rolloverMain)
		return nil
	})
	return model, err
}

// Reject reverses a withdrawal that an upstream payment provider declined,
// crediting the wallet back and restoring the rollover ledger it cleared.
func (s *PaymentService) Reject(
	ctx context.Context,
	clientID, userID int64,
	currencyName string,
	walletSourceID entities.WalletSourceID,
	sourceTxnID int64,
) (WalletModel, error) {
	info, err := s.resolveInfo(ctx, clientID, userID, currencyName, walletSourceID)
	if err != nil {
		return WalletModel{}, err
	}

	var model WalletModel
	err = s.db.WithTx(ctx, func(ctx context.Context, _ *sqlx.Tx) error {
		if _, err := s.walletRepo.LockForUpdate(ctx, info); err != nil {
			return err
		}

		origin, err := s.wallet.GetLastBySource(ctx, clientID, userID, sourceTxnID)
		if err != nil {
			return err
		}

		userWallet, walletTxn, err := s.wallet.ChangeAmount(ctx, info, origin.ID, sourceTxnID, origin.ChangeAmount, entities.WalletActionPaymentWithdrawReject)
		if err != nil {
			return err
		}
		rolloverMain, _, err := s.rollover.RollbackRollover(ctx, userWallet.ID, info, origin.ID, walletTxn.ID, userID)
		if err != nil {
			return err
		}

		model = newWalletModel(userWallet, rolloverMain)
		return nil
	})
	return model, err
}

// Rollback undoes a single source transaction, resolving its own currency
// from the original transaction rather than a caller-supplied one; the
// payment facet's rollback RPC only carries a wallet-source triple.
func (s *PaymentService) Rollback(
	ctx context.Context,
	clientID, userID int64,
	walletSourceID entities.WalletSourceID,
	sourceTxnID int64,
) (WalletModel, error) {
	source, err := s.walletSourceRepo.GetByID(ctx, walletSourceID)
	if err != nil {
		return WalletModel{}, fmt.Errorf("resolve wallet source: %w", err)
	}

	var model WalletModel
	err = s.db.WithTx(ctx, func(ctx context.Context, _ *sqlx.Tx) error {
		rollbackStrategy, err := strategy.NewPaymentRollbackStrategy(*source, s.currency, s.walletSourceRepo, s.wallet, s.rollover)
		if err != nil {
			return err
		}

		userWallet, rolloverMain, err := rollbackStrategy.Apply(ctx, clientID, userID, *source, sourceTxnID)
		if err != nil {
			return err
		}

		model = newWalletModel(userWallet, rolloverMain)
		return nil
	})
	return model, err
}
