// Package rolloverengine tracks the wagering requirement that gates
// payment withdrawals: every wallet action updates the rollover ledger
// differently depending on which facet and direction produced it.
package rolloverengine

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

// Service is the Rollover Engine.
type Service struct {
	mainRepo   repositories.RolloverMainRepository
	recordRepo repositories.RolloverRecordRepository
	ids        *snowflake.Generator
	logger     *logger.Logger
}

func New(
	mainRepo repositories.RolloverMainRepository,
	recordRepo repositories.RolloverRecordRepository,
	ids *snowflake.Generator,
	log *logger.Logger,
) *Service {
	return &Service{
		mainRepo:   mainRepo,
		recordRepo: recordRepo,
		ids:        ids,
		logger:     log,
	}
}

// GetOrCreate returns the rollover ledger for info, lazily creating a
// zero-totals row the first time it is referenced.
func (s *Service) GetOrCreate(ctx context.Context, userWalletID int64, info entities.WalletInfo) (*entities.RolloverMain, error) {
	main, err := s.mainRepo.Get(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("get rollover main: %w", err)
	}
	if main != nil {
		return main, nil
	}

	main = entities.NewRolloverMain(info, userWalletID)
	main.ID = s.ids.NextID()
	return s.mainRepo.Insert(ctx, main)
}

// IsAchieved reports whether info's wagering requirement has been cleared.
// Unlike GetOrCreate, a missing ledger here is a caller error; a wallet
// must have been referenced (and its ledger created) before withdrawal
// eligibility is checked against it.
func (s *Service) IsAchieved(ctx context.Context, info entities.WalletInfo) (bool, error) {
	main, err := s.mainRepo.Get(ctx, info)
	if err != nil {
		return false, fmt.Errorf("get rollover main: %w", err)
	}
	if main == nil {
		s.logger.Warn("rollover.is_achieved: no rollover main", "client_id", info.ClientID, "user_id", info.UserID)
		return false, domainerrors.DataNotFoundError("rollover main")
	}
	return main.IsAchieved(), nil
}

// ChangeRollover dispatches to the action-specific rollover mutation.
func (s *Service) ChangeRollover(
	ctx context.Context,
	userWalletID int64,
	info entities.WalletInfo,
	walletTxnID int64,
	amount decimal.Decimal,
	rolloverRate decimal.Decimal,
	action entities.WalletAction,
	changeBy int64,
) (*entities.RolloverMain, *entities.RolloverRecord, error) {
	switch action {
	case entities.WalletActionGameDeposit:
		return s.gameDepositRollover(ctx, userWalletID, info, walletTxnID, amount, rolloverRate, changeBy)
	case entities.WalletActionGameWithdraw:
		main, err := s.GetOrCreate(ctx, userWalletID, info)
		return main, nil, err
	case entities.WalletActionPaymentDeposit:
		return s.paymentDepositRollover(ctx, userWalletID, info, walletTxnID, amount, rolloverRate, changeBy)
	case entities.WalletActionPaymentWithdraw, entities.WalletActionPaymentWithdrawReject:
		return s.paymentWithdrawRollover(ctx, userWalletID, info, walletTxnID, changeBy)
	default:
		return nil, nil, fmt.Errorf("rollover engine: unsupported action %d", action)
	}
}

// gameDepositRollover credits achievement progress when a game round pays
// the player back (a win counts toward clearing the wagering requirement).
func (s *Service) gameDepositRollover(ctx context.Context, userWalletID int64, info entities.WalletInfo, walletTxnID int64, amount, rate decimal.Decimal, changeBy int64) (*entities.RolloverMain, *entities.RolloverRecord, error) {
	main, err := s.GetOrCreate(ctx, userWalletID, info)
	if err != nil {
		return nil, nil, err
	}

	record := entities.NewRolloverRecord(main.ID, walletTxnID, info, entities.RolloverTypeAchievement, amount, rate, changeBy)
	record.ID = s.ids.NextID()
	main.AddAchievementByRate(amount, rate)

	return s.persist(ctx, main, record)
}

// paymentDepositRollover adds requirement progress when the player funds
// the wallet; the new balance must be wagered before it can be withdrawn.
func (s *Service) paymentDepositRollover(ctx context.Context, userWalletID int64, info entities.WalletInfo, walletTxnID int64, amount, rate decimal.Decimal, changeBy int64) (*entities.RolloverMain, *entities.RolloverRecord, error) {
	main, err := s.GetOrCreate(ctx, userWalletID, info)
	if err != nil {
		return nil, nil, err
	}

	record := entities.NewRolloverRecord(main.ID, walletTxnID, info, entities.RolloverTypeRequirement, amount, rate, changeBy)
	record.ID = s.ids.NextID()
	main.AddRequirementByRate(amount, rate)

	return s.persist(ctx, main, record)
}

// paymentWithdrawRollover clears both totals once a withdrawal is allowed
// to proceed (the caller has already checked IsAchieved).
func (s *Service) paymentWithdrawRollover(ctx context.Context, userWalletID int64, info entities.WalletInfo, walletTxnID int64, changeBy int64) (*entities.RolloverMain, *entities.RolloverRecord, error) {
	main, err := s.GetOrCreate(ctx, userWalletID, info)
	if err != nil {
		return nil, nil, err
	}

	record := entities.NewClearRolloverRecord(main, walletTxnID, changeBy)
	record.ID = s.ids.NextID()
	main.Clear()

	return s.persist(ctx, main, record)
}

func (s *Service) persist(ctx context.Context, main *entities.RolloverMain, record *entities.RolloverRecord) (*entities.RolloverMain, *entities.RolloverRecord, error) {
	insertedRecord, err := s.recordRepo.Insert(ctx, record)
	if err != nil {
		return nil, nil, fmt.Errorf("insert rollover record: %w", err)
	}
	updatedMain, err := s.mainRepo.Update(ctx, main)
	if err != nil {
		return nil, nil, fmt.Errorf("update rollover main: %w", err)
	}
	return updatedMain, insertedRecord, nil
}

// RollbackRollover undoes the rollover effect of a wallet transaction by
// negating whatever record it produced (if any) and re-applying the
// negation to the ledger; there is never more than one record per
// wallet_txn_id, so a missing record simply means that transaction had no
// rollover effect to undo (e.g. a game withdraw).
func (s *Service) RollbackRollover(
	ctx context.Context,
	userWalletID int64,
	info entities.WalletInfo,
	originWalletTxnID int64,
	rollbackWalletTxnID int64,
	createBy int64,
) (*entities.RolloverMain, *entities.RolloverRecord, error) {
	record, err := s.recordRepo.GetByWalletTransactionID(ctx, originWalletTxnID)
	if err != nil {
		return nil, nil, fmt.Errorf("get rollover record: %w", err)
	}

	if record == nil {
		main, err := s.GetOrCreate(ctx, userWalletID, info)
		return main, nil, err
	}

	rollbackRecord := record.NewRollbackRolloverRecord(rollbackWalletTxnID, createBy)
	rollbackRecord.ID = s.ids.NextID()

	main, err := s.GetOrCreate(ctx, userWalletID, info)
	if err != nil {
		return nil, nil, err
	}
	main.AddRequirement(rollbackRecord.RequirementRollover)
	main.AddAchievement(rollbackRecord.AchievementRollover)

	return s.persist(ctx, main, rollbackRecord)
}
