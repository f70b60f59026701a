package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
	infradb "github.com/playerwallet/wallet-service/internal/infrastructure/database"
)

// RolloverMainRepository persists the one wagering ledger row per
// (client_id, user_id, currency_id, wallet_source_id) tuple.
type RolloverMainRepository struct {
	db infradb.Executor
}

func NewRolloverMainRepository(db infradb.Executor) *RolloverMainRepository {
	return &RolloverMainRepository{db: db}
}

func (r *RolloverMainRepository) exec(ctx context.Context) infradb.Executor {
	return infradb.ExecutorFromContext(ctx, r.db)
}

const rolloverMainColumns = `
	id, user_wallet_id, client_id, user_id, currency_id, currency_name,
	wallet_source_id, requirement_rollover, achievement_rollover, created_at, updated_at
`

func (r *RolloverMainRepository) Get(ctx context.Context, info entities.WalletInfo) (*entities.RolloverMain, error) {
	query := `SELECT ` + rolloverMainColumns + `
		FROM rollover_main
		WHERE client_id = $1 AND user_id = $2 AND currency_id = $3 AND wallet_source_id = $4`

	var main entities.RolloverMain
	err := r.exec(ctx).GetContext(ctx, &main, query, info.ClientID, info.UserID, info.Currency.ID, info.WalletSource.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get rollover main: %w", err)
	}
	return &main, nil
}

func (r *RolloverMainRepository) Insert(ctx context.Context, main *entities.RolloverMain) (*entities.RolloverMain, error) {
	query := `
		INSERT INTO rollover_main (
			id, user_wallet_id, client_id, user_id, currency_id, currency_name,
			wallet_source_id, requirement_rollover, achievement_rollover, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (client_id, user_id, currency_id, wallet_source_id) DO NOTHING
		RETURNING ` + rolloverMainColumns

	var inserted entities.RolloverMain
	err := r.exec(ctx).QueryRowxContext(
		ctx, query,
		main.ID, main.UserWalletID, main.ClientID, main.UserID, main.CurrencyID, main.CurrencyName,
		main.WalletSourceID, main.RequirementRollover, main.AchievementRollover, main.CreatedAt, main.UpdatedAt,
	).StructScan(&inserted)
	if err != nil {
		if err == sql.ErrNoRows {
			info := entities.WalletInfo{
				ClientID: main.ClientID, UserID: main.UserID,
				Currency:     entities.Currency{ID: main.CurrencyID, Name: main.CurrencyName},
				WalletSource: entities.WalletSource{ID: main.WalletSourceID},
			}
			existing, getErr := r.Get(ctx, info)
			if getErr != nil {
				return nil, getErr
			}
			return existing, nil
		}
		return nil, fmt.Errorf("insert rollover main: %w", err)
	}
	return &inserted, nil
}

func (r *RolloverMainRepository) Update(ctx context.Context, main *entities.RolloverMain) (*entities.RolloverMain, error) {
	main.UpdatedAt = time.Now()

	query := `
		UPDATE rollover_main
		SET requirement_rollover = $1, achievement_rollover = $2, updated_at = $3
		WHERE id = $4
		RETURNING ` + rolloverMainColumns

	var updated entities.RolloverMain
	err := r.exec(ctx).QueryRowxContext(ctx, query, main.RequirementRollover, main.AchievementRollover, main.UpdatedAt, main.ID).StructScan(&updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainerrors.DataNotFoundError("rollover main")
		}
		return nil, fmt.Errorf("update rollover main: %w", err)
	}
	return &updated, nil
}

// RolloverRecordRepository persists the immutable rollover history, at
// most one record per wallet_txn_id.
type RolloverRecordRepository struct {
	db infradb.Executor
}

func NewRolloverRecordRepository(db infradb.Executor) *RolloverRecordRepository {
	return &RolloverRecordRepository{db: db}
}

func (r *RolloverRecordRepository) exec(ctx context.Context) infradb.Executor {
	return infradb.ExecutorFromContext(ctx, r.db)
}

const rolloverRecordColumns = `
	id, main_id, client_id, user_id, requirement_rollover, requirement_rollover_rate,
	achievement_rollover, achievement_rollover_rate, create_by, wallet_txn_id, created_at
`

func (r *RolloverRecordRepository) Insert(ctx context.Context, record *entities.RolloverRecord) (*entities.RolloverRecord, error) {
	query := `
		INSERT INTO rollover_record (
			id, main_id, client_id, user_id, requirement_rollover, requirement_rollover_rate,
			achievement_rollover, achievement_rollover_rate, create_by, wallet_txn_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + rolloverRecordColumns

	var inserted entities.RolloverRecord
	err := r.exec(ctx).QueryRowxContext(
		ctx, query,
		record.ID, record.MainID, record.ClientID, record.UserID,
		record.RequirementRollover, record.RequirementRolloverRate,
		record.AchievementRollover, record.AchievementRolloverRate,
		record.CreateBy, record.WalletTxnID, record.CreatedAt,
	).StructScan(&inserted)
	if err != nil {
		return nil, fmt.Errorf("insert rollover record: %w", err)
	}
	return &inserted, nil
}

func (r *RolloverRecordRepository) GetByWalletTransactionID(ctx context.Context, walletTxnID int64) (*entities.RolloverRecord, error) {
	query := `SELECT ` + rolloverRecordColumns + ` FROM rollover_record WHERE wallet_txn_id = $1`

	var record entities.RolloverRecord
	err := r.exec(ctx).GetContext(ctx, &record, query, walletTxnID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get rollover record: %w", err)
	}
	return &record, nil
}
