package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
	infradb "github.com/playerwallet/wallet-service/internal/infrastructure/database"
)

// WalletSourceRepository resolves the two seeded wallet_source rows. The
// set is fixed at migration time, so this repository never writes.
type WalletSourceRepository struct {
	db infradb.Executor
}

func NewWalletSourceRepository(db infradb.Executor) *WalletSourceRepository {
	return &WalletSourceRepository{db: db}
}

func (r *WalletSourceRepository) exec(ctx context.Context) infradb.Executor {
	return infradb.ExecutorFromContext(ctx, r.db)
}

func (r *WalletSourceRepository) GetByID(ctx context.Context, id entities.WalletSourceID) (*entities.WalletSource, error) {
	query := `SELECT id, name, created_at FROM wallet_source WHERE id = $1`

	var source entities.WalletSource
	err := r.exec(ctx).GetContext(ctx, &source, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainerrors.DataNotFoundError("wallet source")
		}
		return nil, fmt.Errorf("get wallet source: %w", err)
	}
	return &source, nil
}

func (r *WalletSourceRepository) GetByName(ctx context.Context, name string) (*entities.WalletSource, error) {
	query := `SELECT id, name, created_at FROM wallet_source WHERE name = $1`

	var source entities.WalletSource
	err := r.exec(ctx).GetContext(ctx, &source, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainerrors.DataNotFoundError("wallet source")
		}
		return nil, fmt.Errorf("get wallet source: %w", err)
	}
	return &source, nil
}
