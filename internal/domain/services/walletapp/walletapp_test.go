package walletapp_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
	"github.com/playerwallet/wallet-service/internal/domain/repositories"
	"github.com/playerwallet/wallet-service/internal/infrastructure/database"
)

// newTestDB wires an *sqlx.DB against a go-sqlmock driver so WithTx's
// begin/commit/rollback calls have something real to talk to, without a
// live postgres connection. Every test expects exactly one transaction.
func newTestDB(t *testing.T) *database.SqlxDB {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectBegin()
	mock.ExpectCommit()

	return database.NewSqlxDB(db)
}

// newTestDBRollback is for tests whose callback is expected to return an
// error, so WithTx rolls back instead of committing.
func newTestDBRollback(t *testing.T) *database.SqlxDB {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectBegin()
	mock.ExpectRollback()

	return database.NewSqlxDB(db)
}

type fakeCurrency struct {
	currency entities.Currency
}

func (f *fakeCurrency) GetEnabledByName(ctx context.Context, clientID int64, name string) (entities.Currency, error) {
	return f.currency, nil
}

func (f *fakeCurrency) GetEnabledByID(ctx context.Context, clientID int64, currencyID int64) (entities.Currency, error) {
	return f.currency, nil
}

type fakeWalletSourceRepo struct {
	source entities.WalletSource
}

func (f *fakeWalletSourceRepo) GetByID(ctx context.Context, id entities.WalletSourceID) (*entities.WalletSource, error) {
	s := f.source
	s.ID = id
	return &s, nil
}

func (f *fakeWalletSourceRepo) GetByName(ctx context.Context, name string) (*entities.WalletSource, error) {
	return &f.source, nil
}

type fakeUserWalletRepo struct {
	wallet *entities.UserWallet
}

func (f *fakeUserWalletRepo) Get(ctx context.Context, info entities.WalletInfo) (*entities.UserWallet, error) {
	return f.wallet, nil
}

func (f *fakeUserWalletRepo) LockForUpdate(ctx context.Context, info entities.WalletInfo) (*entities.UserWallet, error) {
	return f.wallet, nil
}

func (f *fakeUserWalletRepo) Insert(ctx context.Context, wallet *entities.UserWallet) (*entities.UserWallet, error) {
	f.wallet = wallet
	return wallet, nil
}

func (f *fakeUserWalletRepo) Update(ctx context.Context, wallet *entities.UserWallet) (*entities.UserWallet, error) {
	f.wallet = wallet
	return wallet, nil
}

func (f *fakeUserWalletRepo) ListWithRollover(ctx context.Context, filter repositories.UserWalletFilter) ([]*entities.UserWalletWithRollover, int, error) {
	if f.wallet == nil {
		return nil, 0, nil
	}
	return []*entities.UserWalletWithRollover{{UserWallet: *f.wallet}}, 1, nil
}

// fakeWalletEngine and fakeRolloverEngine implement the walletapp.WalletEngine
// / RolloverEngine ports with scripted, in-memory behavior.
type fakeWalletEngine struct {
	wallet *entities.UserWallet
	txns   map[int64]*entities.WalletTransaction
	nextID int64
}

func newFakeWalletEngine(wallet *entities.UserWallet) *fakeWalletEngine {
	return &fakeWalletEngine{wallet: wallet, txns: make(map[int64]*entities.WalletTransaction), nextID: 5000}
}

func (f *fakeWalletEngine) GetOrCreate(ctx context.Context, info entities.WalletInfo) (*entities.UserWallet, error) {
	return f.wallet, nil
}

func (f *fakeWalletEngine) IsEnough(ctx context.Context, info entities.WalletInfo, withdrawAmount decimal.Decimal) (bool, error) {
	return f.wallet.IsEnough(withdrawAmount), nil
}

func (f *fakeWalletEngine) ChangeAmount(ctx context.Context, info entities.WalletInfo, parentWalletTxnID, sourceTxnID int64, amount decimal.Decimal, action entities.WalletAction) (*entities.UserWallet, *entities.WalletTransaction, error) {
	if action.IsCredit() {
		f.wallet.Deposit(amount)
	} else {
		if !f.wallet.IsEnough(amount) {
			return nil, nil, domainerrors.WalletAmountNotEnoughError()
		}
		f.wallet.Withdraw(amount)
	}
	f.nextID++
	txn := &entities.WalletTransaction{ID: f.nextID, ParentID: parentWalletTxnID, TransactionSourceID: sourceTxnID, Action: action, ChangeAmount: amount}
	f.txns[sourceTxnID] = txn
	return f.wallet, txn, nil
}

func (f *fakeWalletEngine) GetLastBySource(ctx context.Context, clientID, userID, sourceTxnID int64) (*entities.WalletTransaction, error) {
	txn, ok := f.txns[sourceTxnID]
	if !ok {
		return nil, domainerrors.DataNotFoundError("wallet transaction")
	}
	return txn, nil
}

func (f *fakeWalletEngine) RollbackTransaction(ctx context.Context, info entities.WalletInfo, txn *entities.WalletTransaction) (*entities.UserWallet, *entities.WalletTransaction, error) {
	opposite, err := txn.Action.Opposite()
	if err != nil {
		return nil, nil, err
	}
	return f.ChangeAmount(ctx, info, txn.ID, txn.TransactionSourceID, txn.ChangeAmount, opposite)
}

type fakeRolloverEngine struct {
	main *entities.RolloverMain
}

func newFakeRolloverEngine() *fakeRolloverEngine {
	return &fakeRolloverEngine{main: &entities.RolloverMain{ID: 1, RequirementRollover: decimal.Zero, AchievementRollover: decimal.Zero}}
}

func (f *fakeRolloverEngine) GetOrCreate(ctx context.Context, userWalletID int64, info entities.WalletInfo) (*entities.RolloverMain, error) {
	return f.main, nil
}

func (f *fakeRolloverEngine) IsAchieved(ctx context.Context, info entities.WalletInfo) (bool, error) {
	return f.main.IsAchieved(), nil
}

func (f *fakeRolloverEngine) ChangeRollover(ctx context.Context, userWalletID int64, info entities.WalletInfo, walletTxnID int64, amount, rolloverRate decimal.Decimal, action entities.WalletAction, changeBy int64) (*entities.RolloverMain, *entities.RolloverRecord, error) {
	switch action {
	case entities.WalletActionPaymentDeposit:
		f.main.AddRequirement(amount.Mul(rolloverRate))
	case entities.WalletActionGameDeposit:
		f.main.AddAchievement(amount.Mul(rolloverRate))
	case entities.WalletActionPaymentWithdraw:
		f.main.Clear()
	}
	return f.main, &entities.RolloverRecord{}, nil
}

func (f *fakeRolloverEngine) RollbackRollover(ctx context.Context, userWalletID int64, info entities.WalletInfo, originWalletTxnID, rollbackWalletTxnID, createBy int64) (*entities.RolloverMain, *entities.RolloverRecord, error) {
	return f.main, &entities.RolloverRecord{}, nil
}

func testInfo() entities.WalletInfo {
	return entities.WalletInfo{
		ClientID:     1,
		UserID:       42,
		Currency:     entities.Currency{ID: 1, Name: "USD"},
		WalletSource: entities.WalletSource{ID: entities.WalletSourceNormal, Name: "normal_wallet"},
	}
}

func zeroWallet() *entities.UserWallet {
	return entities.NewUserWallet(testInfo())
}
