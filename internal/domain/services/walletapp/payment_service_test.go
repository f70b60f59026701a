package walletapp_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
	"github.com/playerwallet/wallet-service/internal/domain/services/walletapp"
	"github.com/playerwallet/wallet-service/internal/infrastructure/database"
	"github.com/playerwallet/wallet-service/pkg/logger"
)

func newPaymentServiceWithDB(t *testing.T, db *database.SqlxDB, wallet *entities.UserWallet, engine *fakeWalletEngine, rollover *fakeRolloverEngine) *walletapp.PaymentService {
	t.Helper()
	walletRepo := &fakeUserWalletRepo{wallet: wallet}
	currency := &fakeCurrency{currency: entities.Currency{ID: 1, Name: "USD"}}
	sourceRepo := &fakeWalletSourceRepo{source: entities.WalletSource{ID: entities.WalletSourceNormal, Name: "normal_wallet"}}
	log := logger.New("error", "test")
	return walletapp.NewPaymentService(db, currency, sourceRepo, walletRepo, engine, rollover, log)
}

func newPaymentService(t *testing.T, wallet *entities.UserWallet, engine *fakeWalletEngine, rollover *fakeRolloverEngine) *walletapp.PaymentService {
	t.Helper()
	return newPaymentServiceWithDB(t, newTestDB(t), wallet, engine, rollover)
}

func TestPaymentService_Deposit_AddsRequirement(t *testing.T) {
	wallet := zeroWallet()
	engine := newFakeWalletEngine(wallet)
	rollover := newFakeRolloverEngine()
	svc := newPaymentService(t, wallet, engine, rollover)

	model, err := svc.Deposit(context.Background(), 1, 42, "USD", entities.WalletSourceNormal, 100, decimal.NewFromInt(100), decimal.NewFromFloat(1.5))
	require.NoError(t, err)
	assert.True(t, model.Amount.Equal(decimal.NewFromInt(100)))
	assert.True(t, model.RequirementRollover.Equal(decimal.NewFromInt(150)))
}

func TestPaymentService_Withdraw_BlockedUntilRolloverAchieved(t *testing.T) {
	wallet := zeroWallet()
	wallet.Deposit(decimal.NewFromInt(100))
	engine := newFakeWalletEngine(wallet)
	rollover := newFakeRolloverEngine()
	rollover.main.RequirementRollover = decimal.NewFromInt(100)
	svc := newPaymentServiceWithDB(t, newTestDBRollback(t), wallet, engine, rollover)

	_, err := svc.Withdraw(context.Background(), 1, 42, "USD", entities.WalletSourceNormal, 101, decimal.NewFromInt(50))
	require.Error(t, err)
	assert.True(t, domainerrors.IsRolloverNotAchieved(err))
}

func TestPaymentService_Withdraw_SucceedsOnceAchieved(t *testing.T) {
	wallet := zeroWallet()
	wallet.Deposit(decimal.NewFromInt(100))
	engine := newFakeWalletEngine(wallet)
	rollover := newFakeRolloverEngine()
	rollover.main.RequirementRollover = decimal.NewFromInt(100)
	rollover.main.AchievementRollover = decimal.NewFromInt(100)
	svc := newPaymentService(t, wallet, engine, rollover)

	model, err := svc.Withdraw(context.Background(), 1, 42, "USD", entities.WalletSourceNormal, 102, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, model.Amount.Equal(decimal.NewFromInt(50)))
	assert.True(t, model.RequirementRollover.IsZero(), "a successful withdrawal clears the ledger")
}

func TestPaymentService_Reject_CreditsBackAndRestoresRollover(t *testing.T) {
	wallet := zeroWallet()
	wallet.Deposit(decimal.NewFromInt(100))
	engine := newFakeWalletEngine(wallet)
	engine.txns[103] = &entities.WalletTransaction{ID: 1, TransactionSourceID: 103, Action: entities.WalletActionPaymentWithdraw, ChangeAmount: decimal.NewFromInt(50)}
	rollover := newFakeRolloverEngine()
	svc := newPaymentService(t, wallet, engine, rollover)

	model, err := svc.Reject(context.Background(), 1, 42, "USD", entities.WalletSourceNormal, 103)
	require.NoError(t, err)
	assert.True(t, model.Amount.Equal(decimal.NewFromInt(150)))
}

func TestPaymentService_GetList_ReturnsWalletAndTotal(t *testing.T) {
	wallet := zeroWallet()
	wallet.ID = 9
	engine := newFakeWalletEngine(wallet)
	rollover := newFakeRolloverEngine()
	svc := newPaymentService(t, wallet, engine, rollover)

	wallets, total, err := svc.GetList(context.Background(), 1, []int64{42}, nil, nil, 1, 25)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, wallets, 1)
	assert.Equal(t, int64(1), wallets[0].ClientID)
}
