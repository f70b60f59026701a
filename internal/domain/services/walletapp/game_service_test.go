package walletapp_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	"github.com/playerwallet/wallet-service/internal/domain/services/walletapp"
	"github.com/playerwallet/wallet-service/internal/infrastructure/database"
	"github.com/playerwallet/wallet-service/pkg/logger"
)

func newGameServiceWithDB(t *testing.T, db *database.SqlxDB, wallet *entities.UserWallet, engine *fakeWalletEngine, rollover *fakeRolloverEngine) *walletapp.GameService {
	t.Helper()
	walletRepo := &fakeUserWalletRepo{wallet: wallet}
	currency := &fakeCurrency{currency: entities.Currency{ID: 1, Name: "USD"}}
	sourceRepo := &fakeWalletSourceRepo{source: entities.WalletSource{ID: entities.WalletSourceNormal, Name: "normal_wallet"}}
	log := logger.New("error", "test")
	return walletapp.NewGameService(db, currency, sourceRepo, walletRepo, engine, rollover, log)
}

func newGameService(t *testing.T, wallet *entities.UserWallet, engine *fakeWalletEngine, rollover *fakeRolloverEngine) *walletapp.GameService {
	t.Helper()
	return newGameServiceWithDB(t, newTestDB(t), wallet, engine, rollover)
}

func TestGameService_Deposit_CreditsAndAdvancesAchievement(t *testing.T) {
	wallet := zeroWallet()
	engine := newFakeWalletEngine(wallet)
	rollover := newFakeRolloverEngine()
	svc := newGameService(t, wallet, engine, rollover)

	balance, err := svc.Deposit(context.Background(), 1, 42, "USD", entities.WalletSourceNormal, 100, decimal.NewFromInt(50), decimal.NewFromInt(50), decimal.NewFromFloat(1.5))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(50)))
	assert.True(t, rollover.main.AchievementRollover.Equal(decimal.NewFromInt(75)))
}

// The wager that produced a win, not the win itself, is what counts toward
// wagering progress: a 15 payout on a 10 bet advances achievement by 10.
func TestGameService_Deposit_AchievementFollowsEffectiveBet(t *testing.T) {
	wallet := zeroWallet()
	engine := newFakeWalletEngine(wallet)
	rollover := newFakeRolloverEngine()
	svc := newGameService(t, wallet, engine, rollover)

	balance, err := svc.Deposit(context.Background(), 1, 42, "USD", entities.WalletSourceNormal, 101, decimal.NewFromInt(15), decimal.NewFromInt(10), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(15)))
	assert.True(t, rollover.main.AchievementRollover.Equal(decimal.NewFromInt(10)))
}

func TestGameService_Withdraw_DebitsWithoutRolloverEffect(t *testing.T) {
	wallet := zeroWallet()
	wallet.Deposit(decimal.NewFromInt(100))
	engine := newFakeWalletEngine(wallet)
	rollover := newFakeRolloverEngine()
	svc := newGameService(t, wallet, engine, rollover)

	balance, err := svc.Withdraw(context.Background(), 1, 42, "USD", entities.WalletSourceNormal, 200, decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(70)))
	assert.True(t, rollover.main.AchievementRollover.IsZero())
}

func TestGameService_Rollback_ReturnsBalanceAfterCompensation(t *testing.T) {
	wallet := zeroWallet()
	engine := newFakeWalletEngine(wallet)
	rollover := newFakeRolloverEngine()
	svc := newGameService(t, wallet, engine, rollover)

	// Seed a settled deposit of 50 so the rollback has something to undo.
	_, _, err := engine.ChangeAmount(context.Background(), testInfo(), 0, 300, decimal.NewFromInt(50), entities.WalletActionGameDeposit)
	require.NoError(t, err)

	balance, err := svc.Rollback(context.Background(), 1, 42, "USD", entities.WalletSourceNormal, []int64{300})
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestGameService_Update_ReturnsBalanceAfterCorrection(t *testing.T) {
	wallet := zeroWallet()
	engine := newFakeWalletEngine(wallet)
	rollover := newFakeRolloverEngine()
	svc := newGameService(t, wallet, engine, rollover)

	// A settled win of 20, corrected down to 5: 20 rolled back, 5 reapplied.
	_, _, err := engine.ChangeAmount(context.Background(), testInfo(), 0, 301, decimal.NewFromInt(20), entities.WalletActionGameDeposit)
	require.NoError(t, err)

	balance, err := svc.Update(context.Background(), 1, 42, "USD", entities.WalletSourceNormal, 301,
		decimal.NewFromInt(20), decimal.NewFromInt(5), decimal.NewFromInt(5), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(5)))
}

func TestGameService_GetBalance_LazilyCreatesZeroWallet(t *testing.T) {
	wallet := zeroWallet()
	engine := newFakeWalletEngine(wallet)
	rollover := newFakeRolloverEngine()
	svc := newGameService(t, wallet, engine, rollover)

	balance, err := svc.GetBalance(context.Background(), 1, 42, "USD", entities.WalletSourceNormal)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}
