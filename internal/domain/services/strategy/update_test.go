package strategy_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
	"github.com/playerwallet/wallet-service/internal/domain/services/strategy"
)

func TestUpdateStrategy_NormalRollsBackAndReapplies(t *testing.T) {
	wallet := newFakeWallet()
	wallet.bySourceTxnID[300] = &entities.WalletTransaction{
		ID:                  1,
		TransactionSourceID: 300,
		Action:              entities.WalletActionGameWithdraw,
		ChangeAmount:        decimal.NewFromInt(10),
	}
	rollover := &fakeRollover{}

	s, err := strategy.NewUpdateStrategy(normalInfo(), normalSourceRepo(), wallet, rollover)
	require.NoError(t, err)

	userWallet, rolloverMain, err := s.Apply(context.Background(), normalInfo(), 300, decimal.NewFromInt(-10), decimal.NewFromInt(-15), decimal.NewFromInt(15), decimal.NewFromFloat(1))
	require.NoError(t, err)
	require.NotNil(t, userWallet)
	require.NotNil(t, rolloverMain)
	assert.Equal(t, []int64{300}, wallet.rolledBack)
	assert.Len(t, wallet.changed, 1)
}

func TestUpdateStrategy_MismatchedOldAmountErrors(t *testing.T) {
	wallet := newFakeWallet()
	wallet.bySourceTxnID[301] = &entities.WalletTransaction{
		ID:                  1,
		TransactionSourceID: 301,
		Action:              entities.WalletActionGameWithdraw,
		ChangeAmount:        decimal.NewFromInt(10),
	}
	rollover := &fakeRollover{}

	s, err := strategy.NewUpdateStrategy(normalInfo(), normalSourceRepo(), wallet, rollover)
	require.NoError(t, err)

	_, _, err = s.Apply(context.Background(), normalInfo(), 301, decimal.NewFromInt(-999), decimal.NewFromInt(-15), decimal.NewFromInt(15), decimal.NewFromFloat(1))
	require.Error(t, err)
	assert.True(t, domainerrors.IsGameRollbackAmountError(err))
}

func TestUpdateStrategy_BonusSpillsOverWhenDifferenceExceedsBalance(t *testing.T) {
	wallet := newFakeWallet()
	wallet.enough = false
	wallet.bySourceTxnID[302] = &entities.WalletTransaction{
		ID:                  1,
		TransactionSourceID: 302,
		Action:              entities.WalletActionGameDeposit,
		ChangeAmount:        decimal.NewFromInt(30),
	}
	rollover := &fakeRollover{}

	s, err := strategy.NewUpdateStrategy(bonusInfo(), normalSourceRepo(), wallet, rollover)
	require.NoError(t, err)

	// old=30, new=10: the correction nets a debit of 20, which is the case
	// that can exceed the bonus wallet's balance and force spillover.
	_, _, err = s.Apply(context.Background(), bonusInfo(), 302, decimal.NewFromInt(30), decimal.NewFromInt(10), decimal.NewFromInt(20), decimal.NewFromFloat(1))
	require.NoError(t, err)
	assert.Equal(t, []int64{302}, wallet.rolledBack)
	require.Len(t, wallet.lastInfo, 1)
	assert.Equal(t, entities.WalletSourceNormal, wallet.lastInfo[0].WalletSource.ID)
}

// TestUpdateStrategy_BonusSpillsOverOnRealBalanceCheck pins the sign
// convention for diff = new - old: a net-debit correction that exceeds the
// bonus wallet's real balance must retarget the principal wallet.
func TestUpdateStrategy_BonusSpillsOverOnRealBalanceCheck(t *testing.T) {
	wallet := newFakeWallet()
	balance := decimal.NewFromInt(10)
	wallet.balance = &balance
	wallet.bySourceTxnID[303] = &entities.WalletTransaction{
		ID:                  1,
		TransactionSourceID: 303,
		Action:              entities.WalletActionGameDeposit,
		ChangeAmount:        decimal.NewFromInt(30),
	}
	rollover := &fakeRollover{}

	s, err := strategy.NewUpdateStrategy(bonusInfo(), normalSourceRepo(), wallet, rollover)
	require.NoError(t, err)

	userWallet, _, err := s.Apply(context.Background(), bonusInfo(), 303, decimal.NewFromInt(30), decimal.NewFromInt(10), decimal.NewFromInt(20), decimal.NewFromFloat(1))
	require.NoError(t, err)
	require.NotEmpty(t, wallet.lastInfo)
	assert.Equal(t, entities.WalletSourceNormal, wallet.lastInfo[0].WalletSource.ID)
	assert.Equal(t, entities.WalletSourceNormal, userWallet.WalletSourceID)
}

// TestUpdateStrategy_BonusStaysOnBonusOnRealBalanceCheck mirrors the above
// for a net-credit correction (diff >= 0), which never needs spillover.
func TestUpdateStrategy_BonusStaysOnBonusOnRealBalanceCheck(t *testing.T) {
	wallet := newFakeWallet()
	balance := decimal.NewFromInt(10)
	wallet.balance = &balance
	wallet.bySourceTxnID[304] = &entities.WalletTransaction{
		ID:                  1,
		TransactionSourceID: 304,
		Action:              entities.WalletActionGameDeposit,
		ChangeAmount:        decimal.NewFromInt(10),
	}
	rollover := &fakeRollover{}

	s, err := strategy.NewUpdateStrategy(bonusInfo(), normalSourceRepo(), wallet, rollover)
	require.NoError(t, err)

	_, _, err = s.Apply(context.Background(), bonusInfo(), 304, decimal.NewFromInt(10), decimal.NewFromInt(30), decimal.NewFromInt(20), decimal.NewFromFloat(1))
	require.NoError(t, err)
	require.NotEmpty(t, wallet.lastInfo)
	assert.Equal(t, entities.WalletSourceBonus, wallet.lastInfo[0].WalletSource.ID)
}
