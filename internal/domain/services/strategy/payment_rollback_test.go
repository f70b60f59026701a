package strategy_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	"github.com/playerwallet/wallet-service/internal/domain/services/strategy"
)

type fakeCurrencyClient struct {
	currency entities.Currency
}

func (f *fakeCurrencyClient) GetEnabledByName(ctx context.Context, clientID int64, name string) (entities.Currency, error) {
	return f.currency, nil
}

func (f *fakeCurrencyClient) GetEnabledByID(ctx context.Context, clientID int64, currencyID int64) (entities.Currency, error) {
	return f.currency, nil
}

func TestPaymentRollbackStrategy_Normal(t *testing.T) {
	wallet := newFakeWallet()
	wallet.bySourceTxnID[400] = &entities.WalletTransaction{
		ID:                  1,
		TransactionSourceID: 400,
		CurrencyID:          1,
		Action:              entities.WalletActionPaymentDeposit,
		ChangeAmount:        decimal.NewFromInt(100),
	}
	rollover := &fakeRollover{}
	currency := &fakeCurrencyClient{currency: entities.Currency{ID: 1, Name: "USD"}}

	normalSource := entities.WalletSource{ID: entities.WalletSourceNormal, Name: "normal_wallet"}
	s, err := strategy.NewPaymentRollbackStrategy(normalSource, currency, normalSourceRepo(), wallet, rollover)
	require.NoError(t, err)

	userWallet, rolloverMain, err := s.Apply(context.Background(), 1, 42, normalSource, 400)
	require.NoError(t, err)
	require.NotNil(t, userWallet)
	require.NotNil(t, rolloverMain)
	assert.Equal(t, []int64{400}, wallet.rolledBack)
}

func TestPaymentRollbackStrategy_BonusSpillsOverWhenInsufficient(t *testing.T) {
	wallet := newFakeWallet()
	wallet.enough = false
	wallet.bySourceTxnID[401] = &entities.WalletTransaction{
		ID:                  1,
		TransactionSourceID: 401,
		CurrencyID:          1,
		Action:              entities.WalletActionPaymentDeposit,
		ChangeAmount:        decimal.NewFromInt(50),
	}
	rollover := &fakeRollover{}
	currency := &fakeCurrencyClient{currency: entities.Currency{ID: 1, Name: "USD"}}

	bonusSource := entities.WalletSource{ID: entities.WalletSourceBonus, Name: "bonus_wallet"}
	s, err := strategy.NewPaymentRollbackStrategy(bonusSource, currency, normalSourceRepo(), wallet, rollover)
	require.NoError(t, err)

	userWallet, rolloverMain, err := s.Apply(context.Background(), 1, 42, bonusSource, 401)
	require.NoError(t, err)
	require.NotNil(t, userWallet)
	require.NotNil(t, rolloverMain)
	assert.Equal(t, []int64{401}, wallet.rolledBack)
	require.Len(t, wallet.lastInfo, 1)
	assert.Equal(t, entities.WalletSourceNormal, wallet.lastInfo[0].WalletSource.ID)
}

func TestPaymentRollbackStrategy_BonusSpillsOverOnRealBalanceCheck(t *testing.T) {
	wallet := newFakeWallet()
	balance := decimal.NewFromInt(10)
	wallet.balance = &balance
	wallet.bySourceTxnID[402] = &entities.WalletTransaction{
		ID:                  1,
		TransactionSourceID: 402,
		CurrencyID:          1,
		Action:              entities.WalletActionPaymentDeposit,
		ChangeAmount:        decimal.NewFromInt(50),
	}
	rollover := &fakeRollover{}
	currency := &fakeCurrencyClient{currency: entities.Currency{ID: 1, Name: "USD"}}

	bonusSource := entities.WalletSource{ID: entities.WalletSourceBonus, Name: "bonus_wallet"}
	s, err := strategy.NewPaymentRollbackStrategy(bonusSource, currency, normalSourceRepo(), wallet, rollover)
	require.NoError(t, err)

	_, _, err = s.Apply(context.Background(), 1, 42, bonusSource, 402)
	require.NoError(t, err)
	require.NotEmpty(t, wallet.lastInfo)
	assert.Equal(t, entities.WalletSourceNormal, wallet.lastInfo[0].WalletSource.ID)
}
