package rolloverengine_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
	"github.com/playerwallet/wallet-service/internal/domain/services/rolloverengine"
	"github.com/playerwallet/wallet-service/pkg/logger"
	"github.com/playerwallet/wallet-service/pkg/snowflake"
)

type memMainRepo struct {
	mu    sync.Mutex
	byKey map[int64]*entities.RolloverMain
}

func newMemMainRepo() *memMainRepo {
	return &memMainRepo{byKey: make(map[int64]*entities.RolloverMain)}
}

func mainKey(info entities.WalletInfo) int64 {
	return info.ClientID*1_000_000 + info.UserID*10 + int64(info.WalletSource.ID)
}

func mainKeyFromMain(main *entities.RolloverMain) int64 {
	return main.ClientID*1_000_000 + main.UserID*10 + int64(main.WalletSourceID)
}

func (r *memMainRepo) Get(ctx context.Context, info entities.WalletInfo) (*entities.RolloverMain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byKey[mainKey(info)]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *memMainRepo) Insert(ctx context.Context, main *entities.RolloverMain) (*entities.RolloverMain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[mainKeyFromMain(main)] = main
	return main, nil
}

func (r *memMainRepo) Update(ctx context.Context, main *entities.RolloverMain) (*entities.RolloverMain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[mainKeyFromMain(main)] = main
	return main, nil
}

type memRecordRepo struct {
	mu      sync.Mutex
	records []*entities.RolloverRecord
}

func (r *memRecordRepo) Insert(ctx context.Context, record *entities.RolloverRecord) (*entities.RolloverRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return record, nil
}

func (r *memRecordRepo) GetByWalletTransactionID(ctx context.Context, walletTxnID int64) (*entities.RolloverRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.WalletTxnID == walletTxnID {
			return rec, nil
		}
	}
	return nil, nil
}

func testInfo() entities.WalletInfo {
	return entities.WalletInfo{
		ClientID:     1,
		UserID:       42,
		Currency:     entities.Currency{ID: 1, Name: "USD"},
		WalletSource: entities.WalletSource{ID: entities.WalletSourceNormal, Name: "normal_wallet"},
	}
}

func newService(t *testing.T) (*rolloverengine.Service, *memRecordRepo) {
	t.Helper()
	recordRepo := &memRecordRepo{}
	log := logger.New("error", "test")
	return rolloverengine.New(newMemMainRepo(), recordRepo, snowflake.New(1), log), recordRepo
}

func TestChangeRollover_PaymentDepositAddsRequirement(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	info := testInfo()

	main, record, err := svc.ChangeRollover(ctx, 1, info, 100, decimal.NewFromInt(100), decimal.NewFromFloat(1.5), entities.WalletActionPaymentDeposit, 7)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, main.RequirementRollover.Equal(decimal.NewFromInt(150)))
	assert.False(t, main.IsAchieved())
}

func TestChangeRollover_GameDepositAddsAchievement(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	info := testInfo()

	_, _, err := svc.ChangeRollover(ctx, 1, info, 100, decimal.NewFromInt(100), decimal.NewFromFloat(1.5), entities.WalletActionPaymentDeposit, 7)
	require.NoError(t, err)

	main, record, err := svc.ChangeRollover(ctx, 1, info, 101, decimal.NewFromInt(200), decimal.NewFromFloat(1), entities.WalletActionGameDeposit, 7)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, main.AchievementRollover.Equal(decimal.NewFromInt(200)))
	assert.True(t, main.IsAchieved())
}

func TestChangeRollover_GameWithdrawLeavesTotalsUntouched(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	info := testInfo()

	main, record, err := svc.ChangeRollover(ctx, 1, info, 100, decimal.NewFromInt(50), decimal.NewFromInt(1), entities.WalletActionGameWithdraw, 7)
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.True(t, main.RequirementRollover.IsZero())
	assert.True(t, main.AchievementRollover.IsZero())
}

func TestChangeRollover_PaymentWithdrawClearsTotals(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	info := testInfo()

	_, _, err := svc.ChangeRollover(ctx, 1, info, 100, decimal.NewFromInt(100), decimal.NewFromFloat(1), entities.WalletActionPaymentDeposit, 7)
	require.NoError(t, err)

	main, record, err := svc.ChangeRollover(ctx, 1, info, 101, decimal.Zero, decimal.Zero, entities.WalletActionPaymentWithdraw, 7)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, main.RequirementRollover.IsZero())
	assert.True(t, main.AchievementRollover.IsZero())
}

func TestRollbackRollover_NegatesOriginalRecord(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	info := testInfo()

	mainAfterDeposit, _, err := svc.ChangeRollover(ctx, 1, info, 100, decimal.NewFromInt(100), decimal.NewFromFloat(1.5), entities.WalletActionPaymentDeposit, 7)
	require.NoError(t, err)
	require.True(t, mainAfterDeposit.RequirementRollover.Equal(decimal.NewFromInt(150)))

	main, record, err := svc.RollbackRollover(ctx, 1, info, 100, 102, 7)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, main.RequirementRollover.IsZero())
}

func TestRollbackRollover_NoRecordIsNoop(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	info := testInfo()

	main, record, err := svc.RollbackRollover(ctx, 1, info, 999, 1000, 7)
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.True(t, main.RequirementRollover.IsZero())
}

func TestIsAchieved_MissingLedgerIsDataNotFound(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	info := testInfo()

	_, err := svc.IsAchieved(ctx, info)
	require.Error(t, err)
	assert.True(t, domainerrors.IsDataNotFound(err))
}
