package walletengine_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
	"github.com/playerwallet/wallet-service/internal/domain/repositories"
	"github.com/playerwallet/wallet-service/internal/domain/services/walletengine"
	"github.com/playerwallet/wallet-service/pkg/logger"
	"github.com/playerwallet/wallet-service/pkg/snowflake"
)

type memWalletRepo struct {
	mu      sync.Mutex
	wallets map[int64]*entities.UserWallet
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{wallets: make(map[int64]*entities.UserWallet)}
}

func key(info entities.WalletInfo) int64 {
	return info.ClientID*1_000_000 + info.UserID*10 + int64(info.WalletSource.ID)
}

func (r *memWalletRepo) Get(ctx context.Context, info entities.WalletInfo) (*entities.UserWallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[key(info)]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *memWalletRepo) LockForUpdate(ctx context.Context, info entities.WalletInfo) (*entities.UserWallet, error) {
	return r.Get(ctx, info)
}

func (r *memWalletRepo) Insert(ctx context.Context, wallet *entities.UserWallet) (*entities.UserWallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := entities.WalletInfo{ClientID: wallet.ClientID, UserID: wallet.UserID, WalletSource: entities.WalletSource{ID: wallet.WalletSourceID}}
	r.wallets[key(info)] = wallet
	return wallet, nil
}

func (r *memWalletRepo) Update(ctx context.Context, wallet *entities.UserWallet) (*entities.UserWallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := entities.WalletInfo{ClientID: wallet.ClientID, UserID: wallet.UserID, WalletSource: entities.WalletSource{ID: wallet.WalletSourceID}}
	r.wallets[key(info)] = wallet
	return wallet, nil
}

func (r *memWalletRepo) ListWithRollover(ctx context.Context, filter repositories.UserWalletFilter) ([]*entities.UserWalletWithRollover, int, error) {
	return nil, 0, nil
}

type memWalletTxnRepo struct {
	mu   sync.Mutex
	txns []*entities.WalletTransaction
}

func (r *memWalletTxnRepo) Insert(ctx context.Context, txn *entities.WalletTransaction) (*entities.WalletTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txns = append(r.txns, txn)
	return txn, nil
}

func (r *memWalletTxnRepo) ListByTransactionSourceID(ctx context.Context, clientID, userID, sourceTxnID int64) ([]*entities.WalletTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.WalletTransaction
	for _, t := range r.txns {
		if t.ClientID == clientID && t.UserID == userID && t.TransactionSourceID == sourceTxnID {
			out = append(out, t)
		}
	}
	return out, nil
}

func testInfo() entities.WalletInfo {
	return entities.WalletInfo{
		ClientID:     1,
		UserID:       42,
		Currency:     entities.Currency{ID: 1, Name: "USD"},
		WalletSource: entities.WalletSource{ID: entities.WalletSourceNormal, Name: "normal_wallet"},
	}
}

func newService(t *testing.T) (*walletengine.Service, *memWalletTxnRepo) {
	t.Helper()
	walletRepo := newMemWalletRepo()
	txnRepo := &memWalletTxnRepo{}
	log := logger.New("error", "test")
	return walletengine.New(walletRepo, txnRepo, snowflake.New(1), log), txnRepo
}

func TestGetOrCreate_LazyZeroBalance(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	wallet, err := svc.GetOrCreate(ctx, testInfo())
	require.NoError(t, err)
	assert.True(t, wallet.Amount.IsZero())
	assert.NotZero(t, wallet.ID)

	again, err := svc.GetOrCreate(ctx, testInfo())
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, again.ID)
}

func TestChangeAmount_CreditThenDebit(t *testing.T) {
	svc, txnRepo := newService(t)
	ctx := context.Background()
	info := testInfo()

	wallet, txn, err := svc.ChangeAmount(ctx, info, 0, 100, decimal.NewFromInt(50), entities.WalletActionGameDeposit)
	require.NoError(t, err)
	assert.True(t, wallet.Amount.Equal(decimal.NewFromInt(50)))
	assert.True(t, txn.IsRoot())

	wallet, _, err = svc.ChangeAmount(ctx, info, 0, 101, decimal.NewFromInt(20), entities.WalletActionGameWithdraw)
	require.NoError(t, err)
	assert.True(t, wallet.Amount.Equal(decimal.NewFromInt(30)))
	assert.Len(t, txnRepo.txns, 2)
}

func TestChangeAmount_InsufficientBalance(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	info := testInfo()

	_, _, err := svc.ChangeAmount(ctx, info, 0, 200, decimal.NewFromInt(10), entities.WalletActionGameWithdraw)
	require.Error(t, err)
	assert.True(t, domainerrors.IsWalletAmountNotEnough(err))
}

func TestGetLastBySource_WalksChainToTail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	info := testInfo()

	_, root, err := svc.ChangeAmount(ctx, info, 0, 400, decimal.NewFromInt(10), entities.WalletActionGameDeposit)
	require.NoError(t, err)

	_, tail, err := svc.RollbackTransaction(ctx, info, root)
	require.NoError(t, err)

	found, err := svc.GetLastBySource(ctx, info.ClientID, info.UserID, 400)
	require.NoError(t, err)
	assert.Equal(t, tail.ID, found.ID)
}
