package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrorResponse is the JSON body returned for any non-2xx handler response.
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WalletSourceID identifies one of the two fixed wallet categories a player
// balance can live in. The set is closed and seeded once at migration time,
// never grown by callers.
type WalletSourceID int64

const (
	WalletSourceNormal WalletSourceID = 1
	WalletSourceBonus  WalletSourceID = 2
)

func (w WalletSourceID) Validate() error {
	switch w {
	case WalletSourceNormal, WalletSourceBonus:
		return nil
	default:
		return fmt.Errorf("invalid wallet source id: %d", w)
	}
}

func (w WalletSourceID) String() string {
	switch w {
	case WalletSourceNormal:
		return "normal_wallet"
	case WalletSourceBonus:
		return "bonus_wallet"
	default:
		return fmt.Sprintf("wallet_source(%d)", int64(w))
	}
}

// WalletSource is the seeded reference row behind a WalletSourceID.
type WalletSource struct {
	ID        WalletSourceID `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// Currency is resolved per-request from the currency oracle; this service
// never owns currency reference data itself.
type Currency struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// WalletInfo identifies exactly one logical wallet row and is threaded
// through the wallet and rollover engines. It is an immutable value -
// "re-binding" to a different wallet source produces a new WalletInfo, it
// never mutates an existing one (see the bonus strategies).
type WalletInfo struct {
	ClientID     int64
	UserID       int64
	Currency     Currency
	WalletSource WalletSource
}

func (w WalletInfo) WithSource(source WalletSource) WalletInfo {
	w.WalletSource = source
	return w
}

// WalletAction records which direction and facet produced a WalletTransaction.
// The sign of the balance change is derived from this, never stored directly.
type WalletAction int32

const (
	WalletActionGameDeposit           WalletAction = 1
	WalletActionGameWithdraw          WalletAction = 2
	WalletActionPaymentDeposit        WalletAction = 3
	WalletActionPaymentWithdraw       WalletAction = 4
	WalletActionPaymentWithdrawReject WalletAction = 5
)

func ParseWalletAction(value int32) (WalletAction, error) {
	switch WalletAction(value) {
	case WalletActionGameDeposit, WalletActionGameWithdraw,
		WalletActionPaymentDeposit, WalletActionPaymentWithdraw, WalletActionPaymentWithdrawReject:
		return WalletAction(value), nil
	default:
		return 0, fmt.Errorf("invalid wallet action: %d", value)
	}
}

// IsCredit reports whether this action increases the wallet balance.
func (a WalletAction) IsCredit() bool {
	return a == WalletActionGameDeposit || a == WalletActionPaymentDeposit || a == WalletActionPaymentWithdrawReject
}

// Opposite returns the action that exactly reverses this one, used when
// building the rollback entry for a transaction.
func (a WalletAction) Opposite() (WalletAction, error) {
	switch a {
	case WalletActionGameDeposit:
		return WalletActionGameWithdraw, nil
	case WalletActionGameWithdraw:
		return WalletActionGameDeposit, nil
	case WalletActionPaymentDeposit:
		return WalletActionPaymentWithdraw, nil
	case WalletActionPaymentWithdraw:
		return WalletActionPaymentDeposit, nil
	case WalletActionPaymentWithdrawReject:
		return WalletActionPaymentWithdraw, nil
	default:
		return 0, fmt.Errorf("wallet action %d has no defined opposite", a)
	}
}

// SignedDepositAction picks GameDeposit/GameWithdraw or
// PaymentDeposit/PaymentWithdraw depending on the sign of amount and on
// which facet originalAction belongs to, matching the update strategies'
// re-derivation of the action for the replacement transaction.
func SignedDepositAction(originalAction WalletAction, amount decimal.Decimal) WalletAction {
	isGame := originalAction == WalletActionGameDeposit || originalAction == WalletActionGameWithdraw
	positive := amount.Sign() >= 0
	switch {
	case isGame && positive:
		return WalletActionGameDeposit
	case isGame && !positive:
		return WalletActionGameWithdraw
	case !isGame && positive:
		return WalletActionPaymentDeposit
	default:
		return WalletActionPaymentWithdraw
	}
}

// WalletTransactionStatus covers the three statuses the schema defines;
// only Success is ever produced by this implementation.
type WalletTransactionStatus int32

const (
	WalletTransactionPending WalletTransactionStatus = 0
	WalletTransactionSuccess WalletTransactionStatus = 1
	WalletTransactionCancel  WalletTransactionStatus = 2
)

func (s WalletTransactionStatus) Validate() error {
	switch s {
	case WalletTransactionPending, WalletTransactionSuccess, WalletTransactionCancel:
		return nil
	default:
		return fmt.Errorf("invalid wallet transaction status: %d", s)
	}
}

// UserWallet is one player's balance in one currency and wallet source.
type UserWallet struct {
	ID               int64           `json:"id" db:"id"`
	ClientID         int64           `json:"client_id" db:"client_id"`
	UserID           int64           `json:"user_id" db:"user_id"`
	CurrencyID       int64           `json:"currency_id" db:"currency_id"`
	CurrencyName     string          `json:"currency_name" db:"currency_name"`
	WalletSourceID   WalletSourceID  `json:"wallet_source_id" db:"wallet_source_id"`
	WalletSourceName string          `json:"wallet_source_name" db:"wallet_source_name"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// UserWalletWithRollover is one row of the admin listing operation's inner
// join between user_wallet and rollover_main. A UserWallet appears in the
// listing only once its RolloverMain exists; a wallet created by a balance
// lookup alone has no RolloverMain and is not listed.
type UserWalletWithRollover struct {
	UserWallet
	RequirementRollover decimal.Decimal `json:"requirement_rollover" db:"requirement_rollover"`
	AchievementRollover decimal.Decimal `json:"achievement_rollover" db:"achievement_rollover"`
}

// NewUserWallet constructs the zero-balance row created the first time a
// WalletInfo is referenced.
func NewUserWallet(info WalletInfo) *UserWallet {
	now := time.Now()
	return &UserWallet{
		ClientID:         info.ClientID,
		UserID:           info.UserID,
		CurrencyID:       info.Currency.ID,
		CurrencyName:     info.Currency.Name,
		WalletSourceID:   info.WalletSource.ID,
		WalletSourceName: info.WalletSource.Name,
		Amount:           decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate checks the invariants a UserWallet must hold once persisted.
func (w *UserWallet) Validate() error {
	if w.ClientID == 0 || w.UserID == 0 {
		return fmt.Errorf("user wallet requires client_id and user_id")
	}
	if err := w.WalletSourceID.Validate(); err != nil {
		return err
	}
	if w.Amount.IsNegative() {
		return fmt.Errorf("user wallet amount cannot be negative")
	}
	return nil
}

// IsEnough reports whether the wallet can cover withdrawAmount.
func (w *UserWallet) IsEnough(withdrawAmount decimal.Decimal) bool {
	return w.Amount.GreaterThanOrEqual(withdrawAmount)
}

// Deposit and Withdraw mutate the in-memory balance; callers persist the
// result and the paired WalletTransaction in the same DB transaction.
func (w *UserWallet) Deposit(amount decimal.Decimal) {
	w.Amount = w.Amount.Add(amount)
	w.UpdatedAt = time.Now()
}

func (w *UserWallet) Withdraw(amount decimal.Decimal) {
	w.Amount = w.Amount.Sub(amount)
	w.UpdatedAt = time.Now()
}

// WalletTransaction is one immutable, append-only ledger entry in a
// player's balance chain for a given transaction_source_id.
type WalletTransaction struct {
	ID                  int64                   `json:"id" db:"id"`
	ParentID            int64                   `json:"parent_id" db:"parent_id"`
	ClientID            int64                   `json:"client_id" db:"client_id"`
	UserID              int64                   `json:"user_id" db:"user_id"`
	CurrencyID          int64                   `json:"currency_id" db:"currency_id"`
	WalletSourceID      WalletSourceID          `json:"wallet_source_id" db:"wallet_source_id"`
	Action              WalletAction            `json:"action" db:"action"`
	TransactionSourceID int64                   `json:"transaction_source_id" db:"transaction_source_id"`
	BeforeAmount        decimal.Decimal         `json:"before_amount" db:"before_amount"`
	ChangeAmount        decimal.Decimal         `json:"change_amount" db:"change_amount"`
	AfterAmount         decimal.Decimal         `json:"after_amount" db:"after_amount"`
	Status              WalletTransactionStatus `json:"status" db:"status"`
	CreatedAt           time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at" db:"updated_at"`
}

// NewWalletTransaction builds the transaction record for a balance change
// about to be applied to wallet. amount is always non-negative; its
// direction is carried entirely by action.
func NewWalletTransaction(wallet *UserWallet, parentID, sourceTxnID int64, action WalletAction, amount decimal.Decimal) *WalletTransaction {
	after := wallet.Amount
	if action.IsCredit() {
		after = after.Add(amount)
	} else {
		after = after.Sub(amount)
	}
	now := time.Now()
	return &WalletTransaction{
		ParentID:            parentID,
		ClientID:            wallet.ClientID,
		UserID:              wallet.UserID,
		CurrencyID:          wallet.CurrencyID,
		WalletSourceID:      wallet.WalletSourceID,
		Action:              action,
		TransactionSourceID: sourceTxnID,
		BeforeAmount:        wallet.Amount,
		ChangeAmount:        amount,
		AfterAmount:         after,
		Status:              WalletTransactionSuccess,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Validate checks that change_amount is non-negative and that action and
// status are defined values; it does not check the parent linkage.
func (t *WalletTransaction) Validate() error {
	if t.ChangeAmount.IsNegative() {
		return fmt.Errorf("wallet transaction change_amount cannot be negative")
	}
	if _, err := ParseWalletAction(int32(t.Action)); err != nil {
		return err
	}
	return t.Status.Validate()
}

// IsRoot reports whether this transaction starts a chain.
func (t *WalletTransaction) IsRoot() bool {
	return t.ParentID == 0
}

// SignedAmount returns ChangeAmount with the sign implied by Action -
// positive for deposits, negative for withdrawals; matching the update
// strategies' comparison against a caller-supplied signed amount.
func (t *WalletTransaction) SignedAmount() decimal.Decimal {
	if t.Action.IsCredit() {
		return t.ChangeAmount
	}
	return t.ChangeAmount.Neg()
}
