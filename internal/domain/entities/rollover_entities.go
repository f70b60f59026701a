package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// RolloverType distinguishes a requirement-increasing record from an
// achievement-increasing one inside a single RolloverMain's history.
type RolloverType int32

const (
	RolloverTypeRequirement RolloverType = 1
	RolloverTypeAchievement RolloverType = 2
)

// RolloverMain is the running wagering-requirement ledger for one
// (user, client, currency, wallet_source) tuple.
type RolloverMain struct {
	ID                  int64           `json:"id" db:"id"`
	UserWalletID        int64           `json:"user_wallet_id" db:"user_wallet_id"`
	ClientID            int64           `json:"client_id" db:"client_id"`
	UserID              int64           `json:"user_id" db:"user_id"`
	CurrencyID          int64           `json:"currency_id" db:"currency_id"`
	CurrencyName        string          `json:"currency_name" db:"currency_name"`
	WalletSourceID      WalletSourceID  `json:"wallet_source_id" db:"wallet_source_id"`
	RequirementRollover decimal.Decimal `json:"requirement_rollover" db:"requirement_rollover"`
	AchievementRollover decimal.Decimal `json:"achievement_rollover" db:"achievement_rollover"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// NewRolloverMain constructs the zero-rollover row created the first time a
// WalletInfo is referenced by the rollover engine.
func NewRolloverMain(info WalletInfo, userWalletID int64) *RolloverMain {
	now := time.Now()
	return &RolloverMain{
		UserWalletID:        userWalletID,
		ClientID:            info.ClientID,
		UserID:              info.UserID,
		CurrencyID:          info.Currency.ID,
		CurrencyName:        info.Currency.Name,
		WalletSourceID:      info.WalletSource.ID,
		RequirementRollover: decimal.Zero,
		AchievementRollover: decimal.Zero,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// IsAchieved reports whether accumulated wagering has cleared the
// requirement, gating payment withdrawals.
func (m *RolloverMain) IsAchieved() bool {
	return m.AchievementRollover.GreaterThanOrEqual(m.RequirementRollover)
}

func (m *RolloverMain) AddRequirement(amount decimal.Decimal) {
	m.RequirementRollover = m.RequirementRollover.Add(amount)
	m.UpdatedAt = time.Now()
}

func (m *RolloverMain) AddAchievement(amount decimal.Decimal) {
	m.AchievementRollover = m.AchievementRollover.Add(amount)
	m.UpdatedAt = time.Now()
}

// AddRequirementByRate adds amount*rate to the requirement total, the form
// used when a deposit carries a rollover multiplier.
func (m *RolloverMain) AddRequirementByRate(amount, rate decimal.Decimal) {
	m.AddRequirement(amount.Mul(rate))
}

// AddAchievementByRate adds amount*rate to the achievement total, the form
// used when a wager's effective bet counts toward wagering progress.
func (m *RolloverMain) AddAchievementByRate(amount, rate decimal.Decimal) {
	m.AddAchievement(amount.Mul(rate))
}

// Clear zeroes both totals, the effect a successful payment withdrawal has
// on the rollover ledger (requirement and achievement both reset).
func (m *RolloverMain) Clear() {
	m.RequirementRollover = decimal.Zero
	m.AchievementRollover = decimal.Zero
	m.UpdatedAt = time.Now()
}

// RolloverRecord is one immutable entry in a RolloverMain's history, always
// tied 1:1 to the WalletTransaction that produced it (at most one record
// per wallet_txn_id).
type RolloverRecord struct {
	ID                      int64           `json:"id" db:"id"`
	MainID                  int64           `json:"main_id" db:"main_id"`
	ClientID                int64           `json:"client_id" db:"client_id"`
	UserID                  int64           `json:"user_id" db:"user_id"`
	RequirementRollover     decimal.Decimal `json:"requirement_rollover" db:"requirement_rollover"`
	RequirementRolloverRate decimal.Decimal `json:"requirement_rollover_rate" db:"requirement_rollover_rate"`
	AchievementRollover     decimal.Decimal `json:"achievement_rollover" db:"achievement_rollover"`
	AchievementRolloverRate decimal.Decimal `json:"achievement_rollover_rate" db:"achievement_rollover_rate"`
	CreateBy                int64           `json:"create_by" db:"create_by"`
	WalletTxnID             int64           `json:"wallet_txn_id" db:"wallet_txn_id"`
	CreatedAt               time.Time       `json:"created_at" db:"created_at"`
}

// NewRolloverRecord builds a requirement- or achievement-typed record for
// one wallet transaction.
func NewRolloverRecord(mainID, walletTxnID int64, info WalletInfo, kind RolloverType, amount, rate decimal.Decimal, createBy int64) *RolloverRecord {
	r := &RolloverRecord{
		MainID:      mainID,
		ClientID:    info.ClientID,
		UserID:      info.UserID,
		CreateBy:    createBy,
		WalletTxnID: walletTxnID,
		CreatedAt:   time.Now(),
	}
	switch kind {
	case RolloverTypeRequirement:
		r.RequirementRollover = amount.Mul(rate)
		r.RequirementRolloverRate = rate
		r.AchievementRollover = decimal.Zero
		r.AchievementRolloverRate = decimal.Zero
	case RolloverTypeAchievement:
		r.AchievementRollover = amount.Mul(rate)
		r.AchievementRolloverRate = rate
		r.RequirementRollover = decimal.Zero
		r.RequirementRolloverRate = decimal.Zero
	}
	return r
}

// NewClearRolloverRecord builds the record produced when a payment
// withdrawal zeroes out a RolloverMain: it records the negative of
// whatever was outstanding, so summing all records for a main always
// equals its current totals.
func NewClearRolloverRecord(main *RolloverMain, walletTxnID int64, createBy int64) *RolloverRecord {
	return &RolloverRecord{
		MainID:                  main.ID,
		ClientID:                main.ClientID,
		UserID:                  main.UserID,
		RequirementRollover:     main.RequirementRollover.Neg(),
		RequirementRolloverRate: decimal.NewFromInt(1),
		AchievementRollover:     main.AchievementRollover.Neg(),
		AchievementRolloverRate: decimal.NewFromInt(1),
		CreateBy:                createBy,
		WalletTxnID:             walletTxnID,
		CreatedAt:               time.Now(),
	}
}

// NewRollbackRolloverRecord negates an existing record so that re-applying
// it to a RolloverMain exactly undoes the original record's effect.
func (r *RolloverRecord) NewRollbackRolloverRecord(rollbackWalletTxnID int64, createBy int64) *RolloverRecord {
	return &RolloverRecord{
		MainID:                  r.MainID,
		ClientID:                r.ClientID,
		UserID:                  r.UserID,
		RequirementRollover:     r.RequirementRollover.Neg(),
		RequirementRolloverRate: r.RequirementRolloverRate,
		AchievementRollover:     r.AchievementRollover.Neg(),
		AchievementRolloverRate: r.AchievementRolloverRate,
		CreateBy:                createBy,
		WalletTxnID:             rollbackWalletTxnID,
		CreatedAt:               time.Now(),
	}
}
