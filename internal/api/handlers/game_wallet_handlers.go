package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	"github.com/playerwallet/wallet-service/internal/domain/services/walletapp"
	"github.com/playerwallet/wallet-service/pkg/logger"
	"github.com/playerwallet/wallet-service/pkg/metrics"
)

// GameWalletHandlers exposes the game facet: settling rounds against a
// player's normal or bonus wallet with no withdrawal eligibility gate.
type GameWalletHandlers struct {
	service   *walletapp.GameService
	validator *validator.Validate
	logger    *logger.Logger
}

func NewGameWalletHandlers(service *walletapp.GameService, log *logger.Logger) *GameWalletHandlers {
	return &GameWalletHandlers{
		service:   service,
		validator: validator.New(),
		logger:    log,
	}
}

type gameBalanceRequest struct {
	ClientID       int64  `form:"client_id" validate:"required"`
	UserID         int64  `form:"user_id" validate:"required"`
	Currency       string `form:"currency" validate:"required"`
	WalletSourceID int64  `form:"wallet_source_id" validate:"required"`
}

type gameTxnRequest struct {
	ClientID       int64  `json:"client_id" validate:"required"`
	UserID         int64  `json:"user_id" validate:"required"`
	Currency       string `json:"currency" validate:"required"`
	WalletSourceID int64  `json:"wallet_source_id" validate:"required"`
	SourceTxnID    int64  `json:"source_txn_id" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	EffectiveBet   string `json:"effective_bet"`
	RolloverRate   string `json:"rollover_rate"`
}

type gameRollbackRequest struct {
	ClientID       int64   `json:"client_id" validate:"required"`
	UserID         int64   `json:"user_id" validate:"required"`
	Currency       string  `json:"currency" validate:"required"`
	WalletSourceID int64   `json:"wallet_source_id" validate:"required"`
	SourceTxnIDs   []int64 `json:"source_txn_ids" validate:"required,min=1"`
}

type gameUpdateRequest struct {
	ClientID       int64  `json:"client_id" validate:"required"`
	UserID         int64  `json:"user_id" validate:"required"`
	Currency       string `json:"currency" validate:"required"`
	WalletSourceID int64  `json:"wallet_source_id" validate:"required"`
	SourceTxnID    int64  `json:"source_txn_id" validate:"required"`
	OldAmount      string `json:"old_amount" validate:"required"`
	NewAmount      string `json:"new_amount" validate:"required"`
	EffectiveBet   string `json:"effective_bet"`
	RolloverRate   string `json:"rollover_rate"`
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

// GetBalance handles GET /api/v1/game/wallet/balance
func (h *GameWalletHandlers) GetBalance(c *gin.Context) {
	var req gameBalanceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBadRequest(c, "invalid query parameters", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, "validation failed", map[string]interface{}{"error": err.Error()})
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), req.ClientID, req.UserID, req.Currency, entities.WalletSourceID(req.WalletSourceID))
	if err != nil {
		h.logger.Error("game.GetBalance failed", "error", err)
		sendWalletError(c, err)
		return
	}
	SendSuccess(c, balanceResponse{Balance: balance.String()})
}

// Deposit handles POST /api/v1/game/wallet/deposit
func (h *GameWalletHandlers) Deposit(c *gin.Context) {
	var req gameTxnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, "validation failed", map[string]interface{}{"error": err.Error()})
		return
	}

	amount, rolloverRate, err := parseAmountAndRate(req.Amount, req.RolloverRate)
	if err != nil {
		respondBadRequest(c, "invalid amount", map[string]interface{}{"error": err.Error()})
		return
	}
	if !amount.IsPositive() || rolloverRate.IsNegative() {
		respondBadRequest(c, "amount must be positive and rollover_rate non-negative", nil)
		return
	}

	// A round reported without an effective bet wagers its full amount.
	effectiveBet := amount
	if req.EffectiveBet != "" {
		if effectiveBet, err = decimal.NewFromString(req.EffectiveBet); err != nil {
			respondBadRequest(c, "invalid effective_bet", map[string]interface{}{"error": err.Error()})
			return
		}
		if effectiveBet.IsNegative() {
			respondBadRequest(c, "effective_bet must be non-negative", nil)
			return
		}
	}

	balance, err := h.service.Deposit(c.Request.Context(), req.ClientID, req.UserID, req.Currency,
		entities.WalletSourceID(req.WalletSourceID), req.SourceTxnID, amount, effectiveBet, rolloverRate)
	if err != nil {
		h.logger.Error("game.Deposit failed", "error", err)
		metrics.ObserveTransaction("game_deposit", "error")
		sendWalletError(c, err)
		return
	}
	metrics.ObserveTransaction("game_deposit", "success")
	SendSuccess(c, balanceResponse{Balance: balance.String()})
}

// Withdraw handles POST /api/v1/game/wallet/withdraw
func (h *GameWalletHandlers) Withdraw(c *gin.Context) {
	var req gameTxnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, "validation failed", map[string]interface{}{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondBadRequest(c, "invalid amount", map[string]interface{}{"error": err.Error()})
		return
	}
	if !amount.IsPositive() {
		respondBadRequest(c, "amount must be positive", nil)
		return
	}

	balance, err := h.service.Withdraw(c.Request.Context(), req.ClientID, req.UserID, req.Currency,
		entities.WalletSourceID(req.WalletSourceID), req.SourceTxnID, amount)
	if err != nil {
		h.logger.Error("game.Withdraw failed", "error", err)
		metrics.ObserveTransaction("game_withdraw", "error")
		sendWalletError(c, err)
		return
	}
	metrics.ObserveTransaction("game_withdraw", "success")
	SendSuccess(c, balanceResponse{Balance: balance.String()})
}

// Rollback handles POST /api/v1/game/wallet/rollback
func (h *GameWalletHandlers) Rollback(c *gin.Context) {
	var req gameRollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, "validation failed", map[string]interface{}{"error": err.Error()})
		return
	}

	balance, err := h.service.Rollback(c.Request.Context(), req.ClientID, req.UserID, req.Currency,
		entities.WalletSourceID(req.WalletSourceID), req.SourceTxnIDs)
	if err != nil {
		h.logger.Error("game.Rollback failed", "error", err)
		sendWalletError(c, err)
		return
	}
	SendSuccess(c, balanceResponse{Balance: balance.String()})
}

// Update handles POST /api/v1/game/wallet/update
func (h *GameWalletHandlers) Update(c *gin.Context) {
	var req gameUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, "validation failed", map[string]interface{}{"error": err.Error()})
		return
	}

	oldAmount, err := decimal.NewFromString(req.OldAmount)
	if err != nil {
		respondBadRequest(c, "invalid old_amount", nil)
		return
	}
	newAmount, err := decimal.NewFromString(req.NewAmount)
	if err != nil {
		respondBadRequest(c, "invalid new_amount", nil)
		return
	}
	effectiveBet := decimal.Zero
	if req.EffectiveBet != "" {
		if effectiveBet, err = decimal.NewFromString(req.EffectiveBet); err != nil {
			respondBadRequest(c, "invalid effective_bet", nil)
			return
		}
	}
	rolloverRate := decimal.Zero
	if req.RolloverRate != "" {
		if rolloverRate, err = decimal.NewFromString(req.RolloverRate); err != nil {
			respondBadRequest(c, "invalid rollover_rate", nil)
			return
		}
	}

	balance, err := h.service.Update(c.Request.Context(), req.ClientID, req.UserID, req.Currency,
		entities.WalletSourceID(req.WalletSourceID), req.SourceTxnID, oldAmount, newAmount, effectiveBet, rolloverRate)
	if err != nil {
		h.logger.Error("game.Update failed", "error", err)
		sendWalletError(c, err)
		return
	}
	SendSuccess(c, balanceResponse{Balance: balance.String()})
}

func parseAmountAndRate(amountStr, rateStr string) (decimal.Decimal, decimal.Decimal, error) {
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	rate := decimal.Zero
	if rateStr != "" {
		if rate, err = decimal.NewFromString(rateStr); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
	}
	return amount, rate, nil
}
