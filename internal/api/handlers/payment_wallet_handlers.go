package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	"github.com/playerwallet/wallet-service/internal/domain/services/walletapp"
	"github.com/playerwallet/wallet-service/pkg/logger"
	"github.com/playerwallet/wallet-service/pkg/metrics"
)

// PaymentWalletHandlers exposes the payment facet: player-initiated funding
// and withdrawal, gated on the rollover ledger for withdrawals.
type PaymentWalletHandlers struct {
	service   *walletapp.PaymentService
	validator *validator.Validate
	logger    *logger.Logger
}

func NewPaymentWalletHandlers(service *walletapp.PaymentService, log *logger.Logger) *PaymentWalletHandlers {
	return &PaymentWalletHandlers{
		service:   service,
		validator: validator.New(),
		logger:    log,
	}
}

type walletModelResponse struct {
	ClientID            int64  `json:"client_id"`
	UserID              int64  `json:"user_id"`
	CurrencyID          int64  `json:"currency_id"`
	CurrencyName        string `json:"currency_name"`
	WalletSourceID      int64  `json:"wallet_source_id"`
	WalletSourceName    string `json:"wallet_source_name"`
	Amount              string `json:"amount"`
	RequirementRollover string `json:"requirement_rollover"`
	AchievementRollover string `json:"achievement_rollover"`
}

func newWalletModelResponse(m walletapp.WalletModel) walletModelResponse {
	return walletModelResponse{
		ClientID:            m.ClientID,
		UserID:              m.UserID,
		CurrencyID:          m.CurrencyID,
		CurrencyName:        m.CurrencyName,
		WalletSourceID:      int64(m.WalletSourceID),
		WalletSourceName:    m.WalletSourceName,
		Amount:              m.Amount.String(),
		RequirementRollover: m.RequirementRollover.String(),
		AchievementRollover: m.AchievementRollover.String(),
	}
}

type paymentWalletRequest struct {
	ClientID       int64  `form:"client_id" json:"client_id" validate:"required"`
	UserID         int64  `form:"user_id" json:"user_id" validate:"required"`
	Currency       string `form:"currency" json:"currency" validate:"required"`
	WalletSourceID int64  `form:"wallet_source_id" json:"wallet_source_id" validate:"required"`
}

type paymentTxnRequest struct {
	paymentWalletRequest
	SourceTxnID  int64  `json:"source_txn_id" validate:"required"`
	Amount       string `json:"amount" validate:"required"`
	RolloverRate string `json:"rollover_rate"`
}

type paymentRejectRequest struct {
	paymentWalletRequest
	SourceTxnID int64 `json:"source_txn_id" validate:"required"`
}

type paymentRollbackRequest struct {
	ClientID       int64 `json:"client_id" validate:"required"`
	UserID         int64 `json:"user_id" validate:"required"`
	WalletSourceID int64 `json:"wallet_source_id" validate:"required"`
	SourceTxnID    int64 `json:"source_txn_id" validate:"required"`
}

// Get handles GET /api/v1/payment/wallet
func (h *PaymentWalletHandlers) Get(c *gin.Context) {
	var req paymentWalletRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBadRequest(c, "invalid query parameters", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, "validation failed", map[string]interface{}{"error": err.Error()})
		return
	}

	model, err := h.service.Get(c.Request.Context(), req.ClientID, req.UserID, req.Currency, entities.WalletSourceID(req.WalletSourceID))
	if err != nil {
		h.logger.Error("payment.Get failed", "error", err)
		sendWalletError(c, err)
		return
	}
	SendSuccess(c, newWalletModelResponse(model))
}

type walletListResponse struct {
	Wallets []walletModelResponse `json:"wallets"`
	Total   int                   `json:"total"`
	Page    int                   `json:"page"`
}

// GetList handles GET /api/v1/payment/wallets; the administrator query
// over every wallet for a client, narrowed by the non-empty subsets of
// player_ids, currencies, and wallet_sources given as repeated query
// parameters (e.g. ?player_ids=1&player_ids=2).
func (h *PaymentWalletHandlers) GetList(c *gin.Context) {
	clientID, err := strconv.ParseInt(c.Query("client_id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid client_id", nil)
		return
	}

	playerIDs, err := parseInt64Query(c, "player_ids")
	if err != nil {
		respondBadRequest(c, "invalid player_ids", nil)
		return
	}
	currencies := c.QueryArray("currencies")

	rawSourceIDs, err := parseInt64Query(c, "wallet_sources")
	if err != nil {
		respondBadRequest(c, "invalid wallet_sources", nil)
		return
	}
	walletSourceIDs := make([]entities.WalletSourceID, 0, len(rawSourceIDs))
	for _, id := range rawSourceIDs {
		walletSourceIDs = append(walletSourceIDs, entities.WalletSourceID(id))
	}

	page := parseIntParam(c, "page", 1)
	pageSize := parseIntParam(c, "page_size", 25)

	models, total, err := h.service.GetList(c.Request.Context(), clientID, playerIDs, currencies, walletSourceIDs, page, pageSize)
	if err != nil {
		h.logger.Error("payment.GetList failed", "error", err)
		sendWalletError(c, err)
		return
	}

	resp := make([]walletModelResponse, 0, len(models))
	for _, m := range models {
		resp = append(resp, newWalletModelResponse(m))
	}
	SendSuccess(c, walletListResponse{Wallets: resp, Total: total, Page: page})
}

func parseInt64Query(c *gin.Context, key string) ([]int64, error) {
	raw := c.QueryArray(key)
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Deposit handles POST /api/v1/payment/wallet/deposit
func (h *PaymentWalletHandlers) Deposit(c *gin.Context) {
	var req paymentTxnRequest
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

	model, err := h.service.Deposit(c.Request.Context(), req.ClientID, req.UserID, req.Currency,
		entities.WalletSourceID(req.WalletSourceID), req.SourceTxnID, amount, rolloverRate)
	if err != nil {
		h.logger.Error("payment.Deposit failed", "error", err)
		metrics.ObserveTransaction("payment_deposit", "error")
		sendWalletError(c, err)
		return
	}
	metrics.ObserveTransaction("payment_deposit", "success")
	SendSuccess(c, newWalletModelResponse(model))
}

// Withdraw handles POST /api/v1/payment/wallet/withdraw
func (h *PaymentWalletHandlers) Withdraw(c *gin.Context) {
	var req paymentTxnRequest
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

	model, err := h.service.Withdraw(c.Request.Context(), req.ClientID, req.UserID, req.Currency,
		entities.WalletSourceID(req.WalletSourceID), req.SourceTxnID, amount)
	if err != nil {
		h.logger.Error("payment.Withdraw failed", "error", err)
		metrics.ObserveTransaction("payment_withdraw", "error")
		sendWalletError(c, err)
		return
	}
	metrics.ObserveTransaction("payment_withdraw", "success")
	SendSuccess(c, newWalletModelResponse(model))
}

// Reject handles POST /api/v1/payment/wallet/reject
func (h *PaymentWalletHandlers) Reject(c *gin.Context) {
	var req paymentRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, "validation failed", map[string]interface{}{"error": err.Error()})
		return
	}

	model, err := h.service.Reject(c.Request.Context(), req.ClientID, req.UserID, req.Currency,
		entities.WalletSourceID(req.WalletSourceID), req.SourceTxnID)
	if err != nil {
		h.logger.Error("payment.Reject failed", "error", err)
		metrics.ObserveTransaction("payment_withdraw_reject", "error")
		sendWalletError(c, err)
		return
	}
	metrics.ObserveTransaction("payment_withdraw_reject", "success")
	SendSuccess(c, newWalletModelResponse(model))
}

// Rollback handles POST /api/v1/payment/wallet/rollback
func (h *PaymentWalletHandlers) Rollback(c *gin.Context) {
	var req paymentRollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, "validation failed", map[string]interface{}{"error": err.Error()})
		return
	}

	model, err := h.service.Rollback(c.Request.Context(), req.ClientID, req.UserID,
		entities.WalletSourceID(req.WalletSourceID), req.SourceTxnID)
	if err != nil {
		h.logger.Error("payment.Rollback failed", "error", err)
		metrics.ObserveTransaction("payment_rollback", "error")
		sendWalletError(c, err)
		return
	}
	metrics.ObserveTransaction("payment_rollback", "success")
	SendSuccess(c, newWalletModelResponse(model))
}
