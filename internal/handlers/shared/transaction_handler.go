package handlers

import (
	"raddiwala/internal/models"
	"raddiwala/internal/services"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"

	"github.com/gin-gonic/gin"
)

type TransactionHandler struct {
	settlementService services.SettlementService
	logger            *logger.Logger
}

func NewTransactionHandler(settlementService services.SettlementService, logger *logger.Logger) *TransactionHandler {
	return &TransactionHandler{
		settlementService: settlementService,
		logger:            logger,
	}
}

// ListTransactions returns the caller's completed transactions, newest first
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	partyID, role, ok := caller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, "completed_at", "completed_at", "total_amount")
	txns, total, err := h.settlementService.List(c.Request.Context(), partyID, role, c.Query("payment_status"), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	}
	utils.SuccessResponseWithMeta(c, "Transactions retrieved successfully", txns, meta)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	partyID, role, ok := caller(c)
	if !ok {
		return
	}
	txnID, ok := pathID(c, "id")
	if !ok {
		return
	}

	txn, err := h.settlementService.Get(c.Request.Context(), txnID, partyID, role)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Transaction retrieved successfully", txn)
}

func (h *TransactionHandler) GetStats(c *gin.Context) {
	partyID, role, ok := caller(c)
	if !ok {
		return
	}

	stats, err := h.settlementService.Stats(c.Request.Context(), partyID, role)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Transaction statistics retrieved successfully", stats)
}

// RateCollector records the customer's rating of the collector
func (h *TransactionHandler) RateCollector(c *gin.Context) {
	h.rate(c, models.RoleCustomer)
}

// RateCustomer records the collector's rating of the customer
func (h *TransactionHandler) RateCustomer(c *gin.Context) {
	h.rate(c, models.RoleCollector)
}

func (h *TransactionHandler) rate(c *gin.Context, raterRole models.Role) {
	partyID, _, ok := caller(c)
	if !ok {
		return
	}
	txnID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.RatingRequest
	if !bindJSON(c, &req) {
		return
	}

	var txn *models.CompletedTransaction
	var err error
	if raterRole == models.RoleCustomer {
		txn, err = h.settlementService.RateCollector(c.Request.Context(), partyID, txnID, &req)
	} else {
		txn, err = h.settlementService.RateCustomer(c.Request.Context(), partyID, txnID, &req)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Rating submitted successfully", txn)
}

func (h *TransactionHandler) UpdatePaymentStatus(c *gin.Context) {
	partyID, role, ok := caller(c)
	if !ok {
		return
	}
	txnID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.PaymentStatusUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	txn, err := h.settlementService.UpdatePaymentStatus(c.Request.Context(), txnID, partyID, role, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Payment status updated successfully", txn)
}
