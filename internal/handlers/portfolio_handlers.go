package handlers

import (
	"errors"
	"net/http"

	"admiral/internal/models"
	"admiral/internal/services"

	"github.com/gin-gonic/gin"
)

// PortfolioHandler handles transaction, position and summary endpoints.
type PortfolioHandler struct {
	portfolioSvc *services.PortfolioService
	pricingSvc   *services.PricingService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioSvc *services.PortfolioService, pricingSvc *services.PricingService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioSvc: portfolioSvc,
		pricingSvc:   pricingSvc,
	}
}

// RecordTransaction handles POST /transactions
func (h *PortfolioHandler) RecordTransaction(c *gin.Context) {
	var req models.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	t, err := h.portfolioSvc.RecordTransaction(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientHoldings) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "insufficient_holdings",
				Message: err.Error(),
			})
			return
		}
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "bad_request",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, t)
}

// ListTransactions handles GET /transactions?symbol=
func (h *PortfolioHandler) ListTransactions(c *gin.Context) {
	transactions, err := h.portfolioSvc.Transactions(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	if transactions == nil {
		transactions = []*models.Transaction{}
	}
	c.JSON(http.StatusOK, transactions)
}

// ListPositions handles GET /positions
func (h *PortfolioHandler) ListPositions(c *gin.Context) {
	positions, err := h.portfolioSvc.Positions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	if positions == nil {
		positions = []*models.Position{}
	}
	c.JSON(http.StatusOK, positions)
}

// Recalculate handles POST /recalculate
func (h *PortfolioHandler) Recalculate(c *gin.Context) {
	count, err := h.portfolioSvc.RecalculateAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recalculated_instruments": count})
}

// RefreshPrices handles POST /refresh
func (h *PortfolioHandler) RefreshPrices(c *gin.Context) {
	if err := h.pricingSvc.RefreshPrices(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Summary handles GET /summary
func (h *PortfolioHandler) Summary(c *gin.Context) {
	summary, err := h.portfolioSvc.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Sync handles POST /sync: recalculate, then refresh prices, then summarize.
// Valuation needs both updated quantities and updated prices, in that order.
func (h *PortfolioHandler) Sync(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.portfolioSvc.RecalculateAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	if err := h.pricingSvc.RefreshPrices(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	summary, err := h.portfolioSvc.Summary(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SyncResult{
		RecalculatedInstruments: count,
		Summary:                 *summary,
	})
}

func isValidationError(err error) bool {
	return errors.Is(err, services.ErrInvalidSymbol) ||
		errors.Is(err, services.ErrInvalidSide) ||
		errors.Is(err, services.ErrInvalidQuantity) ||
		errors.Is(err, services.ErrInvalidPrice) ||
		errors.Is(err, services.ErrInvalidFees) ||
		errors.Is(err, services.ErrInvalidDate)
}
