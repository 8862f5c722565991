package handlers

import (
	"errors"
	"net/http"
	"time"

	"admiral/internal/models"
	"admiral/internal/services"

	"github.com/gin-gonic/gin"
)

// InstrumentHandler handles instrument and market data endpoints.
type InstrumentHandler struct {
	importSvc  *services.ImportService
	pricingSvc *services.PricingService
}

// NewInstrumentHandler creates a new InstrumentHandler.
func NewInstrumentHandler(importSvc *services.ImportService, pricingSvc *services.PricingService) *InstrumentHandler {
	return &InstrumentHandler{
		importSvc:  importSvc,
		pricingSvc: pricingSvc,
	}
}

// Import handles POST /instruments/:symbol/import
func (h *InstrumentHandler) Import(c *gin.Context) {
	symbol := c.Param("symbol")
	if err := h.importSvc.ImportSnapshot(c.Request.Context(), symbol); err != nil {
		if errors.Is(err, services.ErrInvalidSymbol) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "bad_request",
				Message: err.Error(),
			})
			return
		}
		// Provider failures for a single-symbol import do surface: the
		// caller asked for exactly this symbol.
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "import_failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "imported"})
}

// ImportBatch handles POST /instruments/import
func (h *InstrumentHandler) ImportBatch(c *gin.Context) {
	var req models.BatchImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	result := h.importSvc.ImportBatch(c.Request.Context(), req.Symbols)
	c.JSON(http.StatusOK, result)
}

// List handles GET /instruments
func (h *InstrumentHandler) List(c *gin.Context) {
	instruments, err := h.importSvc.ListInstruments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	if instruments == nil {
		instruments = []*models.InstrumentWithQuote{}
	}
	c.JSON(http.StatusOK, instruments)
}

// History handles GET /instruments/:symbol/history?start=&end=
func (h *InstrumentHandler) History(c *gin.Context) {
	const layout = "2006-01-02"

	end := time.Now().UTC()
	start := end.AddDate(0, -1, 0)

	if v := c.Query("start"); v != "" {
		t, err := time.Parse(layout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "bad_request",
				Message: "invalid start date, expected YYYY-MM-DD",
			})
			return
		}
		start = t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(layout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "bad_request",
				Message: "invalid end date, expected YYYY-MM-DD",
			})
			return
		}
		// Make the end date inclusive of its trading day.
		end = t.AddDate(0, 0, 1)
	}

	bars, err := h.pricingSvc.DailyBars(c.Request.Context(), c.Param("symbol"), start, end)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSymbol) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "bad_request",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "provider_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, bars)
}
