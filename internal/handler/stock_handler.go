package handler

import (
	"net/http"

	"poscore/internal/middleware"
	"poscore/internal/service"
	"poscore/pkg/pagination"
	"poscore/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock")
	{
		stock.GET("", middleware.RequirePermission("inventory.read"), h.GetStock)
		stock.GET("/ledger", middleware.RequirePermission("inventory.read"), h.GetLedger)
		stock.POST("/adjustments", middleware.RequirePermission("inventory.adjust"), h.Adjust)
		stock.POST("/opening", middleware.RequirePermission("inventory.adjust"), h.OpeningStock)
		stock.GET("/reconciliation", middleware.RequireRole("admin", "manager"), h.Reconcile)
	}
}

// GetStock returns current on-hand balances, optionally per location
// @Summary      Stock balances
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number (default: 1)"
// @Param        limit     query  int     false  "Items per page (default: 20)"
// @Param        location  query  string  false  "Filter by location ID"
// @Success      200  {object}  response.PaginatedResponse
// @Router       /api/stock [get]
func (h *StockHandler) GetStock(c *gin.Context) {
	params := pagination.Parse(c)

	balances, total, err := h.stockService.GetStock(c.Request.Context(), c.Query("location"), params.Page, params.Limit)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, balances, params.Page, params.Limit, total))
}

// GetLedger returns the append-only movement history
// @Summary      Stock ledger
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        page       query  int     false  "Page number (default: 1)"
// @Param        limit      query  int     false  "Items per page (default: 20)"
// @Param        variation  query  string  false  "Filter by product variation ID"
// @Param        location   query  string  false  "Filter by location ID"
// @Success      200  {object}  response.PaginatedResponse
// @Router       /api/stock/ledger [get]
func (h *StockHandler) GetLedger(c *gin.Context) {
	params := pagination.Parse(c)

	txs, total, err := h.stockService.GetLedger(c.Request.Context(), c.Query("variation"), c.Query("location"), params.Page, params.Limit)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, txs, params.Page, params.Limit, total))
}

// Adjust records a manual stock correction with a mandatory reason
// @Summary      Adjust stock
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.AdjustStockRequest  true  "Adjustment payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/stock/adjustments [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.stockService.Adjust(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// OpeningStock seeds the initial on-hand quantity for a pair with no history
// @Summary      Opening stock
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.OpeningStockRequest  true  "Opening stock payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/stock/opening [post]
func (h *StockHandler) OpeningStock(c *gin.Context) {
	var req service.OpeningStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entry, err := h.stockService.OpeningStock(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// Reconcile reports every balance whose cache drifted from its ledger sum
// @Summary      Reconcile stock
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/stock/reconciliation [get]
func (h *StockHandler) Reconcile(c *gin.Context) {
	rows, err := h.stockService.Reconcile(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"clean": len(rows) == 0,
		"rows":  rows,
	}))
}
