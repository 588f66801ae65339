package handler

import (
	"net/http"

	"poscore/internal/middleware"
	"poscore/internal/service"
	"poscore/pkg/pagination"
	"poscore/pkg/response"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	saleService service.SaleService
}

func NewSaleHandler(saleService service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("/api/sales")
	{
		sales.GET("", middleware.RequirePermission("sale.read"), h.ListSales)
		sales.POST("", middleware.RequirePermission("sale.write"), h.CreateSale)
		sales.GET("/:id", middleware.RequirePermission("sale.read"), h.GetSale)
		sales.POST("/:id/returns", middleware.RequirePermission("sale.write"), h.CreateSellReturn)
	}

	exchanges := router.Group("/api/exchanges")
	{
		exchanges.POST("", middleware.RequirePermission("sale.write"), h.Exchange)
	}
}

// ListSales returns paginated sales with optional location filter
// @Summary      List sales
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number (default: 1)"
// @Param        limit     query  int     false  "Items per page (default: 20)"
// @Param        location  query  string  false  "Filter by location ID"
// @Success      200  {object}  response.PaginatedResponse
// @Router       /api/sales [get]
func (h *SaleHandler) ListSales(c *gin.Context) {
	params := pagination.Parse(c)

	sales, total, err := h.saleService.ListSales(c.Request.Context(), c.Query("location"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, sales, params.Page, params.Limit, total))
}

// CreateSale completes a sale: stock out, serials marked sold, payment recorded
// @Summary      Create sale
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateSaleRequest  true  "Sale payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/sales [post]
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req service.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}

// GetSale returns one sale with its items
// @Summary      Get sale
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Sale ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetSale(c *gin.Context) {
	sale, err := h.saleService.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// CreateSellReturn records goods a customer brought back against a sale
// @Summary      Create sell return
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                          true  "Sale ID"
// @Param        payload  body  service.CreateSellReturnRequest true  "Return payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/sales/{id}/returns [post]
func (h *SaleHandler) CreateSellReturn(c *gin.Context) {
	var req service.CreateSellReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ret, err := h.saleService.CreateSellReturn(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ret))
}

// Exchange performs a sell return plus a replacement sale atomically,
// deduplicated by the client-supplied idempotency key.
// @Summary      Exchange
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ExchangeRequest  true  "Exchange payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/exchanges [post]
func (h *SaleHandler) Exchange(c *gin.Context) {
	var req service.ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.saleService.Exchange(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}
