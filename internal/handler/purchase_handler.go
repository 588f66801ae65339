package handler

import (
	"net/http"

	"poscore/internal/middleware"
	"poscore/internal/service"
	"poscore/pkg/pagination"
	"poscore/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	purchases := router.Group("/api/purchases")
	{
		purchases.GET("", middleware.RequirePermission("purchase.read"), h.ListPurchases)
		purchases.POST("", middleware.RequirePermission("purchase.write"), h.CreatePurchase)
		purchases.GET("/:id", middleware.RequirePermission("purchase.read"), h.GetPurchase)
		purchases.POST("/:id/receive", middleware.RequirePermission("purchase.receive"), h.ReceiveGoods)
	}
}

// ListPurchases returns paginated purchase orders with optional status filter
// @Summary      List purchases
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        status  query  string  false  "Filter by status: ordered, partially_received, received"
// @Success      200  {object}  response.PaginatedResponse
// @Router       /api/purchases [get]
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	params := pagination.Parse(c)

	purchases, total, err := h.purchaseService.ListPurchases(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, purchases, params.Page, params.Limit, total))
}

// CreatePurchase creates a purchase order against a supplier
// @Summary      Create purchase order
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreatePurchaseRequest  true  "Purchase payload"
// @Success      201  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/purchases [post]
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req service.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	purchase, err := h.purchaseService.CreatePurchase(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

// GetPurchase returns one purchase order with its items
// @Summary      Get purchase order
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Purchase ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// ReceiveGoods records a goods receipt against a purchase order. Stock
// enters inventory here, not at purchase creation.
// @Summary      Receive goods
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Purchase ID"
// @Param        payload  body  service.ReceiveGoodsRequest  true  "Receipt payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/purchases/{id}/receive [post]
func (h *PurchaseHandler) ReceiveGoods(c *gin.Context) {
	var req service.ReceiveGoodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	receipt, err := h.purchaseService.ReceiveGoods(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, receipt))
}
