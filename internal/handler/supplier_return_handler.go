package handler

import (
	"net/http"

	"poscore/internal/middleware"
	"poscore/internal/service"
	"poscore/pkg/pagination"
	"poscore/pkg/response"

	"github.com/gin-gonic/gin"
)

type SupplierReturnHandler struct {
	returnService service.SupplierReturnService
}

func NewSupplierReturnHandler(returnService service.SupplierReturnService) *SupplierReturnHandler {
	return &SupplierReturnHandler{returnService: returnService}
}

func (h *SupplierReturnHandler) RegisterRoutes(router *gin.RouterGroup) {
	returns := router.Group("/api/supplier-returns")
	{
		returns.GET("", middleware.RequirePermission("return.read"), h.ListReturns)
		returns.POST("", middleware.RequirePermission("return.write"), h.CreateReturn)
		returns.GET("/:id", middleware.RequirePermission("return.read"), h.GetReturn)
		returns.POST("/:id/approve", middleware.RequirePermission("return.approve"), h.ApproveReturn)
		returns.POST("/:id/reject", middleware.RequirePermission("return.approve"), h.RejectReturn)
	}
}

type rejectReturnRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListReturns returns paginated supplier returns with optional status filter
// @Summary      List supplier returns
// @Tags         supplier-returns
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        status  query  string  false  "Filter by status: pending, approved, rejected"
// @Success      200  {object}  response.PaginatedResponse
// @Router       /api/supplier-returns [get]
func (h *SupplierReturnHandler) ListReturns(c *gin.Context) {
	params := pagination.Parse(c)

	returns, total, err := h.returnService.ListReturns(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, returns, params.Page, params.Limit, total))
}

// CreateReturn drafts a supplier return. No stock or money moves until approval.
// @Summary      Create supplier return
// @Tags         supplier-returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateSupplierReturnRequest  true  "Return payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/supplier-returns [post]
func (h *SupplierReturnHandler) CreateReturn(c *gin.Context) {
	var req service.CreateSupplierReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ret, err := h.returnService.CreateReturn(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ret))
}

// GetReturn returns one supplier return with its items
// @Summary      Get supplier return
// @Tags         supplier-returns
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Return ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/supplier-returns/{id} [get]
func (h *SupplierReturnHandler) GetReturn(c *gin.Context) {
	ret, err := h.returnService.GetReturn(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// ApproveReturn executes the return: stock out, serials released,
// payable reduced, credit payment recorded — all atomically.
// @Summary      Approve supplier return
// @Tags         supplier-returns
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Return ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/supplier-returns/{id}/approve [post]
func (h *SupplierReturnHandler) ApproveReturn(c *gin.Context) {
	ret, err := h.returnService.ApproveReturn(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}

// RejectReturn declines a pending return without side effects
// @Summary      Reject supplier return
// @Tags         supplier-returns
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "Return ID"
// @Param        payload  body  rejectReturnRequest  true  "Rejection reason"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/supplier-returns/{id}/reject [post]
func (h *SupplierReturnHandler) RejectReturn(c *gin.Context) {
	var req rejectReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ret, err := h.returnService.RejectReturn(c.Request.Context(), currentUserID(c), c.Param("id"), req.Reason)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ret))
}
