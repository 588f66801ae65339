package handler

import (
	"net/http"

	"poscore/internal/middleware"
	"poscore/internal/service"
	"poscore/pkg/pagination"
	"poscore/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	transferService service.TransferService
}

func NewTransferHandler(transferService service.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

func (h *TransferHandler) RegisterRoutes(router *gin.RouterGroup) {
	transfers := router.Group("/api/transfers")
	{
		transfers.GET("", middleware.RequirePermission("transfer.read"), h.ListTransfers)
		transfers.POST("", middleware.RequirePermission("transfer.write"), h.CreateTransfer)
		transfers.GET("/:id", middleware.RequirePermission("transfer.read"), h.GetTransfer)
		transfers.POST("/:id/receive", middleware.RequirePermission("transfer.receive"), h.ReceiveTransfer)
		transfers.POST("/:id/cancel", middleware.RequirePermission("transfer.write"), h.CancelTransfer)
	}
}

// ListTransfers returns paginated stock transfers with optional status filter
// @Summary      List transfers
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        status  query  string  false  "Filter by status: in_transit, received, cancelled"
// @Success      200  {object}  response.PaginatedResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	params := pagination.Parse(c)

	transfers, total, err := h.transferService.ListTransfers(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, transfers, params.Page, params.Limit, total))
}

// CreateTransfer dispatches stock from the source location. Goods are in
// transit until the destination confirms receipt.
// @Summary      Create transfer
// @Tags         transfers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateTransferRequest  true  "Transfer payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var req service.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	transfer, err := h.transferService.CreateTransfer(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, transfer))
}

// GetTransfer returns one transfer with its items
// @Summary      Get transfer
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Transfer ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	transfer, err := h.transferService.GetTransfer(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// ReceiveTransfer lands in-transit goods at the destination
// @Summary      Receive transfer
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Transfer ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) ReceiveTransfer(c *gin.Context) {
	transfer, err := h.transferService.ReceiveTransfer(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// CancelTransfer returns in-transit goods to the source location
// @Summary      Cancel transfer
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Transfer ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) CancelTransfer(c *gin.Context) {
	transfer, err := h.transferService.CancelTransfer(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}
