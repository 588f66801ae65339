package handler

import (
	"net/http"

	"poscore/internal/middleware"
	"poscore/internal/service"
	"poscore/pkg/pagination"
	"poscore/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api/products")
	{
		products.GET("", middleware.RequirePermission("product.read"), h.ListProducts)
		products.POST("", middleware.RequirePermission("product.write"), h.CreateProduct)
		products.GET("/:id", middleware.RequirePermission("product.read"), h.GetProduct)
		products.PUT("/:id", middleware.RequirePermission("product.write"), h.UpdateProduct)
		products.DELETE("/:id", middleware.RequirePermission("product.write"), h.DeleteProduct)
		products.POST("/:id/variations", middleware.RequirePermission("product.write"), h.AddVariation)
	}

	variations := router.Group("/api/variations")
	{
		variations.GET("/:id/serials", middleware.RequirePermission("product.read"), h.ListSerials)
	}
}

// ListProducts returns paginated products with optional name search
// @Summary      List products
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        search  query  string  false  "Search by name"
// @Success      200  {object}  response.PaginatedResponse
// @Router       /api/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)

	products, total, err := h.productService.List(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, products, params.Page, params.Limit, total))
}

// CreateProduct creates a product with its initial variations
// @Summary      Create product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateProductRequest  true  "Product payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.productService.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// GetProduct returns one product with its variations
// @Summary      Get product
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// UpdateProduct updates product fields
// @Summary      Update product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Product ID"
// @Param        payload  body  service.UpdateProductRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.productService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct soft-deletes a product
// @Summary      Delete product
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "product deleted"}))
}

// AddVariation adds a variation to an existing product
// @Summary      Add variation
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                    true  "Product ID"
// @Param        payload  body  service.VariationRequest  true  "Variation payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/products/{id}/variations [post]
func (h *ProductHandler) AddVariation(c *gin.Context) {
	var req service.VariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	variation, err := h.productService.AddVariation(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, variation))
}

// ListSerials returns serial units of a variation with optional filters
// @Summary      List serial numbers
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id        path   string  true   "Variation ID"
// @Param        status    query  string  false  "Filter by status: in_stock, sold, transferred, supplier_return"
// @Param        location  query  string  false  "Filter by current location ID"
// @Success      200  {object}  response.Response
// @Router       /api/variations/{id}/serials [get]
func (h *ProductHandler) ListSerials(c *gin.Context) {
	serials, err := h.productService.ListSerials(c.Request.Context(), c.Param("id"), c.Query("status"), c.Query("location"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, serials))
}
