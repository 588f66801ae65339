package handler

import (
	"net/http"

	"poscore/internal/middleware"
	"poscore/internal/service"
	"poscore/pkg/pagination"
	"poscore/pkg/response"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	locationService service.LocationService
}

func NewLocationHandler(locationService service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

func (h *LocationHandler) RegisterRoutes(router *gin.RouterGroup) {
	locations := router.Group("/api/locations")
	{
		locations.GET("", middleware.RequirePermission("location.read"), h.ListLocations)
		locations.POST("", middleware.RequirePermission("location.write"), h.CreateLocation)
		locations.GET("/:id", middleware.RequirePermission("location.read"), h.GetLocation)
		locations.PUT("/:id", middleware.RequirePermission("location.write"), h.UpdateLocation)
	}
}

// ListLocations returns paginated stock locations
// @Summary      List locations
// @Tags         locations
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default: 1)"
// @Param        limit  query  int  false  "Items per page (default: 20)"
// @Success      200  {object}  response.PaginatedResponse
// @Router       /api/locations [get]
func (h *LocationHandler) ListLocations(c *gin.Context) {
	params := pagination.Parse(c)

	locations, total, err := h.locationService.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, locations, params.Page, params.Limit, total))
}

// CreateLocation creates a warehouse or store
// @Summary      Create location
// @Tags         locations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.LocationRequest  true  "Location payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/locations [post]
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	var req service.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	location, err := h.locationService.Create(c.Request.Context(), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, location))
}

// GetLocation returns one location
// @Summary      Get location
// @Tags         locations
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Location ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/locations/{id} [get]
func (h *LocationHandler) GetLocation(c *gin.Context) {
	location, err := h.locationService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, location))
}

// UpdateLocation updates location fields
// @Summary      Update location
// @Tags         locations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Location ID"
// @Param        payload  body  service.LocationRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/locations/{id} [put]
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	var req service.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	location, err := h.locationService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, location))
}
