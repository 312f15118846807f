package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openvalley/strmatch-backend-go/internal/service"
	"github.com/openvalley/strmatch-backend-go/pkg/response"
)

// GeoHandler serves the map layers. These endpoints return bare GeoJSON
// FeatureCollections, not the standard envelope, so map libraries can
// consume them directly.
type GeoHandler struct {
	geoService *service.GeoService
}

// NewGeoHandler creates a new geo handler
func NewGeoHandler(geoService *service.GeoService) *GeoHandler {
	return &GeoHandler{geoService: geoService}
}

// GetParcels handles GET /api/v1/parcels/geojson
func (h *GeoHandler) GetParcels(c *gin.Context) {
	fc, err := h.geoService.ParcelsGeoJSON()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to build parcel layer", err)
		return
	}

	c.JSON(http.StatusOK, fc)
}

// GetDwellings handles GET /api/v1/dwellings/geojson
func (h *GeoHandler) GetDwellings(c *gin.Context) {
	fc, err := h.geoService.DwellingsGeoJSON()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to build dwelling layer", err)
		return
	}

	c.JSON(http.StatusOK, fc)
}
