package http

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"landq-backend/internal/adapter/middleware"
	"landq-backend/internal/domain/parcel"
	"landq-backend/internal/geometry"
	"landq-backend/internal/infrastructure/logger"
	ucparcel "landq-backend/internal/usecase/parcel"
)

type ParcelHandler struct {
	uc  *ucparcel.Usecase
	log *logger.Logger
}

func NewParcelHandler(uc *ucparcel.Usecase, log *logger.Logger) *ParcelHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ParcelHandler{uc: uc, log: log}
}

type latLonReq struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// registerParcelReq takes the boundary either as a point list or as a
// GeoJSON Polygon geometry.
type registerParcelReq struct {
	Region      string          `json:"region"       validate:"required,region"`
	MetadataRef string          `json:"metadata_ref" validate:"max=512"`
	Boundary    []latLonReq     `json:"boundary"     validate:"required_without=GeoJSON,max=1000,dive"`
	GeoJSON     json.RawMessage `json:"geojson"`
}

func (r registerParcelReq) points() ([]geometry.LatLon, error) {
	if len(r.GeoJSON) > 0 {
		poly, err := geometry.UnmarshalGeoJSON(r.GeoJSON)
		if err != nil {
			return nil, parcel.ErrInvalidGeometry.Wrap(err)
		}
		return geometry.Points(poly), nil
	}
	out := make([]geometry.LatLon, len(r.Boundary))
	for i, p := range r.Boundary {
		out[i] = geometry.LatLon{Lat: p.Lat, Lon: p.Lon}
	}
	return out, nil
}

// POST /parcels
func (h *ParcelHandler) Register(c echo.Context) error {
	var req registerParcelReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	pts, err := req.points()
	if err != nil {
		return respondError(c, h.log, err)
	}
	dto, err := h.uc.Register(c.Request().Context(), ucparcel.RegisterInput{
		Owner:       middleware.Account(c),
		Region:      req.Region,
		MetadataRef: req.MetadataRef,
		Boundary:    pts,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// GET /parcels/:parcel_id
func (h *ParcelHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("parcel_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// GET /accounts/:account/parcels
func (h *ParcelHandler) ListByOwner(c echo.Context) error {
	list, err := h.uc.ListByOwner(c.Request().Context(), c.Param("account"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"parcels": list})
}
