package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"landq-backend/internal/adapter/middleware"
	"landq-backend/internal/infrastructure/logger"
	ucverification "landq-backend/internal/usecase/verification"
)

type VerificationHandler struct {
	uc  *ucverification.Usecase
	log *logger.Logger
}

func NewVerificationHandler(uc *ucverification.Usecase, log *logger.Logger) *VerificationHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &VerificationHandler{uc: uc, log: log}
}

type verifyReq struct {
	AppraisedValue int64  `json:"appraised_value" validate:"required,gt=0"`
	Notes          string `json:"notes"           validate:"max=2048"`
}

type rejectReq struct {
	Reason string `json:"reason" validate:"required,max=2048"`
}

type assignVerifierReq struct {
	Verifier string `json:"verifier" validate:"required,account"`
}

// POST /parcels/:parcel_id/verification
func (h *VerificationHandler) Request(c echo.Context) error {
	dto, err := h.uc.RequestVerification(c.Request().Context(), c.Param("parcel_id"), middleware.Account(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusAccepted, dto)
}

// GET /parcels/:parcel_id/verification
func (h *VerificationHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("parcel_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// POST /parcels/:parcel_id/verification/approve
func (h *VerificationHandler) Approve(c echo.Context) error {
	var req verifyReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Verify(c.Request().Context(), ucverification.VerifyInput{
		ParcelID:       c.Param("parcel_id"),
		Verifier:       middleware.Account(c),
		AppraisedValue: req.AppraisedValue,
		Notes:          req.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// POST /parcels/:parcel_id/verification/reject
func (h *VerificationHandler) Reject(c echo.Context) error {
	var req rejectReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Reject(c.Request().Context(), ucverification.RejectInput{
		ParcelID: c.Param("parcel_id"),
		Verifier: middleware.Account(c),
		Reason:   req.Reason,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// PUT /regions/:region/verifier
func (h *VerificationHandler) AssignVerifier(c echo.Context) error {
	var req assignVerifierReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.AssignVerifier(c.Request().Context(), middleware.Account(c), c.Param("region"), req.Verifier)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// DELETE /regions/:region/verifier
func (h *VerificationHandler) RemoveVerifier(c echo.Context) error {
	dto, err := h.uc.RemoveVerifier(c.Request().Context(), middleware.Account(c), c.Param("region"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// GET /regions/:region/verifier
func (h *VerificationHandler) GetRegionVerifier(c echo.Context) error {
	dto, err := h.uc.GetRegionVerifier(c.Request().Context(), c.Param("region"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}
