package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"landq-backend/internal/adapter/middleware"
	"landq-backend/internal/infrastructure/logger"
	"landq-backend/internal/usecase/oracle"
)

type OracleHandler struct {
	uc  *oracle.Usecase
	log *logger.Logger
}

func NewOracleHandler(uc *oracle.Usecase, log *logger.Logger) *OracleHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &OracleHandler{uc: uc, log: log}
}

type setRateReq struct {
	Numerator int64 `json:"numerator" validate:"required,gt=0"`
}

// GET /oracle/rate
func (h *OracleHandler) GetRate(c echo.Context) error {
	dto, err := h.uc.GetRate(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// PUT /oracle/rate
func (h *OracleHandler) SetRate(c echo.Context) error {
	var req setRateReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.SetRate(c.Request().Context(), middleware.Account(c), req.Numerator)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}
