package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"landq-backend/internal/adapter/middleware"
	domain "landq-backend/internal/domain/loan"
	"landq-backend/internal/infrastructure/logger"
	"landq-backend/internal/usecase/loan"
)

type LoanHandler struct {
	uc  *loan.Usecase
	log *logger.Logger
	now func() time.Time
}

func NewLoanHandler(uc *loan.Usecase, log *logger.Logger) *LoanHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LoanHandler{uc: uc, log: log, now: time.Now}
}

type requestLoanReq struct {
	Principal     int64 `json:"principal"      validate:"required,gt=0"`
	PeriodSeconds int64 `json:"period_seconds" validate:"required,gt=0"`
}

type repayReq struct {
	Amount   int64  `json:"amount"   validate:"required,gt=0"`
	Currency string `json:"currency" validate:"omitempty,oneof=reference collateral"`
}

// GET /loan-tiers
func (h *LoanHandler) Tiers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"tiers": h.uc.Tiers()})
}

// GET /parcels/:parcel_id/loan/quote
func (h *LoanHandler) Quote(c echo.Context) error {
	dto, err := h.uc.Quote(c.Request().Context(), c.Param("parcel_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// POST /parcels/:parcel_id/loan
func (h *LoanHandler) RequestLoan(c echo.Context) error {
	var req requestLoanReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.RequestLoan(c.Request().Context(), loan.RequestLoanInput{
		ParcelID:      c.Param("parcel_id"),
		Borrower:      middleware.Account(c),
		Principal:     req.Principal,
		PeriodSeconds: req.PeriodSeconds,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// GET /parcels/:parcel_id/loan
func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("parcel_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// GET /parcels/:parcel_id/loans
func (h *LoanHandler) ListLoans(c echo.Context) error {
	list, err := h.uc.ListLoans(c.Request().Context(), c.Param("parcel_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": list})
}

// POST /parcels/:parcel_id/loan/repay
func (h *LoanHandler) Repay(c echo.Context) error {
	var req repayReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Repay(c.Request().Context(), loan.RepayInput{
		ParcelID:        c.Param("parcel_id"),
		Payer:           middleware.Account(c),
		Amount:          req.Amount,
		PayInCollateral: req.Currency == string(domain.CurrencyCollateral),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// POST /parcels/:parcel_id/loan/check-default
func (h *LoanHandler) CheckDefault(c echo.Context) error {
	dto, err := h.uc.CheckDefault(c.Request().Context(), c.Param("parcel_id"), h.now())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}
