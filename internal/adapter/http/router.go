package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Health       *Handler
	Parcels      *ParcelHandler
	Verification *VerificationHandler
	Loans        *LoanHandler
	Oracle       *OracleHandler
	Metrics      http.Handler
}

// Register mounts every route on g. Middleware is the caller's concern.
func Register(g *echo.Group, h Handlers) {
	g.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		g.GET("/metrics", echo.WrapHandler(h.Metrics))
	}

	g.POST("/parcels", h.Parcels.Register)
	g.GET("/parcels/:parcel_id", h.Parcels.Get)
	g.GET("/accounts/:account/parcels", h.Parcels.ListByOwner)

	g.POST("/parcels/:parcel_id/verification", h.Verification.Request)
	g.GET("/parcels/:parcel_id/verification", h.Verification.Get)
	g.POST("/parcels/:parcel_id/verification/approve", h.Verification.Approve)
	g.POST("/parcels/:parcel_id/verification/reject", h.Verification.Reject)
	g.PUT("/regions/:region/verifier", h.Verification.AssignVerifier)
	g.DELETE("/regions/:region/verifier", h.Verification.RemoveVerifier)
	g.GET("/regions/:region/verifier", h.Verification.GetRegionVerifier)

	g.GET("/loan-tiers", h.Loans.Tiers)
	g.GET("/parcels/:parcel_id/loan/quote", h.Loans.Quote)
	g.POST("/parcels/:parcel_id/loan", h.Loans.RequestLoan)
	g.GET("/parcels/:parcel_id/loan", h.Loans.GetLoan)
	g.GET("/parcels/:parcel_id/loans", h.Loans.ListLoans)
	g.POST("/parcels/:parcel_id/loan/repay", h.Loans.Repay)
	g.POST("/parcels/:parcel_id/loan/check-default", h.Loans.CheckDefault)

	g.GET("/oracle/rate", h.Oracle.GetRate)
	g.PUT("/oracle/rate", h.Oracle.SetRate)
}
