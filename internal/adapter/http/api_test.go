package http

import (
	"bytes"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapteroracle "landq-backend/internal/adapter/oracle"
	"landq-backend/internal/adapter/middleware"
	"landq-backend/internal/adapter/repository/ledger"
	domainloan "landq-backend/internal/domain/loan"
	"landq-backend/internal/infrastructure/metrics"
	"landq-backend/internal/testutil/testdb"
	"landq-backend/internal/usecase/loan"
	"landq-backend/internal/usecase/oracle"
	ucparcel "landq-backend/internal/usecase/parcel"
	ucverification "landq-backend/internal/usecase/verification"
	"landq-backend/pkg/account"
)

const (
	owner    = "0x1111111111111111111111111111111111111111"
	stranger = "0x2222222222222222222222222222222222222222"
	admin    = "0x9999999999999999999999999999999999999999"
	verifier = "0x000000000000000000000000000000000000000a"
)

func newAPI(t *testing.T) *echo.Echo {
	t.Helper()
	db := testdb.Open(t)
	col, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	tiers, err := domainloan.NewRateTable(domainloan.DefaultTiers)
	require.NoError(t, err)

	uow := ledger.NewGormUoW(db)
	parcels := ledger.NewParcelRepository(db)
	verifications := ledger.NewVerificationRepository(db)
	admins := account.NewSet(admin)
	rate := adapteroracle.NewStatic(50_000_000, 100_000_000)

	h := Handlers{
		Health: NewHandler(),
		Parcels: NewParcelHandler(ucparcel.NewUsecase(ucparcel.Deps{
			UoW: uow, Parcels: parcels, Metrics: col,
		}), nil),
		Verification: NewVerificationHandler(ucverification.NewUsecase(ucverification.Deps{
			UoW: uow, Parcels: parcels, Verifications: verifications,
			Regions: ledger.NewRegionRepository(db), Metrics: col,
			Policy: ucverification.Policy{Admins: admins},
		}), nil),
		Loans: NewLoanHandler(loan.NewUsecase(loan.Deps{
			UoW: uow, Parcels: parcels, Verifications: verifications,
			Loans: ledger.NewLoanRepository(db), Oracle: rate, Metrics: col,
			Policy: loan.Policy{Tiers: tiers},
		}), nil),
		Oracle:  NewOracleHandler(oracle.NewUsecase(oracle.Deps{Oracle: rate, Admins: admins}), nil),
		Metrics: col.Handler(),
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.Use(middleware.Identity())
	Register(e.Group(""), h)
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, caller string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if caller != "" {
		req.Header.Set(middleware.HeaderAccountID, caller)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func square(lat, lon, size float64) []map[string]float64 {
	return []map[string]float64{
		{"lat": lat, "lon": lon},
		{"lat": lat, "lon": lon + size},
		{"lat": lat + size, "lon": lon + size},
		{"lat": lat + size, "lon": lon},
	}
}

func TestAPI_ParcelToRepaidLoan(t *testing.T) {
	e := newAPI(t)

	rec, body := call(t, e, stdhttp.MethodPost, "/parcels", owner, map[string]any{
		"region": "region x", "boundary": square(0, 0, 1), "metadata_ref": "ipfs://deed",
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	parcelID := body["parcel_id"].(string)
	assert.Equal(t, "REGION_X", body["region"])

	rec, body = call(t, e, stdhttp.MethodPost, "/parcels", stranger, map[string]any{
		"region": "REGION_X", "boundary": square(0.5, 0.5, 1),
	})
	assert.Equal(t, stdhttp.StatusConflict, rec.Code)
	assert.Equal(t, "conflicting_parcel", body["code"])
	assert.Equal(t, parcelID, body["ref"])

	rec, _ = call(t, e, stdhttp.MethodPut, "/regions/REGION_X/verifier", stranger, map[string]any{"verifier": verifier})
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
	rec, body = call(t, e, stdhttp.MethodPut, "/regions/REGION_X/verifier", admin, map[string]any{"verifier": verifier})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, verifier, body["verifier"])

	rec, _ = call(t, e, stdhttp.MethodPost, "/parcels/"+parcelID+"/verification", owner, nil)
	require.Equal(t, stdhttp.StatusAccepted, rec.Code, rec.Body.String())
	rec, _ = call(t, e, stdhttp.MethodPost, "/parcels/"+parcelID+"/verification/approve", stranger, map[string]any{"appraised_value": 1000})
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
	rec, body = call(t, e, stdhttp.MethodPost, "/parcels/"+parcelID+"/verification/approve", verifier, map[string]any{"appraised_value": 1000})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "verified", body["state"])

	rec, body = call(t, e, stdhttp.MethodGet, "/parcels/"+parcelID+"/loan/quote", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.EqualValues(t, 500, body["max_principal"])

	rec, body = call(t, e, stdhttp.MethodPost, "/parcels/"+parcelID+"/loan", owner, map[string]any{"principal": 600, "period_seconds": 86400})
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "exceeds_collateral_value", body["code"])
	rec, body = call(t, e, stdhttp.MethodPost, "/parcels/"+parcelID+"/loan", owner, map[string]any{"principal": 100, "period_seconds": 86400})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 150, body["amount_owed"])

	rec, body = call(t, e, stdhttp.MethodPost, "/parcels/"+parcelID+"/loan/repay", owner, map[string]any{"amount": 100, "currency": "collateral"})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 100, body["loan"].(map[string]any)["amount_owed"])

	rec, body = call(t, e, stdhttp.MethodPost, "/parcels/"+parcelID+"/loan/repay", owner, map[string]any{"amount": 100})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "repaid", body["loan"].(map[string]any)["state"])

	rec, body = call(t, e, stdhttp.MethodGet, "/parcels/"+parcelID+"/loan", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Len(t, body["repayments"], 2)

	rec, body = call(t, e, stdhttp.MethodGet, "/parcels/"+parcelID+"/loans", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Len(t, body["loans"], 1)

	rec, body = call(t, e, stdhttp.MethodPost, "/parcels/"+parcelID+"/loan/check-default", owner, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "repaid", body["state"])
	assert.Equal(t, false, body["transitioned"])

	rec, _ = call(t, e, stdhttp.MethodGet, "/metrics", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "landq_parcels_registered_total 1")
}

func TestAPI_ErrorShapes(t *testing.T) {
	e := newAPI(t)

	rec, body := call(t, e, stdhttp.MethodPost, "/parcels", owner, `{"region":`)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_body", body["code"])

	rec, body = call(t, e, stdhttp.MethodPost, "/parcels", owner, map[string]any{"region": "R1"})
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_failed", body["code"])
	assert.NotEmpty(t, body["details"])

	rec, body = call(t, e, stdhttp.MethodPost, "/parcels", owner, map[string]any{
		"region": "R1", "boundary": []map[string]float64{{"lat": 0, "lon": 0}, {"lat": 1, "lon": 1}, {"lat": 0, "lon": 1}, {"lat": 1, "lon": 0}},
	})
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_geometry", body["code"])

	rec, body = call(t, e, stdhttp.MethodGet, "/parcels/ffffffffffffffffffffffffffffffff", "", nil)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Equal(t, "parcel_not_found", body["code"])

	rec, _ = call(t, e, stdhttp.MethodGet, "/parcels", "not-an-account", nil)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	rec, body = call(t, e, stdhttp.MethodPut, "/oracle/rate", admin, map[string]any{"numerator": 7})
	assert.Equal(t, stdhttp.StatusConflict, rec.Code)
	assert.Equal(t, "oracle_read_only", body["code"])

	rec, body = call(t, e, stdhttp.MethodGet, "/oracle/rate", "", nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.EqualValues(t, 50_000_000, body["numerator"])

	rec, body = call(t, e, stdhttp.MethodGet, "/loan-tiers", "", nil)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Len(t, body["tiers"], 3)
}

func TestAPI_RegisterFromGeoJSON(t *testing.T) {
	e := newAPI(t)

	rec, body := call(t, e, stdhttp.MethodPost, "/parcels", owner, map[string]any{
		"region":  "R1",
		"geojson": json.RawMessage(`{"type":"Polygon","coordinates":[[[10,10],[11,10],[11,11],[10,11],[10,10]]]}`),
	})
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, body["boundary"], 4)
	assert.Contains(t, body["boundary_wkt"], "POLYGON")

	rec, body = call(t, e, stdhttp.MethodGet, "/accounts/"+owner+"/parcels", "", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Len(t, body["parcels"], 1)
}

func TestAPI_RegisterRejectsUnrepresentableBoundaries(t *testing.T) {
	e := newAPI(t)

	cases := map[string]map[string]any{
		"geojson with hole": {
			"region":  "R1",
			"geojson": json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]],[[1,1],[2,1],[2,2],[1,2],[1,1]]]}`),
		},
		"geojson closed triangle": {
			"region":  "R1",
			"geojson": json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`),
		},
		"point list closed triangle": {
			"region":   "R1",
			"boundary": []map[string]float64{{"lat": 0, "lon": 0}, {"lat": 0, "lon": 1}, {"lat": 1, "lon": 1}, {"lat": 0, "lon": 0}},
		},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			rec, body := call(t, e, stdhttp.MethodPost, "/parcels", owner, req)
			assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.Equal(t, "invalid_geometry", body["code"])
		})
	}

	// nothing was stored, so land inside the would-be hole is still free
	rec, _ := call(t, e, stdhttp.MethodPost, "/parcels", owner, map[string]any{"region": "R1", "boundary": square(1, 1, 1)})
	assert.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
}
