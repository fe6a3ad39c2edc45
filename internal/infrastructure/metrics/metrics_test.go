package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.ParcelRegistered()
	c.ParcelConflict()
	c.ParcelConflict()
	c.Verification("verified")
	c.LoanOriginated(86400)
	c.Repayment("collateral")
	c.LoanClosed("repaid")
	c.HTTPRequest("POST", "/parcels", 201, 0.01)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ParcelsRegistered))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ParcelConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Verifications.WithLabelValues("verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LoansOriginated.WithLabelValues("86400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Repayments.WithLabelValues("collateral")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LoansClosed.WithLabelValues("repaid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("POST", "/parcels", "201")))
}

func TestNewTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(reg)
	require.NoError(t, err)
	b, err := New(reg)
	require.NoError(t, err)

	a.ParcelRegistered()
	assert.Equal(t, 1.0, testutil.ToFloat64(b.ParcelsRegistered))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ParcelRegistered()
	c.Verification("rejected")
	c.HTTPRequest("GET", "/", 200, 0)
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)
	c.ParcelRegistered()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "landq_parcels_registered_total 1"), string(body))
}
