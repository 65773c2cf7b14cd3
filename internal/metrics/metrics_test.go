package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	c := httpRequests.WithLabelValues("GET", "GET /test", "404")
	before := testutil.ToFloat64(c)

	ObserveRequest("GET", "GET /test", http.StatusNotFound, 3*time.Millisecond)

	assert.InDelta(t, before+1, testutil.ToFloat64(c), 0)
}

func TestHandler(t *testing.T) {
	CollectorCycles.WithLabelValues("stored").Add(0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "bazaar_history_collector_cycles_total"))
	assert.True(t, strings.Contains(body, "bazaar_history_collector_cycle_duration_seconds"))
}
