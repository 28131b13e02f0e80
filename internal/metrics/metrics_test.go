package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ChoreLogged(KindCatalog)
	m.GroupJoined(OutcomeJoined)
	m.RateLimited("sign_in")
	m.ObserveRequest("GET /health", "GET", "200", time.Millisecond)
}

func TestCounters(t *testing.T) {
	m := New()
	m.ChoreLogged(KindCatalog)
	m.ChoreLogged(KindCatalog)
	m.ChoreLogged(KindFreeform)
	m.GroupJoined(OutcomeAlreadyMember)
	m.RateLimited("share_code")

	if got := testutil.ToFloat64(m.choreLogs.WithLabelValues(KindCatalog)); got != 2 {
		t.Errorf("catalog logs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.choreLogs.WithLabelValues(KindFreeform)); got != 1 {
		t.Errorf("freeform logs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.groupJoins.WithLabelValues(OutcomeAlreadyMember)); got != 1 {
		t.Errorf("already-member joins = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.rateLimited.WithLabelValues("share_code")); got != 1 {
		t.Errorf("rate limited = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("GET /health", "GET", "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "choretally_http_requests_total") {
		t.Error("expected request counter in output")
	}
}
