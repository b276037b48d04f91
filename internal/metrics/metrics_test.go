package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHandlerServesRegistry(t *testing.T) {
	ObserveRequest(http.MethodGet, "/api/jobs", http.StatusOK, 10*time.Millisecond)
	ApplicationEvent("applied")
	ApplicationEvents("cascaded", 2)
	OutboxDelivery("sent")
	SetOutboxPending(7)

	body := scrape(t)
	assert.Contains(t, body, `connect_jobs_http_requests_total{method="GET",route="/api/jobs",status="200"} 1`)
	assert.Contains(t, body, `connect_jobs_applications_events_total{event="cascaded"} 2`)
	assert.Contains(t, body, `connect_jobs_outbox_deliveries_total{result="sent"} 1`)
	assert.Contains(t, body, "connect_jobs_outbox_pending_messages 7")
}

func TestUnmatchedRouteLabel(t *testing.T) {
	ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)
	assert.Contains(t, scrape(t), `route="unmatched",status="404"`)
}
