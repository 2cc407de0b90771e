package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveMessage("rest")
	m.ObserveMessage("realtime")
	m.ObserveMessage("realtime")
	m.ObserveEvent("send-message", "ok")
	m.ObserveProposal("submitted")
	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesSent.WithLabelValues("realtime")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesSent.WithLabelValues("rest")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RealtimeEvents.WithLabelValues("send-message", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProposalOutcomes.WithLabelValues("submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveMessage("rest")
		m.ObserveEvent("join-task-room", "ok")
		m.ObserveProposal("accepted")
		m.ConnectionOpened()
		m.ConnectionClosed()
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveMessage("rest")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `taskswap_messages_sent_total{path="rest"} 1`)
}
