package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-chat-analyzer/internal/domain"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func counterValue(t *testing.T, families map[string]*dto.MetricFamily, name string) float64 {
	t.Helper()
	mf, ok := families[name]
	require.True(t, ok, "метрика %s не найдена", name)
	require.Len(t, mf.GetMetric(), 1)
	return mf.GetMetric()[0].GetCounter().GetValue()
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordParse(domain.ParseStats{DroppedLines: 2, SystemMessages: 3, DateFallbacks: 1}, 10)
	c.RecordParse(domain.ParseStats{DroppedLines: 1}, 5)
	c.RecordTask("completed")
	c.RecordTask("completed")
	c.RecordTask("failed")
	c.RecordAnalysis(150*time.Millisecond, true)
	c.RecordAnalysis(10*time.Millisecond, false)
	c.RecordCacheHit()

	families := gather(t, reg)
	assert.Equal(t, 15.0, counterValue(t, families, "chat_analyzer_messages_parsed_total"))
	assert.Equal(t, 3.0, counterValue(t, families, "chat_analyzer_lines_dropped_total"))
	assert.Equal(t, 3.0, counterValue(t, families, "chat_analyzer_system_messages_total"))
	assert.Equal(t, 1.0, counterValue(t, families, "chat_analyzer_date_fallbacks_total"))
	assert.Equal(t, 1.0, counterValue(t, families, "chat_analyzer_no_data_total"))
	assert.Equal(t, 1.0, counterValue(t, families, "chat_analyzer_cache_hits_total"))

	tasks := families["chat_analyzer_tasks_total"]
	require.NotNil(t, tasks)
	byStatus := map[string]float64{}
	for _, m := range tasks.GetMetric() {
		byStatus[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"completed": 2, "failed": 1}, byStatus)

	hist := families["chat_analyzer_analysis_duration_seconds"]
	require.NotNil(t, hist)
	assert.Equal(t, uint64(2), hist.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg).RecordCacheHit()

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "chat_analyzer_cache_hits_total 1")
}

func TestNopCollector(t *testing.T) {
	var c MetricsCollector = NopCollector{}
	assert.NotPanics(t, func() {
		c.RecordParse(domain.ParseStats{}, 1)
		c.RecordTask("completed")
		c.RecordAnalysis(time.Second, false)
		c.RecordCacheHit()
	})
}
