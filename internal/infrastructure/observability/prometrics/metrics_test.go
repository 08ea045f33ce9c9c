package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CounterIsRegisteredOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New("notafiscal", "", reg)

	first := r.Counter("usecase_requests_total", "help", "use_case", "outcome")
	second := r.Counter("usecase_requests_total", "help", "use_case", "outcome")

	first.Add(1, observability.L("use_case", "cart.add"), observability.L("outcome", "success"))
	second.Bind(observability.L("use_case", "cart.add"), observability.L("outcome", "success")).Add(2)

	count, err := testutil.GatherAndCount(reg, "notafiscal_usecase_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	v, ok := r.(*registry).counters.Load("usecase_requests_total")
	require.True(t, ok)
	assert.Equal(t, 3.0, testutil.ToFloat64(v.(*prometheus.CounterVec).WithLabelValues("cart.add", "success")))
}

func TestStandard_RegistersEveryKey(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := Standard(New("notafiscal", "", reg))

	for _, key := range []observability.MetricKey{
		observability.MUsecaseRequests,
		observability.MExternalRequests,
		observability.MHTTPRequests,
		observability.MNotifications,
	} {
		assert.Contains(t, counters, key)
	}
	for _, key := range []observability.MetricKey{
		observability.MUsecaseDuration,
		observability.MExternalRequestDuration,
		observability.MHTTPRequestDuration,
	} {
		assert.Contains(t, histograms, key)
	}
}
