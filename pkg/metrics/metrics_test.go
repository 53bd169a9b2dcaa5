package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestCollectorsIncrement(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("metrics_test", "200"))
	RequestsTotal.WithLabelValues("metrics_test", "200").Inc()
	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("metrics_test", "200"))

	if after-before != 1 {
		t.Errorf("RequestsTotal delta = %v, want 1", after-before)
	}
}

func TestCollectorsLint(t *testing.T) {
	collectors := map[string]prometheus.Collector{
		"RequestsTotal":       RequestsTotal,
		"RequestDuration":     RequestDuration,
		"DataRetrievalErrors": DataRetrievalErrors,
		"TransportErrors":     TransportErrors,
		"PagesFetched":        PagesFetched,
		"StaleCursors":        StaleCursors,
		"MissingFields":       MissingFields,
	}

	for name, c := range collectors {
		problems, err := testutil.CollectAndLint(c)
		if err != nil {
			t.Fatalf("%s: lint failed: %v", name, err)
		}
		for _, p := range problems {
			t.Errorf("%s: %s: %s", name, p.Metric, p.Text)
		}
	}
}
