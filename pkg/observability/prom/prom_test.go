package prom

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEngineMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	m.OnEpoch(ctx, 1, true)
	m.OnEpoch(ctx, 2, false)
	m.OnSourceIgnored(ctx, "ghost", "tilesDrawnEnd")
	m.OnIndexRebuild(ctx, 12, time.Millisecond)
	m.OnPipelineComplete(ctx, "center", 3, time.Millisecond)
	m.OnDrawComplete(ctx, 3, 1, time.Millisecond)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"epochs", testutil.ToFloat64(m.Epochs), 2},
		{"scale changes", testutil.ToFloat64(m.ScaleChanges), 1},
		{"ignored", testutil.ToFloat64(m.IgnoredEvents.WithLabelValues("tilesDrawnEnd")), 1},
		{"index size", testutil.ToFloat64(m.IndexSize), 12},
		{"runs", testutil.ToFloat64(m.PipelineRuns.WithLabelValues("center")), 1},
		{"placed", testutil.ToFloat64(m.InsetsPlaced.WithLabelValues("center")), 3},
		{"draws ok", testutil.ToFloat64(m.DrawsTotal.WithLabelValues("ok")), 2},
		{"draws failed", testutil.ToFloat64(m.DrawsTotal.WithLabelValues("failed")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestHTTPMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	m.OnRequest(ctx, "POST", "/v1/layout")
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	m.OnResponse(ctx, "POST", "/v1/layout", 200, time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/layout", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}
