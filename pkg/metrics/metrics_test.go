package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncHours("completed")
	m.IncHours("completed")
	m.IncHours("skipped")
	m.IncDownloadFailures()
	m.AddRows("loaded", 40)

	if got := testutil.ToFloat64(m.HoursTotal.WithLabelValues("completed")); got != 2 {
		t.Errorf("completed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.HoursTotal.WithLabelValues("skipped")); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DownloadFailures); got != 1 {
		t.Errorf("download failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RowsTotal.WithLabelValues("loaded")); got != 40 {
		t.Errorf("loaded rows = %v, want 40", got)
	}
}

func TestTimerObserves(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	stop := m.Timer("download")
	stop()

	if n := testutil.CollectAndCount(m.StageDuration); n != 1 {
		t.Errorf("stage duration series = %d, want 1", n)
	}
}

func TestPush(t *testing.T) {
	var gotPath string
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := New(reg)
	m.IncHours("completed")

	if err := Push(context.Background(), srv.URL, "pageviews", "run-1", reg); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if !strings.Contains(gotPath, "/job/pageviews") || !strings.Contains(gotPath, "/run_id/run-1") {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody == "" {
		t.Error("empty push body")
	}
}
