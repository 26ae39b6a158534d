package prometheus_test

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/fluxorio/workpool/pkg/core"
	"github.com/fluxorio/workpool/pkg/core/concurrency"
	"github.com/fluxorio/workpool/pkg/observability/prometheus"
)

func runInstrumentedPool(t *testing.T, reg promclient.Registerer) *prometheus.PoolMetrics {
	t.Helper()
	metrics, err := prometheus.NewPoolMetrics(reg, "", "thumbs")
	if err != nil {
		t.Fatalf("NewPoolMetrics() error = %v", err)
	}

	pool := concurrency.NewWorkerPool(2,
		concurrency.WithName("thumbs"),
		concurrency.WithLogger(core.NewNopLogger()),
		concurrency.WithObserver(metrics),
	)
	if got := testutil.ToFloat64(metrics.LiveWorkers); got != 2 {
		t.Errorf("workers_live = %v after start, want 2", got)
	}

	for i := 0; i < 5; i++ {
		pool.SubmitNamed("resize", func() {})
	}
	pool.SubmitNamed("crash", func() { panic("bad image") })
	pool.Close()
	if err := pool.TrySubmit(func() {}); err == nil {
		t.Error("TrySubmit() after Close should fail")
	}
	return metrics
}

func TestPoolMetrics_RecordsLifecycle(t *testing.T) {
	reg := promclient.NewRegistry()
	metrics := runInstrumentedPool(t, reg)

	if got := testutil.ToFloat64(metrics.TasksSubmitted.WithLabelValues("resize")); got != 5 {
		t.Errorf("tasks_submitted_total{task=resize} = %v, want 5", got)
	}
	if got := testutil.ToFloat64(metrics.TasksRejected.WithLabelValues("task")); got != 1 {
		t.Errorf("tasks_rejected_total{task=task} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.TasksCompleted.WithLabelValues("resize")); got != 5 {
		t.Errorf("tasks_completed_total{task=resize} = %v, want 5", got)
	}
	if got := testutil.ToFloat64(metrics.TasksPanicked.WithLabelValues("crash")); got != 1 {
		t.Errorf("tasks_panicked_total{task=crash} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.TasksQueued); got != 0 {
		t.Errorf("tasks_queued = %v after Close, want 0", got)
	}
	if got := testutil.ToFloat64(metrics.LiveWorkers); got != 0 {
		t.Errorf("workers_live = %v after Close, want 0", got)
	}
	if got := testutil.CollectAndCount(metrics.WorkerExits); got != 2 {
		t.Errorf("worker_exits_total series = %d, want 2", got)
	}
	if got := testutil.CollectAndCount(metrics.QueueWait); got != 1 {
		t.Errorf("task_queue_wait_seconds series = %d, want 1", got)
	}
}

func TestPoolMetrics_SharedRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	if _, err := prometheus.NewPoolMetrics(reg, "jobs", "a"); err != nil {
		t.Fatalf("NewPoolMetrics(a) error = %v", err)
	}
	// A second pool with a different name must not collide
	if _, err := prometheus.NewPoolMetrics(reg, "jobs", "b"); err != nil {
		t.Fatalf("NewPoolMetrics(b) error = %v", err)
	}

	_, err := prometheus.NewPoolMetrics(reg, "jobs", "a")
	var already promclient.AlreadyRegisteredError
	if !errors.As(err, &already) {
		t.Fatalf("duplicate pool error = %v, want AlreadyRegisteredError", err)
	}
	if n, err := testutil.GatherAndCount(reg, "jobs_workers_live"); err != nil || n != 2 {
		t.Errorf("GatherAndCount(jobs_workers_live) = %d, %v, want one series per pool", n, err)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := promclient.NewRegistry()
	runInstrumentedPool(t, reg)

	rec := httptest.NewRecorder()
	prometheus.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := `workpool_tasks_completed_total{pool="thumbs",task="resize"} 5`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("body missing %q:\n%s", want, rec.Body.String())
	}
}

func TestFastHTTPHandler_ServesMetrics(t *testing.T) {
	reg := promclient.NewRegistry()
	runInstrumentedPool(t, reg)

	ln := fasthttputil.NewInmemoryListener()
	defer ln.Close()

	go func() {
		srv := &fasthttp.Server{Handler: prometheus.FastHTTPHandler(reg)}
		_ = srv.Serve(ln)
	}()

	client := &http.Client{
		Transport: &http.Transport{
			Dial: func(network, addr string) (net.Conn, error) {
				return ln.Dial()
			},
		},
	}

	resp, err := client.Get("http://test/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	want := `workpool_tasks_panicked_total{pool="thumbs",task="crash"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("body missing %q:\n%s", want, body)
	}
}
