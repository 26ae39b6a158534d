package concurrency

import (
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fluxorio/workpool/pkg/core"
)

func TestWorker_ExitsWhenMailboxClosedAndDrained(t *testing.T) {
	queue := NewUnboundedMailbox[envelope]()
	env := &workerEnv{
		logger:   core.NewNopLogger(),
		observer: NopObserver{},
		tracer:   sdktrace.NewTracerProvider().Tracer("test"),
	}

	ran := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		queue.Send(newEnvelope("", func() { ran <- i }))
	}

	w := newWorker(7, queue, env)
	if w.ID() != 7 {
		t.Errorf("ID() = %d, want 7", w.ID())
	}

	select {
	case <-w.Done():
		t.Fatal("worker exited while the mailbox was open")
	case <-time.After(20 * time.Millisecond):
	}

	queue.Close()
	w.Join()

	if len(ran) != 3 {
		t.Fatalf("worker ran %d tasks before exiting, want 3", len(ran))
	}
	for want := 0; want < 3; want++ {
		if got := <-ran; got != want {
			t.Errorf("task order: got %d, want %d", got, want)
		}
	}
	if env.live.Load() != 0 || env.completed.Load() != 3 {
		t.Errorf("live=%d completed=%d, want 0/3", env.live.Load(), env.completed.Load())
	}
}

func TestWorker_TracesTasks(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	pool := newTestPool(t, 1, WithName("traced"), WithTracerProvider(tp))
	pool.SubmitNamed("ok", func() {})
	pool.SubmitNamed("bad", func() { panic("boom") })
	pool.Close()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}

	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range spans {
		if s.Name() != taskSpanName {
			t.Errorf("span name = %q, want %q", s.Name(), taskSpanName)
		}
		for _, kv := range s.Attributes() {
			if kv.Key == "workpool.task.name" {
				byName[kv.Value.AsString()] = s
			}
		}
	}

	ok, bad := byName["ok"], byName["bad"]
	if ok == nil || bad == nil {
		t.Fatalf("missing spans by task name: %v", byName)
	}
	if ok.Status().Code == codes.Error {
		t.Error("successful task span should not carry an error status")
	}
	if bad.Status().Code != codes.Error {
		t.Errorf("panicking task span status = %v, want Error", bad.Status().Code)
	}
	if len(bad.Events()) == 0 || bad.Events()[0].Name != "exception" {
		t.Error("panicking task span should record an exception event")
	}

	wantPool := attribute.String("workpool.pool", "traced")
	found := false
	for _, kv := range ok.Attributes() {
		if kv == wantPool {
			found = true
		}
	}
	if !found {
		t.Errorf("span attributes %v missing %v", ok.Attributes(), wantPool)
	}
}
