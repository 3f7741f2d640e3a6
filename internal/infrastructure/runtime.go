package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// registerRuntimeMetrics adds process gauges that are sampled whenever the
// registry is gathered, so a metrics file written at exit carries the final
// goroutine count, heap size and run duration.
func registerRuntimeMetrics(meter metric.Meter, start time.Time) error {
	goroutines, err := meter.Int64ObservableGauge(
		"otter_runtime_goroutines",
		metric.WithDescription("Live goroutines"),
	)
	if err != nil {
		return err
	}

	heap, err := meter.Int64ObservableGauge(
		"otter_runtime_heap_alloc",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	gcRuns, err := meter.Int64ObservableCounter(
		"otter_runtime_gc_runs",
		metric.WithDescription("Completed GC cycles"),
	)
	if err != nil {
		return err
	}

	uptime, err := meter.Float64ObservableGauge(
		"otter_process_uptime",
		metric.WithDescription("Seconds since the process started"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		o.ObserveInt64(goroutines, int64(runtime.NumGoroutine()))
		o.ObserveInt64(heap, int64(mem.HeapAlloc))
		o.ObserveInt64(gcRuns, int64(mem.NumGC))
		o.ObserveFloat64(uptime, time.Since(start).Seconds())
		return nil
	}, goroutines, heap, gcRuns, uptime)
	return err
}
