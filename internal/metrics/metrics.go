// Package metrics holds the Prometheus counters for task mutations, calendar
// mirroring and maintenance passes.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Calendar operation results.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultDropped = "dropped"
	ResultSkipped = "skipped"
)

// Metrics is a set of counters registered on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	TaskMutations      *prometheus.CounterVec
	CalendarOperations *prometheus.CounterVec
	OverdueUpdates     prometheus.Counter
	PrunedTasks        prometheus.Counter
}

// New creates and registers the counters. Go runtime and process collectors
// are included so the endpoint is useful on its own.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		TaskMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "myday_task_mutations_total",
			Help: "Task writes by operation.",
		}, []string{"op"}),
		CalendarOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "myday_calendar_operations_total",
			Help: "Calendar mirror operations by operation and result.",
		}, []string{"op", "result"}),
		OverdueUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "myday_overdue_updates_total",
			Help: "Overdue flags changed by reconciliation.",
		}),
		PrunedTasks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "myday_pruned_tasks_total",
			Help: "Tasks removed by the retention prune.",
		}),
	}
	reg.MustRegister(
		m.TaskMutations,
		m.CalendarOperations,
		m.OverdueUpdates,
		m.PrunedTasks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Mutation counts one task write. Safe on a nil receiver.
func (m *Metrics) Mutation(op string) {
	if m == nil {
		return
	}
	m.TaskMutations.WithLabelValues(op).Inc()
}

// Calendar counts one mirror operation. Safe on a nil receiver.
func (m *Metrics) Calendar(op, result string) {
	if m == nil {
		return
	}
	m.CalendarOperations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Overdue(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OverdueUpdates.Add(float64(n))
}

func (m *Metrics) Pruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PrunedTasks.Add(float64(n))
}

const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Handler exposes /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (m *Metrics) Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting metrics server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down metrics server")
		return srv.Shutdown(shutdownCtx)
	}
}
