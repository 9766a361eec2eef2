// Package metrics exposes prometheus collectors for the intake store and the
// reminder backend. A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hydrate"

type Metrics struct {
	registry       *prometheus.Registry
	persistWrites  *prometheus.CounterVec
	cancelFailures prometheus.Counter
	remindersFired *prometheus.CounterVec
	logsAdded      prometheus.Counter
	intakeMl       prometheus.Counter
	todayTotal     prometheus.Gauge
	dailyTarget    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		persistWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_writes_total",
			Help:      "Snapshot writes to durable storage by key and result.",
		}, []string{"key", "result"}),
		cancelFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_cancel_failures_total",
			Help:      "External schedule cancellations that failed and were ignored.",
		}),
		remindersFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Reminders delivered by kind.",
		}, []string{"kind"}),
		logsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_logs_added_total",
			Help:      "Intake logs recorded.",
		}),
		intakeMl: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_ml_total",
			Help:      "Millilitres recorded across all intake logs.",
		}),
		todayTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "today_total_ml",
			Help:      "Intake recorded for the current local day.",
		}),
		dailyTarget: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_target_ml",
			Help:      "Daily intake target derived from the profile.",
		}),
	}
	m.registry.MustRegister(
		m.persistWrites,
		m.cancelFailures,
		m.remindersFired,
		m.logsAdded,
		m.intakeMl,
		m.todayTotal,
		m.dailyTarget,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RegisterDropped exposes a reminder drop counter owned elsewhere.
func (m *Metrics) RegisterDropped(fn func() uint64) {
	if m == nil || fn == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_dropped_total",
		Help:      "Reminder events dropped because no consumer was ready.",
	}, func() float64 { return float64(fn()) }))
}

func (m *Metrics) ObservePersist(key string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.persistWrites.WithLabelValues(key, result).Inc()
}

func (m *Metrics) ObserveCancelFailure() {
	if m == nil {
		return
	}
	m.cancelFailures.Inc()
}

func (m *Metrics) ObserveReminderFired(kind string) {
	if m == nil {
		return
	}
	m.remindersFired.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveLogAdded(amountMl int) {
	if m == nil {
		return
	}
	m.logsAdded.Inc()
	m.intakeMl.Add(float64(amountMl))
}

func (m *Metrics) SetToday(totalMl, targetMl int) {
	if m == nil {
		return
	}
	m.todayTotal.Set(float64(totalMl))
	m.dailyTarget.Set(float64(targetMl))
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve blocks serving /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger hclog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
