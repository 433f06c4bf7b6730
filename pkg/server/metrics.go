package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is pure observability: it adds no game logic and is exposed over
// net/http via promhttp.HandlerFor on a private registry.
type Metrics struct {
	PlayersOnline prometheus.Gauge
	TicksTotal    prometheus.Counter
	TickDuration  prometheus.Histogram
	Evictions     *prometheus.CounterVec
}

// NewMetrics registers the limbo_* series against reg and returns the
// handles the tick loop and acceptor update.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		PlayersOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "limbo_players_online",
			Help: "Number of connections currently past the Play handshake.",
		}),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "limbo_ticks_total",
			Help: "Total number of server ticks run.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "limbo_tick_duration_seconds",
			Help:    "Wall-clock duration of one tick's per-player bookkeeping.",
			Buckets: prometheus.DefBuckets,
		}),
		Evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "limbo_evictions_total",
			Help: "Connections removed from the live map, labeled by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.PlayersOnline, m.TicksTotal, m.TickDuration, m.Evictions)
	return m
}

// ServeMetrics blocks serving reg's metrics on addr until ctx is canceled.
// An empty addr disables the metrics server entirely.
func ServeMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	if addr == "" {
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		_ = srv.Close()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
