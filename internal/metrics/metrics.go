// Package metrics exposes the process counters on a Prometheus endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuotesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gapwatch_quotes_dispatched_total", Help: "Quote updates dispatched to callbacks"},
		[]string{"symbol", "channel"},
	)
	FramesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "gapwatch_frames_dropped_total", Help: "Inbound frames that did not decode to a quote"},
	)
	StreamReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "gapwatch_stream_reconnects_total", Help: "Streaming channel reconnect attempts"},
	)
	PollCycles = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "gapwatch_poll_cycles_total", Help: "Completed polling passes"},
	)
	SignalsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "gapwatch_signals_total", Help: "Candidate signals generated"},
	)
	PositionsOpened = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "gapwatch_positions_opened_total", Help: "Positions opened"},
	)
	PositionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gapwatch_positions_closed_total", Help: "Positions closed"},
		[]string{"reason"},
	)
	OpenPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "gapwatch_open_positions", Help: "Currently open positions"},
	)
)

func init() {
	prometheus.MustRegister(
		QuotesDispatched,
		FramesDropped,
		StreamReconnects,
		PollCycles,
		SignalsGenerated,
		PositionsOpened,
		PositionsClosed,
		OpenPositions,
	)
}

// Serve starts the /metrics endpoint in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
