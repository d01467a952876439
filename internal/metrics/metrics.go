// Package metrics exposes extrinsic submission counters for prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-subxt/internal/messages"
)

const (
	StrategySubmit = "submit"
	StrategyWatch  = "watch"

	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics is nil safe: a nil *Metrics records nothing.
type Metrics struct {
	submissions *prometheus.CounterVec
	nonce       *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "subxt_extrinsic_submissions_total",
			Help: "Extrinsic submissions by confirmation strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		nonce: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "subxt_builder_nonce",
			Help: "Next nonce held by the extrinsic builder of an account.",
		}, []string{"account"}),
	}
	for _, c := range []prometheus.Collector{m.submissions, m.nonce} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveSubmission(strategy, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) SetNonce(account string, nonce uint32) {
	if m == nil {
		return
	}
	m.nonce.WithLabelValues(account).Set(float64(nonce))
}

// Serve exposes gatherer on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	messages.NewClientMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		messages.METRICS_LISTENING,
		addr,
	).ConsoleLog()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
