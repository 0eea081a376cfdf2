// Package metrics exposes Prometheus counters for ledger and sync activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder counts ledger mutations and sync outcomes. A nil Recorder is a no-op.
type Recorder struct {
	mutations *prometheus.CounterVec
	syncs     *prometheus.CounterVec
}

// New registers the pantry metrics on reg.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		return &Recorder{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pantry_ledger_mutations_total",
		Help: "Ledger mutations by kind and result.",
	}, []string{"kind", "result"})
	syncs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pantry_sync_operations_total",
		Help: "Cloud sync operations by direction and result.",
	}, []string{"direction", "result"})
	reg.MustRegister(mutations, syncs)
	return &Recorder{mutations: mutations, syncs: syncs}
}

// Mutation records one ledger mutation attempt.
func (r *Recorder) Mutation(kind string, err error) {
	if r == nil || r.mutations == nil {
		return
	}
	r.mutations.WithLabelValues(normalizeLabel(kind), result(err)).Inc()
}

// Sync records one push or pull attempt.
func (r *Recorder) Sync(direction string, err error) {
	if r == nil || r.syncs == nil {
		return
	}
	r.syncs.WithLabelValues(normalizeLabel(direction), result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
