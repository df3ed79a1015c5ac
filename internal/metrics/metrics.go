package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registry = prometheus.NewRegistry()

	recordsFetched = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "marketbot_records_fetched_total",
		Help: "Records returned by a source before filtering.",
	}, []string{"source", "bot"})

	candidates = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "marketbot_candidates_total",
		Help: "Candidate records extracted from the text source.",
	}, []string{"bot"})

	cascadeResults = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "marketbot_cascade_result_total",
		Help: "Verification cascade outcomes.",
	}, []string{"bot", "result"})

	recordsPosted = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "marketbot_records_posted_total",
		Help: "New records handed to the notification sink.",
	}, []string{"bot"})

	sourceErrors = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "marketbot_source_errors_total",
		Help: "Network or non-2xx failures per external source.",
	}, []string{"source"})
)

func RecordsFetched(source, bot string, n int) {
	recordsFetched.WithLabelValues(source, bot).Add(float64(n))
}

func Candidates(bot string, n int) {
	candidates.WithLabelValues(bot).Add(float64(n))
}

func CascadeResult(bot, result string) {
	cascadeResults.WithLabelValues(bot, result).Inc()
}

func RecordsPosted(bot string, n int) {
	recordsPosted.WithLabelValues(bot).Add(float64(n))
}

func SourceError(source string) {
	sourceErrors.WithLabelValues(source).Inc()
}

// Snapshot renders current counters as one log-friendly block, emitted at
// the end of each cycle.
func Snapshot() string {
	fams, err := registry.Gather()
	if err != nil {
		return ""
	}
	var out []string
	for _, mf := range fams {
		for _, m := range mf.GetMetric() {
			var lbls []string
			for _, lp := range m.GetLabel() {
				lbls = append(lbls, fmt.Sprintf("%s=%s", lp.GetName(), lp.GetValue()))
			}
			out = append(out, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(lbls, ","), m.GetCounter().GetValue()))
		}
	}
	sort.Strings(out)
	return strings.Join(out, "\n")
}
