package abuse

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// decisions counts state machine outcomes per comment attempt.
var decisions = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "comment_captcha_decisions_total",
		Help: "Number of comment CAPTCHA decisions, differentiated by outcome.",
	},
	[]string{"outcome"},
)

func countDecision(d Decision) {
	decisions.WithLabelValues(d.String()).Inc()
}
