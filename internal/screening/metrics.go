package screening

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/cod-risk/internal/risk"
)

var (
	assessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codrisk",
		Name:      "risk_assessments_total",
		Help:      "Total number of orders screened, by risk level",
	}, []string{"level"})

	signalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codrisk",
		Name:      "risk_signals_total",
		Help:      "Total number of fraud signals fired, by signal",
	}, []string{"signal"})

	reviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codrisk",
		Name:      "risk_reviews_total",
		Help:      "Total number of operator decisions, by decision",
	}, []string{"decision"})

	riskScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "codrisk",
		Name:      "risk_score",
		Help:      "Distribution of risk scores for screened orders",
		Buckets:   []float64{0, 10, 20, 30, 40, 55, 70, 90, 125},
	})
)

func recordAssessment(analysis *risk.FraudAnalysis) {
	assessmentsTotal.WithLabelValues(string(analysis.Level)).Inc()
	riskScore.Observe(float64(analysis.Score))
	for _, s := range analysis.Signals {
		signalsTotal.WithLabelValues(s.ID).Inc()
	}
}

func recordReview(decision ReviewDecision) {
	reviewsTotal.WithLabelValues(string(decision)).Inc()
}
