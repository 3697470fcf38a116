package pricing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var quotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "autorent",
	Subsystem: "pricing",
	Name:      "quotes_total",
	Help:      "Quotes priced by service type.",
}, []string{"service_type"})

var discountWinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "autorent",
	Subsystem: "pricing",
	Name:      "specific_discount_wins_total",
	Help:      "Which specific discount won each quote.",
}, []string{"label"})
