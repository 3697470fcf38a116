package taxrate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "autorent",
	Subsystem: "taxrate",
	Name:      "refresh_total",
	Help:      "Tax-rate refreshes by outcome (api or fallback).",
}, []string{"source"})

var lookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "autorent",
	Subsystem: "taxrate",
	Name:      "lookup_total",
	Help:      "Tax-rate lookups by where the rate came from.",
}, []string{"from"})
