package adapter

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "billfold",
	Subsystem: "adapter",
	Name:      "operations_total",
	Help:      "Adapter operations by model, operation and outcome.",
}, []string{"model", "op", "outcome"})

func observe(model, op string, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	opsTotal.WithLabelValues(model, op, outcome).Inc()
}
