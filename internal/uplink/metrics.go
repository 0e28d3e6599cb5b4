package uplink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	urc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uplink_record_count",
		Help: "The number of handled uplink records (per record type).",
	}, []string{"type"})
	urce = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uplink_record_error_count",
		Help: "The number of uplink records that failed to be processed.",
	})
)

func uplinkRecordCounter(t string) prometheus.Counter {
	return urc.With(prometheus.Labels{"type": t})
}

func uplinkRecordErrorCount() prometheus.Counter {
	return urce
}
