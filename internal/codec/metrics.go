package codec

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codec_decode_count",
		Help: "The number of decoded uplinks (per codec).",
	}, []string{"codec"})

	wc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codec_decode_warning_count",
		Help: "The number of warnings returned by the decoder (per codec).",
	}, []string{"codec"})

	ec = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codec_decode_error_count",
		Help: "The number of failed decoder invocations (per codec).",
	}, []string{"codec"})

	dt = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "codec_decode_duration_seconds",
		Help: "The duration of decoding an uplink (per codec).",
	}, []string{"codec"})
)

func decodeCounter(codec string) prometheus.Counter {
	return dc.With(prometheus.Labels{"codec": codec})
}

func warningCounter(codec string) prometheus.Counter {
	return wc.With(prometheus.Labels{"codec": codec})
}

func errorCounter(codec string) prometheus.Counter {
	return ec.With(prometheus.Labels{"codec": codec})
}

func decodeTimer(codec string) prometheus.Observer {
	return dt.With(prometheus.Labels{"codec": codec})
}
