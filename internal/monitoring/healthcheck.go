package monitoring

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/lmic-node/lmic-node-formatter/internal/codec"
)

func healthCheckHandlerFunc(w http.ResponseWriter, r *http.Request) {
	d, err := codec.GetDecoder(codec.DefaultDecoderID())
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(errors.Wrap(err, "get default decoder error").Error()))
		return
	}

	// for plugin decoders this round-trips to the plugin process
	if _, err := d.ID(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(errors.Wrap(err, "decoder id error").Error()))
		return
	}

	w.WriteHeader(http.StatusOK)
}
