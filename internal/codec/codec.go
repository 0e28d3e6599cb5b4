// Package codec holds the uplink decoders and dispatches decode requests to
// them.
package codec

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lmic-node/lmic-node-formatter/formatter"
	"github.com/lmic-node/lmic-node-formatter/internal/config"
	"github.com/lmic-node/lmic-node-formatter/internal/logging"
)

// ErrDecoderNotFound is returned when the requested decoder does not exist.
var ErrDecoderNotFound = errors.New("decoder does not exist")

var (
	mu             sync.RWMutex
	decoders       map[string]formatter.Decoder
	plugins        []*pluginDecoder
	defaultDecoder string
)

// Setup configures the codec package. On error, no plugin started by Setup
// keeps running and only the built-in decoder remains available.
func Setup(c config.Config) error {
	log.Info("codec: setting up decoders")

	if err := Stop(); err != nil {
		return err
	}

	ds, ps, err := loadDecoders(c)
	if err != nil {
		for _, p := range ps {
			p.Close()
		}
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	decoders = ds
	plugins = ps
	defaultDecoder = c.Codec.Default
	if defaultDecoder == "" {
		defaultDecoder = LMICNodeDecoderID
	}

	return nil
}

// loadDecoders returns the decoders for the given configuration together
// with the started plugins, also when an error is returned.
func loadDecoders(c config.Config) (map[string]formatter.Decoder, []*pluginDecoder, error) {
	var ps []*pluginDecoder
	ds := map[string]formatter.Decoder{
		LMICNodeDecoderID: &LMICNodeDecoder{},
	}

	for _, path := range c.Codec.Plugins {
		log.WithField("plugin", path).Info("codec: loading decoder plugin")

		p, err := newPluginDecoder(path)
		if err != nil {
			return nil, ps, errors.Wrapf(err, "load decoder plugin error, plugin: %s", path)
		}
		ps = append(ps, p)

		id, err := p.ID()
		if err != nil {
			return nil, ps, errors.Wrap(err, "get decoder id error")
		}

		name, err := p.Name()
		if err != nil {
			return nil, ps, errors.Wrap(err, "get decoder name error")
		}

		if _, ok := ds[id]; ok {
			return nil, ps, errors.Errorf("decoder id %s is already registered", id)
		}
		ds[id] = p

		log.WithFields(log.Fields{
			"id":   id,
			"name": name,
		}).Info("codec: decoder plugin loaded")
	}

	defaultID := c.Codec.Default
	if defaultID == "" {
		defaultID = LMICNodeDecoderID
	}
	if _, ok := ds[defaultID]; !ok {
		return nil, ps, errors.Wrapf(ErrDecoderNotFound, "default decoder %s", defaultID)
	}

	return ds, ps, nil
}

// Stop kills the loaded decoder plugins. Afterwards only the built-in
// decoder is available.
func Stop() error {
	mu.Lock()
	defer mu.Unlock()

	for _, p := range plugins {
		p.Close()
	}
	plugins = nil
	decoders = nil
	defaultDecoder = ""

	return nil
}

// DefaultDecoderID returns the ID of the default decoder.
func DefaultDecoderID() string {
	mu.RLock()
	defer mu.RUnlock()

	if defaultDecoder == "" {
		return LMICNodeDecoderID
	}
	return defaultDecoder
}

// GetDecoder returns the decoder for the given ID.
func GetDecoder(id string) (formatter.Decoder, error) {
	mu.RLock()
	defer mu.RUnlock()

	// the built-in decoder is always available, also before Setup
	if decoders == nil && id == LMICNodeDecoderID {
		return &LMICNodeDecoder{}, nil
	}

	d, ok := decoders[id]
	if !ok {
		return nil, ErrDecoderNotFound
	}
	return d, nil
}

// Decode decodes the given uplink using the decoder with the given ID. When
// the ID is empty, the default decoder is used.
func Decode(ctx context.Context, id string, in formatter.UplinkInput) (formatter.UplinkOutput, error) {
	if id == "" {
		id = DefaultDecoderID()
	}

	d, err := GetDecoder(id)
	if err != nil {
		return formatter.UplinkOutput{}, errors.Wrapf(err, "get decoder error, codec: %s", id)
	}

	ctx, err = logging.WithContextID(ctx)
	if err != nil {
		return formatter.UplinkOutput{}, err
	}

	fields := log.Fields{
		"codec":  id,
		"f_port": in.FPort,
		"size":   len(in.Bytes),
	}
	if in.DevEUI != nil {
		fields["dev_eui"] = in.DevEUI
	}
	logger := logging.Entry(ctx).WithFields(fields)

	start := time.Now()
	out, err := d.DecodeUplink(in)
	decodeTimer(id).Observe(float64(time.Since(start)) / float64(time.Second))

	if err != nil {
		errorCounter(id).Inc()
		logger.WithError(err).Error("codec: decode uplink error")
		return formatter.UplinkOutput{}, errors.Wrap(err, "decode uplink error")
	}

	if out.Warnings == nil {
		out.Warnings = []string{}
	}

	decodeCounter(id).Inc()
	for _, w := range out.Warnings {
		warningCounter(id).Inc()
		logger.WithField("warning", w).Info("codec: uplink decoded with warning")
	}

	logger.Debug("codec: uplink decoded")

	return out, nil
}
