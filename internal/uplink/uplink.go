// Package uplink handles the newline delimited uplink records read by the
// formatter and writes the decoded records.
package uplink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"sync"

	"github.com/brocaar/chirpstack-api/go/v3/as/integration"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lmic-node/lmic-node-formatter/formatter"
	"github.com/lmic-node/lmic-node-formatter/internal/codec"
	"github.com/lmic-node/lmic-node-formatter/internal/marshaler"
)

// maxRecordSize defines the max size of a single record (line).
const maxRecordSize = 1024 * 1024

// Server reads uplink records from a reader and writes the decoded records
// to a writer, in the same order.
type Server struct {
	// mu is held while a record is being handled
	mu      sync.Mutex
	stopped bool

	r    io.Reader
	w    io.Writer
	done chan error
}

// NewServer creates a new server.
func NewServer(r io.Reader, w io.Writer) *Server {
	return &Server{
		r:    r,
		w:    w,
		done: make(chan error, 1),
	}
}

// Start starts the server.
func (s *Server) Start() error {
	go func() {
		s.done <- s.handleRecords()
	}()
	return nil
}

// Done returns a channel which receives the result once the reader has been
// consumed or the server has been stopped.
func (s *Server) Done() <-chan error {
	return s.done
}

// Stop waits for the record being handled to complete. Records read after
// stopping are not handled.
func (s *Server) Stop() error {
	log.Info("uplink: waiting for pending actions to complete")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true

	return nil
}

func (s *Server) handleRecords() error {
	r := bufio.NewReaderSize(s.r, 64*1024)

	for {
		line, tooLong, err := readRecord(r)
		if err != nil && err != io.EOF {
			return errors.Wrap(err, "read record error")
		}

		if len(line) != 0 || tooLong {
			s.mu.Lock()
			if s.stopped {
				s.mu.Unlock()
				return nil
			}

			var herr error
			if tooLong {
				uplinkRecordErrorCount().Inc()
				log.WithField("max_size", maxRecordSize).Error("uplink: record exceeds max size, skipping")
			} else {
				herr = s.handleLine(line)
			}
			s.mu.Unlock()

			if herr != nil {
				return herr
			}
		}

		if err == io.EOF {
			return nil
		}
	}
}

// readRecord reads a single line. When the line exceeds maxRecordSize, the
// remainder is discarded and tooLong is set.
func readRecord(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		var chunk []byte
		chunk, err = r.ReadSlice('\n')

		if !tooLong {
			size := len(line) + len(chunk)
			if len(chunk) != 0 && chunk[len(chunk)-1] == '\n' {
				size--
			}

			if size > maxRecordSize {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		if err == bufio.ErrBufferFull {
			continue
		}
		return line, tooLong, err
	}
}

func (s *Server) handleLine(line []byte) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}

	b, err := HandleRecord(context.Background(), line)
	if err != nil {
		uplinkRecordErrorCount().Inc()
		log.WithFields(log.Fields{
			"data_base64": base64.StdEncoding.EncodeToString(line),
		}).WithError(err).Error("uplink: processing record error")
		return nil
	}

	if _, err := s.w.Write(append(b, '\n')); err != nil {
		return errors.Wrap(err, "write record error")
	}

	return nil
}

// HandleRecord decodes a single record. A formatter input returns the
// formatter output as JSON. A ChirpStack uplink event returns the same event
// with the decoded object set, using the encoding of the input.
func HandleRecord(ctx context.Context, b []byte) ([]byte, error) {
	t := marshaler.DetectType(b)
	uplinkRecordCounter(t.String()).Inc()

	switch t {
	case marshaler.FormatterJSON:
		return handleFormatterInput(ctx, b)
	default:
		return handleUplinkEvent(ctx, b)
	}
}

func handleFormatterInput(ctx context.Context, b []byte) ([]byte, error) {
	var in formatter.UplinkInput
	if err := json.Unmarshal(b, &in); err != nil {
		return nil, errors.Wrap(err, "unmarshal formatter input error")
	}

	out, err := codec.Decode(ctx, "", in)
	if err != nil {
		return nil, err
	}

	b, err = json.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(err, "marshal formatter output error")
	}

	return b, nil
}

func handleUplinkEvent(ctx context.Context, b []byte) ([]byte, error) {
	var ev integration.UplinkEvent
	t, err := marshaler.UnmarshalUplinkEvent(b, &ev)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal uplink event error")
	}

	out, err := codec.Decode(ctx, "", marshaler.UplinkInputFromEvent(&ev))
	if err != nil {
		return nil, err
	}

	if err := marshaler.SetObject(&ev, out); err != nil {
		return nil, err
	}

	b, err = marshaler.MarshalUplinkEvent(t, &ev)
	if err != nil {
		return nil, errors.Wrap(err, "marshal uplink event error")
	}

	return b, nil
}
