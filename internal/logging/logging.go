package logging

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/logrus/ctxlogrus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ContextKey defines the context key type.
type ContextKey string

// ContextIDKey holds the key of the context ID.
const ContextIDKey ContextKey = "ctx_id"

// WithContextID adds a new context ID to the given context and sets it as
// log field. When the context already has an ID, it is returned as-is.
func WithContextID(ctx context.Context) (context.Context, error) {
	if _, ok := ctx.Value(ContextIDKey).(uuid.UUID); ok {
		return ctx, nil
	}

	ctxID, err := uuid.NewV4()
	if err != nil {
		return nil, errors.Wrap(err, "new uuid error")
	}

	ctx = ctxlogrus.ToContext(ctx, log.NewEntry(log.StandardLogger()))
	ctx = context.WithValue(ctx, ContextIDKey, ctxID)
	ctxlogrus.AddFields(ctx, log.Fields{
		"ctx_id": ctxID,
	})

	return ctx, nil
}

// Entry returns the log entry stored in the context, including the fields
// added to it.
func Entry(ctx context.Context) *log.Entry {
	return ctxlogrus.Extract(ctx)
}
