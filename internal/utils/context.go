package utils

import (
	"context"

	"github.com/sirupsen/logrus"
)

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Logger returns a logrus entry tagged with the request id carried by ctx.
func Logger(ctx context.Context) *logrus.Entry {
	entry := logrus.WithContext(ctx)
	if id := RequestIDFromContext(ctx); id != "" {
		entry = entry.WithField("request_id", id)
	}
	return entry
}
