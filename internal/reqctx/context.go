package reqctx

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const (
	keyRID    ctxKey = "dm_rid"
	keyLogger ctxKey = "dm_logger"
)

// WithRID stores the request id; responses echo it as transactionId.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns the request id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

func WithLogger(ctx context.Context, l logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, keyLogger, l)
}

// Logger returns the request-scoped logger, falling back to the standard one.
func Logger(ctx context.Context) logrus.FieldLogger {
	if l, ok := ctx.Value(keyLogger).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}
