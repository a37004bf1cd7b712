package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	subjectKey   ctxKey = "subject"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithSubject records the authenticated caller so every log line of the
// request carries it.
func WithSubject(ctx context.Context, role, id string) context.Context {
	return context.WithValue(ctx, subjectKey, role+":"+id)
}

func SubjectFrom(ctx context.Context) string {
	if v, ok := ctx.Value(subjectKey).(string); ok {
		return v
	}
	return ""
}

// FromCtx returns logger with request_id and subject automatically added
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if sub := SubjectFrom(ctx); sub != "" {
		l = l.With(zap.String("subject", sub))
	}
	return l
}
