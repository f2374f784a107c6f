package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type traceDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	val := ctx.Value(traceDataKey{})
	if td, ok := val.(*TraceData); ok {
		return td
	}
	return nil
}

// RequestID returns the request id carried by ctx, or a fresh one when absent.
func RequestID(ctx context.Context) string {
	if td := GetTraceData(ctx); td != nil && td.RequestID != "" {
		return td.RequestID
	}
	return uuid.NewString()
}
