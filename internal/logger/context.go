package logger

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
	productKey   contextKey = "product_name"
	loggerKey    contextKey = "logger"
)

// WithRequestID stores a request id in ctx, generating a UUID when requestID is empty.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// WithProduct stores the (user, product) key a recompute is working on.
func WithProduct(ctx context.Context, userID, productName string) context.Context {
	ctx = WithUserID(ctx, userID)
	return context.WithValue(ctx, productKey, productName)
}

func ProductFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(productKey).(string); ok {
		return p
	}
	return ""
}

func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

func extractContextFields(ctx context.Context) []Field {
	var fields []Field
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, String("request_id", id))
	}
	if id := UserIDFromContext(ctx); id != "" {
		fields = append(fields, String("user_id", id))
	}
	if p := ProductFromContext(ctx); p != "" {
		fields = append(fields, String("product_name", p))
	}
	return fields
}

// Ctx returns the context's logger enriched with the context's values.
func Ctx(ctx context.Context) Logger {
	return FromContext(ctx).WithContext(ctx)
}
