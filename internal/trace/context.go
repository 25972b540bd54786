package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	operationKey contextKey = "operation"
)

// GenerateRequestID generates a unique request ID in format "req-XXXXXX"
func GenerateRequestID() string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "req-000000"
	}
	return "req-" + hex.EncodeToString(b)
}

// OperationFromPath derives an operation tag from a URL path
// /api/png/encrypt -> "png-encrypt"
// /api/jobs/abc -> "jobs"
// /health -> "health"
func OperationFromPath(urlPath string) string {
	path := strings.TrimPrefix(strings.Trim(urlPath, "/"), "api/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		return "/"
	}

	switch parts[0] {
	case "block", "png":
		if len(parts) > 1 {
			return parts[0] + "-" + parts[1]
		}
	}
	return parts[0]
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithOperation adds the operation tag to context
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey, op)
}

// GetOperation retrieves the operation tag from context
func GetOperation(ctx context.Context) string {
	if v, ok := ctx.Value(operationKey).(string); ok {
		return v
	}
	return ""
}

// LogPrefix returns a formatted log prefix: "[req-xxx] [op]"
func LogPrefix(ctx context.Context) string {
	reqID := GetRequestID(ctx)
	op := GetOperation(ctx)
	if reqID == "" {
		reqID = "req-??????"
	}
	if op == "" {
		op = "/"
	}
	return "[" + reqID + "] [" + op + "]"
}

// Logger returns the global logger annotated with the request ID and
// operation carried by ctx
func Logger(ctx context.Context) zerolog.Logger {
	l := log.With()
	if reqID := GetRequestID(ctx); reqID != "" {
		l = l.Str("req", reqID)
	}
	if op := GetOperation(ctx); op != "" {
		l = l.Str("op", op)
	}
	return l.Logger()
}
