package observability

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type trackingIDKey struct{}

// NewLogger builds the process-wide JSON logger. Every entry carries the
// service name so queue, monitor, and handler logs from different deployments
// aggregate cleanly.
func NewLogger(level string) (*zap.Logger, error) {
	parsedLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsedLevel)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.InitialFields = map[string]interface{}{"service": "leadnotify"}

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	var parsed zapcore.Level
	normalized := strings.ToLower(strings.TrimSpace(level))
	if normalized == "" {
		normalized = "info"
	}

	if err := parsed.UnmarshalText([]byte(normalized)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return parsed, nil
}

// WithTrackingID tags a context with the logical notification id so request
// logs and queue logs can be correlated.
func WithTrackingID(ctx context.Context, trackingID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, trackingIDKey{}, trackingID)
}

func TrackingIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	trackingID, ok := ctx.Value(trackingIDKey{}).(string)
	if !ok || trackingID == "" {
		return "", false
	}

	return trackingID, true
}

func WithContextLogger(logger *zap.Logger, ctx context.Context) *zap.Logger {
	if logger == nil {
		return nil
	}

	trackingID, ok := TrackingIDFromContext(ctx)
	if !ok {
		return logger
	}

	return logger.With(zap.String("trackingId", trackingID))
}
