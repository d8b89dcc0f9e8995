package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"xhsdl/pkg/models"
)

// LogRequest logs HTTP request information
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 200 && statusCode < 400:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.ErrorWithFields("HTTP request server error", fields)
	}
}

// LogAsset logs how one planned asset finished
func LogAsset(l Logger, postID string, asset models.AssetResult) {
	log := l.WithFields(map[string]interface{}{
		"post_id":  postID,
		"ordinal":  asset.Ordinal,
		"kind":     string(asset.Kind),
		"path":     asset.Path,
		"attempts": asset.Outcome.Attempts,
	})

	switch {
	case !asset.Outcome.Success:
		log.WithField("error_type", string(asset.Outcome.ErrorType)).Error("Asset download failed: " + asset.Outcome.Error)
	case asset.Outcome.Existed:
		log.Info("Asset already on disk")
	default:
		log.WithField("bytes", asset.Outcome.BytesWritten).Info("Asset downloaded")
	}
}

// LogRateLimit logs a pacing delay
func LogRateLimit(l Logger, host string, wait time.Duration) {
	l.WithFields(map[string]interface{}{
		"host":   host,
		"wait":   wait,
		"action": "rate_limited",
	}).Debug("Request paced by rate limiter")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	log := l.WithField("component", component)
	if len(settings) > 0 {
		log = log.WithFields(settings)
	}
	log.Debug("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Debug("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
