// Package logger provides structured logging for xhsdl.
//
// It wraps zerolog behind a small Logger interface so every component
// can take a logger by injection and tests can swap in TestLogger or
// NewNopLogger.
//
// Basic usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//		return err
//	}
//	logger.WithField("post_id", id).Info("Post resolved")
//
// Console output goes to stderr so command output on stdout stays
// parseable. Colours are used only when stderr is a terminal.
package logger
