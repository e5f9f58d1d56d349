// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Loggers are constructed explicitly and passed to the components that need
// them; there is no package-level global.
//
// Example Usage:
//
//	logger := logging.NewDefault().Named("realtime")
//	logger.Info("connected", zap.String("user_id", session.UserID))
//	logger.Warn("transport closed", zap.Error(err))
package logging
