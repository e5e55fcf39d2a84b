// Package logging provides structured logging for musikremote.
//
// This package wraps a zap logger with package-level helpers so that every
// other package logs the same way without threading a logger through every
// constructor.
//
// # Log Levels
//
//   - Debug: store writes, individual notifications, proxy cache hits
//   - Info: commits, reloads, connections, daemon lifecycle
//   - Warn: collaborator failures, watcher errors, ignored preferences
//   - Error: failed commits, daemon startup failures
//
// # Configuration
//
// The CLI initializes logging from the --log-level flag, falling back to the
// MUSIKREMOTE_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize(level); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// When neither is set the logger is a no-op, so CLI output stays clean.
//
// # Domain Helpers
//
//	logging.LogSettingChange("ssl_enabled", "false", "true")
//	logging.LogCommit(11, nil)
//	logging.LogNotification("streaming_proxy", "reload", err)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
