// Package logging provides structured logging for Hearth Core.
//
// It wraps the standard log/slog package to provide consistent structured
// logging across the application: JSON output for production, text output
// for development, default fields (service, version) on every entry, and
// level-based filtering.
//
// Logging is configured via the LoggingConfig section in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log secrets, token values, or passwords. Auth flows log usernames
// and failure categories only.
package logging
