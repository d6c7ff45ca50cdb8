// Package logging provides a simple leveled logging interface for the
// DjVu metadata service.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (cache hits, tool invocations)
//   - INFO: General operational messages
//   - WARN: Warning conditions (unparseable metadata, failed extractions)
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// DEBUG=true as a shortcut for debug output.
package logging
