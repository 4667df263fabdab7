// Package observability builds the zap loggers used by the bridge and the CLI.
package observability
