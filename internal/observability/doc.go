// Package observability provides the loop's structured logging: a thin
// wrapper over log/slog with run/provider/turn correlation and best-effort
// redaction of secret-shaped strings in every log record.
package observability
