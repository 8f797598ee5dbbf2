package application

import "log/slog"

// ResolveLogger falls back to the process default so permission checks always log.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
