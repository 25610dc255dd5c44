// Package logging is the structured logger shared by the sync manager, the
// refresher and both binaries. Components take a Logger and scope it with
// ForModule, so every record names the component and, where known, the
// user it acts for.
package logging

import "context"

// Logger is a context-aware, structured logger. Args are key-value pairs:
//
//	log.Info(ctx, "addressbook resynced", "abook_id", id, "took", d)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}

// ForModule scopes l to a component. A nil l yields a discarding logger.
func ForModule(l Logger, module string, args ...any) Logger {
	if l == nil {
		l = Discard()
	}
	return l.With(append([]any{"module", module}, args...)...)
}
