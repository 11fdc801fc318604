package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// splitHandler sends ERROR and above to errs and everything else that passes
// the level to out.
type splitHandler struct {
	level slog.Leveler
	out   slog.Handler
	errs  slog.Handler
}

func (h *splitHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *splitHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return h.errs.Handle(ctx, r)
	}
	return h.out.Handle(ctx, r)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{level: h.level, out: h.out.WithAttrs(attrs), errs: h.errs.WithAttrs(attrs)}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{level: h.level, out: h.out.WithGroup(name), errs: h.errs.WithGroup(name)}
}

// newLogHandler builds the text handler pair. Debug logging adds source
// locations.
func newLogHandler(out, errs io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}
	return &splitHandler{
		level: level,
		out:   slog.NewTextHandler(out, opts),
		errs:  slog.NewTextHandler(errs, opts),
	}
}

// setupLogger installs the default logger at level. Records go to stdout,
// errors to stderr, and all of them to logPath as well when it is set. The
// returned cleanup closes the log file and is nil when there is none.
func setupLogger(logPath string, level slog.Level) (func(), error) {
	out, errs := io.Writer(os.Stdout), io.Writer(os.Stderr)

	var cleanup func()
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		out, errs = io.MultiWriter(os.Stdout, f), io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(newLogHandler(out, errs, level)))
	return cleanup, nil
}
