// Package logging wires up the process-wide slog logger: a colorized
// terminal handler plus an optional plain-text log file.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/gamersidekick/sidekick/internal/utils"
)

// FanoutHandler forwards records to every wrapped handler.
type FanoutHandler struct {
	handlers []slog.Handler
}

func Fanout(handlers ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{handlers: handlers}
}

func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if e := handler.Handle(ctx, r.Clone()); e != nil {
				err = e
			}
		}
	}
	return err
}

func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return Fanout(handlers...)
}

func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return Fanout(handlers...)
}

// Setup installs the default logger. When logFile is non-empty, records are
// also appended to that file as plain text. The returned closer flushes and
// closes the log file.
func Setup(level slog.Level, logFile string) (func() error, error) {
	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})

	closer := func() error { return nil }
	handler := slog.Handler(stdoutHandler)

	if logFile != "" {
		if err := utils.EnsureParent(logFile); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: level})
		handler = Fanout(stdoutHandler, fileHandler)
		closer = file.Close
	}

	slog.SetDefault(slog.New(handler))
	return closer, nil
}
