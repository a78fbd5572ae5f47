// Package logctx wires up the terminal-facing slog.Handler used by
// cmd/hotctl: a TTY-aware, colorized handler when stderr is a terminal,
// a plain text one otherwise, mirroring the level-colored terminal
// format go-ethereum's own log package builds on top of
// github.com/mattn/go-isatty and github.com/mattn/go-colorable (present
// in the retrieval pack's ethereum-go-ethereum go.mod). The node/tree
// library packages never import this: only the CLI glue logs.
package logctx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
	colorGray   = "\x1b[90m"
)

// NewTerminalLogger returns a slog.Logger writing to os.Stderr: colorized
// if stderr is a terminal (detected via go-isatty, wrapped through
// go-colorable so ANSI sequences render on Windows consoles too), plain
// text otherwise — the same fallback shape go-ethereum's log.NewTerminalHandler
// applies for piped/redirected output.
func NewTerminalLogger(level slog.Level) *slog.Logger {
	return slog.New(newHandler(os.Stderr, level))
}

func newHandler(f *os.File, level slog.Level) slog.Handler {
	isTerminal := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	w := colorable.NewColorable(f)
	if !isTerminal {
		w = f
	}
	return &termHandler{w: w, level: level, color: isTerminal}
}

// termHandler is a minimal slog.Handler: one line per record, level
// colorized when writing to a real terminal. It does not implement
// WithGroup (the CLI never uses grouped attrs); WithAttrs accumulates a
// fixed attr prefix the way slog.TextHandler would.
type termHandler struct {
	w     io.Writer
	level slog.Level
	color bool
	attrs []slog.Attr
}

func (h *termHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *termHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.Format(time.TimeOnly)
	levelStr := levelString(r.Level, h.color)

	line := fmt.Sprintf("%s %s %s", dim(ts, h.color), levelStr, r.Message)
	for _, a := range h.attrs {
		line += " " + formatAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		line += " " + formatAttr(a)
		return true
	})

	_, err := fmt.Fprintln(h.w, line)
	return err
}

func (h *termHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := *h
	out.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &out
}

func (h *termHandler) WithGroup(_ string) slog.Handler { return h }

func formatAttr(a slog.Attr) string {
	return fmt.Sprintf("%s=%v", a.Key, a.Value.Any())
}

func dim(s string, color bool) string {
	if !color {
		return s
	}
	return colorGray + s + colorReset
}

func levelString(level slog.Level, color bool) string {
	var label, c string
	switch {
	case level >= slog.LevelError:
		label, c = "ERROR", colorRed
	case level >= slog.LevelWarn:
		label, c = "WARN ", colorYellow
	case level >= slog.LevelInfo:
		label, c = "INFO ", colorCyan
	default:
		label, c = "DEBUG", colorGray
	}
	if !color {
		return label
	}
	return c + label + colorReset
}
