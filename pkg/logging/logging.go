// Package logging builds the slog handlers used by the binaries. Handlers
// prefix records with the component namespace and know how to render
// wrapped errors together with their stack traces.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dpotapov/slogpfx"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// NamespaceKey is the attribute key the pretty handler lifts into the
// record prefix.
const NamespaceKey = "namespace"

// DefaultHandler creates a new slog handler with the specified parameters.
func DefaultHandler(params Parameters) slog.Handler {
	return NewHandler(params.Type, params.Level)
}

// NewHandler creates a new slog handler based on the specified logger type
// and level, writing to stdout.
func NewHandler(loggerType LoggerType, level slog.Level) slog.Handler {
	return newHandler(loggerType, level, os.Stdout)
}

func newHandler(loggerType LoggerType, level slog.Level, w io.Writer) slog.Handler {
	switch loggerType {
	case LoggerText:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case LoggerJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case LoggerPretty:
		type fd interface{ Fd() uintptr }
		colorize := false
		if f, ok := w.(fd); ok {
			colorize = isatty.IsTerminal(f.Fd())
		}
		return buildPrettyHandler(w, level, colorize)
	case LoggerPrettyNoColor:
		return buildPrettyHandler(w, level, false)
	default:
		panic(fmt.Sprintf("unsupported logger type %d", loggerType))
	}
}

func buildPrettyHandler(w io.Writer, level slog.Level, colorize bool) slog.Handler {
	tintHandler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !colorize,
	})
	formatter := slogpfx.DefaultPrefixFormatter
	if colorize {
		formatter = slogpfx.ColorizePrefix(formatter)
	}
	return slogpfx.NewHandler(tintHandler, &slogpfx.HandlerOptions{
		PrefixKeys:      []string{NamespaceKey},
		PrefixFormatter: formatter,
	})
}

const errorKey = "error"

type stackTracer interface {
	StackTrace() errors.StackTrace
}

type errorLogValuer struct {
	err error
}

func (e errorLogValuer) LogValue() slog.Value {
	if e.err == nil {
		return slog.Value{}
	}
	attrs := []slog.Attr{slog.String("message", e.err.Error())}
	if st, ok := e.err.(stackTracer); ok {
		attrs = append(attrs, slog.String("trace", fmt.Sprintf("%+v", st.StackTrace())))
	}
	return slog.GroupValue(attrs...)
}

// Error returns a slog.Attr rendering err with its stack trace when the
// error carries one.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(errorKey, slog.LogValuer(errorLogValuer{err: err}))
}

type typenamePrinter struct{ v any }

func (t typenamePrinter) MarshalText() ([]byte, error) {
	return fmt.Appendf(nil, "%T", t.v), nil
}

// Type returns a slog.Attr that contains the type name of the value.
func Type(value any) slog.Attr {
	const key = "type"
	return slog.Any(key, typenamePrinter{v: value})
}
