package logging

import "github.com/pkg/errors"

// LoggerType is a type of logger output.
// Possible types:
//   - LoggerText: The standard slog.TextHandler.
//   - LoggerJSON: The standard slog.JSONHandler.
//   - LoggerPretty: The logger outputs pretty messages.
//   - LoggerPrettyNoColor: The logger outputs pretty messages without colors.
type LoggerType int

const (
	LoggerText LoggerType = iota
	LoggerJSON
	LoggerPretty
	LoggerPrettyNoColor
)

func (t LoggerType) String() string {
	switch t {
	case LoggerText:
		return "Text"
	case LoggerJSON:
		return "JSON"
	case LoggerPretty:
		return "Pretty"
	case LoggerPrettyNoColor:
		return "PrettyNoColor"
	default:
		return "Unknown"
	}
}

func (t LoggerType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *LoggerType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Text", "text":
		*t = LoggerText
	case "JSON", "json":
		*t = LoggerJSON
	case "Pretty", "pretty":
		*t = LoggerPretty
	case "PrettyNoColor", "pretty-no-color":
		*t = LoggerPrettyNoColor
	default:
		return errors.Errorf("unknown logger type %q", string(text))
	}
	return nil
}
