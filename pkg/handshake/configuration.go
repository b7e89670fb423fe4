package handshake

import (
	"log/slog"

	"github.com/halyard-rpc/halyard/pkg/metrics"
)

// Config carries optional parameters of a Manager.
type Config struct {
	slogHandler slog.Handler
	attributes  []any
	metrics     *metrics.Handshake
}

// NewConfig creates a Config with all parameters set to their defaults:
// logging disabled, no metrics.
func NewConfig() *Config {
	return &Config{}
}

// WithSlogHandler sets the slog handler.
func (c *Config) WithSlogHandler(handler slog.Handler) *Config {
	c.slogHandler = handler
	return c
}

// WithSlogAttribute adds an attribute to the slice of attributes.
func (c *Config) WithSlogAttribute(attr slog.Attr) *Config {
	c.attributes = append(c.attributes, attr)
	return c
}

// WithSlogAttributes adds given attributes to the slice of attributes.
func (c *Config) WithSlogAttributes(attrs ...slog.Attr) *Config {
	for _, attr := range attrs {
		c.attributes = append(c.attributes, attr)
	}
	return c
}

// WithMetrics sets the metrics sink.
func (c *Config) WithMetrics(m *metrics.Handshake) *Config {
	c.metrics = m
	return c
}

func (c *Config) logger() *slog.Logger {
	h := c.slogHandler
	if h == nil {
		h = slog.DiscardHandler
	}
	attrs := append([]any{slog.String("namespace", Namespace)}, c.attributes...)
	return slog.New(h).With(attrs...)
}
