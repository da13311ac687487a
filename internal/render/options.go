package render

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DescriptionMode controls how long item descriptions are fitted into
// the description column
type DescriptionMode int

const (
	// DescriptionTruncate cuts descriptions at the geometry's rune limit
	DescriptionTruncate DescriptionMode = iota
	// DescriptionWrap wraps descriptions and grows the row instead
	DescriptionWrap
)

// ParseDescriptionMode accepts "truncate" (default) or "wrap"
func ParseDescriptionMode(s string) (DescriptionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truncate":
		return DescriptionTruncate, nil
	case "wrap":
		return DescriptionWrap, nil
	default:
		return DescriptionTruncate, fmt.Errorf("unknown description mode %q", s)
	}
}

// String returns the configuration name of the mode
func (m DescriptionMode) String() string {
	if m == DescriptionWrap {
		return "wrap"
	}
	return "truncate"
}

// options are shared by the built-in renderers
type options struct {
	images   *ImageLoader
	logger   *zap.Logger
	descMode DescriptionMode
	compress bool
	now      func() time.Time
}

// Option configures a renderer
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		images:   NewImageLoader(),
		logger:   zap.NewNop(),
		compress: true,
		now:      time.Now,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// WithLogger sets the logger used for image warnings and render events
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithImageLoader sets the loader for logo and signature images
func WithImageLoader(l *ImageLoader) Option {
	return func(o *options) {
		if l != nil {
			o.images = l
		}
	}
}

// WithDescriptionMode selects truncation or wrapping of descriptions
func WithDescriptionMode(m DescriptionMode) Option {
	return func(o *options) {
		o.descMode = m
	}
}

// WithCompression toggles PDF stream compression (on by default)
func WithCompression(on bool) Option {
	return func(o *options) {
		o.compress = on
	}
}

// WithClock sets the time source for creation dates
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
