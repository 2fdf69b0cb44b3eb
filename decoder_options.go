package mpreach

import (
	"log/slog"
)

type decoderOptions struct {
	addPath  AddPathChecker
	logger   *slog.Logger
	observer Observer
}

func defaultDecoderOptions() decoderOptions {
	return decoderOptions{
		addPath:  noAddPath{},
		observer: nopObserver{},
	}
}

// DecoderOption configures a ReachDecoder or UpdateParser.
type DecoderOption interface {
	apply(*decoderOptions)
}

type funcDecoderOption struct {
	fn func(*decoderOptions)
}

func (f *funcDecoderOption) apply(o *decoderOptions) {
	f.fn(o)
}

func newFuncDecoderOption(f func(*decoderOptions)) *funcDecoderOption {
	return &funcDecoderOption{
		fn: f,
	}
}

// WithAddPath returns a DecoderOption that consults c to decide whether NLRI
// carry a path identifier. Without it path identifiers are never decoded.
func WithAddPath(c AddPathChecker) DecoderOption {
	return newFuncDecoderOption(func(o *decoderOptions) {
		if c == nil {
			c = noAddPath{}
		}
		o.addPath = c
	})
}

// WithLogger returns a DecoderOption that sets the logger for diagnostics.
// The package logger set via SetLogger is used otherwise.
func WithLogger(l *slog.Logger) DecoderOption {
	return newFuncDecoderOption(func(o *decoderOptions) {
		o.logger = l
	})
}

// WithObserver returns a DecoderOption that reports decode outcomes to obs,
// e.g. for metrics.
func WithObserver(obs Observer) DecoderOption {
	return newFuncDecoderOption(func(o *decoderOptions) {
		if obs == nil {
			obs = nopObserver{}
		}
		o.observer = obs
	})
}
