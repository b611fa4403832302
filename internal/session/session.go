// Package session is the interactive surface of the area-selection tools. A
// Session owns one user's catalog, result store and buffer preview, and turns
// user actions into state transitions and display output.
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/livingwales/areaselect/internal/buffer"
	"github.com/livingwales/areaselect/internal/catalog"
	"github.com/livingwales/areaselect/internal/config"
	"github.com/livingwales/areaselect/internal/display"
	"github.com/livingwales/areaselect/internal/results"
	"github.com/livingwales/areaselect/internal/selection"
)

// Options configures a Session.
type Options struct {
	Catalog          catalog.Options
	DefaultBuffer    float64
	BufferPresets    []float64
	CustomKm         selection.KmRange
	QuadrantSegments int
	ProgressInterval time.Duration
}

// DefaultBufferPresets are the buffer distances offered, in meters.
var DefaultBufferPresets = []float64{100, 500, 1000, 5000, 10000, 25000, 50000}

// OptionsFromConfig maps application configuration onto session options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Catalog: catalog.Options{
			Root:         cfg.Catalog.Root,
			UploadsDir:   cfg.Catalog.UploadsDir,
			UploadsLabel: cfg.Catalog.UploadsLabel,
			DrawSuffix:   cfg.Catalog.DrawSuffix,
		},
		DefaultBuffer:    cfg.Buffer.DefaultMeters,
		BufferPresets:    cfg.Buffer.PresetsMeters,
		CustomKm:         selection.KmRange{Min: cfg.Buffer.CustomMinKm, Max: cfg.Buffer.CustomMaxKm},
		QuadrantSegments: cfg.Buffer.QuadrantSegments,
		ProgressInterval: cfg.Progress.Interval,
	}
}

// Session is one user's area selection. All methods are safe for concurrent
// use; they are serialized by a mutex so state transitions never interleave.
type Session struct {
	mu sync.Mutex

	opts    Options
	sink    display.Sink
	catalog *catalog.Catalog
	store   *results.Store
	engine  *buffer.Engine

	selector *Selector
	preview  *BufferPreview
}

// New creates a Session that shows its output on sink.
func New(opts Options, sink display.Sink) *Session {
	if sink == nil {
		sink = display.Discard
	}
	if len(opts.BufferPresets) == 0 {
		opts.BufferPresets = DefaultBufferPresets
	}
	if opts.DefaultBuffer <= 0 {
		opts.DefaultBuffer = selection.DefaultBufferDistance
	}
	if opts.CustomKm.Max <= 0 {
		opts.CustomKm = selection.DefaultKmRange
	}

	s := &Session{
		opts:    opts,
		sink:    sink,
		catalog: catalog.New(opts.Catalog),
		store:   results.New(),
		engine:  buffer.New(buffer.Options{QuadrantSegments: opts.QuadrantSegments}),
	}
	state := selection.NewState()
	state.BufferDistance = opts.DefaultBuffer
	selection.Save(s.store, state)
	return s
}

// Store returns the session's result store. Callers must not write to it
// while a Session method is running.
func (s *Session) Store() *results.Store { return s.store }

// State returns a snapshot of the selection state.
func (s *Session) State() selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selection.Load(s.store)
}

// Active returns the active dataset, or nil.
func (s *Session) Active() *catalog.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Active()
}

// transition loads state, applies fn and saves the result. On error the
// stored state is left untouched.
func (s *Session) transition(event string, fn func(selection.State) (selection.State, error)) (selection.State, error) {
	state := selection.Load(s.store)
	next, err := fn(state)
	if err != nil {
		zap.L().Debug("session: transition rejected", zap.String("event", event), zap.Error(err))
		return state, err
	}
	selection.Save(s.store, next)
	zap.L().Debug("session: transition",
		zap.String("event", event),
		zap.Stringer("mode", next.Mode),
		zap.Stringer("scope", next.Scope),
	)
	return next, nil
}
