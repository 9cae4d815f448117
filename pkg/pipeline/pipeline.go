// Package pipeline provides the schedule compilation pipeline for pulsegen.
//
// This package implements the complete validate → layout → flatten → track
// pipeline used by the CLI and the HTTP API. By centralizing this logic, both
// entry points compile schedules identically.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Validate: check channels, shapes and the element tree
//  2. Layout: run Measure and Arrange over the tree (pkg/layout)
//  3. Flatten: emit atomic instructions with absolute times (pkg/flatten)
//  4. Track: resolve phase/frequency state per channel (pkg/phase)
//
// Every compilation is independent and all-or-nothing: an error in any stage
// aborts that compilation and no partial instruction list is returned. Results
// are never cached or persisted.
//
// # Usage
//
// Create a Runner and compile a request:
//
//	runner := pipeline.NewRunner(logger)
//	req := pipeline.Request{Channels: channels, Schedule: root}
//	result, err := runner.Compile(ctx, req, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range result.Instructions {
//	    fmt.Println(p.ChannelName, p.Time, p.Phase)
//	}
//
// Compile many requests concurrently with [Runner.CompileAll].
package pipeline

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kahojyun/pulsegen/pkg/channel"
	"github.com/kahojyun/pulsegen/pkg/errors"
	"github.com/kahojyun/pulsegen/pkg/layout"
	"github.com/kahojyun/pulsegen/pkg/phase"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultQuantize is the default rounding rule for play times.
	DefaultQuantize = "round"

	// DefaultWorkers bounds concurrent compilations in CompileAll.
	DefaultWorkers = 4

	// MaxRootDuration rejects absurd fixed budgets (one hour).
	MaxRootDuration = 3600.0
)

// =============================================================================
// Options - Compilation Configuration
// =============================================================================

// Options configures a compilation.
// This struct supports JSON serialization for API requests.
type Options struct {
	// RootDuration fixes the total schedule duration in seconds. Zero lets
	// the schedule take its natural duration.
	RootDuration float64 `json:"root_duration,omitempty"`

	// Quantize selects how play times snap to the channel grid: "round" or "floor".
	Quantize string `json:"quantize,omitempty"`

	// Workers bounds concurrency in CompileAll.
	Workers int `json:"workers,omitempty"`

	// Logger receives the per-stage diagnostics of a compilation, such as
	// clipped-play warnings. Nil uses the Runner's logger.
	Logger *log.Logger `json:"-"`

	policy    channel.Policy
	validated bool
}

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Quantize == "" {
		o.Quantize = DefaultQuantize
	}
	p, err := channel.ParsePolicy(o.Quantize)
	if err != nil {
		return err
	}
	o.policy = p
	if err := ValidateRootDuration(o.RootDuration); err != nil {
		return err
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	o.validated = true
	return nil
}

// Policy returns the parsed quantization policy. Valid after ValidateAndSetDefaults.
func (o *Options) Policy() channel.Policy { return o.policy }

// ValidateRootDuration checks a fixed root duration.
func ValidateRootDuration(d float64) error {
	if math.IsNaN(d) || d < 0 || d > MaxRootDuration {
		return errors.New(errors.ErrCodeInvalidInput, "root duration must be in [0, %g] seconds, got %v", MaxRootDuration, d)
	}
	return nil
}

// =============================================================================
// Request and Result
// =============================================================================

// Request is one schedule to compile together with the channels and shapes it
// refers to.
type Request struct {
	Channels []channel.Info
	Shapes   []schedule.Shape
	Schedule schedule.Element
}

// Validate checks the request before layout.
func (r Request) Validate() error {
	if len(r.Channels) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one channel is required")
	}
	if err := channel.ValidateAll(r.Channels); err != nil {
		return err
	}
	for _, s := range r.Shapes {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if err := schedule.Validate(r.Schedule, len(r.Channels)); err != nil {
		return err
	}
	return schedule.ValidateShapeRefs(r.Schedule, len(r.Shapes))
}

// Result contains the outputs of a compilation.
type Result struct {
	// ID identifies the compilation in logs and API responses.
	ID string

	// Duration is the arranged duration of the whole schedule, in seconds.
	Duration float64

	// Instructions are the resolved plays in emission order.
	Instructions []phase.ResolvedPlay

	// Channels and Shapes echo the request, for exporters.
	Channels []channel.Info
	Shapes   []schedule.Shape

	// Layout is the side table of the compilation, for inspection.
	Layout *layout.Layout

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains compilation statistics.
type Stats struct {
	NodeCount    int
	ItemCount    int // flattened instructions, including phase/frequency updates
	PlayCount    int
	DroppedPlays int // zero-amplitude plays skipped
	ClippedPlays int
	ValidateTime time.Duration
	LayoutTime   time.Duration
	FlattenTime  time.Duration
	TrackTime    time.Duration
}

// Total returns the summed stage time.
func (s Stats) Total() time.Duration {
	return s.ValidateTime + s.LayoutTime + s.FlattenTime + s.TrackTime
}
