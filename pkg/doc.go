// Package pkg provides the core libraries for pulsegen pulse schedule compilation.
//
// # Overview
//
// pulsegen turns a hierarchical pulse schedule into a flat, time-ordered list
// of pulse instructions. A schedule is a tree of elements: leaves emit pulses
// or update a channel's phase and frequency, containers (stack, absolute,
// grid, repeat) arrange their children in time. The pkg directory is organized
// into four main areas:
//
//  1. [schedule] - The element tree and its shared timing properties
//  2. [layout], [flatten], [phase] - The compiler stages
//  3. [pipeline] - Orchestration (validate → layout → flatten → track)
//  4. [io], [render] - Document codecs, result export and diagrams
//
// # Architecture
//
// The typical data flow through pulsegen:
//
//	Schedule document (YAML / JSON / HCL)
//	         ↓
//	    [io] package (resolve channel and shape names)
//	         ↓
//	    [layout] package (measure → arrange)
//	         ↓
//	    [flatten] package (absolute times, dropped hidden plays)
//	         ↓
//	    [phase] package (per-channel frequency and phase tracking)
//	         ↓
//	    Instruction JSON / timeline / tree diagrams
//
// # Quick Start
//
// Compile a document:
//
//	import (
//	    "context"
//	    pio "github.com/kahojyun/pulsegen/pkg/io"
//	    "github.com/kahojyun/pulsegen/pkg/pipeline"
//	)
//
//	doc, _ := pio.Load("ramsey.yaml")
//	req, _ := doc.Request()
//	res, _ := pipeline.NewRunner(nil).Compile(context.Background(), req, pipeline.Options{})
//	_ = pio.ExportResult(res, "ramsey.result.json")
//
// # Main Packages
//
// [schedule] - Element types (Play, ShiftPhase, SetPhase, ShiftFrequency,
// SetFrequency, SwapPhase, Barrier, Repeat, Stack, Absolute, Grid) and the
// Common properties every element carries: margin, alignment, visibility and
// duration bounds.
//
// [layout] - Two-pass layout. Measure computes each element's desired
// duration bottom-up; Arrange assigns offsets and final durations top-down.
// Grid columns are sized by a fixed/auto/star solver.
//
// [flatten] - Walks an arranged tree and emits time-stamped play and phase
// items in tree order.
//
// [channel] - Channel descriptions (sample rate, length, base frequency,
// alignment) and the time quantization policy.
//
// [phase] - Per-channel tracker that resolves every play's carrier
// frequency and total phase.
//
// [errors] - Coded errors shared by every stage and by the HTTP API.
//
// [observability] - Hooks for compilation and HTTP request events.
//
// [render] - Time units and SVG to PDF/PNG conversion; [render/tree] draws the
// element tree with Graphviz and [render/timeline] draws per-channel lanes.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All library tests
//	go test ./pkg/layout/...   # Specific package
//
// [schedule]: https://pkg.go.dev/github.com/kahojyun/pulsegen/pkg/schedule
// [layout]: https://pkg.go.dev/github.com/kahojyun/pulsegen/pkg/layout
// [flatten]: https://pkg.go.dev/github.com/kahojyun/pulsegen/pkg/flatten
// [channel]: https://pkg.go.dev/github.com/kahojyun/pulsegen/pkg/channel
// [phase]: https://pkg.go.dev/github.com/kahojyun/pulsegen/pkg/phase
// [pipeline]: https://pkg.go.dev/github.com/kahojyun/pulsegen/pkg/pipeline
// [errors]: https://pkg.go.dev/github.com/kahojyun/pulsegen/pkg/errors
// [observability]: https://pkg.go.dev/github.com/kahojyun/pulsegen/pkg/observability
// [io]: https://pkg.go.dev/github.com/kahojyun/pulsegen/pkg/io
// [render]: https://pkg.go.dev/github.com/kahojyun/pulsegen/pkg/render
// [render/tree]: https://pkg.go.dev/github.com/kahojyun/pulsegen/pkg/render/tree
// [render/timeline]: https://pkg.go.dev/github.com/kahojyun/pulsegen/pkg/render/timeline
package pkg
