// Package schedule defines the element tree that describes a pulse schedule.
//
// # Overview
//
// A schedule is a tree of elements. Leaves are atomic instructions that act on
// a single channel (or a channel pair) and carry no absolute time: [Play],
// [ShiftPhase], [SetPhase], [ShiftFrequency], [SetFrequency], [SwapPhase] and
// the [Barrier] synchronization marker. Interior nodes are containers that
// decide where their children go in time:
//
//   - [Stack]: children packed one after another, per channel lane
//   - [Absolute]: children at explicit offsets
//   - [Grid]: children placed in columns sized Fixed, Auto or Star
//   - [Repeat]: one child repeated a fixed number of times
//
// The set of variants is closed. Every variant embeds [Common], which holds the
// layout attributes shared by all elements (margins, visibility, alignment and
// duration bounds).
//
// # Building Trees
//
// Elements are plain structs and can be built as literals:
//
//	root := &schedule.Stack{
//	    Children: []schedule.Element{
//	        &schedule.Play{Channel: 0, Amplitude: 0.5, Width: 30e-9},
//	        &schedule.Barrier{},
//	        &schedule.Play{Channel: 1, Amplitude: 0.5, Width: 50e-9},
//	    },
//	}
//
// A tree is treated as immutable once it is handed to the layout engine. Layout
// results are stored in a side table owned by a single compilation, so the same
// tree may be compiled many times, concurrently, under different budgets.
//
// # Durations
//
// Durations are float64 seconds. Each element may declare a preferred
// Duration and MinDuration/MaxDuration bounds; conflicts resolve with
// min_duration > max_duration > duration (see [Common.Bounds]).
//
// # Validation
//
// [Validate] checks a tree before compilation and reports the first problem as
// a coded error from pkg/errors, together with the path of the offending node.
package schedule
