// Package io reads and writes schedule documents, channel tables and
// compilation results.
//
// # Overview
//
// A schedule document bundles everything one compilation needs: the channel
// table, the shape table, optional compile options and the element tree.
// Documents refer to channels and shapes by name; [Document.Request] resolves
// the names to the ids the compiler works with. This lets a CLI swap the
// document's channels for a shared TOML table before resolving.
//
// # Formats
//
// YAML and JSON documents share one structure:
//
//	channels:
//	  - {name: xy0, base_freq: 100e6, sample_rate: 2e9, length: 100000}
//	shapes:
//	  - {name: hann, kind: hann}
//	schedule:
//	  type: stack
//	  direction: forwards
//	  children:
//	    - {type: play, channel: xy0, amplitude: 0.5, shape: hann, width: 30e-9}
//	    - {type: barrier}
//	    - {type: shift_phase, channel: xy0, phase: 0.25}
//
// Element types are play, shift_phase, set_phase, shift_frequency,
// set_frequency, swap_phase, barrier, repeat, stack, absolute and grid.
// Common attributes are margin (one value for both sides, or [before, after]),
// alignment, hidden, duration, min_duration and max_duration. Children of an
// absolute container carry a time; children of a grid carry column and span.
// A repeat holds a single child. Times are in seconds, frequencies in Hz and
// phases in cycles.
//
// HCL documents express the same tree as nested blocks (see [ReadHCL]).
// Channel tables are TOML arrays of [[channel]] tables (see [ReadChannels]).
//
// # Import
//
// Use [Load] to read a document from a file, choosing the decoder by
// extension, or [ReadYAML], [ReadJSON] and [ReadHCL] for any source:
//
//	doc, err := io.Load("ramsey.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	req, err := doc.Request()
//
// Decoders reject unknown keys. Errors carry the INVALID_FORMAT code for
// syntax problems and UNKNOWN_CHANNEL_REFERENCE or UNKNOWN_SHAPE_REFERENCE
// for unresolved names.
//
// # Export
//
// [WriteYAML] and [WriteJSON] write documents back out; [FromRequest] builds a
// document from a resolved request, so converting between formats is a
// Load followed by a Write. [WriteResult] exports a compilation result with
// its resolved instructions as JSON.
package io
