// Package render provides visual output for compiled schedules.
//
// # Overview
//
// This package contains helpers shared by the renderers:
//
//   - Format conversion from SVG to PDF/PNG ([ToPDF], [ToPNG])
//   - Time units for labels ([TimeUnit])
//   - Layout tree diagrams (in [tree] subpackage)
//   - Pulse timelines (in [timeline] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). When the tool is missing
// they fail with the UNSUPPORTED error code.
//
//	svg := timeline.RenderSVG(result)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// # Tree Diagrams
//
// The [tree] subpackage draws the arranged element tree with Graphviz, one box
// per node showing where it was placed and how long it runs.
//
// # Timelines
//
// The [timeline] subpackage draws one lane per channel with a bar for every
// resolved play, positioned at its output time.
//
// [tree]: github.com/kahojyun/pulsegen/pkg/render/tree
// [timeline]: github.com/kahojyun/pulsegen/pkg/render/timeline
package render
