// Package tree renders an arranged schedule layout as a node-link diagram.
//
// # Overview
//
// Every layout node becomes a box labelled with its element kind and its
// arranged start and duration; edges run from containers to their children in
// insertion order. The diagram is a debugging aid for answering "why did this
// pulse land here": it shows each node's slot next to its measured size.
//
// # Usage
//
// Convert an arranged layout to DOT format, then render to SVG:
//
//	dot := tree.ToDOT(l, tree.Options{Detailed: true})
//	svg, err := tree.RenderSVG(ctx, dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := tree.RenderPDF(ctx, dot)
//	png, err := tree.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Options
//
//   - Detailed: include the node path, desired size, slot and channels
//   - Channels: channel table used to print channel names instead of ids
//   - Unit: time unit for labels (default nanoseconds)
//
// Hidden subtrees are drawn dashed; barriers are drawn grey.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package tree
