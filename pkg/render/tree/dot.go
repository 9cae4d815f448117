package tree

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/kahojyun/pulsegen/pkg/channel"
	"github.com/kahojyun/pulsegen/pkg/layout"
	"github.com/kahojyun/pulsegen/pkg/render"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// Options configures tree diagram rendering.
type Options struct {
	// Detailed adds the node path, desired size, slot and channel set to
	// each label. When false, labels show kind, start and duration only.
	Detailed bool

	// Channels names channel ids in labels. Ids are printed when nil.
	Channels []channel.Info

	// Unit is the time unit for labels. Defaults to nanoseconds.
	Unit render.TimeUnit
}

// ToDOT converts an arranged layout to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
// ToDOT panics if l has not been arranged.
func ToDOT(l *layout.Layout, opts Options) string {
	if !l.Arranged() {
		panic("tree: layout has not been arranged")
	}
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, fontname=\"monospace\", margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	hidden := make([]bool, l.Len())
	for i := range l.Len() {
		id := layout.NodeID(i)
		hidden[i] = l.Element(id).Attrs().Hidden || (id != l.Root() && hidden[l.Parent(id)])
		attrs := fmtAttrs(l, id, hidden[i], fmtLabel(l, id, opts))
		fmt.Fprintf(&buf, "  n%d [%s];\n", i, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for i := range l.Len() {
		for _, c := range l.Children(layout.NodeID(i)) {
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", i, c)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(l *layout.Layout, id layout.NodeID, opts Options) string {
	u := opts.Unit
	e := l.Element(id)
	head := schedule.Kind(e)
	if chs := schedule.OwnChannels(e); len(chs) > 0 {
		head += " " + channelList(chs, opts.Channels)
	}
	if r, ok := e.(*schedule.Repeat); ok {
		head += fmt.Sprintf(" ×%d", r.Count)
	}
	parts := []string{
		head,
		"start " + u.Format(l.AbsoluteStart(id)),
		"dur " + u.Format(l.Duration(id)),
	}
	if opts.Detailed {
		parts = append(parts,
			l.Path(id),
			"desired "+u.Format(l.Desired(id)),
			"slot "+u.Format(l.Slot(id)),
		)
		if _, ok := e.(*schedule.Repeat); ok {
			parts = append(parts, "period "+u.Format(l.Period(id)))
		}
		for i, c := range l.Columns(id) {
			parts = append(parts, fmt.Sprintf("col %d: %s + %s", i, u.Format(c.Start), u.Format(c.Width)))
		}
		if chs := l.Channels(id); len(chs) > 0 {
			parts = append(parts, "channels "+channelList(chs, opts.Channels))
		}
	}
	return strings.Join(parts, "\n")
}

func channelList(chs []int, infos []channel.Info) string {
	names := make([]string, len(chs))
	for i, ch := range chs {
		if ch >= 0 && ch < len(infos) {
			names[i] = infos[ch].Name
		} else {
			names[i] = strconv.Itoa(ch)
		}
	}
	return strings.Join(names, ",")
}

func fmtAttrs(l *layout.Layout, id layout.NodeID, hidden bool, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch l.Element(id).(type) {
	case *schedule.Barrier:
		attrs = append(attrs, "fillcolor=lightgrey")
	case *schedule.Stack, *schedule.Absolute, *schedule.Grid, *schedule.Repeat:
		attrs = append(attrs, "fillcolor=\"#eef3fb\"")
	}
	if hidden {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fontcolor=grey40")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag so the diagram scales from the
// origin regardless of Graphviz's page offset.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
