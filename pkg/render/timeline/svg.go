// Package timeline renders resolved plays as an SVG timeline with one lane per
// channel.
//
// Each play becomes a bar starting at its output time (delay and quantization
// included) whose height follows the play's amplitude. Hovering a bar shows
// its resolved parameters. Clipped plays are outlined in red.
//
//	svg := timeline.RenderSVG(result, timeline.WithWidth(1600))
package timeline

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"github.com/kahojyun/pulsegen/pkg/pipeline"
	"github.com/kahojyun/pulsegen/pkg/render"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

const (
	laneHeight   = 48.0
	laneGap      = 12.0
	labelWidth   = 90.0
	axisHeight   = 28.0
	titleHeight  = 28.0
	defaultWidth = 1200.0
)

var palette = []string{"#4e79a7", "#f28e2b", "#59a14f", "#e15759", "#76b7b2", "#edc948", "#b07aa1", "#9c755f"}

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width float64
	unit  render.TimeUnit
	title string
}

// WithWidth sets the drawing width in pixels, lane labels included.
func WithWidth(px float64) SVGOption { return func(r *svgRenderer) { r.width = px } }

// WithUnit sets the unit of the time axis.
func WithUnit(u render.TimeUnit) SVGOption { return func(r *svgRenderer) { r.unit = u } }

// WithTitle draws a title above the lanes.
func WithTitle(s string) SVGOption { return func(r *svgRenderer) { r.title = s } }

// RenderSVG draws the instructions of a compilation result.
func RenderSVG(res *pipeline.Result, opts ...SVGOption) []byte {
	r := svgRenderer{width: defaultWidth, unit: render.Nanoseconds}
	for _, opt := range opts {
		opt(&r)
	}
	if r.width < labelWidth+100 {
		r.width = labelWidth + 100
	}

	span := res.Duration
	maxAmp := 0.0
	for _, p := range res.Instructions {
		span = math.Max(span, p.Time+p.Duration())
		maxAmp = math.Max(maxAmp, math.Abs(p.Amplitude))
	}
	if span <= 0 {
		span = 1e-9
	}
	if maxAmp == 0 {
		maxAmp = 1
	}

	top := 0.0
	if r.title != "" {
		top = titleHeight
	}
	lanes := max(len(res.Channels), 1)
	height := top + float64(lanes)*(laneHeight+laneGap) + axisHeight
	plotWidth := r.width - labelWidth - 10
	x := func(t float64) float64 { return labelWidth + t/span*plotWidth }

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="monospace" font-size="12">`+"\n",
		r.width, height, r.width, height)
	buf.WriteString(`  <style>.play:hover { opacity: 0.75; } .clipped { stroke: #d62728; stroke-width: 2; }</style>` + "\n")
	if r.title != "" {
		fmt.Fprintf(&buf, `  <text x="%.1f" y="18" font-size="14" font-weight="bold">%s</text>`+"\n", labelWidth, html.EscapeString(r.title))
	}

	for i, ch := range res.Channels {
		y := top + float64(i)*(laneHeight+laneGap)
		fmt.Fprintf(&buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#f5f5f5"/>`+"\n", labelWidth, y, plotWidth, laneHeight)
		fmt.Fprintf(&buf, `  <text x="4" y="%.1f">%s</text>`+"\n", y+laneHeight/2+4, html.EscapeString(ch.Name))
	}

	for _, p := range res.Instructions {
		y := top + float64(p.Channel)*(laneHeight+laneGap)
		h := math.Max(math.Abs(p.Amplitude)/maxAmp*(laneHeight-4), 1)
		w := math.Max(x(p.Time+p.Duration())-x(p.Time), 1)
		class := "play"
		if p.Clipped {
			class += " clipped"
		}
		fmt.Fprintf(&buf, `  <rect class="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s">`,
			class, x(p.Time), y+laneHeight-2-h, w, h, palette[p.Channel%len(palette)])
		fmt.Fprintf(&buf, `<title>%s</title></rect>`+"\n", html.EscapeString(tooltip(res, p.Shape, r.unit, p.Time, p.Duration(), p.Amplitude, p.Phase)))
	}

	axisY := top + float64(lanes)*(laneHeight+laneGap)
	fmt.Fprintf(&buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black"/>`+"\n", labelWidth, axisY, labelWidth+plotWidth, axisY)
	for i := 0; i <= 4; i++ {
		t := span * float64(i) / 4
		anchor := "middle"
		switch i {
		case 0:
			anchor = "start"
		case 4:
			anchor = "end"
		}
		fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" text-anchor="%s">%s</text>`+"\n", x(t), axisY+18, anchor, r.unit.Format(t))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func tooltip(res *pipeline.Result, shape schedule.ShapeID, u render.TimeUnit, t, d, amp, phase float64) string {
	name := "rect"
	if shape != schedule.ShapeRect && int(shape) < len(res.Shapes) {
		name = res.Shapes[shape].Name
	}
	return fmt.Sprintf("%s @ %s for %s, amp %.4g, phase %.4f rad", name, u.Format(t), u.Format(d), amp, phase)
}
