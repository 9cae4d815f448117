package timeline

import (
	"strings"
	"testing"

	"github.com/kahojyun/pulsegen/pkg/channel"
	"github.com/kahojyun/pulsegen/pkg/phase"
	"github.com/kahojyun/pulsegen/pkg/pipeline"
	"github.com/kahojyun/pulsegen/pkg/render"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

func result() *pipeline.Result {
	return &pipeline.Result{
		Duration: 100e-9,
		Channels: []channel.Info{{Name: "xy0"}, {Name: "m<0>"}},
		Shapes:   []schedule.Shape{{Name: "hann", Kind: schedule.ShapeHann}},
		Instructions: []phase.ResolvedPlay{
			{Channel: 0, ChannelName: "xy0", Time: 0, Width: 40e-9, Amplitude: 0.5, Shape: 0},
			{Channel: 1, ChannelName: "m<0>", Time: 60e-9, Width: 20e-9, Plateau: 40e-9, Amplitude: 1, Shape: schedule.ShapeRect, Clipped: true},
		},
	}
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(result(), WithWidth(800), WithTitle("ramsey & echo")))

	for _, want := range []string{
		`width="800"`,
		"ramsey &amp; echo",
		"m&lt;0&gt;",
		`class="play clipped"`,
		"hann @ 0 ns for 40 ns",
		"rect @ 60 ns for 60 ns",
		"120 ns", // axis extends to the end of the clipped play
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q", want)
		}
	}
	if got := strings.Count(svg, `<rect class="play`); got != 2 {
		t.Errorf("rendered %d play bars, want 2", got)
	}
}

func TestRenderSVGUnitsAndEmpty(t *testing.T) {
	svg := string(RenderSVG(result(), WithUnit(render.Microseconds)))
	if !strings.Contains(svg, "0.12 us") {
		t.Error("axis should be labelled in microseconds")
	}

	empty := string(RenderSVG(&pipeline.Result{}))
	if !strings.HasPrefix(empty, "<svg") || !strings.HasSuffix(empty, "</svg>\n") {
		t.Errorf("empty result should still render a document, got %q", empty)
	}
}
