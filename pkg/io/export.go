package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kahojyun/pulsegen/pkg/phase"
	"github.com/kahojyun/pulsegen/pkg/pipeline"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// ResultJSON is the exported form of a compilation result. The HTTP API
// returns the same structure.
type ResultJSON struct {
	ID           string            `json:"id"`
	Duration     float64           `json:"duration"`
	Instructions []InstructionJSON `json:"instructions"`
	Stats        StatsJSON         `json:"stats"`
}

// InstructionJSON is one resolved play. Shape is the shape name, or "rect".
type InstructionJSON struct {
	Channel          string  `json:"channel"`
	Time             float64 `json:"time"`
	LogicalTime      float64 `json:"logical_time"`
	Shape            string  `json:"shape"`
	Width            float64 `json:"width"`
	Plateau          float64 `json:"plateau"`
	Amplitude        float64 `json:"amplitude"`
	DragCoef         float64 `json:"drag_coef,omitempty"`
	Frequency        float64 `json:"frequency"`
	CarrierFrequency float64 `json:"carrier_frequency"`
	PhaseOffset      float64 `json:"phase_offset"`
	Phase            float64 `json:"phase"`
	Clipped          bool    `json:"clipped,omitempty"`
}

// StatsJSON mirrors pipeline.Stats with durations in milliseconds.
type StatsJSON struct {
	Nodes        int     `json:"nodes"`
	Items        int     `json:"items"`
	Plays        int     `json:"plays"`
	Dropped      int     `json:"dropped"`
	Clipped      int     `json:"clipped"`
	ElapsedMilli float64 `json:"elapsed_ms"`
}

// NewResultJSON converts a compilation result for export.
func NewResultJSON(r *pipeline.Result) ResultJSON {
	out := ResultJSON{
		ID:           r.ID,
		Duration:     r.Duration,
		Instructions: make([]InstructionJSON, len(r.Instructions)),
		Stats: StatsJSON{
			Nodes:        r.Stats.NodeCount,
			Items:        r.Stats.ItemCount,
			Plays:        r.Stats.PlayCount,
			Dropped:      r.Stats.DroppedPlays,
			Clipped:      r.Stats.ClippedPlays,
			ElapsedMilli: float64(r.Stats.Total().Microseconds()) / 1000,
		},
	}
	for i, p := range r.Instructions {
		out.Instructions[i] = instructionJSON(p, r.Shapes)
	}
	return out
}

func instructionJSON(p phase.ResolvedPlay, shapes []schedule.Shape) InstructionJSON {
	shape := "rect"
	if p.Shape != schedule.ShapeRect && int(p.Shape) < len(shapes) {
		shape = shapes[p.Shape].Name
	}
	return InstructionJSON{
		Channel:          p.ChannelName,
		Time:             p.Time,
		LogicalTime:      p.LogicalTime,
		Shape:            shape,
		Width:            p.Width,
		Plateau:          p.Plateau,
		Amplitude:        p.Amplitude,
		DragCoef:         p.DragCoef,
		Frequency:        p.Frequency,
		CarrierFrequency: p.CarrierFrequency,
		PhaseOffset:      p.PhaseOffset,
		Phase:            p.Phase,
		Clipped:          p.Clipped,
	}
}

// WriteResult encodes a compilation result as indented JSON.
func WriteResult(r *pipeline.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewResultJSON(r)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportResult writes a compilation result to a JSON file at path.
// This is a convenience wrapper around [WriteResult] for file-based output.
func ExportResult(r *pipeline.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteResult(r, f)
}
