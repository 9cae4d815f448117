package io

import (
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/kahojyun/pulsegen/pkg/channel"
	"github.com/kahojyun/pulsegen/pkg/errors"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// HCL documents spell the tree as nested blocks. Block order is significant:
// children are laid out in source order regardless of their type.
//
//	channel "xy0" {
//	  base_freq   = 100e6
//	  sample_rate = 2e9
//	}
//
//	shape "hann" {
//	  kind = "hann"
//	}
//
//	schedule {
//	  stack {
//	    direction = "forwards"
//	    play {
//	      channel   = "xy0"
//	      amplitude = 0.5
//	      shape     = "hann"
//	      width     = 30e-9
//	    }
//	    barrier {}
//	  }
//	}

// Name fields are filled from the block label.
type hclChannel struct {
	Name          string
	BaseFrequency float64 `hcl:"base_freq,optional"`
	SampleRate    float64 `hcl:"sample_rate"`
	Delay         float64 `hcl:"delay,optional"`
	Length        int     `hcl:"length,optional"`
	AlignLevel    int     `hcl:"align_level,optional"`
}

type hclShape struct {
	Name string
	Kind string    `hcl:"kind"`
	X    []float64 `hcl:"x,optional"`
	Y    []float64 `hcl:"y,optional"`
}

type hclOptions struct {
	RootDuration float64 `hcl:"root_duration,optional"`
	Quantize     string  `hcl:"quantize,optional"`
}

// ReadHCL decodes an HCL schedule document. filename is used in diagnostics.
func ReadHCL(src []byte, filename string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, diags, "parse hcl")
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "unexpected hcl body %T", file.Body)
	}
	if len(body.Attributes) > 0 {
		for _, name := range sortedAttrs(body) {
			a := body.Attributes[name]
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unexpected attribute",
				Detail:   fmt.Sprintf("top-level attribute %q is not allowed; use channel, shape, options or schedule blocks", name),
				Subject:  a.SrcRange.Ptr(),
			})
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, diags, "decode hcl")
	}

	doc := &Document{}
	for _, b := range body.Blocks {
		switch b.Type {
		case "channel":
			var c hclChannel
			if diags := decodeLabelled(b, &c, &c.Name); diags.HasErrors() {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, diags, "decode hcl")
			}
			doc.Channels = append(doc.Channels, channel.Info(c))
		case "shape":
			var s hclShape
			if diags := decodeLabelled(b, &s, &s.Name); diags.HasErrors() {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, diags, "decode hcl")
			}
			doc.Shapes = append(doc.Shapes, schedule.Shape{Name: s.Name, Kind: schedule.ShapeKind(s.Kind), X: s.X, Y: s.Y})
		case "options":
			var o hclOptions
			if diags := gohcl.DecodeBody(b.Body, nil, &o); diags.HasErrors() {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, diags, "decode hcl")
			}
			doc.Options = DocumentOptions(o)
		case "schedule":
			if doc.root != nil {
				return nil, blockError(b, "Duplicate schedule block", "a document holds exactly one schedule")
			}
			if len(b.Body.Blocks) != 1 || len(b.Body.Attributes) != 0 {
				return nil, blockError(b, "Invalid schedule block", "the schedule block must contain exactly one element block")
			}
			n, err := hclNode(b.Body.Blocks[0])
			if err != nil {
				return nil, err
			}
			doc.root = n
		default:
			return nil, blockError(b, "Unsupported block type", fmt.Sprintf("blocks of type %q are not expected here", b.Type))
		}
	}
	return doc, nil
}

// decodeLabelled decodes a block with one name label into target and stores
// the label in name.
func decodeLabelled(b *hclsyntax.Block, target any, name *string) hcl.Diagnostics {
	if len(b.Labels) != 1 {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Missing name label",
			Detail:   fmt.Sprintf("a %s block takes exactly one name label", b.Type),
			Subject:  b.DefRange().Ptr(),
		}}
	}
	*name = b.Labels[0]
	return gohcl.DecodeBody(b.Body, nil, target)
}

func blockError(b *hclsyntax.Block, summary, detail string) error {
	return errors.Wrap(errors.ErrCodeInvalidFormat, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  b.DefRange().Ptr(),
	}}, "decode hcl")
}

func sortedAttrs(body *hclsyntax.Body) []string {
	names := make([]string, 0, len(body.Attributes))
	for name := range body.Attributes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// hclNode converts an element block and its nested blocks into a node.
func hclNode(b *hclsyntax.Block) (*node, error) {
	if len(b.Labels) != 0 {
		return nil, blockError(b, "Unexpected label", "element blocks take no labels")
	}
	n := &node{Type: b.Type}
	var diags hcl.Diagnostics
	for _, name := range sortedAttrs(b.Body) {
		diags = append(diags, n.setAttr(b.Body.Attributes[name])...)
	}
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, diags, "decode hcl")
	}

	for _, cb := range b.Body.Blocks {
		c, err := hclNode(cb)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, c)
	}
	if b.Type == "repeat" {
		if len(n.Children) != 1 {
			return nil, blockError(b, "Invalid repeat block", "a repeat block must contain exactly one element block")
		}
		n.Child, n.Children = n.Children[0], nil
	}
	return n, nil
}

// setAttr evaluates one attribute into the matching node field. Expressions
// are evaluated without variables or functions.
func (n *node) setAttr(a *hclsyntax.Attribute) hcl.Diagnostics {
	var (
		ty     cty.Type
		target any
		dur    float64
	)
	switch a.Name {
	case "margin", "channels", "columns":
		v, diags := a.Expr.Value(nil)
		if diags.HasErrors() {
			return diags
		}
		if v.Type() == cty.Number && a.Name == "margin" {
			v = cty.TupleVal([]cty.Value{v})
		}
		switch a.Name {
		case "margin":
			return attrValue(a, v, cty.List(cty.Number), &n.Margin)
		case "channels":
			return attrValue(a, v, cty.List(cty.String), &n.Channels)
		default:
			return attrValue(a, v, cty.List(cty.String), &n.Columns)
		}
	case "duration", "max_duration":
		ty, target = cty.Number, &dur
	case "alignment":
		ty, target = cty.String, &n.Alignment
	case "hidden":
		ty, target = cty.Bool, &n.Hidden
	case "min_duration":
		ty, target = cty.Number, &n.MinDuration
	case "time":
		ty, target = cty.Number, &n.Time
	case "column":
		ty, target = cty.Number, &n.Column
	case "span":
		ty, target = cty.Number, &n.Span
	case "channel":
		ty, target = cty.String, &n.Channel
	case "channel1":
		ty, target = cty.String, &n.Channel1
	case "channel2":
		ty, target = cty.String, &n.Channel2
	case "amplitude":
		ty, target = cty.Number, &n.Amplitude
	case "shape":
		ty, target = cty.String, &n.Shape
	case "width":
		ty, target = cty.Number, &n.Width
	case "plateau":
		ty, target = cty.Number, &n.Plateau
	case "drag_coef":
		ty, target = cty.Number, &n.DragCoef
	case "frequency":
		ty, target = cty.Number, &n.Frequency
	case "phase":
		ty, target = cty.Number, &n.Phase
	case "flexible":
		ty, target = cty.Bool, &n.Flexible
	case "direction":
		ty, target = cty.String, &n.Direction
	case "count":
		ty, target = cty.Number, &n.Count
	case "spacing":
		ty, target = cty.Number, &n.Spacing
	default:
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported argument",
			Detail:   fmt.Sprintf("an argument named %q is not expected here", a.Name),
			Subject:  a.SrcRange.Ptr(),
		}}
	}

	v, diags := a.Expr.Value(nil)
	if diags.HasErrors() {
		return diags
	}
	diags = append(diags, attrValue(a, v, ty, target)...)
	if !diags.HasErrors() && target == &dur {
		d := dur
		if a.Name == "duration" {
			n.Duration = &d
		} else {
			n.MaxDuration = &d
		}
	}
	return diags
}

func attrValue(a *hclsyntax.Attribute, v cty.Value, ty cty.Type, target any) hcl.Diagnostics {
	cv, err := convert.Convert(v, ty)
	if err == nil {
		err = gocty.FromCtyValue(cv, target)
	}
	if err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid argument value",
			Detail:   fmt.Sprintf("%s: %s", a.Name, err),
			Subject:  a.SrcRange.Ptr(),
		}}
	}
	return nil
}
