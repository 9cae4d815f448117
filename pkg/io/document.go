package io

import (
	"fmt"
	"strings"

	"github.com/kahojyun/pulsegen/pkg/channel"
	"github.com/kahojyun/pulsegen/pkg/errors"
	"github.com/kahojyun/pulsegen/pkg/pipeline"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// Document is a decoded schedule document. Channel and shape references in
// the schedule are still names; [Document.Request] resolves them against
// Channels and Shapes, so callers may replace Channels (for example with a
// TOML channel table) before resolving.
type Document struct {
	Channels []channel.Info
	Shapes   []schedule.Shape
	Options  DocumentOptions

	root *node
}

// DocumentOptions are compile options carried inside a document. Zero values
// defer to the caller's configuration.
type DocumentOptions struct {
	RootDuration float64 `json:"root_duration,omitempty" yaml:"root_duration,omitempty"`
	Quantize     string  `json:"quantize,omitempty" yaml:"quantize,omitempty"`
}

// Apply overlays non-zero document options onto opts.
func (o DocumentOptions) Apply(opts pipeline.Options) pipeline.Options {
	if o.RootDuration != 0 {
		opts.RootDuration = o.RootDuration
	}
	if o.Quantize != "" {
		opts.Quantize = o.Quantize
	}
	return opts
}

// HasSchedule reports whether the document carries a schedule tree.
func (d *Document) HasSchedule() bool { return d.root != nil }

// Request resolves channel and shape names and builds the element tree.
func (d *Document) Request() (pipeline.Request, error) {
	if d.root == nil {
		return pipeline.Request{}, errors.New(errors.ErrCodeInvalidInput, "document has no schedule")
	}
	r := resolver{channels: d.Channels, shapes: d.Shapes}
	root, err := r.element(d.root, "schedule")
	if err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{Channels: d.Channels, Shapes: d.Shapes, Schedule: root}, nil
}

// FromRequest builds a document from a resolved request, naming channels and
// shapes by the request's tables.
func FromRequest(req pipeline.Request) (*Document, error) {
	n, err := encodeElement(req, req.Schedule)
	if err != nil {
		return nil, err
	}
	return &Document{Channels: req.Channels, Shapes: req.Shapes, root: n}, nil
}

// =============================================================================
// Wire format
// =============================================================================

// wireDoc is the shared JSON/YAML shape of a document.
type wireDoc struct {
	Channels []channel.Info   `json:"channels,omitempty" yaml:"channels,omitempty"`
	Shapes   []wireShape      `json:"shapes,omitempty" yaml:"shapes,omitempty"`
	Options  *DocumentOptions `json:"options,omitempty" yaml:"options,omitempty"`
	Schedule *node            `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

type wireShape struct {
	Name string    `json:"name" yaml:"name"`
	Kind string    `json:"kind" yaml:"kind"`
	X    []float64 `json:"x,omitempty" yaml:"x,omitempty,flow"`
	Y    []float64 `json:"y,omitempty" yaml:"y,omitempty,flow"`
}

// node is one element of the schedule tree. A single flat struct covers every
// variant; Type selects which fields apply.
type node struct {
	Type string `json:"type" yaml:"type"`

	Margin      []float64 `json:"margin,omitempty" yaml:"margin,omitempty,flow"`
	Alignment   string    `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	Hidden      bool      `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Duration    *float64  `json:"duration,omitempty" yaml:"duration,omitempty"`
	MaxDuration *float64  `json:"max_duration,omitempty" yaml:"max_duration,omitempty"`
	MinDuration float64   `json:"min_duration,omitempty" yaml:"min_duration,omitempty"`

	// Placement inside an absolute or grid parent.
	Time   float64 `json:"time,omitempty" yaml:"time,omitempty"`
	Column int     `json:"column,omitempty" yaml:"column,omitempty"`
	Span   int     `json:"span,omitempty" yaml:"span,omitempty"`

	Channel   string   `json:"channel,omitempty" yaml:"channel,omitempty"`
	Channel1  string   `json:"channel1,omitempty" yaml:"channel1,omitempty"`
	Channel2  string   `json:"channel2,omitempty" yaml:"channel2,omitempty"`
	Channels  []string `json:"channels,omitempty" yaml:"channels,omitempty,flow"`
	Amplitude float64  `json:"amplitude,omitempty" yaml:"amplitude,omitempty"`
	Shape     string   `json:"shape,omitempty" yaml:"shape,omitempty"`
	Width     float64  `json:"width,omitempty" yaml:"width,omitempty"`
	Plateau   float64  `json:"plateau,omitempty" yaml:"plateau,omitempty"`
	DragCoef  float64  `json:"drag_coef,omitempty" yaml:"drag_coef,omitempty"`
	Frequency float64  `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Phase     float64  `json:"phase,omitempty" yaml:"phase,omitempty"`
	Flexible  bool     `json:"flexible,omitempty" yaml:"flexible,omitempty"`

	Direction string   `json:"direction,omitempty" yaml:"direction,omitempty"`
	Columns   []string `json:"columns,omitempty" yaml:"columns,omitempty,flow"`
	Count     int      `json:"count,omitempty" yaml:"count,omitempty"`
	Spacing   float64  `json:"spacing,omitempty" yaml:"spacing,omitempty"`
	Child     *node    `json:"child,omitempty" yaml:"child,omitempty"`
	Children  []*node  `json:"children,omitempty" yaml:"children,omitempty"`
}

func (w *wireDoc) document() (*Document, error) {
	d := &Document{Channels: w.Channels, root: w.Schedule}
	if w.Options != nil {
		d.Options = *w.Options
	}
	for _, s := range w.Shapes {
		d.Shapes = append(d.Shapes, schedule.Shape{
			Name: s.Name, Kind: schedule.ShapeKind(strings.ToLower(s.Kind)), X: s.X, Y: s.Y,
		})
	}
	return d, nil
}

func (d *Document) wire() *wireDoc {
	w := &wireDoc{Channels: d.Channels, Schedule: d.root}
	if d.Options != (DocumentOptions{}) {
		o := d.Options
		w.Options = &o
	}
	for _, s := range d.Shapes {
		w.Shapes = append(w.Shapes, wireShape{Name: s.Name, Kind: string(s.Kind), X: s.X, Y: s.Y})
	}
	return w
}

// =============================================================================
// Name resolution
// =============================================================================

// childPath mirrors schedule.ChildPath for nodes that are not built yet.
func childPath(parent, typ string, i int) string {
	return fmt.Sprintf("%s/%s[%d]", parent, strings.ToLower(typ), i)
}

type resolver struct {
	channels []channel.Info
	shapes   []schedule.Shape
}

func (r *resolver) channel(name, path string) (int, error) {
	if name == "" {
		return 0, errors.New(errors.ErrCodeInvalidElement, "%s: channel is required", path)
	}
	i, err := channel.Lookup(r.channels, name)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeUnknownChannel, err, "%s", path)
	}
	return i, nil
}

func (r *resolver) shape(name, path string) (schedule.ShapeID, error) {
	if name == "" || strings.EqualFold(name, "rect") {
		return schedule.ShapeRect, nil
	}
	for i, s := range r.shapes {
		if s.Name == name {
			return schedule.ShapeID(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeUnknownShape, "%s: unknown shape %q", path, name)
}

func (r *resolver) common(n *node, path string) (schedule.Common, error) {
	c := schedule.Common{
		Hidden:      n.Hidden,
		Duration:    n.Duration,
		MaxDuration: n.MaxDuration,
		MinDuration: n.MinDuration,
	}
	switch len(n.Margin) {
	case 0:
	case 1:
		c.Margin = schedule.Uniform(n.Margin[0])
	case 2:
		c.Margin = schedule.Margin{Before: n.Margin[0], After: n.Margin[1]}
	default:
		return c, errors.New(errors.ErrCodeInvalidElement, "%s: margin takes one or two values, got %d", path, len(n.Margin))
	}
	if n.Alignment != "" {
		a, err := schedule.ParseAlignment(n.Alignment)
		if err != nil {
			return c, errors.Wrap(errors.ErrCodeInvalidElement, err, "%s", path)
		}
		c.Alignment = a
	}
	return c, nil
}

func (r *resolver) children(ns []*node, path string) ([]schedule.Element, error) {
	out := make([]schedule.Element, len(ns))
	for i, c := range ns {
		if c == nil {
			return nil, errors.New(errors.ErrCodeInvalidElement, "%s: child %d is empty", path, i)
		}
		e, err := r.element(c, childPath(path, c.Type, i))
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (r *resolver) element(n *node, path string) (schedule.Element, error) {
	c, err := r.common(n, path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(n.Type) {
	case "play":
		ch, err := r.channel(n.Channel, path)
		if err != nil {
			return nil, err
		}
		shape, err := r.shape(n.Shape, path)
		if err != nil {
			return nil, err
		}
		return &schedule.Play{
			Common: c, Channel: ch, Amplitude: n.Amplitude, Shape: shape,
			Width: n.Width, Plateau: n.Plateau, DragCoef: n.DragCoef,
			Frequency: n.Frequency, Phase: n.Phase, Flexible: n.Flexible,
		}, nil
	case "shift_phase", "set_phase":
		ch, err := r.channel(n.Channel, path)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(n.Type, "set_phase") {
			return &schedule.SetPhase{Common: c, Channel: ch, Phase: n.Phase}, nil
		}
		return &schedule.ShiftPhase{Common: c, Channel: ch, Phase: n.Phase}, nil
	case "shift_frequency", "set_frequency":
		ch, err := r.channel(n.Channel, path)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(n.Type, "set_frequency") {
			return &schedule.SetFrequency{Common: c, Channel: ch, Frequency: n.Frequency}, nil
		}
		return &schedule.ShiftFrequency{Common: c, Channel: ch, Frequency: n.Frequency}, nil
	case "swap_phase":
		a, err := r.channel(n.Channel1, path)
		if err != nil {
			return nil, err
		}
		b, err := r.channel(n.Channel2, path)
		if err != nil {
			return nil, err
		}
		return &schedule.SwapPhase{Common: c, Channel1: a, Channel2: b}, nil
	case "barrier":
		b := &schedule.Barrier{Common: c}
		for _, name := range n.Channels {
			ch, err := r.channel(name, path)
			if err != nil {
				return nil, err
			}
			b.Channels = append(b.Channels, ch)
		}
		return b, nil
	case "repeat":
		if n.Child == nil {
			return nil, errors.New(errors.ErrCodeInvalidElement, "%s: repeat needs a child", path)
		}
		child, err := r.element(n.Child, childPath(path, n.Child.Type, 0))
		if err != nil {
			return nil, err
		}
		return &schedule.Repeat{Common: c, Child: child, Count: n.Count, Spacing: n.Spacing}, nil
	case "stack":
		dir, err := schedule.ParseDirection(n.Direction)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidElement, err, "%s", path)
		}
		kids, err := r.children(n.Children, path)
		if err != nil {
			return nil, err
		}
		return &schedule.Stack{Common: c, Children: kids, Direction: dir}, nil
	case "absolute":
		kids, err := r.children(n.Children, path)
		if err != nil {
			return nil, err
		}
		a := &schedule.Absolute{Common: c}
		for i, k := range kids {
			a.Entries = append(a.Entries, schedule.AbsoluteEntry{Time: n.Children[i].Time, Element: k})
		}
		return a, nil
	case "grid":
		g := &schedule.Grid{Common: c}
		for _, s := range n.Columns {
			gl, err := schedule.ParseGridLength(s)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidColumnSpec, err, "%s", path)
			}
			g.Columns = append(g.Columns, gl)
		}
		kids, err := r.children(n.Children, path)
		if err != nil {
			return nil, err
		}
		for i, k := range kids {
			g.Entries = append(g.Entries, schedule.GridEntry{Column: n.Children[i].Column, Span: n.Children[i].Span, Element: k})
		}
		return g, nil
	case "":
		return nil, errors.New(errors.ErrCodeInvalidElement, "%s: element type is required", path)
	}
	return nil, errors.New(errors.ErrCodeInvalidElement, "%s: unknown element type %q", path, n.Type)
}

// =============================================================================
// Encoding
// =============================================================================

func channelName(req pipeline.Request, ch int) (string, error) {
	if ch < 0 || ch >= len(req.Channels) {
		return "", errors.New(errors.ErrCodeUnknownChannel, "channel %d is not configured (have %d)", ch, len(req.Channels))
	}
	return req.Channels[ch].Name, nil
}

func encodeElement(req pipeline.Request, e schedule.Element) (*node, error) {
	if e == nil {
		return nil, errors.New(errors.ErrCodeInvalidElement, "schedule has no root element")
	}
	c := e.Attrs()
	n := &node{
		Type:        schedule.Kind(e),
		Hidden:      c.Hidden,
		Duration:    c.Duration,
		MaxDuration: c.MaxDuration,
		MinDuration: c.MinDuration,
	}
	switch {
	case c.Margin.Before == c.Margin.After && c.Margin.Before != 0:
		n.Margin = []float64{c.Margin.Before}
	case c.Margin != (schedule.Margin{}):
		n.Margin = []float64{c.Margin.Before, c.Margin.After}
	}
	if c.Alignment != schedule.AlignEnd {
		n.Alignment = c.Alignment.String()
	}

	var err error
	switch v := e.(type) {
	case *schedule.Play:
		n.Channel, err = channelName(req, v.Channel)
		n.Amplitude, n.Width, n.Plateau = v.Amplitude, v.Width, v.Plateau
		n.DragCoef, n.Frequency, n.Phase, n.Flexible = v.DragCoef, v.Frequency, v.Phase, v.Flexible
		if v.Shape != schedule.ShapeRect {
			if int(v.Shape) < 0 || int(v.Shape) >= len(req.Shapes) {
				return nil, errors.New(errors.ErrCodeUnknownShape, "shape %d is not defined (have %d)", int(v.Shape), len(req.Shapes))
			}
			n.Shape = req.Shapes[v.Shape].Name
		}
	case *schedule.ShiftPhase:
		n.Channel, err = channelName(req, v.Channel)
		n.Phase = v.Phase
	case *schedule.SetPhase:
		n.Channel, err = channelName(req, v.Channel)
		n.Phase = v.Phase
	case *schedule.ShiftFrequency:
		n.Channel, err = channelName(req, v.Channel)
		n.Frequency = v.Frequency
	case *schedule.SetFrequency:
		n.Channel, err = channelName(req, v.Channel)
		n.Frequency = v.Frequency
	case *schedule.SwapPhase:
		if n.Channel1, err = channelName(req, v.Channel1); err == nil {
			n.Channel2, err = channelName(req, v.Channel2)
		}
	case *schedule.Barrier:
		for _, ch := range v.Channels {
			name, cerr := channelName(req, ch)
			if cerr != nil {
				return nil, cerr
			}
			n.Channels = append(n.Channels, name)
		}
	case *schedule.Repeat:
		n.Count, n.Spacing = v.Count, v.Spacing
		n.Child, err = encodeElement(req, v.Child)
	case *schedule.Stack:
		if v.Direction != schedule.Backwards {
			n.Direction = v.Direction.String()
		}
		for _, k := range v.Children {
			kn, kerr := encodeElement(req, k)
			if kerr != nil {
				return nil, kerr
			}
			n.Children = append(n.Children, kn)
		}
	case *schedule.Absolute:
		for _, ent := range v.Entries {
			kn, kerr := encodeElement(req, ent.Element)
			if kerr != nil {
				return nil, kerr
			}
			kn.Time = ent.Time
			n.Children = append(n.Children, kn)
		}
	case *schedule.Grid:
		for _, col := range v.Columns {
			n.Columns = append(n.Columns, col.String())
		}
		for _, ent := range v.Entries {
			kn, kerr := encodeElement(req, ent.Element)
			if kerr != nil {
				return nil, kerr
			}
			kn.Column = ent.Column
			if ent.Span > 1 {
				kn.Span = ent.Span
			}
			n.Children = append(n.Children, kn)
		}
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

