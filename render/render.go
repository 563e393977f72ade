// Package render builds a render-node tree from a decoded KRB document,
// expands component instances, resolves the styling cascade and
// selective inheritance, and runs the flex-like layout engine over the
// result.
package render

import (
	"github.com/kryonlabs/kryon-render/krb"
)

const (
	// InvalidIndex marks an absent arena reference (no parent, no slot,
	// no targeted node).
	InvalidIndex = -1
	// InvalidResourceIndex marks "no resource" on a node, distinct from
	// InvalidIndex since it is stored as a uint8 matching the wire format.
	InvalidResourceIndex = 0xFF

	// BaseFontSize is the fallback font size (px) used when no FontSize
	// property and no inherited value apply.
	BaseFontSize float32 = 18.0
)

// EventBinding is one decoded event entry resolved against the string table.
type EventBinding struct {
	Type        krb.EventType
	HandlerName string
}

// Node is a single render node: an element plus its resolved visual and
// geometric state. Nodes live in a flat arena (Tree.Nodes) addressed by
// stable int index; Parent is a weak index (InvalidIndex if root),
// Children holds strong (owning) indices. Indices stay valid when
// component expansion grows the arena, where pointers into the backing
// slice would not survive an append.
type Node struct {
	SourceIndex int // index into the originating krb.Document.Elements this node's identity/template root was populated from
	Header      krb.ElementHeader
	SourceName  string // element ID string, for diagnostics and slot search

	ParentIndex int
	Children    []int

	// Direct properties and custom properties as they stand after any
	// component-instance override merge, consumed by the styling cascade
	// to produce the resolved fields below.
	Properties      []krb.Property
	CustomProps     []krb.Property
	ComponentName   string // non-empty if this node is (still) an unexpanded component instance

	// Resolved visual state (styling cascade plus inheritance).
	BgColor       krb.RGBA
	FgColorSet    bool
	FgColor       krb.RGBA
	BorderColor   krb.RGBA
	BorderWidths  [4]uint8 // top, right, bottom, left
	Padding       [4]uint8
	FontSizeSet   bool
	FontSize      float32
	FontWeightSet bool
	FontWeight    uint8
	TextAlignSet  bool
	TextAlign     uint8
	VisibleSet    bool
	Visible       bool

	Text          string
	ResourceIndex uint8 // InvalidResourceIndex if unset

	Gap       float32
	MinWidth  Constraint
	MinHeight Constraint
	MaxWidth  Constraint
	MaxHeight Constraint

	Events []EventBinding

	// Computed geometry, in pixels.
	RenderX, RenderY, RenderW, RenderH float32

	// Explicit flags distinguish "no size given" (content-hug/stretch
	// eligible) from "resolved to zero". FromDefault flags mark axes
	// whose value fell back to the parent content area or viewport
	// rather than measured text/texture content; only those stretch on
	// the cross axis.
	WidthExplicit, HeightExplicit       bool
	WidthFromDefault, HeightFromDefault bool

	State NodeState
}

// Constraint is a resolved min/max width or height: either unset, a fixed
// pixel value, or a percentage of the parent's content box resolved at
// layout time.
type Constraint struct {
	Set     bool
	Percent bool
	Value   float32 // pixels if !Percent, else a 0..1+ multiplier
}

// Resolve returns the constraint in pixels given the reference dimension
// (the parent's content-box size on the relevant axis).
func (c Constraint) Resolve(reference float32) (float32, bool) {
	if !c.Set {
		return 0, false
	}
	if c.Percent {
		return c.Value * reference, true
	}
	return c.Value, true
}

// EffectiveFontSize returns the node's font size, falling back to
// BaseFontSize when neither set directly nor inherited. The cascade
// itself has no font-size default; the fallback belongs to layout and
// drawing.
func (n *Node) EffectiveFontSize() float32 {
	if n.FontSizeSet {
		return n.FontSize
	}
	return BaseFontSize
}

// NodeState is the per-frame layout state machine. Custom-component
// handlers operate on Placed nodes and may return a subtree to Measured
// for a local re-layout.
type NodeState int

const (
	StateUnmeasured NodeState = iota
	StateMeasured
	StatePlaced
)

// Tree is a full render-node arena plus its root indices and the source
// document it was built from.
type Tree struct {
	Doc   *krb.Document
	Nodes []Node
	Roots []int

	// Diagnostics collects non-fatal build issues: link failures,
	// missing components, missing slots.
	Diagnostics []error
}

// WindowConfig mirrors the App element's resolved window properties.
type WindowConfig struct {
	Width       int
	Height      int
	Title       string
	Resizable   bool
	ScaleFactor float32
	DefaultBg   krb.RGBA
}

// DefaultWindowConfig returns the fallback configuration used when the
// document has no App element or the App element omits a property.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:       800,
		Height:      600,
		Title:       "Kryon Application",
		Resizable:   true,
		ScaleFactor: 1.0,
		DefaultBg:   krb.RGBA{R: 30, G: 30, B: 30, A: 255},
	}
}

// TextureHandle is an opaque backend-owned texture reference (C7). The
// engine never inspects its contents, only passes it back to the backend.
type TextureHandle any

// Backend is the capability set a concrete graphics backend exposes to
// the engine. The engine never names a concrete backend; it is selected
// at startup by the caller.
type Backend interface {
	Initialize(config WindowConfig) error
	MeasureText(text string, fontSizePx float32) (widthPx, heightPx float32)
	LoadTexture(doc *krb.Document, resourceIndex uint8) (TextureHandle, error)

	DrawRect(x, y, w, h float32, color krb.RGBA)
	DrawText(text string, x, y, fontSizePx float32, color krb.RGBA)
	DrawTexture(handle TextureHandle, x, y, w, h float32)
	PushScissor(x, y, w, h float32)
	PopScissor()

	PollEvents() []InputEvent
	ShouldClose() bool
	BeginFrame()
	EndFrame()
}

// InputEvent is a single backend-reported input occurrence consumed by
// the event-handler registry; the engine only routes it.
type InputEvent struct {
	Type       krb.EventType
	NodeHint   int // node index the backend believes was targeted, or InvalidIndex
}

// CustomComponentHandler adjusts layout for one recognized component
// identifier after the standard layout pass.
type CustomComponentHandler interface {
	// HandleLayoutAdjustment runs after the first full layout pass. It may
	// resize/reposition node and adjust sibling geometry; relayout is the
	// callback it must use to re-run C5 on node's own children with a new
	// content box, rather than mutating the tree directly.
	HandleLayoutAdjustment(tree *Tree, nodeIndex int, relayout func(nodeIndex int, contentX, contentY, contentW, contentH float32)) error
}
