package render

import "github.com/kryonlabs/kryon-render/krb"

// ApplyStyling runs the styling cascade and selective inheritance over
// an already-structurally-built Tree. A border color with zero width
// (or the reverse) is left as-is and simply not drawn; no width or
// color is synthesized.
func ApplyStyling(tree *Tree, doc *krb.Document) {
	for i := range tree.Nodes {
		resolveNode(&tree.Nodes[i], doc)
	}
	for _, root := range tree.Roots {
		inheritRecursive(tree, root, nil)
	}
}

func baseDefaults(n *Node) {
	n.BgColor = krb.RGBA{} // transparent
	n.FgColorSet = false
	n.BorderColor = krb.RGBA{}
	n.BorderWidths = [4]uint8{}
	n.Padding = [4]uint8{}
	n.TextAlignSet = false
	n.TextAlign = krb.TextAlignStart
	n.VisibleSet = false
	n.Visible = true
	n.FontSizeSet = false
	n.FontWeightSet = false
	n.Gap = 0
	n.MinWidth, n.MinHeight, n.MaxWidth, n.MaxHeight = Constraint{}, Constraint{}, Constraint{}, Constraint{}
}

func resolveNode(n *Node, doc *krb.Document) {
	baseDefaults(n)

	// Named style properties, in declaration order.
	if style := doc.StyleByID(n.Header.StyleID); style != nil {
		for _, p := range style.Properties {
			applyProperty(n, p, doc)
		}
	}
	// Direct element properties, overriding style.
	for _, p := range n.Properties {
		applyProperty(n, p, doc)
	}
	// Image-source/text-content resolution happens inline within
	// applyProperty, using the state as of the point they're encountered
	// in file order. Contextual defaulting is intentionally a no-op; see
	// the doc comment on ApplyStyling.
}

func applyProperty(n *Node, p krb.Property, doc *krb.Document) {
	switch p.ID {
	case krb.PropBgColor:
		if c, ok := p.Color(); ok {
			n.BgColor = c
		}
	case krb.PropFgColor:
		if c, ok := p.Color(); ok {
			n.FgColor = c
			n.FgColorSet = true
		}
	case krb.PropBorderColor:
		if c, ok := p.Color(); ok {
			n.BorderColor = c
		}
	case krb.PropBorderWidth:
		if w, err := p.EdgeInsets(); err == nil {
			n.BorderWidths = w
		}
	case krb.PropPadding:
		if w, err := p.EdgeInsets(); err == nil {
			n.Padding = w
		}
	case krb.PropTextContent:
		if idx, ok := p.StringIndex(); ok {
			if s, ok := doc.StringAt(idx); ok {
				n.Text = s
			}
		}
	case krb.PropFontSize:
		if v, ok := p.Short(); ok {
			n.FontSize, n.FontSizeSet = float32(v), true
		} else if v, ok := p.Byte(); ok {
			n.FontSize, n.FontSizeSet = float32(v), true
		}
	case krb.PropFontWeight:
		if v, ok := p.Byte(); ok {
			n.FontWeight, n.FontWeightSet = v, true
		}
	case krb.PropTextAlignment:
		if v, ok := p.Enum(); ok {
			n.TextAlign, n.TextAlignSet = v, true
		}
	case krb.PropImageSource:
		if idx, ok := p.ResourceIndex(); ok {
			n.ResourceIndex = idx
		}
	case krb.PropVisibility:
		if v, ok := p.Enum(); ok {
			n.Visible = krb.VisibilityValue(v) == krb.VisibilityVisible
			n.VisibleSet = true
		}
	case krb.PropGap:
		if v, ok := p.Short(); ok {
			n.Gap = float32(v)
		} else if v, ok := p.Byte(); ok {
			n.Gap = float32(v)
		}
	case krb.PropMinWidth:
		n.MinWidth = readConstraint(p)
	case krb.PropMinHeight:
		n.MinHeight = readConstraint(p)
	case krb.PropMaxWidth:
		n.MaxWidth = readConstraint(p)
	case krb.PropMaxHeight:
		n.MaxHeight = readConstraint(p)
	// PropMargin, PropOpacity, PropZIndex, PropBorderRadius, PropOverflow:
	// decoded (available on n.Properties for inspection) but not part of
	// the layout model; intentionally not applied here.
	default:
	}
}

func readConstraint(p krb.Property) Constraint {
	if v, ok := p.Percentage(); ok {
		return Constraint{Set: true, Percent: true, Value: v}
	}
	if v, ok := p.Short(); ok {
		return Constraint{Set: true, Value: float32(v)}
	}
	if v, ok := p.Byte(); ok {
		return Constraint{Set: true, Value: float32(v)}
	}
	return Constraint{}
}

// inheritRecursive walks the tree in pre-order, propagating exactly the
// five inheritable properties (foreground color, font size, font weight,
// text alignment, visibility) from parent to child whenever the child
// left that property unset.
func inheritRecursive(tree *Tree, nodeIdx int, parent *Node) {
	n := &tree.Nodes[nodeIdx]
	if parent != nil {
		if !n.FgColorSet {
			n.FgColor, n.FgColorSet = parent.FgColor, parent.FgColorSet
		}
		if !n.FontSizeSet {
			n.FontSize, n.FontSizeSet = parent.FontSize, parent.FontSizeSet
		}
		if !n.FontWeightSet {
			n.FontWeight, n.FontWeightSet = parent.FontWeight, parent.FontWeightSet
		}
		if !n.TextAlignSet {
			n.TextAlign, n.TextAlignSet = parent.TextAlign, parent.TextAlignSet
		}
		if !n.VisibleSet {
			n.Visible, n.VisibleSet = parent.Visible, parent.VisibleSet
		}
	}
	self := *n
	for _, c := range n.Children {
		inheritRecursive(tree, c, &self)
	}
}
