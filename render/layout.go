package render

import "github.com/kryonlabs/kryon-render/krb"

// MeasureTextFunc measures single-line text at a pixel font size. The
// engine never shapes text itself; measurement is the caller's.
type MeasureTextFunc func(text string, fontSizePx float32) (width, height float32)

// TextureSizeFunc returns the pixel dimensions of a loaded image
// resource, or ok=false if it has not been loaded.
type TextureSizeFunc func(doc *krb.Document, resourceIndex uint8) (width, height int, ok bool)

// RunLayout computes pixel geometry for every root in tree, in a
// deterministic single pass per node, ordered parent before children.
func RunLayout(tree *Tree, doc *krb.Document, scale float32, viewportW, viewportH float32, measure MeasureTextFunc, textureSize TextureSizeFunc) {
	e := &layoutEngine{tree: tree, doc: doc, scale: scale, measure: measure, textureSize: textureSize}
	for _, root := range tree.Roots {
		n := &tree.Nodes[root]
		e.sizeNode(root, viewportW, viewportH, true)
		n.RenderX, n.RenderY = 0, 0
		n.State = StateMeasured
		e.layoutChildren(root)
		e.clamp(root, viewportW, viewportH)
		n.State = StatePlaced
	}
}

// NewRelayoutFunc returns the callback custom-component handlers use to
// re-run layout over a node's children after adjusting that node's own
// frame.
func NewRelayoutFunc(tree *Tree, doc *krb.Document, scale float32, measure MeasureTextFunc, textureSize TextureSizeFunc) func(nodeIndex int, contentX, contentY, contentW, contentH float32) {
	e := &layoutEngine{tree: tree, doc: doc, scale: scale, measure: measure, textureSize: textureSize}
	return func(nodeIndex int, contentX, contentY, contentW, contentH float32) {
		e.layoutChildrenInBox(nodeIndex, contentX, contentY, contentW, contentH)
	}
}

type layoutEngine struct {
	tree        *Tree
	doc         *krb.Document
	scale       float32
	measure     MeasureTextFunc
	textureSize TextureSizeFunc
}

// sizeNode resolves a node's own width/height given the available space
// it would occupy absent any flex participation (its parent's content
// box, or the viewport for a root). Position is not touched here.
func (e *layoutEngine) sizeNode(idx int, availW, availH float32, isRoot bool) {
	n := &e.tree.Nodes[idx]
	scale := e.scale

	n.WidthExplicit = n.Header.Width != 0
	n.HeightExplicit = n.Header.Height != 0
	n.WidthFromDefault, n.HeightFromDefault = false, false
	w := float32(n.Header.Width) * scale
	h := float32(n.Header.Height) * scale

	if !n.WidthExplicit || !n.HeightExplicit {
		iw, ih, fromDefault := e.intrinsicSize(idx, availW, availH, isRoot)
		if !n.WidthExplicit {
			w = iw
			n.WidthFromDefault = fromDefault
		}
		if !n.HeightExplicit {
			h = ih
			n.HeightFromDefault = fromDefault
		}
	}

	n.RenderW, n.RenderH = w, h
}

// intrinsicSize computes the default width/height for a node whose
// header did not give an explicit dimension on that axis. fromDefault
// reports that the values are parent-content/viewport fallbacks rather
// than measured text or texture content; only fallback cross-axis sizes
// are later stretched during placement.
func (e *layoutEngine) intrinsicSize(idx int, availW, availH float32, isRoot bool) (w, h float32, fromDefault bool) {
	n := &e.tree.Nodes[idx]
	hPad := float32(n.Padding[1]+n.Padding[3]) * e.scale
	vPad := float32(n.Padding[0]+n.Padding[2]) * e.scale

	switch n.Header.Type {
	case krb.ElemTypeText, krb.ElemTypeButton, krb.ElemTypeInput:
		if n.Text != "" {
			tw, th := e.measure(n.Text, n.EffectiveFontSize()*e.scale)
			return tw + hPad, th + vPad, false
		}
	case krb.ElemTypeImage:
		if e.textureSize != nil {
			if tw, th, ok := e.textureSize(e.doc, n.ResourceIndex); ok {
				return float32(tw)*e.scale + hPad, float32(th)*e.scale + vPad, false
			}
		}
	}
	if isRoot {
		return availW, availH, true
	}
	// Grow participants take their main-axis size from grow distribution
	// and their cross-axis size from stretch; absolute children size only
	// from explicit/intrinsic values. Neither falls back to the parent's
	// content area.
	if krb.Grow(n.Header.Layout) || krb.Absolute(n.Header.Layout) {
		return 0, 0, true
	}
	switch n.Header.Type {
	case krb.ElemTypeContainer, krb.ElemTypeApp:
		return availW, availH, true
	}
	return 0, 0, true
}

// contentBox returns (x, y, w, h) of the interior of node idx after
// subtracting borders and padding, clamped at zero.
func (e *layoutEngine) contentBox(idx int) (x, y, w, h float32) {
	n := &e.tree.Nodes[idx]
	scale := e.scale
	left := float32(n.BorderWidths[3]+n.Padding[3]) * scale
	top := float32(n.BorderWidths[0]+n.Padding[0]) * scale
	right := float32(n.BorderWidths[1]+n.Padding[1]) * scale
	bottom := float32(n.BorderWidths[2]+n.Padding[2]) * scale
	x = n.RenderX + left
	y = n.RenderY + top
	w = n.RenderW - left - right
	h = n.RenderH - top - bottom
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return
}

func (e *layoutEngine) clamp(idx int, refW, refH float32) {
	n := &e.tree.Nodes[idx]
	if v, ok := n.MinWidth.Resolve(refW); ok && n.RenderW < v {
		n.RenderW = v
	}
	if v, ok := n.MaxWidth.Resolve(refW); ok && n.RenderW > v {
		n.RenderW = v
	}
	if v, ok := n.MinHeight.Resolve(refH); ok && n.RenderH < v {
		n.RenderH = v
	}
	if v, ok := n.MaxHeight.Resolve(refH); ok && n.RenderH > v {
		n.RenderH = v
	}
}

// layoutChildren partitions idx's children into flow and absolute
// groups, sizes and positions the flow group along the container's axes,
// positions absolute children directly, then recurses into every child's
// own children.
func (e *layoutEngine) layoutChildren(idx int) {
	cx, cy, cw, ch := e.contentBox(idx)
	e.layoutChildrenInBox(idx, cx, cy, cw, ch)
}

// layoutChildrenInBox is layoutChildren with an explicitly supplied
// content box, used both for the normal pass (box derived from idx's own
// geometry) and for the custom-component re-layout callback, where a
// handler has already recomputed idx's frame and wants its children
// repositioned within it without re-deriving the box from
// idx.BorderWidths/Padding a second time.
func (e *layoutEngine) layoutChildrenInBox(idx int, cx, cy, cw, ch float32) {
	n := &e.tree.Nodes[idx]

	var flow, absolute []int
	for _, c := range n.Children {
		if krb.Absolute(e.tree.Nodes[c].Header.Layout) {
			absolute = append(absolute, c)
		} else {
			flow = append(flow, c)
		}
	}

	dir := krb.Direction(n.Header.Layout)
	isRow := krb.IsRow(dir)
	reversed := krb.IsReversed(dir)
	align := krb.Alignment(n.Header.Layout)
	gap := n.Gap * e.scale

	// Size every flow child first (measurement pass).
	for _, c := range flow {
		e.sizeNode(c, cw, ch, false)
	}

	mainSize := func(c int) float32 {
		if isRow {
			return e.tree.Nodes[c].RenderW
		}
		return e.tree.Nodes[c].RenderH
	}
	setMainSize := func(c int, v float32) {
		if isRow {
			e.tree.Nodes[c].RenderW = v
		} else {
			e.tree.Nodes[c].RenderH = v
		}
	}

	nFlow := len(flow)
	avail := cw
	if !isRow {
		avail = ch
	}
	var sumMain float32
	for _, c := range flow {
		sumMain += mainSize(c)
	}
	totalGap := gap * float32(maxInt(0, nFlow-1))

	if align != krb.LayoutAlignSpaceBW {
		// Grow distribution: exactly floor(leftover/k) to each grow
		// child, remainder to the first grow child in document order.
		leftover := avail - sumMain - totalGap
		var growIdx []int
		for _, c := range flow {
			if krb.Grow(e.tree.Nodes[c].Header.Layout) {
				growIdx = append(growIdx, c)
			}
		}
		if len(growIdx) > 0 && leftover > 0 {
			k := len(growIdx)
			share := int32(leftover) / int32(k)
			remainder := int32(leftover) - share*int32(k)
			for i, c := range growIdx {
				extra := float32(share)
				if i == 0 {
					extra += float32(remainder)
				}
				setMainSize(c, mainSize(c)+extra)
			}
		}
	}

	// Cross-axis stretch, then min/max clamps. A flow child whose cross
	// size fell back to the parent-content default fills the container's
	// cross axis; measured text/texture sizes are kept as-is. Clamps run
	// after grow and stretch so the constrained size is the final one,
	// and main-axis spacing below is computed from the result.
	crossContainer := ch
	if !isRow {
		crossContainer = cw
	}
	for _, c := range flow {
		cn := &e.tree.Nodes[c]
		crossExplicit, crossFromDefault := cn.HeightExplicit, cn.HeightFromDefault
		if !isRow {
			crossExplicit, crossFromDefault = cn.WidthExplicit, cn.WidthFromDefault
		}
		if !crossExplicit && crossFromDefault {
			if isRow {
				cn.RenderH = crossContainer
			} else {
				cn.RenderW = crossContainer
			}
		}
		e.clamp(c, cw, ch)
	}
	sumMain = 0
	for _, c := range flow {
		sumMain += mainSize(c)
	}

	spacing := gap
	if align == krb.LayoutAlignSpaceBW && nFlow > 1 {
		surplus := avail - sumMain - totalGap
		betweenSpacing := gap + surplus/float32(nFlow-1)
		if betweenSpacing < gap {
			betweenSpacing = gap
		}
		if betweenSpacing < 0 {
			betweenSpacing = 0
		}
		spacing = betweenSpacing
	}

	totalUsed := sumMain + spacing*float32(maxInt(0, nFlow-1))
	if align == krb.LayoutAlignSpaceBW && nFlow > 1 {
		totalUsed = sumMain + spacing*float32(nFlow-1)
	}
	// Space-between starts flush at the content origin regardless of child
	// count; its surplus lives entirely in the inter-child spacing.
	var start float32
	switch align {
	case krb.LayoutAlignCenter:
		start = (avail - totalUsed) / 2
	case krb.LayoutAlignEnd:
		start = avail - totalUsed
	default:
		start = 0
	}

	order := make([]int, nFlow)
	for i := range order {
		order[i] = i
	}
	if reversed {
		for i, j := 0, nFlow-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	cursor := start
	for k, oi := range order {
		c := flow[oi]
		cn := &e.tree.Nodes[c]

		var mx, my float32
		if isRow {
			mx = cx + cursor
			my = cy
			cursor += cn.RenderW
		} else {
			my = cy + cursor
			mx = cx
			cursor += cn.RenderH
		}

		cn.RenderX = mx + float32(cn.Header.PosX)*e.scale
		cn.RenderY = my + float32(cn.Header.PosY)*e.scale

		if k != nFlow-1 {
			cursor += spacing
		}
	}

	for _, c := range absolute {
		cn := &e.tree.Nodes[c]
		e.sizeNode(c, n.RenderW, n.RenderH, false)
		e.clamp(c, n.RenderW, n.RenderH)
		cn.RenderX = n.RenderX + float32(cn.Header.PosX)*e.scale
		cn.RenderY = n.RenderY + float32(cn.Header.PosY)*e.scale
	}

	// Re-clamp after each child's own pass: content hugging inside the
	// recursion may resize the child, and min/max bounds the final size.
	for _, c := range flow {
		e.tree.Nodes[c].State = StateMeasured
		e.layoutChildren(c)
		e.clamp(c, cw, ch)
		e.tree.Nodes[c].State = StatePlaced
	}
	for _, c := range absolute {
		e.tree.Nodes[c].State = StateMeasured
		e.layoutChildren(c)
		e.clamp(c, n.RenderW, n.RenderH)
		e.tree.Nodes[c].State = StatePlaced
	}

	e.contentHug(idx, flow)
	e.fallbackExpand(idx)
}

// contentHug shrinks a non-root, non-grow, non-absolute container
// without an explicit size on an axis to the extent of its flow children
// on that axis, plus its own padding and border.
func (e *layoutEngine) contentHug(idx int, flow []int) {
	n := &e.tree.Nodes[idx]
	if n.ParentIndex == InvalidIndex || krb.Grow(n.Header.Layout) || krb.Absolute(n.Header.Layout) {
		return
	}
	if len(flow) == 0 {
		return
	}
	left := float32(n.BorderWidths[3]+n.Padding[3]) * e.scale
	top := float32(n.BorderWidths[0]+n.Padding[0]) * e.scale
	right := float32(n.BorderWidths[1]+n.Padding[1]) * e.scale
	bottom := float32(n.BorderWidths[2]+n.Padding[2]) * e.scale

	var maxRight, maxBottom float32
	for _, c := range flow {
		cn := &e.tree.Nodes[c]
		if edge := cn.RenderX + cn.RenderW; edge > maxRight {
			maxRight = edge
		}
		if edge := cn.RenderY + cn.RenderH; edge > maxBottom {
			maxBottom = edge
		}
	}
	if !n.WidthExplicit {
		n.RenderW = maxRight - n.RenderX + right
		_ = left
	}
	if !n.HeightExplicit {
		n.RenderH = maxBottom - n.RenderY + bottom
		_ = top
	}
}

// fallbackExpand gives a node that remains size-zero on an axis but
// carries a visible attribute at least
// max(font_size*scale, padding+border total, 1*scale) on that axis.
func (e *layoutEngine) fallbackExpand(idx int) {
	n := &e.tree.Nodes[idx]
	visible := n.BgColor.A > 0 || n.BorderWidths[0]+n.BorderWidths[1]+n.BorderWidths[2]+n.BorderWidths[3] > 0
	if !visible {
		return
	}
	hPad := float32(n.Padding[1]+n.Padding[3]) * e.scale
	vPad := float32(n.Padding[0]+n.Padding[2]) * e.scale
	hBorder := float32(n.BorderWidths[1]+n.BorderWidths[3]) * e.scale
	vBorder := float32(n.BorderWidths[0]+n.BorderWidths[2]) * e.scale
	fontPx := n.EffectiveFontSize() * e.scale

	if n.RenderW <= 0 {
		n.RenderW = maxF(fontPx, maxF(hPad+hBorder, e.scale))
	}
	if n.RenderH <= 0 {
		n.RenderH = maxF(fontPx, maxF(vPad+vBorder, e.scale))
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
