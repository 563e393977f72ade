package raylib

import (
	"fmt"
	"strings"

	"github.com/kryonlabs/kryon-render/krb"
	"github.com/kryonlabs/kryon-render/render"
)

// TabBarHandler docks a TabBar against one edge of its parent and
// resizes the single nearest non-TabBar flow sibling to reclaim the
// space. All four positions (top, bottom, left, right) are handled
// symmetrically: height/Y adjustments for horizontal bars, width/X for
// vertical ones.
type TabBarHandler struct{}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func (h *TabBarHandler) HandleLayoutAdjustment(tree *render.Tree, nodeIndex int, relayout func(nodeIndex int, contentX, contentY, contentW, contentH float32)) error {
	n := &tree.Nodes[nodeIndex]
	if n.ParentIndex == render.InvalidIndex {
		return fmt.Errorf("tabbar node %d: cannot adjust layout without a parent", nodeIndex)
	}
	parent := &tree.Nodes[n.ParentIndex]

	position := strings.ToLower(customPropString(tree.Doc, n, "position", "bottom"))

	origX, origY, origW, origH := n.RenderX, n.RenderY, n.RenderW, n.RenderH
	newX, newY, newW, newH := origX, origY, origW, origH

	switch position {
	case "top":
		newX, newY, newW = parent.RenderX, parent.RenderY, parent.RenderW
	case "bottom":
		newX, newW = parent.RenderX, parent.RenderW
		newY = parent.RenderY + parent.RenderH - origH
	case "left":
		newX, newY, newH = parent.RenderX, parent.RenderY, parent.RenderH
	case "right":
		newY, newH = parent.RenderY, parent.RenderH
		newX = parent.RenderX + parent.RenderW - origW
	default:
		newX, newW = parent.RenderX, parent.RenderW
		newY = parent.RenderY + parent.RenderH - origH
	}

	if newX == origX && newY == origY && newW == origW && newH == origH {
		return nil
	}
	n.RenderX, n.RenderY, n.RenderW, n.RenderH = newX, newY, newW, newH

	// Nearest means closest to the TabBar in the parent's child order;
	// other TabBars and absolute children are skipped.
	var sibling *render.Node
	siblingIndex := render.InvalidIndex
	selfPos := 0
	for i, c := range parent.Children {
		if c == nodeIndex {
			selfPos = i
		}
	}
	bestDist := len(parent.Children)
	for i, c := range parent.Children {
		cn := &tree.Nodes[c]
		if dist := max(i-selfPos, selfPos-i); c != nodeIndex && dist < bestDist && identify(cn) != "TabBar" && !krb.Absolute(cn.Header.Layout) {
			sibling, siblingIndex, bestDist = cn, c, dist
		}
	}
	if sibling != nil {
		switch position {
		case "top":
			newSibTop := n.RenderY + n.RenderH
			newSibH := (sibling.RenderY + sibling.RenderH) - newSibTop
			sibling.RenderY, sibling.RenderH = newSibTop, maxF(1, newSibH)
		case "bottom":
			sibling.RenderH = maxF(1, n.RenderY-sibling.RenderY)
		case "left":
			newSibLeft := n.RenderX + n.RenderW
			newSibW := (sibling.RenderX + sibling.RenderW) - newSibLeft
			sibling.RenderX, sibling.RenderW = newSibLeft, maxF(1, newSibW)
		case "right":
			sibling.RenderW = maxF(1, n.RenderX-sibling.RenderX)
		}
	}

	left := float32(n.BorderWidths[3])
	top := float32(n.BorderWidths[0])
	right := float32(n.BorderWidths[1])
	bottom := float32(n.BorderWidths[2])
	relayout(nodeIndex, n.RenderX+left, n.RenderY+top, maxF(0, n.RenderW-left-right), maxF(0, n.RenderH-top-bottom))
	if sibling != nil {
		sLeft := float32(sibling.BorderWidths[3])
		sTop := float32(sibling.BorderWidths[0])
		sRight := float32(sibling.BorderWidths[1])
		sBottom := float32(sibling.BorderWidths[2])
		relayout(siblingIndex, sibling.RenderX+sLeft, sibling.RenderY+sTop, maxF(0, sibling.RenderW-sLeft-sRight), maxF(0, sibling.RenderH-sTop-sBottom))
	}

	return nil
}
