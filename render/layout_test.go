package render

import (
	"testing"

	"github.com/kryonlabs/kryon-render/krb"
)

func noMeasure(string, float32) (float32, float32) { return 0, 0 }
func noTexture(*krb.Document, uint8) (int, int, bool) { return 0, 0, false }

func TestRunLayoutRowGrowDistributesRemainder(t *testing.T) {
	doc := &krb.Document{}
	tree := &Tree{
		Nodes: []Node{
			{ // root row container, fixed 101px wide
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 101, Height: 10, Layout: krb.LayoutDirRow},
				ParentIndex: InvalidIndex,
				Children:    []int{1, 2, 3},
				Visible:     true,
			},
			{Header: krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 10, Height: 10, Layout: krb.LayoutGrowBit}, ParentIndex: 0, Visible: true},
			{Header: krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 10, Height: 10, Layout: krb.LayoutGrowBit}, ParentIndex: 0, Visible: true},
			{Header: krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 10, Height: 10}, ParentIndex: 0, Visible: true},
		},
		Roots: []int{0},
		Doc:   doc,
	}

	RunLayout(tree, doc, 1.0, 800, 600, noMeasure, noTexture)

	// avail=101, sumMain=30, leftover=71 split across 2 grow children:
	// floor(71/2)=35 each, remainder 1 to the first grow child.
	if tree.Nodes[1].RenderW != 46 {
		t.Errorf("first grow child width = %v, want 46 (10 base + 35 share + 1 remainder)", tree.Nodes[1].RenderW)
	}
	if tree.Nodes[2].RenderW != 45 {
		t.Errorf("second grow child width = %v, want 45", tree.Nodes[2].RenderW)
	}
	if tree.Nodes[3].RenderW != 10 {
		t.Errorf("non-grow child width = %v, want unchanged 10", tree.Nodes[3].RenderW)
	}
}

func TestRunLayoutSpaceBetweenAlignment(t *testing.T) {
	doc := &krb.Document{}
	align := krb.LayoutAlignSpaceBW << krb.LayoutAlignShift
	tree := &Tree{
		Nodes: []Node{
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 100, Height: 10, Layout: krb.LayoutDirRow | align},
				ParentIndex: InvalidIndex,
				Children:    []int{1, 2},
				Visible:     true,
			},
			{Header: krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 10, Height: 10}, ParentIndex: 0, Visible: true},
			{Header: krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 10, Height: 10}, ParentIndex: 0, Visible: true},
		},
		Roots: []int{0},
		Doc:   doc,
	}

	RunLayout(tree, doc, 1.0, 800, 600, noMeasure, noTexture)

	if tree.Nodes[1].RenderX != 0 {
		t.Errorf("first child X = %v, want 0", tree.Nodes[1].RenderX)
	}
	if tree.Nodes[2].RenderX != 90 {
		t.Errorf("second child X = %v, want 90 (flush to far edge)", tree.Nodes[2].RenderX)
	}
}

func TestRunLayoutCrossAxisStretchesByDefault(t *testing.T) {
	doc := &krb.Document{}
	tree := &Tree{
		Nodes: []Node{
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 100, Height: 50, Layout: krb.LayoutDirRow},
				ParentIndex: InvalidIndex,
				Children:    []int{1},
				Visible:     true,
			},
			{Header: krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 10}, ParentIndex: 0, Visible: true}, // no explicit height
		},
		Roots: []int{0},
		Doc:   doc,
	}

	RunLayout(tree, doc, 1.0, 800, 600, noMeasure, noTexture)

	if tree.Nodes[1].RenderH != 50 {
		t.Errorf("cross-axis size should stretch to container height 50, got %v", tree.Nodes[1].RenderH)
	}
}

// Row of three fixed 120x40 buttons centered in a 500x40 content area:
// x = {70, 190, 310}, y = 0, each keeping its explicit height.
func TestRunLayoutRowOfThreeCenteredButtons(t *testing.T) {
	doc := &krb.Document{}
	align := krb.LayoutAlignCenter << krb.LayoutAlignShift
	button := func() Node {
		return Node{
			Header:      krb.ElementHeader{Type: krb.ElemTypeButton, Width: 120, Height: 40},
			ParentIndex: 0,
			Visible:     true,
		}
	}
	tree := &Tree{
		Nodes: []Node{
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 500, Height: 40, Layout: krb.LayoutDirRow | align},
				ParentIndex: InvalidIndex,
				Children:    []int{1, 2, 3},
				Visible:     true,
			},
			button(), button(), button(),
		},
		Roots: []int{0},
		Doc:   doc,
	}

	RunLayout(tree, doc, 1.0, 800, 600, noMeasure, noTexture)

	wantX := []float32{70, 190, 310}
	for i, c := range []int{1, 2, 3} {
		if tree.Nodes[c].RenderX != wantX[i] {
			t.Errorf("button %d X = %v, want %v", i, tree.Nodes[c].RenderX, wantX[i])
		}
		if tree.Nodes[c].RenderY != 0 {
			t.Errorf("button %d Y = %v, want 0", i, tree.Nodes[c].RenderY)
		}
		if tree.Nodes[c].RenderH != 40 {
			t.Errorf("button %d height = %v, want explicit 40", i, tree.Nodes[c].RenderH)
		}
	}
}

// Row container of width 300 with children (fixed 50, grow, grow):
// widths {50, 125, 125}, positions {0, 50, 175}.
func TestRunLayoutGrowDistributionScenario(t *testing.T) {
	doc := &krb.Document{}
	tree := &Tree{
		Nodes: []Node{
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 300, Height: 40, Layout: krb.LayoutDirRow},
				ParentIndex: InvalidIndex,
				Children:    []int{1, 2, 3},
				Visible:     true,
			},
			{Header: krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 50, Height: 40}, ParentIndex: 0, Visible: true},
			{Header: krb.ElementHeader{Type: krb.ElemTypeContainer, Layout: krb.LayoutGrowBit}, ParentIndex: 0, Visible: true},
			{Header: krb.ElementHeader{Type: krb.ElemTypeContainer, Layout: krb.LayoutGrowBit}, ParentIndex: 0, Visible: true},
		},
		Roots: []int{0},
		Doc:   doc,
	}

	RunLayout(tree, doc, 1.0, 800, 600, noMeasure, noTexture)

	wantW := []float32{50, 125, 125}
	wantX := []float32{0, 50, 175}
	for i, c := range []int{1, 2, 3} {
		if tree.Nodes[c].RenderW != wantW[i] {
			t.Errorf("child %d width = %v, want %v", i, tree.Nodes[c].RenderW, wantW[i])
		}
		if tree.Nodes[c].RenderX != wantX[i] {
			t.Errorf("child %d X = %v, want %v", i, tree.Nodes[c].RenderX, wantX[i])
		}
	}
}

// Space-between with gap 10 in a 300-wide row of three 50-wide children:
// surplus 150 splits into two 75px gaps (above the 10px minimum), so the
// positions are {0, 125, 250}.
func TestRunLayoutSpaceBetweenWithGapScenario(t *testing.T) {
	doc := &krb.Document{}
	align := krb.LayoutAlignSpaceBW << krb.LayoutAlignShift
	child := func() Node {
		return Node{
			Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 50, Height: 40},
			ParentIndex: 0,
			Visible:     true,
		}
	}
	tree := &Tree{
		Nodes: []Node{
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 300, Height: 40, Layout: krb.LayoutDirRow | align},
				ParentIndex: InvalidIndex,
				Children:    []int{1, 2, 3},
				Visible:     true,
				Gap:         10,
			},
			child(), child(), child(),
		},
		Roots: []int{0},
		Doc:   doc,
	}

	RunLayout(tree, doc, 1.0, 800, 600, noMeasure, noTexture)

	wantX := []float32{0, 125, 250}
	for i, c := range []int{1, 2, 3} {
		if tree.Nodes[c].RenderX != wantX[i] {
			t.Errorf("child %d X = %v, want %v", i, tree.Nodes[c].RenderX, wantX[i])
		}
	}
}

// Text with no explicit size takes measure_text width plus horizontal
// padding and font-size height plus vertical padding, positioned at the
// parent's content origin under start/start.
func TestRunLayoutTextIntrinsicSizing(t *testing.T) {
	doc := &krb.Document{}
	measure := func(text string, fontSizePx float32) (float32, float32) {
		return float32(len(text)) * 8, fontSizePx
	}
	tree := &Tree{
		Nodes: []Node{
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 200, Height: 100, Layout: krb.LayoutDirRow},
				ParentIndex: InvalidIndex,
				Children:    []int{1},
				Visible:     true,
			},
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeText},
				ParentIndex: 0,
				Text:        "Hello",
				FontSize:    18,
				FontSizeSet: true,
				Padding:     [4]uint8{2, 3, 4, 5}, // top, right, bottom, left
				Visible:     true,
			},
		},
		Roots: []int{0},
		Doc:   doc,
	}

	RunLayout(tree, doc, 1.0, 800, 600, measure, noTexture)

	text := &tree.Nodes[1]
	if text.RenderW != 5*8+3+5 {
		t.Errorf("text width = %v, want measure(40) + hpadding(8)", text.RenderW)
	}
	if text.RenderH != 18+2+4 {
		t.Errorf("text height = %v, want font(18) + vpadding(6)", text.RenderH)
	}
	if text.RenderX != 0 || text.RenderY != 0 {
		t.Errorf("text position = (%v,%v), want content origin (0,0)", text.RenderX, text.RenderY)
	}
}

// Reversing direction and reversing child order yield identical absolute
// positions.
func TestRunLayoutReversalIdentity(t *testing.T) {
	doc := &krb.Document{}
	build := func(layout uint8, widths []uint16) *Tree {
		tree := &Tree{
			Nodes: []Node{{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 100, Height: 10, Layout: layout},
				ParentIndex: InvalidIndex,
				Visible:     true,
			}},
			Roots: []int{0},
			Doc:   doc,
		}
		for i, w := range widths {
			tree.Nodes = append(tree.Nodes, Node{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: w, Height: 10},
				ParentIndex: 0,
				Visible:     true,
			})
			tree.Nodes[0].Children = append(tree.Nodes[0].Children, i+1)
		}
		return tree
	}

	reverse := build(krb.LayoutDirRowReverse, []uint16{10, 20, 30})
	forward := build(krb.LayoutDirRow, []uint16{30, 20, 10})
	RunLayout(reverse, doc, 1.0, 800, 600, noMeasure, noTexture)
	RunLayout(forward, doc, 1.0, 800, 600, noMeasure, noTexture)

	// reverse lays out its children back to front, so its child i must sit
	// where forward's mirror child (n-1-i) sits.
	for i := 0; i < 3; i++ {
		rev := reverse.Nodes[1+i]
		fwd := forward.Nodes[3-i]
		if rev.RenderX != fwd.RenderX {
			t.Errorf("child %d: reversed X = %v, mirrored forward X = %v", i, rev.RenderX, fwd.RenderX)
		}
	}
}

func TestRunLayoutMinMaxClamps(t *testing.T) {
	doc := &krb.Document{}
	tree := &Tree{
		Nodes: []Node{
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 200, Height: 200, Layout: krb.LayoutDirRow},
				ParentIndex: InvalidIndex,
				Children:    []int{1},
				Visible:     true,
			},
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 100, Height: 10},
				ParentIndex: 0,
				MaxWidth:    Constraint{Set: true, Value: 50},
				MinHeight:   Constraint{Set: true, Value: 30},
				Visible:     true,
			},
		},
		Roots: []int{0},
		Doc:   doc,
	}

	RunLayout(tree, doc, 1.0, 800, 600, noMeasure, noTexture)

	n := &tree.Nodes[1]
	if n.RenderW != 50 {
		t.Errorf("width = %v, want clamped to MaxWidth 50", n.RenderW)
	}
	if n.RenderH != 30 {
		t.Errorf("height = %v, want raised to MinHeight 30", n.RenderH)
	}
}

// Min/max bounds the final size: a grow child's distributed share and a
// stretched child's cross size are both clamped after they are assigned.
func TestRunLayoutClampsAfterGrowAndStretch(t *testing.T) {
	doc := &krb.Document{}
	tree := &Tree{
		Nodes: []Node{
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 300, Height: 80, Layout: krb.LayoutDirRow},
				ParentIndex: InvalidIndex,
				Children:    []int{1, 2},
				Visible:     true,
			},
			{ // grow child: would take 250, MaxWidth caps it at 50
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Layout: krb.LayoutGrowBit},
				ParentIndex: 0,
				MaxWidth:    Constraint{Set: true, Value: 50},
				Visible:     true,
			},
			{ // fixed-width child: cross stretch to 80 is capped at 40
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 50},
				ParentIndex: 0,
				MaxHeight:   Constraint{Set: true, Value: 40},
				Visible:     true,
			},
		},
		Roots: []int{0},
		Doc:   doc,
	}

	RunLayout(tree, doc, 1.0, 800, 600, noMeasure, noTexture)

	if tree.Nodes[1].RenderW != 50 {
		t.Errorf("grow child width = %v, want clamped to MaxWidth 50", tree.Nodes[1].RenderW)
	}
	if tree.Nodes[2].RenderH != 40 {
		t.Errorf("stretched child height = %v, want clamped to MaxHeight 40", tree.Nodes[2].RenderH)
	}
}

// A Text child in a row container keeps its measured height; only a
// child whose cross size fell back to the parent-content default is
// stretched to the container's cross axis.
func TestRunLayoutStretchSkipsIntrinsicallySizedText(t *testing.T) {
	doc := &krb.Document{}
	measure := func(text string, fontSizePx float32) (float32, float32) {
		return float32(len(text)) * 8, fontSizePx
	}
	tree := &Tree{
		Nodes: []Node{
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 200, Height: 100, Layout: krb.LayoutDirRow},
				ParentIndex: InvalidIndex,
				Children:    []int{1, 2},
				Visible:     true,
			},
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeText},
				ParentIndex: 0,
				Text:        "Hi",
				FontSize:    18,
				FontSizeSet: true,
				Visible:     true,
			},
			{ // container sibling with defaulted size: stretches
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 30},
				ParentIndex: 0,
				Visible:     true,
			},
		},
		Roots: []int{0},
		Doc:   doc,
	}

	RunLayout(tree, doc, 1.0, 800, 600, measure, noTexture)

	if tree.Nodes[1].RenderH != 18 {
		t.Errorf("text height = %v, want measured 18, not stretched to 100", tree.Nodes[1].RenderH)
	}
	if tree.Nodes[2].RenderH != 100 {
		t.Errorf("container sibling height = %v, want stretched to 100", tree.Nodes[2].RenderH)
	}
}

func TestRunLayoutPercentageMaxWidth(t *testing.T) {
	doc := &krb.Document{}
	tree := &Tree{
		Nodes: []Node{
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 200, Height: 100, Layout: krb.LayoutDirRow},
				ParentIndex: InvalidIndex,
				Children:    []int{1},
				Visible:     true,
			},
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer, Width: 180, Height: 100},
				ParentIndex: 0,
				// 8.8 fixed point 0.5 of the parent's 200px content box.
				MaxWidth: Constraint{Set: true, Percent: true, Value: 0.5},
				Visible:  true,
			},
		},
		Roots: []int{0},
		Doc:   doc,
	}

	RunLayout(tree, doc, 1.0, 800, 600, noMeasure, noTexture)

	if tree.Nodes[1].RenderW != 100 {
		t.Errorf("width = %v, want 50%% of the 200px parent content box", tree.Nodes[1].RenderW)
	}
}

func TestFallbackExpandGivesVisibleZeroSizeNodeAMinimumExtent(t *testing.T) {
	doc := &krb.Document{}
	tree := &Tree{
		Nodes: []Node{
			{
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer},
				ParentIndex: InvalidIndex,
				BgColor:     krb.RGBA{A: 255},
				Visible:     true,
			},
		},
		Roots: []int{0},
		Doc:   doc,
	}

	RunLayout(tree, doc, 1.0, 0, 0, noMeasure, noTexture)

	if tree.Nodes[0].RenderW <= 0 || tree.Nodes[0].RenderH <= 0 {
		t.Errorf("visible zero-size node should be expanded to a minimum extent, got %vx%v", tree.Nodes[0].RenderW, tree.Nodes[0].RenderH)
	}
}
