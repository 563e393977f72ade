package raylib

import (
	"testing"

	"github.com/kryonlabs/kryon-render/krb"
	"github.com/kryonlabs/kryon-render/render"
)

// tabBarTree builds an already-laid-out parent (360x480) holding a
// content sibling filling it and a 50-tall TabBar docked by position.
func tabBarTree(position string) *render.Tree {
	doc := &krb.Document{Strings: []string{position}}
	positionProp := krb.Property{
		IsCustom:  true,
		Key:       "position",
		ValueType: krb.ValStringIndex,
		Raw:       []byte{0},
	}
	return &render.Tree{
		Doc: doc,
		Nodes: []render.Node{
			{ // 0: parent
				Header:      krb.ElementHeader{Type: krb.ElemTypeApp, Width: 360, Height: 480},
				ParentIndex: render.InvalidIndex,
				Children:    []int{1, 2},
				Visible:     true,
				RenderW:     360, RenderH: 480,
			},
			{ // 1: content sibling, currently filling the parent
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer},
				ParentIndex: 0,
				Visible:     true,
				RenderW:     360, RenderH: 480,
			},
			{ // 2: the TabBar, 50 tall and 60 wide before docking
				Header:      krb.ElementHeader{Type: krb.ElemTypeContainer},
				ParentIndex: 0,
				CustomProps: []krb.Property{positionProp},
				Visible:     true,
				RenderW:     60, RenderH: 50,
			},
		},
		Roots: []int{0},
	}
}

func TestTabBarDocksBottomAndResizesSibling(t *testing.T) {
	tree := tabBarTree("bottom")
	relayouts := 0
	relayout := func(int, float32, float32, float32, float32) { relayouts++ }

	h := &TabBarHandler{}
	if err := h.HandleLayoutAdjustment(tree, 2, relayout); err != nil {
		t.Fatalf("HandleLayoutAdjustment: %v", err)
	}

	bar := tree.Nodes[2]
	if bar.RenderY != 430 || bar.RenderW != 360 || bar.RenderX != 0 {
		t.Errorf("bar frame = (%v,%v %vx%v), want (0,430 360x50)", bar.RenderX, bar.RenderY, bar.RenderW, bar.RenderH)
	}
	sibling := tree.Nodes[1]
	if sibling.RenderH != 430 {
		t.Errorf("sibling height = %v, want resized to 430", sibling.RenderH)
	}
	if relayouts != 2 {
		t.Errorf("relayouts = %d, want 2 (bar and sibling)", relayouts)
	}
}

func TestTabBarDocksTopAndPushesSiblingDown(t *testing.T) {
	tree := tabBarTree("top")
	h := &TabBarHandler{}
	if err := h.HandleLayoutAdjustment(tree, 2, func(int, float32, float32, float32, float32) {}); err != nil {
		t.Fatalf("HandleLayoutAdjustment: %v", err)
	}

	bar := tree.Nodes[2]
	if bar.RenderY != 0 || bar.RenderW != 360 {
		t.Errorf("bar frame = (%v,%v %vx%v), want docked at the top full width", bar.RenderX, bar.RenderY, bar.RenderW, bar.RenderH)
	}
	sibling := tree.Nodes[1]
	if sibling.RenderY != 50 || sibling.RenderH != 430 {
		t.Errorf("sibling = y %v h %v, want y 50 h 430", sibling.RenderY, sibling.RenderH)
	}
}

func TestTabBarDocksLeftAndResizesSiblingWidth(t *testing.T) {
	tree := tabBarTree("left")
	h := &TabBarHandler{}
	if err := h.HandleLayoutAdjustment(tree, 2, func(int, float32, float32, float32, float32) {}); err != nil {
		t.Fatalf("HandleLayoutAdjustment: %v", err)
	}

	bar := tree.Nodes[2]
	if bar.RenderX != 0 || bar.RenderH != 480 || bar.RenderW != 60 {
		t.Errorf("bar frame = (%v,%v %vx%v), want docked left full height", bar.RenderX, bar.RenderY, bar.RenderW, bar.RenderH)
	}
	sibling := tree.Nodes[1]
	if sibling.RenderX != 60 || sibling.RenderW != 300 {
		t.Errorf("sibling = x %v w %v, want x 60 w 300", sibling.RenderX, sibling.RenderW)
	}
}

func TestTabBarWithoutParentErrors(t *testing.T) {
	doc := &krb.Document{Strings: []string{"bottom"}}
	tree := &render.Tree{
		Doc: doc,
		Nodes: []render.Node{
			{Header: krb.ElementHeader{Type: krb.ElemTypeContainer}, ParentIndex: render.InvalidIndex, Visible: true},
		},
		Roots: []int{0},
	}
	h := &TabBarHandler{}
	if err := h.HandleLayoutAdjustment(tree, 0, func(int, float32, float32, float32, float32) {}); err == nil {
		t.Fatal("expected an error for a TabBar with no parent")
	}
}

func TestIdentifyRecognizesMarkerProperties(t *testing.T) {
	tab := &render.Node{CustomProps: []krb.Property{{IsCustom: true, Key: "position"}}}
	md := &render.Node{CustomProps: []krb.Property{{IsCustom: true, Key: "source"}}}
	plain := &render.Node{}

	if got := identify(tab); got != "TabBar" {
		t.Errorf("identify(position) = %q, want TabBar", got)
	}
	if got := identify(md); got != "MarkdownView" {
		t.Errorf("identify(source) = %q, want MarkdownView", got)
	}
	if got := identify(plain); got != "" {
		t.Errorf("identify(plain) = %q, want empty", got)
	}
}
