package render

import (
	"testing"

	"github.com/kryonlabs/kryon-render/krb"
)

func u16le(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func TestApplyStylingCascadeOrder(t *testing.T) {
	doc := &krb.Document{
		Styles: []krb.Style{
			{ID: 1, Properties: []krb.Property{
				{ID: krb.PropBgColor, ValueType: krb.ValColor, Raw: []byte{10, 10, 10, 255}},
				{ID: krb.PropFontSize, ValueType: krb.ValShort, Raw: u16le(12)},
			}},
		},
	}
	tree := &Tree{Nodes: []Node{
		{
			Header: krb.ElementHeader{StyleID: 1},
			Properties: []krb.Property{
				// Direct property overrides the style's background.
				{ID: krb.PropBgColor, ValueType: krb.ValColor, Raw: []byte{20, 20, 20, 255}},
			},
			ParentIndex: InvalidIndex,
		},
	}}
	tree.Roots = []int{0}

	ApplyStyling(tree, doc)

	n := tree.Nodes[0]
	if n.BgColor.R != 20 {
		t.Errorf("direct property should win over style, BgColor.R = %d, want 20", n.BgColor.R)
	}
	if !n.FontSizeSet || n.FontSize != 12 {
		t.Errorf("style-only property should still apply, FontSize = %v set=%v", n.FontSize, n.FontSizeSet)
	}
}

func TestApplyStylingDoesNotSynthesizeBorderDefaults(t *testing.T) {
	doc := &krb.Document{}
	tree := &Tree{Nodes: []Node{
		{
			Properties: []krb.Property{
				{ID: krb.PropBorderColor, ValueType: krb.ValColor, Raw: []byte{1, 2, 3, 255}},
			},
			ParentIndex: InvalidIndex,
		},
	}}
	tree.Roots = []int{0}

	ApplyStyling(tree, doc)

	n := tree.Nodes[0]
	if n.BorderWidths != [4]uint8{} {
		t.Errorf("border color alone must not synthesize a width, got %v", n.BorderWidths)
	}
}

func TestInheritRecursivePropagatesOnlyUnsetProperties(t *testing.T) {
	doc := &krb.Document{}
	tree := &Tree{Nodes: []Node{
		{ // parent: sets fg color and font size
			Properties: []krb.Property{
				{ID: krb.PropFgColor, ValueType: krb.ValColor, Raw: []byte{1, 2, 3, 255}},
				{ID: krb.PropFontSize, ValueType: krb.ValShort, Raw: u16le(20)},
			},
			ParentIndex: InvalidIndex,
			Children:    []int{1},
		},
		{ // child: sets its own font size, leaves fg color unset
			Properties: []krb.Property{
				{ID: krb.PropFontSize, ValueType: krb.ValShort, Raw: u16le(9)},
			},
			ParentIndex: 0,
		},
	}}
	tree.Roots = []int{0}

	ApplyStyling(tree, doc)

	child := tree.Nodes[1]
	if !child.FgColorSet || child.FgColor.G != 2 {
		t.Errorf("child should inherit unset FgColor from parent, got %v set=%v", child.FgColor, child.FgColorSet)
	}
	if child.FontSize != 9 {
		t.Errorf("child's own FontSize must not be overwritten by inheritance, got %v", child.FontSize)
	}
}
