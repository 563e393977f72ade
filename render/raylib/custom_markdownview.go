package raylib

import (
	"fmt"

	"github.com/kryonlabs/kryon-render/render"
)

// MarkdownViewHandler handles MarkdownView components, identified by the
// reserved "source" custom property. Handlers must stay pure with
// respect to the document and must not perform I/O, so the view renders
// a placeholder label naming its source rather than parsing the file.
type MarkdownViewHandler struct{}

func (h *MarkdownViewHandler) HandleLayoutAdjustment(tree *render.Tree, nodeIndex int, relayout func(nodeIndex int, contentX, contentY, contentW, contentH float32)) error {
	n := &tree.Nodes[nodeIndex]
	source := customPropString(tree.Doc, n, "source", "")
	if source == "" {
		n.Text = "MarkdownView: missing 'source' property"
		return nil
	}
	n.Text = fmt.Sprintf("MarkdownView(%s)", source)
	return nil
}
