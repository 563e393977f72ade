package render

import (
	"fmt"

	"github.com/kryonlabs/kryon-render/krb"
)

// BuildTree builds the structural render tree: links parent/child by
// file-offset-to-index map, expands component instances from their
// templates, slots usage-site children into the reserved "content"
// placeholder, and determines roots. Styling cascade and inheritance are
// a separate pass, ApplyStyling, run once the structural tree is final.
func BuildTree(doc *krb.Document, store *krb.TemplateStore) (*Tree, error) {
	b := &builder{
		doc:     doc,
		store:   store,
		byOff:   doc.OffsetIndex(),
		pending: make(map[int][]int),
	}
	return b.run()
}

type builder struct {
	doc     *krb.Document
	store   *krb.TemplateStore
	byOff   map[uint32]int
	tree    Tree
	// elementToNode maps a top-level (non-template) source element index
	// to its Node index (1:1 outside of component expansion).
	elementToNode map[int]int
	// pending maps an instance node index to the usage-site children node
	// indices it must slot once its template is expanded.
	pending map[int][]int

	templateElems map[int]bool
}

func (b *builder) run() (*Tree, error) {
	b.templateElems = make(map[int]bool)
	for _, def := range b.store.Definitions() {
		for _, i := range b.store.Subtree(&def) {
			b.templateElems[i] = true
		}
	}

	b.elementToNode = make(map[int]int)
	for i := range b.doc.Elements {
		if b.templateElems[i] {
			continue
		}
		nodeIdx := b.newBareNode(i)
		b.elementToNode[i] = nodeIdx
	}

	// Link non-instance elements; defer instance elements' children as
	// pending usage-site children. Iterates elements in document order so
	// diagnostics and expansion-time arena growth are deterministic
	// across runs.
	for i := range b.doc.Elements {
		nodeIdx, ok := b.elementToNode[i]
		if !ok {
			continue
		}
		n := &b.tree.Nodes[nodeIdx]
		if n.ComponentName != "" {
			children, err := b.resolveChildren(i, b.elementToNode)
			if err != nil {
				b.tree.Diagnostics = append(b.tree.Diagnostics, err)
				continue
			}
			b.pending[nodeIdx] = children
			continue
		}
		children, err := b.resolveChildren(i, b.elementToNode)
		if err != nil {
			b.tree.Diagnostics = append(b.tree.Diagnostics, err)
			continue
		}
		for _, c := range children {
			b.attach(nodeIdx, c)
		}
	}

	// Expand every top-level component instance, in document order.
	for i := range b.doc.Elements {
		nodeIdx, ok := b.elementToNode[i]
		if !ok {
			continue
		}
		if b.tree.Nodes[nodeIdx].ComponentName != "" {
			if err := b.expandInstance(nodeIdx); err != nil {
				b.tree.Diagnostics = append(b.tree.Diagnostics, err)
			}
		}
	}

	// Roots are whatever has no parent once linking and expansion settle.
	for i := range b.tree.Nodes {
		if b.tree.Nodes[i].ParentIndex == InvalidIndex {
			b.tree.Roots = append(b.tree.Roots, i)
		}
	}

	b.tree.Doc = b.doc
	return &b.tree, nil
}

// newBareNode creates a Node populated from doc.Elements[srcIdx]'s
// identity, direct properties and custom properties, with no parent/
// children wired yet. Returns the new node's index.
func (b *builder) newBareNode(srcIdx int) int {
	el := b.doc.Elements[srcIdx]
	n := Node{
		SourceIndex:   srcIdx,
		Header:        el.Header,
		ParentIndex:   InvalidIndex,
		Properties:    append([]krb.Property(nil), el.Properties...),
		CustomProps:   append([]krb.Property(nil), el.CustomProps...),
		ResourceIndex: InvalidResourceIndex,
		Visible:       true,
	}
	if name, ok := b.doc.StringAt(el.Header.ID); ok {
		n.SourceName = name
	}
	n.ComponentName = componentNameOf(&n, b.doc)
	for _, ev := range el.Events {
		handler, _ := b.doc.StringAt(ev.CallbackString)
		n.Events = append(n.Events, EventBinding{Type: ev.Type, HandlerName: handler})
	}
	b.tree.Nodes = append(b.tree.Nodes, n)
	return len(b.tree.Nodes) - 1
}

func componentNameOf(n *Node, doc *krb.Document) string {
	for _, p := range n.CustomProps {
		if p.Key == krb.CustomPropComponentName && p.ValueType == krb.ValStringIndex && len(p.Raw) == 1 {
			if name, ok := doc.StringAt(p.Raw[0]); ok {
				return name
			}
		}
	}
	return ""
}

// resolveChildren resolves element srcIdx's child-ref offsets to node
// indices via mapping (a doc-element-index -> node-index table scoped to
// either the whole top-level tree or a single template expansion).
func (b *builder) resolveChildren(srcIdx int, mapping map[int]int) ([]int, error) {
	el := b.doc.Elements[srcIdx]
	out := make([]int, 0, len(el.ChildOffsets))
	for _, rel := range el.ChildOffsets {
		childDocIdx, err := b.doc.ResolveChild(b.byOff, srcIdx, rel)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", srcIdx, err)
		}
		nodeIdx, ok := mapping[childDocIdx]
		if !ok {
			return nil, fmt.Errorf("element %d: child element %d has no corresponding node", srcIdx, childDocIdx)
		}
		out = append(out, nodeIdx)
	}
	return out, nil
}

func (b *builder) attach(parentIdx, childIdx int) {
	b.tree.Nodes[parentIdx].Children = append(b.tree.Nodes[parentIdx].Children, childIdx)
	b.tree.Nodes[childIdx].ParentIndex = parentIdx
}

// expandInstance expands the component instance at nodeIdx in place:
// the node keeps its index (so the parent's existing Children entry
// stays valid) but its content is replaced by the template root's, with
// identity fields and properties overridden by the instance's own.
// Usage-site children recorded in b.pending are then slotted.
func (b *builder) expandInstance(nodeIdx int) error {
	node := &b.tree.Nodes[nodeIdx]
	name := node.ComponentName
	def, ok := b.store.Find(name)
	if !ok {
		b.tree.Diagnostics = append(b.tree.Diagnostics, &krb.Error{Kind: krb.KindMissingComponent, Message: fmt.Sprintf("component %q not found", name)})
		node.ComponentName = ""
		return nil
	}

	origHeader := node.Header
	origProps := node.Properties
	origCustom := node.CustomProps
	usageChildren := b.pending[nodeIdx]
	delete(b.pending, nodeIdx)

	subtree := b.store.Subtree(def)
	if len(subtree) == 0 {
		return fmt.Errorf("component %q: empty template", name)
	}

	localMap := map[int]int{subtree[0]: nodeIdx}

	// Re-populate the root node from the template root, then reapply the
	// instance's own identity fields and properties on top.
	rootEl := b.doc.Elements[subtree[0]]
	node.Header = rootEl.Header
	node.Header.ID = origHeader.ID
	node.Header.PosX = origHeader.PosX
	node.Header.PosY = origHeader.PosY
	node.Header.Width = origHeader.Width
	node.Header.Height = origHeader.Height
	node.Header.Layout = origHeader.Layout
	node.Header.StyleID = origHeader.StyleID
	node.Properties = mergeProperties(append([]krb.Property(nil), rootEl.Properties...), origProps)
	node.CustomProps = mergeCustomProperties(append([]krb.Property(nil), rootEl.CustomProps...), origCustom)
	node.Children = nil
	node.ComponentName = ""
	if name, ok := b.doc.StringAt(origHeader.ID); ok && name != "" {
		node.SourceName = name
	} else if name, ok := b.doc.StringAt(rootEl.Header.ID); ok {
		node.SourceName = name
	}

	for _, srcIdx := range subtree[1:] {
		localMap[srcIdx] = b.newBareNode(srcIdx)
	}

	for _, srcIdx := range subtree {
		nIdx := localMap[srcIdx]
		n := &b.tree.Nodes[nIdx]
		if nIdx != nodeIdx && n.ComponentName != "" {
			nestedUsage, err := b.resolveChildren(srcIdx, localMap)
			if err != nil {
				b.tree.Diagnostics = append(b.tree.Diagnostics, err)
				continue
			}
			b.pending[nIdx] = nestedUsage
			if err := b.expandInstance(nIdx); err != nil {
				b.tree.Diagnostics = append(b.tree.Diagnostics, err)
			}
			continue
		}
		children, err := b.resolveChildren(srcIdx, localMap)
		if err != nil {
			b.tree.Diagnostics = append(b.tree.Diagnostics, err)
			continue
		}
		for _, c := range children {
			if b.tree.Nodes[c].ParentIndex == InvalidIndex {
				b.attach(nIdx, c)
			}
		}
	}

	if len(usageChildren) > 0 {
		slot := b.findSlot(nodeIdx)
		if slot == InvalidIndex {
			slot = nodeIdx
			b.tree.Diagnostics = append(b.tree.Diagnostics, fmt.Errorf("component %q: no %q slot found, appending usage children to root", name, krb.SlotContentName))
		}
		for _, c := range usageChildren {
			b.attach(slot, c)
		}
	}

	return nil
}

// findSlot searches breadth-first from root for a node whose element ID
// string matches the reserved slot name.
func (b *builder) findSlot(root int) int {
	queue := []int{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if b.tree.Nodes[cur].SourceName == krb.SlotContentName {
			return cur
		}
		queue = append(queue, b.tree.Nodes[cur].Children...)
	}
	return InvalidIndex
}

// mergeProperties overlays overlay on top of base: an overlay property
// whose ID matches an existing base property replaces its value in
// place; otherwise it is appended. Unmatched base properties keep their
// file order.
func mergeProperties(base, overlay []krb.Property) []krb.Property {
	index := make(map[krb.PropertyID]int, len(base))
	for i, p := range base {
		if !p.IsCustom {
			index[p.ID] = i
		}
	}
	for _, p := range overlay {
		if i, ok := index[p.ID]; ok {
			base[i] = p
		} else {
			base = append(base, p)
			index[p.ID] = len(base) - 1
		}
	}
	return base
}

func mergeCustomProperties(base, overlay []krb.Property) []krb.Property {
	index := make(map[string]int, len(base))
	for i, p := range base {
		index[p.Key] = i
	}
	for _, p := range overlay {
		if i, ok := index[p.Key]; ok {
			base[i] = p
		} else {
			base = append(base, p)
			index[p.Key] = len(base) - 1
		}
	}
	return base
}
