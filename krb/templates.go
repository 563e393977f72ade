package krb

import "fmt"

// TemplateStore holds component definitions: per-definition, the set of
// already-decoded elements that make up its expansion template. Since
// ReadDocument decodes the full element stream in one pass, the store
// indexes the decoded Elements directly instead of re-decoding raw
// template bytes at expansion time.
type TemplateStore struct {
	doc  *Document
	defs map[string]ComponentDefinition
}

// BuildTemplateStore scans doc for component definitions: elements that
// are never the target of any other element's child-ref (true orphans in
// the element stream) and that carry the reserved
// CustomPropComponentDefName custom property. Definitions live in the
// normal element section; the fixed header has no room for a dedicated
// component-definition table.
func BuildTemplateStore(doc *Document) (*TemplateStore, error) {
	byOffset := doc.OffsetIndex()

	isTarget := make([]bool, len(doc.Elements))
	for i := range doc.Elements {
		for _, rel := range doc.Elements[i].ChildOffsets {
			childIdx, err := doc.ResolveChild(byOffset, i, rel)
			if err != nil {
				return nil, fmt.Errorf("building template store: %w", err)
			}
			isTarget[childIdx] = true
		}
	}

	store := &TemplateStore{doc: doc, defs: make(map[string]ComponentDefinition)}
	var ordered []ComponentDefinition
	for i, el := range doc.Elements {
		if isTarget[i] {
			continue
		}
		name, ok := definitionName(el, doc.Strings)
		if !ok {
			continue
		}
		subtree, err := doc.Subtree(byOffset, i)
		if err != nil {
			return nil, fmt.Errorf("component definition %q: %w", name, err)
		}
		def := ComponentDefinition{
			Name:       name,
			RootIndex:  i,
			SubtreeLen: len(subtree),
		}
		store.defs[name] = def
		ordered = append(ordered, def)
	}
	doc.ComponentDefs = ordered
	return store, nil
}

func definitionName(el Element, strs []string) (string, bool) {
	for _, p := range el.CustomProps {
		if p.Key == CustomPropComponentDefName && p.ValueType == ValStringIndex && len(p.Raw) == 1 {
			idx := p.Raw[0]
			if int(idx) < len(strs) {
				return strs[idx], true
			}
		}
	}
	return "", false
}

// Find returns the definition registered under name, if any.
func (s *TemplateStore) Find(name string) (*ComponentDefinition, bool) {
	def, ok := s.defs[name]
	if !ok {
		return nil, false
	}
	return &def, true
}

// Subtree returns the absolute element indices (pre-order, root first)
// making up def's template.
func (s *TemplateStore) Subtree(def *ComponentDefinition) []int {
	byOffset := s.doc.OffsetIndex()
	order, err := s.doc.Subtree(byOffset, def.RootIndex)
	if err != nil {
		// BuildTemplateStore already validated this subtree resolves
		// cleanly; a failure here would mean the element stream was
		// mutated, which this package never does after ReadDocument returns.
		return []int{def.RootIndex}
	}
	return order
}

// Definitions returns every registered component definition, for
// diagnostics/tree-dump use.
func (s *TemplateStore) Definitions() []ComponentDefinition {
	out := make([]ComponentDefinition, 0, len(s.defs))
	for _, d := range s.defs {
		out = append(out, d)
	}
	return out
}
