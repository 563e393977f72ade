package krb

// OffsetIndex returns a map from each element's absolute file offset to
// its index in Document.Elements, built from FileOffsets. Used to
// resolve child-ref offsets and to compute a component-definition's
// subtree.
func (d *Document) OffsetIndex() map[uint32]int {
	idx := make(map[uint32]int, len(d.FileOffsets))
	for i, off := range d.FileOffsets {
		idx[off] = i
	}
	return idx
}

// ResolveChild resolves one of parentIndex's child-ref offsets (relative
// to the parent's own file offset) to an absolute element index, using a
// precomputed OffsetIndex.
func (d *Document) ResolveChild(byOffset map[uint32]int, parentIndex int, childRel uint16) (int, error) {
	if parentIndex < 0 || parentIndex >= len(d.FileOffsets) {
		return 0, outOfRange("parent element index", parentIndex, len(d.FileOffsets))
	}
	target := d.FileOffsets[parentIndex] + uint32(childRel)
	idx, ok := byOffset[target]
	if !ok {
		return 0, newErr(KindLinkFailure, "child offset %d from element %d (file offset %d) resolves to %d, no element there",
			childRel, parentIndex, d.FileOffsets[parentIndex], target)
	}
	return idx, nil
}

// Subtree returns rootIndex followed by every element transitively
// reachable from it via child-refs, in pre-order. A cycle or unresolved
// child-ref aborts with a LinkFailure error.
func (d *Document) Subtree(byOffset map[uint32]int, rootIndex int) ([]int, error) {
	var order []int
	seen := make(map[int]bool)
	var walk func(i int) error
	walk = func(i int) error {
		if seen[i] {
			return newErr(KindLinkFailure, "cycle detected at element %d", i)
		}
		seen[i] = true
		order = append(order, i)
		el := d.Elements[i]
		for _, rel := range el.ChildOffsets {
			childIdx, err := d.ResolveChild(byOffset, i, rel)
			if err != nil {
				return err
			}
			if err := walk(childIdx); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(rootIndex); err != nil {
		return nil, err
	}
	return order, nil
}
