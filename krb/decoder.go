package krb

import "fmt"

// SupportedMajorVersion is the only KRB major version this decoder was
// written against. A mismatch is a warning, not a fatal error.
const SupportedMajorVersion = 1

// ReadDocument parses a complete KRB buffer into a Document. Parsing
// errors (BadMagic, CorruptOffsets including section offsets outside the
// file, UnexpectedEof, BadStringLength, UnknownResourceFormat) abort the
// load and are returned as the error result. Recoverable conditions
// (UnsupportedVersion, a string-count disagreement, the first-element/App
// invariant) are appended to Document.Diagnostics and do not abort.
// Style IDs and string/resource indices inside element tails are not
// range-checked here and produce no diagnostic; a custom-property key
// whose string index is out of range decodes with an empty Key.
func ReadDocument(buf []byte) (*Document, error) {
	r := NewByteReader(buf)

	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Header:       *h,
		VersionMajor: h.VersionMajor,
		VersionMinor: h.VersionMinor,
	}

	if h.VersionMajor != SupportedMajorVersion {
		doc.Diagnostics = append(doc.Diagnostics, newErr(KindUnsupportedVersion,
			"file version %d.%d, decoder supports major version %d", h.VersionMajor, h.VersionMinor, SupportedMajorVersion))
	}

	if err := checkSectionOffsets(h); err != nil {
		return nil, err
	}

	if doc.Strings, err = readStringTable(r, h, doc); err != nil {
		return nil, err
	}
	if h.HasResources() {
		if doc.Resources, err = readResourceTable(r, h, doc.Strings); err != nil {
			return nil, err
		}
	}
	if h.HasStyles() {
		if doc.Styles, err = readStyleTable(r, h, doc.Strings); err != nil {
			return nil, err
		}
	}

	doc.Elements, doc.FileOffsets, err = readElements(r, h, doc.Strings)
	if err != nil {
		return nil, err
	}

	if h.HasApp() && len(doc.Elements) > 0 && doc.Elements[0].Header.Type != ElemTypeApp {
		doc.Diagnostics = append(doc.Diagnostics, newErr(KindLinkFailure,
			"FlagHasApp set but element 0 has type %#x, not App", doc.Elements[0].Header.Type))
	}

	return doc, nil
}

func readHeader(r *ByteReader) (*Header, error) {
	magic, err := r.ReadBytes(4)
	if err != nil {
		return nil, newErr(KindUnexpectedEOF, "reading magic: %v", err)
	}
	var h Header
	copy(h.Magic[:], magic)
	if h.Magic != Magic {
		return nil, newErr(KindBadMagic, "got %q, want %q", magic, Magic[:])
	}

	packedVersion, err := r.ReadU16LE()
	if err != nil {
		return nil, newErr(KindUnexpectedEOF, "reading version: %v", err)
	}
	h.VersionMajor = uint8(packedVersion & 0xFF)
	h.VersionMinor = uint8(packedVersion >> 8)

	if h.Flags, err = r.ReadU16LE(); err != nil {
		return nil, newErr(KindUnexpectedEOF, "reading flags: %v", err)
	}
	if h.ElementCount, err = r.ReadU16LE(); err != nil {
		return nil, err
	}
	if h.StyleCount, err = r.ReadU16LE(); err != nil {
		return nil, err
	}
	if h.AnimationCount, err = r.ReadU16LE(); err != nil {
		return nil, err
	}
	if h.StringCount, err = r.ReadU16LE(); err != nil {
		return nil, err
	}
	if h.ResourceCount, err = r.ReadU16LE(); err != nil {
		return nil, err
	}
	if h.ElementOffset, err = r.ReadU32LE(); err != nil {
		return nil, err
	}
	if h.StyleOffset, err = r.ReadU32LE(); err != nil {
		return nil, err
	}
	if h.AnimationOffset, err = r.ReadU32LE(); err != nil {
		return nil, err
	}
	if h.StringOffset, err = r.ReadU32LE(); err != nil {
		return nil, err
	}
	if h.ResourceOffset, err = r.ReadU32LE(); err != nil {
		return nil, err
	}
	if h.TotalSize, err = r.ReadU32LE(); err != nil {
		return nil, err
	}
	if r.Tell() != HeaderSize {
		return nil, newErr(KindCorruptOffsets, "header decode consumed %d bytes, want %d", r.Tell(), HeaderSize)
	}
	return &h, nil
}

func checkSectionOffsets(h *Header) error {
	total := int(h.TotalSize)
	check := func(name string, off uint32, present bool) error {
		if !present {
			return nil
		}
		if int(off) < HeaderSize || int(off) > total {
			return newErr(KindCorruptOffsets, "%s offset %d outside [%d,%d]", name, off, HeaderSize, total)
		}
		return nil
	}
	if err := check("element", h.ElementOffset, true); err != nil {
		return err
	}
	if err := check("style", h.StyleOffset, h.HasStyles()); err != nil {
		return err
	}
	if err := check("animation", h.AnimationOffset, h.HasAnimations()); err != nil {
		return err
	}
	if err := check("string", h.StringOffset, true); err != nil {
		return err
	}
	if err := check("resource", h.ResourceOffset, h.HasResources()); err != nil {
		return err
	}
	return nil
}

// readStringTable decodes the string section. The header's count is
// authoritative; a disagreeing in-section count is a non-fatal warning
// appended to doc.Diagnostics.
func readStringTable(r *ByteReader, h *Header, doc *Document) ([]string, error) {
	if err := r.Seek(int(h.StringOffset)); err != nil {
		return nil, newErr(KindCorruptOffsets, "seeking string table: %v", err)
	}
	count, err := r.ReadU16LE()
	if err != nil {
		return nil, newErr(KindUnexpectedEOF, "reading string count: %v", err)
	}
	if count != h.StringCount {
		doc.Diagnostics = append(doc.Diagnostics, newErr(KindCorruptOffsets,
			"string section declares %d strings, header declares %d; using the header count", count, h.StringCount))
	}
	strs := make([]string, 0, h.StringCount)
	for i := uint16(0); i < h.StringCount; i++ {
		s, err := r.ReadLengthPrefixedString()
		if err != nil {
			return nil, newErr(KindBadStringLength, "string %d: %v", i, err)
		}
		strs = append(strs, s)
	}
	return strs, nil
}

func readResourceTable(r *ByteReader, h *Header, strs []string) ([]Resource, error) {
	if err := r.Seek(int(h.ResourceOffset)); err != nil {
		return nil, newErr(KindCorruptOffsets, "seeking resource table: %v", err)
	}
	count, err := r.ReadU16LE()
	if err != nil {
		return nil, newErr(KindUnexpectedEOF, "reading resource count: %v", err)
	}
	resources := make([]Resource, 0, count)
	for i := uint16(0); i < count; i++ {
		var res Resource
		typ, err := r.ReadU8()
		if err != nil {
			return nil, newErr(KindUnexpectedEOF, "resource %d type: %v", i, err)
		}
		res.Type = ResourceType(typ)
		if res.NameIndex, err = r.ReadU8(); err != nil {
			return nil, newErr(KindUnexpectedEOF, "resource %d name index: %v", i, err)
		}
		format, err := r.ReadU8()
		if err != nil {
			return nil, newErr(KindUnexpectedEOF, "resource %d format: %v", i, err)
		}
		res.Format = ResourceFormat(format)
		switch res.Format {
		case ResourceFormatExternal:
			if res.PathIndex, err = r.ReadU8(); err != nil {
				return nil, newErr(KindUnexpectedEOF, "resource %d path index: %v", i, err)
			}
		case ResourceFormatInline:
			size, err := r.ReadU16LE()
			if err != nil {
				return nil, newErr(KindUnexpectedEOF, "resource %d inline size: %v", i, err)
			}
			data, err := r.ReadBytes(int(size))
			if err != nil {
				return nil, newErr(KindUnexpectedEOF, "resource %d inline data: %v", i, err)
			}
			res.Inline = append([]byte(nil), data...)
		default:
			return nil, newErr(KindUnknownResourceFormat, "resource %d: format %#x", i, format)
		}
		resources = append(resources, res)
	}
	return resources, nil
}

func readStyleTable(r *ByteReader, h *Header, strs []string) ([]Style, error) {
	if err := r.Seek(int(h.StyleOffset)); err != nil {
		return nil, newErr(KindCorruptOffsets, "seeking style table: %v", err)
	}
	styles := make([]Style, 0, h.StyleCount)
	for i := uint16(0); i < h.StyleCount; i++ {
		var st Style
		var err error
		if st.ID, err = r.ReadU8(); err != nil {
			return nil, newErr(KindUnexpectedEOF, "style %d id: %v", i, err)
		}
		if st.NameIndex, err = r.ReadU8(); err != nil {
			return nil, newErr(KindUnexpectedEOF, "style %d name index: %v", i, err)
		}
		propCount, err := r.ReadU8()
		if err != nil {
			return nil, newErr(KindUnexpectedEOF, "style %d prop count: %v", i, err)
		}
		if st.Properties, err = readProperties(r, int(propCount), strs, false); err != nil {
			return nil, fmt.Errorf("style %d: %w", i, err)
		}
		styles = append(styles, st)
	}
	return styles, nil
}

func readProperties(r *ByteReader, count int, strs []string, custom bool) ([]Property, error) {
	props := make([]Property, 0, count)
	for i := 0; i < count; i++ {
		idOrKey, err := r.ReadU8()
		if err != nil {
			return nil, newErr(KindUnexpectedEOF, "property %d id: %v", i, err)
		}
		vt, err := r.ReadU8()
		if err != nil {
			return nil, newErr(KindUnexpectedEOF, "property %d value type: %v", i, err)
		}
		size, err := r.ReadU8()
		if err != nil {
			return nil, newErr(KindUnexpectedEOF, "property %d size: %v", i, err)
		}
		raw, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, newErr(KindUnexpectedEOF, "property %d value (%d bytes): %v", i, size, err)
		}
		p := Property{ValueType: ValueType(vt), Raw: append([]byte(nil), raw...)}
		if custom {
			p.IsCustom = true
			if int(idOrKey) < len(strs) {
				p.Key = strs[idOrKey]
			}
		} else {
			p.ID = PropertyID(idOrKey)
		}
		props = append(props, p)
	}
	return props, nil
}

func readElements(r *ByteReader, h *Header, strs []string) ([]Element, []uint32, error) {
	if err := r.Seek(int(h.ElementOffset)); err != nil {
		return nil, nil, newErr(KindCorruptOffsets, "seeking element section: %v", err)
	}
	elements := make([]Element, 0, h.ElementCount)
	offsets := make([]uint32, 0, h.ElementCount)

	for i := uint16(0); i < h.ElementCount; i++ {
		offsets = append(offsets, uint32(r.Tell()))
		el, err := readOneElement(r, strs)
		if err != nil {
			return nil, nil, fmt.Errorf("element %d: %w", i, err)
		}
		elements = append(elements, *el)
	}
	return elements, offsets, nil
}

func readOneElement(r *ByteReader, strs []string) (*Element, error) {
	var el Element
	hdr := &el.Header

	typ, err := r.ReadU8()
	if err != nil {
		return nil, newErr(KindUnexpectedEOF, "type: %v", err)
	}
	hdr.Type = ElementType(typ)
	if hdr.ID, err = r.ReadU8(); err != nil {
		return nil, newErr(KindUnexpectedEOF, "id: %v", err)
	}
	if hdr.PosX, err = r.ReadU16LE(); err != nil {
		return nil, err
	}
	if hdr.PosY, err = r.ReadU16LE(); err != nil {
		return nil, err
	}
	if hdr.Width, err = r.ReadU16LE(); err != nil {
		return nil, err
	}
	if hdr.Height, err = r.ReadU16LE(); err != nil {
		return nil, err
	}
	if hdr.Layout, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if hdr.StyleID, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if hdr.PropertyCount, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if hdr.ChildCount, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if hdr.EventCount, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if hdr.AnimationCount, err = r.ReadU8(); err != nil {
		return nil, err
	}
	if hdr.CustomPropCount, err = r.ReadU8(); err != nil {
		return nil, err
	}

	if el.Properties, err = readProperties(r, int(hdr.PropertyCount), strs, false); err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}
	if el.CustomProps, err = readProperties(r, int(hdr.CustomPropCount), strs, true); err != nil {
		return nil, fmt.Errorf("custom properties: %w", err)
	}

	el.Events = make([]Event, 0, hdr.EventCount)
	for i := uint8(0); i < hdr.EventCount; i++ {
		t, err := r.ReadU8()
		if err != nil {
			return nil, newErr(KindUnexpectedEOF, "event %d type: %v", i, err)
		}
		cb, err := r.ReadU8()
		if err != nil {
			return nil, newErr(KindUnexpectedEOF, "event %d callback index: %v", i, err)
		}
		el.Events = append(el.Events, Event{Type: EventType(t), CallbackString: cb})
	}

	el.AnimationRefs = make([]AnimationRef, 0, hdr.AnimationCount)
	for i := uint8(0); i < hdr.AnimationCount; i++ {
		idx, err := r.ReadU8()
		if err != nil {
			return nil, newErr(KindUnexpectedEOF, "animation ref %d index: %v", i, err)
		}
		trig, err := r.ReadU8()
		if err != nil {
			return nil, newErr(KindUnexpectedEOF, "animation ref %d trigger: %v", i, err)
		}
		el.AnimationRefs = append(el.AnimationRefs, AnimationRef{AnimationIndex: idx, Trigger: trig})
	}

	el.ChildOffsets = make([]uint16, 0, hdr.ChildCount)
	for i := uint8(0); i < hdr.ChildCount; i++ {
		off, err := r.ReadU16LE()
		if err != nil {
			return nil, newErr(KindUnexpectedEOF, "child ref %d: %v", i, err)
		}
		el.ChildOffsets = append(el.ChildOffsets, off)
	}

	return &el, nil
}
