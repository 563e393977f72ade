package krb

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// WriteDocument serializes doc back into the bit-exact section layout
// ReadDocument parses, ordered elements, styles, strings, resources after
// the fixed header. Section offsets and counts are recomputed from the
// document's actual contents; HasStyles/HasResources flags are derived
// from section presence while the remaining flag bits (HasApp,
// ExtendedColor, FixedPoint) pass through from doc.Header. The animation
// section is not carried (this decoder never reads one), so its count is
// written as zero.
//
// Child-ref offsets are emitted verbatim: they are parent-relative, and
// the encoding below is byte-for-byte the one ReadDocument consumes, so
// inter-element distances, and with them every stored child ref, are
// preserved exactly. The first pass computes section sizes and offsets;
// the second emits the bytes.
func WriteDocument(doc *Document) ([]byte, error) {
	stringIdx := make(map[string]uint8, len(doc.Strings))
	for i, s := range doc.Strings {
		if len(s) > 255 {
			return nil, fmt.Errorf("string %d is %d bytes, exceeds the 1-byte length prefix", i, len(s))
		}
		if _, ok := stringIdx[s]; !ok {
			stringIdx[s] = uint8(i)
		}
	}

	if len(doc.Elements) > 0xFFFF || len(doc.Styles) > 0xFFFF ||
		len(doc.Strings) > 0xFFFF || len(doc.Resources) > 0xFFFF {
		return nil, fmt.Errorf("section counts exceed u16 range")
	}

	elementOffset := uint32(HeaderSize)
	sectionSize := uint32(0)
	for i := range doc.Elements {
		n, err := encodedElementSize(&doc.Elements[i])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		sectionSize += n
	}
	styleOffset := elementOffset + sectionSize

	sectionSize = 0
	for i := range doc.Styles {
		n, err := encodedStyleSize(&doc.Styles[i])
		if err != nil {
			return nil, fmt.Errorf("style %d: %w", i, err)
		}
		sectionSize += n
	}
	animationOffset := styleOffset + sectionSize

	stringOffset := animationOffset
	sectionSize = 2
	for _, s := range doc.Strings {
		sectionSize += 1 + uint32(len(s))
	}
	resourceOffset := stringOffset + sectionSize

	sectionSize = 2
	for i := range doc.Resources {
		n, err := encodedResourceSize(&doc.Resources[i])
		if err != nil {
			return nil, fmt.Errorf("resource %d: %w", i, err)
		}
		sectionSize += n
	}
	totalSize := resourceOffset + sectionSize
	if len(doc.Resources) == 0 {
		totalSize = resourceOffset
		resourceOffset = 0
	}
	if len(doc.Styles) == 0 {
		styleOffset = 0
	}

	flags := doc.Header.Flags &^ (FlagHasStyles | FlagHasAnimations | FlagHasResources)
	if len(doc.Styles) > 0 {
		flags |= FlagHasStyles
	}
	if len(doc.Resources) > 0 {
		flags |= FlagHasResources
	}

	var buf bytes.Buffer
	buf.Write(Magic[:])
	putU16(&buf, uint16(doc.VersionMajor)|uint16(doc.VersionMinor)<<8)
	putU16(&buf, flags)
	putU16(&buf, uint16(len(doc.Elements)))
	putU16(&buf, uint16(len(doc.Styles)))
	putU16(&buf, 0) // animation count
	putU16(&buf, uint16(len(doc.Strings)))
	putU16(&buf, uint16(len(doc.Resources)))
	putU32(&buf, elementOffset)
	putU32(&buf, styleOffset)
	putU32(&buf, 0) // animation offset
	putU32(&buf, stringOffset)
	putU32(&buf, resourceOffset)
	putU32(&buf, totalSize)

	for i := range doc.Elements {
		if err := writeElement(&buf, &doc.Elements[i], stringIdx); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	for i := range doc.Styles {
		st := &doc.Styles[i]
		buf.WriteByte(st.ID)
		buf.WriteByte(st.NameIndex)
		buf.WriteByte(uint8(len(st.Properties)))
		for j := range st.Properties {
			if err := writeProperty(&buf, &st.Properties[j], stringIdx); err != nil {
				return nil, fmt.Errorf("style %d property %d: %w", i, j, err)
			}
		}
	}
	putU16(&buf, uint16(len(doc.Strings)))
	for _, s := range doc.Strings {
		buf.WriteByte(uint8(len(s)))
		buf.WriteString(s)
	}
	if len(doc.Resources) > 0 {
		putU16(&buf, uint16(len(doc.Resources)))
		for i := range doc.Resources {
			res := &doc.Resources[i]
			buf.WriteByte(uint8(res.Type))
			buf.WriteByte(res.NameIndex)
			buf.WriteByte(uint8(res.Format))
			switch res.Format {
			case ResourceFormatExternal:
				buf.WriteByte(res.PathIndex)
			case ResourceFormatInline:
				putU16(&buf, uint16(len(res.Inline)))
				buf.Write(res.Inline)
			default:
				return nil, fmt.Errorf("resource %d: unknown format %#x", i, uint8(res.Format))
			}
		}
	}

	if uint32(buf.Len()) != totalSize {
		return nil, fmt.Errorf("internal error: wrote %d bytes, computed total %d", buf.Len(), totalSize)
	}
	return buf.Bytes(), nil
}

func encodedElementSize(el *Element) (uint32, error) {
	if len(el.Properties) > 255 || len(el.CustomProps) > 255 ||
		len(el.Events) > 255 || len(el.AnimationRefs) > 255 || len(el.ChildOffsets) > 255 {
		return 0, fmt.Errorf("element tail counts exceed u8 range")
	}
	size := uint32(ElementHeaderSize)
	for i := range el.Properties {
		if len(el.Properties[i].Raw) > 255 {
			return 0, fmt.Errorf("property %d value is %d bytes, exceeds u8 size", i, len(el.Properties[i].Raw))
		}
		size += 3 + uint32(len(el.Properties[i].Raw))
	}
	for i := range el.CustomProps {
		if len(el.CustomProps[i].Raw) > 255 {
			return 0, fmt.Errorf("custom property %d value is %d bytes, exceeds u8 size", i, len(el.CustomProps[i].Raw))
		}
		size += 3 + uint32(len(el.CustomProps[i].Raw))
	}
	size += uint32(len(el.Events)) * 2
	size += uint32(len(el.AnimationRefs)) * 2
	size += uint32(len(el.ChildOffsets)) * 2
	return size, nil
}

func encodedStyleSize(st *Style) (uint32, error) {
	if len(st.Properties) > 255 {
		return 0, fmt.Errorf("style has %d properties, exceeds u8 count", len(st.Properties))
	}
	size := uint32(3)
	for i := range st.Properties {
		if len(st.Properties[i].Raw) > 255 {
			return 0, fmt.Errorf("property %d value is %d bytes, exceeds u8 size", i, len(st.Properties[i].Raw))
		}
		size += 3 + uint32(len(st.Properties[i].Raw))
	}
	return size, nil
}

func encodedResourceSize(res *Resource) (uint32, error) {
	switch res.Format {
	case ResourceFormatExternal:
		return 4, nil
	case ResourceFormatInline:
		if len(res.Inline) > 0xFFFF {
			return 0, fmt.Errorf("inline data is %d bytes, exceeds u16 size", len(res.Inline))
		}
		return 3 + 2 + uint32(len(res.Inline)), nil
	default:
		return 0, fmt.Errorf("unknown format %#x", uint8(res.Format))
	}
}

func writeElement(buf *bytes.Buffer, el *Element, stringIdx map[string]uint8) error {
	h := el.Header
	buf.WriteByte(uint8(h.Type))
	buf.WriteByte(h.ID)
	putU16(buf, h.PosX)
	putU16(buf, h.PosY)
	putU16(buf, h.Width)
	putU16(buf, h.Height)
	buf.WriteByte(h.Layout)
	buf.WriteByte(h.StyleID)
	buf.WriteByte(uint8(len(el.Properties)))
	buf.WriteByte(uint8(len(el.ChildOffsets)))
	buf.WriteByte(uint8(len(el.Events)))
	buf.WriteByte(uint8(len(el.AnimationRefs)))
	buf.WriteByte(uint8(len(el.CustomProps)))

	for i := range el.Properties {
		if err := writeProperty(buf, &el.Properties[i], stringIdx); err != nil {
			return fmt.Errorf("property %d: %w", i, err)
		}
	}
	for i := range el.CustomProps {
		if err := writeProperty(buf, &el.CustomProps[i], stringIdx); err != nil {
			return fmt.Errorf("custom property %d: %w", i, err)
		}
	}
	for _, ev := range el.Events {
		buf.WriteByte(uint8(ev.Type))
		buf.WriteByte(ev.CallbackString)
	}
	for _, ref := range el.AnimationRefs {
		buf.WriteByte(ref.AnimationIndex)
		buf.WriteByte(ref.Trigger)
	}
	for _, rel := range el.ChildOffsets {
		putU16(buf, rel)
	}
	return nil
}

func writeProperty(buf *bytes.Buffer, p *Property, stringIdx map[string]uint8) error {
	if p.IsCustom {
		idx, ok := stringIdx[p.Key]
		if !ok {
			return fmt.Errorf("custom property key %q not in the string table", p.Key)
		}
		buf.WriteByte(idx)
	} else {
		buf.WriteByte(uint8(p.ID))
	}
	buf.WriteByte(uint8(p.ValueType))
	buf.WriteByte(uint8(len(p.Raw)))
	buf.Write(p.Raw)
	return nil
}

func putU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
