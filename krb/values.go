package krb

import "encoding/binary"

// RGBA is a resolved 8-bit-per-channel color.
type RGBA struct{ R, G, B, A uint8 }

// Color decodes a property whose ValueType is ValColor. 4-byte payloads
// are RGBA8. 1-byte payloads are treated as a grayscale intensity
// (v,v,v,255), a deterministic fallback for files written without
// FlagExtendedColor.
func (p *Property) Color() (RGBA, bool) {
	if p.ValueType != ValColor {
		return RGBA{}, false
	}
	switch len(p.Raw) {
	case 4:
		return RGBA{p.Raw[0], p.Raw[1], p.Raw[2], p.Raw[3]}, true
	case 1:
		v := p.Raw[0]
		return RGBA{v, v, v, 255}, true
	default:
		return RGBA{}, false
	}
}

// Byte decodes a single-byte value.
func (p *Property) Byte() (uint8, bool) {
	if p.ValueType != ValByte || len(p.Raw) != 1 {
		return 0, false
	}
	return p.Raw[0], true
}

// Short decodes a little-endian u16 value.
func (p *Property) Short() (uint16, bool) {
	if p.ValueType != ValShort || len(p.Raw) != 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(p.Raw), true
}

// Percentage decodes an 8.8 fixed-point u16 percentage into a float
// multiplier (raw/256.0, so 1.0 == 100%).
func (p *Property) Percentage() (float32, bool) {
	if p.ValueType != ValPercentage || len(p.Raw) != 2 {
		return 0, false
	}
	raw := binary.LittleEndian.Uint16(p.Raw)
	return float32(raw) / 256.0, true
}

// StringIndex decodes a string-table index value.
func (p *Property) StringIndex() (uint8, bool) {
	if p.ValueType != ValStringIndex || len(p.Raw) != 1 {
		return 0, false
	}
	return p.Raw[0], true
}

// ResourceIndex decodes a resource-table index value.
func (p *Property) ResourceIndex() (uint8, bool) {
	if p.ValueType != ValResourceIndex || len(p.Raw) != 1 {
		return 0, false
	}
	return p.Raw[0], true
}

// Enum decodes a single-byte enum value.
func (p *Property) Enum() (uint8, bool) {
	if p.ValueType != ValEnum || len(p.Raw) != 1 {
		return 0, false
	}
	return p.Raw[0], true
}

// EdgeInsets decodes a border-width/padding/margin-style property into
// per-edge (top, right, bottom, left) values. size==4 gives four
// independent u8 edges; size==1 gives one uniform u8 edge. Any other
// size is an error.
func (p *Property) EdgeInsets() ([4]uint8, error) {
	switch len(p.Raw) {
	case 4:
		return [4]uint8{p.Raw[0], p.Raw[1], p.Raw[2], p.Raw[3]}, nil
	case 1:
		v := p.Raw[0]
		return [4]uint8{v, v, v, v}, nil
	default:
		return [4]uint8{}, newErr(KindOutOfRangeIndex, "edge-insets property has size %d, want 4 or 1", len(p.Raw))
	}
}

// Rect decodes a 4-value rectangle (x, y, w, h), each a little-endian u16.
func (p *Property) Rect() ([4]uint16, bool) {
	if p.ValueType != ValRect || len(p.Raw) != 8 {
		return [4]uint16{}, false
	}
	var r [4]uint16
	for i := range r {
		r[i] = binary.LittleEndian.Uint16(p.Raw[i*2:])
	}
	return r, true
}
