// Package krb decodes the KRB binary UI format: a versioned,
// section-oriented file describing a tree of elements, their styles,
// resources and component templates.
package krb

// HeaderSize is the fixed, bit-exact size of a KRB file header.
const HeaderSize = 42

// ElementHeaderSize is the fixed size of a single element's header.
const ElementHeaderSize = 17

// Magic is the 4-byte file signature every KRB file must start with.
var Magic = [4]byte{'K', 'R', 'B', '1'}

// Header flag bits.
const (
	FlagHasStyles     uint16 = 1 << 0
	FlagHasAnimations uint16 = 1 << 1
	FlagHasResources  uint16 = 1 << 2
	FlagCompressed    uint16 = 1 << 3 // reserved, never set by this decoder
	FlagFixedPoint    uint16 = 1 << 4
	FlagExtendedColor uint16 = 1 << 5
	FlagHasApp        uint16 = 1 << 6
)

// Header is the fixed 42-byte file header.
type Header struct {
	Magic           [4]byte
	VersionMajor    uint8
	VersionMinor    uint8
	Flags           uint16
	ElementCount    uint16
	StyleCount      uint16
	AnimationCount  uint16
	StringCount     uint16
	ResourceCount   uint16
	ElementOffset   uint32
	StyleOffset     uint32
	AnimationOffset uint32
	StringOffset    uint32
	ResourceOffset  uint32
	TotalSize       uint32
}

// HasStyles reports whether the style section is present.
func (h *Header) HasStyles() bool { return h.Flags&FlagHasStyles != 0 }

// HasAnimations reports whether the animation section is present.
func (h *Header) HasAnimations() bool { return h.Flags&FlagHasAnimations != 0 }

// HasResources reports whether the resource section is present.
func (h *Header) HasResources() bool { return h.Flags&FlagHasResources != 0 }

// HasApp reports whether element 0 is required to be of type App.
func (h *Header) HasApp() bool { return h.Flags&FlagHasApp != 0 }

// ExtendedColor reports whether colors are stored as 4-byte RGBA
// rather than single-byte palette indices.
func (h *Header) ExtendedColor() bool { return h.Flags&FlagExtendedColor != 0 }

// ElementType identifies the kind of UI element an ElementHeader describes.
type ElementType uint8

const (
	ElemTypeApp        ElementType = 0x00
	ElemTypeContainer  ElementType = 0x01
	ElemTypeText       ElementType = 0x02
	ElemTypeImage      ElementType = 0x03
	ElemTypeCanvas     ElementType = 0x04
	ElemTypeButton     ElementType = 0x10
	ElemTypeInput      ElementType = 0x11
	ElemTypeList       ElementType = 0x20
	ElemTypeGrid       ElementType = 0x21
	ElemTypeScrollable ElementType = 0x22
	ElemTypeVideo      ElementType = 0x30
	ElemTypeCustomBase ElementType = 0x31
)

// Layout byte bit assignments.
const (
	LayoutDirectionMask    uint8 = 0x03
	LayoutDirRow           uint8 = 0x00
	LayoutDirColumn        uint8 = 0x01
	LayoutDirRowReverse    uint8 = 0x02
	LayoutDirColumnReverse uint8 = 0x03

	LayoutAlignMask    uint8 = 0x0C
	LayoutAlignShift   uint8 = 2
	LayoutAlignStart   uint8 = 0
	LayoutAlignCenter  uint8 = 1
	LayoutAlignEnd     uint8 = 2
	LayoutAlignSpaceBW uint8 = 3 // space-between; Open Question #2 fixed this way.

	LayoutWrapBit     uint8 = 1 << 4
	LayoutGrowBit     uint8 = 1 << 5
	LayoutAbsoluteBit uint8 = 1 << 6
)

// Direction returns the main-axis direction encoded in a layout byte.
func Direction(layout uint8) uint8 { return layout & LayoutDirectionMask }

// IsRow reports whether direction is row or row-reverse.
func IsRow(dir uint8) bool { return dir == LayoutDirRow || dir == LayoutDirRowReverse }

// IsReversed reports whether direction iterates children in reverse order.
func IsReversed(dir uint8) bool { return dir == LayoutDirRowReverse || dir == LayoutDirColumnReverse }

// Alignment returns the main-axis alignment encoded in a layout byte.
func Alignment(layout uint8) uint8 { return (layout & LayoutAlignMask) >> LayoutAlignShift }

// Wrap reports the wrap bit (reserved; single-line layout only is conformant).
func Wrap(layout uint8) bool { return layout&LayoutWrapBit != 0 }

// Grow reports whether this element participates in main-axis grow distribution.
func Grow(layout uint8) bool { return layout&LayoutGrowBit != 0 }

// Absolute reports whether this element is positioned absolutely within its parent.
func Absolute(layout uint8) bool { return layout&LayoutAbsoluteBit != 0 }

// ElementHeader is the fixed 17-byte per-element header.
type ElementHeader struct {
	Type             ElementType
	ID               uint8 // string table index naming this element, 0 = none
	PosX             uint16
	PosY             uint16
	Width            uint16
	Height           uint16
	Layout           uint8
	StyleID          uint8 // 1-based; 0 = none
	PropertyCount    uint8
	ChildCount       uint8
	EventCount       uint8
	AnimationCount   uint8
	CustomPropCount  uint8
}

// ValueType tags the payload of a Property.
type ValueType uint8

const (
	ValNone          ValueType = 0x00
	ValByte          ValueType = 0x01
	ValShort         ValueType = 0x02
	ValColor         ValueType = 0x03
	ValStringIndex   ValueType = 0x04
	ValResourceIndex ValueType = 0x05
	ValPercentage    ValueType = 0x06
	ValRect          ValueType = 0x07
	ValEdgeInsets    ValueType = 0x08
	ValEnum          ValueType = 0x09
	ValVector        ValueType = 0x0A
	ValCustomBlob    ValueType = 0x0B
)

// PropertyID is the registry of standard (non-custom) property identifiers.
type PropertyID uint8

const (
	PropBgColor       PropertyID = 0x01
	PropFgColor       PropertyID = 0x02
	PropBorderColor   PropertyID = 0x03
	PropBorderWidth   PropertyID = 0x04
	PropBorderRadius  PropertyID = 0x05
	PropPadding       PropertyID = 0x06
	PropMargin        PropertyID = 0x07
	PropTextContent   PropertyID = 0x08
	PropFontSize      PropertyID = 0x09
	PropFontWeight    PropertyID = 0x0A
	PropTextAlignment PropertyID = 0x0B
	PropImageSource   PropertyID = 0x0C
	PropOpacity       PropertyID = 0x0D
	PropZIndex        PropertyID = 0x0E
	PropVisibility    PropertyID = 0x0F
	PropGap           PropertyID = 0x10
	PropMinWidth      PropertyID = 0x11
	PropMinHeight     PropertyID = 0x12
	PropMaxWidth      PropertyID = 0x13
	PropMaxHeight     PropertyID = 0x14
	PropOverflow      PropertyID = 0x18
	PropCustomBlob    PropertyID = 0x19
	PropLayoutFlags   PropertyID = 0x1A

	PropWindowWidth  PropertyID = 0x20
	PropWindowHeight PropertyID = 0x21
	PropWindowTitle  PropertyID = 0x22
	PropResizable    PropertyID = 0x23
	PropKeepAspect   PropertyID = 0x24
	PropScaleFactor  PropertyID = 0x25
	PropIcon         PropertyID = 0x26
	PropVersion      PropertyID = 0x27
	PropAuthor       PropertyID = 0x28
)

// VisibilityValue is the enum payload of PropVisibility.
type VisibilityValue uint8

const (
	VisibilityVisible   VisibilityValue = 0
	VisibilityHidden    VisibilityValue = 1
	VisibilityCollapsed VisibilityValue = 2
)

// TextAlign is the enum payload of PropTextAlignment; reuses the same
// 0..3 codes as main-axis Alignment. Code 3 means space-between, which
// text alignment never uses in practice, but the decode must not
// special-case it.
type TextAlign = uint8

const (
	TextAlignStart  TextAlign = 0
	TextAlignCenter TextAlign = 1
	TextAlignEnd    TextAlign = 2
)

// EventType identifies the kind of event an element's event entry binds.
type EventType uint8

const (
	EventClick      EventType = 0x01
	EventHover      EventType = 0x02
	EventFocus      EventType = 0x03
	EventBlur       EventType = 0x04
	EventChange     EventType = 0x05
	EventSubmit     EventType = 0x06
)

// ResourceType identifies the role a resource plays (image, font, ...).
type ResourceType uint8

const (
	ResourceTypeImage ResourceType = 0x01
	ResourceTypeFont  ResourceType = 0x02
)

// ResourceFormat distinguishes external-path resources from inline blobs.
type ResourceFormat uint8

const (
	ResourceFormatExternal ResourceFormat = 0x00
	ResourceFormatInline   ResourceFormat = 0x01
)

// Reserved custom-property keys.
const (
	// CustomPropComponentName marks a usage-site instance of a component,
	// value is the string-table name of the definition to expand.
	CustomPropComponentName = "_componentName"
	// CustomPropComponentDefName marks an orphan element (unreachable via
	// any child-ref) as the root of a component definition's template.
	CustomPropComponentDefName = "_componentDefinitionName"
	// SlotContentName is the reserved element ID searched for (breadth
	// first) within an expanded template to receive usage-site children.
	SlotContentName = "content"
)

// Property is a single standard or custom key/value pair attached to an
// element or style.
type Property struct {
	// For standard properties, ID holds the PropertyID. For custom
	// properties IsCustom is true and Key names the string-table entry.
	ID        PropertyID
	IsCustom  bool
	Key       string
	ValueType ValueType
	Raw       []byte
}

// Event is a single event binding on an element.
type Event struct {
	Type           EventType
	CallbackString uint8
}

// AnimationRef is a single animation reference on an element.
type AnimationRef struct {
	AnimationIndex uint8
	Trigger        uint8
}

// Style is a named bundle of properties applied by declaration order.
type Style struct {
	ID         uint8
	NameIndex  uint8
	Properties []Property
}

// Resource is a single entry of the resource table.
type Resource struct {
	Type      ResourceType
	NameIndex uint8
	Format    ResourceFormat
	// PathIndex is valid when Format == ResourceFormatExternal.
	PathIndex uint8
	// Inline is valid when Format == ResourceFormatInline.
	Inline []byte
}

// Element is a single fully-decoded element: its fixed header plus its
// variable tail (properties, custom properties, events, animation refs
// and child offsets, in file order).
type Element struct {
	Header          ElementHeader
	Properties      []Property
	CustomProps     []Property
	Events          []Event
	AnimationRefs   []AnimationRef
	ChildOffsets    []uint16 // relative to this element's own file offset
}

// ComponentDefinition names a template root discovered among the orphan
// elements of the Element section.
type ComponentDefinition struct {
	Name          string
	RootIndex     int
	SubtreeLen    int // number of elements, including the root, in the template
}

// Document is the fully parsed, immutable KRB file.
type Document struct {
	Header Header

	VersionMajor uint8
	VersionMinor uint8

	Strings   []string
	Resources []Resource
	Styles    []Style
	Elements  []Element

	// FileOffsets[i] is the absolute byte offset of Elements[i]'s header
	// in the original stream; used to resolve child-ref offsets.
	FileOffsets []uint32

	// ComponentDefs is populated by BuildTemplateStore (C3), in element
	// order.
	ComponentDefs []ComponentDefinition

	// Diagnostics accumulates non-fatal decode-time warnings
	// (UnsupportedVersion, count disagreements, the first-element/App
	// check).
	Diagnostics []error
}

// StringAt returns the string at idx, or "" with ok=false if idx is out
// of range. Index 0 is a valid "no string" sentinel by convention at call
// sites, not specially handled here.
func (d *Document) StringAt(idx uint8) (string, bool) {
	if int(idx) >= len(d.Strings) {
		return "", false
	}
	return d.Strings[idx], true
}

// StyleByID returns the style with the given 1-based ID, or nil if id is
// 0 or out of range.
func (d *Document) StyleByID(id uint8) *Style {
	if id == 0 {
		return nil
	}
	for i := range d.Styles {
		if d.Styles[i].ID == id {
			return &d.Styles[i]
		}
	}
	return nil
}
