// Package ir defines the canonical, fully-elaborated device model: the
// sole output of a successful compilation, consumed read-only by the
// (out-of-scope) backend emitter. Unlike internal/ast, the IR carries no
// unresolved references, no unsubstituted defaults, and no surface
// syntax quirks. internal/lower constructs a Device and internal/semantic
// then checks the data model's invariants on it; a compilation hands a
// Device back only when those checks report no error.
package ir

import "omibyte.io/devicedriver/internal/diag"

// Access is the capability tag on a Register, Buffer or Field.
type Access int

const (
	AccessRW Access = iota
	AccessRO
	AccessWO
)

func (a Access) String() string {
	switch a {
	case AccessRO:
		return "RO"
	case AccessWO:
		return "WO"
	default:
		return "RW"
	}
}

// Readable reports whether a's capability permits a load.
func (a Access) Readable() bool { return a != AccessWO }

// Writable reports whether a's capability permits a store.
func (a Access) Writable() bool { return a != AccessRO }

// ByteOrder is the mapping from logical byte index to storage-byte
// index, frozen by the packing contract in spec.md §4.G.
type ByteOrder int

const (
	LE ByteOrder = iota
	BE
)

// BitOrder is the mapping from logical bit index to its position within
// a byte.
type BitOrder int

const (
	LSB0 BitOrder = iota
	MSB0
)

// BaseType is a field's raw storage interpretation.
type BaseType int

const (
	BaseTypeBool BaseType = iota
	BaseTypeUint
	BaseTypeInt
)

// AddrType names one of the eight integer types an address may be
// declared against.
type AddrType string

const (
	AddrU8  AddrType = "u8"
	AddrU16 AddrType = "u16"
	AddrU32 AddrType = "u32"
	AddrU64 AddrType = "u64"
	AddrI8  AddrType = "i8"
	AddrI16 AddrType = "i16"
	AddrI32 AddrType = "i32"
	AddrI64 AddrType = "i64"
)

// Fits reports whether addr is representable by t.
func (t AddrType) Fits(addr int64) bool {
	switch t {
	case AddrU8:
		return addr >= 0 && addr <= 0xFF
	case AddrU16:
		return addr >= 0 && addr <= 0xFFFF
	case AddrU32:
		return addr >= 0 && addr <= 0xFFFFFFFF
	case AddrU64:
		return addr >= 0
	case AddrI8:
		return addr >= -0x80 && addr <= 0x7F
	case AddrI16:
		return addr >= -0x8000 && addr <= 0x7FFF
	case AddrI32:
		return addr >= -0x80000000 && addr <= 0x7FFFFFFF
	case AddrI64:
		return true
	default:
		return false
	}
}

// Repeat is the {count, stride} multiplier producing indexed occurrences
// of one object at base + i*stride, for i in [0, count).
type Repeat struct {
	Count  int64
	Stride int64
}

// AddressTypes holds the three per-kind address types elaborated from
// GlobalConfig.
type AddressTypes struct {
	Register AddrType
	Command  AddrType
	Buffer   AddrType
}

// Defaults holds the device-wide defaults substituted during lowering
// wherever an object did not specify its own value.
type Defaults struct {
	RegisterAccess Access
	FieldAccess    Access
	BufferAccess   Access
	ByteOrder      *ByteOrder // nil means "not set"; byte order has no global fallback of its own
	BitOrder       BitOrder
}

// Device is the root of the IR.
type Device struct {
	Name          string
	AddressTypes  AddressTypes
	Defaults      Defaults
	NameBoundaries []string
	RootBlock     *Block
	Span          diag.Span
}

// Block is a named grouping of objects sharing an address offset.
type Block struct {
	Name          string
	OriginalName  string
	Doc           []string
	Attr          string
	AddressOffset int64
	Repeat        *Repeat
	Children      []Node
	Span          diag.Span
}

// Node is the closed set of things a Block may contain.
type Node interface {
	nodeName() string
}

func (b *Block) nodeName() string    { return b.Name }
func (r *Register) nodeName() string { return r.Name }
func (c *Command) nodeName() string  { return c.Name }
func (u *Buffer) nodeName() string   { return u.Name }

// Register is a named, addressable, bit-packed datum with fields.
type Register struct {
	Name                string
	OriginalName        string
	Doc                 []string
	Attr                string
	Access              Access
	ByteOrder           ByteOrder
	BitOrder            BitOrder
	Address             int64
	SizeBits            int64
	ResetValue          []byte
	Repeat              *Repeat
	AllowBitOverlap     bool
	AllowAddressOverlap bool
	Fields              []Field
	RefResetOverrides   map[string][]byte
	Span                diag.Span
}

// ByteLen is the register's width in bytes, rounded up.
func (r *Register) ByteLen() int64 { return (r.SizeBits + 7) / 8 }

// Command is an addressable action with optional input and output
// field-sets.
type Command struct {
	Name                string
	OriginalName        string
	Doc                 []string
	Attr                string
	ByteOrder           ByteOrder
	BitOrder            BitOrder
	Address             int64
	Repeat              *Repeat
	AllowBitOverlap     bool
	AllowAddressOverlap bool
	In                  *FieldSet
	Out                 *FieldSet
	Span                diag.Span
}

// FieldSet is one direction (in/out) of a Command's fields.
type FieldSet struct {
	SizeBits int64
	Fields   []Field
}

// ByteLen is the field-set's width in bytes, rounded up.
func (fs *FieldSet) ByteLen() int64 { return (fs.SizeBits + 7) / 8 }

// Buffer is an addressable byte-stream endpoint.
type Buffer struct {
	Name         string
	OriginalName string
	Doc          []string
	Attr         string
	Access       Access
	Address      int64
	Span         diag.Span
}

// Field is a contiguous bit-range within a register or command
// field-set.
type Field struct {
	Name         string
	OriginalName string
	Doc          []string
	Attr         string
	Access       Access
	BaseType     BaseType
	Start        int64
	End          int64
	Conversion   Conversion
	Span         diag.Span
}

// Width is the field's bit width, end - start.
func (f *Field) Width() int64 { return f.End - f.Start }

// EffectiveAccess is the narrower of the field's own access and the
// access of the field-set it belongs to (registers are the only
// field-set owners with their own access tag).
func (f *Field) EffectiveAccess(owner Access) Access {
	switch {
	case !owner.Readable() || !f.Access.Readable():
		if !owner.Writable() || !f.Access.Writable() {
			return AccessRO // degenerate: neither direction survives; callers treat as unusable
		}
		return AccessWO
	case !owner.Writable() || !f.Access.Writable():
		return AccessRO
	default:
		return AccessRW
	}
}

// ConversionKind discriminates Conversion's tagged variant.
type ConversionKind int

const (
	ConversionNone ConversionKind = iota
	ConversionInfallible
	ConversionFallible
	ConversionInlineEnum
	ConversionInferredInfallible
)

// Conversion is the optional transformation between a field's raw
// integer and a user-facing typed value.
type Conversion struct {
	Kind     ConversionKind
	TypePath string   // meaningful for Infallible, Fallible, and InferredInfallible-by-typepath
	Enum     *EnumSpec // meaningful for InlineEnum, InferredInfallible-by-enum, and Fallible built from a non-exhaustive inline enum
}

// EnumVariantKind discriminates an enum variant's declared value.
type EnumVariantKind int

const (
	VariantExplicit EnumVariantKind = iota
	VariantDefault
	VariantCatchAll
)

// EnumVariant is one variant of an EnumSpec.
type EnumVariant struct {
	Name         string
	OriginalName string
	Doc          []string
	Attr         string
	Kind         EnumVariantKind
	Value        int64 // meaningful iff Kind == VariantExplicit
	Span         diag.Span
}

// EnumSpec is an inline enum attached to a field's Conversion.
type EnumSpec struct {
	Name     string
	Doc      []string
	Variants []EnumVariant
	Span     diag.Span
}

// HasDefaultOrCatchAll reports whether e has a `default` or `catch_all`
// variant, which alone is sufficient for infallible classification.
func (e *EnumSpec) HasDefaultOrCatchAll() bool {
	for _, v := range e.Variants {
		if v.Kind == VariantDefault || v.Kind == VariantCatchAll {
			return true
		}
	}
	return false
}
