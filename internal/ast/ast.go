// Package ast defines the surface abstract syntax tree: a tree that
// closely mirrors user input (DSL text or a manifest tree), preserving
// attributes and source spans for later diagnostics. It is produced by
// both internal/dsl and internal/deserialize and is the sole input to
// internal/lower.
package ast

import "omibyte.io/devicedriver/internal/diag"

// Spanned wraps a value with the source span that produced it.
type Spanned[T any] struct {
	Value T
	Span  diag.Span
}

// Identifier is a name as it appeared in the source, retained verbatim
// for diagnostics alongside its original span. Word-boundary splitting
// (see internal/lower) happens later and is never baked into the AST.
type Identifier struct {
	Original string
	Span     diag.Span
}

// Doc is one documentation line as written (the DSL's #[doc = "..."]
// attribute, or a manifest `description` string split on newlines).
type Doc struct {
	Lines []string
	Span  diag.Span
}

// Access mirrors the three capability tags from spec.md's GLOSSARY.
type Access int

const (
	AccessUnset Access = iota
	AccessRW
	AccessRO
	AccessWO
)

func (a Access) String() string {
	switch a {
	case AccessRW:
		return "RW"
	case AccessRO:
		return "RO"
	case AccessWO:
		return "WO"
	default:
		return "unset"
	}
}

// ByteOrder mirrors spec.md §4.G.
type ByteOrder int

const (
	ByteOrderUnset ByteOrder = iota
	LE
	BE
)

// BitOrder mirrors spec.md §4.G.
type BitOrder int

const (
	BitOrderUnset BitOrder = iota
	LSB0
	MSB0
)

// BaseType is a field's raw storage interpretation.
type BaseType int

const (
	BaseTypeUnset BaseType = iota
	BaseTypeBool
	BaseTypeUint
	BaseTypeInt
)

// AddrType names one of the eight integer types permitted for an address
// type (spec.md §6 "Reserved identifiers").
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

// ValidAddrType reports whether s names one of the eight address types.
func ValidAddrType(s string) (AddrType, bool) {
	switch AddrType(s) {
	case AddrU8, AddrU16, AddrU32, AddrU64, AddrI8, AddrI16, AddrI32, AddrI64:
		return AddrType(s), true
	}
	return "", false
}

// Repeat is the {count, stride} multiplier from the GLOSSARY.
type Repeat struct {
	Count  int64
	Stride int64
	Span   diag.Span
}

// Attr is the (at most one) opaque conditional-compilation attribute
// carried by an object, passed through unexamined per spec.md §1.
type Attr struct {
	Value string
	Span  diag.Span
}

// Device is the root of a surface AST: one compiled manifest or DSL
// source.
type Device struct {
	Name    string
	Config  *GlobalConfig
	Objects []Object
	Span    diag.Span
}

// GlobalConfig materializes spec.md §4.E step 1's inputs before defaults
// are substituted during lowering.
type GlobalConfig struct {
	RegisterAddressType *Spanned[string]
	CommandAddressType  *Spanned[string]
	BufferAddressType   *Spanned[string]

	DefaultRegisterAccess *Spanned[Access]
	DefaultFieldAccess    *Spanned[Access]
	DefaultBufferAccess   *Spanned[Access]
	DefaultByteOrder      *Spanned[ByteOrder]
	DefaultBitOrder       *Spanned[BitOrder]

	NameWordBoundaries *Spanned[[]string]
	DefmtFeature       *Spanned[string]

	Span diag.Span
}

// ObjectKind discriminates the surface AST's tagged-variant Object.
type ObjectKind int

const (
	KindBlock ObjectKind = iota
	KindRegister
	KindCommand
	KindBuffer
	KindRef
)

// Object is one named entry in a Device or Block's body.
type Object struct {
	Kind Identifier
	Name Identifier
	Doc  *Doc
	Attr *Attr
	Span diag.Span

	// Exactly one of the following is populated, matching Kind's tag.
	Block    *BlockBody
	Register *RegisterBody
	Command  *CommandBody
	Buffer   *BufferBody
	Ref      *RefBody

	ObjectKind ObjectKind
}

// BlockBody is the surface form of spec.md §3's Block.
type BlockBody struct {
	AddressOffset *Spanned[int64]
	Repeat        *Repeat
	Objects       []Object
	Span          diag.Span
}

// RegisterBody is the surface form of Register.
type RegisterBody struct {
	Access        *Spanned[Access]
	ByteOrder     *Spanned[ByteOrder]
	BitOrder      *Spanned[BitOrder]
	Address       *Spanned[int64]
	SizeBits      *Spanned[int64]
	ResetValue    *ResetValue
	Repeat        *Repeat
	AllowBitOverlap     *Spanned[bool]
	AllowAddressOverlap *Spanned[bool]
	Fields        []FieldDecl
	Span          diag.Span
}

// ResetValue is the surface form: either a single integer (interpreted
// later, once byte/bit order is known) or an explicit byte array.
type ResetValue struct {
	Integer *Spanned[int64]
	Bytes   *Spanned[[]int64]
	Span    diag.Span
}

// CommandBody is the surface form of Command.
type CommandBody struct {
	ByteOrder     *Spanned[ByteOrder]
	BitOrder      *Spanned[BitOrder]
	Address       *Spanned[int64]
	Repeat        *Repeat
	AllowBitOverlap     *Spanned[bool]
	AllowAddressOverlap *Spanned[bool]
	In            *CommandSide
	Out           *CommandSide
	Span          diag.Span
}

// CommandSide is one direction (in/out) of a Command's field-set.
type CommandSide struct {
	SizeBits *Spanned[int64]
	Fields   []FieldDecl
	Span     diag.Span
}

// BufferBody is the surface form of Buffer.
type BufferBody struct {
	Access  *Spanned[Access]
	Address *Spanned[int64]
	Span    diag.Span
}

// RefBody is the surface form of Ref: a target name, the kind asserted
// by the ref's header, and an override body reusing the matching *Body
// type (only non-structural fields of it are honored; see internal/lower).
type RefBody struct {
	TargetKind ObjectKind
	Target     Identifier
	Override   Object
	Span       diag.Span
}

// FieldDecl is the surface form of Field.
type FieldDecl struct {
	Name       Identifier
	Doc        *Doc
	Attr       *Attr
	Access     *Spanned[Access]
	BaseType   *Spanned[BaseType]
	Start      int64
	End        int64
	Conversion *ConversionDecl
	Span       diag.Span
}

// ConversionKeyword distinguishes `as` from `as try`.
type ConversionKeyword int

const (
	ConversionNone ConversionKeyword = iota
	ConversionAs
	ConversionAsTry
)

// ConversionDecl is the surface form of Conversion: either an external
// type path, or an inline enum body.
type ConversionDecl struct {
	Keyword  ConversionKeyword
	TypePath *Spanned[string]
	Enum     *EnumDecl
	Span     diag.Span
}

// EnumDecl is the surface form of EnumSpec.
type EnumDecl struct {
	Name     Identifier
	Doc      *Doc
	Variants []EnumVariantDecl
	Span     diag.Span
}

// VariantValueKind discriminates an enum variant's declared value.
type VariantValueKind int

const (
	VariantAuto VariantValueKind = iota
	VariantExplicit
	VariantDefault
	VariantCatchAll
)

// EnumVariantDecl is the surface form of one EnumSpec variant.
type EnumVariantDecl struct {
	Name      Identifier
	Doc       *Doc
	Attr      *Attr
	ValueKind VariantValueKind
	Value     int64 // meaningful iff ValueKind == VariantExplicit
	Span      diag.Span
}
