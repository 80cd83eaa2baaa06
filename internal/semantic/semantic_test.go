package semantic

import (
	"testing"

	"omibyte.io/devicedriver/internal/diag"
	"omibyte.io/devicedriver/internal/ir"
)

func deviceWith(root *ir.Block) *ir.Device {
	return &ir.Device{
		AddressTypes: ir.AddressTypes{Register: ir.AddrU8, Command: ir.AddrU8, Buffer: ir.AddrU8},
		RootBlock:    root,
	}
}

func hasKind(diags []diag.Diagnostic, kind diag.Kind) bool {
	for _, d := range diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func TestCheckFieldOverlapDetected(t *testing.T) {
	// spec.md §8 S4: fields a=[0,5), b=[3,8), no allow_bit_overlap.
	reg := &ir.Register{
		Name: "r", SizeBits: 8,
		Fields: []ir.Field{
			{Name: "a", OriginalName: "a", Start: 0, End: 5},
			{Name: "b", OriginalName: "b", Start: 3, End: 8},
		},
	}
	sink := diag.NewSink()
	checkFieldSet(reg.Fields, reg.SizeBits, false, reg.Name, reg.Span, sink)
	if !hasKind(sink.All(), diag.KindFieldOverlap) {
		t.Fatalf("expected a field-overlap diagnostic, got %v", sink.All())
	}
}

func TestCheckFieldOverlapAllowed(t *testing.T) {
	reg := &ir.Register{
		Name: "r", SizeBits: 8,
		Fields: []ir.Field{
			{Name: "a", OriginalName: "a", BaseType: ir.BaseTypeUint, Start: 0, End: 5},
			{Name: "b", OriginalName: "b", BaseType: ir.BaseTypeUint, Start: 3, End: 8},
		},
	}
	sink := diag.NewSink()
	checkFieldSet(reg.Fields, reg.SizeBits, true, reg.Name, reg.Span, sink)
	if sink.HasErrors() {
		t.Fatalf("allow_bit_overlap should suppress overlap errors, got %v", sink.All())
	}
}

func TestCheckAddressOverlapUnderRepeat(t *testing.T) {
	// spec.md §8 S5: register A at address 0, repeat {4,1}; register B at
	// address 2. A's third occurrence (index 2) collides with B.
	a := &ir.Register{Name: "A", Address: 0, Repeat: &ir.Repeat{Count: 4, Stride: 1}}
	b := &ir.Register{Name: "B", Address: 2}
	root := &ir.Block{Children: []ir.Node{a, b}}
	sink := diag.NewSink()
	checkBlock(deviceWith(root), root, sink)
	if !hasKind(sink.All(), diag.KindAddressOverlap) {
		t.Fatalf("expected an address-overlap diagnostic, got %v", sink.All())
	}
}

func TestCheckAddressOverlapAllowedOnBothSides(t *testing.T) {
	a := &ir.Register{Name: "A", Address: 0, AllowAddressOverlap: true}
	b := &ir.Register{Name: "B", Address: 0, AllowAddressOverlap: true}
	root := &ir.Block{Children: []ir.Node{a, b}}
	sink := diag.NewSink()
	checkBlock(deviceWith(root), root, sink)
	if hasKind(sink.All(), diag.KindAddressOverlap) {
		t.Fatalf("both sides allowing overlap should suppress the error, got %v", sink.All())
	}
}

func TestCheckDuplicateNameWithinBlock(t *testing.T) {
	a := &ir.Register{Name: "foo", Address: 0}
	b := &ir.Register{Name: "foo", Address: 1}
	root := &ir.Block{Children: []ir.Node{a, b}}
	sink := diag.NewSink()
	checkBlock(deviceWith(root), root, sink)
	if !hasKind(sink.All(), diag.KindDuplicateName) {
		t.Fatalf("expected a duplicate-name diagnostic, got %v", sink.All())
	}
}

func TestCheckResetValueWrongLength(t *testing.T) {
	r := &ir.Register{OriginalName: "r", SizeBits: 16, ResetValue: []byte{0}}
	sink := diag.NewSink()
	checkResetValue(r, sink)
	if !hasKind(sink.All(), diag.KindResetValueSize) {
		t.Fatalf("expected a reset-value-size diagnostic, got %v", sink.All())
	}
}

func TestCheckResetValueOutOfRangeHighBits(t *testing.T) {
	// spec.md boundary behavior 13: size_bits=4 but the stored byte has a
	// nonzero bit above bit 3.
	r := &ir.Register{OriginalName: "r", SizeBits: 4, ResetValue: []byte{0xF0}}
	sink := diag.NewSink()
	checkResetValue(r, sink)
	if !hasKind(sink.All(), diag.KindResetValueSize) {
		t.Fatalf("expected a reset-value-size diagnostic for out-of-range bits, got %v", sink.All())
	}
}

func TestCheckBoolFieldWidth(t *testing.T) {
	// spec.md boundary behavior 12: a bool field of width > 1 is rejected.
	fields := []ir.Field{{OriginalName: "flag", BaseType: ir.BaseTypeBool, Start: 0, End: 2}}
	sink := diag.NewSink()
	checkFieldSet(fields, 8, false, "r", diag.Span{}, sink)
	if !hasKind(sink.All(), diag.KindBoolFieldWidth) {
		t.Fatalf("expected a bool-field-width diagnostic, got %v", sink.All())
	}
}

func TestCheckFieldRangeOutOfBounds(t *testing.T) {
	fields := []ir.Field{{OriginalName: "f", Start: 4, End: 10}}
	sink := diag.NewSink()
	checkFieldSet(fields, 8, false, "r", diag.Span{}, sink)
	if !hasKind(sink.All(), diag.KindFieldRange) {
		t.Fatalf("expected a field-range diagnostic, got %v", sink.All())
	}
}

func TestCheckAddressFitRejectsOutOfRange(t *testing.T) {
	sink := diag.NewSink()
	checkAddressFit(256, ir.AddrU8, "r", diag.Span{}, sink)
	if !hasKind(sink.All(), diag.KindAddressFit) {
		t.Fatalf("expected an address-fit diagnostic, got %v", sink.All())
	}
}

func TestCheckRepeatStrideZero(t *testing.T) {
	sink := diag.NewSink()
	checkRepeat(&ir.Repeat{Count: 3, Stride: 0}, "r", sink)
	if !hasKind(sink.All(), diag.KindRepeatStrideZero) {
		t.Fatalf("expected a repeat-stride-zero diagnostic, got %v", sink.All())
	}
}

func TestCheckEnumDuplicateValue(t *testing.T) {
	f := ir.Field{
		Conversion: ir.Conversion{
			Kind: ir.ConversionInlineEnum,
			Enum: &ir.EnumSpec{
				Name: "mode",
				Variants: []ir.EnumVariant{
					{OriginalName: "A", Kind: ir.VariantExplicit, Value: 0},
					{OriginalName: "B", Kind: ir.VariantExplicit, Value: 0},
				},
			},
		},
	}
	sink := diag.NewSink()
	checkEnum(f, sink)
	if !hasKind(sink.All(), diag.KindEnumDuplicateValue) {
		t.Fatalf("expected an enum-duplicate-value diagnostic, got %v", sink.All())
	}
}

func TestCheckEnumMultipleDefault(t *testing.T) {
	f := ir.Field{
		Conversion: ir.Conversion{
			Kind: ir.ConversionInlineEnum,
			Enum: &ir.EnumSpec{
				Name: "mode",
				Variants: []ir.EnumVariant{
					{OriginalName: "A", Kind: ir.VariantDefault},
					{OriginalName: "B", Kind: ir.VariantDefault},
				},
			},
		},
	}
	sink := diag.NewSink()
	checkEnum(f, sink)
	if !hasKind(sink.All(), diag.KindEnumMultipleDefault) {
		t.Fatalf("expected an enum-multiple-default diagnostic, got %v", sink.All())
	}
}

func TestCheckAddressTypeMissing(t *testing.T) {
	root := &ir.Block{Children: []ir.Node{&ir.Register{Name: "r", Address: 0}}}
	dev := &ir.Device{RootBlock: root} // no AddressTypes configured
	sink := diag.NewSink()
	Check(dev, sink)
	if !hasKind(sink.All(), diag.KindAddressTypeMissing) {
		t.Fatalf("expected an address-type-missing diagnostic, got %v", sink.All())
	}
}

func TestBuffersExcludedFromOverlapChecking(t *testing.T) {
	// Open Question decision: buffers participate in address-fit checking
	// but never in overlap checking.
	a := &ir.Buffer{Name: "A", Address: 0}
	b := &ir.Buffer{Name: "B", Address: 0}
	root := &ir.Block{Children: []ir.Node{a, b}}
	sink := diag.NewSink()
	checkBlock(deviceWith(root), root, sink)
	if hasKind(sink.All(), diag.KindAddressOverlap) {
		t.Fatalf("buffers must not be overlap-checked, got %v", sink.All())
	}
}
