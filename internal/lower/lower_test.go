package lower

import (
	"testing"

	"omibyte.io/devicedriver/internal/diag"
	"omibyte.io/devicedriver/internal/dsl"
	"omibyte.io/devicedriver/internal/ir"
)

func lowerSrc(t *testing.T, name, src string) (*ir.Device, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink()
	dev := dsl.Parse(name+".dsl", src, sink)
	if sink.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", sink.All())
	}
	device := LowerDevice(name, dev, sink)
	return device, sink
}

func TestLowerMinimalRegisterRequiresByteOrder(t *testing.T) {
	// spec.md §8 S1: size_bits=16 > 8 and no DefaultByteOrder -> error.
	src := `
config { type RegisterAddressType = u8; }
register Foo {
  const ADDRESS = 3;
  const SIZE_BITS = 16;
  value: uint = 0..16,
}
`
	device, sink := lowerSrc(t, "s1", src)
	found := false
	for _, d := range sink.All() {
		if d.Kind == diag.KindByteOrderRequired {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a byte-order-required diagnostic, got %v", sink.All())
	}
	reg := device.RootBlock.Children[0].(*ir.Register)
	if reg.Name != "foo" || reg.OriginalName != "Foo" {
		t.Fatalf("unexpected register name: %+v", reg)
	}
	if reg.Address != 3 || reg.SizeBits != 16 {
		t.Fatalf("unexpected register address/size: %+v", reg)
	}
	if reg.BitOrder != ir.LSB0 {
		t.Fatalf("expected default bit order LSB0, got %v", reg.BitOrder)
	}
	if len(reg.ResetValue) != 2 || reg.ResetValue[0] != 0 || reg.ResetValue[1] != 0 {
		t.Fatalf("expected zero reset value, got %v", reg.ResetValue)
	}
}

func TestLowerRefResetOverride(t *testing.T) {
	// spec.md §8 S2.
	src := `
config { type RegisterAddressType = u8; type DefaultByteOrder = LE; }
register Foo { const ADDRESS = 3; const SIZE_BITS = 16; v: uint = 0..16, }
ref Bar = register Foo { const ADDRESS = 5; const RESET_VALUE = 0x1234; }
`
	device, sink := lowerSrc(t, "s2", src)
	if sink.HasErrors() {
		t.Fatalf("unexpected lowering errors: %v", sink.All())
	}
	if len(device.RootBlock.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(device.RootBlock.Children))
	}
	foo := device.RootBlock.Children[0].(*ir.Register)
	bar := device.RootBlock.Children[1].(*ir.Register)
	if foo.OriginalName != "Foo" || foo.Address != 3 {
		t.Fatalf("unexpected Foo: %+v", foo)
	}
	if foo.ResetValue[0] != 0 || foo.ResetValue[1] != 0 {
		t.Fatalf("Foo's own reset value must stay zero, got %v", foo.ResetValue)
	}
	if bar.OriginalName != "Bar" || bar.Address != 5 {
		t.Fatalf("unexpected Bar: %+v", bar)
	}
	if bar.ResetValue[0] != 0x34 || bar.ResetValue[1] != 0x12 {
		t.Fatalf("expected Bar's reset value [0x34, 0x12], got %v", bar.ResetValue)
	}
	if len(bar.Fields) != 1 || bar.Fields[0].OriginalName != "v" {
		t.Fatalf("Bar should inherit Foo's field set, got %+v", bar.Fields)
	}
	override, ok := foo.RefResetOverrides["Bar"]
	if !ok || override[0] != 0x34 || override[1] != 0x12 {
		t.Fatalf("expected Foo.RefResetOverrides[Bar] = [0x34,0x12], got %v", foo.RefResetOverrides)
	}
}

func TestLowerEnumClassificationExhaustive(t *testing.T) {
	// spec.md §8 S3: a 2-bit uint field with 4 auto-numbered variants (0..3)
	// is fully exhaustive.
	src := `
config { type RegisterAddressType = u8; }
register R {
  const ADDRESS = 0;
  const SIZE_BITS = 8;
  mode: uint as enum Mode { A, B, C, D } = 0..2,
}
`
	device, sink := lowerSrc(t, "s3a", src)
	if sink.HasErrors() {
		t.Fatalf("unexpected lowering errors: %v", sink.All())
	}
	reg := device.RootBlock.Children[0].(*ir.Register)
	conv := reg.Fields[0].Conversion
	if conv.Kind != ir.ConversionInlineEnum {
		t.Fatalf("expected Infallible (InlineEnum) classification, got %v", conv.Kind)
	}
}

func TestLowerEnumClassificationFallible(t *testing.T) {
	// Remove the D variant: no longer exhaustive, no default/catch_all.
	src := `
config { type RegisterAddressType = u8; }
register R {
  const ADDRESS = 0;
  const SIZE_BITS = 8;
  mode: uint as enum Mode { A, B, C } = 0..2,
}
`
	device, sink := lowerSrc(t, "s3b", src)
	if sink.HasErrors() {
		t.Fatalf("unexpected lowering errors: %v", sink.All())
	}
	reg := device.RootBlock.Children[0].(*ir.Register)
	conv := reg.Fields[0].Conversion
	if conv.Kind != ir.ConversionFallible {
		t.Fatalf("expected Fallible classification, got %v", conv.Kind)
	}
}

func TestLowerEnumClassificationInfallibleWithDefault(t *testing.T) {
	src := `
config { type RegisterAddressType = u8; }
register R {
  const ADDRESS = 0;
  const SIZE_BITS = 8;
  mode: uint as enum Mode { A, B, C = default } = 0..2,
}
`
	device, sink := lowerSrc(t, "s3c", src)
	if sink.HasErrors() {
		t.Fatalf("unexpected lowering errors: %v", sink.All())
	}
	reg := device.RootBlock.Children[0].(*ir.Register)
	conv := reg.Fields[0].Conversion
	if conv.Kind != ir.ConversionInlineEnum {
		t.Fatalf("expected Infallible classification via default variant, got %v", conv.Kind)
	}
}

func TestLowerRefTargetMissing(t *testing.T) {
	src := `
config { type RegisterAddressType = u8; type DefaultByteOrder = LE; }
ref Bar = register Foo { const ADDRESS = 5; }
`
	_, sink := lowerSrc(t, "missing-ref", src)
	found := false
	for _, d := range sink.All() {
		if d.Kind == diag.KindRefTargetMissing {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a ref-target-missing diagnostic, got %v", sink.All())
	}
}

func TestLowerRefOverrideCannotChangeStructuralKeys(t *testing.T) {
	src := `
config { type RegisterAddressType = u8; type DefaultByteOrder = LE; }
register Foo { const ADDRESS = 3; const SIZE_BITS = 16; v: uint = 0..16, }
ref Bar = register Foo { const ADDRESS = 5; const SIZE_BITS = 32; }
`
	_, sink := lowerSrc(t, "ref-structural", src)
	found := false
	for _, d := range sink.All() {
		if d.Kind == diag.KindRefOverrideForbidden {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a ref-override-forbidden diagnostic for overriding size_bits, got %v", sink.All())
	}
}
