package devicedriver

import (
	"os"
	"testing"

	"omibyte.io/devicedriver/internal/diag"
	"omibyte.io/devicedriver/internal/ir"
)

func hasKind(diags []diag.Diagnostic, kind diag.Kind) bool {
	for _, d := range diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

func TestCompileMinimalRegisterRequiresByteOrder(t *testing.T) {
	// spec.md §8 S1.
	src := `
config { type RegisterAddressType = u8; }
register Foo {
  const ADDRESS = 3;
  const SIZE_BITS = 16;
  value: uint = 0..16,
}
`
	device, diags := Compile("s1", "dsl", []byte(src))
	if device != nil {
		t.Fatalf("expected no IR on a byte-order-required error, got %+v", device)
	}
	if !hasKind(diags, diag.KindByteOrderRequired) {
		t.Fatalf("expected a byte-order-required diagnostic, got %v", diags)
	}
}

func TestCompileRefResetOverride(t *testing.T) {
	// spec.md §8 S2.
	src := `
config { type RegisterAddressType = u8; type DefaultByteOrder = LE; }
register Foo { const ADDRESS = 3; const SIZE_BITS = 16; v: uint = 0..16, }
ref Bar = register Foo { const ADDRESS = 5; const RESET_VALUE = 0x1234; }
`
	device, diags := Compile("s2", "dsl", []byte(src))
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if device == nil {
		t.Fatalf("expected a compiled device")
	}
	bar := device.RootBlock.Children[1].(*ir.Register)
	if bar.ResetValue[0] != 0x34 || bar.ResetValue[1] != 0x12 {
		t.Fatalf("expected Bar's reset value [0x34, 0x12], got %v", bar.ResetValue)
	}
}

func TestCompileFieldOverlapDetected(t *testing.T) {
	// spec.md §8 S4.
	src := `
config { type RegisterAddressType = u8; }
register R {
  const ADDRESS = 0;
  const SIZE_BITS = 8;
  a: uint = 0..5,
  b: uint = 3..8,
}
`
	device, diags := Compile("s4", "dsl", []byte(src))
	if device != nil {
		t.Fatalf("expected no IR on a field-overlap error, got %+v", device)
	}
	if !hasKind(diags, diag.KindFieldOverlap) {
		t.Fatalf("expected a field-overlap diagnostic, got %v", diags)
	}
}

func TestCompileFieldOverlapAllowed(t *testing.T) {
	src := `
config { type RegisterAddressType = u8; }
register R {
  const ADDRESS = 0;
  const SIZE_BITS = 8;
  const ALLOW_BIT_OVERLAP = true;
  a: uint = 0..5,
  b: uint = 3..8,
}
`
	device, diags := Compile("s4b", "dsl", []byte(src))
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if device == nil {
		t.Fatalf("expected a compiled device")
	}
}

func TestCompileAddressOverlapUnderRepeat(t *testing.T) {
	// spec.md §8 S5: A repeats {4,1} starting at 0 (occupies 0..3), B sits
	// at address 2 and collides with A's third occurrence.
	src := `
config { type RegisterAddressType = u8; }
register A {
  const ADDRESS = 0;
  const SIZE_BITS = 8;
  const REPEAT = { count: 4, stride: 1 };
  x: uint = 0..8,
}
register B {
  const ADDRESS = 2;
  const SIZE_BITS = 8;
  y: uint = 0..8,
}
`
	device, diags := Compile("s5", "dsl", []byte(src))
	if device != nil {
		t.Fatalf("expected no IR on an address-overlap error, got %+v", device)
	}
	if !hasKind(diags, diag.KindAddressOverlap) {
		t.Fatalf("expected an address-overlap diagnostic, got %v", diags)
	}
}

func TestCompileEnumExhaustivenessScenarios(t *testing.T) {
	// spec.md §8 S3, exercised through the full pipeline rather than just
	// internal/lower, to confirm internal/semantic's enum checks still run
	// for every classification.
	cases := []struct {
		name string
		body string
		want ir.ConversionKind
	}{
		{"exhaustive", "mode: uint as enum Mode { A, B, C, D } = 0..2,", ir.ConversionInlineEnum},
		{"fallible", "mode: uint as enum Mode { A, B, C } = 0..2,", ir.ConversionFallible},
		{"infallible-with-default", "mode: uint as enum Mode { A, B, C = default } = 0..2,", ir.ConversionInlineEnum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := "config { type RegisterAddressType = u8; }\nregister R {\n  const ADDRESS = 0;\n  const SIZE_BITS = 8;\n  " + tc.body + "\n}\n"
			device, diags := Compile("s3-"+tc.name, "dsl", []byte(src))
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %v", diags)
			}
			if device == nil {
				t.Fatalf("expected a compiled device")
			}
			reg := device.RootBlock.Children[0].(*ir.Register)
			if got := reg.Fields[0].Conversion.Kind; got != tc.want {
				t.Fatalf("expected conversion kind %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCompileDuplicateEnumValueRejected(t *testing.T) {
	src := `
config { type RegisterAddressType = u8; }
register R {
  const ADDRESS = 0;
  const SIZE_BITS = 8;
  mode: uint as enum Mode { A = 0, B = 0 } = 0..2,
}
`
	device, diags := Compile("dup-enum", "dsl", []byte(src))
	if device != nil {
		t.Fatalf("expected no IR on a duplicate enum value, got %+v", device)
	}
	if !hasKind(diags, diag.KindEnumDuplicateValue) {
		t.Fatalf("expected an enum-duplicate-value diagnostic, got %v", diags)
	}
}

func TestCompileUnknownManifestFormat(t *testing.T) {
	device, diags := Compile("bad-fmt", "xml", []byte("<a/>"))
	if device != nil {
		t.Fatalf("expected no IR for an unrecognized format, got %+v", device)
	}
	if !hasKind(diags, diag.KindSyntax) {
		t.Fatalf("expected a syntax diagnostic for the unrecognized format, got %v", diags)
	}
}

// manifestSummary strips span information so IR trees built from
// different input syntaxes can be compared for structural equality.
type manifestSummary struct {
	fooAddr, barAddr   int64
	fooSizeBits        int64
	barReset           []byte
	fieldName          string
	fieldStart, fieldEnd int64
}

func summarize(t *testing.T, device *ir.Device) manifestSummary {
	t.Helper()
	if len(device.RootBlock.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(device.RootBlock.Children))
	}
	foo := device.RootBlock.Children[0].(*ir.Register)
	bar := device.RootBlock.Children[1].(*ir.Register)
	if len(foo.Fields) != 1 {
		t.Fatalf("expected Foo to have 1 field, got %d", len(foo.Fields))
	}
	return manifestSummary{
		fooAddr:     foo.Address,
		barAddr:     bar.Address,
		fooSizeBits: foo.SizeBits,
		barReset:    bar.ResetValue,
		fieldName:   foo.Fields[0].Name,
		fieldStart:  foo.Fields[0].Start,
		fieldEnd:    foo.Fields[0].End,
	}
}

func summariesEqual(a, b manifestSummary) bool {
	if a.fooAddr != b.fooAddr || a.barAddr != b.barAddr || a.fooSizeBits != b.fooSizeBits {
		return false
	}
	if a.fieldName != b.fieldName || a.fieldStart != b.fieldStart || a.fieldEnd != b.fieldEnd {
		return false
	}
	if len(a.barReset) != len(b.barReset) {
		return false
	}
	for i := range a.barReset {
		if a.barReset[i] != b.barReset[i] {
			return false
		}
	}
	return true
}

func TestCompileCrossSyntaxEquivalence(t *testing.T) {
	// spec.md §8 S6: the same device, expressed in the DSL and in each of
	// the three structured manifest backends, must lower to the same IR
	// shape (address, size, reset bytes, field range), modulo spans.
	dslSrc := `
config { type RegisterAddressType = u8; type DefaultByteOrder = LE; }
register Foo { const ADDRESS = 3; const SIZE_BITS = 16; v: uint = 0..16, }
ref Bar = register Foo { const ADDRESS = 5; const RESET_VALUE = 0x1234; }
`
	jsonSrc := `{
  "config": {"register_address_type": "u8", "default_byte_order": "LE"},
  "Foo": {"type": "register", "address": 3, "size_bits": 16,
           "fields": {"v": {"type": "uint", "address": [0, 16]}}},
  "Bar": {"type": "ref", "target_kind": "register", "target": "Foo",
          "override": {"address": 5, "reset_value": 4660}}
}`
	yamlSrc := `
config:
  register_address_type: u8
  default_byte_order: LE
Foo:
  type: register
  address: 3
  size_bits: 16
  fields:
    v:
      type: uint
      address: [0, 16]
Bar:
  type: ref
  target_kind: register
  target: Foo
  override:
    address: 5
    reset_value: 4660
`
	tomlSrc := `
[config]
register_address_type = "u8"
default_byte_order = "LE"

[Foo]
type = "register"
address = 3
size_bits = 16

[Foo.fields.v]
type = "uint"
address = [0, 16]

[Bar]
type = "ref"
target_kind = "register"
target = "Foo"

[Bar.override]
address = 5
reset_value = 4660
`
	dslDevice, dslDiags := Compile("s6-dsl", "dsl", []byte(dslSrc))
	if len(dslDiags) != 0 {
		t.Fatalf("dsl: unexpected diagnostics: %v", dslDiags)
	}
	want := summarize(t, dslDevice)

	others := map[string]struct {
		format string
		src    string
	}{
		"json": {"json", jsonSrc},
		"yaml": {"yaml", yamlSrc},
		"toml": {"toml", tomlSrc},
	}
	for name, s := range others {
		device, diags := Compile("s6-"+name, s.format, []byte(s.src))
		if len(diags) != 0 {
			t.Fatalf("%s: unexpected diagnostics: %v", name, diags)
		}
		if device == nil {
			t.Fatalf("%s: expected a compiled device", name)
		}
		got := summarize(t, device)
		if !summariesEqual(got, want) {
			t.Fatalf("%s: IR summary %+v does not match dsl summary %+v", name, got, want)
		}
	}
}

func TestCompileFileDerivesNameAndFormat(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/thermostat.dsl"
	src := `
config { type RegisterAddressType = u8; type DefaultByteOrder = LE; }
register Foo { const ADDRESS = 0; const SIZE_BITS = 8; v: uint = 0..8, }
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	device, diags := CompileFile(path)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if device == nil || device.Name != "thermostat" {
		t.Fatalf("expected device named thermostat, got %+v", device)
	}
}
