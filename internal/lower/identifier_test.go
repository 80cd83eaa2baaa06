package lower

import (
	"reflect"
	"testing"
)

func TestSplitWords(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"snake_case", "register_address_type", []string{"register", "address", "type"}},
		{"kebab-case", "my-field-name", []string{"my", "field", "name"}},
		{"camelCase", "myFieldName", []string{"my", "Field", "Name"}},
		{"PascalCase", "RegisterAddressType", []string{"Register", "Address", "Type"}},
		{"acronym-run", "HTTPServer", []string{"HTTP", "Server"}},
		{"digit-after-lower", "field1Value", []string{"field", "1", "Value"}},
		{"upper-then-digit", "ADC0", []string{"ADC", "0"}},
		{"mixed-separators", "foo_bar-baz qux", []string{"foo", "bar", "baz", "qux"}},
		{"already-lower", "foo", []string{"foo"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := SplitWords(c.in, DefaultBoundaries)
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("SplitWords(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestSplitWordsRespectsDisabledBoundaries(t *testing.T) {
	// With lower_upper disabled, camelCase is not split on its own.
	got := SplitWords("myFieldName", []string{BoundaryUnderscore, BoundaryHyphen, BoundarySpace})
	want := []string{"myFieldName"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitWords with lower_upper disabled = %v, want %v", got, want)
	}
}

func TestCanonicalName(t *testing.T) {
	got := CanonicalName([]string{"Register", "Address", "Type"})
	want := "register_address_type"
	if got != want {
		t.Fatalf("CanonicalName = %q, want %q", got, want)
	}
}

func TestNormalizeIdempotence(t *testing.T) {
	// Testable property 7: normalize(normalize(name)) == normalize(name).
	names := []string{"RegisterAddressType", "my-field-name", "HTTPServer", "ADC0", "v"}
	for _, n := range names {
		once, _ := Normalize(n, DefaultBoundaries)
		twice, _ := Normalize(once, DefaultBoundaries)
		if once != twice {
			t.Errorf("normalize not idempotent for %q: once=%q twice=%q", n, once, twice)
		}
	}
}

func TestNormalizeRetainsOriginalSpelling(t *testing.T) {
	canonical, words := Normalize("RegisterFoo", DefaultBoundaries)
	if canonical != "register_foo" {
		t.Fatalf("canonical = %q, want register_foo", canonical)
	}
	if !reflect.DeepEqual(words, []string{"Register", "Foo"}) {
		t.Fatalf("words = %v", words)
	}
}
