// Package devicedriver wires the Manifest Tree, Manifest Deserializer,
// DSL Lexer+Parser, Lowering, and Semantic Analyzer into the single
// `source text -> Surface AST -> IR` pipeline a caller actually wants:
// one function in, one IR (or one set of diagnostics) out.
package devicedriver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"omibyte.io/devicedriver/internal/ast"
	"omibyte.io/devicedriver/internal/deserialize"
	"omibyte.io/devicedriver/internal/diag"
	"omibyte.io/devicedriver/internal/dsl"
	"omibyte.io/devicedriver/internal/ir"
	"omibyte.io/devicedriver/internal/lower"
	"omibyte.io/devicedriver/internal/manifest"
	"omibyte.io/devicedriver/internal/semantic"
)

// Compile runs the full pipeline over already-surfaced source text.
// format selects the manifest backend; pass "" (or "dsl") for the
// purpose-built DSL. name becomes the device's root block name after
// normalization (callers without a natural name, e.g. stdin, can pass
// anything stable).
//
// Per spec.md §7's collect-then-surface policy: any error reported while
// building the Surface AST (a syntax or schema error in the DSL or
// manifest) short-circuits lowering and semantic analysis, but
// diagnostics from lowering and semantic analysis are collected together
// before this function returns.
func Compile(name, format string, src []byte) (*ir.Device, diag.Diagnostics) {
	sink := diag.NewSink()

	dev := parseSurface(name, format, src, sink)
	if dev == nil || sink.HasErrors() {
		return nil, sink.All()
	}

	device := lower.LowerDevice(name, dev, sink)
	semantic.Check(device, sink)
	if sink.HasErrors() {
		return nil, sink.All()
	}
	return device, sink.All()
}

func parseSurface(name, format string, src []byte, sink *diag.Sink) *ast.Device {
	if format == "" || format == "dsl" {
		return dsl.Parse(name, string(src), sink)
	}
	f, ok := manifest.FormatFromExtension(format)
	if !ok {
		sink.Errorf(diag.Span{File: name}, diag.KindSyntax, "unrecognized manifest format %q", format)
		return nil
	}
	root, err := manifest.Parse(f, name, src)
	if err != nil {
		sink.Errorf(diag.Span{File: name}, diag.KindSyntax, "%s", err)
		return nil
	}
	return deserialize.Deserialize(name, root, sink)
}

// CompileFile reads path from disk and compiles it, selecting the DSL
// or a manifest backend from its extension (spec.md §6's input surface
// table). The device name defaults to the file's base name without
// extension.
func CompileFile(path string) (*ir.Device, diag.Diagnostics) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.Diagnostics{{
			Severity: diag.Error,
			Kind:     diag.KindSyntax,
			Primary:  diag.Span{File: path},
			Message:  fmt.Sprintf("reading %s: %s", path, err),
		}}
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	ext := strings.TrimPrefix(filepath.Ext(path), ".")

	format := "dsl"
	if ext != "dsl" && ext != "" {
		format = ext
	}
	return Compile(name, format, src)
}
