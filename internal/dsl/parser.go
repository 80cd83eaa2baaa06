package dsl

import (
	"omibyte.io/devicedriver/internal/ast"
	"omibyte.io/devicedriver/internal/diag"
)

type parser struct {
	file string
	lex  *lexer
	sink *diag.Sink
	cur  token
}

// Parse tokenizes and parses src (one DSL source file) into a surface
// AST, reporting syntax errors to sink.
func Parse(file, src string, sink *diag.Sink) *ast.Device {
	p := &parser{file: file, lex: newLexer(file, src, sink), sink: sink}
	p.advance()
	return p.parseDevice()
}

func (p *parser) advance() { p.cur = p.lex.next() }

func (p *parser) span(t token) diag.Span { return t.span(p.file) }

func (p *parser) errorf(t token, kind diag.Kind, format string, args ...any) {
	p.sink.Errorf(p.span(t), kind, format, args...)
}

func (p *parser) isIdent(text string) bool {
	return p.cur.kind == tokIdent && p.cur.text == text
}

func (p *parser) expectIdent(text string) bool {
	if p.isIdent(text) {
		p.advance()
		return true
	}
	p.errorf(p.cur, diag.KindSyntax, "expected %q, got %q", text, p.cur.text)
	return false
}

func (p *parser) expectKind(k tokenKind, desc string) (token, bool) {
	if p.cur.kind == k {
		t := p.cur
		p.advance()
		return t, true
	}
	p.errorf(p.cur, diag.KindSyntax, "expected %s", desc)
	return p.cur, false
}

func (p *parser) takeIdentName() (ast.Identifier, bool) {
	t, ok := p.expectKind(tokIdent, "an identifier")
	return ast.Identifier{Original: t.text, Span: p.span(t)}, ok
}

func (p *parser) parseDevice() *ast.Device {
	startSpan := p.span(p.cur)
	dev := &ast.Device{}
	if p.isIdent("config") {
		dev.Config = p.parseGlobalConfig()
	}
	for p.cur.kind != tokEOF {
		if p.cur.kind == tokComma {
			p.advance()
			continue
		}
		obj := p.parseObject()
		if obj != nil {
			dev.Objects = append(dev.Objects, *obj)
		} else {
			// Parsing failed to make progress; avoid an infinite loop by
			// skipping the offending token.
			if p.cur.kind == tokEOF {
				break
			}
			p.advance()
		}
	}
	dev.Span = diag.Span{File: p.file, Offset: startSpan.Offset, Length: p.cur.offset - startSpan.Offset}
	return dev
}

func (p *parser) parseGlobalConfig() *ast.GlobalConfig {
	start := p.cur
	p.expectIdent("config")
	cfg := &ast.GlobalConfig{}
	if _, ok := p.expectKind(tokLBrace, "'{'"); !ok {
		return cfg
	}
	for p.cur.kind != tokRBrace && p.cur.kind != tokEOF {
		p.parseConfigItem(cfg)
	}
	p.expectKind(tokRBrace, "'}'")
	cfg.Span = diag.Span{File: p.file, Offset: start.offset, Length: p.cur.offset - start.offset}
	return cfg
}

func (p *parser) parseConfigItem(cfg *ast.GlobalConfig) {
	if !p.expectIdent("type") {
		return
	}
	nameTok, ok := p.expectKind(tokIdent, "a config key name")
	if !ok {
		return
	}
	if _, ok := p.expectKind(tokEquals, "'='"); !ok {
		return
	}
	span := p.span(nameTok)
	switch nameTok.text {
	case "RegisterAddressType":
		cfg.RegisterAddressType = p.parseAddrTypeValue()
	case "CommandAddressType":
		cfg.CommandAddressType = p.parseAddrTypeValue()
	case "BufferAddressType":
		cfg.BufferAddressType = p.parseAddrTypeValue()
	case "DefaultRegisterAccess":
		cfg.DefaultRegisterAccess = p.parseAccessValue(span)
	case "DefaultFieldAccess":
		cfg.DefaultFieldAccess = p.parseAccessValue(span)
	case "DefaultBufferAccess":
		cfg.DefaultBufferAccess = p.parseAccessValue(span)
	case "DefaultByteOrder":
		cfg.DefaultByteOrder = p.parseByteOrderValue(span)
	case "DefaultBitOrder":
		cfg.DefaultBitOrder = p.parseBitOrderValue(span)
	case "NameWordBoundaries":
		cfg.NameWordBoundaries = p.parseStringListValue()
	case "DefmtFeature":
		t, ok := p.expectKind(tokString, "a string")
		if ok {
			cfg.DefmtFeature = &ast.Spanned[string]{Value: t.text, Span: p.span(t)}
		}
	default:
		p.errorf(nameTok, diag.KindSchemaUnknownKey, "unrecognized global config key %q", nameTok.text)
		p.skipValue()
	}
	p.expectKind(tokSemicolon, "';'")
}

func (p *parser) skipValue() {
	depth := 0
	for p.cur.kind != tokEOF {
		switch p.cur.kind {
		case tokLBrace, tokLBracket, tokLParen:
			depth++
		case tokRBrace, tokRBracket, tokRParen:
			if depth == 0 {
				return
			}
			depth--
		case tokSemicolon:
			if depth == 0 {
				return
			}
		}
		p.advance()
	}
}

func (p *parser) parseAddrTypeValue() *ast.Spanned[string] {
	t, ok := p.expectKind(tokIdent, "an address type")
	if !ok {
		return nil
	}
	if _, valid := ast.ValidAddrType(t.text); !valid {
		p.errorf(t, diag.KindSchemaBadAddressType, "unrecognized address type %q", t.text)
		return nil
	}
	return &ast.Spanned[string]{Value: t.text, Span: p.span(t)}
}

func (p *parser) parseAccessValue(span diag.Span) *ast.Spanned[ast.Access] {
	t, ok := p.expectKind(tokIdent, "an access keyword")
	if !ok {
		return nil
	}
	a, ok := parseAccessWord(t.text)
	if !ok {
		p.errorf(t, diag.KindSchemaWrongKind, "unrecognized access value %q", t.text)
		return nil
	}
	return &ast.Spanned[ast.Access]{Value: a, Span: p.span(t)}
}

func parseAccessWord(s string) (ast.Access, bool) {
	switch s {
	case "RW", "ReadWrite":
		return ast.AccessRW, true
	case "RO", "ReadOnly":
		return ast.AccessRO, true
	case "WO", "WriteOnly":
		return ast.AccessWO, true
	default:
		return ast.AccessUnset, false
	}
}

func (p *parser) parseByteOrderValue(span diag.Span) *ast.Spanned[ast.ByteOrder] {
	t, ok := p.expectKind(tokIdent, "LE or BE")
	if !ok {
		return nil
	}
	switch t.text {
	case "LE":
		return &ast.Spanned[ast.ByteOrder]{Value: ast.LE, Span: p.span(t)}
	case "BE":
		return &ast.Spanned[ast.ByteOrder]{Value: ast.BE, Span: p.span(t)}
	default:
		p.errorf(t, diag.KindSchemaWrongKind, "unrecognized byte order %q", t.text)
		return nil
	}
}

func (p *parser) parseBitOrderValue(span diag.Span) *ast.Spanned[ast.BitOrder] {
	t, ok := p.expectKind(tokIdent, "LSB0 or MSB0")
	if !ok {
		return nil
	}
	switch t.text {
	case "LSB0":
		return &ast.Spanned[ast.BitOrder]{Value: ast.LSB0, Span: p.span(t)}
	case "MSB0":
		return &ast.Spanned[ast.BitOrder]{Value: ast.MSB0, Span: p.span(t)}
	default:
		p.errorf(t, diag.KindSchemaWrongKind, "unrecognized bit order %q", t.text)
		return nil
	}
}

func (p *parser) parseStringListValue() *ast.Spanned[[]string] {
	if p.cur.kind == tokString {
		t := p.cur
		p.advance()
		return &ast.Spanned[[]string]{Value: []string{t.text}, Span: p.span(t)}
	}
	start := p.cur
	if _, ok := p.expectKind(tokLBracket, "'[' or a string"); !ok {
		return nil
	}
	var out []string
	for p.cur.kind != tokRBracket && p.cur.kind != tokEOF {
		t, ok := p.expectKind(tokString, "a string")
		if ok {
			out = append(out, t.text)
		}
		if p.cur.kind == tokComma {
			p.advance()
		}
	}
	p.expectKind(tokRBracket, "']'")
	return &ast.Spanned[[]string]{Value: out, Span: diag.Span{File: p.file, Offset: start.offset, Length: p.cur.offset - start.offset}}
}

// parseAttrList consumes #[doc = "..."] and #[cfg(...)] attributes,
// returning at most one Doc (lines concatenated in source order) and at
// most one Attr (only the last #[cfg(...)] wins, per spec.md §1's "at
// most one conditional-compilation attribute").
func (p *parser) parseAttrList() (*ast.Doc, *ast.Attr) {
	var doc *ast.Doc
	var attr *ast.Attr
	for p.cur.kind == tokHash {
		hashTok := p.cur
		p.advance()
		if _, ok := p.expectKind(tokLBracket, "'['"); !ok {
			return doc, attr
		}
		nameTok, ok := p.expectKind(tokIdent, "'doc' or 'cfg'")
		if !ok {
			return doc, attr
		}
		switch nameTok.text {
		case "doc":
			p.expectKind(tokEquals, "'='")
			t, ok := p.expectKind(tokString, "a string")
			if ok {
				if doc == nil {
					doc = &ast.Doc{Span: p.span(hashTok)}
				}
				doc.Lines = append(doc.Lines, t.text)
			}
		case "cfg":
			p.expectKind(tokLParen, "'('")
			start := p.cur
			depth := 1
			for depth > 0 && p.cur.kind != tokEOF {
				if p.cur.kind == tokLParen {
					depth++
				} else if p.cur.kind == tokRParen {
					depth--
					if depth == 0 {
						break
					}
				}
				p.advance()
			}
			attr = &ast.Attr{Value: p.lex.src[start.offset:p.cur.offset], Span: p.span(hashTok)}
			p.expectKind(tokRParen, "')'")
		default:
			p.errorf(nameTok, diag.KindSyntax, "unrecognized attribute %q", nameTok.text)
		}
		p.expectKind(tokRBracket, "']'")
	}
	return doc, attr
}

func (p *parser) parseObject() *ast.Object {
	doc, attr := p.parseAttrList()
	var obj *ast.Object
	switch {
	case p.isIdent("block"):
		obj = p.parseBlock()
	case p.isIdent("register"):
		obj = p.parseRegister()
	case p.isIdent("command"):
		obj = p.parseCommand()
	case p.isIdent("buffer"):
		obj = p.parseBuffer()
	case p.isIdent("ref"):
		obj = p.parseRef()
	default:
		p.errorf(p.cur, diag.KindSyntax, "expected block, register, command, buffer or ref, got %q", p.cur.text)
		return nil
	}
	if obj == nil {
		return nil
	}
	obj.Doc = doc
	obj.Attr = attr
	return obj
}

// constValue is the parsed right-hand side of one `const NAME = ...;`
// statement inside a Block/Register/Command head.
type constValue struct {
	Int          *int64
	Bytes        []int64
	Bool         *bool
	Ident        string
	RepeatCount  int64
	RepeatStride int64
	IsRepeat     bool
	Span         diag.Span
}

// parseConstHead consumes zero or more `const NAME = Value ;` statements
// until the next token is not `const`, returning them keyed by name.
func (p *parser) parseConstHead() map[string]constValue {
	consts := map[string]constValue{}
	for p.isIdent("const") {
		p.advance()
		nameTok, ok := p.expectKind(tokIdent, "a const name")
		if !ok {
			return consts
		}
		if _, ok := p.expectKind(tokEquals, "'='"); !ok {
			return consts
		}
		consts[nameTok.text] = p.parseConstValue(nameTok.text)
		p.expectKind(tokSemicolon, "';'")
	}
	return consts
}

func (p *parser) parseConstValue(name string) constValue {
	start := p.cur
	var cv constValue
	switch name {
	case "ADDRESS", "ADDRESS_OFFSET", "SIZE_BITS", "SIZE_BITS_IN", "SIZE_BITS_OUT":
		t, ok := p.expectKind(tokInt, "an integer")
		if ok {
			cv.Int = &t.intVal
		}
	case "RESET_VALUE":
		if p.cur.kind == tokLBracket {
			p.advance()
			for p.cur.kind != tokRBracket && p.cur.kind != tokEOF {
				t, ok := p.expectKind(tokInt, "an integer")
				if ok {
					cv.Bytes = append(cv.Bytes, t.intVal)
				}
				if p.cur.kind == tokComma {
					p.advance()
				}
			}
			p.expectKind(tokRBracket, "']'")
		} else {
			t, ok := p.expectKind(tokInt, "an integer or a byte array")
			if ok {
				cv.Int = &t.intVal
			}
		}
	case "REPEAT":
		cv.IsRepeat = true
		if _, ok := p.expectKind(tokLBrace, "'{'"); ok {
			for p.cur.kind != tokRBrace && p.cur.kind != tokEOF {
				keyTok, ok := p.expectKind(tokIdent, "'count' or 'stride'")
				if !ok {
					break
				}
				p.expectKind(tokColon, "':'")
				valTok, ok := p.expectKind(tokInt, "an integer")
				if ok {
					switch keyTok.text {
					case "count":
						cv.RepeatCount = valTok.intVal
					case "stride":
						cv.RepeatStride = valTok.intVal
					default:
						p.errorf(keyTok, diag.KindSchemaUnknownKey, "unrecognized repeat key %q", keyTok.text)
					}
				}
				if p.cur.kind == tokComma {
					p.advance()
				}
			}
			p.expectKind(tokRBrace, "'}'")
		}
	case "ALLOW_BIT_OVERLAP", "ALLOW_ADDRESS_OVERLAP":
		t, ok := p.expectKind(tokIdent, "true or false")
		if ok {
			b := t.text == "true"
			if t.text != "true" && t.text != "false" {
				p.errorf(t, diag.KindSchemaWrongKind, "expected true or false, got %q", t.text)
			}
			cv.Bool = &b
		}
	case "ACCESS", "BYTE_ORDER", "BIT_ORDER":
		t, ok := p.expectKind(tokIdent, "an identifier")
		if ok {
			cv.Ident = t.text
		}
	default:
		p.errorf(start, diag.KindSchemaUnknownKey, "unrecognized const name %q", name)
		p.skipValue()
	}
	cv.Span = diag.Span{File: p.file, Offset: start.offset, Length: p.cur.offset - start.offset}
	return cv
}

func spannedInt(v int64, span diag.Span) *ast.Spanned[int64] { return &ast.Spanned[int64]{Value: v, Span: span} }
func spannedBool(v bool, span diag.Span) *ast.Spanned[bool]  { return &ast.Spanned[bool]{Value: v, Span: span} }

func constRepeat(cv constValue) *ast.Repeat {
	if !cv.IsRepeat {
		return nil
	}
	return &ast.Repeat{Count: cv.RepeatCount, Stride: cv.RepeatStride, Span: cv.Span}
}

func (p *parser) parseBlock() *ast.Object {
	start := p.cur
	p.advance() // 'block'
	name, _ := p.takeIdentName()
	body := &ast.BlockBody{}
	if _, ok := p.expectKind(tokLBrace, "'{'"); ok {
		consts := p.parseConstHead()
		if cv, ok := consts["ADDRESS_OFFSET"]; ok && cv.Int != nil {
			body.AddressOffset = spannedInt(*cv.Int, cv.Span)
		}
		if cv, ok := consts["REPEAT"]; ok {
			body.Repeat = constRepeat(cv)
		}
		for p.cur.kind != tokRBrace && p.cur.kind != tokEOF {
			if p.cur.kind == tokComma {
				p.advance()
				continue
			}
			child := p.parseObject()
			if child != nil {
				body.Objects = append(body.Objects, *child)
			} else {
				p.advance()
			}
		}
		p.expectKind(tokRBrace, "'}'")
	}
	body.Span = diag.Span{File: p.file, Offset: start.offset, Length: p.cur.offset - start.offset}
	return &ast.Object{
		Kind: ast.Identifier{Original: "block", Span: p.span(start)},
		Name: name, ObjectKind: ast.KindBlock, Block: body,
		Span: body.Span,
	}
}

func (p *parser) parseRegister() *ast.Object {
	start := p.cur
	p.advance() // 'register'
	name, _ := p.takeIdentName()
	body := &ast.RegisterBody{}
	if _, ok := p.expectKind(tokLBrace, "'{'"); ok {
		consts := p.parseConstHead()
		applyRegisterConsts(body, consts)
		for p.cur.kind != tokRBrace && p.cur.kind != tokEOF {
			if p.cur.kind == tokComma {
				p.advance()
				continue
			}
			f := p.parseField()
			if f != nil {
				body.Fields = append(body.Fields, *f)
			} else {
				p.advance()
			}
		}
		p.expectKind(tokRBrace, "'}'")
	}
	body.Span = diag.Span{File: p.file, Offset: start.offset, Length: p.cur.offset - start.offset}
	return &ast.Object{
		Kind: ast.Identifier{Original: "register", Span: p.span(start)},
		Name: name, ObjectKind: ast.KindRegister, Register: body,
		Span: body.Span,
	}
}

func applyRegisterConsts(body *ast.RegisterBody, consts map[string]constValue) {
	if cv, ok := consts["ADDRESS"]; ok && cv.Int != nil {
		body.Address = spannedInt(*cv.Int, cv.Span)
	}
	if cv, ok := consts["SIZE_BITS"]; ok && cv.Int != nil {
		body.SizeBits = spannedInt(*cv.Int, cv.Span)
	}
	if cv, ok := consts["RESET_VALUE"]; ok {
		if cv.Int != nil {
			body.ResetValue = &ast.ResetValue{Integer: spannedInt(*cv.Int, cv.Span), Span: cv.Span}
		} else if cv.Bytes != nil {
			body.ResetValue = &ast.ResetValue{Bytes: &ast.Spanned[[]int64]{Value: cv.Bytes, Span: cv.Span}, Span: cv.Span}
		}
	}
	if cv, ok := consts["REPEAT"]; ok {
		body.Repeat = constRepeat(cv)
	}
	if cv, ok := consts["ALLOW_BIT_OVERLAP"]; ok && cv.Bool != nil {
		body.AllowBitOverlap = spannedBool(*cv.Bool, cv.Span)
	}
	if cv, ok := consts["ALLOW_ADDRESS_OVERLAP"]; ok && cv.Bool != nil {
		body.AllowAddressOverlap = spannedBool(*cv.Bool, cv.Span)
	}
	if cv, ok := consts["ACCESS"]; ok {
		if a, ok := parseAccessWord(cv.Ident); ok {
			body.Access = &ast.Spanned[ast.Access]{Value: a, Span: cv.Span}
		}
	}
	if cv, ok := consts["BYTE_ORDER"]; ok {
		switch cv.Ident {
		case "LE":
			body.ByteOrder = &ast.Spanned[ast.ByteOrder]{Value: ast.LE, Span: cv.Span}
		case "BE":
			body.ByteOrder = &ast.Spanned[ast.ByteOrder]{Value: ast.BE, Span: cv.Span}
		}
	}
	if cv, ok := consts["BIT_ORDER"]; ok {
		switch cv.Ident {
		case "LSB0":
			body.BitOrder = &ast.Spanned[ast.BitOrder]{Value: ast.LSB0, Span: cv.Span}
		case "MSB0":
			body.BitOrder = &ast.Spanned[ast.BitOrder]{Value: ast.MSB0, Span: cv.Span}
		}
	}
}

func (p *parser) parseCommand() *ast.Object {
	start := p.cur
	p.advance() // 'command'
	name, _ := p.takeIdentName()
	body := &ast.CommandBody{}

	switch p.cur.kind {
	case tokEquals:
		p.advance()
		t, ok := p.expectKind(tokInt, "an integer address")
		if ok {
			body.Address = spannedInt(t.intVal, p.span(t))
		}
	case tokLBrace:
		p.advance()
		consts := p.parseConstHead()
		applyCommandConsts(body, consts)
		for (p.isIdent("in") || p.isIdent("out")) {
			dir := p.cur.text
			p.advance()
			p.expectKind(tokLBrace, "'{'")
			fields := p.parseFieldListUntilRBrace()
			p.expectKind(tokRBrace, "'}'")
			if p.cur.kind == tokComma {
				p.advance()
			}
			side := &ast.CommandSide{Fields: fields}
			if dir == "in" {
				if cv, ok := consts["SIZE_BITS_IN"]; ok && cv.Int != nil {
					side.SizeBits = spannedInt(*cv.Int, cv.Span)
				}
				body.In = side
			} else {
				if cv, ok := consts["SIZE_BITS_OUT"]; ok && cv.Int != nil {
					side.SizeBits = spannedInt(*cv.Int, cv.Span)
				}
				body.Out = side
			}
		}
		p.expectKind(tokRBrace, "'}'")
	}

	body.Span = diag.Span{File: p.file, Offset: start.offset, Length: p.cur.offset - start.offset}
	return &ast.Object{
		Kind: ast.Identifier{Original: "command", Span: p.span(start)},
		Name: name, ObjectKind: ast.KindCommand, Command: body,
		Span: body.Span,
	}
}

func applyCommandConsts(body *ast.CommandBody, consts map[string]constValue) {
	if cv, ok := consts["ADDRESS"]; ok && cv.Int != nil {
		body.Address = spannedInt(*cv.Int, cv.Span)
	}
	if cv, ok := consts["REPEAT"]; ok {
		body.Repeat = constRepeat(cv)
	}
	if cv, ok := consts["ALLOW_BIT_OVERLAP"]; ok && cv.Bool != nil {
		body.AllowBitOverlap = spannedBool(*cv.Bool, cv.Span)
	}
	if cv, ok := consts["ALLOW_ADDRESS_OVERLAP"]; ok && cv.Bool != nil {
		body.AllowAddressOverlap = spannedBool(*cv.Bool, cv.Span)
	}
	if cv, ok := consts["BYTE_ORDER"]; ok {
		switch cv.Ident {
		case "LE":
			body.ByteOrder = &ast.Spanned[ast.ByteOrder]{Value: ast.LE, Span: cv.Span}
		case "BE":
			body.ByteOrder = &ast.Spanned[ast.ByteOrder]{Value: ast.BE, Span: cv.Span}
		}
	}
	if cv, ok := consts["BIT_ORDER"]; ok {
		switch cv.Ident {
		case "LSB0":
			body.BitOrder = &ast.Spanned[ast.BitOrder]{Value: ast.LSB0, Span: cv.Span}
		case "MSB0":
			body.BitOrder = &ast.Spanned[ast.BitOrder]{Value: ast.MSB0, Span: cv.Span}
		}
	}
}

func (p *parser) parseFieldListUntilRBrace() []ast.FieldDecl {
	var fields []ast.FieldDecl
	for p.cur.kind != tokRBrace && p.cur.kind != tokEOF {
		if p.cur.kind == tokComma {
			p.advance()
			continue
		}
		f := p.parseField()
		if f != nil {
			fields = append(fields, *f)
		} else {
			p.advance()
		}
	}
	return fields
}

func (p *parser) parseBuffer() *ast.Object {
	start := p.cur
	p.advance() // 'buffer'
	name, _ := p.takeIdentName()
	body := &ast.BufferBody{}
	if p.cur.kind == tokColon {
		p.advance()
		t, ok := p.expectKind(tokIdent, "an access keyword")
		if ok {
			if a, ok := parseAccessWord(t.text); ok {
				body.Access = &ast.Spanned[ast.Access]{Value: a, Span: p.span(t)}
			} else {
				p.errorf(t, diag.KindSchemaWrongKind, "unrecognized access value %q", t.text)
			}
		}
	}
	if p.cur.kind == tokEquals {
		p.advance()
		t, ok := p.expectKind(tokInt, "an integer address")
		if ok {
			body.Address = spannedInt(t.intVal, p.span(t))
		}
	}
	body.Span = diag.Span{File: p.file, Offset: start.offset, Length: p.cur.offset - start.offset}
	return &ast.Object{
		Kind: ast.Identifier{Original: "buffer", Span: p.span(start)},
		Name: name, ObjectKind: ast.KindBuffer, Buffer: body,
		Span: body.Span,
	}
}

func (p *parser) parseRef() *ast.Object {
	start := p.cur
	p.advance() // 'ref'
	name, _ := p.takeIdentName()
	if _, ok := p.expectKind(tokEquals, "'='"); !ok {
		return nil
	}
	target := p.parseObject()
	if target == nil {
		return nil
	}
	refBody := &ast.RefBody{
		TargetKind: target.ObjectKind,
		Target:     target.Name,
		Override:   *target,
		Span:       diag.Span{File: p.file, Offset: start.offset, Length: p.cur.offset - start.offset},
	}
	return &ast.Object{
		Kind: ast.Identifier{Original: "ref", Span: p.span(start)},
		Name: name, ObjectKind: ast.KindRef, Ref: refBody,
		Span: refBody.Span,
	}
}

func (p *parser) parseField() *ast.FieldDecl {
	doc, attr := p.parseAttrList()
	if p.cur.kind != tokIdent {
		p.errorf(p.cur, diag.KindSyntax, "expected a field name")
		return nil
	}
	name, _ := p.takeIdentName()
	if _, ok := p.expectKind(tokColon, "':'"); !ok {
		return nil
	}
	fd := &ast.FieldDecl{Name: name, Doc: doc, Attr: attr}

	if p.cur.kind == tokIdent {
		if a, ok := parseAccessWord(p.cur.text); ok {
			fd.Access = &ast.Spanned[ast.Access]{Value: a, Span: p.span(p.cur)}
			p.advance()
		}
	}

	baseTok, ok := p.expectKind(tokIdent, "a base type")
	if ok {
		bt, ok := parseBaseTypeWord(baseTok.text)
		if !ok {
			p.errorf(baseTok, diag.KindSchemaWrongKind, "unrecognized base type %q", baseTok.text)
		} else {
			fd.BaseType = &ast.Spanned[ast.BaseType]{Value: bt, Span: p.span(baseTok)}
		}
	}

	if p.isIdent("as") {
		fd.Conversion = p.parseConversion()
	}

	if _, ok := p.expectKind(tokEquals, "'='"); !ok {
		return fd
	}
	start, end, ok := p.parseFieldAddr()
	if ok {
		fd.Start, fd.End = start, end
	}
	fd.Span = diag.Span{File: p.file, Offset: name.Span.Offset, Length: p.cur.offset - name.Span.Offset}
	return fd
}

func parseBaseTypeWord(s string) (ast.BaseType, bool) {
	switch s {
	case "bool":
		return ast.BaseTypeBool, true
	case "uint":
		return ast.BaseTypeUint, true
	case "int":
		return ast.BaseTypeInt, true
	default:
		return ast.BaseTypeUnset, false
	}
}

func (p *parser) parseFieldAddr() (start, end int64, ok bool) {
	first, ok := p.expectKind(tokInt, "an integer bit address")
	if !ok {
		return 0, 0, false
	}
	switch p.cur.kind {
	case tokDotDot:
		p.advance()
		second, ok := p.expectKind(tokInt, "an integer")
		if !ok {
			return 0, 0, false
		}
		return first.intVal, second.intVal, true
	case tokDotDotEq:
		p.advance()
		second, ok := p.expectKind(tokInt, "an integer")
		if !ok {
			return 0, 0, false
		}
		return first.intVal, second.intVal + 1, true
	default:
		return first.intVal, first.intVal + 1, true
	}
}

// parseConversion parses `as [try] (TypePath | enum IDENT { ... })`. The
// leading 'as' has already been confirmed present by the caller.
func (p *parser) parseConversion() *ast.ConversionDecl {
	start := p.cur
	p.advance() // 'as'
	kw := ast.ConversionAs
	if p.isIdent("try") {
		kw = ast.ConversionAsTry
		p.advance()
	}
	decl := &ast.ConversionDecl{Keyword: kw}
	if p.isIdent("enum") {
		p.advance()
		decl.Enum = p.parseEnumBody()
	} else {
		path := p.parseTypePath()
		decl.TypePath = &ast.Spanned[string]{Value: path, Span: p.span(start)}
	}
	decl.Span = diag.Span{File: p.file, Offset: start.offset, Length: p.cur.offset - start.offset}
	return decl
}

// parseTypePath accepts a dotted/double-colon-free identifier path such
// as `my_enum` or `pkg.Type`; the DSL has no module system of its own,
// so a path is just identifiers joined by '.'.
func (p *parser) parseTypePath() string {
	t, ok := p.expectKind(tokIdent, "a type path")
	if !ok {
		return ""
	}
	path := t.text
	for p.cur.kind == tokUnknown && p.cur.text == "." {
		p.advance()
		next, ok := p.expectKind(tokIdent, "a type path segment")
		if !ok {
			break
		}
		path += "." + next.text
	}
	return path
}

func (p *parser) parseEnumBody() *ast.EnumDecl {
	name, _ := p.takeIdentName()
	decl := &ast.EnumDecl{Name: name}
	if _, ok := p.expectKind(tokLBrace, "'{'"); !ok {
		return decl
	}
	for p.cur.kind != tokRBrace && p.cur.kind != tokEOF {
		if p.cur.kind == tokComma {
			p.advance()
			continue
		}
		v := p.parseEnumVariant()
		if v != nil {
			decl.Variants = append(decl.Variants, *v)
		} else {
			p.advance()
		}
	}
	p.expectKind(tokRBrace, "'}'")
	decl.Span = diag.Span{File: p.file, Offset: name.Span.Offset, Length: p.cur.offset - name.Span.Offset}
	return decl
}

func (p *parser) parseEnumVariant() *ast.EnumVariantDecl {
	doc, attr := p.parseAttrList()
	if p.cur.kind != tokIdent {
		p.errorf(p.cur, diag.KindSyntax, "expected a variant name")
		return nil
	}
	name, _ := p.takeIdentName()
	v := &ast.EnumVariantDecl{Name: name, Doc: doc, Attr: attr, ValueKind: ast.VariantAuto, Span: name.Span}
	if p.cur.kind != tokEquals {
		return v
	}
	p.advance()
	switch {
	case p.isIdent("default"):
		v.ValueKind = ast.VariantDefault
		p.advance()
	case p.isIdent("catch_all"):
		v.ValueKind = ast.VariantCatchAll
		p.advance()
	default:
		t, ok := p.expectKind(tokInt, "an integer, 'default' or 'catch_all'")
		if ok {
			v.ValueKind = ast.VariantExplicit
			v.Value = t.intVal
		}
	}
	v.Span = diag.Span{File: p.file, Offset: name.Span.Offset, Length: p.cur.offset - name.Span.Offset}
	return v
}
