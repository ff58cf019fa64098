// Package cscan scans C header declarations into the sdlgen IR.
//
// The scanner is deliberately bounded: it handles the declaration subset the
// shipped SDL header excerpts use. Comments are stripped, #include targets
// are recorded, other preprocessor directives are dropped without
// evaluation, brace bodies are skipped, and const qualifiers are collapsed
// onto the type reference. Anything outside that subset is a ScanError, not
// a guess.
package cscan

import (
	"fmt"
	"strings"

	"github.com/kortbus/sdlgen/internal/ir"
)

// ScanError represents a scan failure with its source position.
type ScanError struct {
	File    string
	Line    int
	Col     int
	Message string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Message)
}

// Options controls scanning of a single header.
type Options struct {
	// Decorations lists macros dropped wherever they appear in a
	// declaration, such as DECLSPEC, SDLCALL, or SDL_DECLSPEC.
	Decorations []string
}

// Scan parses one header's content into its declaration IR. The returned
// file records #include targets, typedefs, and extern function prototypes
// in source order.
func Scan(name string, src []byte, opts Options) (*ir.File, error) {
	lex := newLexer(name, src)
	toks, err := lex.tokenize()
	if err != nil {
		return nil, err
	}

	p := &parser{
		name:  name,
		toks:  toks,
		decos: make(map[string]bool, len(opts.Decorations)),
		file:  &ir.File{Name: name, Includes: lex.includes},
	}
	for _, d := range opts.Decorations {
		p.decos[d] = true
	}

	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.file, nil
}

// typeKeywords are C words that never act as a declarator name. They decide
// whether the final identifier of a parameter is a name or part of the type.
var typeKeywords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"const": true, "struct": true, "union": true, "enum": true,
}

type parser struct {
	name  string
	toks  []token
	pos   int
	decos map[string]bool
	file  *ir.File
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return &ScanError{
		File:    p.name,
		Line:    tok.line,
		Col:     tok.col,
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *parser) errorfEOF(format string, args ...any) error {
	line, col := 1, 1
	if n := len(p.toks); n > 0 {
		line, col = p.toks[n-1].line, p.toks[n-1].col
	}
	return &ScanError{
		File:    p.name,
		Line:    line,
		Col:     col,
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.toks)
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

func (p *parser) acceptPunct(text string) bool {
	if !p.eof() && p.peek().kind == tokPunct && p.peek().text == text {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectPunct(text string) error {
	if p.eof() {
		return p.errorfEOF("expected %q, found end of file", text)
	}
	if t := p.peek(); t.kind != tokPunct || t.text != text {
		return p.errorf(t, "expected %q, found %q", text, t.text)
	}
	p.pos++
	return nil
}

func (p *parser) expectIdent() (token, error) {
	if p.eof() {
		return token{}, p.errorfEOF("expected identifier, found end of file")
	}
	t := p.peek()
	if t.kind != tokIdent {
		return token{}, p.errorf(t, "expected identifier, found %q", t.text)
	}
	p.pos++
	return t, nil
}

func (p *parser) parse() error {
	for !p.eof() {
		t := p.peek()
		switch {
		case t.kind == tokIdent && t.text == "typedef":
			if err := p.parseTypedef(); err != nil {
				return err
			}

		case t.kind == tokIdent && (t.text == "struct" || t.text == "union" || t.text == "enum"):
			// Bare tag declarations like "struct VkAllocationCallbacks;"
			// introduce a name for pointer use only. Nothing to record.
			if err := p.skipTagDecl(); err != nil {
				return err
			}

		case t.kind == tokIdent && t.text == "extern":
			// extern "C" { ... } linkage blocks are transparent: the body
			// is scanned, only the wrapper tokens are dropped.
			if p.pos+2 < len(p.toks) &&
				p.toks[p.pos+1].kind == tokString && p.toks[p.pos+1].text == "C" &&
				p.toks[p.pos+2].kind == tokPunct && p.toks[p.pos+2].text == "{" {
				p.pos += 3
				continue
			}
			if err := p.parseFunc(); err != nil {
				return err
			}

		case t.kind == tokPunct && t.text == "}":
			// Close of a transparent extern "C" block.
			p.pos++
			p.acceptPunct(";")

		case t.kind == tokPunct && t.text == ";":
			p.pos++

		default:
			return p.errorf(t, "unexpected %q at top level", t.text)
		}
	}
	return nil
}

// skipTagDecl consumes a bare struct/union/enum declaration, with or
// without a body.
func (p *parser) skipTagDecl() error {
	p.next() // struct / union / enum
	if _, err := p.expectIdent(); err != nil {
		return err
	}
	if !p.eof() && p.peek().kind == tokPunct && p.peek().text == "{" {
		if err := p.skipBraces(); err != nil {
			return err
		}
	}
	return p.expectPunct(";")
}

// skipBraces consumes a brace-delimited body, starting at the opening brace.
func (p *parser) skipBraces() error {
	open := p.peek()
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		if p.eof() {
			return p.errorf(open, "unterminated brace body")
		}
		switch t := p.next(); {
		case t.kind == tokPunct && t.text == "{":
			depth++
		case t.kind == tokPunct && t.text == "}":
			depth--
		}
	}
	return nil
}

func (p *parser) parseTypedef() error {
	kw := p.next() // typedef

	if p.eof() {
		return p.errorfEOF("unterminated typedef")
	}

	if t := p.peek(); t.kind == tokIdent && (t.text == "struct" || t.text == "union") {
		return p.parseTaggedTypedef(t.text, ir.TypedefStruct)
	}
	if t := p.peek(); t.kind == tokIdent && t.text == "enum" {
		return p.parseTaggedTypedef(t.text, ir.TypedefEnum)
	}

	// Plain alias or function pointer. Collect type tokens up to the
	// declarator.
	var typeToks []token
	for !p.eof() {
		t := p.peek()
		if t.kind == tokIdent || (t.kind == tokPunct && t.text == "*") {
			typeToks = append(typeToks, p.next())
			continue
		}
		break
	}

	if p.acceptPunct("(") {
		// typedef ret (*Name)(params);
		ret, err := p.typeRef(kw, typeToks)
		if err != nil {
			return err
		}
		if err := p.expectPunct("*"); err != nil {
			return err
		}
		nameTok, err := p.expectIdent()
		if err != nil {
			return err
		}
		if err := p.expectPunct(")"); err != nil {
			return err
		}
		if err := p.expectPunct("("); err != nil {
			return err
		}
		depth := 1
		for depth > 0 {
			if p.eof() {
				return p.errorf(nameTok, "unterminated parameter list")
			}
			switch t := p.next(); {
			case t.kind == tokPunct && t.text == "(":
				depth++
			case t.kind == tokPunct && t.text == ")":
				depth--
			}
		}
		if err := p.expectPunct(";"); err != nil {
			return err
		}

		p.file.Typedefs = append(p.file.Typedefs, ir.Typedef{
			Name: nameTok.text,
			Kind: ir.TypedefFuncPointer,
			Type: ret,
		})
		return nil
	}

	// Last identifier is the new name, the rest is the aliased type.
	if len(typeToks) < 2 {
		return p.errorf(kw, "typedef needs a type and a name")
	}
	nameTok := typeToks[len(typeToks)-1]
	if nameTok.kind != tokIdent {
		return p.errorf(nameTok, "expected typedef name, found %q", nameTok.text)
	}
	ref, err := p.typeRef(kw, typeToks[:len(typeToks)-1])
	if err != nil {
		return err
	}
	if err := p.expectPunct(";"); err != nil {
		return err
	}

	p.file.Typedefs = append(p.file.Typedefs, ir.Typedef{
		Name: nameTok.text,
		Kind: ir.TypedefAlias,
		Type: ref,
	})
	return nil
}

// parseTaggedTypedef handles struct, union, and enum typedefs:
//
//	typedef struct Tag Name;
//	typedef struct Tag *Name;        (opaque handle)
//	typedef struct [Tag] { ... } Name;
//	typedef enum [Tag] { ... } Name;
func (p *parser) parseTaggedTypedef(keyword string, kind ir.TypedefKind) error {
	kwTok := p.next() // struct / union / enum

	tag := ""
	if !p.eof() && p.peek().kind == tokIdent {
		tag = p.next().text
	}

	base := keyword
	if tag != "" {
		base = keyword + " " + tag
	}

	if !p.eof() && p.peek().kind == tokPunct && p.peek().text == "{" {
		if err := p.skipBraces(); err != nil {
			return err
		}
		nameTok, err := p.expectIdent()
		if err != nil {
			return err
		}
		if err := p.expectPunct(";"); err != nil {
			return err
		}
		p.file.Typedefs = append(p.file.Typedefs, ir.Typedef{
			Name: nameTok.text,
			Kind: kind,
			Type: ir.TypeRef{Base: base},
		})
		return nil
	}

	if tag == "" {
		return p.errorf(kwTok, "%s typedef needs a tag or a body", keyword)
	}

	stars := 0
	for p.acceptPunct("*") {
		stars++
	}
	nameTok, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expectPunct(";"); err != nil {
		return err
	}

	if stars > 0 && kind == ir.TypedefStruct {
		kind = ir.TypedefOpaque
	}
	p.file.Typedefs = append(p.file.Typedefs, ir.Typedef{
		Name: nameTok.text,
		Kind: kind,
		Type: ir.TypeRef{Base: base, Stars: stars},
	})
	return nil
}

// parseFunc handles an extern function prototype:
//
//	extern [decorations] ret [decorations] Name(params);
func (p *parser) parseFunc() error {
	extTok := p.next() // extern

	// Everything up to the opening paren is decorations, return type, and
	// the function name.
	var head []token
	for !p.eof() {
		t := p.peek()
		if t.kind == tokPunct && t.text == "(" {
			break
		}
		if t.kind == tokIdent || (t.kind == tokPunct && t.text == "*") {
			head = append(head, p.next())
			continue
		}
		return p.errorf(t, "unexpected %q in function declaration", t.text)
	}
	if p.eof() {
		return p.errorf(extTok, "unterminated function declaration")
	}

	head = p.stripDecorations(head)
	if len(head) < 2 {
		return p.errorf(extTok, "function declaration needs a return type and a name")
	}
	nameTok := head[len(head)-1]
	if nameTok.kind != tokIdent {
		return p.errorf(nameTok, "expected function name, found %q", nameTok.text)
	}
	ret, err := p.typeRef(extTok, head[:len(head)-1])
	if err != nil {
		return err
	}

	params, err := p.parseParams()
	if err != nil {
		return err
	}
	if err := p.expectPunct(";"); err != nil {
		return err
	}

	p.file.Funcs = append(p.file.Funcs, ir.Func{
		Name:   nameTok.text,
		Return: ret,
		Params: params,
	})
	return nil
}

// parseParams consumes a parenthesized parameter list. A lone void means no
// parameters.
func (p *parser) parseParams() ([]ir.Param, error) {
	open := p.peek()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var params []ir.Param
	var group []token
	for {
		if p.eof() {
			return nil, p.errorf(open, "unterminated parameter list")
		}
		t := p.next()
		if t.kind == tokPunct && (t.text == ")" || t.text == ",") {
			if len(group) > 0 {
				param, err := p.param(t, group)
				if err != nil {
					return nil, err
				}
				params = append(params, param)
				group = group[:0]
			} else if t.text == "," || len(params) > 0 {
				return nil, p.errorf(t, "empty parameter")
			}
			if t.text == ")" {
				break
			}
			continue
		}
		if t.kind == tokIdent || (t.kind == tokPunct && t.text == "*") {
			group = append(group, t)
			continue
		}
		return nil, p.errorf(t, "unexpected %q in parameter list", t.text)
	}

	// (void) declares an empty parameter list.
	if len(params) == 1 && params[0].Name == "" && params[0].Type.IsVoid() {
		return nil, nil
	}
	return params, nil
}

// param builds one parameter from its token group. The final identifier is
// the parameter name unless every identifier is a type keyword, so unnamed
// parameters like "SDL_Window*" and "unsigned int" both stay nameless.
func (p *parser) param(at token, group []token) (ir.Param, error) {
	group = p.stripDecorations(group)
	if len(group) == 0 {
		return ir.Param{}, p.errorf(at, "empty parameter")
	}

	idents := 0
	for _, t := range group {
		if t.kind == tokIdent {
			idents++
		}
	}

	name := ""
	last := group[len(group)-1]
	if idents >= 2 && last.kind == tokIdent && !typeKeywords[last.text] {
		// Only strip the trailing identifier when at least one type word
		// remains; "struct Tag" alone keeps both tokens.
		rest := group[:len(group)-1]
		if hasTypeWord(rest) {
			name = last.text
			group = rest
		}
	}

	ref, err := p.typeRef(at, group)
	if err != nil {
		return ir.Param{}, err
	}
	return ir.Param{Name: name, Type: ref}, nil
}

func hasTypeWord(toks []token) bool {
	for _, t := range toks {
		if t.kind == tokIdent && t.text != "const" {
			return true
		}
	}
	return false
}

// typeRef folds a run of type tokens into a TypeRef. Const qualifiers are
// collapsed into a single flag regardless of position (west or east const),
// stars are counted wherever they appear, and tag keywords merge with the
// following identifier ("struct X").
func (p *parser) typeRef(at token, toks []token) (ir.TypeRef, error) {
	var ref ir.TypeRef
	var words []string

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t.kind == tokPunct && t.text == "*":
			ref.Stars++
		case t.kind == tokIdent && t.text == "const":
			ref.Const = true
		case t.kind == tokIdent && (t.text == "struct" || t.text == "union" || t.text == "enum"):
			if i+1 >= len(toks) || toks[i+1].kind != tokIdent {
				return ir.TypeRef{}, p.errorf(t, "%s requires a tag in a type reference", t.text)
			}
			words = append(words, t.text+" "+toks[i+1].text)
			i++
		case t.kind == tokIdent:
			words = append(words, t.text)
		default:
			return ir.TypeRef{}, p.errorf(t, "unexpected %q in type", t.text)
		}
	}

	if len(words) == 0 {
		return ir.TypeRef{}, p.errorf(at, "missing type name")
	}
	ref.Base = strings.Join(words, " ")
	return ref, nil
}

func (p *parser) stripDecorations(toks []token) []token {
	if len(p.decos) == 0 {
		return toks
	}
	out := toks[:0]
	for _, t := range toks {
		if t.kind == tokIdent && p.decos[t.text] {
			continue
		}
		out = append(out, t)
	}
	return out
}
