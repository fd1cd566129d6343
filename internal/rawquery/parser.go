package rawquery

import (
	"strconv"
	"strings"

	"github.com/theory/jsonpath"

	"github.com/kailas-cloud/tourdex/internal/jsonval"
)

// Filter is a validated raw filter expression. Evaluation happens in-process
// against decoded documents; the source string is discarded after parsing.
type Filter struct {
	root filterNode
}

// Eval reports whether doc satisfies the filter.
func (f *Filter) Eval(doc map[string]any) bool {
	if f == nil || f.root == nil {
		return true
	}
	return f.root.eval(doc)
}

type filterNode interface {
	eval(doc map[string]any) bool
}

// ParseFilter parses a raw filter expression.
//
// Grammar:
//
//	expr    = call .
//	call    = op "(" args ")" .
//	op      = "and" | "or"                             (two or more exprs)
//	        | "eq" | "ne" | "gt" | "ge" | "lt" | "le"  (path "," literal)
//	        | "like"                                   (path "," string)
//	        | "in"                                     (path "," literal {"," literal})
//	        | "isnull" | "isnotnull"                   (path) .
//	path    = dotted JSON path relative to the document root .
//	literal = string | number | "true" | "false" .
func ParseFilter(input string) (*Filter, error) {
	p := &parser{lex: newLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, parseErrorf(p.tok.pos, "unexpected %s %q after expression", p.tok.kind, p.tok.lit)
	}
	return &Filter{root: root}, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(kind tokenKind) (token, error) {
	if p.tok.kind != kind {
		return token{}, parseErrorf(p.tok.pos, "expected %s, got %s %q", kind, p.tok.kind, p.tok.lit)
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return tok, nil
}

func (p *parser) parseExpr() (filterNode, error) {
	op, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	name := strings.ToLower(op.lit)

	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}

	switch name {
	case "and", "or":
		return p.parseLogical(name, op.pos)
	case "eq", "ne", "gt", "ge", "lt", "le":
		return p.parseComparison(name)
	case "like":
		return p.parseLike()
	case "in":
		return p.parseIn()
	case "isnull", "isnotnull":
		return p.parsePresence(name)
	default:
		return nil, parseErrorf(op.pos, "unknown operator %q", op.lit)
	}
}

func (p *parser) parseLogical(name string, pos int) (filterNode, error) {
	var children []filterNode
	for {
		child, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	if len(children) < 2 {
		return nil, parseErrorf(pos, "%s requires at least two operands", name)
	}
	return &logicalNode{conjunction: name == "and", children: children}, nil
}

func (p *parser) parseComparison(name string) (filterNode, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma); err != nil {
		return nil, err
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return &compareNode{op: name, path: path, value: lit}, nil
}

func (p *parser) parseLike() (filterNode, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma); err != nil {
		return nil, err
	}
	lit, err := p.expect(tokString)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	var segments []string
	for _, seg := range strings.Split(strings.ToLower(lit.lit), "%") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return &likeNode{path: path, segments: segments}, nil
}

func (p *parser) parseIn() (filterNode, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma); err != nil {
		return nil, err
	}
	var values []any
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		values = append(values, lit)
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return &inNode{path: path, values: values}, nil
}

func (p *parser) parsePresence(name string) (filterNode, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return &presenceNode{path: path, wantPresent: name == "isnotnull"}, nil
}

// parsePath consumes an ident token and compiles it as a JSON path rooted at
// the document. Invalid paths are rejected here, before any evaluation.
func (p *parser) parsePath() (*jsonpath.Path, error) {
	tok, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	return compilePath(tok.lit, tok.pos)
}

// compilePath turns a dotted field path into a JSONPath query. Only plain
// member access and bracket indexes are allowed; descendant segments and
// empty segments are rejected even though the underlying syntax would
// accept them.
func compilePath(raw string, pos int) (*jsonpath.Path, error) {
	if raw == "" || strings.Contains(raw, "..") ||
		strings.HasPrefix(raw, ".") || strings.HasSuffix(raw, ".") {
		return nil, parseErrorf(pos, "invalid path %q", raw)
	}
	path, err := jsonpath.Parse("$." + raw)
	if err != nil {
		return nil, parseErrorf(pos, "invalid path %q", raw)
	}
	return path, nil
}

func (p *parser) parseLiteral() (any, error) {
	tok := p.tok
	switch tok.kind {
	case tokString:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return tok.lit, nil
	case tokNumber:
		n, err := strconv.ParseFloat(tok.lit, 64)
		if err != nil {
			return nil, parseErrorf(tok.pos, "malformed number %q", tok.lit)
		}
		if aerr := p.advance(); aerr != nil {
			return nil, aerr
		}
		return n, nil
	case tokIdent:
		switch strings.ToLower(tok.lit) {
		case "true":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return true, nil
		case "false":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return false, nil
		case "null":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, parseErrorf(tok.pos, "expected literal, got %q", tok.lit)
	default:
		return nil, parseErrorf(tok.pos, "expected literal, got %s", tok.kind)
	}
}

type logicalNode struct {
	conjunction bool
	children    []filterNode
}

func (n *logicalNode) eval(doc map[string]any) bool {
	for _, child := range n.children {
		ok := child.eval(doc)
		if n.conjunction && !ok {
			return false
		}
		if !n.conjunction && ok {
			return true
		}
	}
	return n.conjunction
}

type compareNode struct {
	op    string
	path  *jsonpath.Path
	value any
}

func (n *compareNode) eval(doc map[string]any) bool {
	got, ok := jsonval.First(n.path, doc)
	switch n.op {
	case "eq":
		if n.value == nil {
			return !ok
		}
		return ok && jsonval.Equal(got, n.value)
	case "ne":
		if n.value == nil {
			return ok
		}
		return ok && !jsonval.Equal(got, n.value)
	}
	if !ok {
		return false
	}
	cmp := jsonval.Compare(got, n.value)
	switch n.op {
	case "gt":
		return cmp > 0
	case "ge":
		return cmp >= 0
	case "lt":
		return cmp < 0
	case "le":
		return cmp <= 0
	}
	return false
}

// likeNode matches case-insensitively and unanchored: % splits the pattern
// into fragments that must appear in the value left to right.
type likeNode struct {
	path     *jsonpath.Path
	segments []string
}

func (n *likeNode) eval(doc map[string]any) bool {
	got, ok := jsonval.First(n.path, doc)
	if !ok {
		return false
	}
	s, ok := got.(string)
	if !ok {
		return false
	}
	s = strings.ToLower(s)
	pos := 0
	for _, seg := range n.segments {
		i := strings.Index(s[pos:], seg)
		if i < 0 {
			return false
		}
		pos += i + len(seg)
	}
	return true
}

type inNode struct {
	path   *jsonpath.Path
	values []any
}

func (n *inNode) eval(doc map[string]any) bool {
	got, ok := jsonval.First(n.path, doc)
	if !ok {
		return false
	}
	for _, v := range n.values {
		if jsonval.Equal(got, v) {
			return true
		}
	}
	return false
}

type presenceNode struct {
	path        *jsonpath.Path
	wantPresent bool
}

func (n *presenceNode) eval(doc map[string]any) bool {
	_, ok := jsonval.First(n.path, doc)
	return ok == n.wantPresent
}
