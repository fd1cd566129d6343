// Package rawquery validates and compiles the rawfilter/rawsort escape
// hatches. Caller-supplied fragments are parsed against a closed grammar of
// JSON-path references, comparison operators, and literals; anything outside
// that grammar is rejected before the query layer ever sees it. The raw
// string itself is never handed to the store.
package rawquery

// tokenKind identifies the type of lexical token.
type tokenKind int

const (
	tokEOF    tokenKind = iota
	tokIdent            // operator name or JSON path: eq, and, Detail.de.Title, Features[0]
	tokString           // single- or double-quoted literal, quotes stripped
	tokNumber           // integer or decimal, optional leading minus
	tokLParen           // (
	tokRParen           // )
	tokComma            // ,
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "EOF"
	case tokIdent:
		return "IDENT"
	case tokString:
		return "STRING"
	case tokNumber:
		return "NUMBER"
	case tokLParen:
		return "("
	case tokRParen:
		return ")"
	case tokComma:
		return ","
	default:
		return "UNKNOWN"
	}
}

// token represents a lexical token.
type token struct {
	kind tokenKind
	lit  string
	pos  int // byte offset in input for error reporting
}

// lexer tokenizes a raw filter/sort string.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

// next returns the next token.
func (l *lexer) next() (token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	startPos := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		return token{kind: tokLParen, lit: "(", pos: startPos}, nil
	case ')':
		l.pos++
		return token{kind: tokRParen, lit: ")", pos: startPos}, nil
	case ',':
		l.pos++
		return token{kind: tokComma, lit: ",", pos: startPos}, nil
	case '\'', '"':
		return l.scanString(ch)
	}

	if ch == '-' || isDigit(ch) {
		return l.scanNumber()
	}
	if isIdentStart(ch) {
		return l.scanIdent()
	}

	return token{}, parseErrorf(startPos, "unexpected character %q", string(ch))
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			l.pos++
		} else {
			break
		}
	}
}

// scanString reads a quoted literal terminated by the same quote character.
// Backslash escapes the quote and itself; everything else passes through.
func (l *lexer) scanString(quote byte) (token, error) {
	startPos := l.pos
	l.pos++ // opening quote

	var out []byte
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch ch {
		case '\\':
			if l.pos+1 >= len(l.input) {
				return token{}, parseErrorf(startPos, "unterminated string literal")
			}
			out = append(out, l.input[l.pos+1])
			l.pos += 2
		case quote:
			l.pos++
			return token{kind: tokString, lit: string(out), pos: startPos}, nil
		default:
			out = append(out, ch)
			l.pos++
		}
	}
	return token{}, parseErrorf(startPos, "unterminated string literal")
}

func (l *lexer) scanNumber() (token, error) {
	startPos := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
		if l.pos >= len(l.input) || !isDigit(l.input[l.pos]) {
			return token{}, parseErrorf(startPos, "malformed number")
		}
	}
	seenDot := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if isDigit(ch) {
			l.pos++
			continue
		}
		if ch == '.' && !seenDot {
			seenDot = true
			l.pos++
			continue
		}
		break
	}
	return token{kind: tokNumber, lit: l.input[startPos:l.pos], pos: startPos}, nil
}

// scanIdent reads an operator name or a dotted JSON path. Array indexes in
// bracket form (Features[0]) are part of the ident; whether the result is a
// valid path is decided by the parser.
func (l *lexer) scanIdent() (token, error) {
	startPos := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	return token{kind: tokIdent, lit: l.input[startPos:l.pos], pos: startPos}, nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '.' || ch == '[' || ch == ']'
}
