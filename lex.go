package graphcalc

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type lexToken struct {
	text string
	kind tokenKind
	pos  int
}

func (t lexToken) String() string {
	return t.kind.String() + ":" + t.text + "@" + strconv.Itoa(t.pos)
}

type tokenKind int

const (
	tokenNone tokenKind = iota
	// tokenEOF indicates the end of the statement, either end of input or ;.
	tokenEOF
	// tokenNum is an unsigned decimal number.
	tokenNum
	// tokenIdent is a variable, function, or type name.
	tokenIdent
	// tokenOp is a binary arithmetic operator.
	tokenOp
	// tokenCmp is a comparison operator. = doubles as the definition symbol.
	tokenCmp
	// tokenOpen is an open bracket, e.g. (.
	tokenOpen
	// tokenClose is a close bracket, e.g. ).
	tokenClose
	// tokenSep is the argument and element separator ,.
	tokenSep
	// tokenColon separates piecewise guards from values and names from types.
	tokenColon
	// tokenBang is the postfix factorial operator.
	tokenBang
	// tokenAt marks a map call, as in f@(x).
	tokenAt
)

//go:generate go run golang.org/x/tools/cmd/stringer -type=tokenKind -trimprefix=token

// Operators contains the runes which are considered to be binary operators.
const Operators = "+-*/%"

// OpenBrackets and CloseBrackets contain the runes which group expressions.
// The parser checks that a bracket in byte position k in OpenBrackets is
// matched with the bracket in byte position k in CloseBrackets.
const (
	OpenBrackets  = "([{"
	CloseBrackets = ")]}"
)

// Terminator ends a statement. Nothing after it is read.
const Terminator = ';'

func byteidcs(s string) []string {
	v := make([]string, len(s))
	for i, r := range s {
		v[i] = string(r)
	}
	return v
}

var (
	operstrs      = byteidcs(Operators)
	openbrackets  = byteidcs(OpenBrackets)
	closebrackets = byteidcs(CloseBrackets)
)

type lexer struct {
	src  io.RuneScanner
	buf  strings.Builder
	rune int
	eof  bool
}

func lex(src io.RuneScanner) *lexer {
	return &lexer{
		src:  src,
		rune: 1,
	}
}

// readRune reads a rune from the src and updates the lexer's position info.
func (l *lexer) readRune() (r rune, err error) {
	r, sz, err := l.src.ReadRune()
	if sz > 0 {
		l.rune++
	}
	return r, err
}

// unreadRune unreads a rune from the src and updates the lexer's position
// info. Panics if unreading returns an error.
func (l *lexer) unreadRune() {
	if err := l.src.UnreadRune(); err != nil {
		panic(err)
	}
	l.rune--
}

// next scans the next token from the input. The first time end of input or a
// terminator is encountered, the result is an EOF token with a nil error.
// Subsequent calls return an empty token with io.EOF.
func (l *lexer) next() (lexToken, error) {
	if l.eof {
		return lexToken{}, io.EOF
	}
	defer l.buf.Reset()
	tok := lexToken{pos: l.rune}
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				tok.kind = tokenEOF
				l.eof = true
				return tok, nil
			}
			return tok, err
		}
		switch {
		case r == ' ', r == '\t':
			tok.pos++
			continue
		case r == Terminator:
			tok.text = ";"
			tok.kind = tokenEOF
			l.eof = true
			return tok, nil
		case '0' <= r && r <= '9':
			l.unreadRune()
			if err := l.scanNum(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenNum
			return tok, nil
		case unicode.IsLetter(r):
			l.unreadRune()
			if err := l.scanIdent(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenIdent
			return tok, nil
		case r == '<', r == '>':
			tok.text = string(r)
			tok.kind = tokenCmp
			s, err := l.readRune()
			switch {
			case err == nil && s == '=':
				tok.text += "="
			case err == nil:
				l.unreadRune()
			case !errors.Is(err, io.EOF):
				return tok, err
			}
			return tok, nil
		case r == '=':
			tok.text = "="
			tok.kind = tokenCmp
			return tok, nil
		case r == ',':
			tok.text = ","
			tok.kind = tokenSep
			return tok, nil
		case r == ':':
			tok.text = ":"
			tok.kind = tokenColon
			return tok, nil
		case r == '!':
			tok.text = "!"
			tok.kind = tokenBang
			return tok, nil
		case r == '@':
			tok.text = "@"
			tok.kind = tokenAt
			return tok, nil
		default:
			if k := strings.IndexRune(Operators, r); k >= 0 {
				tok.text = operstrs[k]
				tok.kind = tokenOp
				return tok, nil
			}
			if k := strings.IndexRune(OpenBrackets, r); k >= 0 {
				tok.text = openbrackets[k]
				tok.kind = tokenOpen
				return tok, nil
			}
			if k := strings.IndexRune(CloseBrackets, r); k >= 0 {
				tok.text = closebrackets[k]
				tok.kind = tokenClose
				return tok, nil
			}
			// Write the rune so that it shows up in the error message.
			l.buf.WriteRune(r)
			return tok, l.error("")
		}
	}
}

// scanNum scans digits with at most one decimal point, which must have a digit
// on each side.
func (l *lexer) scanNum() error {
	var dot, frac bool
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		switch {
		case '0' <= r && r <= '9':
			l.buf.WriteRune(r)
			if dot {
				frac = true
			}
			continue
		case r == '.':
			l.buf.WriteRune(r)
			if dot {
				return l.error("number")
			}
			dot = true
			continue
		case unicode.IsLetter(r):
			// 2x is not implicit multiplication.
			l.buf.WriteRune(r)
			return l.error("number")
		}
		l.unreadRune()
		break
	}
	if dot && !frac {
		return l.error("number")
	}
	return nil
}

func (l *lexer) scanIdent() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// next unreads the rune that decides ident scanning before
				// calling scanIdent, so we have scanned at least one rune.
				return nil
			}
			return err
		}
		switch {
		case unicode.IsLetter(r), '0' <= r && r <= '9':
			l.buf.WriteRune(r)
		default:
			l.unreadRune()
			return nil
		}
	}
}

func (l *lexer) error(kind string) error {
	return &LexError{
		Text:     l.buf.String(),
		Scanning: kind,
		Col:      l.rune - 1,
	}
}

// tokenize scans one statement. The final token is always tokenEOF.
func tokenize(src io.RuneScanner) ([]lexToken, error) {
	l := lex(src)
	var toks []lexToken
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokenEOF {
			return toks, nil
		}
	}
}

// LexError indicates an invalid token. It implements InputError.
type LexError struct {
	// Text is the token the lexer was scanning when the invalid rune was
	// encountered, plus the invalid rune.
	Text string
	// Scanning is the type of token the lexer was scanning. This may be
	// "number" or the empty string (if a token kind hadn't been decided).
	Scanning string
	// Col is the number of runes scanned by the lexer up to and including the
	// invalid rune.
	Col int
}

func (err *LexError) Error() string {
	pos := "column " + strconv.Itoa(err.Col)
	if err.Scanning == "" {
		return "invalid token at " + pos + ": " + strconv.Quote(err.Text)
	}
	return "invalid " + err.Scanning + " token at " + pos + ": " + strconv.Quote(err.Text)
}
