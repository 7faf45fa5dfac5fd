package graphcalc

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLex(t *testing.T) {
	cases := []struct {
		src    string
		tokens []lexToken
		errs   int
	}{
		// spaces
		{"", []lexToken{{kind: tokenEOF, pos: 1}}, 0},
		{" \t ", []lexToken{{kind: tokenEOF, pos: 4}}, 0},
		{"\n", []lexToken{{pos: 1}, {kind: tokenEOF, pos: 2}}, 1},
		{"1\r\n", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {pos: 2}, {pos: 3}, {kind: tokenEOF, pos: 4}}, 2},
		// numbers
		{"0", []lexToken{{text: "0", kind: tokenNum, pos: 1}, {kind: tokenEOF, pos: 2}}, 0},
		{"9876543210", []lexToken{{text: "9876543210", kind: tokenNum, pos: 1}, {kind: tokenEOF, pos: 11}}, 0},
		{"1 0", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {text: "0", kind: tokenNum, pos: 3}, {kind: tokenEOF, pos: 4}}, 0},
		{"1.5", []lexToken{{text: "1.5", kind: tokenNum, pos: 1}, {kind: tokenEOF, pos: 4}}, 0},
		{"-1", []lexToken{{text: "-", kind: tokenOp, pos: 1}, {text: "1", kind: tokenNum, pos: 2}, {kind: tokenEOF, pos: 3}}, 0},
		{"1.", []lexToken{{pos: 1}, {kind: tokenEOF, pos: 3}}, 1},
		{".5", []lexToken{{pos: 1}, {text: "5", kind: tokenNum, pos: 2}, {kind: tokenEOF, pos: 3}}, 1},
		{"1.1.1", []lexToken{{pos: 1}, {text: "1", kind: tokenNum, pos: 5}, {kind: tokenEOF, pos: 6}}, 1},
		{"1e1", []lexToken{{pos: 1}, {text: "1", kind: tokenNum, pos: 3}, {kind: tokenEOF, pos: 4}}, 1},
		{"2x", []lexToken{{pos: 1}, {kind: tokenEOF, pos: 3}}, 1},
		// identifiers
		{"e", []lexToken{{text: "e", kind: tokenIdent, pos: 1}, {kind: tokenEOF, pos: 2}}, 0},
		{"x1y", []lexToken{{text: "x1y", kind: tokenIdent, pos: 1}, {kind: tokenEOF, pos: 4}}, 0},
		{"π", []lexToken{{text: "π", kind: tokenIdent, pos: 1}, {kind: tokenEOF, pos: 2}}, 0},
		{"a b", []lexToken{{text: "a", kind: tokenIdent, pos: 1}, {text: "b", kind: tokenIdent, pos: 3}, {kind: tokenEOF, pos: 4}}, 0},
		{"_a", []lexToken{{pos: 1}, {text: "a", kind: tokenIdent, pos: 2}, {kind: tokenEOF, pos: 3}}, 1},
		// operators
		{"+-*/%", []lexToken{
			{text: "+", kind: tokenOp, pos: 1},
			{text: "-", kind: tokenOp, pos: 2},
			{text: "*", kind: tokenOp, pos: 3},
			{text: "/", kind: tokenOp, pos: 4},
			{text: "%", kind: tokenOp, pos: 5},
			{kind: tokenEOF, pos: 6},
		}, 0},
		{"5!", []lexToken{{text: "5", kind: tokenNum, pos: 1}, {text: "!", kind: tokenBang, pos: 2}, {kind: tokenEOF, pos: 3}}, 0},
		// comparisons
		{"<=", []lexToken{{text: "<=", kind: tokenCmp, pos: 1}, {kind: tokenEOF, pos: 3}}, 0},
		{">=", []lexToken{{text: ">=", kind: tokenCmp, pos: 1}, {kind: tokenEOF, pos: 3}}, 0},
		{"< =", []lexToken{{text: "<", kind: tokenCmp, pos: 1}, {text: "=", kind: tokenCmp, pos: 3}, {kind: tokenEOF, pos: 4}}, 0},
		{"x>1", []lexToken{{text: "x", kind: tokenIdent, pos: 1}, {text: ">", kind: tokenCmp, pos: 2}, {text: "1", kind: tokenNum, pos: 3}, {kind: tokenEOF, pos: 4}}, 0},
		// punctuation
		{"f@(x)", []lexToken{
			{text: "f", kind: tokenIdent, pos: 1},
			{text: "@", kind: tokenAt, pos: 2},
			{text: "(", kind: tokenOpen, pos: 3},
			{text: "x", kind: tokenIdent, pos: 4},
			{text: ")", kind: tokenClose, pos: 5},
			{kind: tokenEOF, pos: 6},
		}, 0},
		{"[{a:b,c}]", []lexToken{
			{text: "[", kind: tokenOpen, pos: 1},
			{text: "{", kind: tokenOpen, pos: 2},
			{text: "a", kind: tokenIdent, pos: 3},
			{text: ":", kind: tokenColon, pos: 4},
			{text: "b", kind: tokenIdent, pos: 5},
			{text: ",", kind: tokenSep, pos: 6},
			{text: "c", kind: tokenIdent, pos: 7},
			{text: "}", kind: tokenClose, pos: 8},
			{text: "]", kind: tokenClose, pos: 9},
			{kind: tokenEOF, pos: 10},
		}, 0},
		// terminator
		{";", []lexToken{{text: ";", kind: tokenEOF, pos: 1}}, 0},
		{"1;2", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {text: ";", kind: tokenEOF, pos: 2}}, 0},
		{"1;$", []lexToken{{text: "1", kind: tokenNum, pos: 1}, {text: ";", kind: tokenEOF, pos: 2}}, 0},
		// erroneous symbols
		{"$", []lexToken{{pos: 1}, {kind: tokenEOF, pos: 2}}, 1},
		{"a$", []lexToken{{text: "a", kind: tokenIdent, pos: 1}, {pos: 2}, {kind: tokenEOF, pos: 3}}, 1},
		{"$0", []lexToken{{pos: 1}, {text: "0", kind: tokenNum, pos: 2}, {kind: tokenEOF, pos: 3}}, 1},
		{"$$", []lexToken{{pos: 1}, {pos: 2}, {kind: tokenEOF, pos: 3}}, 2},
		{"x^2", []lexToken{{text: "x", kind: tokenIdent, pos: 1}, {pos: 2}, {text: "2", kind: tokenNum, pos: 3}, {kind: tokenEOF, pos: 4}}, 1},
	}

	for _, c := range cases {
		scan := lex(strings.NewReader(c.src))
		for _, want := range c.tokens {
			got, err := scan.next()
			if err == io.EOF {
				t.Errorf("scanning %q: expected token %v but got EOF", c.src, want)
				continue
			}
			if got != want {
				t.Errorf("scanning %q: want %v, got %v", c.src, want, got)
			}
			if err != nil {
				if c.errs > 0 {
					c.errs--
					continue
				}
				t.Errorf("scanning %q: unexpected error %v", c.src, err)
			}
		}
		for got, err := scan.next(); err != io.EOF; got, err = scan.next() {
			if c.errs > 0 {
				c.errs--
			}
			t.Errorf("scanning %q: extra token %v with error: %v", c.src, got, err)
		}
		if c.errs > 0 {
			t.Errorf("scanning %q: not enough errors", c.src)
		}
	}
}

func TestLexError(t *testing.T) {
	cases := []struct {
		name string
		src  string
		text string
		kind string
		col  int
	}{
		{"symbol", "1 + $", "$", "", 5},
		{"newline", "1\n2", "\n", "", 2},
		{"implicit-mul", "3y", "3y", "number", 2},
		{"trailing-dot", "12.", "12.", "number", 3},
		{"two-dots", "1.2.3", "1.2.", "number", 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := tokenize(strings.NewReader(c.src))
			var le *LexError
			if !errors.As(err, &le) {
				t.Fatalf("%q gave %v, not a *LexError", c.src, err)
			}
			if le.Text != c.text || le.Scanning != c.kind || le.Col != c.col {
				t.Errorf("%q gave %+v, want text %q kind %q col %d", c.src, le, c.text, c.kind, c.col)
			}
			if le.Pos() != c.col {
				t.Errorf("Pos() is %d, want %d", le.Pos(), c.col)
			}
			if le.Kind() != KindLex {
				t.Errorf("Kind() is %v", le.Kind())
			}
		})
	}
}

func TestTerminatorStopsReading(t *testing.T) {
	src := strings.NewReader("1+2; 3")
	toks, err := tokenize(src)
	if err != nil {
		t.Fatal(err)
	}
	if last := toks[len(toks)-1]; last.kind != tokenEOF || last.text != ";" {
		t.Errorf("last token is %v, want terminator", last)
	}
	rest, err := io.ReadAll(src)
	if err != nil {
		t.Fatal(err)
	}
	if string(rest) != " 3" {
		t.Errorf("reader has %q left, want %q", rest, " 3")
	}
}
