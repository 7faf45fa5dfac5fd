package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/zephyrtronium/graphcalc"
	"github.com/zephyrtronium/graphcalc/session"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func testRepl(in string) (*repl, string) {
	var out bytes.Buffer
	r := repl{
		env:  graphcalc.NewEnv(),
		vars: map[string]graphcalc.Value{"x": graphcalc.NumFloat64(3)},
		out:  &out,
		verb: "%g",
		ctx:  context.Background(),
	}
	if err := r.run(strings.NewReader(in)); err != nil {
		panic(err)
	}
	return &r, ansi.ReplaceAllString(out.String(), "")
}

func TestRepl(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{"expr", "2+3*4\n", "14\n"},
		{"def", "f(x) = x*2\nf(4); f@([1,2])\n:defs\n", "defined f(x)\n8\n[2, 4]\nf(x) = x*2\n"},
		{"var", "x*x\n", "9\n"},
		{"empty", "\n  \n;\n", ""},
		{"error", "1/0\n2\n", "ArithmeticError: 2: division by zero in /\n2\n"},
		{"continue", "1/0; 5\n", "ArithmeticError: 2: division by zero in /\n5\n"},
		{"quit", "1\n:q\n2\n", "1\n"},
		{"unknown", ":frob\n", "error: unknown command \"frob\" (try :help)\n"},
		{"find", "velocity(t) = t\n:find vel\n", "defined velocity(t)\nvelocity\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, out := testRepl(c.in)
			if out != c.out {
				t.Errorf("input %q:\nwant %q\ngot  %q", c.in, c.out, out)
			}
		})
	}
}

func TestReplFormat(t *testing.T) {
	r := repl{verb: "%.3f"}
	cases := []struct {
		v    graphcalc.Value
		want string
	}{
		{graphcalc.NumFloat64(2), "2.000"},
		{graphcalc.ListFloat64(1, 0.5), "[1.000, 0.500]"},
		{graphcalc.ListFloat64(), "[]"},
	}
	for _, c := range cases {
		if got := r.format(c.v); got != c.want {
			t.Errorf("%v formatted as %q, want %q", c.v, got, c.want)
		}
	}
	r.verb = ""
	if got := r.format(graphcalc.ListFloat64(3628800, 0.5)); got != "[3628800, 0.5]" {
		t.Errorf("default format is %q", got)
	}
}

func TestReplCaret(t *testing.T) {
	var out bytes.Buffer
	r := repl{env: graphcalc.NewEnv(), out: &out, verb: "%g", interactive: true}
	r.line("1; 2+y")
	got := ansi.ReplaceAllString(out.String(), "")
	// The caret sits under y, after the prompt. The message column counts
	// from the start of the statement.
	want := "1\n" + strings.Repeat(" ", len(prompt)+5) + "^\nUndefinedVariableError: 4: undefined variable: \"y\"\n"
	if got != want {
		t.Errorf("want %q\ngot  %q", want, got)
	}
}

func TestReplSave(t *testing.T) {
	file := filepath.Join(t.TempDir(), "session.yaml")
	r, out := testRepl("f(x) = x+1\n:save " + file + "\n")
	if !strings.Contains(out, "saved "+file) {
		t.Errorf("output %q does not report saving", out)
	}
	f, err := os.Open(file)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	env, err := session.Load(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	got, want := env.Definitions(), r.env.Definitions()
	if len(got) != 1 || got[0].String() != want[0].String() {
		t.Errorf("saved %v, want %v", got, want)
	}
}

func TestLogConfig(t *testing.T) {
	var buf bytes.Buffer
	c := logConfig{Level: "debug", Format: "json"}
	log := c.logger(&buf)
	log.Debug("hello")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("json log is %q", buf.String())
	}
	buf.Reset()
	c = logConfig{Level: "error", Format: "text"}
	log = c.logger(&buf)
	log.Warn("quiet")
	if buf.Len() != 0 {
		t.Errorf("warn logged at error level: %q", buf.String())
	}
}
