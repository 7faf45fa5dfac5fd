package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/zephyrtronium/graphcalc"
	"github.com/zephyrtronium/graphcalc/session"
)

const prompt = "> "

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	defStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	matchStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
)

// repl executes lines of statements against one session.
type repl struct {
	env  *graphcalc.Env
	vars map[string]graphcalc.Value
	out  io.Writer

	// verb formats numbers in results. Empty uses Value.String.
	verb    string
	echo    bool
	session string
	// interactive enables the prompt and error carets.
	interactive bool

	ctx context.Context
}

var errQuit = errors.New("quit")

// run reads lines from in until end of input or :quit.
func (r *repl) run(in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		if r.interactive {
			fmt.Fprint(r.out, promptStyle.Render(prompt))
		}
		if !sc.Scan() {
			break
		}
		line := sc.Text()
		if cmd, ok := strings.CutPrefix(strings.TrimSpace(line), ":"); ok {
			if err := r.command(cmd); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				r.fail(0, err)
			}
			continue
		}
		r.line(line)
	}
	if r.interactive {
		fmt.Fprintln(r.out)
	}
	return sc.Err()
}

// line executes each statement in a line. Statements are separated by ';'.
func (r *repl) line(line string) {
	line = strings.TrimRight(line, "\r\n")
	off := 0
	for _, stmt := range strings.SplitAfter(line, string(graphcalc.Terminator)) {
		start := off
		off += len(stmt)
		if strings.TrimSpace(strings.TrimSuffix(stmt, ";")) == "" {
			continue
		}
		if r.echo {
			fmt.Fprintln(r.out, hintStyle.Render(strings.TrimSpace(stmt)))
		}
		res, err := r.env.ExecString(stmt, r.vars)
		if err != nil {
			r.fail(len([]rune(line[:start])), err)
			continue
		}
		if res.Def != nil {
			fmt.Fprintln(r.out, defStyle.Render("defined "+res.Def.String()))
			continue
		}
		fmt.Fprintln(r.out, resultStyle.Render(r.format(res.Value)))
	}
}

// fail reports an error from a statement beginning at column off of the
// line, in runes.
func (r *repl) fail(off int, err error) {
	var ie graphcalc.InputError
	if !errors.As(err, &ie) {
		fmt.Fprintln(r.out, errorStyle.Render("error: "+err.Error()))
		return
	}
	if r.interactive && ie.Pos() > 0 {
		pad := strings.Repeat(" ", len(prompt)+off+ie.Pos()-1)
		fmt.Fprintln(r.out, pad+errorStyle.Render("^"))
	}
	fmt.Fprintln(r.out, errorStyle.Render(ie.Kind().String()+": "+ie.Error()))
}

// format renders a value with the number verb, or in the value's own form
// if the verb is empty.
func (r *repl) format(v graphcalc.Value) string {
	if r.verb == "" {
		return v.String()
	}
	switch v.Type() {
	case graphcalc.TypeNumber:
		return fmt.Sprintf(r.verb, v.Float())
	case graphcalc.TypeList:
		xs := v.Elems()
		s := make([]string, len(xs))
		for i, x := range xs {
			s[i] = fmt.Sprintf(r.verb, x)
		}
		return "[" + strings.Join(s, ", ") + "]"
	default:
		return v.String()
	}
}

// command runs a REPL command, the text after a leading ':'.
func (r *repl) command(cmd string) error {
	name, arg, _ := strings.Cut(strings.TrimSpace(cmd), " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "q", "quit":
		return errQuit
	case "defs":
		for _, d := range r.env.Definitions() {
			fmt.Fprintln(r.out, defStyle.Render(d.String()))
		}
	case "find":
		if arg == "" {
			return errors.New("usage: :find PATTERN")
		}
		for _, m := range fuzzy.Find(arg, r.env.Names()) {
			fmt.Fprintln(r.out, highlight(m))
		}
	case "save":
		file := arg
		if file == "" {
			file = r.session
		}
		if file == "" {
			return errors.New("usage: :save FILE")
		}
		if err := r.save(file); err != nil {
			return err
		}
		fmt.Fprintln(r.out, hintStyle.Render("saved "+file))
	case "help":
		fmt.Fprintln(r.out, hintStyle.Render("statements: expressions like 2+3*4, definitions like f(x: Number) = x*2"))
		fmt.Fprintln(r.out, hintStyle.Render("commands: :defs, :find PATTERN, :save [FILE], :quit"))
	default:
		return fmt.Errorf("unknown command %q (try :help)", name)
	}
	return nil
}

// highlight renders a fuzzy match with the matched runes emphasized.
func highlight(m fuzzy.Match) string {
	matched := make(map[int]bool, len(m.MatchedIndexes))
	for _, i := range m.MatchedIndexes {
		matched[i] = true
	}
	var b strings.Builder
	for i, c := range m.Str {
		if matched[i] {
			b.WriteString(matchStyle.Render(string(c)))
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// save writes the session to file.
func (r *repl) save(file string) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := session.Save(r.ctx, f, r.env); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
