package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
	"github.com/pkg/profile"

	"github.com/zephyrtronium/graphcalc"
	"github.com/zephyrtronium/graphcalc/session"
)

type cli struct {
	Log logConfig `embed:"" group:"log" prefix:"log-"`

	Prec       uint              `help:"Precision of calculations in bits (default 64, or the session's)." short:"p"`
	MaxDepth   int               `help:"Maximum depth of user function calls (default 512, or the session's)."`
	Given      map[string]string `help:"Variable definition as name=value (any number of times)." placeholder:"NAME=VALUE"`
	In         string            `help:"Input file with one line of statements per line, or '-' for stdin." short:"i" type:"path"`
	Session    string            `help:"YAML session file to restore at start and save at exit." type:"path"`
	Fmt        string            `help:"Result number formatting verb, such as %g or %.6f (default exact integers, otherwise shortest %g)."`
	Echo       bool              `help:"Print each statement before its result."`
	Profile    string            `default:"none" enum:"none,cpu,mem,trace" help:"Profile the run (${enum})."`
	ProfileDir string            `default:"." help:"Directory for profile output." type:"path"`

	Stmts []string `arg:"" help:"Statements to execute. With none, statements are read from stdin." optional:""`
}

type logConfig struct {
	Level  string `default:"warn" enum:"debug,info,warn,error" help:"Set log level."`
	Format string `default:"text" enum:"json,text"             help:"Set log format."`
}

// logger creates the logger described by the flags.
func (c *logConfig) logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelWarn
	}
	opts := slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, &opts))
	}
	return slog.New(slog.NewTextHandler(w, &opts))
}

var profiles = map[string]func(*profile.Profile){
	"cpu":   profile.CPUProfile,
	"mem":   profile.MemProfile,
	"trace": profile.TraceProfile,
}

func main() {
	var c cli
	parser, err := kong.New(&c,
		kong.Name("graphcalc"),
		kong.Description("Evaluate graphing calculator statements with arbitrary precision."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true, Summary: true}),
	)
	if err != nil {
		panic(err)
	}
	_, err = parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	log := c.Log.logger(os.Stderr)
	slog.SetDefault(log)
	if err := c.run(context.Background(), log, os.Stdin, os.Stdout); err != nil {
		log.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func (c *cli) run(ctx context.Context, log *slog.Logger, stdin *os.File, stdout *os.File) error {
	if mode := profiles[c.Profile]; mode != nil {
		defer profile.Start(mode, profile.ProfilePath(c.ProfileDir), profile.Quiet).Stop()
	}

	env, err := c.env(ctx, log)
	if err != nil {
		return err
	}
	vars := make(map[string]graphcalc.Value, len(c.Given))
	for name, src := range c.Given {
		r, err := env.ExecString(src, nil)
		if err != nil {
			return fmt.Errorf("setting %s: %w", name, err)
		}
		if r.Def != nil {
			return fmt.Errorf("setting %s: %q is a definition, not a value", name, src)
		}
		vars[strings.TrimSpace(name)] = r.Value
	}

	r := repl{
		env:         env,
		vars:        vars,
		out:         stdout,
		verb:        c.Fmt,
		echo:        c.Echo,
		session:     c.Session,
		interactive: isTerminal(stdin) && isTerminal(stdout),
		ctx:         ctx,
	}
	switch {
	case len(c.Stmts) > 0:
		r.interactive = false
		for _, s := range c.Stmts {
			r.line(s)
		}
	case c.In != "" && c.In != "-":
		f, err := os.Open(c.In)
		if err != nil {
			return err
		}
		defer f.Close()
		r.interactive = false
		if err := r.run(f); err != nil {
			return err
		}
	default:
		if err := r.run(stdin); err != nil {
			return err
		}
	}

	if c.Session != "" {
		return r.save(c.Session)
	}
	return nil
}

// env creates the session, restoring it from the session file if it exists.
func (c *cli) env(ctx context.Context, log *slog.Logger) (*graphcalc.Env, error) {
	opts := []graphcalc.EnvOption{graphcalc.Logger(log)}
	if c.Prec > 0 {
		opts = append(opts, graphcalc.Prec(c.Prec))
	}
	if c.MaxDepth > 0 {
		opts = append(opts, graphcalc.MaxDepth(c.MaxDepth))
	}
	if c.Session == "" {
		return graphcalc.NewEnv(opts...), nil
	}
	f, err := os.Open(c.Session)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("new session", slog.String("file", c.Session))
		return graphcalc.NewEnv(opts...), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	env, err := session.Load(ctx, f, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", c.Session, err)
	}
	log.Info("restored session", slog.String("file", c.Session), slog.Int("functions", len(env.Definitions())))
	return env, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
