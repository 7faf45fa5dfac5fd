// Package session saves and restores graphcalc sessions as YAML documents.
//
// A snapshot records the session's settings and the source of each user
// function definition. Restoring a snapshot executes the definitions again in
// a new Env.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/zephyrtronium/graphcalc"
)

// Version is the snapshot format written by Save.
const Version = 1

var (
	// ErrVersion is returned when loading a snapshot of an unknown version.
	ErrVersion = errors.New("unsupported snapshot version")
	// ErrEntry is returned when a function entry does not define the
	// function it names.
	ErrEntry = errors.New("invalid function entry")
)

// Snapshot is the persisted form of a session.
type Snapshot struct {
	Version   int     `yaml:"version"`
	Prec      uint    `yaml:"prec"`
	MaxDepth  int     `yaml:"maxdepth"`
	Functions []Entry `yaml:"functions"`
}

// Entry is one user function definition.
type Entry struct {
	Name   string `yaml:"name"`
	Arity  int    `yaml:"arity"`
	Source string `yaml:"source"`
}

// Take captures the settings and definitions of env.
func Take(env *graphcalc.Env) *Snapshot {
	defs := env.Definitions()
	s := Snapshot{
		Version:   Version,
		Prec:      env.Prec(),
		MaxDepth:  env.MaxDepth(),
		Functions: make([]Entry, len(defs)),
	}
	for i, d := range defs {
		s.Functions[i] = Entry{
			Name:   d.Def.Name,
			Arity:  d.Def.Arity(),
			Source: d.String(),
		}
	}
	return &s
}

// Restore creates a new Env with the snapshot's settings and definitions.
// opts are applied after the snapshot's settings. If any entry fails, the
// error identifies it and no Env is returned.
func (s *Snapshot) Restore(opts ...graphcalc.EnvOption) (*graphcalc.Env, error) {
	if s.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, s.Version)
	}
	var base []graphcalc.EnvOption
	if s.Prec > 0 {
		base = append(base, graphcalc.Prec(s.Prec))
	}
	if s.MaxDepth > 0 {
		base = append(base, graphcalc.MaxDepth(s.MaxDepth))
	}
	env := graphcalc.NewEnv(append(base, opts...)...)
	for i, e := range s.Functions {
		st, err := graphcalc.ParseString(e.Source)
		if err != nil {
			return nil, fmt.Errorf("function %d (%s/%d): %w", i, e.Name, e.Arity, err)
		}
		if st.Def == nil || st.Def.Name != e.Name || st.Def.Arity() != e.Arity {
			return nil, fmt.Errorf("%w: function %d (%s/%d): source is %q", ErrEntry, i, e.Name, e.Arity, e.Source)
		}
		if err := env.Register(st.Def, st.Expr); err != nil {
			return nil, fmt.Errorf("function %d (%s/%d): %w", i, e.Name, e.Arity, err)
		}
	}
	return env, nil
}

// Save writes a snapshot of env to w.
func Save(ctx context.Context, w io.Writer, env *graphcalc.Env) error {
	b, err := yaml.MarshalContext(ctx, Take(env), yaml.Indent(2))
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	_, err = w.Write(b)
	return err
}

// Load reads a snapshot from r and restores it.
func Load(ctx context.Context, r io.Reader, opts ...graphcalc.EnvOption) (*graphcalc.Env, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := yaml.UnmarshalContext(ctx, b, &s, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return s.Restore(opts...)
}
