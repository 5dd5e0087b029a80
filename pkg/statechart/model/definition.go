package model

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindState      Kind = "state"
	KindComposite  Kind = "composite"
	KindConcurrent Kind = "concurrent"
	KindFinal      Kind = "final"
	KindChoice     Kind = "choice"
	KindHistory    Kind = "history"
)

// Definition is the YAML form of a statechart.
type Definition struct {
	Name        string          `yaml:"name"`
	Initial     string          `yaml:"initial"`
	Scope       map[string]any  `yaml:"scope,omitempty"`
	States      []StateDef      `yaml:"states"`
	Transitions []TransitionDef `yaml:"transitions,omitempty"`
}

// StateDef describes one vertex. Kind defaults to "state".
type StateDef struct {
	Name    string         `yaml:"name"`
	Kind    Kind           `yaml:"kind,omitempty"`
	Initial string         `yaml:"initial,omitempty"`
	Scope   map[string]any `yaml:"scope,omitempty"`
	Entry   string         `yaml:"entry,omitempty"`
	Exit    string         `yaml:"exit,omitempty"`
	Do      string         `yaml:"do,omitempty"`

	// HistoryDefault names the sibling a history state enters when nothing
	// is remembered yet.
	HistoryDefault string `yaml:"history_default,omitempty"`

	States  []StateDef `yaml:"states,omitempty"`
	Regions []StateDef `yaml:"regions,omitempty"`
}

func (s StateDef) kind() Kind {
	if s.Kind == "" {
		return KindState
	}
	return s.Kind
}

type TransitionDef struct {
	From     string `yaml:"from"`
	To       string `yaml:"to,omitempty"`
	Event    string `yaml:"event,omitempty"`
	Guard    string `yaml:"guard,omitempty"`
	Action   string `yaml:"action,omitempty"`
	Internal bool   `yaml:"internal,omitempty"`
}

// Parse decodes a single YAML document. Unknown fields are errors.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty chart definition")
		}
		return nil, errors.Wrap(err, "decode chart definition")
	}
	return &def, nil
}

func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return def, nil
}

// Marshal encodes the definition back to YAML.
func (d *Definition) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, errors.Wrap(err, "encode chart definition")
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// walk visits every state definition depth first with its parent, nil for
// top level states.
func (d *Definition) walk(fn func(s, parent *StateDef)) {
	var visit func(states []StateDef, parent *StateDef)
	visit = func(states []StateDef, parent *StateDef) {
		for i := range states {
			s := &states[i]
			fn(s, parent)
			visit(s.States, s)
			visit(s.Regions, s)
		}
	}
	visit(d.States, nil)
}
