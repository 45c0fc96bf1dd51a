// Package domain loads planning problems from YAML files.
//
// A domain file declares facts, actions, a start state, a goal and the
// initial contents of the world blackboard:
//
//	facts: [hasAxe, treeChopped]
//	actions:
//	  - name: ChopTree
//	    cost: 1
//	    pre: {hasAxe: true}
//	    post: {treeChopped: true}
//	    valid: 'has("axe")'
//	start: {hasAxe: true, treeChopped: false}
//	goal: {treeChopped: true}
//	world: {axe: 1}
//
// Facts are registered in the order they are declared: first the facts
// list, then those first named by action conditions, then start and goal.
package domain

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/goap/internal/goap"
	"gopkg.in/yaml.v3"
)

// File is the decoded form of a domain file.
type File struct {
	Facts   []string       `yaml:"facts"`
	Actions []ActionSpec   `yaml:"actions"`
	Start   Conditions     `yaml:"start"`
	Goal    Conditions     `yaml:"goal"`
	World   map[string]any `yaml:"world"`
}

// ActionSpec declares one action.
type ActionSpec struct {
	Name string `yaml:"name"`
	// Cost defaults to 1 when omitted.
	Cost *int       `yaml:"cost"`
	Pre  Conditions `yaml:"pre"`
	Post Conditions `yaml:"post"`
	// Valid is an optional expr-lang expression over the blackboard.
	Valid string `yaml:"valid"`
}

// Conditions is a YAML mapping of fact names to bools that keeps the order
// it was written in.
type Conditions []goap.Condition

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Conditions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of fact to bool", node.Line)
	}
	out := make(Conditions, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		var fact string
		if err := k.Decode(&fact); err != nil {
			return err
		}
		if seen[fact] {
			return fmt.Errorf("line %d: duplicate fact %q", k.Line, fact)
		}
		seen[fact] = true
		var value bool
		if err := v.Decode(&value); err != nil {
			return fmt.Errorf("line %d: fact %q: %w", v.Line, fact, err)
		}
		out = append(out, goap.Condition{Fact: fact, Value: value})
	}
	*c = out
	return nil
}

// Map returns the conditions as a map.
func (c Conditions) Map() map[string]bool {
	m := make(map[string]bool, len(c))
	for _, cond := range c {
		m[cond.Fact] = cond.Value
	}
	return m
}

// Load reads and parses a domain file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a domain. Unknown keys are errors.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid domain: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the constraints the decoder cannot express.
func (f *File) Validate() error {
	var errs []error
	facts := make(map[string]bool, len(f.Facts))
	for _, name := range f.Facts {
		if name == "" {
			errs = append(errs, errors.New("facts: empty fact name"))
			continue
		}
		if facts[name] {
			errs = append(errs, fmt.Errorf("facts: duplicate fact %q", name))
		}
		facts[name] = true
	}
	actions := make(map[string]bool, len(f.Actions))
	for i, a := range f.Actions {
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("actions[%d]: missing name", i))
			continue
		}
		if actions[a.Name] {
			errs = append(errs, fmt.Errorf("actions[%d]: duplicate action %q", i, a.Name))
		}
		actions[a.Name] = true
		if a.Cost != nil && *a.Cost < 0 {
			errs = append(errs, fmt.Errorf("action %q: %w", a.Name, goap.ErrNegativeCost))
		}
		for _, c := range append(append(Conditions{}, a.Pre...), a.Post...) {
			if c.Fact == "" {
				errs = append(errs, fmt.Errorf("action %q: empty fact name", a.Name))
			}
		}
	}
	if len(f.Goal) == 0 {
		errs = append(errs, errors.New("goal: at least one fact is required"))
	}
	return errors.Join(errs...)
}
