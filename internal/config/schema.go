package config

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OptionType represents the expected type of a configuration option value.
type OptionType string

const (
	// TypeString is a plain string value (the default for all config values).
	TypeString OptionType = "string"
	// TypeBool is a boolean value (true/false/yes/no/1/0/on/off).
	TypeBool OptionType = "bool"
	// TypeInt is an integer value.
	TypeInt OptionType = "int"
	// TypeDuration is a Go time.Duration value (e.g. "30s", "5m", "1h").
	TypeDuration OptionType = "duration"
	// TypeEnum is one of the option's Choices, compared case-insensitively.
	TypeEnum OptionType = "enum"
)

// ConfigOption declares a single configuration option with its type, default,
// documentation, and environment variable override.
type ConfigOption struct {
	// Key is the option name as it appears in the config file (kebab-case).
	Key string
	// Type is the expected value type for validation.
	Type OptionType
	// Choices lists the accepted values of a TypeEnum option.
	Choices []string
	// Default is the default value as a string, or "" for no default.
	Default string
	// Description is a human-readable description of the option.
	Description string
	// Section is "" for global options, or a section name.
	Section string
	// EnvVar is the environment variable that overrides this option, or "".
	EnvVar string
}

// ConfigSchema declares the expected configuration options for the application.
// It is used for validation, documentation, typed getters, and env var mapping.
type ConfigSchema struct {
	options []*ConfigOption
	// byKey indexes global options by key for fast lookup.
	byKey map[string]*ConfigOption
	// bySection indexes section options by section then key.
	bySection map[string]map[string]*ConfigOption
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds a ConfigOption to the schema. Duplicate keys within the same
// section are silently overwritten (last registration wins).
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := new(ConfigOption)
	*ref = opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
	} else {
		if s.bySection[opt.Section] == nil {
			s.bySection[opt.Section] = make(map[string]*ConfigOption)
		}
		s.bySection[opt.Section][opt.Key] = ref
	}
}

// RegisterAll adds multiple ConfigOptions to the schema.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the ConfigOption for a key in a given section ("" for global).
// Returns nil if the key is not registered.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	if sec, ok := s.bySection[section]; ok {
		return sec[key]
	}
	return nil
}

// IsKnown returns true if the key is registered in the given section.
// Global keys are known in every section.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	if s.Lookup(section, key) != nil {
		return true
	}
	return s.byKey[key] != nil
}

// SplitKey resolves a dotted "section.key" name, as used on the command
// line, to its section and key. Registered global keys, which may contain
// dots themselves, take precedence.
func (s *ConfigSchema) SplitKey(name string) (section, key string) {
	if s.byKey[name] != nil {
		return "", name
	}
	if sec, k, ok := strings.Cut(name, "."); ok {
		if _, known := s.bySection[sec]; known {
			return sec, k
		}
	}
	return "", name
}

// GlobalOptions returns all registered global options (Section == "").
func (s *ConfigSchema) GlobalOptions() []ConfigOption {
	return s.SectionOptions("")
}

// SectionOptions returns all registered options for a specific section.
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns a sorted list of all registered non-empty section names.
func (s *ConfigSchema) Sections() []string {
	out := make([]string, 0, len(s.bySection))
	for sec := range s.bySection {
		out = append(out, sec)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the effective value of a key by checking, in order: (1)
// the environment variable declared in the schema for this key, (2) the
// config value, (3) the schema default. Returns "" if the key is not found
// anywhere.
func (s *ConfigSchema) Resolve(c *Config, section, key string) string {
	opt := s.Lookup(section, key)
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if v, ok := c.GetSectionOption(section, key); ok {
		return v
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ResolveInt is Resolve parsed as an int. An empty value is zero.
func (s *ConfigSchema) ResolveInt(c *Config, section, key string) (int, error) {
	v := s.Resolve(c, section, key)
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("option %q: expected int, got %q", displayKey(section, key), v)
	}
	return i, nil
}

// ResolveDuration is Resolve parsed as a time.Duration. An empty value is
// zero.
func (s *ConfigSchema) ResolveDuration(c *Config, section, key string) (time.Duration, error) {
	v := s.Resolve(c, section, key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("option %q: expected duration, got %q", displayKey(section, key), v)
	}
	return d, nil
}

// ResolveBool is Resolve parsed as a bool. An empty value is false.
func (s *ConfigSchema) ResolveBool(c *Config, section, key string) (bool, error) {
	v := s.Resolve(c, section, key)
	if v == "" {
		return false, nil
	}
	b, err := parseBool(v)
	if err != nil {
		return false, fmt.Errorf("option %q: expected bool, got %q", displayKey(section, key), v)
	}
	return b, nil
}

func displayKey(section, key string) string {
	if section == "" {
		return key
	}
	return section + "." + key
}

// ValidateConfig checks a loaded Config against the schema and returns a list
// of human-readable issues (empty if the config is valid). Validation includes:
//   - Unknown global options (not in schema)
//   - Unknown section options (not in schema for that section, and not global)
//   - Type mismatches for options with declared types
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateType(opt, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Sections {
		for key, value := range opts {
			if !s.IsKnown(section, key) {
				issues = append(issues, fmt.Sprintf("unknown option in [%s]: %q (value: %q)", section, key, value))
				continue
			}
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if err := validateType(opt, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// validateType checks that a string value matches the option's type.
func validateType(opt *ConfigOption, value string) error {
	switch opt.Type {
	case TypeString, "":
		return nil
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	case TypeEnum:
		if !slices.Contains(opt.Choices, strings.ToLower(value)) {
			return fmt.Errorf("expected one of %s, got %q", strings.Join(opt.Choices, "|"), value)
		}
	default:
		return fmt.Errorf("unknown option type %q", opt.Type)
	}
	return nil
}

// --- Help text generation ---

// FormatHelp returns a formatted, human-readable reference of all registered
// options in the schema, grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder

	if globals := s.GlobalOptions(); len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}

	for _, sec := range s.Sections() {
		opts := s.SectionOptions(sec)
		if len(opts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n[%s] Options:\n", sec)
		for _, o := range opts {
			writeOptionHelp(&b, o)
		}
	}

	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	fmt.Fprintf(b, "  %-20s %s", o.Key, o.Description)
	parts := make([]string, 0, 3)
	switch {
	case o.Type == TypeEnum:
		parts = append(parts, "one of: "+strings.Join(o.Choices, "|"))
	case o.Type != "" && o.Type != TypeString:
		parts = append(parts, fmt.Sprintf("type: %s", o.Type))
	}
	if o.Default != "" {
		parts = append(parts, fmt.Sprintf("default: %s", o.Default))
	}
	if o.EnvVar != "" {
		parts = append(parts, fmt.Sprintf("env: %s", o.EnvVar))
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

// --- Default schema ---

// Section names of the default schema.
const (
	SectionPlanner = "planner"
	SectionRun     = "run"
	SectionExpr    = "expr"
)

// DefaultSchema returns the canonical schema declaring all known
// configuration options. This is the single source of truth for option names,
// types, defaults, descriptions, and environment variable overrides.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll([]ConfigOption{
		{Key: "log.level", Type: TypeEnum, Choices: []string{"debug", "info", "warn", "error"}, Default: "info", Description: "Log level", EnvVar: "GOAP_LOG_LEVEL"},
		{Key: "log.file", Type: TypeString, Default: "", Description: "Log file path (JSON output), stderr text if empty", EnvVar: "GOAP_LOG_FILE"},

		{Section: SectionPlanner, Key: "heuristic", Type: TypeEnum, Choices: []string{"hamming", "zero", "none"}, Default: "hamming", Description: "Search heuristic", EnvVar: "GOAP_HEURISTIC"},
		{Section: SectionPlanner, Key: "match", Type: TypeEnum, Choices: []string{"subset", "exact"}, Default: "subset", Description: "How goals and preconditions match a state", EnvVar: "GOAP_MATCH"},
		{Section: SectionPlanner, Key: "set-mode", Type: TypeEnum, Choices: []string{"assign", "idempotent", "toggle"}, Default: "assign", Description: "How setting a known fact behaves"},
		{Section: SectionPlanner, Key: "max-iterations", Type: TypeInt, Default: "0", Description: "Node expansion limit per search, 0 for none", EnvVar: "GOAP_MAX_ITERATIONS"},
		{Section: SectionPlanner, Key: "timeout", Type: TypeDuration, Default: "", Description: "Time limit per search", EnvVar: "GOAP_TIMEOUT"},

		{Section: SectionRun, Key: "tick-interval", Type: TypeDuration, Default: "10ms", Description: "Behavior tree tick period"},
		{Section: SectionRun, Key: "max-replans", Type: TypeInt, Default: "3", Description: "Plans allowed after the first one fails"},

		{Section: SectionExpr, Key: "cache-size", Type: TypeInt, Default: "1000", Description: "Compiled validator expressions to keep"},
	})
	return s
}
