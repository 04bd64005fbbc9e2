package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultStopTime bounds scenarios that set no stop time. Designs with a
// free-running clock never run out of events on their own.
const DefaultStopTime = 100000

// Scenario is a small test program run against a design through the
// object model. Steps run in order; a wait step suspends the program until
// its callback fires.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Design is the design file, relative to the scenario file.
	Design string `yaml:"design"`

	// Backends lists backend names in priority order. Defaults to vpi.
	Backends []string `yaml:"backends,omitempty"`

	// Toplevel selects the root for the hierarchy digest. Empty picks the
	// first root.
	Toplevel string `yaml:"toplevel,omitempty"`

	// StopTime ends the simulation if the program has not. Zero means
	// DefaultStopTime.
	StopTime uint64 `yaml:"stop_time,omitempty"`

	// SessionID is the fixed session id used for the run. Defaults to
	// "test-session" so golden traces are stable.
	SessionID string `yaml:"session_id,omitempty"`

	Steps []Step `yaml:"steps"`

	// Assertions are checked against the trace after the run.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one instruction. Exactly one field is set.
type Step struct {
	Set    *Access `yaml:"set,omitempty"`
	Expect *Access `yaml:"expect,omitempty"`
	Lookup *Lookup `yaml:"lookup,omitempty"`
	Wait   *Wait   `yaml:"wait,omitempty"`
	End    bool    `yaml:"end,omitempty"`
}

// Access deposits or checks one value.
type Access struct {
	Path  string `yaml:"path"`
	Value string `yaml:"value"`
	// As is the value format: binstr (default), int, real or str.
	As string `yaml:"as,omitempty"`
}

// Lookup resolves a path and optionally checks its kind.
type Lookup struct {
	Path string `yaml:"path"`
	Kind string `yaml:"kind,omitempty"`
}

// Wait suspends the program. Exactly one of Timer, Edge or Phase is set.
type Wait struct {
	Timer uint64 `yaml:"timer,omitempty"`
	// Edge is rising, falling or any; Signal names the object.
	Edge   string `yaml:"edge,omitempty"`
	Signal string `yaml:"signal,omitempty"`
	// Phase is read_only, read_write or next_time.
	Phase string `yaml:"phase,omitempty"`
}

const (
	FormatBinStr = "binstr"
	FormatInt    = "int"
	FormatReal   = "real"
	FormatStr    = "str"
)

const (
	PhaseReadOnly  = "read_only"
	PhaseReadWrite = "read_write"
	PhaseNextTime  = "next_time"
)

// LoadScenario reads a scenario file. The design path is resolved against
// the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if sc.Design != "" && !filepath.IsAbs(sc.Design) {
		sc.Design = filepath.Join(filepath.Dir(path), sc.Design)
	}
	return sc, nil
}

// ParseScenario decodes and validates a scenario. Unknown fields are
// rejected so that typos do not silently drop steps.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, st := range s.Steps {
		if err := validateStep(st); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(st Step) error {
	n := 0
	for _, set := range []bool{st.Set != nil, st.Expect != nil, st.Lookup != nil, st.Wait != nil, st.End} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("exactly one of set, expect, lookup, wait, end is required (got %d)", n)
	}
	switch {
	case st.Set != nil:
		return validateAccess(st.Set)
	case st.Expect != nil:
		return validateAccess(st.Expect)
	case st.Lookup != nil:
		if st.Lookup.Path == "" {
			return fmt.Errorf("lookup: path is required")
		}
	case st.Wait != nil:
		return validateWait(st.Wait)
	}
	return nil
}

func validateAccess(a *Access) error {
	if a.Path == "" {
		return fmt.Errorf("path is required")
	}
	switch a.As {
	case "", FormatBinStr, FormatStr:
	case FormatInt:
		if _, err := strconv.ParseInt(a.Value, 0, 64); err != nil {
			return fmt.Errorf("%s: value %q is not an integer", a.Path, a.Value)
		}
	case FormatReal:
		if _, err := strconv.ParseFloat(a.Value, 64); err != nil {
			return fmt.Errorf("%s: value %q is not a real", a.Path, a.Value)
		}
	default:
		return fmt.Errorf("%s: unknown format %q", a.Path, a.As)
	}
	return nil
}

func validateWait(w *Wait) error {
	n := 0
	if w.Timer > 0 {
		n++
	}
	if w.Edge != "" || w.Signal != "" {
		n++
		if w.Signal == "" {
			return fmt.Errorf("wait: edge needs a signal")
		}
		switch w.Edge {
		case "", "rising", "falling", "any":
		default:
			return fmt.Errorf("wait: unknown edge %q", w.Edge)
		}
	}
	if w.Phase != "" {
		n++
		switch w.Phase {
		case PhaseReadOnly, PhaseReadWrite, PhaseNextTime:
		default:
			return fmt.Errorf("wait: unknown phase %q", w.Phase)
		}
	}
	if n != 1 {
		return fmt.Errorf("wait: exactly one of timer, edge or phase is required")
	}
	return nil
}
