package testing

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Suite is a *_test.yaml file: an environment, a default script and the
// cases run against it. Paths are relative to the suite file.
type Suite struct {
	Env    string   `yaml:"env"`
	File   string   `yaml:"file"`
	Source string   `yaml:"source"`
	Params []string `yaml:"params"`
	Cases  []Case   `yaml:"cases"`
}

// Case runs one hook once and checks what it produced. A case with Error
// set expects compilation to fail with that code; a case with Fault set
// expects the run to fail with that fault kind.
type Case struct {
	Name   string   `yaml:"name"`
	Skip   string   `yaml:"skip"`
	Source string   `yaml:"source"`
	Params []string `yaml:"params"`
	Hook   string   `yaml:"hook"`

	Args    []float64          `yaml:"args"`
	Inputs  map[string]float64 `yaml:"inputs"`
	Strings map[string]string  `yaml:"strings"`
	Globals map[string]float64 `yaml:"globals"`

	Want        map[string]float64 `yaml:"want"`
	WantStrings map[string]string  `yaml:"want_strings"`
	WantGlobals map[string]float64 `yaml:"want_globals"`
	Error       string             `yaml:"error"`
	Fault       string             `yaml:"fault"`
}

// LoadSuite reads a suite file and resolves its script.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Suite
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if s.Env != "" && !filepath.IsAbs(s.Env) {
		s.Env = filepath.Join(dir, s.Env)
	}
	if s.File != "" {
		if s.Source != "" {
			return nil, fmt.Errorf("%s: suite sets both file and source", path)
		}
		script := s.File
		if !filepath.IsAbs(script) {
			script = filepath.Join(dir, script)
		}
		src, err := os.ReadFile(script)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		s.Source = string(src)
	}
	for i, c := range s.Cases {
		if c.Name == "" {
			return nil, fmt.Errorf("%s: case %d has no name", path, i+1)
		}
	}
	return &s, nil
}
