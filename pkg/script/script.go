package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	yamlv3 "gopkg.in/yaml.v3"
)

// TokenPlaceholder is replaced with the caller's token
// when a script is loaded from a file.
const TokenPlaceholder = "{{token}}"

type PromptStep struct {
	Trigger  string `json:"trigger" yaml:"trigger"`
	Response string `json:"response" yaml:"response"`

	// Secret responses are never written to logs or transcripts.
	Secret bool `json:"secret,omitempty" yaml:"secret,omitempty"`
}

// LogResponse is the response as it may appear in logs.
func (s PromptStep) LogResponse() string {
	if s.Secret {
		return "***"
	}

	return s.Response
}

// Script is an ordered, immutable list of prompt steps.
type Script struct {
	steps []PromptStep
}

func New(steps ...PromptStep) (*Script, error) {
	for i, step := range steps {
		if step.Trigger == "" {
			return nil, fmt.Errorf("step %d has an empty trigger", i)
		}
	}

	copied := make([]PromptStep, len(steps))
	copy(copied, steps)

	return &Script{steps: copied}, nil
}

func MustNew(steps ...PromptStep) *Script {
	s, err := New(steps...)
	if err != nil {
		panic(err)
	}

	return s
}

func (s *Script) Len() int {
	return len(s.steps)
}

func (s *Script) Step(i int) PromptStep {
	return s.steps[i]
}

func (s *Script) Steps() []PromptStep {
	copied := make([]PromptStep, len(s.steps))
	copy(copied, s.steps)
	return copied
}

type scriptFile struct {
	Steps []PromptStep `json:"steps" yaml:"steps"`
}

/*
 * Scripts can be stored in YAML or JSON files:
 *
 *   steps:
 *     - trigger: "Token:"
 *       response: "{{token}}"
 *       secret: true
 *
 * Keeping the prompts in a file means that a change in the wording
 * of the wrapped CLI only requires a data change.
 */
func LoadFile(path, token string) (*Script, error) {
	filename, _ := filepath.Abs(path)

	// #nosec
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading script file %s: %v", filename, err)
	}

	return Parse(content, token)
}

func Parse(content []byte, token string) (*Script, error) {
	file := scriptFile{}
	err := yaml.Unmarshal(content, &file)
	if err != nil {
		return nil, fmt.Errorf("error parsing script: %v", err)
	}

	if len(file.Steps) == 0 {
		return nil, fmt.Errorf("script has no steps")
	}

	for i := range file.Steps {
		if strings.Contains(file.Steps[i].Response, TokenPlaceholder) {
			file.Steps[i].Response = strings.ReplaceAll(file.Steps[i].Response, TokenPlaceholder, token)
			file.Steps[i].Secret = true
		}
	}

	return New(file.Steps...)
}

// Dump renders the script as YAML. Secret responses are masked.
func (s *Script) Dump() ([]byte, error) {
	file := scriptFile{Steps: []PromptStep{}}
	for _, step := range s.steps {
		if step.Secret {
			step.Response = TokenPlaceholder
		}

		file.Steps = append(file.Steps, step)
	}

	return yamlv3.Marshal(&file)
}
