/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/ai-ulu/autopilot/content/placeholder"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Placeholder names a variant may use.
const (
	KeyRepo        = "repo"
	KeyOwner       = "owner"
	KeyTask        = "task"
	KeyChange      = "change"
	KeyDescription = "description"
	KeyNote        = "note"
)

var (
	knownKeys    = []string{KeyRepo, KeyOwner, KeyTask, KeyChange, KeyDescription, KeyNote}
	requiredKeys = []string{KeyRepo, KeyTask}
)

// Templates holds the parsed variants for each channel.
type Templates struct {
	LongForm  []*placeholder.Template
	ShortForm []*placeholder.Template
}

type templatesFile struct {
	LongForm  []string `yaml:"long_form"`
	ShortForm []string `yaml:"short_form"`
}

// DefaultTemplates returns the built-in variants.
func DefaultTemplates() *Templates {
	t, err := ParseTemplates(defaultTemplates)
	if err != nil {
		panic(fmt.Sprintf("built-in templates: %v", err))
	}
	return t
}

// LoadTemplates reads variants from a YAML file. An empty path returns the
// built-in variants.
func LoadTemplates(path string) (*Templates, error) {
	if path == "" {
		return DefaultTemplates(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading templates: %w", err)
	}
	t, err := ParseTemplates(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseTemplates parses a YAML document with long_form and short_form lists.
// Each channel needs at least one variant, every variant must reference repo
// and task, and no variant may use an unknown placeholder.
func ParseTemplates(data []byte) (*Templates, error) {
	var f templatesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	longForm, err := parseChannel("long_form", f.LongForm)
	if err != nil {
		return nil, err
	}
	shortForm, err := parseChannel("short_form", f.ShortForm)
	if err != nil {
		return nil, err
	}
	return &Templates{LongForm: longForm, ShortForm: shortForm}, nil
}

func parseChannel(channel string, variants []string) ([]*placeholder.Template, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("%s: no variants", channel)
	}

	out := make([]*placeholder.Template, 0, len(variants))
	var errs []error
	for i, text := range variants {
		t, err := placeholder.New(text)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", channel, i, err))
			continue
		}
		for _, key := range requiredKeys {
			if !t.Has(key) {
				errs = append(errs, fmt.Errorf("%s[%d]: missing {{%s}}", channel, i, key))
			}
		}
		for _, name := range t.Names() {
			if !slices.Contains(knownKeys, name) {
				errs = append(errs, fmt.Errorf("%s[%d]: unknown placeholder {{%s}}", channel, i, name))
			}
		}
		out = append(out, t)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}
