/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package placeholder

import (
	"fmt"
	"maps"
	"slices"
)

// Template is a parsed text with named placeholders. The zero value is not
// usable; create one with New.
type Template struct {
	text     string
	bindings map[string]binding
}

// New parses text and collects its placeholders.
func New(text string) (*Template, error) {
	bindings := make(map[string]binding)
	if _, err := walk(text, func(name string) (string, error) {
		bindings[name] = unbound{name: name}
		return "", nil
	}); err != nil {
		return nil, err
	}
	return &Template{text: text, bindings: bindings}, nil
}

// Must panics if err is non-nil. It is meant for package-level templates:
//
//	var t = placeholder.Must(placeholder.New("Hello {{name}}"))
func Must(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}

// Names returns the placeholder names in the template, sorted.
func (t *Template) Names() []string {
	return slices.Sorted(maps.Keys(t.bindings))
}

// Has reports whether the template contains placeholder name.
func (t *Template) Has(name string) bool {
	_, ok := t.bindings[name]
	return ok
}

// BindString binds value verbatim to name.
func (t *Template) BindString(name, value string) (*Template, error) {
	return t.bind(name, stringBinding(value))
}

// BindJSON binds data to name, marshaled as indented JSON.
func (t *Template) BindJSON(name string, data any) (*Template, error) {
	return t.bind(name, jsonBinding{data: data})
}

// BindStrings binds every entry of values. Entries whose name is not in the
// template are ignored, so one value set can serve several templates.
func (t *Template) BindStrings(values map[string]string) (*Template, error) {
	out := t
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if !t.Has(name) {
			continue
		}
		var err error
		if out, err = out.BindString(name, values[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *Template) bind(name string, b binding) (*Template, error) {
	current, ok := t.bindings[name]
	if !ok {
		return nil, fmt.Errorf("placeholder %q not found in template", name)
	}
	if _, isUnbound := current.(unbound); !isUnbound {
		return nil, fmt.Errorf("placeholder %q already bound", name)
	}

	next := &Template{text: t.text, bindings: maps.Clone(t.bindings)}
	next.bindings[name] = b
	return next, nil
}

// Build renders the template. It fails if any placeholder is unbound.
func (t *Template) Build() (string, error) {
	values := make(map[string]string, len(t.bindings))
	for _, name := range t.Names() {
		v, err := t.bindings[name].value()
		if err != nil {
			return "", err
		}
		values[name] = v
	}

	return walk(t.text, func(name string) (string, error) {
		v, ok := values[name]
		if !ok {
			return "", fmt.Errorf("internal error: placeholder %q has no value", name)
		}
		return v, nil
	})
}
