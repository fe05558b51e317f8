/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package placeholder

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// resolveFunc supplies the replacement text for a placeholder name.
type resolveFunc func(name string) (string, error)

// walk scans text once, replacing each {{name}} with resolve(name).
func walk(text string, resolve resolveFunc) (string, error) {
	var out strings.Builder

	for len(text) > 0 {
		start := strings.Index(text, "{{")
		if start == -1 {
			out.WriteString(text)
			break
		}
		out.WriteString(text[:start])

		end := strings.Index(text[start:], "}}")
		if end == -1 {
			return "", errors.New("unclosed placeholder: missing '}}'")
		}
		end += start + 2

		name := strings.TrimSpace(text[start+2 : end-2])
		if !isValidName(name) {
			return "", fmt.Errorf("invalid placeholder name %q", name)
		}
		replacement, err := resolve(name)
		if err != nil {
			return "", err
		}
		out.WriteString(replacement)

		text = text[end:]
	}

	return out.String(), nil
}

// isValidName reports whether s starts with a letter and continues with
// letters, digits or underscores.
func isValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return true
}
