/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package placeholder

import (
	"encoding/json"
	"fmt"
)

type binding interface {
	value() (string, error)
}

type unbound struct {
	name string
}

func (u unbound) value() (string, error) {
	return "", fmt.Errorf("unbound placeholder: %s", u.name)
}

type stringBinding string

func (s stringBinding) value() (string, error) {
	return string(s), nil
}

type jsonBinding struct {
	data any
}

func (j jsonBinding) value() (string, error) {
	b, err := json.MarshalIndent(j.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return string(b), nil
}
