/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v84/github"
)

// Kind classifies how a call failed.
type Kind int

const (
	// KindTransport means no HTTP response was received.
	KindTransport Kind = iota + 1
	// KindDecode means a success response carried an undecodable body.
	KindDecode
	// KindStatus means the server returned a non-success status code.
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindStatus:
		return "status"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is returned by every Client method that fails.
type Error struct {
	// Op names the client operation, e.g. "get_file".
	Op   string
	Kind Kind
	// StatusCode is the HTTP status, or 0 for KindTransport.
	StatusCode int
	// Message is the GitHub error message, when the body carried one.
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify turns a go-github result into an *Error. A nil err yields nil.
func classify(op string, resp *github.Response, err error) error {
	if err == nil {
		return nil
	}

	e := &Error{Op: op, Err: err}
	switch {
	case resp == nil || resp.Response == nil:
		e.Kind = KindTransport
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		e.Kind = KindStatus
		e.StatusCode = resp.StatusCode
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) {
			e.Message = ghErr.Message
		}
	default:
		e.Kind = KindDecode
		e.StatusCode = resp.StatusCode
	}
	return e
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindStatus {
		return e.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from GitHub.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsConflict reports whether a write was rejected because the version
// token it carried is no longer current.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}

// IsAlreadyExists reports whether a create call was rejected as
// unprocessable, which GitHub uses for an existing ref or an existing file
// written without a version token.
func IsAlreadyExists(err error) bool {
	return StatusCode(err) == http.StatusUnprocessableEntity
}
