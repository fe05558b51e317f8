/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package githubapi is the GitHub REST client used by the agents.

A Client is scoped to one owner (organisation or user) and exposes the
handful of calls the agents consume: repository metadata, file contents,
branch references, pull requests, search and issues. It wraps go-github and
authenticates with a static bearer token through oauth2.

Every call makes a single attempt. Failures come back as *Error, which keeps
apart the three ways a call can fail:

  - KindTransport: the request never produced a response (DNS, TLS, reset,
    cancelled context).
  - KindDecode: the server answered with a success status but the body could
    not be decoded.
  - KindStatus: the server answered with a non-success status code.

Callers branch on these with IsNotFound, IsConflict and IsAlreadyExists
rather than inspecting status codes:

	f, err := client.GetFile(ctx, "demo", "tasks.md", "")
	switch {
	case githubapi.IsNotFound(err):
		// absent
	case err != nil:
		return err
	}

Requests are traced with OpenTelemetry spans named after the operation.
*/
package githubapi
