// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package platform

import (
	"fmt"
)

// indicates that a caller-supplied argument was rejected before any request
// was issued
type ValidationError struct {
	Field, Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("Invalid value for '%s': %s", e.Field, e.Message)
}

// indicates that the platform rejected our credentials, or that an operation
// requiring a session was attempted before logging in
type AuthenticationError struct {
	Message string
}

func (e AuthenticationError) Error() string {
	return fmt.Sprintf("Authentication with the workspace platform failed: %s", e.Message)
}

// indicates that a request to the platform failed at the HTTP level (non-2xx
// status, network failure, or an undecodable response body)
type RequestError struct {
	Method, Resource string
	StatusCode       int
	Message          string
}

func (e RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s failed (%d): %s", e.Method, e.Resource, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s failed (%d)", e.Method, e.Resource, e.StatusCode)
}

// indicates that a user was sought in the platform's user collection but
// not found
type UserNotFoundError struct {
	Uid, Email, IdpName, Context string
}

func (e UserNotFoundError) Error() string {
	if e.Email != "" {
		return fmt.Sprintf("No user with email '%s' and identity provider '%s' was found",
			e.Email, e.IdpName)
	}
	if e.Context != "" {
		return fmt.Sprintf("No user with uid '%s' was found (%s)", e.Uid, e.Context)
	}
	return fmt.Sprintf("No user with uid '%s' was found", e.Uid)
}

// indicates that the platform embedded an error code in an otherwise
// successful response
type APIError struct {
	Code, Message string
}

func (e APIError) Error() string {
	return fmt.Sprintf("The workspace platform reported an error (%s): %s", e.Code, e.Message)
}

// this error type is emitted if the platform redirects an HTTPS request to an
// HTTP endpoint (it's NUTS that this can happen!)
type DowngradedRedirectError struct {
	Endpoint string
}

func (e DowngradedRedirectError) Error() string {
	return fmt.Sprintf("The endpoint %s is attempting to downgrade an HTTPS request to HTTP",
		e.Endpoint)
}
