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

// This package provides a client for the administrative REST API of a
// research-workspace management platform. The client logs in once with a
// username/password credential, holds the resulting session token, and
// translates method calls into JSON-over-HTTP requests against the
// platform's fixed endpoints.
package platform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	// the platform's internal (username/password) authentication scheme is
	// the only one we support for logins
	internalProvider = "internal"

	defaultTimeout = 30 * time.Second
)

// a proxy for the workspace platform's administrative API, holding connection
// parameters and session state
type Client struct {
	// HTTP client used for all requests
	Client http.Client
	// when set, mutating operations return their constructed request body
	// instead of performing the write (reads are unaffected)
	DryRun bool

	// base API origin (scheme + host)
	apiURL *url.URL
	// login credential
	username, password string
	// session token, set by Login and used verbatim in Authorization headers
	token string
	// identity provider configurations, fetched at most once per client
	idps []IdentityProvider
}

// constructs a client for the platform at the given API origin, using the
// given credential for logins; no request is issued until Login is called
func NewClient(apiURL, username, password string) (*Client, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, &ValidationError{
			Field:   "apiURL",
			Message: err.Error(),
		}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &ValidationError{
			Field:   "apiURL",
			Message: fmt.Sprintf("'%s' is not an absolute URL", apiURL),
		}
	}
	return &Client{
		Client:   SecureHttpClient(defaultTimeout),
		apiURL:   u,
		username: username,
		password: password,
	}, nil
}

// exchanges the client's credential for a session token and returns the
// profile of the user that logged in; the platform accepts only the
// "internal" provider for this exchange
func (c *Client) Login() (User, error) {
	body, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
		"provider": internalProvider,
	})
	if err != nil {
		return User{}, err
	}

	resource := c.resolve("api/authentication/id-tokens", nil)
	slog.Debug(fmt.Sprintf("POST: %s", resource))
	req, err := http.NewRequest(http.MethodPost, resource, bytes.NewReader(body))
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return User{}, &AuthenticationError{
			Message: fmt.Sprintf("Login for user '%s' failed with status %d",
				c.username, resp.StatusCode),
		}
	}

	var tokenResponse struct {
		IdToken string `json:"idToken"`
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return User{}, err
	}
	if err := json.Unmarshal(data, &tokenResponse); err != nil {
		return User{}, err
	}
	c.token = tokenResponse.IdToken

	// with the token in hand, fetch the caller's own profile
	// NOTE: these two requests are not atomic -- if the second fails, the
	// NOTE: session token remains set
	respBody, err := c.get("api/user", nil)
	if err != nil {
		return User{}, err
	}
	var self User
	err = json.Unmarshal(respBody, &self)
	return self, err
}

//====================
// Internal machinery
//====================

// checks that Login has stored a session token
func (c *Client) requireSession() error {
	if c.token == "" {
		return &AuthenticationError{
			Message: "No session token is held (did you call Login?)",
		}
	}
	return nil
}

// resolves a resource path (plus optional query values) against the API origin
func (c *Client) resolve(resource string, values url.Values) string {
	res := *c.apiURL
	res.Path += "/" + resource
	if values != nil {
		res.RawQuery = values.Encode()
	}
	return res.String()
}

// The required authorization header contains only the unencoded session
// token -- the platform doesn't use the Bearer method. Public resources are
// fetched before any token is held, in which case the header is omitted.
func (c *Client) addAuthHeader(request *http.Request) {
	if c.token != "" {
		request.Header.Set("Authorization", c.token)
	}
}

// performs a GET request on the given resource, returning the resulting
// response body and/or error
func (c *Client) get(resource string, values url.Values) ([]byte, error) {
	res := c.resolve(resource, values)
	slog.Debug(fmt.Sprintf("GET: %s", res))
	req, err := http.NewRequest(http.MethodGet, res, http.NoBody)
	if err != nil {
		return nil, err
	}
	c.addAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return readResponse(http.MethodGet, resource, resp)
}

// performs a POST request on the given resource with the given JSON-encodable
// body, returning the resulting response body and/or error
func (c *Client) post(resource string, body any) ([]byte, error) {
	return c.write(http.MethodPost, resource, body)
}

// performs a PUT request on the given resource with the given JSON-encodable
// body, returning the resulting response body and/or error
func (c *Client) put(resource string, body any) ([]byte, error) {
	return c.write(http.MethodPut, resource, body)
}

func (c *Client) write(method, resource string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	res := c.resolve(resource, nil)
	slog.Debug(fmt.Sprintf("%s: %s", method, res))
	req, err := http.NewRequest(method, res, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c.addAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return readResponse(method, resource, resp)
}

// maps an HTTP response to its body, or to a RequestError for a non-2xx status
func readResponse(method, resource string, resp *http.Response) ([]byte, error) {
	switch resp.StatusCode {
	case 200, 201, 204:
		return io.ReadAll(resp.Body)
	default:
		data, _ := io.ReadAll(resp.Body)
		var remote struct {
			Message string `json:"message"`
		}
		json.Unmarshal(data, &remote) // a message is nice to have, not required
		return nil, &RequestError{
			Method:     method,
			Resource:   resource,
			StatusCode: resp.StatusCode,
			Message:    remote.Message,
		}
	}
}
