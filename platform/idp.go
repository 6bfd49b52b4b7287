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
	"encoding/json"
)

// the configuration of an identity provider registered with the platform
// (an external or internal authentication source)
type IdentityProvider struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	FederationUrl string `json:"federationUrl,omitempty"`
	Enabled       bool   `json:"enabled,omitempty"`
}

// returns the identity provider configuration matching the given name, or
// nil if no registered provider matches; the provider list is a public
// resource (no session needed) and is fetched at most once per client
func (c *Client) GetIdp(name string) (*IdentityProvider, error) {
	if c.idps == nil {
		body, err := c.get("api/authentication/public/provider/configs", nil)
		if err != nil {
			return nil, err
		}
		var idps []IdentityProvider
		if err := json.Unmarshal(body, &idps); err != nil {
			return nil, err
		}
		c.idps = idps
	}
	for i := range c.idps {
		if c.idps[i].Name == name {
			return &c.idps[i], nil
		}
	}
	return nil, nil
}
