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
	"fmt"
	"net/url"
)

// a catalog record describing a provisionable workspace template
type WorkspaceType struct {
	Id          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Rev         int    `json:"rev,omitempty"`
}

// A workspace configuration is a loosely structured catalog record, so we
// represent it as raw JSON key/value pairs rather than pinning down a schema
// the platform doesn't publish.
type WorkspaceConfiguration map[string]any

// fields the platform manages itself; they must be stripped from a
// configuration before it is resubmitted
var serverManagedConfigFields = []string{
	"createdBy", "updatedBy", "createdAt", "updatedAt", "allowedToUse",
}

// lists all workspace types in the platform's catalog, whatever their status
func (c *Client) GetWorkspaceTypes() ([]WorkspaceType, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	body, err := c.get("api/workspace-types", url.Values{"status": []string{"*"}})
	if err != nil {
		return nil, err
	}
	var types []WorkspaceType
	err = json.Unmarshal(body, &types)
	return types, err
}

// lists the configurations of the workspace type with the given id
func (c *Client) GetWorkspaceConfigurations(typeID string) ([]WorkspaceConfiguration, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	body, err := c.get(fmt.Sprintf("api/workspace-types/%s/configurations/", typeID),
		url.Values{"include": []string{"all"}})
	if err != nil {
		return nil, err
	}
	var configurations []WorkspaceConfiguration
	err = json.Unmarshal(body, &configurations)
	return configurations, err
}

// updates a configuration of the workspace type with the given id, stripping
// the server-managed fields from the submitted body (even if the caller left
// them on the record); the caller's record is not modified
func (c *Client) UpdateWorkspaceConfiguration(typeID string,
	config WorkspaceConfiguration) (WorkspaceConfiguration, error) {

	if err := c.requireSession(); err != nil {
		return nil, err
	}
	id, ok := config["id"].(string)
	if !ok || id == "" {
		return nil, &ValidationError{
			Field:   "config",
			Message: "The configuration has no 'id' field",
		}
	}

	update := make(WorkspaceConfiguration, len(config))
	for key, value := range config {
		update[key] = value
	}
	for _, field := range serverManagedConfigFields {
		delete(update, field)
	}
	if c.DryRun {
		return update, nil
	}

	body, err := c.put(fmt.Sprintf("api/workspace-types/%s/configurations/%s",
		typeID, id), update)
	if err != nil {
		return nil, err
	}
	updated := update
	if len(body) > 0 {
		err = json.Unmarshal(body, &updated)
	}
	return updated, err
}
