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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetWorkspaceTypes(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	types, err := client.GetWorkspaceTypes()
	assert.Nil(err, "Listing workspace types encountered an error")
	assert.Equal(1, len(types))
	assert.Equal("vm-small", types[0].Id)

	// the catalog is fetched whatever the status of its entries
	requests := server.RequestsFor("/api/workspace-types")
	assert.Equal("status=%2A", requests[0].Query)
}

func TestGetWorkspaceConfigurations(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	configurations, err := client.GetWorkspaceConfigurations("vm-small")
	assert.Nil(err, "Listing workspace configurations encountered an error")
	assert.Equal(1, len(configurations))
	assert.Equal("cfg-1", configurations[0]["id"])

	requests := server.RequestsFor("/api/workspace-types/vm-small/configurations/")
	assert.Equal("include=all", requests[0].Query)
}

func TestUpdateWorkspaceConfigurationStripsServerManagedFields(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	configurations, _ := client.GetWorkspaceConfigurations("vm-small")
	config := configurations[0]
	config["name"] = "2 cores / 16 GB"

	updated, err := client.UpdateWorkspaceConfiguration("vm-small", config)
	assert.Nil(err, "Updating a workspace configuration encountered an error")
	assert.Equal("2 cores / 16 GB", updated["name"])

	// the server-managed fields were stripped from the submitted body even
	// though they were present on the input
	stored := server.Configurations["vm-small"][0]
	for _, field := range []string{"createdBy", "updatedBy", "createdAt", "updatedAt", "allowedToUse"} {
		assert.NotContains(stored, field,
			"A server-managed field survived the update")
	}
	// ...but the caller's record wasn't modified
	assert.Contains(config, "createdBy")
}

func TestUpdateWorkspaceConfigurationRequiresId(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	_, err := client.UpdateWorkspaceConfiguration("vm-small",
		WorkspaceConfiguration{"name": "no id here"})
	assert.IsType(&ValidationError{}, err)
	assert.Equal(0, server.WriteCount())
}

func TestUpdateWorkspaceConfigurationDryRun(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)
	client.DryRun = true

	payload, err := client.UpdateWorkspaceConfiguration("vm-small",
		WorkspaceConfiguration{
			"id":        "cfg-1",
			"name":      "2 cores / 16 GB",
			"createdBy": "system",
		})
	assert.Nil(err)
	assert.NotContains(payload, "createdBy",
		"The dry-run payload carries a server-managed field")
	assert.Equal("2 cores / 16 GB", payload["name"])
	assert.Equal(0, server.WriteCount(), "A dry run issued a write request")
}
