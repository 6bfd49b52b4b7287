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

func TestGetProjects(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	projects, err := client.GetProjects()
	assert.Nil(err, "Listing projects encountered an error")
	assert.Equal(2, len(projects))
	assert.Equal("alpha", projects[0].ProjectId)
	assert.Equal("beta", projects[1].ProjectId)
}

func TestGetProject(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	project, err := client.GetProject("alpha")
	assert.Nil(err, "Fetching a project encountered an error")
	assert.Equal("First project", project.Description)
	assert.Equal("ix-alpha", project.IndexId)
	assert.Equal([]string{"u-1"}, project.ProjectAdmins)

	_, err = client.GetProject("no-such-project")
	assert.IsType(&RequestError{}, err)
}

func TestUpdateProject(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	project, _ := client.GetProject("alpha")
	project.Description = "First project, renewed"
	project.ProjectAdmins = []string{"u-1", "u-2"}

	updated, err := client.UpdateProject(project)
	assert.Nil(err, "Updating a project encountered an error")
	assert.Equal("First project, renewed", updated.Description)
	assert.Equal([]string{"u-1", "u-2"}, updated.ProjectAdmins)
	assert.Equal(2, updated.Rev, "The platform didn't bump the revision counter")
	assert.Equal("First project, renewed", server.Projects[0].Description,
		"The update didn't reach the platform")
}

func TestUpdateProjectDryRun(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)
	client.DryRun = true

	project, _ := client.GetProject("alpha")
	project.Description = "First project, renewed"

	payload, err := client.UpdateProject(project)
	assert.Nil(err)
	assert.Equal("First project, renewed", payload.Description)
	assert.Equal(1, payload.Rev, "The dry-run payload didn't carry the original revision")
	assert.Equal(0, server.WriteCount(), "A dry run issued a write request")
	assert.Equal("First project", server.Projects[0].Description,
		"A dry run changed a project on the platform")
}

func TestCreateProject(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	admins := []User{
		{Uid: "u-1", Email: "admin@example.org"},
		{Uid: "u-2", Email: "rex@example.org"},
	}
	created, err := client.CreateProject("gamma", "Third project", "ix-gamma", admins)
	assert.Nil(err, "Creating a project encountered an error")
	assert.Equal("gamma", created.ProjectId)
	assert.Equal([]string{"u-1", "u-2"}, created.ProjectAdmins,
		"The admin users weren't reduced to their uids")
	assert.Equal(3, len(server.Projects))
}

func TestCreateProjectDryRun(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)
	client.DryRun = true

	payload, err := client.CreateProject("gamma", "Third project", "ix-gamma",
		[]User{{Uid: "u-1"}})
	assert.Nil(err)
	assert.Equal("gamma", payload.ProjectId)
	assert.Equal([]string{"u-1"}, payload.ProjectAdmins)
	assert.Equal(0, server.WriteCount(), "A dry run issued a write request")
	assert.Equal(2, len(server.Projects), "A dry run created a project on the platform")
}
