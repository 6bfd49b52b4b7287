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
)

// a project record as the platform stores it, keyed by a user-chosen
// alphanumeric id
type Project struct {
	ProjectId     string   `json:"projectId"`
	Description   string   `json:"description,omitempty"`
	IndexId       string   `json:"indexId,omitempty"`
	ProjectAdmins []string `json:"projectAdmins"`
	Rev           int      `json:"rev,omitempty"`
}

// the editable subset of a project record submitted on updates
type projectUpdate struct {
	ProjectId     string   `json:"projectId"`
	Description   string   `json:"description"`
	IndexId       string   `json:"indexId"`
	ProjectAdmins []string `json:"projectAdmins"`
	Rev           int      `json:"rev"`
}

// fetches all of the platform's projects
func (c *Client) GetProjects() ([]Project, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	body, err := c.get("api/projects", nil)
	if err != nil {
		return nil, err
	}
	var projects []Project
	err = json.Unmarshal(body, &projects)
	return projects, err
}

// fetches the project with the given id (the platform does have a
// fetch-by-id endpoint for projects, unlike for users)
func (c *Client) GetProject(id string) (Project, error) {
	if err := c.requireSession(); err != nil {
		return Project{}, err
	}
	body, err := c.get(fmt.Sprintf("api/projects/%s", id), nil)
	if err != nil {
		return Project{}, err
	}
	var project Project
	err = json.Unmarshal(body, &project)
	return project, err
}

// updates a project, stripping the record down to its editable field subset
// before submission
func (c *Client) UpdateProject(project Project) (Project, error) {
	if err := c.requireSession(); err != nil {
		return Project{}, err
	}
	update := projectUpdate{
		ProjectId:     project.ProjectId,
		Description:   project.Description,
		IndexId:       project.IndexId,
		ProjectAdmins: project.ProjectAdmins,
		Rev:           project.Rev,
	}
	updated := project
	if c.DryRun {
		return updated, nil
	}

	body, err := c.put(fmt.Sprintf("api/projects/%s", project.ProjectId), update)
	if err != nil {
		return Project{}, err
	}
	if len(body) > 0 {
		err = json.Unmarshal(body, &updated)
	}
	return updated, err
}

// creates a project with the given id on the given index, administered by
// the given users (reduced here to their uids)
func (c *Client) CreateProject(id, description, index string, admins []User) (Project, error) {
	if err := c.requireSession(); err != nil {
		return Project{}, err
	}
	adminIds := make([]string, len(admins))
	for i, admin := range admins {
		adminIds[i] = admin.Uid
	}
	newProject := Project{
		ProjectId:     id,
		Description:   description,
		IndexId:       index,
		ProjectAdmins: adminIds,
	}
	if c.DryRun {
		return newProject, nil
	}

	body, err := c.post("api/projects", newProject)
	if err != nil {
		return Project{}, err
	}
	created := newProject
	if len(body) > 0 {
		err = json.Unmarshal(body, &created)
	}
	return created, err
}
