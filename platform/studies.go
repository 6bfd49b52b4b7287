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

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// a study record as the platform stores it; study ids follow a caller-chosen
// naming convention
type Study struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// the owning project (a one-element list in practice)
	ProjectId     []string          `json:"projectId"`
	StudyType     string            `json:"studyType"` // "structured" or "unstructured"
	Category      string            `json:"category"`  // "Organization" or "My Studies"
	UploadEnabled bool              `json:"uploadEnabled"`
	Permissions   *StudyPermissions `json:"permissions,omitempty"`
	Rev           int               `json:"rev,omitempty"`
}

// the permission record attached to a study, keyed by study id
type StudyPermissions struct {
	Id            string   `json:"id,omitempty"`
	AdminUsers    []string `json:"adminUsers"`
	ReadonlyUsers []string `json:"readonlyUsers"`
}

// a differential permission update: only the users being granted or revoked
// are submitted, not the full permission sets
type studyPermissionUpdate struct {
	UsersToAdd    []studyPermissionUser `json:"usersToAdd"`
	UsersToRemove []studyPermissionUser `json:"usersToRemove"`
}

type studyPermissionUser struct {
	Uid             string `json:"uid"`
	PermissionLevel string `json:"permissionLevel"`
}

// permission update responses can embed a business-level error in an
// otherwise successful (200) response
type studyPermissionResponse struct {
	StudyPermissions
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

// lists the studies in the given listing category ("Organization" or
// "My Studies"); an empty category defaults to "Organization", and anything
// else fails before any request is issued
func (c *Client) GetStudies(category string) ([]Study, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	if category == "" {
		category = "Organization"
	}
	if err := validation.Validate(category,
		validation.In("Organization", "My Studies")); err != nil {
		return nil, &ValidationError{
			Field:   "category",
			Message: fmt.Sprintf("'%s' %s", category, err.Error()),
		}
	}

	body, err := c.get("api/studies/", url.Values{"category": []string{category}})
	if err != nil {
		return nil, err
	}
	var studies []Study
	err = json.Unmarshal(body, &studies)
	return studies, err
}

// fetches the study with the given id
func (c *Client) GetStudy(id string) (Study, error) {
	if err := c.requireSession(); err != nil {
		return Study{}, err
	}
	body, err := c.get(fmt.Sprintf("api/studies/%s", id), nil)
	if err != nil {
		return Study{}, err
	}
	var study Study
	err = json.Unmarshal(body, &study)
	return study, err
}

// creates a study of the given type ("structured" or "unstructured") owned
// by the given project
func (c *Client) CreateStudy(id, name, description, projectID, studyType string,
	uploadEnabled bool) (Study, error) {

	if err := c.requireSession(); err != nil {
		return Study{}, err
	}
	if err := validation.Validate(studyType,
		validation.In("unstructured", "structured")); err != nil {
		return Study{}, &ValidationError{
			Field:   "studyType",
			Message: fmt.Sprintf("'%s' %s", studyType, err.Error()),
		}
	}

	newStudy := Study{
		Id:            id,
		Name:          name,
		Description:   description,
		ProjectId:     []string{projectID},
		StudyType:     studyType,
		Category:      "Organization",
		UploadEnabled: uploadEnabled,
	}
	if c.DryRun {
		return newStudy, nil
	}

	body, err := c.post("api/studies", newStudy)
	if err != nil {
		return Study{}, err
	}
	created := newStudy
	if len(body) > 0 {
		err = json.Unmarshal(body, &created)
	}
	return created, err
}

// fetches the permission record for the study with the given id
func (c *Client) GetStudyPermissions(id string) (StudyPermissions, error) {
	if err := c.requireSession(); err != nil {
		return StudyPermissions{}, err
	}
	body, err := c.get(fmt.Sprintf("api/studies/%s/permissions", id), nil)
	if err != nil {
		return StudyPermissions{}, err
	}
	var permissions StudyPermissions
	err = json.Unmarshal(body, &permissions)
	return permissions, err
}

// grants (action "add") or revokes (action "remove") a user's permission on
// a study at the given level; an empty level defaults to "readonly". The
// platform applies the change differentially, so only the affected user is
// submitted. A 200 response carrying an embedded error code fails with the
// embedded message. Under dry-run, the result carries the affected user in
// the list for their level whatever the action, mirroring the differential
// body that would have been submitted.
func (c *Client) AddRemoveStudyPermission(studyID, uid, action,
	permissionLevel string) (StudyPermissions, error) {

	if err := c.requireSession(); err != nil {
		return StudyPermissions{}, err
	}
	if permissionLevel == "" {
		permissionLevel = "readonly"
	}
	if err := validation.Validate(permissionLevel,
		validation.In("readonly", "admin")); err != nil {
		return StudyPermissions{}, &ValidationError{
			Field:   "permissionLevel",
			Message: fmt.Sprintf("'%s' %s", permissionLevel, err.Error()),
		}
	}
	if err := validation.Validate(action,
		validation.In("add", "remove")); err != nil {
		return StudyPermissions{}, &ValidationError{
			Field:   "action",
			Message: fmt.Sprintf("'%s' %s", action, err.Error()),
		}
	}

	update := studyPermissionUpdate{
		UsersToAdd:    []studyPermissionUser{},
		UsersToRemove: []studyPermissionUser{},
	}
	permissionUser := studyPermissionUser{
		Uid:             uid,
		PermissionLevel: permissionLevel,
	}
	if action == "add" {
		update.UsersToAdd = append(update.UsersToAdd, permissionUser)
	} else {
		update.UsersToRemove = append(update.UsersToRemove, permissionUser)
	}
	if c.DryRun {
		dryRun := StudyPermissions{Id: studyID}
		if permissionLevel == "admin" {
			dryRun.AdminUsers = []string{uid}
		} else {
			dryRun.ReadonlyUsers = []string{uid}
		}
		return dryRun, nil
	}

	body, err := c.put(fmt.Sprintf("api/studies/%s/permissions", studyID), update)
	if err != nil {
		return StudyPermissions{}, err
	}
	var result studyPermissionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return StudyPermissions{}, err
	}
	if result.ErrorCode != "" {
		return StudyPermissions{}, &APIError{
			Code:    result.ErrorCode,
			Message: result.Message,
		}
	}
	return result.StudyPermissions, nil
}
