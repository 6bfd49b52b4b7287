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
	"slices"
	"strings"
)

// a user record as the platform stores it
type User struct {
	Uid       string `json:"uid,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	// role is "researcher" or "admin"; status is "active" or "inactive"
	Role           string   `json:"role"`
	Status         string   `json:"status,omitempty"`
	IsAdmin        bool     `json:"isAdmin"`
	IsExternalUser bool     `json:"isExternalUser"`
	ApplyReason    string   `json:"applyReason,omitempty"`
	IdpName        string   `json:"identityProviderName,omitempty"`
	FederationUrl  string   `json:"federationUrl,omitempty"`
	ProjectId      []string `json:"projectId"`
	// revision counter used by the platform for optimistic concurrency
	Rev int `json:"rev,omitempty"`
}

// the editable subset of a user record submitted on updates; non-editable
// fields are carried over from the record being updated, along with its
// revision counter
type userUpdate struct {
	Uid            string   `json:"uid"`
	Email          string   `json:"email"`
	FirstName      string   `json:"firstName,omitempty"`
	LastName       string   `json:"lastName,omitempty"`
	Role           string   `json:"role"`
	Status         string   `json:"status"`
	IsAdmin        bool     `json:"isAdmin"`
	IsExternalUser bool     `json:"isExternalUser"`
	ApplyReason    string   `json:"applyReason,omitempty"`
	ProjectId      []string `json:"projectId"`
	Rev            int      `json:"rev"`
}

// creates a new user federated through the named identity provider; the
// email is lower-cased and doubles as the username, and the user starts out
// active with no project memberships; an empty role defaults to "researcher"
func (c *Client) AddFederatedUser(idp, federationURL, email, role string) (User, error) {
	if err := c.requireSession(); err != nil {
		return User{}, err
	}
	if role == "" {
		role = "researcher"
	}

	newUser := User{
		Username:       strings.ToLower(email),
		Email:          strings.ToLower(email),
		Role:           role,
		Status:         "active",
		IsExternalUser: true,
		IdpName:        idp,
		FederationUrl:  federationURL,
		ProjectId:      []string{},
	}
	if c.DryRun {
		return newUser, nil
	}

	body, err := c.post("api/users", newUser)
	if err != nil {
		return User{}, err
	}
	var created User
	err = json.Unmarshal(body, &created)
	return created, err
}

// fetches the platform's entire user collection; the platform has no
// fetch-user-by-id endpoint, so single-user lookups scan this collection
func (c *Client) GetUsers() ([]User, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	body, err := c.get("api/users", nil)
	if err != nil {
		return nil, err
	}
	var users []User
	err = json.Unmarshal(body, &users)
	return users, err
}

// returns the user with the given email address (case-sensitive) federated
// through the named identity provider; a user absent from the collection
// (or an empty collection) yields a UserNotFoundError
func (c *Client) GetUserByEmailAndIdp(email, idpName string) (User, error) {
	users, err := c.GetUsers()
	if err != nil {
		return User{}, err
	}
	for _, user := range users {
		if user.Email == email && user.IdpName == idpName {
			return user, nil
		}
	}
	return User{}, &UserNotFoundError{
		Email:   email,
		IdpName: idpName,
	}
}

// overwrites a user's name, status, and role, preserving all non-editable
// fields (including the revision counter, which the platform checks on
// update); the user is located by scanning the full collection
func (c *Client) UpdateUserDetails(uid, firstName, lastName, status, role string) (User, error) {
	user, err := c.getUserByUid(uid, "")
	if err != nil {
		return User{}, err
	}

	update := userUpdate{
		Uid:            user.Uid,
		Email:          user.Email,
		FirstName:      firstName,
		LastName:       lastName,
		Role:           role,
		Status:         status,
		IsAdmin:        user.IsAdmin,
		IsExternalUser: user.IsExternalUser,
		ApplyReason:    user.ApplyReason,
		ProjectId:      user.ProjectId,
		Rev:            user.Rev,
	}
	return c.putUser(user, update)
}

// adds the user with the given uid to a project (action "add") or removes
// them from it (any other action). The new membership list is built by
// removing the project and conditionally re-adding it, so the project
// appears at most once no matter what the prior state was. A change that
// would leave the membership set untouched resolves with the user's
// original record and issues no write.
func (c *Client) AddRemoveProjectUser(projectID, uid, action string) (User, error) {
	user, err := c.getUserByUid(uid, fmt.Sprintf("project '%s', action '%s'", projectID, action))
	if err != nil {
		return User{}, err
	}

	projectIds := make([]string, 0, len(user.ProjectId)+1)
	for _, id := range user.ProjectId {
		if id != projectID {
			projectIds = append(projectIds, id)
		}
	}
	if action == "add" {
		projectIds = append(projectIds, projectID)
	}

	if sameIdSet(user.ProjectId, projectIds) {
		// nothing would change on the platform, so don't bother it
		return user, nil
	}

	update := userUpdate{
		Uid:            user.Uid,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Role:           user.Role,
		Status:         user.Status,
		IsAdmin:        user.IsAdmin,
		IsExternalUser: user.IsExternalUser,
		ApplyReason:    user.ApplyReason,
		ProjectId:      projectIds,
		Rev:            user.Rev,
	}
	return c.putUser(user, update)
}

// locates a user by uid in the full user collection, attaching the given
// context to any not-found error
func (c *Client) getUserByUid(uid, context string) (User, error) {
	users, err := c.GetUsers()
	if err != nil {
		return User{}, err
	}
	for _, user := range users {
		if user.Uid == uid {
			return user, nil
		}
	}
	return User{}, &UserNotFoundError{
		Uid:     uid,
		Context: context,
	}
}

// submits a user update (or returns it unsubmitted under dry-run), mapping
// the update back onto the original record for the caller
func (c *Client) putUser(user User, update userUpdate) (User, error) {
	updated := user
	updated.FirstName = update.FirstName
	updated.LastName = update.LastName
	updated.Role = update.Role
	updated.Status = update.Status
	updated.ProjectId = update.ProjectId
	if c.DryRun {
		return updated, nil
	}

	body, err := c.put(fmt.Sprintf("api/users/%s", update.Uid), update)
	if err != nil {
		return User{}, err
	}
	// the platform echoes the stored record (with a bumped revision counter)
	if len(body) > 0 {
		err = json.Unmarshal(body, &updated)
	}
	return updated, err
}

// reports whether two membership lists contain the same set of project ids
// (order-independent)
func sameIdSet(before, after []string) bool {
	a := slices.Clone(before)
	b := slices.Clone(after)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
