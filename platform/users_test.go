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

func TestAddFederatedUserLowercasesEmail(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	created, err := client.AddFederatedUser("idpX", "https://idpx.example.org/saml",
		"Mixed.Case@Example.ORG", "")
	assert.Nil(err, "Creating a federated user encountered an error")
	assert.Equal("mixed.case@example.org", created.Email)
	assert.Equal("mixed.case@example.org", created.Username)
	assert.Equal("researcher", created.Role, "An empty role wasn't defaulted")
	assert.Equal([]string{}, created.ProjectId,
		"A new federated user didn't start with an empty project list")
	assert.True(created.IsExternalUser)
	assert.NotEqual("", created.Uid, "The platform didn't assign a uid")
}

func TestAddFederatedUserDryRun(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)
	client.DryRun = true

	payload, err := client.AddFederatedUser("idpX", "https://idpx.example.org/saml",
		"New.User@Example.ORG", "admin")
	assert.Nil(err)
	assert.Equal("new.user@example.org", payload.Email)
	assert.Equal("admin", payload.Role)
	assert.Equal("", payload.Uid, "A dry run somehow reached the platform")
	assert.Equal(0, server.WriteCount(), "A dry run issued a write request")
}

func TestGetUserByEmailAndIdp(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	user, err := client.GetUserByEmailAndIdp("rex@example.org", "idpX")
	assert.Nil(err, "User lookup encountered an error")
	assert.Equal("u-2", user.Uid)

	// matching is case-sensitive
	_, err = client.GetUserByEmailAndIdp("Rex@example.org", "idpX")
	assert.IsType(&UserNotFoundError{}, err)
}

func TestGetUserByEmailAndIdpNotFound(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	_, err := client.GetUserByEmailAndIdp("a@b.com", "idpX")
	assert.NotNil(err, "A missing user triggered no error")
	assert.Contains(err.Error(), "a@b.com")
	assert.Contains(err.Error(), "idpX")
}

func TestGetUserByEmailAndIdpWithEmptyCollection(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	server.Users = nil // the platform has no users at all
	defer server.Close()

	client, _ := NewClient(server.URL(), testUsername, testPassword)
	client.token = testToken // no profile to log in against, so set the session directly
	_, err := client.GetUserByEmailAndIdp("a@b.com", "idpX")
	assert.IsType(&UserNotFoundError{}, err,
		"An empty collection wasn't treated as the normal not-found case")
}

func TestUpdateUserDetails(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	updated, err := client.UpdateUserDetails("u-2", "Rexford", "Researcher",
		"inactive", "admin")
	assert.Nil(err, "Updating user details encountered an error")
	assert.Equal("Rexford", updated.FirstName)
	assert.Equal("inactive", updated.Status)
	assert.Equal("admin", updated.Role)
	// non-editable fields are preserved
	assert.Equal("rex@example.org", updated.Email)
	assert.Equal("genomics collaboration", updated.ApplyReason)
	assert.True(updated.IsExternalUser)
	assert.Equal([]string{"alpha", "beta"}, updated.ProjectId)
	assert.Equal(8, updated.Rev, "The platform didn't bump the revision counter")
}

func TestUpdateUserDetailsNotFound(t *testing.T) {
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	_, err := client.UpdateUserDetails("no-such-uid", "A", "B", "active", "researcher")
	assert.IsType(t, &UserNotFoundError{}, err)
	assert.Contains(t, err.Error(), "no-such-uid")
}

func TestUpdateUserDetailsDryRun(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)
	client.DryRun = true

	payload, err := client.UpdateUserDetails("u-2", "Rexford", "Researcher",
		"inactive", "admin")
	assert.Nil(err)
	assert.Equal("Rexford", payload.FirstName)
	assert.Equal(7, payload.Rev, "The dry-run payload didn't carry the original revision")
	assert.Equal(0, server.WriteCount(), "A dry run issued a write request")
}

func TestAddProjectUser(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	updated, err := client.AddRemoveProjectUser("gamma", "u-2", "add")
	assert.Nil(err, "Adding a project member encountered an error")
	assert.Equal([]string{"alpha", "beta", "gamma"}, updated.ProjectId)
	assert.Equal(1, server.WriteCount())
}

func TestAddProjectUserIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	// u-2 is already a member of beta: no write, and the original record
	// comes back untouched
	original, err := client.AddRemoveProjectUser("beta", "u-2", "add")
	assert.Nil(err, "A redundant membership add encountered an error")
	assert.Equal([]string{"alpha", "beta"}, original.ProjectId)
	assert.Equal(7, original.Rev, "A redundant add didn't return the original record")
	assert.Equal(0, server.WriteCount(), "A redundant membership add issued a write")

	// and again, for good measure
	original, err = client.AddRemoveProjectUser("beta", "u-2", "add")
	assert.Nil(err)
	assert.Equal([]string{"alpha", "beta"}, original.ProjectId)
	assert.Equal(0, server.WriteCount())
}

func TestProjectAppearsAtMostOnce(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	// seed a record that already carries a duplicate membership
	server.Users[1].ProjectId = []string{"alpha", "beta", "beta"}
	defer server.Close()
	client := loggedInClient(t, server)

	updated, err := client.AddRemoveProjectUser("beta", "u-2", "add")
	assert.Nil(err)
	occurrences := 0
	for _, id := range updated.ProjectId {
		if id == "beta" {
			occurrences++
		}
	}
	assert.Equal(1, occurrences, "The project appears more than once after an add")
}

func TestRemoveProjectUser(t *testing.T) {
	assert := assert.New(t)
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	updated, err := client.AddRemoveProjectUser("beta", "u-2", "remove")
	assert.Nil(err, "Removing a project member encountered an error")
	assert.Equal([]string{"alpha"}, updated.ProjectId)

	// removing a non-member changes nothing and issues no further write
	writes := server.WriteCount()
	_, err = client.AddRemoveProjectUser("beta", "u-2", "remove")
	assert.Nil(err)
	assert.Equal(writes, server.WriteCount(),
		"A redundant membership removal issued a write")
}

func TestAddRemoveProjectUserNotFound(t *testing.T) {
	server := startFixture()
	defer server.Close()
	client := loggedInClient(t, server)

	_, err := client.AddRemoveProjectUser("beta", "no-such-uid", "add")
	assert.IsType(t, &UserNotFoundError{}, err)
	assert.Contains(t, err.Error(), "beta")
	assert.Contains(t, err.Error(), "add")
}
