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

// This package contains testing utilities for the workspace platform client:
// a stand-in for the platform's administrative API that keeps its state in
// memory and logs every request it receives. The record types here are
// deliberately independent of the platform package so that its own tests can
// use these fixtures.
package rwptest

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

// Enables DEBUG log messages for the client's structured log (slog).
func EnableDebugLogging() {
	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelDebug)
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
}

//---------------------------------
// Wire-shaped platform record types
//---------------------------------

type User struct {
	Uid            string   `json:"uid,omitempty"`
	Username       string   `json:"username,omitempty"`
	Email          string   `json:"email"`
	FirstName      string   `json:"firstName,omitempty"`
	LastName       string   `json:"lastName,omitempty"`
	Role           string   `json:"role"`
	Status         string   `json:"status,omitempty"`
	IsAdmin        bool     `json:"isAdmin"`
	IsExternalUser bool     `json:"isExternalUser"`
	ApplyReason    string   `json:"applyReason,omitempty"`
	IdpName        string   `json:"identityProviderName,omitempty"`
	FederationUrl  string   `json:"federationUrl,omitempty"`
	ProjectId      []string `json:"projectId"`
	Rev            int      `json:"rev,omitempty"`
}

type Project struct {
	ProjectId     string   `json:"projectId"`
	Description   string   `json:"description,omitempty"`
	IndexId       string   `json:"indexId,omitempty"`
	ProjectAdmins []string `json:"projectAdmins"`
	Rev           int      `json:"rev,omitempty"`
}

type Study struct {
	Id            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	ProjectId     []string          `json:"projectId"`
	StudyType     string            `json:"studyType"`
	Category      string            `json:"category"`
	UploadEnabled bool              `json:"uploadEnabled"`
	Permissions   *StudyPermissions `json:"permissions,omitempty"`
	Rev           int               `json:"rev,omitempty"`
}

type StudyPermissions struct {
	Id            string   `json:"id,omitempty"`
	AdminUsers    []string `json:"adminUsers"`
	ReadonlyUsers []string `json:"readonlyUsers"`
}

type IdentityProvider struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	FederationUrl string `json:"federationUrl,omitempty"`
	Enabled       bool   `json:"enabled,omitempty"`
}

type WorkspaceType struct {
	Id          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Rev         int    `json:"rev,omitempty"`
}

//---------------------
// Platform API fixture
//---------------------

// a request received by the fixture, for assertions about client traffic
type Request struct {
	Method string
	Path   string
	Query  string
}

// This type implements an in-memory stand-in for the workspace platform's
// administrative API. Fields are exported so tests can seed and inspect
// fixture state directly.
type Server struct {
	// credential accepted by the login endpoint, and the token it issues
	Username, Password, Token string
	// fixture state served by the API
	Users          []User
	Projects       []Project
	Studies        []Study
	Permissions    map[string]*StudyPermissions
	Providers      []IdentityProvider
	WorkspaceTypes []WorkspaceType
	Configurations map[string][]map[string]any
	// when set, permission updates answer 200 with this embedded error code
	PermissionErrorCode, PermissionErrorMessage string
	// every request received, in order
	Requests []Request

	mutex      sync.Mutex
	nextUid    int
	httpServer *httptest.Server
}

// Creates and starts a platform API fixture that accepts the given login
// credential and issues the given session token. Close it when you're done.
func NewServer(username, password, token string) *Server {
	server := &Server{
		Username:       username,
		Password:       password,
		Token:          token,
		Permissions:    make(map[string]*StudyPermissions),
		Configurations: make(map[string][]map[string]any),
	}

	router := mux.NewRouter()
	router.Use(server.logRequests)

	router.HandleFunc("/api/authentication/id-tokens",
		server.handleLogin).Methods(http.MethodPost)
	router.HandleFunc("/api/authentication/public/provider/configs",
		server.handleProviderConfigs).Methods(http.MethodGet)

	authed := router.NewRoute().Subrouter()
	authed.Use(server.checkToken)
	authed.HandleFunc("/api/user", server.handleSelf).Methods(http.MethodGet)
	authed.HandleFunc("/api/users", server.handleUsers).Methods(http.MethodGet, http.MethodPost)
	authed.HandleFunc("/api/users/{uid}", server.handleUpdateUser).Methods(http.MethodPut)
	authed.HandleFunc("/api/projects", server.handleProjects).Methods(http.MethodGet, http.MethodPost)
	authed.HandleFunc("/api/projects/{id}", server.handleProject).Methods(http.MethodGet, http.MethodPut)
	authed.HandleFunc("/api/studies/", server.handleStudies).Methods(http.MethodGet)
	authed.HandleFunc("/api/studies", server.handleCreateStudy).Methods(http.MethodPost)
	authed.HandleFunc("/api/studies/{id}", server.handleStudy).Methods(http.MethodGet)
	authed.HandleFunc("/api/studies/{id}/permissions",
		server.handleStudyPermissions).Methods(http.MethodGet, http.MethodPut)
	authed.HandleFunc("/api/workspace-types",
		server.handleWorkspaceTypes).Methods(http.MethodGet)
	authed.HandleFunc("/api/workspace-types/{type}/configurations/",
		server.handleConfigurations).Methods(http.MethodGet)
	authed.HandleFunc("/api/workspace-types/{type}/configurations/{id}",
		server.handleUpdateConfiguration).Methods(http.MethodPut)

	server.httpServer = httptest.NewServer(router)
	return server
}

// returns the fixture's API origin, suitable for platform.NewClient
func (s *Server) URL() string {
	return s.httpServer.URL
}

func (s *Server) Close() {
	s.httpServer.Close()
}

// returns the number of write (POST/PUT) requests received by resource
// endpoints; authentication exchanges don't count
func (s *Server) WriteCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	count := 0
	for _, request := range s.Requests {
		if request.Method == http.MethodGet {
			continue
		}
		if strings.HasPrefix(request.Path, "/api/authentication/") {
			continue
		}
		count++
	}
	return count
}

// returns the requests received for the given path, in order
func (s *Server) RequestsFor(path string) []Request {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	requests := make([]Request, 0)
	for _, request := range s.Requests {
		if request.Path == path {
			requests = append(requests, request)
		}
	}
	return requests
}
