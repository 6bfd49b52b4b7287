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

package rwptest

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// records every request received by the fixture
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mutex.Lock()
		s.Requests = append(s.Requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
		})
		s.mutex.Unlock()
		next.ServeHTTP(w, r)
	})
}

// rejects requests that don't carry the issued session token verbatim in
// their Authorization header
func (s *Server) checkToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != s.Token {
			writeJson(w, http.StatusUnauthorized,
				map[string]string{"message": "invalid or missing session token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var credential struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credential); err != nil {
		writeJson(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	if credential.Provider != "internal" ||
		credential.Username != s.Username || credential.Password != s.Password {
		writeJson(w, http.StatusUnauthorized,
			map[string]string{"message": "invalid credentials"})
		return
	}
	writeJson(w, http.StatusOK, map[string]string{"idToken": s.Token})
}

func (s *Server) handleProviderConfigs(w http.ResponseWriter, r *http.Request) {
	providers := s.Providers
	if providers == nil {
		providers = []IdentityProvider{}
	}
	writeJson(w, http.StatusOK, providers)
}

// the profile endpoint answers with the user matching the login credential,
// falling back to the first fixture user
func (s *Server) handleSelf(w http.ResponseWriter, r *http.Request) {
	for _, user := range s.Users {
		if user.Username == s.Username {
			writeJson(w, http.StatusOK, user)
			return
		}
	}
	if len(s.Users) > 0 {
		writeJson(w, http.StatusOK, s.Users[0])
		return
	}
	writeJson(w, http.StatusNotFound, map[string]string{"message": "no such user"})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		users := s.Users
		if users == nil {
			users = []User{}
		}
		writeJson(w, http.StatusOK, users)
		return
	}

	var user User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		writeJson(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	user.Uid = uuid.New().String()
	user.Rev = 1
	s.Users = append(s.Users, user)
	writeJson(w, http.StatusCreated, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	var update User
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJson(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	for i, user := range s.Users {
		if user.Uid == uid {
			if update.Rev != user.Rev {
				writeJson(w, http.StatusConflict,
					map[string]string{"message": "revision mismatch"})
				return
			}
			user.FirstName = update.FirstName
			user.LastName = update.LastName
			user.Status = update.Status
			user.Role = update.Role
			user.ProjectId = update.ProjectId
			user.Rev++
			s.Users[i] = user
			writeJson(w, http.StatusOK, user)
			return
		}
	}
	writeJson(w, http.StatusNotFound, map[string]string{"message": "no such user"})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		projects := s.Projects
		if projects == nil {
			projects = []Project{}
		}
		writeJson(w, http.StatusOK, projects)
		return
	}

	var project Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		writeJson(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	project.Rev = 1
	s.Projects = append(s.Projects, project)
	writeJson(w, http.StatusCreated, project)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for i, project := range s.Projects {
		if project.ProjectId == id {
			if r.Method == http.MethodGet {
				writeJson(w, http.StatusOK, project)
				return
			}
			var update Project
			if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
				writeJson(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
				return
			}
			update.Rev = project.Rev + 1
			s.Projects[i] = update
			writeJson(w, http.StatusOK, update)
			return
		}
	}
	writeJson(w, http.StatusNotFound, map[string]string{"message": "no such project"})
}

func (s *Server) handleStudies(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	studies := make([]Study, 0)
	for _, study := range s.Studies {
		if category == "" || study.Category == category {
			studies = append(studies, study)
		}
	}
	writeJson(w, http.StatusOK, studies)
}

func (s *Server) handleCreateStudy(w http.ResponseWriter, r *http.Request) {
	var study Study
	if err := json.NewDecoder(r.Body).Decode(&study); err != nil {
		writeJson(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	study.Rev = 1
	s.Studies = append(s.Studies, study)
	s.Permissions[study.Id] = &StudyPermissions{
		Id:            study.Id,
		AdminUsers:    []string{},
		ReadonlyUsers: []string{},
	}
	writeJson(w, http.StatusCreated, study)
}

func (s *Server) handleStudy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, study := range s.Studies {
		if study.Id == id {
			writeJson(w, http.StatusOK, study)
			return
		}
	}
	writeJson(w, http.StatusNotFound, map[string]string{"message": "no such study"})
}

func (s *Server) handleStudyPermissions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	permissions, found := s.Permissions[id]
	if !found {
		writeJson(w, http.StatusNotFound, map[string]string{"message": "no such study"})
		return
	}
	if r.Method == http.MethodGet {
		writeJson(w, http.StatusOK, permissions)
		return
	}

	// the platform can answer a permission update with an embedded error in
	// an otherwise successful response
	if s.PermissionErrorCode != "" {
		writeJson(w, http.StatusOK, map[string]string{
			"errorCode": s.PermissionErrorCode,
			"message":   s.PermissionErrorMessage,
		})
		return
	}

	var update struct {
		UsersToAdd []struct {
			Uid             string `json:"uid"`
			PermissionLevel string `json:"permissionLevel"`
		} `json:"usersToAdd"`
		UsersToRemove []struct {
			Uid             string `json:"uid"`
			PermissionLevel string `json:"permissionLevel"`
		} `json:"usersToRemove"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJson(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	for _, user := range update.UsersToRemove {
		if user.PermissionLevel == "admin" {
			permissions.AdminUsers = slices.DeleteFunc(permissions.AdminUsers,
				func(uid string) bool { return uid == user.Uid })
		} else {
			permissions.ReadonlyUsers = slices.DeleteFunc(permissions.ReadonlyUsers,
				func(uid string) bool { return uid == user.Uid })
		}
	}
	for _, user := range update.UsersToAdd {
		if user.PermissionLevel == "admin" {
			if !slices.Contains(permissions.AdminUsers, user.Uid) {
				permissions.AdminUsers = append(permissions.AdminUsers, user.Uid)
			}
		} else {
			if !slices.Contains(permissions.ReadonlyUsers, user.Uid) {
				permissions.ReadonlyUsers = append(permissions.ReadonlyUsers, user.Uid)
			}
		}
	}
	writeJson(w, http.StatusOK, permissions)
}

func (s *Server) handleWorkspaceTypes(w http.ResponseWriter, r *http.Request) {
	types := s.WorkspaceTypes
	if types == nil {
		types = []WorkspaceType{}
	}
	writeJson(w, http.StatusOK, types)
}

func (s *Server) handleConfigurations(w http.ResponseWriter, r *http.Request) {
	typeID := mux.Vars(r)["type"]
	configurations := s.Configurations[typeID]
	if configurations == nil {
		configurations = []map[string]any{}
	}
	writeJson(w, http.StatusOK, configurations)
}

func (s *Server) handleUpdateConfiguration(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	typeID, id := vars["type"], vars["id"]
	var update map[string]any
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJson(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	for i, configuration := range s.Configurations[typeID] {
		if configuration["id"] == id {
			s.Configurations[typeID][i] = update
			writeJson(w, http.StatusOK, update)
			return
		}
	}
	writeJson(w, http.StatusNotFound, map[string]string{"message": "no such configuration"})
}
