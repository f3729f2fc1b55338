package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Jansmig/magmamath/pkg/models"
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

type apiResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
	Meta    *models.PageMeta `json:"meta,omitempty"`
}

func (s *shell) call(method, path string, body any) (int, apiResponse, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, apiResponse{}, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.userAPI+path, reader)
	if err != nil {
		return 0, apiResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, apiResponse{}, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return resp.StatusCode, apiResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, out, nil
}

func (s *shell) userRequest(method, path string, body any) {
	status, resp, err := s.call(method, path, body)
	if err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}
	if !resp.Success {
		fmt.Printf("  %s[x] %d%s %s\n", Red, status, Reset, resp.Message)
		return
	}

	var u models.User
	if err := json.Unmarshal(resp.Data, &u); err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}
	fmt.Printf("  %s[ok]%s %s\n", Green, Reset, resp.Message)
	printUser(u)
}

func (s *shell) createUser(name, email string) {
	s.userRequest(http.MethodPost, "/users", models.CreateUserRequest{Name: name, Email: email})
}

func (s *shell) getUser(id string) {
	s.userRequest(http.MethodGet, "/users/"+url.PathEscape(id), nil)
}

func (s *shell) updateUser(id, field, value string) {
	var req models.UpdateUserRequest
	switch field {
	case "name":
		req.Name = &value
	case "email":
		req.Email = &value
	default:
		usage("update-user <id> name|email <value>")
		return
	}
	s.userRequest(http.MethodPatch, "/users/"+url.PathEscape(id), req)
}

func (s *shell) deleteUser(id string) {
	s.userRequest(http.MethodDelete, "/users/"+url.PathEscape(id), nil)
}

func (s *shell) listUsers(args []string) {
	q := url.Values{}
	if len(args) > 0 {
		q.Set("page", args[0])
	}
	if len(args) > 1 {
		q.Set("limit", args[1])
	}
	path := "/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	status, resp, err := s.call(http.MethodGet, path, nil)
	if err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}
	if !resp.Success {
		fmt.Printf("  %s[x] %d%s %s\n", Red, status, Reset, resp.Message)
		return
	}

	var list []models.User
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		fmt.Printf("  %s[x] %v%s\n", Red, err, Reset)
		return
	}

	fmt.Printf("  %s%-26s %-20s %-30s %s%s\n", Bold, "ID", "NAME", "EMAIL", "CREATED", Reset)
	for _, u := range list {
		fmt.Printf("  %-26s %-20s %-30s %s\n", u.ID, u.Name, u.Email, u.CreatedAt.Format(time.RFC3339))
	}
	if m := resp.Meta; m != nil {
		fmt.Printf("  %spage %d/%d, %d total%s\n", Dim, m.Page, m.TotalPages, m.Total, Reset)
	}
}

func printUser(u models.User) {
	fmt.Printf("  %sid:%s      %s\n", Dim, Reset, u.ID)
	fmt.Printf("  %sname:%s    %s\n", Dim, Reset, u.Name)
	fmt.Printf("  %semail:%s   %s\n", Dim, Reset, u.Email)
	fmt.Printf("  %screated:%s %s\n", Dim, Reset, u.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  %supdated:%s %s\n", Dim, Reset, u.UpdatedAt.Format(time.RFC3339))
}
