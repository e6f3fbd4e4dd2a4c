// Package client is a typed Go client for the TaskHub REST API.
//
// The client holds no credentials. Every protected call takes the bearer
// token explicitly, so one Client can serve any number of users.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/project"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"requestId"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("taskhub: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// StatusCode returns the HTTP status of err if it is an *APIError, else 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Token   string `json:"token"`
	Results *int   `json:"results"`
	Data    T      `json:"data"`
}

type AuthResult struct {
	Token string
	User  user.User
}

type userData struct {
	User user.User `json:"user"`
}

type taskData struct {
	Task task.Task `json:"task"`
}

type tasksData struct {
	Tasks []task.Task `json:"tasks"`
}

type projectData struct {
	Project project.Project `json:"project"`
}

type projectsData struct {
	Projects []project.Project `json:"projects"`
}

// Auth

func (c *Client) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	var out envelope[userData]
	err := c.do(ctx, http.MethodPost, "/api/auth/register", "", user.RegisterRequest{Name: name, Email: email, Password: password}, &out)
	return AuthResult{Token: out.Token, User: out.Data.User}, err
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out envelope[userData]
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", user.LoginRequest{Email: email, Password: password}, &out)
	return AuthResult{Token: out.Token, User: out.Data.User}, err
}

func (c *Client) Me(ctx context.Context, token string) (user.User, error) {
	var out envelope[userData]
	err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &out)
	return out.Data.User, err
}

func (c *Client) UpdateMe(ctx context.Context, token string, req user.UpdateProfileRequest) (user.User, error) {
	var out envelope[userData]
	err := c.do(ctx, http.MethodPatch, "/api/auth/me", token, req, &out)
	return out.Data.User, err
}

// Tasks

func (c *Client) ListTasks(ctx context.Context, token string, filters task.ListTasksFilter) ([]task.Task, error) {
	q := url.Values{}
	if filters.Status != nil {
		q.Set("status", string(*filters.Status))
	}
	if filters.Priority != nil {
		q.Set("priority", string(*filters.Priority))
	}
	if filters.ProjectID != nil {
		q.Set("project", *filters.ProjectID)
	}
	if filters.Tag != nil {
		q.Set("tag", *filters.Tag)
	}

	path := "/api/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out envelope[tasksData]
	err := c.do(ctx, http.MethodGet, path, token, nil, &out)
	return out.Data.Tasks, err
}

func (c *Client) GetTask(ctx context.Context, token, id string) (task.Task, error) {
	var out envelope[taskData]
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), token, nil, &out)
	return out.Data.Task, err
}

func (c *Client) CreateTask(ctx context.Context, token string, req task.CreateTaskRequest) (task.Task, error) {
	var out envelope[taskData]
	err := c.do(ctx, http.MethodPost, "/api/tasks", token, req, &out)
	return out.Data.Task, err
}

func (c *Client) UpdateTask(ctx context.Context, token, id string, req task.UpdateTaskRequest) (task.Task, error) {
	var out envelope[taskData]
	err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), token, req, &out)
	return out.Data.Task, err
}

func (c *Client) DeleteTask(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), token, nil, nil)
}

// Projects

func (c *Client) ListProjects(ctx context.Context, token string) ([]project.Project, error) {
	var out envelope[projectsData]
	err := c.do(ctx, http.MethodGet, "/api/projects", token, nil, &out)
	return out.Data.Projects, err
}

func (c *Client) GetProject(ctx context.Context, token, id string) (project.Project, error) {
	var out envelope[projectData]
	err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(id), token, nil, &out)
	return out.Data.Project, err
}

func (c *Client) CreateProject(ctx context.Context, token string, req project.CreateProjectRequest) (project.Project, error) {
	var out envelope[projectData]
	err := c.do(ctx, http.MethodPost, "/api/projects", token, req, &out)
	return out.Data.Project, err
}

func (c *Client) UpdateProject(ctx context.Context, token, id string, req project.UpdateProjectRequest) (project.Project, error) {
	var out envelope[projectData]
	err := c.do(ctx, http.MethodPatch, "/api/projects/"+url.PathEscape(id), token, req, &out)
	return out.Data.Project, err
}

func (c *Client) DeleteProject(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+url.PathEscape(id), token, nil, nil)
}

func (c *Client) ProjectTasks(ctx context.Context, token, id string) ([]task.Task, error) {
	var out envelope[tasksData]
	err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(id)+"/tasks", token, nil, &out)
	return out.Data.Tasks, err
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader

	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		// the body may carry its own copy; the transport status wins
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
