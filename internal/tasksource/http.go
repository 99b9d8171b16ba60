package tasksource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Jayphen/taskboard/internal/types"
)

// DefaultTimeout bounds each request to the remote store.
const DefaultTimeout = 30 * time.Second

// HTTPConfig holds configuration for the remote REST store.
type HTTPConfig struct {
	BaseURL string        // e.g. https://tasks.example.com
	Token   string        // Bearer token (or read from TASKBOARD_API_TOKEN)
	Timeout time.Duration // Per-request timeout, DefaultTimeout when zero
	Client  *http.Client  // Optional, overrides Timeout
}

// HTTPStore implements Store against the remote task API:
//
//	GET    /api/tasks?workspaceId=W  -> {"tasks": [...]}
//	GET    /api/tasks/{id}           -> task
//	POST   /api/tasks                -> task
//	PATCH  /api/tasks/{id}           -> task
//	DELETE /api/tasks/{id}           -> 204
type HTTPStore struct {
	base   *url.URL
	token  string
	client *http.Client
	info   SourceInfo
}

// NewHTTPStore creates a client for the store at cfg.BaseURL.
func NewHTTPStore(cfg HTTPConfig) (*HTTPStore, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: http store requires 'url' parameter", ErrInvalidConfig)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid store url %q", ErrInvalidConfig, cfg.BaseURL)
	}

	token := cfg.Token
	if token == "" {
		token = os.Getenv("TASKBOARD_API_TOKEN")
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPStore{
		base:   base,
		token:  token,
		client: client,
		info: SourceInfo{
			Type:        SourceTypeHTTP,
			Name:        base.Host,
			Description: fmt.Sprintf("Remote task store at %s", base.String()),
			Config: Metadata{
				"url":  base.String(),
				"auth": token != "",
			},
		},
	}, nil
}

// Info returns metadata about this store.
func (s *HTTPStore) Info() SourceInfo {
	return s.info
}

// ListTasks fetches the task collection for a workspace.
func (s *HTTPStore) ListTasks(ctx context.Context, workspaceID string) ([]types.Task, error) {
	q := url.Values{}
	if workspaceID != "" {
		q.Set("workspaceId", workspaceID)
	}

	body, err := s.do(ctx, http.MethodGet, "/api/tasks", q, nil)
	if err != nil {
		return nil, err
	}

	// Accept both {"tasks": [...]} and a bare array.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var tasks []types.Task
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("failed to parse task list: %w", err)
		}
		return tasks, nil
	}

	var result struct {
		Tasks []types.Task `json:"tasks"`
	}
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, fmt.Errorf("failed to parse task list: %w", err)
	}
	if result.Tasks == nil {
		result.Tasks = []types.Task{}
	}
	return result.Tasks, nil
}

// GetTask fetches one task.
func (s *HTTPStore) GetTask(ctx context.Context, id string) (types.Task, error) {
	body, err := s.do(ctx, http.MethodGet, taskPath(id), nil, nil)
	if err != nil {
		return types.Task{}, err
	}
	return decodeTask(body)
}

// CreateTask posts a draft and returns the stored record.
func (s *HTTPStore) CreateTask(ctx context.Context, draft types.Task) (types.Task, error) {
	body, err := s.do(ctx, http.MethodPost, "/api/tasks", nil, draft)
	if err != nil {
		return types.Task{}, err
	}
	return decodeTask(body)
}

// UpdateTask sends only the fields set in update.
func (s *HTTPStore) UpdateTask(ctx context.Context, id string, update types.TaskUpdate) (types.Task, error) {
	body, err := s.do(ctx, http.MethodPatch, taskPath(id), nil, update)
	if err != nil {
		return types.Task{}, err
	}
	return decodeTask(body)
}

// DeleteTask deletes a task.
func (s *HTTPStore) DeleteTask(ctx context.Context, id string) error {
	_, err := s.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
	return err
}

// Close releases idle connections.
func (s *HTTPStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func taskPath(id string) string {
	return "/api/tasks/" + url.PathEscape(id)
}

func decodeTask(body []byte) (types.Task, error) {
	var t types.Task
	if err := json.Unmarshal(body, &t); err != nil {
		return types.Task{}, fmt.Errorf("failed to parse task: %w", err)
	}
	return t, nil
}

// do executes a request and returns the response body for 2xx statuses.
func (s *HTTPStore) do(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	u := *s.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrTaskNotFound, method, path)
	case resp.StatusCode == http.StatusMethodNotAllowed:
		return nil, fmt.Errorf("%w: %s %s", ErrNotSupported, method, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}
