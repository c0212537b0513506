// Package remote implements repository.WorkoutRepository by calling another
// workout server over HTTP. It keeps no state of its own.
package remote

import (
	"alcyxob/workout-cards/internal/domain"
	"alcyxob/workout-cards/internal/logger"
	"alcyxob/workout-cards/internal/repository"
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
)

const defaultTimeout = 30 * time.Second

type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// StatusError is returned for any response the contract has no outcome for.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("workout server http %d: %s", e.StatusCode, msg)
}

var _ repository.WorkoutRepository = (*Client)(nil)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func New(cfg Config, log *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("remote store requires a base URL")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if log == nil {
		log = logger.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		log:        log.With("backend", "remote"),
	}, nil
}

func workoutsPath(username string, id ...string) string {
	p := "/workouts/" + url.PathEscape(username)
	for _, s := range id {
		p += "/" + url.PathEscape(s)
	}
	return p
}

func (c *Client) List(ctx context.Context, username string) ([]domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}
	var out []domain.Workout
	status, err := c.do(ctx, http.MethodGet, workoutsPath(username), nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &StatusError{StatusCode: status}
	}
	if out == nil {
		out = []domain.Workout{}
	}
	for i := range out {
		out[i].Normalize()
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, username, id string) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}
	w, err := c.workout(ctx, http.MethodGet, workoutsPath(username, id), nil, id)
	if err != nil {
		return nil, notFound(err)
	}
	return w, nil
}

func (c *Client) Create(ctx context.Context, username string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKey(username); err != nil {
		return nil, err
	}
	return c.workout(ctx, http.MethodPost, workoutsPath(username), draft, "")
}

func (c *Client) Update(ctx context.Context, username, id string, draft *domain.Workout) (*domain.Workout, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return nil, err
	}
	w, err := c.workout(ctx, http.MethodPut, workoutsPath(username, id), draft, id)
	if err != nil {
		return nil, notFound(err)
	}
	return w, nil
}

// workout performs a single item request. A body that decodes to no
// workout, or to one with another id than wantID, is a failure.
func (c *Client) workout(ctx context.Context, method, path string, body any, wantID string) (*domain.Workout, error) {
	var w *domain.Workout
	if _, err := c.do(ctx, method, path, body, &w); err != nil {
		return nil, err
	}
	switch {
	case w == nil || w.ID == "":
		return nil, fmt.Errorf("decode response of %s %s: missing id", method, path)
	case wantID != "" && w.ID != wantID:
		return nil, fmt.Errorf("decode response of %s %s: got workout %q, want %q", method, path, w.ID, wantID)
	}
	w.Normalize()
	return w, nil
}

func (c *Client) Delete(ctx context.Context, username, id string) (bool, error) {
	if err := repository.ValidateKeys(username, id); err != nil {
		return false, err
	}
	_, err := c.do(ctx, http.MethodDelete, workoutsPath(username, id), nil, nil)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// notFound turns a 404 from a single item endpoint into ErrNotFound.
func notFound(err error) error {
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return repository.ErrNotFound
	}
	return err
}

type errorResponse struct {
	Error string `json:"error"`
}

// do sends body as JSON and decodes a 2xx response into out. Non 2xx
// responses come back as *StatusError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response of %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &er) == nil && er.Error != "" {
			msg = er.Error
		}
		if resp.StatusCode >= 500 {
			c.log.Warn("workout server error", "method", method, "path", path, "status", resp.StatusCode)
		}
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if len(bytes.TrimSpace(raw)) == 0 {
			return resp.StatusCode, fmt.Errorf("decode response of %s %s: empty body", method, path)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response of %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}
