// Package client calls the Doorsense backend over its tRPC-compatible HTTP API.
//
// Several queries can share one round trip:
//
//	c := client.New("http://localhost:8080")
//	var users []user.User
//	var live entrance.LiveStats
//	err := c.Batch(ctx,
//		client.Call{Path: "getUsers", Out: &users},
//		client.Call{Path: "logs.getLiveStats", Out: &live},
//	)
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
	"strconv"
	"strings"
	"time"
)

// defaultTimeout bounds each HTTP request when no client is supplied.
const defaultTimeout = 10 * time.Second

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 4 << 20

// Client is a Doorsense API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// New creates a client for the backend at baseURL, for example
// http://localhost:8080. A trailing /trpc is accepted and ignored.
func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	base = strings.TrimSuffix(base, "/trpc")

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call is one procedure invocation within a batch.
type Call struct {
	Path string
	// Input is marshalled as the procedure input. Nil sends none.
	Input any
	// Out receives the decoded result data. Nil discards it.
	Out any
}

// RemoteError is a procedure failure reported by the server.
type RemoteError struct {
	Path       string
	Code       string
	HTTPStatus int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Path, e.Message, e.Code)
}

// IsNotFound reports whether err is a NOT_FOUND procedure error.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Code == "NOT_FOUND"
}

type envelope struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
		Data    struct {
			Code       string `json:"code"`
			HTTPStatus int    `json:"httpStatus"`
			Path       string `json:"path"`
		} `json:"data"`
	} `json:"error"`
}

// Query runs a single query procedure.
func (c *Client) Query(ctx context.Context, path string, input, out any) error {
	return c.single(ctx, http.MethodGet, path, input, out)
}

// Mutate runs a single mutation procedure.
func (c *Client) Mutate(ctx context.Context, path string, input, out any) error {
	return c.single(ctx, http.MethodPost, path, input, out)
}

func (c *Client) single(ctx context.Context, method, path string, input, out any) error {
	var raw []byte
	if input != nil {
		var err error
		if raw, err = json.Marshal(input); err != nil {
			return fmt.Errorf("encoding %s input: %w", path, err)
		}
	}

	endpoint := c.baseURL + "/trpc/" + path
	var body io.Reader
	if method == http.MethodGet {
		if raw != nil {
			endpoint += "?input=" + url.QueryEscape(string(raw))
		}
	} else if raw != nil {
		body = bytes.NewReader(raw)
	}

	data, err := c.do(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return decodeEnvelope(path, env, out)
}

// Batch runs several queries in one GET request. Calls succeed or fail
// independently; the returned error joins every failed call's error and
// the Out of each successful call is filled regardless.
func (c *Client) Batch(ctx context.Context, calls ...Call) error {
	if len(calls) == 0 {
		return nil
	}

	paths := make([]string, len(calls))
	inputs := make(map[string]any)
	for i, call := range calls {
		paths[i] = call.Path
		if call.Input != nil {
			inputs[strconv.Itoa(i)] = call.Input
		}
	}

	endpoint := c.baseURL + "/trpc/" + strings.Join(paths, ",") + "?batch=1"
	if len(inputs) > 0 {
		raw, err := json.Marshal(inputs)
		if err != nil {
			return fmt.Errorf("encoding batch input: %w", err)
		}
		endpoint += "&input=" + url.QueryEscape(string(raw))
	}

	data, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("calling batch: %w", err)
	}

	var envs []envelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return fmt.Errorf("decoding batch response: %w", err)
	}
	if len(envs) != len(calls) {
		return fmt.Errorf("batch returned %d results for %d calls", len(envs), len(calls))
	}

	var errs []error
	for i, call := range calls {
		if err := decodeEnvelope(call.Path, envs[i], call.Out); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// do sends a request and returns the body. Non-2xx statuses are not errors
// here; the envelope carries the failure.
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

func decodeEnvelope(path string, env envelope, out any) error {
	if env.Error != nil {
		p := env.Error.Data.Path
		if p == "" {
			p = path
		}
		return &RemoteError{
			Path:       p,
			Code:       env.Error.Data.Code,
			HTTPStatus: env.Error.Data.HTTPStatus,
			Message:    env.Error.Message,
		}
	}
	if env.Result == nil {
		return fmt.Errorf("%s: response has neither result nor error", path)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result.Data, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", path, err)
	}
	return nil
}
