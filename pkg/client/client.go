package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when the admin API does not know the requested interaction.
var ErrNotFound = errors.New("not found")

// ErrTimeout is returned when waiting for an interaction times out.
var ErrTimeout = errors.New("timeout waiting for interaction")

// Client calls the pact-core admin API.
type Client struct {
	client http.Client
	url    string
}

func New(url string) *Client {
	return &Client{
		client: http.Client{
			Timeout: 30 * time.Second,
		},
		url: strings.TrimSuffix(url, "/"),
	}
}

func (c *Client) IsReady() error {
	res, err := c.client.Get(c.url + "/ready")
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return errors.Errorf("admin API is not ready: %d", res.StatusCode)
	}
	return nil
}

// WaitReady polls the readiness endpoint until it succeeds or ctx is done.
func (c *Client) WaitReady(ctx context.Context, delay time.Duration) error {
	return retry.Do(c.IsReady,
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

// LoadPact registers every interaction of the contract file.
func (c *Client) LoadPact(pact []byte) (PactSummary, error) {
	var summary PactSummary
	err := c.do(http.MethodPost, "/pacts", bytes.NewReader(pact), http.StatusCreated, &summary)
	return summary, err
}

// Convert re-encodes the contract file as the given specification version, e.g. `3.0.0`.
// An empty version uses the server default.
func (c *Client) Convert(pact []byte, version string) ([]byte, error) {
	path := "/pacts/convert"
	if version != "" {
		path += "?" + url.Values{"version": {version}}.Encode()
	}
	var out json.RawMessage
	if err := c.do(http.MethodPost, path, bytes.NewReader(pact), http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Interactions() ([]InteractionSummary, error) {
	var summaries []InteractionSummary
	err := c.do(http.MethodGet, "/interactions", nil, http.StatusOK, &summaries)
	return summaries, err
}

// Interaction returns the V4 JSON form of the interaction with the given key or
// description.
func (c *Client) Interaction(keyOrDescription string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(http.MethodGet, "/interactions/"+url.PathEscape(keyOrDescription), nil, http.StatusOK, &out)
	return out, err
}

func (c *Client) DeleteInteractions() error {
	return c.do(http.MethodDelete, "/interactions", nil, http.StatusNoContent, nil)
}

// WaitForInteraction blocks until the interaction is registered or timeout elapses.
func (c *Client) WaitForInteraction(keyOrDescription string, timeout time.Duration) (InteractionSummary, error) {
	q := url.Values{}
	q.Add("interaction", keyOrDescription)
	if timeout > 0 {
		q.Add("timeout", timeout.String())
	}

	var summary InteractionSummary
	err := c.do(http.MethodGet, "/interactions/wait?"+q.Encode(), nil, http.StatusOK, &summary)
	return summary, err
}

func (c *Client) Match(req MatchRequest) (MatchResponse, error) {
	var resp MatchResponse
	err := c.postJSON("/match", req, &resp)
	return resp, err
}

func (c *Client) Generate(req GenerateRequest) (GenerateResponse, error) {
	var resp GenerateResponse
	err := c.postJSON("/generate", req, &resp)
	return resp, err
}

func (c *Client) postJSON(path string, body, out interface{}) error {
	content, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}
	return c.do(http.MethodPost, path, bytes.NewReader(content), http.StatusOK, out)
}

func (c *Client) do(method, path string, body io.Reader, expected int, out interface{}) error {
	req, err := http.NewRequest(method, c.url+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if res.StatusCode != expected {
		return responseError(res.StatusCode, responseBody)
	}
	if out == nil || len(responseBody) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(responseBody, out), "failed to decode response")
}

func responseError(status int, body []byte) error {
	var apiErr struct {
		ErrorMessage string   `json:"error_message"`
		Errors       []string `json:"errors"`
	}
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &apiErr) == nil && apiErr.ErrorMessage != "" {
		message = apiErr.ErrorMessage
	}

	switch status {
	case http.StatusNotFound:
		return errors.Wrap(ErrNotFound, message)
	case http.StatusRequestTimeout:
		return errors.Wrap(ErrTimeout, message)
	}
	return fmt.Errorf("%d: %s", status, message)
}
