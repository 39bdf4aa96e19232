// internal/completion/openai/client.go
// Package openai provides a completion.Client backed by OpenAI-compatible
// chat-completions HTTP endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/canonry/internal/completion"
	"github.com/mwiater/canonry/internal/logging"
)

const completionsPath = "/v1/chat/completions"

// Client implements the completion.Client interface over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
	debug   bool
	run     string
}

// New constructs a Client for the given endpoint and key. The run identifier
// tags every debug log line so traffic can be correlated with the run's
// exports.
func New(baseURL, apiKey string, timeout time.Duration, debug bool, run string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
		debug:   debug,
		run:     run,
	}
}

// Complete sends one chat-completion request and decodes the reply. Network
// errors, timeouts, and non-2xx statuses wrap completion.ErrTransport so the
// orchestrator can classify them uniformly.
func (c *Client) Complete(ctx context.Context, req completion.Request) (completion.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return completion.Response{}, fmt.Errorf("openai: encode request: %w", err)
	}

	if c.debug {
		logging.LogRequest("CANONRY->LLM", c.baseURL, req.Model, c.run, body)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + completionsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return completion.Response{}, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return completion.Response{}, fmt.Errorf("%w: %v", completion.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion.Response{}, fmt.Errorf("%w: reading response body: %v", completion.ErrTransport, err)
	}

	if c.debug {
		logging.LogRequest("LLM->CANONRY", c.baseURL, req.Model, c.run, respBody)
	}

	if resp.StatusCode != http.StatusOK {
		return completion.Response{}, fmt.Errorf("%w: %s returned %s: %s",
			completion.ErrTransport, completionsPath, resp.Status, strings.TrimSpace(string(respBody)))
	}

	var out completion.Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return completion.Response{}, fmt.Errorf("%w: decoding response: %v", completion.ErrTransport, err)
	}
	return out, nil
}
