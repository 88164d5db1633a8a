package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"panel-backend/config"
	"panel-backend/internal/model"
)

// RequestError is returned when the agent answers with a non-2xx status.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("agent %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client talks to the Node Agent running on each node.
type Client struct {
	http *http.Client
}

// NewClient creates an agent client using the timeout and proxy from cfg.
func NewClient(cfg config.AgentConfig) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Warnf("Invalid agent proxy URL %q: %v. Agent requests will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// GetDetails fetches the state and live utilization of a server.
func (c *Client) GetDetails(ctx context.Context, node model.Node, serverUUID string) (*Details, error) {
	var details Details
	if err := c.do(ctx, node, http.MethodGet, "/api/servers/"+serverUUID, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// CreateServer asks the agent to create and install a server.
func (c *Client) CreateServer(ctx context.Context, node model.Node, serverUUID string, startOnCompletion bool) error {
	body := createServerRequest{UUID: serverUUID, StartOnCompletion: startOnCompletion}
	return c.do(ctx, node, http.MethodPost, "/api/servers", body, nil)
}

// DeleteServer removes a server and its files from the node.
func (c *Client) DeleteServer(ctx context.Context, node model.Node, serverUUID string) error {
	return c.do(ctx, node, http.MethodDelete, "/api/servers/"+serverUUID, nil, nil)
}

func (c *Client) do(ctx context.Context, node model.Node, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, node.AgentURL()+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+node.DaemonToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to node %d failed: %w", node.ID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal agent response: %w", err)
	}
	return nil
}
