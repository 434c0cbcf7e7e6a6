// Package client talks to a running claudeck control service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/codeincontext/claudeck/internal/server"
	"github.com/codeincontext/claudeck/internal/state"
)

// Client is a thin wrapper over the control API of one claudeck instance.
type Client struct {
	base string
	http *http.Client
}

// New returns a Client for the service at addr, which may be a bare
// host:port or a full http URL.
func New(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// State fetches the current session snapshot.
func (c *Client) State(ctx context.Context) (state.Snapshot, error) {
	var snap state.Snapshot
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/state", nil)
	if err != nil {
		return snap, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return snap, fmt.Errorf("fetch state: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return snap, fmt.Errorf("fetch state: unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode state: %w", err)
	}
	return snap, nil
}

// Send submits one command for injection.
func (c *Client) Send(ctx context.Context, command string) (server.CommandResult, error) {
	var res server.CommandResult
	body, err := json.Marshal(map[string]string{"command": command})
	if err != nil {
		return res, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/command", bytes.NewReader(body))
	if err != nil {
		return res, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return res, fmt.Errorf("send command: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("send command: unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return res, fmt.Errorf("decode result: %w", err)
	}
	return res, nil
}
