// Package sandbox manages the ephemeral remote execution environments that
// run generated projects for live preview.
//
// The sandbox filesystem is a disposable cache of the file store. It can be
// rebuilt from scratch at any time; nothing is ever read back from it.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Provider creates and reattaches to remote execution environments.
type Provider interface {
	// Create provisions a fresh sandbox.
	Create(ctx context.Context) (Instance, error)
	// Connect attaches to an existing sandbox by handle. Fails when the
	// environment has expired or the handle is invalid.
	Connect(ctx context.Context, id string) (Instance, error)
}

// Instance is a live, reachable sandbox.
type Instance interface {
	ID() string
	WriteFile(ctx context.Context, path, content string) error
	MkdirAll(ctx context.Context, dir string) error
	// RunCommand executes a shell command; background commands return
	// immediately after spawning.
	RunCommand(ctx context.Context, cmd string, background bool) error
	// SetTimeout re-asserts the sandbox idle lifetime.
	SetTimeout(ctx context.Context, d time.Duration) error
	// Host returns the externally reachable address for a sandbox port.
	Host(port int) string
}

// HTTPProvider talks to an E2B-style sandbox REST API.
type HTTPProvider struct {
	apiKey     string
	baseURL    string
	template   string
	httpClient *http.Client
}

// HTTPProviderConfig holds provider settings.
type HTTPProviderConfig struct {
	APIKey   string
	BaseURL  string
	Template string
	Timeout  time.Duration
}

// NewHTTPProvider creates a provider client.
func NewHTTPProvider(cfg HTTPProviderConfig) *HTTPProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.e2b.dev"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &HTTPProvider{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		template:   cfg.Template,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type sandboxMeta struct {
	SandboxID string `json:"sandboxID"`
	Domain    string `json:"domain"`
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// Create provisions a new sandbox from the configured template.
func (p *HTTPProvider) Create(ctx context.Context) (Instance, error) {
	var meta sandboxMeta
	err := p.do(ctx, "POST", "/sandboxes", map[string]any{
		"templateID": p.template,
	}, &meta)
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox: %w", err)
	}
	if meta.SandboxID == "" {
		return nil, fmt.Errorf("provider returned empty sandbox id")
	}
	return &httpInstance{provider: p, id: meta.SandboxID, domain: meta.Domain}, nil
}

// Connect attaches to a running sandbox.
func (p *HTTPProvider) Connect(ctx context.Context, id string) (Instance, error) {
	var meta sandboxMeta
	if err := p.do(ctx, "GET", "/sandboxes/"+url.PathEscape(id), nil, &meta); err != nil {
		return nil, fmt.Errorf("failed to connect to sandbox %s: %w", id, err)
	}
	return &httpInstance{provider: p, id: id, domain: meta.Domain}, nil
}

type httpInstance struct {
	provider *HTTPProvider
	id       string
	domain   string
}

func (i *httpInstance) ID() string { return i.id }

func (i *httpInstance) WriteFile(ctx context.Context, path, content string) error {
	err := i.provider.do(ctx, "POST",
		"/sandboxes/"+url.PathEscape(i.id)+"/files?path="+url.QueryEscape(path),
		map[string]any{"content": content}, nil)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (i *httpInstance) MkdirAll(ctx context.Context, dir string) error {
	err := i.provider.do(ctx, "POST",
		"/sandboxes/"+url.PathEscape(i.id)+"/dirs",
		map[string]any{"path": dir}, nil)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

func (i *httpInstance) RunCommand(ctx context.Context, cmd string, background bool) error {
	err := i.provider.do(ctx, "POST",
		"/sandboxes/"+url.PathEscape(i.id)+"/commands",
		map[string]any{"cmd": cmd, "background": background}, nil)
	if err != nil {
		return fmt.Errorf("failed to run command: %w", err)
	}
	return nil
}

func (i *httpInstance) SetTimeout(ctx context.Context, d time.Duration) error {
	err := i.provider.do(ctx, "POST",
		"/sandboxes/"+url.PathEscape(i.id)+"/timeout",
		map[string]any{"timeoutMs": d.Milliseconds()}, nil)
	if err != nil {
		return fmt.Errorf("failed to set timeout: %w", err)
	}
	return nil
}

func (i *httpInstance) Host(port int) string {
	domain := i.domain
	if domain == "" {
		domain = "e2b.dev"
	}
	return fmt.Sprintf("https://%d-%s.%s", port, i.id, domain)
}
