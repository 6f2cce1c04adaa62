package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SerperProvider queries the Serper JSON API. It supports both general and
// image searches.
type SerperProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSerperProvider creates a Serper client.
func NewSerperProvider(apiKey string) *SerperProvider {
	return &SerperProvider{
		apiKey:     apiKey,
		baseURL:    "https://google.serper.dev",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type serperOrganic struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type serperImage struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	ImageURL string `json:"imageUrl"`
}

type serperResponse struct {
	Organic []serperOrganic `json:"organic"`
	Images  []serperImage   `json:"images"`
}

// Search queries /search or /images depending on kind.
func (p *SerperProvider) Search(ctx context.Context, query string, kind Kind, max int) ([]Result, error) {
	if max <= 0 {
		max = 5
	}

	endpoint := "/search"
	if kind == KindImage {
		endpoint = "/images"
	}

	body, err := json.Marshal(map[string]any{"q": query, "num": max})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed serperResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var results []Result
	if kind == KindImage {
		for _, img := range parsed.Images {
			if len(results) >= max {
				break
			}
			results = append(results, Result{
				Title:    img.Title,
				URL:      img.Link,
				ImageURL: img.ImageURL,
			})
		}
	} else {
		for _, org := range parsed.Organic {
			if len(results) >= max {
				break
			}
			results = append(results, Result{
				Title:   org.Title,
				URL:     org.Link,
				Snippet: org.Snippet,
			})
		}
	}
	return results, nil
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (p *SerperProvider) SetBaseURL(u string) {
	p.baseURL = u
}
