// Package search provides web search for the agent's search_web tool.
package search

import (
	"context"
	"fmt"
)

// Kind selects the result flavor.
type Kind string

const (
	KindGeneral Kind = "general"
	KindImage   Kind = "image"
)

// ParseKind maps a tool argument to a Kind, defaulting to general.
func ParseKind(s string) Kind {
	if s == string(KindImage) {
		return KindImage
	}
	return KindGeneral
}

// Result is one condensed search hit. Snippet is set for general results,
// ImageURL for image results.
type Result struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Provider performs web searches.
type Provider interface {
	Search(ctx context.Context, query string, kind Kind, max int) ([]Result, error)
}

// Format renders results for the model.
func Format(query string, results []Result) string {
	if len(results) == 0 {
		return "No results found for: " + query
	}

	out := fmt.Sprintf("Search results for %q:\n\n", query)
	for i, r := range results {
		out += fmt.Sprintf("%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			out += fmt.Sprintf("   %s\n", r.Snippet)
		}
		if r.ImageURL != "" {
			out += fmt.Sprintf("   image: %s\n", r.ImageURL)
		}
		out += "\n"
	}
	return out
}
