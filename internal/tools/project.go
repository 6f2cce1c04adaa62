package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"spawn/internal/sandbox"
	"spawn/internal/search"
	"spawn/internal/store"
)

// ForProject builds the tool surface bound to one project. Every tool is
// independently atomic; there is no cross-tool-call transaction.
func ForProject(st *store.Store, mgr *sandbox.Manager, searcher search.Provider, projectID string, maxSearchResults int, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSearchResults <= 0 {
		maxSearchResults = 5
	}

	r := NewRegistry()

	r.MustRegister(&Tool{
		Name:        "list_files",
		Description: "List all files in the project",
		Schema:      Schema{Properties: map[string]Property{}},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			paths, err := st.ListPaths(ctx, projectID)
			if err != nil {
				return "", err
			}
			return strings.Join(paths, "\n"), nil
		},
	})

	r.MustRegister(&Tool{
		Name:        "read_file",
		Description: "Read the content of a file given its path",
		Schema: Schema{
			Required: []string{"path"},
			Properties: map[string]Property{
				"path": {Type: "string", Description: "Project-relative file path"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path, _ := args["path"].(string)
			content, err := st.ReadContent(ctx, projectID, path)
			if errors.Is(err, store.ErrNotFound) {
				// The model recovers from this by calling list_files.
				return fmt.Sprintf("Error: File not found at path %s", path), nil
			}
			if err != nil {
				return "", err
			}
			return content, nil
		},
	})

	r.MustRegister(&Tool{
		Name:        "write_file",
		Description: "Write content to a file at the given path",
		Schema: Schema{
			Required: []string{"path", "content"},
			Properties: map[string]Property{
				"path":    {Type: "string", Description: "Project-relative file path"},
				"content": {Type: "string", Description: "Full file content to write"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path, _ := args["path"].(string)
			content, _ := args["content"].(string)

			if err := st.UpsertFile(ctx, projectID, path, content); err != nil {
				return "", err
			}

			// The database write is the primary operation; mirroring to a
			// live sandbox is best-effort and never rolls it back.
			err := mgr.Mirror(ctx, projectID, path, content)
			switch {
			case err == nil:
				return fmt.Sprintf("File %s saved and sandbox updated", path), nil
			case errors.Is(err, sandbox.ErrNoSandbox):
				return fmt.Sprintf("File %s saved to database", path), nil
			default:
				logger.Warn("sandbox mirror failed",
					zap.String("project", projectID),
					zap.String("path", path),
					zap.Error(err))
				return fmt.Sprintf("File %s saved to database (Sandbox was inactive)", path), nil
			}
		},
	})

	r.MustRegister(&Tool{
		Name:        "search_web",
		Description: "Search the web for information or images. Use kind \"image\" to find image URLs.",
		Schema: Schema{
			Required: []string{"query"},
			Properties: map[string]Property{
				"query": {Type: "string", Description: "The search query"},
				"kind":  {Type: "string", Description: "Either \"general\" or \"image\""},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			kindArg, _ := args["kind"].(string)

			results, err := searcher.Search(ctx, query, search.ParseKind(kindArg), maxSearchResults)
			if err != nil {
				logger.Warn("web search failed",
					zap.String("query", query), zap.Error(err))
				// Keep the loop running; the model falls back to what it knows.
				return fmt.Sprintf("Search failed (%v). Rely on internal knowledge instead.", err), nil
			}
			return search.Format(query, results), nil
		},
	})

	return r
}
