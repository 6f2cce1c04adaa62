package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"spawn/internal/sandbox"
	"spawn/internal/search"
	"spawn/internal/store"
)

// stubProvider serves a single always-reachable sandbox.
type stubProvider struct {
	mu     sync.Mutex
	broken bool
	writes []string
}

func (p *stubProvider) Create(ctx context.Context) (sandbox.Instance, error) {
	return &stubInstance{p: p, id: "sbx-stub"}, nil
}

func (p *stubProvider) Connect(ctx context.Context, id string) (sandbox.Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.broken {
		return nil, errors.New("sandbox expired")
	}
	return &stubInstance{p: p, id: id}, nil
}

type stubInstance struct {
	p  *stubProvider
	id string
}

func (i *stubInstance) ID() string { return i.id }
func (i *stubInstance) WriteFile(ctx context.Context, path, content string) error {
	i.p.mu.Lock()
	defer i.p.mu.Unlock()
	i.p.writes = append(i.p.writes, path)
	return nil
}
func (i *stubInstance) MkdirAll(ctx context.Context, dir string) error             { return nil }
func (i *stubInstance) RunCommand(ctx context.Context, cmd string, bg bool) error  { return nil }
func (i *stubInstance) SetTimeout(ctx context.Context, d time.Duration) error      { return nil }
func (i *stubInstance) Host(port int) string                                       { return fmt.Sprintf("https://%d-%s.stub", port, i.id) }

type stubSearcher struct {
	results []search.Result
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, query string, kind search.Kind, max int) ([]search.Result, error) {
	return s.results, s.err
}

func projectFixture(t *testing.T) (*store.Store, *sandbox.Manager, *stubProvider, string) {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	p, err := st.CreateProject(context.Background(), "app", "u")
	if err != nil {
		t.Fatal(err)
	}

	provider := &stubProvider{}
	mgr := sandbox.NewManager(st, provider, time.Minute, 5173, nil)
	return st, mgr, provider, p.ID
}

func TestListFilesTool(t *testing.T) {
	st, mgr, _, projectID := projectFixture(t)
	ctx := context.Background()

	st.UpsertFile(ctx, projectID, "index.html", "x")
	st.UpsertFile(ctx, projectID, "src/App.tsx", "y")

	r := ForProject(st, mgr, &stubSearcher{}, projectID, 5, nil)
	result, err := r.Execute(ctx, "list_files", map[string]any{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Result != "index.html\nsrc/App.tsx" {
		t.Errorf("Result = %q", result.Result)
	}
}

func TestReadFileTool(t *testing.T) {
	st, mgr, _, projectID := projectFixture(t)
	ctx := context.Background()

	st.UpsertFile(ctx, projectID, "src/App.tsx", "export default null")

	r := ForProject(st, mgr, &stubSearcher{}, projectID, 5, nil)

	result, err := r.Execute(ctx, "read_file", map[string]any{"path": "src/App.tsx"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Result != "export default null" {
		t.Errorf("Result = %q", result.Result)
	}
}

func TestReadFileToolNotFound(t *testing.T) {
	st, mgr, _, projectID := projectFixture(t)

	r := ForProject(st, mgr, &stubSearcher{}, projectID, 5, nil)

	// A missing path is a recoverable string result, never an error that
	// would halt the agent loop.
	result, err := r.Execute(context.Background(), "read_file", map[string]any{"path": "missing.ts"})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Result != "Error: File not found at path missing.ts" {
		t.Errorf("Result = %q", result.Result)
	}
}

func TestWriteFileToolNoSandbox(t *testing.T) {
	st, mgr, provider, projectID := projectFixture(t)
	ctx := context.Background()

	r := ForProject(st, mgr, &stubSearcher{}, projectID, 5, nil)

	result, err := r.Execute(ctx, "write_file", map[string]any{
		"path":    "src/components/Foo.tsx",
		"content": "foo",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Result != "File src/components/Foo.tsx saved to database" {
		t.Errorf("Result = %q", result.Result)
	}
	if len(provider.writes) != 0 {
		t.Error("must not attempt sandbox mirroring without a handle")
	}

	// Persisted regardless.
	content, err := st.ReadContent(ctx, projectID, "src/components/Foo.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if content != "foo" {
		t.Errorf("content = %q", content)
	}
}

func TestWriteFileToolMirrorsToLiveSandbox(t *testing.T) {
	st, mgr, provider, projectID := projectFixture(t)
	ctx := context.Background()

	st.SetSandboxID(ctx, projectID, "sbx-stub")

	r := ForProject(st, mgr, &stubSearcher{}, projectID, 5, nil)

	result, err := r.Execute(ctx, "write_file", map[string]any{
		"path":    "src/App.tsx",
		"content": "v2",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Result != "File src/App.tsx saved and sandbox updated" {
		t.Errorf("Result = %q", result.Result)
	}
	if len(provider.writes) != 1 || provider.writes[0] != "src/App.tsx" {
		t.Errorf("writes = %v", provider.writes)
	}
}

func TestWriteFileToolSoftensMirrorFailure(t *testing.T) {
	st, mgr, provider, projectID := projectFixture(t)
	ctx := context.Background()

	st.SetSandboxID(ctx, projectID, "sbx-stub")
	provider.broken = true

	r := ForProject(st, mgr, &stubSearcher{}, projectID, 5, nil)

	result, err := r.Execute(ctx, "write_file", map[string]any{
		"path":    "src/App.tsx",
		"content": "v3",
	})
	if err != nil {
		t.Fatalf("mirror failure must not fail the tool call: %v", err)
	}
	if result.Result != "File src/App.tsx saved to database (Sandbox was inactive)" {
		t.Errorf("Result = %q", result.Result)
	}

	// Primary write stuck.
	content, _ := st.ReadContent(ctx, projectID, "src/App.tsx")
	if content != "v3" {
		t.Errorf("content = %q", content)
	}
}

func TestSearchWebTool(t *testing.T) {
	st, mgr, _, projectID := projectFixture(t)

	searcher := &stubSearcher{results: []search.Result{
		{Title: "React", URL: "https://react.dev", Snippet: "docs"},
	}}
	r := ForProject(st, mgr, searcher, projectID, 5, nil)

	result, err := r.Execute(context.Background(), "search_web", map[string]any{
		"query": "react docs",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Result, "https://react.dev") {
		t.Errorf("Result = %q", result.Result)
	}
}

func TestSearchWebToolDegradesOnProviderFailure(t *testing.T) {
	st, mgr, _, projectID := projectFixture(t)

	searcher := &stubSearcher{err: errors.New("rate limited")}
	r := ForProject(st, mgr, searcher, projectID, 5, nil)

	result, err := r.Execute(context.Background(), "search_web", map[string]any{
		"query": "anything",
	})
	if err != nil {
		t.Fatalf("provider failure must not fail the tool call: %v", err)
	}
	if !strings.Contains(result.Result, "Search failed") {
		t.Errorf("Result = %q", result.Result)
	}
	if !strings.Contains(result.Result, "internal knowledge") {
		t.Errorf("Result should tell the model to fall back: %q", result.Result)
	}
}

func TestToolSurfaceNames(t *testing.T) {
	st, mgr, _, projectID := projectFixture(t)

	r := ForProject(st, mgr, &stubSearcher{}, projectID, 5, nil)

	want := []string{"list_files", "read_file", "search_web", "write_file"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
