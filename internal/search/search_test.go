package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseKind(t *testing.T) {
	if ParseKind("image") != KindImage {
		t.Error("image should parse to KindImage")
	}
	if ParseKind("general") != KindGeneral {
		t.Error("general should parse to KindGeneral")
	}
	if ParseKind("") != KindGeneral {
		t.Error("empty kind should default to general")
	}
	if ParseKind("weird") != KindGeneral {
		t.Error("unknown kind should default to general")
	}
}

func TestSerperGeneralSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s, want /search", r.URL.Path)
		}
		if r.Header.Get("X-API-KEY") != "key" {
			t.Error("missing api key header")
		}
		fmt.Fprint(w, `{"organic":[
			{"title":"React Docs","link":"https://react.dev","snippet":"Learn React"},
			{"title":"Vite","link":"https://vitejs.dev","snippet":"Next gen tooling"}
		]}`)
	}))
	defer srv.Close()

	p := NewSerperProvider("key")
	p.SetBaseURL(srv.URL)

	results, err := p.Search(context.Background(), "react", KindGeneral, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d", len(results))
	}
	if results[0].Title != "React Docs" || results[0].Snippet != "Learn React" {
		t.Errorf("first result = %+v", results[0])
	}
	if results[0].ImageURL != "" {
		t.Error("general result should have no image url")
	}
}

func TestSerperImageSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images" {
			t.Errorf("path = %s, want /images", r.URL.Path)
		}
		fmt.Fprint(w, `{"images":[
			{"title":"A cat","link":"https://example.com/cat","imageUrl":"https://img.example.com/cat.png"}
		]}`)
	}))
	defer srv.Close()

	p := NewSerperProvider("key")
	p.SetBaseURL(srv.URL)

	results, err := p.Search(context.Background(), "cat", KindImage, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d", len(results))
	}
	if results[0].ImageURL != "https://img.example.com/cat.png" {
		t.Errorf("image url = %q", results[0].ImageURL)
	}
}

func TestSerperCapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"organic":[
			{"title":"1","link":"u1"},{"title":"2","link":"u2"},{"title":"3","link":"u3"}
		]}`)
	}))
	defer srv.Close()

	p := NewSerperProvider("key")
	p.SetBaseURL(srv.URL)

	results, err := p.Search(context.Background(), "q", KindGeneral, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2", len(results))
	}
}

func TestSerperProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewSerperProvider("bad")
	p.SetBaseURL(srv.URL)

	if _, err := p.Search(context.Background(), "q", KindGeneral, 5); err == nil {
		t.Error("want error on 403")
	}
}

func TestDuckDuckGoRejectsImageKind(t *testing.T) {
	p := NewDuckDuckGoProvider()
	if _, err := p.Search(context.Background(), "q", KindImage, 5); err == nil {
		t.Error("image kind should error without Serper")
	}
}

func TestParseResults(t *testing.T) {
	page := `<html><body>
	<div class="result results_links results_links_deep web-result">
	  <a class="result__a" href="https://react.dev">React</a>
	  <a class="result__snippet" href="#">The library for web UIs</a>
	</div>
	<div class="result results_links web-result">
	  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fvitejs.dev&rut=abc">Vite</a>
	</div>
	</body></html>`

	results, err := parseResults(page, 10)
	if err != nil {
		t.Fatalf("parseResults: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d", len(results))
	}
	if results[0].Title != "React" || results[0].URL != "https://react.dev" {
		t.Errorf("first = %+v", results[0])
	}
	if !strings.Contains(results[0].Snippet, "library for web UIs") {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
	// Redirect URL unwrapped.
	if results[1].URL != "https://vitejs.dev" {
		t.Errorf("second url = %q", results[1].URL)
	}
}

func TestFormat(t *testing.T) {
	out := Format("react", []Result{
		{Title: "React", URL: "https://react.dev", Snippet: "docs"},
		{Title: "Cat", URL: "https://example.com", ImageURL: "https://img/cat.png"},
	})
	for _, want := range []string{"React", "https://react.dev", "docs", "image: https://img/cat.png"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	empty := Format("nothing", nil)
	if !strings.Contains(empty, "No results found") {
		t.Errorf("empty output = %q", empty)
	}
}
