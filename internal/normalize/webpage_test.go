package normalize

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/systems2beyond/bethel-social-sub005/pkg/models"
)

func TestNormalize_Webpage_StripsChrome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`
			<html>
			<head>
				<title>Sunday Bulletin</title>
				<style>body { color: red; }</style>
				<script>console.log("tracking");</script>
			</head>
			<body>
				<nav><a href="/home">Home</a><a href="/give">Give</a></nav>
				<h1>Welcome</h1>
				<p>Service   starts at
				10am.</p>
				<footer>Copyright 2026</footer>
			</body>
			</html>
		`))
	}))
	defer server.Close()

	n := New(Config{}, nil)
	content, err := n.Normalize(context.Background(), models.Source{
		Type: models.DocTypeWebpage,
		URL:  server.URL,
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if content.Title != "Sunday Bulletin" {
		t.Errorf("Title = %q, want %q", content.Title, "Sunday Bulletin")
	}
	if content.Text != "Welcome Service starts at 10am." {
		t.Errorf("Text = %q, want stripped and collapsed text", content.Text)
	}
	for _, leaked := range []string{"tracking", "color: red", "Home", "Copyright"} {
		if strings.Contains(content.Text, leaked) {
			t.Errorf("Text should not contain %q", leaked)
		}
	}
	if len(content.Raw) == 0 {
		t.Error("Raw should carry the fetched HTML")
	}
}

func TestNormalize_Webpage_TitleFallsBackToURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>No title here.</p></body></html>`))
	}))
	defer server.Close()

	n := New(Config{}, nil)
	content, err := n.Normalize(context.Background(), models.Source{
		Type: models.DocTypeWebpage,
		URL:  server.URL,
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if content.Title != server.URL {
		t.Errorf("Title = %q, want URL fallback %q", content.Title, server.URL)
	}
}

func TestNormalize_Webpage_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	n := New(Config{}, nil)
	_, err := n.Normalize(context.Background(), models.Source{
		Type: models.DocTypeWebpage,
		URL:  server.URL,
	})
	if err == nil {
		t.Fatal("Normalize() should fail on non-2xx status")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error should be *FetchError, got %T", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("FetchError.StatusCode = %d, want 404", fetchErr.StatusCode)
	}
}

func TestNormalize_Webpage_NetworkError(t *testing.T) {
	n := New(Config{}, nil)
	_, err := n.Normalize(context.Background(), models.Source{
		Type: models.DocTypeWebpage,
		URL:  "http://127.0.0.1:1/unreachable",
	})

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error should be *FetchError, got %v", err)
	}
}

func TestNormalize_ManualText_PassesThrough(t *testing.T) {
	n := New(Config{}, nil)
	content, err := n.Normalize(context.Background(), models.Source{
		Type:  models.DocTypeWebpage,
		Text:  "Potluck sign-up opens Friday.\n\nBring a dish.",
		Title: "Potluck",
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if content.Text != "Potluck sign-up opens Friday.\n\nBring a dish." {
		t.Errorf("manual text should pass through unchanged, got %q", content.Text)
	}
	if content.Title != "Potluck" {
		t.Errorf("Title = %q, want %q", content.Title, "Potluck")
	}
}

func TestNormalize_NoTextNoURL(t *testing.T) {
	n := New(Config{}, nil)
	_, err := n.Normalize(context.Background(), models.Source{Type: models.DocTypeWebpage})
	if err == nil {
		t.Fatal("Normalize() should fail when neither text nor URL is supplied")
	}

	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("error should be *ValidationError, got %T", err)
	}
}
