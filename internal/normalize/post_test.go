package normalize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/systems2beyond/bethel-social-sub005/pkg/models"
)

type fakeDescriber struct {
	description string
	err         error
	calls       int
	lastURL     string
}

func (f *fakeDescriber) Describe(_ context.Context, imageURL string) (string, error) {
	f.calls++
	f.lastURL = imageURL
	return f.description, f.err
}

func postSource(post *models.PostSnapshot) models.Source {
	return models.Source{Type: models.DocTypeSocialPost, Post: post}
}

func TestNormalize_Post_TextOnly(t *testing.T) {
	n := New(Config{}, nil)
	content, err := n.Normalize(context.Background(), postSource(&models.PostSnapshot{
		ID:     "p1",
		Author: "Pastor Dave",
		Text:   "Youth group meets Thursday at 7.",
	}))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if content.Text != "Youth group meets Thursday at 7." {
		t.Errorf("Text = %q", content.Text)
	}
	if content.Title != "Post by Pastor Dave" {
		t.Errorf("Title = %q", content.Title)
	}
}

func TestNormalize_Post_AppendsImageDescription(t *testing.T) {
	desc := &fakeDescriber{description: "A flyer announcing the fall retreat."}
	n := New(Config{}, desc)

	content, err := n.Normalize(context.Background(), postSource(&models.PostSnapshot{
		ID:       "p2",
		Text:     "So excited for this!",
		ImageURL: "https://cdn.example.com/retreat.jpg",
	}))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if desc.calls != 1 || desc.lastURL != "https://cdn.example.com/retreat.jpg" {
		t.Errorf("describer called %d times with %q", desc.calls, desc.lastURL)
	}
	if !strings.HasPrefix(content.Text, "So excited for this!") {
		t.Errorf("Text should start with the post text, got %q", content.Text)
	}
	if !strings.Contains(content.Text, imageSectionLabel) {
		t.Errorf("Text should contain the image section label, got %q", content.Text)
	}
	if !strings.Contains(content.Text, "fall retreat") {
		t.Errorf("Text should contain the description, got %q", content.Text)
	}
}

func TestNormalize_Post_DescribeFailureIsNonFatal(t *testing.T) {
	desc := &fakeDescriber{err: errors.New("model unavailable")}
	n := New(Config{}, desc)

	content, err := n.Normalize(context.Background(), postSource(&models.PostSnapshot{
		ID:       "p3",
		Text:     "Baptism photos from Sunday.",
		ImageURL: "https://cdn.example.com/baptism.jpg",
	}))
	if err != nil {
		t.Fatalf("Normalize() error = %v, describe failures must not abort", err)
	}

	if content.Text != "Baptism photos from Sunday." {
		t.Errorf("Text = %q, want base text alone", content.Text)
	}
}

func TestNormalize_Post_SkipsVideoLinks(t *testing.T) {
	desc := &fakeDescriber{description: "should not be called"}
	n := New(Config{}, desc)

	content, err := n.Normalize(context.Background(), postSource(&models.PostSnapshot{
		ID:       "p4",
		Text:     "Watch the full sermon here.",
		ImageURL: "https://www.youtube.com/watch?v=abc123",
	}))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if desc.calls != 0 {
		t.Error("describer should not be called for video-host links")
	}
	if strings.Contains(content.Text, imageSectionLabel) {
		t.Error("video links must not produce an image description section")
	}
}

func TestNormalize_Post_EmptyIsSkipped(t *testing.T) {
	n := New(Config{}, nil)
	content, err := n.Normalize(context.Background(), postSource(&models.PostSnapshot{ID: "p5"}))
	if err != nil {
		t.Fatalf("Normalize() error = %v, empty post is a skip not an error", err)
	}
	if content != nil {
		t.Errorf("content = %+v, want nil (skip)", content)
	}
}

func TestNormalize_Post_ImageOnly(t *testing.T) {
	desc := &fakeDescriber{description: "Volunteers packing meal boxes."}
	n := New(Config{}, desc)

	content, err := n.Normalize(context.Background(), postSource(&models.PostSnapshot{
		ID:       "p6",
		ImageURL: "https://cdn.example.com/serve-day.jpg",
	}))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if content == nil {
		t.Fatal("image-only post with a usable description should be indexed")
	}
	if !strings.HasPrefix(content.Text, imageSectionLabel) {
		t.Errorf("Text = %q, want description section only", content.Text)
	}
}

func TestIsVideoHostLink(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.youtube.com/watch?v=abc", true},
		{"https://youtu.be/abc", true},
		{"https://vimeo.com/12345", true},
		{"https://cdn.example.com/photo.jpg", false},
		{"https://notyoutube.company.com/a.png", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsVideoHostLink(tt.url); got != tt.want {
				t.Errorf("IsVideoHostLink(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
