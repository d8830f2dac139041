package normalize

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/systems2beyond/bethel-social-sub005/pkg/models"
)

// imageSectionLabel delimits an appended image description from the post's
// own text.
const imageSectionLabel = "[Image description]"

// videoHosts are link targets that look like images on the post record but
// point at video platforms; describing them is pointless.
var videoHosts = []string{"youtube.com", "youtu.be", "vimeo.com"}

// normalizePost builds indexable text from a social post. An image reference
// is described and appended when possible; describe failures are logged and
// the post's own text is kept. An empty result means skip, not error.
func (n *Normalizer) normalizePost(ctx context.Context, src models.Source) (*Content, error) {
	post := src.Post
	text := strings.TrimSpace(post.Text)

	if post.ImageURL != "" && !IsVideoHostLink(post.ImageURL) && n.describer != nil {
		desc, err := n.describer.Describe(ctx, post.ImageURL)
		if err != nil {
			slog.Warn("image description failed, indexing post text only",
				"post_id", post.ID, "image_url", post.ImageURL, "error", err)
		} else if desc != "" {
			if text != "" {
				text += "\n\n"
			}
			text += imageSectionLabel + "\n" + desc
		}
	}

	if text == "" {
		// Nothing to index; not an error.
		return nil, nil
	}

	title := src.Title
	if title == "" {
		title = postTitle(post)
	}

	return &Content{Text: text, Title: title}, nil
}

// IsVideoHostLink reports whether the URL points at a known video host.
func IsVideoHostLink(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, vh := range videoHosts {
		if host == vh || strings.HasSuffix(host, "."+vh) {
			return true
		}
	}
	return false
}

func postTitle(post *models.PostSnapshot) string {
	if post.Author != "" {
		return "Post by " + post.Author
	}
	return "Social post"
}
