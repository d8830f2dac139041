package normalize

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/systems2beyond/bethel-social-sub005/pkg/models"
)

// strippedSelectors are removed from the DOM before text extraction; they
// carry chrome and code, not content.
const strippedSelectors = "script, style, nav, footer"

// fetchWebpage retrieves the URL's HTML and reduces it to plain text.
func (n *Normalizer) fetchWebpage(ctx context.Context, src models.Source) (*Content, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, &FetchError{URL: src.URL, Err: err}
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: src.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: src.URL, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: src.URL, Err: err}
	}

	text, title, err := extractText(raw)
	if err != nil {
		return nil, &FetchError{URL: src.URL, Err: err}
	}

	if src.Title != "" {
		title = src.Title
	}
	if title == "" {
		title = src.URL
	}

	return &Content{Text: text, Title: title, Raw: raw}, nil
}

// extractText strips non-content elements, concatenates the remaining text
// nodes, and collapses whitespace runs to single spaces.
func extractText(rawHTML []byte) (text, title string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(strippedSelectors).Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	text = strings.Join(strings.Fields(body.Text()), " ")
	return text, title, nil
}
