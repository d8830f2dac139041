package models

import "time"

// PostSnapshot is the state of a social post at one point in time. The
// change trigger receives a before/after pair of these.
type PostSnapshot struct {
	ID            string    `json:"id"`
	Author        string    `json:"author,omitempty"`
	Platform      string    `json:"platform,omitempty"`
	Text          string    `json:"text"`
	ImageURL      string    `json:"image_url,omitempty"`
	ForceReingest bool      `json:"force_reingest,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitzero"`
}

// Source describes one logical unit of ingestable content handed to the
// orchestrator by a trigger adapter.
type Source struct {
	Type     string            // DocTypeWebpage or DocTypeSocialPost
	URL      string            // fetch target and recrawl key for webpages
	Text     string            // manually supplied text, if any
	Title    string            // optional caller-supplied title
	Metadata map[string]string // provenance bag (author, platform, ...)
	Post     *PostSnapshot     // set for social-post sources
}
