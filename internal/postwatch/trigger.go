package postwatch

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/systems2beyond/bethel-social-sub005/pkg/models"
)

// TopicPostChanges is the bus topic carrying post change events.
const TopicPostChanges = "post-changes"

// ChangeEvent describes a social post transition. Before is nil on creation,
// After is nil on deletion.
type ChangeEvent struct {
	URL    string               `json:"url,omitempty"` // post permalink, if known
	Before *models.PostSnapshot `json:"before,omitempty"`
	After  *models.PostSnapshot `json:"after,omitempty"`
}

// ShouldReingest decides whether a post transition warrants re-indexing.
// Deletions never do: the indexed copy is left in place rather than garbage
// collected. Metadata-only edits (likes, comment counts) never do either,
// only changes to the indexable content.
func ShouldReingest(before, after *models.PostSnapshot) bool {
	if after == nil {
		return false
	}
	if after.ForceReingest {
		return true
	}
	if before == nil {
		// Creation: only worth indexing if there is content.
		return after.Text != "" || after.ImageURL != ""
	}
	return before.Text != after.Text || before.ImageURL != after.ImageURL
}

// Publish puts a change event on the bus. Callers treat this as
// fire-and-forget; ingestion happens asynchronously on the consumer side.
func Publish(publisher message.Publisher, event ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	return publisher.Publish(TopicPostChanges, message.NewMessage(watermill.NewUUID(), payload))
}
