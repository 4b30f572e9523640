package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type announcementPayload struct {
	Title          string `json:"title"`
	Message        string `json:"message"`
	IsAnnouncement bool   `json:"is_announcement"`
	Published      bool   `json:"published"`
	DelayedPostAt  string `json:"delayed_post_at,omitempty"`
}

// CreateAnnouncement posts a discussion-topic announcement to a course.
// When DelayedPostAt is set the announcement stays invisible to students
// until that instant; timestamps are sent in UTC.
func (c *Client) CreateAnnouncement(ctx context.Context, courseID int, ann Announcement) (CreatedAnnouncement, error) {
	payload := announcementPayload{
		Title:          ann.Title,
		Message:        ann.Message,
		IsAnnouncement: true,
		Published:      true,
	}
	if ann.DelayedPostAt != nil {
		payload.DelayedPostAt = ann.DelayedPostAt.UTC().Format(time.RFC3339)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return CreatedAnnouncement{}, fmt.Errorf("encode announcement: %w", err)
	}

	postURL := c.apiURL(fmt.Sprintf("/courses/%d/discussion_topics", courseID))
	status, body, _, err := c.do(ctx, http.MethodPost, postURL, bytes.NewReader(raw), "application/json")
	if err != nil {
		return CreatedAnnouncement{}, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return CreatedAnnouncement{}, statusError(ErrPost, status, body)
	}

	var created CreatedAnnouncement
	if err := json.Unmarshal(body, &created); err != nil {
		return CreatedAnnouncement{}, fmt.Errorf("decode announcement response: %w", err)
	}

	c.logger.Info().Int("course_id", courseID).Int("announcement_id", created.ID).Msg("announcement created")

	return created, nil
}
