package dto

import "time"

// Attachment is a file collected from the submission form, held in memory
// for the duration of the workflow.
type Attachment struct {
	Filename string
	Data     []byte
}

// SubmitRequest carries one announcement submission through the workflow.
type SubmitRequest struct {
	CourseID int    `validate:"required,gt=0"`
	Title    string `validate:"required,max=255"`
	Body     string `validate:"required"`

	// PublishDate is the raw datetime-local value ("2006-01-02T15:04")
	// typed by the user, interpreted at the configured fixed offset.
	// Empty means no explicit schedule was chosen.
	PublishDate string

	// ForceSubmit bypasses the recoverable validation warnings after the
	// user has explicitly confirmed them.
	ForceSubmit bool

	Attachment *Attachment
}

// SubmitResult reports a successfully posted announcement.
type SubmitResult struct {
	AnnouncementID int        `json:"announcement_id"`
	FileURL        string     `json:"file_url,omitempty"`
	DelayedPostAt  *time.Time `json:"delayed_post_at,omitempty"`
	Shutdown       bool       `json:"shutdown,omitempty"`
}
