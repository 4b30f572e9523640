package dto

// CourseOption is one entry on the course selection screen.
type CourseOption struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	TermName    string `json:"term_name,omitempty"`
}

// ComposerView is everything the composer form needs to render.
type ComposerView struct {
	CourseID           int
	CourseName         string
	DefaultTitle       string
	DefaultBody        string
	DefaultPublishDate string
	PublishNow         bool
}
