package canvas

import "time"

// Profile is the authenticated user's profile, fetched only to verify
// that the configured token is valid.
type Profile struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	PrimaryEmail string `json:"primary_email"`
	LoginID      string `json:"login_id"`
}

// Term is the academic period a course belongs to.
type Term struct {
	ID      int        `json:"id"`
	Name    string     `json:"name"`
	StartAt *time.Time `json:"start_at"`
	EndAt   *time.Time `json:"end_at"`
}

// Enrollment describes the caller's role within a course.
type Enrollment struct {
	Type            string `json:"type"`
	Role            string `json:"role"`
	EnrollmentState string `json:"enrollment_state"`
}

// Course is a course as returned by the courses endpoints, including the
// term and enrollments includes requested by ListCourses.
type Course struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	CourseCode  string       `json:"course_code"`
	Term        *Term        `json:"term,omitempty"`
	Enrollments []Enrollment `json:"enrollments,omitempty"`

	// DisplayName is filled in by the course filter for selection views;
	// the API itself never returns it.
	DisplayName string `json:"display_name,omitempty"`
}

// Assignment is a course assignment. DueAt is nil when the assignment has
// no due date.
type Assignment struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	DueAt          *time.Time `json:"due_at"`
	HTMLURL        string     `json:"html_url"`
	PointsPossible float64    `json:"points_possible"`
}

// Quiz is a course quiz; only quizzes with a future due date are of
// interest to callers.
type Quiz struct {
	ID    int        `json:"id"`
	Title string     `json:"title"`
	DueAt *time.Time `json:"due_at"`
}

// QuizQuestion is a single question belonging to a quiz. QuestionText may
// contain HTML markup.
type QuizQuestion struct {
	ID           int    `json:"id"`
	QuestionText string `json:"question_text"`
	QuestionType string `json:"question_type"`
}

// Announcement is the payload for creating a discussion-topic announcement.
// A nil DelayedPostAt publishes immediately.
type Announcement struct {
	Title         string
	Message       string
	DelayedPostAt *time.Time
}

// CreatedAnnouncement is the subset of the discussion-topic response the
// caller cares about.
type CreatedAnnouncement struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	DelayedPostAt *time.Time `json:"delayed_post_at"`
}
