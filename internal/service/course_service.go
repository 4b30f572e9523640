package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/canannounce/canannounce/internal/dto"
	"github.com/canannounce/canannounce/internal/observability"
	"github.com/canannounce/canannounce/pkg/canvas"
)

const (
	courseCacheKey = "courses:current"
	courseCacheTTL = time.Minute
)

// instructorRoles are the enrollment types that count as "instructor-like"
// for the purposes of the course filter.
var instructorRoles = map[string]bool{
	"teacher":  true,
	"ta":       true,
	"designer": true,
}

// CourseLister is the slice of the Canvas client the course service needs.
type CourseLister interface {
	ListCourses(ctx context.Context) ([]canvas.Course, error)
	GetCourse(ctx context.Context, courseID int) (canvas.Course, error)
}

// CourseService lists the caller's current-term instructor courses.
type CourseService struct {
	api     CourseLister
	matcher TermMatcher
	cache   *gocache.Cache
	logger  zerolog.Logger
}

// NewCourseService constructs the course service. A nil matcher falls back
// to the semester pattern matcher.
func NewCourseService(api CourseLister, matcher TermMatcher, logger zerolog.Logger) *CourseService {
	if matcher == nil {
		matcher = NewSemesterPatternMatcher(nil)
	}
	return &CourseService{
		api:     api,
		matcher: matcher,
		cache:   gocache.New(courseCacheTTL, 5*time.Minute),
		logger:  logger.With().Str("component", "course_service").Logger(),
	}
}

// CurrentCourses returns the filtered, sorted course options for the
// selection screen. Results are cached briefly so re-rendering the screen
// does not refetch the whole paginated course list.
func (s *CourseService) CurrentCourses(ctx context.Context) ([]dto.CourseOption, error) {
	if cached, ok := s.cache.Get(courseCacheKey); ok {
		if options, ok := cached.([]dto.CourseOption); ok {
			return options, nil
		}
	}

	courses, err := s.api.ListCourses(ctx)
	if err != nil {
		observability.CanvasCalls().WithLabelValues("list_courses", "error").Inc()
		return nil, fmt.Errorf("list courses: %w", err)
	}
	observability.CanvasCalls().WithLabelValues("list_courses", "ok").Inc()

	filtered := FilterCourses(courses, s.matcher)

	options := make([]dto.CourseOption, 0, len(filtered))
	for _, course := range filtered {
		option := dto.CourseOption{
			ID:          course.ID,
			Name:        course.Name,
			DisplayName: course.DisplayName,
		}
		if course.Term != nil {
			option.TermName = course.Term.Name
		}
		options = append(options, option)
	}

	s.cache.Set(courseCacheKey, options, gocache.DefaultExpiration)
	s.logger.Debug().Int("total", len(courses)).Int("kept", len(options)).Msg("filtered course list")

	return options, nil
}

// CourseName resolves a course's display name, used when the composer view
// is opened with only a course ID.
func (s *CourseService) CourseName(ctx context.Context, courseID int) (string, error) {
	course, err := s.api.GetCourse(ctx, courseID)
	if err != nil {
		observability.CanvasCalls().WithLabelValues("get_course", "error").Inc()
		return "", err
	}
	observability.CanvasCalls().WithLabelValues("get_course", "ok").Inc()
	return course.Name, nil
}

// FilterCourses keeps only courses where the caller holds an active
// instructor-like enrollment, the name carries no "sandbox" marker and the
// matcher places the course in the current term. The result is sorted
// alphabetically and carries display names with the term appended when it
// is not already part of the course name.
func FilterCourses(courses []canvas.Course, matcher TermMatcher) []canvas.Course {
	kept := make([]canvas.Course, 0, len(courses))
	for _, course := range courses {
		if course.ID == 0 || course.Name == "" {
			continue
		}
		if !hasInstructorEnrollment(course) {
			continue
		}
		if strings.Contains(strings.ToLower(course.Name), "sandbox") {
			continue
		}
		if !matcher.Matches(course) {
			continue
		}

		course.DisplayName = course.Name
		if course.Term != nil && course.Term.Name != "" &&
			!strings.Contains(strings.ToLower(course.Name), strings.ToLower(course.Term.Name)) {
			course.DisplayName = fmt.Sprintf("%s (%s)", course.Name, course.Term.Name)
		}

		kept = append(kept, course)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Name < kept[j].Name })

	return kept
}

func hasInstructorEnrollment(course canvas.Course) bool {
	for _, enrollment := range course.Enrollments {
		if instructorRoles[enrollment.Type] && enrollment.EnrollmentState == "active" {
			return true
		}
	}
	return false
}
