package service

import (
	"context"
	"fmt"
	"html"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/canannounce/canannounce/internal/config"
	"github.com/canannounce/canannounce/internal/dto"
	"github.com/canannounce/canannounce/internal/observability"
	"github.com/canannounce/canannounce/pkg/canvas"
)

const (
	// PlaceholderToken is replaced with the uploaded file's download URL
	// before the announcement is posted.
	PlaceholderToken = "[FILE_URL_PLACEHOLDER]"

	// PlaceholderBodyText is the training text the user is expected to
	// replace; submitting with it still present triggers a warning.
	PlaceholderBodyText = "ENTER BODY TEXT"

	placeholderParagraph = "<p><a href='" + PlaceholderToken + "'>Today's slides are here</a></p>"

	// minQuestionLength discards quiz questions that collapse to noise
	// once their markup is stripped.
	minQuestionLength = 10

	quizCacheTTL = 5 * time.Minute

	titleTruncateAt = 30
	titleHardCut    = 27
)

// ComposerAPI is the slice of the Canvas client the composer needs.
type ComposerAPI interface {
	ListAssignments(ctx context.Context, courseID int) ([]canvas.Assignment, error)
	ListQuizzes(ctx context.Context, courseID int) ([]canvas.Quiz, error)
	ListQuizQuestions(ctx context.Context, courseID, quizID int) ([]canvas.QuizQuestion, error)
}

// ComposerService builds the default announcement title and body for a
// course: the slide-link placeholder, the upcoming assignment digest and an
// optional practice question pulled from an upcoming quiz.
type ComposerService struct {
	api    ComposerAPI
	cfg    config.Provider
	strip  *bluemonday.Policy
	cache  *gocache.Cache
	now    func() time.Time
	pick   func(n int) int
	logger zerolog.Logger
}

// NewComposerService constructs the composer. The config provider is
// consulted per call so settings changes apply immediately. A nil clock
// falls back to time.Now.
func NewComposerService(api ComposerAPI, cfg config.Provider, now func() time.Time, logger zerolog.Logger) *ComposerService {
	if now == nil {
		now = time.Now
	}
	return &ComposerService{
		api:    api,
		cfg:    cfg,
		strip:  bluemonday.StrictPolicy(),
		cache:  gocache.New(quizCacheTTL, 10*time.Minute),
		now:    now,
		pick:   rand.Intn,
		logger: logger.With().Str("component", "composer_service").Logger(),
	}
}

// TrimmedTitle derives the announcement title from the course name. Course
// codes and section numbers are treated as hyphen-delimited noise: a
// leading code token like "JOUR-4734-01" is dropped whole, otherwise the
// segment before the first hyphen and the segment from the last hyphen
// onward are dropped. Names without hyphens fall back to a word-boundary
// truncation near 30 characters.
func TrimmedTitle(courseName string, now time.Time) string {
	name := strings.TrimSpace(courseName)

	if fields := strings.Fields(name); len(fields) > 1 && isCodeToken(fields[0]) {
		name = strings.Join(fields[1:], " ")
	} else if strings.Contains(name, "-") {
		if _, rest, ok := strings.Cut(name, "-"); ok {
			name = strings.TrimSpace(rest)
		}
		if idx := strings.LastIndex(name, "-"); idx >= 0 {
			name = strings.TrimSpace(name[:idx])
		}
	} else if len(name) > titleTruncateAt {
		if space := strings.LastIndex(name[:titleTruncateAt], " "); space > 0 {
			name = name[:space]
		} else {
			name = name[:titleHardCut] + "..."
		}
	}

	return fmt.Sprintf("%s Slides from %s %s", name, now.Format("Monday"), now.Format("01/02"))
}

// isCodeToken reports whether a word is a hyphenated course code such as
// "JOUR-4734-01": hyphens without any lowercase letters.
func isCodeToken(token string) bool {
	return strings.Contains(token, "-") && strings.ToUpper(token) == token
}

// Compose assembles the composer view for a course: default title, default
// body and the prefilled publish time (a few minutes from now, expressed in
// the configured entry offset for the datetime-local input).
func (s *ComposerService) Compose(ctx context.Context, courseID int, courseName string) dto.ComposerView {
	cfg := s.cfg()
	now := s.now()

	assignments := s.UpcomingAssignments(ctx, courseID)

	question := ""
	if cfg.IncludeQuizQuestion {
		question = s.NextQuizQuestion(ctx, courseID)
	}

	title := strings.Replace(TrimmedTitle(courseName, now), "Slides from", "Slides from today", 1)

	return dto.ComposerView{
		CourseID:           courseID,
		CourseName:         courseName,
		DefaultTitle:       title,
		DefaultBody:        s.DefaultBody(assignments, question),
		DefaultPublishDate: now.In(cfg.EntryLocation()).Add(5 * time.Minute).Format("2006-01-02T15:04"),
		PublishNow:         cfg.PublishNow,
	}
}

// UpcomingAssignments returns the course's assignments due inside the
// configured lookahead window, sorted by due date. Assignments without a
// due date are excluded. Fetch failures degrade to an empty list so the
// composer still renders.
func (s *ComposerService) UpcomingAssignments(ctx context.Context, courseID int) []canvas.Assignment {
	assignments, err := s.api.ListAssignments(ctx, courseID)
	if err != nil {
		observability.CanvasCalls().WithLabelValues("list_assignments", "error").Inc()
		s.logger.Warn().Err(err).Int("course_id", courseID).Msg("assignments unavailable, composing without them")
		return nil
	}
	observability.CanvasCalls().WithLabelValues("list_assignments", "ok").Inc()

	now := s.now().UTC()
	horizon := now.AddDate(0, 0, s.cfg().LookaheadDays)

	upcoming := make([]canvas.Assignment, 0, len(assignments))
	for _, assignment := range assignments {
		if assignment.DueAt == nil {
			continue
		}
		due := assignment.DueAt.UTC()
		if due.Before(now) || due.After(horizon) {
			continue
		}
		upcoming = append(upcoming, assignment)
	}

	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].DueAt.Before(*upcoming[j].DueAt)
	})

	return upcoming
}

// NextQuizQuestion picks a random question from the course's upcoming
// quizzes, with any embedded markup stripped. Returns "" when nothing
// usable is found; all errors degrade to "no question".
func (s *ComposerService) NextQuizQuestion(ctx context.Context, courseID int) string {
	cacheKey := fmt.Sprintf("quiz_question:%d", courseID)
	if cached, ok := s.cache.Get(cacheKey); ok {
		if question, ok := cached.(string); ok {
			return question
		}
	}

	quizzes, err := s.api.ListQuizzes(ctx, courseID)
	if err != nil {
		observability.CanvasCalls().WithLabelValues("list_quizzes", "error").Inc()
		s.logger.Warn().Err(err).Int("course_id", courseID).Msg("quizzes unavailable, composing without a question")
		return ""
	}
	observability.CanvasCalls().WithLabelValues("list_quizzes", "ok").Inc()

	now := s.now().UTC()
	upcoming := make([]canvas.Quiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		if quiz.DueAt != nil && quiz.DueAt.After(now) {
			upcoming = append(upcoming, quiz)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].DueAt.Before(*upcoming[j].DueAt) })

	var pool []string
	for _, quiz := range upcoming {
		questions, err := s.api.ListQuizQuestions(ctx, courseID, quiz.ID)
		if err != nil {
			s.logger.Warn().Err(err).Int("quiz_id", quiz.ID).Msg("quiz questions unavailable")
			continue
		}
		for _, question := range questions {
			text := s.stripMarkup(question.QuestionText)
			if len(text) > minQuestionLength {
				pool = append(pool, text)
			}
		}
	}

	if len(pool) == 0 {
		return ""
	}

	question := pool[s.pick(len(pool))]
	s.cache.Set(cacheKey, question, gocache.DefaultExpiration)

	return question
}

func (s *ComposerService) stripMarkup(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.strip.Sanitize(text)))
}

// DefaultBody renders the default announcement HTML: the slide-link
// placeholder, the training text, the assignment digest (or the
// no-assignments notice) and the optional practice question.
func (s *ComposerService) DefaultBody(assignments []canvas.Assignment, quizQuestion string) string {
	cfg := s.cfg()

	var b strings.Builder

	b.WriteString(placeholderParagraph)
	b.WriteString("\n\n<p>")
	b.WriteString(PlaceholderBodyText)
	b.WriteString("</p>\n\n")

	if len(assignments) > 0 {
		b.WriteString("<p><b>Upcoming Assignments:</b></p>\n<ul>\n")
		for _, assignment := range assignments {
			due := assignment.DueAt.Format("Mon, Jan 2")
			if assignment.HTMLURL != "" {
				fmt.Fprintf(&b, "<li><a href=\"%s\" target=\"_blank\">%s</a> (Due: %s)</li>\n",
					assignment.HTMLURL, html.EscapeString(assignment.Name), due)
			} else {
				fmt.Fprintf(&b, "<li>%s (Due: %s)</li>\n", html.EscapeString(assignment.Name), due)
			}
		}
		b.WriteString("</ul>")
	} else {
		fmt.Fprintf(&b, "<p><b>No Assignments are due in the next %d Days</b></p>", cfg.LookaheadDays)
	}

	if quizQuestion != "" {
		fmt.Fprintf(&b, "\n\n<p><b>%s:</b> %s</p>", html.EscapeString(cfg.QuizPrompt), html.EscapeString(quizQuestion))
	}

	return b.String()
}
