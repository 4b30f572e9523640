package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultTimeout = 30 * time.Second
	defaultPerPage = 100

	// maxPages caps pagination loops so a misbehaving upstream cannot
	// keep the client following next-links forever.
	maxPages = 50
)

// Config contains the connection settings for a Canvas instance.
type Config struct {
	// BaseURL is the instance root, e.g. https://school.instructure.com.
	BaseURL string
	// Token is the bearer token sent on every request.
	Token string
	// Timeout bounds each individual HTTP call. Zero means 30s.
	Timeout time.Duration
}

// Client issues authenticated requests against the Canvas REST API. Every
// call is single-attempt: transient failures propagate to the caller.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  zerolog.Logger
}

// New constructs a Canvas API client.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" || cfg.Token == "" {
		return nil, fmt.Errorf("canvas base URL and token must be provided")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "canvas_client").Logger(),
	}, nil
}

func (c *Client) apiURL(path string) string {
	return c.baseURL + "/api/v1" + path
}

// do sends a request with the bearer token attached and returns the
// response body and status code. The body is fully read and the response
// closed before returning.
func (c *Client) do(ctx context.Context, method, rawURL string, reqBody io.Reader, contentType string) (int, []byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, resp.Header, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, body, resp.Header, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) (int, []byte, error) {
	status, body, _, err := c.do(ctx, http.MethodGet, rawURL, nil, "")
	if err != nil {
		return status, body, err
	}
	if status == http.StatusOK && out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return status, body, fmt.Errorf("decode response: %w", err)
		}
	}
	return status, body, nil
}

// GetProfile fetches the authenticated user's profile. It exists to
// validate credentials before any real work is attempted.
func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var profile Profile
	status, body, err := c.getJSON(ctx, c.apiURL("/users/self/profile"), &profile)
	if err != nil {
		return Profile{}, err
	}
	if status != http.StatusOK {
		return Profile{}, statusError(ErrAuth, status, body)
	}
	return profile, nil
}

// GetCourse fetches a single course by ID.
func (c *Client) GetCourse(ctx context.Context, courseID int) (Course, error) {
	var course Course
	status, body, err := c.getJSON(ctx, c.apiURL(fmt.Sprintf("/courses/%d", courseID)), &course)
	if err != nil {
		return Course{}, err
	}
	if status != http.StatusOK {
		return Course{}, statusError(ErrNotFound, status, body)
	}
	return course, nil
}

// ListCourses returns every active-enrollment course visible to the caller,
// with term and enrollments included, following pagination until the
// upstream is exhausted. The list is returned unfiltered.
func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	query := url.Values{}
	query.Set("enrollment_state", "active")
	query.Add("include[]", "term")
	query.Add("include[]", "enrollments")
	query.Set("per_page", fmt.Sprint(defaultPerPage))

	var courses []Course
	err := c.paginate(ctx, c.apiURL("/courses")+"?"+query.Encode(), func(body []byte) error {
		var page []Course
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("decode courses page: %w", err)
		}
		courses = append(courses, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// ListAssignments returns all assignments for a course, following
// pagination until exhausted.
func (c *Client) ListAssignments(ctx context.Context, courseID int) ([]Assignment, error) {
	query := url.Values{}
	query.Set("per_page", fmt.Sprint(defaultPerPage))

	var assignments []Assignment
	first := c.apiURL(fmt.Sprintf("/courses/%d/assignments", courseID)) + "?" + query.Encode()
	err := c.paginate(ctx, first, func(body []byte) error {
		var page []Assignment
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("decode assignments page: %w", err)
		}
		assignments = append(assignments, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// ListQuizzes returns the quizzes of a course. Filtering for upcoming due
// dates is the caller's concern.
func (c *Client) ListQuizzes(ctx context.Context, courseID int) ([]Quiz, error) {
	var quizzes []Quiz
	status, body, err := c.getJSON(ctx, c.apiURL(fmt.Sprintf("/courses/%d/quizzes", courseID)), &quizzes)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(ErrNotFound, status, body)
	}
	return quizzes, nil
}

// ListQuizQuestions returns the questions of one quiz.
func (c *Client) ListQuizQuestions(ctx context.Context, courseID, quizID int) ([]QuizQuestion, error) {
	var questions []QuizQuestion
	url := c.apiURL(fmt.Sprintf("/courses/%d/quizzes/%d/questions", courseID, quizID))
	status, body, err := c.getJSON(ctx, url, &questions)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(ErrNotFound, status, body)
	}
	return questions, nil
}

// paginate fetches rawURL and every rel="next" page after it, invoking
// collect on each page body.
func (c *Client) paginate(ctx context.Context, rawURL string, collect func(body []byte) error) error {
	next := rawURL
	for page := 0; next != ""; page++ {
		if page >= maxPages {
			c.logger.Warn().Str("url", rawURL).Int("pages", page).Msg("pagination cap reached, truncating result")
			return nil
		}

		status, body, header, err := c.do(ctx, http.MethodGet, next, nil, "")
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return statusError(ErrNotFound, status, body)
		}
		if err := collect(body); err != nil {
			return err
		}

		next = nextLink(header.Get("Link"))
	}
	return nil
}

// nextLink extracts the rel="next" URL from an RFC 5988 Link header, or ""
// when there is no further page.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(section[0]), "<>")
		for _, param := range section[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return target
			}
		}
	}
	return ""
}
