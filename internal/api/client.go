package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
)

// SessionCookie names the cookie carrying the session token on cookie-auth calls.
const SessionCookie = "auth_token"

// Service lists the remote calls the stores depend on.
// This interface is implemented by *Client and can be used for testing.
type Service interface {
	RecoverSession(ctx context.Context, cookie string) (string, error)
	CreateSession(ctx context.Context, token string, rememberMe bool) error
	DeleteSession(ctx context.Context, cookie string) error
	SignIn(ctx context.Context, email, password string) (string, *UserProfile, error)
	Profile(ctx context.Context, token string) (*UserProfile, error)
	Wishlist(ctx context.Context, token string) ([]CourseRef, error)
	AddToWishlist(ctx context.Context, token, courseID string) error
	RemoveFromWishlist(ctx context.Context, token, courseID string) error
	InWishlist(ctx context.Context, token, courseID string) (bool, error)
	EnrolledCourses(ctx context.Context, token string) ([]Enrollment, error)
	CourseProgress(ctx context.Context, token, courseID string) (CourseProgress, error)
}

// Ensure Client implements Service at compile time.
var _ Service = (*Client)(nil)

// Client talks to the Skillfinite HTTP API.
type Client struct {
	baseURL    *url.URL
	http       *resty.Client
	validate   *validator.Validate
	attempts   uint
	retryDelay time.Duration
}

const (
	defaultBaseURL    = "https://api.skillfinite.com"
	defaultUserAgent  = "skillfinite/0.1"
	requestTimeout    = 15 * time.Second
	defaultAttempts   = 3
	defaultRetryDelay = 200 * time.Millisecond
)

// Option customises a Client.
type Option func(*Client)

// WithTimeout sets the transport timeout applied to every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithRetry sets how many times idempotent GETs are attempted and the base
// backoff between attempts.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// NewClient builds a Client for the given API base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: resty.New().
			SetTimeout(requestTimeout).
			SetHeader("User-Agent", defaultUserAgent).
			SetHeader("Accept", "application/json"),
		validate:   validator.New(),
		attempts:   defaultAttempts,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised API base URL.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL.String()
}

// RecoverSession asks the server for the token bound to the session cookie.
// An empty token with a nil error means there is no session.
func (c *Client) RecoverSession(ctx context.Context, cookie string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	var payload sessionPayload
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/auth/session", cookie: cookie}, &payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.Token), nil
}

// CreateSession registers token as the server-side session.
func (c *Client) CreateSession(ctx context.Context, token string, rememberMe bool) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var payload sessionPayload
	body := createSessionBody{Token: token, RememberMe: rememberMe}
	if err := c.do(ctx, call{method: http.MethodPost, path: "/api/auth/session", body: body}, &payload); err != nil {
		return err
	}
	if !payload.Success {
		return fmt.Errorf("create session: %w", ErrRejected)
	}
	return nil
}

// DeleteSession ends the server-side session bound to cookie.
func (c *Client) DeleteSession(ctx context.Context, cookie string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, call{method: http.MethodDelete, path: "/api/auth/session", cookie: cookie}, nil)
}

// SignIn exchanges credentials for a token and user profile.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, *UserProfile, error) {
	if c == nil {
		return "", nil, fmt.Errorf("client is nil")
	}
	var payload envelope[signInData]
	body := signInBody{Email: strings.TrimSpace(email), Password: password}
	if err := c.do(ctx, call{method: http.MethodPost, path: "/api/auth/login", body: body}, &payload); err != nil {
		return "", nil, err
	}
	if !payload.Success {
		return "", nil, fmt.Errorf("sign in: %w: %s", ErrRejected, payload.Message)
	}
	return payload.Data.Token, payload.Data.User, nil
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context, token string) (*UserProfile, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload envelope[*UserProfile]
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/profile", token: token}, &payload); err != nil {
		return nil, err
	}
	if !payload.Success || payload.Data == nil {
		return nil, fmt.Errorf("profile: %w", ErrRejected)
	}
	return payload.Data, nil
}

// Wishlist returns the courses in the user's wishlist. Entries without
// course details carry only their id.
func (c *Client) Wishlist(ctx context.Context, token string) ([]CourseRef, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload envelope[wishlistData]
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/wishlist", token: token}, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, fmt.Errorf("wishlist: %w", ErrRejected)
	}
	courses := make([]CourseRef, 0, len(payload.Data.Items))
	for _, item := range payload.Data.Items {
		courses = append(courses, item.courseRef())
	}
	return courses, nil
}

// AddToWishlist adds courseID to the user's wishlist.
func (c *Client) AddToWishlist(ctx context.Context, token, courseID string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.mutation(ctx, call{method: http.MethodPost, path: "/api/wishlist", token: token, body: wishlistBody{CourseID: courseID}})
}

// RemoveFromWishlist removes courseID from the user's wishlist.
func (c *Client) RemoveFromWishlist(ctx context.Context, token, courseID string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.mutation(ctx, call{method: http.MethodDelete, path: "/api/wishlist/" + url.PathEscape(courseID), token: token})
}

// InWishlist reports whether courseID is in the user's wishlist.
func (c *Client) InWishlist(ctx context.Context, token, courseID string) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("client is nil")
	}
	var payload envelope[wishlistCheck]
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/wishlist/check/" + url.PathEscape(courseID), token: token}, &payload); err != nil {
		return false, err
	}
	return payload.Data.InWishlist, nil
}

// EnrolledCourses lists the user's enrollments, including orphaned records
// whose course is nil.
func (c *Client) EnrolledCourses(ctx context.Context, token string) ([]Enrollment, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload envelope[enrolledData]
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/enrollment/student/courses", token: token}, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, fmt.Errorf("enrolled courses: %w", ErrRejected)
	}
	return payload.Data.Courses, nil
}

// CourseProgress fetches a course's curriculum together with the user's progress.
func (c *Client) CourseProgress(ctx context.Context, token, courseID string) (CourseProgress, error) {
	if c == nil {
		return CourseProgress{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(courseID) == "" {
		return CourseProgress{}, fmt.Errorf("course id required")
	}
	var payload envelope[CourseProgress]
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/progress/" + url.PathEscape(courseID), token: token}, &payload); err != nil {
		return CourseProgress{}, err
	}
	if payload.Data.CourseID == "" {
		payload.Data.CourseID = courseID
	}
	return payload.Data, nil
}

type call struct {
	method string
	path   string
	token  string
	cookie string
	body   any
}

func (c *Client) mutation(ctx context.Context, req call) error {
	var payload envelope[json.RawMessage]
	if err := c.do(ctx, req, &payload); err != nil {
		return err
	}
	if !payload.Success {
		return fmt.Errorf("api %s: %w: %s", req.path, ErrRejected, payload.Message)
	}
	return nil
}

func (c *Client) do(ctx context.Context, req call, dest any) error {
	if req.method != http.MethodGet || c.attempts <= 1 {
		return c.once(ctx, req, dest)
	}
	err := retry.Do(
		func() error { return c.once(ctx, req, dest) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
	)
	if err != nil && ctx.Err() != nil {
		return classify(ctx, err)
	}
	return err
}

func (c *Client) once(ctx context.Context, req call, dest any) error {
	r := c.http.R().SetContext(ctx)
	if req.token != "" {
		r.SetAuthToken(req.token)
	}
	if req.cookie != "" {
		r.SetCookie(&http.Cookie{Name: SessionCookie, Value: req.cookie})
	}
	if req.body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.body)
	}

	endpoint := c.baseURL.JoinPath(req.path).String()
	resp, err := r.Execute(req.method, endpoint)
	if err != nil {
		return classify(ctx, fmt.Errorf("execute request: %w", err))
	}

	if resp.StatusCode() >= 400 {
		return &StatusError{Code: resp.StatusCode(), Path: req.path, Body: strings.TrimSpace(resp.String())}
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := c.validate.Struct(dest); err != nil {
		return fmt.Errorf("validate response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
