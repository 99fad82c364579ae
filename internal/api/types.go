package api

import (
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// UserProfile mirrors the user object returned by the auth and profile endpoints.
type UserProfile struct {
	ID     string     `json:"id" validate:"required"`
	Email  string     `json:"email,omitempty" validate:"omitempty,email"`
	Name   string     `json:"name,omitempty"`
	Avatar string     `json:"avatar,omitempty"`
	Bio    string     `json:"bio,omitempty"`
	Role   string     `json:"role,omitempty"`
	Stats  *UserStats `json:"stats,omitempty" validate:"omitempty"`
}

// UserStats holds the profile counters shown on the dashboard.
type UserStats struct {
	CoursesEnrolled  int `json:"coursesEnrolled" validate:"gte=0"`
	CoursesCompleted int `json:"coursesCompleted" validate:"gte=0"`
	Certificates     int `json:"certificates" validate:"gte=0"`
}

// CourseRef is the subset of a course the client keeps in carts, wishlists
// and enrollment lists.
type CourseRef struct {
	ID         string `json:"id" validate:"required"`
	Title      string `json:"title"`
	Instructor string `json:"instructor,omitempty"`
	Price      string `json:"price"`
	Thumbnail  string `json:"thumbnail,omitempty"`
}

// Enrollment mirrors an entry of /api/enrollment/student/courses. Course is
// nil when the server returns a record for a deleted course.
type Enrollment struct {
	ID         string     `json:"id"`
	Status     string     `json:"status,omitempty"`
	EnrolledAt string     `json:"enrolledAt,omitempty"`
	Course     *CourseRef `json:"course" validate:"omitempty"`
}

// ParsedEnrolledAt returns the enrollment timestamp as time.Time when possible.
func (e Enrollment) ParsedEnrolledAt() time.Time {
	return parseTime(e.EnrolledAt)
}

// CurriculumLesson is a single lesson as served by /api/progress.
type CurriculumLesson struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Type       string `json:"type" validate:"required"`
	ResourceID string `json:"resourceId"`
}

// CurriculumModule groups lessons in display order.
type CurriculumModule struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Lessons []CurriculumLesson `json:"lessons" validate:"dive"`
}

// ProgressRecord lists completed resource ids per lesson type.
type ProgressRecord struct {
	CompletedVideos    []string `json:"completedVideos"`
	CompletedDocuments []string `json:"completedDocuments"`
	CompletedQuizzes   []string `json:"completedQuizzes"`
}

// CourseProgress bundles a course's curriculum with the caller's progress.
type CourseProgress struct {
	CourseID   string             `json:"courseId"`
	Curriculum []CurriculumModule `json:"curriculum" validate:"dive"`
	Progress   ProgressRecord     `json:"progress"`
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

type sessionPayload struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type createSessionBody struct {
	Token      string `json:"token"`
	RememberMe bool   `json:"rememberMe"`
}

type signInBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInData struct {
	Token string       `json:"token" validate:"required"`
	User  *UserProfile `json:"user" validate:"required"`
}

type wishlistEntry struct {
	CourseID string     `json:"courseId" validate:"required"`
	Course   *CourseRef `json:"course,omitempty" validate:"-"`
}

// courseRef merges the entry's course details under its courseId.
func (e wishlistEntry) courseRef() CourseRef {
	ref := CourseRef{ID: e.CourseID}
	if e.Course != nil {
		ref = *e.Course
		ref.ID = e.CourseID
	}
	return ref
}

type wishlistData struct {
	Items []wishlistEntry `json:"items" validate:"dive"`
}

type wishlistBody struct {
	CourseID string `json:"courseId"`
}

type wishlistCheck struct {
	InWishlist bool `json:"inWishlist"`
}

type enrolledData struct {
	Courses []Enrollment `json:"courses" validate:"dive"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(timestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
