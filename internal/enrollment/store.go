package enrollment

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/skillfinite/skillfinite/internal/api"
)

// Remote lists the enrollment endpoints of the API client.
type Remote interface {
	EnrolledCourses(ctx context.Context, token string) ([]api.Enrollment, error)
	CourseProgress(ctx context.Context, token, courseID string) (api.CourseProgress, error)
}

// TokenSource yields the current session token.
type TokenSource interface {
	Token() string
}

// ModuleProgress is the completion of one module.
type ModuleProgress struct {
	ID      string
	Title   string
	Percent int
}

// Summary is a course's progress, computed from its curriculum.
type Summary struct {
	CourseID   string
	Curriculum Curriculum
	Progress   Progress
	Percent    int
	Completed  int
	Total      int
	Next       *Lesson
	Done       bool
	Modules    []ModuleProgress
}

// Summarize computes a Summary from a curriculum and progress.
func Summarize(courseID string, c Curriculum, p Progress) Summary {
	s := Summary{
		CourseID:   courseID,
		Curriculum: c,
		Progress:   p,
		Percent:    CalculateProgressPercentage(c, p),
		Completed:  CalculateCompletedLessons(p),
		Total:      CalculateTotalLessons(c),
		Next:       FindNextLesson(c, p),
		Done:       IsCourseCompleted(c, p),
	}
	for _, m := range c {
		s.Modules = append(s.Modules, ModuleProgress{ID: m.ID, Title: m.Title, Percent: GetModuleProgress(m, p)})
	}
	return s
}

// Store tracks which courses the user is enrolled in.
type Store struct {
	remote Remote
	tokens TokenSource

	mu       sync.RWMutex
	ids      []string
	courses  map[string]api.CourseRef
	progress map[string]Summary
}

// New returns an empty store.
func New(remote Remote, tokens TokenSource) *Store {
	return &Store{
		remote:   remote,
		tokens:   tokens,
		courses:  make(map[string]api.CourseRef),
		progress: make(map[string]Summary),
	}
}

// LoadEnrollments replaces the enrolled set with the server's list. Without a
// token the set is emptied and no call is made. Entries whose course no
// longer exists are skipped. On failure the current set is kept.
func (s *Store) LoadEnrollments(ctx context.Context) error {
	token := s.token()
	if token == "" || s.remote == nil {
		s.Reset()
		return nil
	}

	enrollments, err := s.remote.EnrolledCourses(ctx, token)
	if err != nil {
		log.Printf("[enrollment] load failed: %v", err)
		return fmt.Errorf("load enrollments: %w", err)
	}

	ids := make([]string, 0, len(enrollments))
	courses := make(map[string]api.CourseRef, len(enrollments))
	for _, e := range enrollments {
		if e.Course == nil || e.Course.ID == "" {
			continue
		}
		if _, dup := courses[e.Course.ID]; dup {
			continue
		}
		ids = append(ids, e.Course.ID)
		courses[e.Course.ID] = *e.Course
	}

	s.mu.Lock()
	s.ids = ids
	s.courses = courses
	s.mu.Unlock()
	return nil
}

// IsEnrolled reports whether courseID is in the enrolled set.
func (s *Store) IsEnrolled(courseID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(courseID) >= 0
}

// EnrollCourse records a local enrollment after a purchase. No remote call is
// made. It reports whether the id was new.
func (s *Store) EnrollCourse(courseID string) bool {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(courseID) >= 0 {
		return false
	}
	s.ids = append(s.ids, courseID)
	if _, ok := s.courses[courseID]; !ok {
		s.courses[courseID] = api.CourseRef{ID: courseID}
	}
	return true
}

// IDs returns the enrolled course ids in server order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.ids...)
}

// Courses returns the enrolled courses in server order.
func (s *Store) Courses() []api.CourseRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.CourseRef, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.courses[id])
	}
	return out
}

// Count returns the number of enrolled courses.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Reset clears the enrolled set and cached progress.
func (s *Store) Reset() {
	s.mu.Lock()
	s.ids = nil
	s.courses = make(map[string]api.CourseRef)
	s.progress = make(map[string]Summary)
	s.mu.Unlock()
}

// LoadProgress fetches a course's curriculum and the user's progress and
// summarises it. The last summary per course is kept for CachedProgress.
func (s *Store) LoadProgress(ctx context.Context, courseID string) (Summary, error) {
	token := s.token()
	if token == "" || s.remote == nil {
		return Summary{}, fmt.Errorf("load progress: not signed in")
	}
	cp, err := s.remote.CourseProgress(ctx, token, courseID)
	if err != nil {
		return Summary{}, fmt.Errorf("load progress %s: %w", courseID, err)
	}
	summary := Summarize(courseID, curriculumFrom(cp.Curriculum), progressFrom(cp.Progress))

	s.mu.Lock()
	s.progress[courseID] = summary
	s.mu.Unlock()
	return summary, nil
}

// CachedProgress returns the last summary loaded for courseID.
func (s *Store) CachedProgress(courseID string) (Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.progress[courseID]
	return summary, ok
}

func (s *Store) indexLocked(courseID string) int {
	for i, id := range s.ids {
		if id == courseID {
			return i
		}
	}
	return -1
}

func (s *Store) token() string {
	if s.tokens == nil {
		return ""
	}
	return s.tokens.Token()
}
