package enrollment

import (
	"math"

	"github.com/skillfinite/skillfinite/internal/api"
)

// LessonType tells which completed list a lesson is tracked in.
type LessonType string

const (
	LessonVideo    LessonType = "video"
	LessonDocument LessonType = "document"
	LessonQuiz     LessonType = "quiz"
)

// Lesson is one entry of a module.
type Lesson struct {
	ID         string
	Title      string
	Type       LessonType
	ResourceID string
}

// Module is an ordered group of lessons.
type Module struct {
	ID      string
	Title   string
	Lessons []Lesson
}

// Curriculum is a course's modules in display order.
type Curriculum []Module

// Progress lists the resource ids the user has completed, per lesson type.
type Progress struct {
	CompletedVideos    []string
	CompletedDocuments []string
	CompletedQuizzes   []string
}

// CalculateTotalLessons counts the lessons across all modules.
func CalculateTotalLessons(c Curriculum) int {
	total := 0
	for _, m := range c {
		total += len(m.Lessons)
	}
	return total
}

// CalculateCompletedLessons sums the three completed lists.
func CalculateCompletedLessons(p Progress) int {
	return len(p.CompletedVideos) + len(p.CompletedDocuments) + len(p.CompletedQuizzes)
}

// CalculateProgressPercentage is round(100 * completed / total), or 0 for an
// empty curriculum.
func CalculateProgressPercentage(c Curriculum, p Progress) int {
	return percent(CalculateCompletedLessons(p), CalculateTotalLessons(c))
}

// IsLessonCompleted reports whether the lesson's resource is in the
// completed list for its type. Unknown types are never complete.
func IsLessonCompleted(l Lesson, p Progress) bool {
	switch l.Type {
	case LessonVideo:
		return contains(p.CompletedVideos, l.ResourceID)
	case LessonDocument:
		return contains(p.CompletedDocuments, l.ResourceID)
	case LessonQuiz:
		return contains(p.CompletedQuizzes, l.ResourceID)
	default:
		return false
	}
}

// FindNextLesson returns the first incomplete lesson in module order, or nil.
func FindNextLesson(c Curriculum, p Progress) *Lesson {
	for _, m := range c {
		for i := range m.Lessons {
			if !IsLessonCompleted(m.Lessons[i], p) {
				next := m.Lessons[i]
				return &next
			}
		}
	}
	return nil
}

// IsCourseCompleted reports total > 0 and completed >= total.
func IsCourseCompleted(c Curriculum, p Progress) bool {
	total := CalculateTotalLessons(c)
	return total > 0 && CalculateCompletedLessons(p) >= total
}

// GetModuleProgress is the percentage of the module's lessons completed.
func GetModuleProgress(m Module, p Progress) int {
	done := 0
	for _, l := range m.Lessons {
		if IsLessonCompleted(l, p) {
			done++
		}
	}
	return percent(done, len(m.Lessons))
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

func contains(values []string, v string) bool {
	if v == "" {
		return false
	}
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// curriculumFrom converts the API shape into domain types.
func curriculumFrom(modules []api.CurriculumModule) Curriculum {
	out := make(Curriculum, 0, len(modules))
	for _, m := range modules {
		mod := Module{ID: m.ID, Title: m.Title, Lessons: make([]Lesson, 0, len(m.Lessons))}
		for _, l := range m.Lessons {
			mod.Lessons = append(mod.Lessons, Lesson{
				ID:         l.ID,
				Title:      l.Title,
				Type:       LessonType(l.Type),
				ResourceID: l.ResourceID,
			})
		}
		out = append(out, mod)
	}
	return out
}

func progressFrom(p api.ProgressRecord) Progress {
	return Progress{
		CompletedVideos:    p.CompletedVideos,
		CompletedDocuments: p.CompletedDocuments,
		CompletedQuizzes:   p.CompletedQuizzes,
	}
}
