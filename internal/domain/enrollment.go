package domain

import "slices"

type Enrollment struct {
	ID                 int64     `json:"id"`
	Course             CourseRef `json:"course"`
	Student            UserRef   `json:"student"`
	PricePaid          Decimal   `json:"price"`
	PaymentIntentID    string    `json:"payment_intent_id,omitempty"`
	ProgressPercentage float64   `json:"progress"`
	IsCompleted        bool      `json:"is_completed"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          string    `json:"created_at"`
	Lessons            []Lesson  `json:"lessons,omitempty"`
}

func (e Enrollment) Clone() Enrollment {
	out := e
	out.Lessons = slices.Clone(e.Lessons)
	return out
}

type EnrollmentCheck struct {
	IsEnrolled bool `json:"is_enrolled"`
}

// CourseProgress is the payload of courses/:id/progress/.
type CourseProgress struct {
	EnrollmentID       int64    `json:"enrollment_id"`
	CourseID           int64    `json:"course_id"`
	TotalLessons       int      `json:"total_lessons"`
	CompletedLessons   int      `json:"completed_lessons"`
	ProgressPercentage float64  `json:"progress_percentage"`
	IsCourseCompleted  bool     `json:"is_course_completed"`
	Lessons            []Lesson `json:"lessons"`
}

func (p CourseProgress) Clone() CourseProgress {
	out := p
	out.Lessons = slices.Clone(p.Lessons)
	return out
}

// LessonMarkResult is returned by the lesson complete/incomplete endpoints.
// Progress is the server-computed percentage.
type LessonMarkResult struct {
	CompletedLessons  int     `json:"completed_lessons"`
	Progress          float64 `json:"progress"`
	IsCourseCompleted bool    `json:"is_course_completed"`
}
