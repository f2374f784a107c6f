package domain

type Section struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Course      int64  `json:"course"`
	Order       int    `json:"order,omitempty"`
}

type Lesson struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Video       string `json:"video"`
	Duration    Text   `json:"duration"`
	IsPreview   bool   `json:"is_preview"`
	Section     int64  `json:"section"`
	Course      int64  `json:"course"`
	IsCompleted bool   `json:"is_completed,omitempty"`
}

type SectionInput struct {
	Course      int64  `json:"course" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
}

type LessonInput struct {
	Course      int64  `json:"course" validate:"required,gt=0"`
	Section     int64  `json:"section" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
	Video       string `json:"video,omitempty" validate:"omitempty,url"`
	Duration    string `json:"duration,omitempty"`
	IsPreview   bool   `json:"is_preview"`
}

type LessonFilter struct {
	Course  int64
	Section int64
}

// SectionWithLessons is a section joined with the lessons that reference it.
type SectionWithLessons struct {
	Section
	Lectures []Lesson `json:"lectures"`
}
