package domain

import "slices"

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

func (r *CategoryRef) UnmarshalJSON(b []byte) error {
	type plain CategoryRef
	return decodeRef(b, &r.ID, (*plain)(r))
}

type Course struct {
	ID               int64       `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Price            Decimal     `json:"price"`
	DiscountPrice    *Decimal    `json:"discount_price"`
	Duration         Text        `json:"duration"`
	StartDate        *string     `json:"start_date"`
	IsFeatured       bool        `json:"is_featured"`
	IsActive         bool        `json:"is_active"`
	Level            Level       `json:"level"`
	Category         CategoryRef `json:"category"`
	Instructor       UserRef     `json:"instructor"`
	Rating           float64     `json:"rating"`
	Students         int         `json:"students"`
	LessonsCount     int         `json:"lessons_count"`
	ReviewsCount     int         `json:"reviews_count"`
	Banner           string      `json:"banner"`
	WhatYouWillLearn []string    `json:"what_you_will_learn"`
	Requirements     []string    `json:"requirements"`
	IsEnrolled       bool        `json:"is_enrolled"`
}

// EffectivePrice is the discount price when one is set, else the list price.
func (c Course) EffectivePrice() Decimal {
	if c.DiscountPrice != nil && *c.DiscountPrice > 0 {
		return *c.DiscountPrice
	}
	return c.Price
}

// Clone deep-copies the slice and pointer fields.
func (c Course) Clone() Course {
	out := c
	if c.DiscountPrice != nil {
		v := *c.DiscountPrice
		out.DiscountPrice = &v
	}
	if c.StartDate != nil {
		v := *c.StartDate
		out.StartDate = &v
	}
	out.WhatYouWillLearn = slices.Clone(c.WhatYouWillLearn)
	out.Requirements = slices.Clone(c.Requirements)
	return out
}

// CourseRef is a course embedded in another resource.
type CourseRef struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title,omitempty"`
	Banner       string  `json:"banner,omitempty"`
	Duration     Text    `json:"duration,omitempty"`
	Price        Decimal `json:"price,omitempty"`
	LessonsCount int     `json:"lessons_count,omitempty"`
}

func (r *CourseRef) UnmarshalJSON(b []byte) error {
	type plain CourseRef
	return decodeRef(b, &r.ID, (*plain)(r))
}

// CourseQuery filters courses/ list fetches.
type CourseQuery struct {
	Search     string
	Category   int64
	Level      Level
	IsFeatured *bool
	Page       int
	Limit      int
}

// CourseInput is the multipart payload of courses/create/ and courses/:id/update/.
type CourseInput struct {
	Title            string   `validate:"required,max=200"`
	Description      string   `validate:"required"`
	Price            float64  `validate:"gte=0"`
	DiscountPrice    *float64 `validate:"omitempty,gte=0,ltefield=Price"`
	Duration         string   `validate:"required"`
	Level            Level    `validate:"required,oneof=Beginner Intermediate Advanced"`
	CategoryID       int64    `validate:"required,gt=0"`
	IsFeatured       bool
	StartDate        string `validate:"omitempty,datetime=2006-01-02"`
	WhatYouWillLearn []string
	Requirements     []string
	// Banner is a public image URL; BannerFile, when set, is uploaded to the image host first.
	Banner     string `validate:"omitempty,url"`
	BannerFile *File
}

type Material struct {
	ID     int64  `json:"id"`
	Course int64  `json:"course"`
	Title  string `json:"title"`
	File   string `json:"file"`
	Kind   string `json:"type"`
}

// CurriculumSection is a section as returned nested inside a course curriculum.
type CurriculumSection struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	TotalDuration Text     `json:"total_duration"`
	Lectures      []Lesson `json:"lectures"`
}

// File is a binary part of a multipart upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}
