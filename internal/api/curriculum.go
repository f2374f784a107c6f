package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yungbote/coursemarket/internal/api/client"
	"github.com/yungbote/coursemarket/internal/domain"
)

func (a *API) Sections(ctx context.Context, courseID int64) ([]domain.Section, error) {
	q := url.Values{}
	if courseID > 0 {
		q.Set("course", id(courseID))
	}
	page, err := client.List[domain.Section](ctx, a.c, client.Request{Method: http.MethodGet, Path: "sections/", Query: q})
	return page.Results, err
}

func (a *API) CreateSection(ctx context.Context, in domain.SectionInput) (domain.Section, error) {
	var out domain.Section
	err := a.c.Data(ctx, client.Request{Method: http.MethodPost, Path: "sections/", Body: in}, &out)
	return out, err
}

func (a *API) UpdateSection(ctx context.Context, sectionID int64, in domain.SectionInput) (domain.Section, error) {
	var out domain.Section
	err := a.c.Data(ctx, client.Request{Method: http.MethodPatch, Path: path("sections", id(sectionID)), Body: in}, &out)
	return out, err
}

func (a *API) DeleteSection(ctx context.Context, sectionID int64) error {
	return a.c.Delete(ctx, path("sections", id(sectionID)), nil)
}

func (a *API) Lessons(ctx context.Context, f domain.LessonFilter) ([]domain.Lesson, error) {
	q := url.Values{}
	if f.Course > 0 {
		q.Set("course", id(f.Course))
	}
	if f.Section > 0 {
		q.Set("section", id(f.Section))
	}
	page, err := client.List[domain.Lesson](ctx, a.c, client.Request{Method: http.MethodGet, Path: "lessons/", Query: q})
	return page.Results, err
}

func (a *API) CreateLesson(ctx context.Context, in domain.LessonInput) (domain.Lesson, error) {
	var out domain.Lesson
	err := a.c.Data(ctx, client.Request{Method: http.MethodPost, Path: "lessons/", Body: in}, &out)
	return out, err
}

func (a *API) UpdateLesson(ctx context.Context, lessonID int64, in domain.LessonInput) (domain.Lesson, error) {
	var out domain.Lesson
	err := a.c.Data(ctx, client.Request{Method: http.MethodPatch, Path: path("lessons", id(lessonID)), Body: in}, &out)
	return out, err
}

func (a *API) DeleteLesson(ctx context.Context, lessonID int64) error {
	return a.c.Delete(ctx, path("lessons", id(lessonID)), nil)
}
