package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yungbote/coursemarket/internal/api/client"
	"github.com/yungbote/coursemarket/internal/domain"
)

func (a *API) Courses(ctx context.Context, q domain.CourseQuery) (domain.Page[domain.Course], error) {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category > 0 {
		v.Set("category", id(q.Category))
	}
	if q.Level != "" {
		v.Set("level", string(q.Level))
	}
	if q.IsFeatured != nil {
		v.Set("is_featured", strconv.FormatBool(*q.IsFeatured))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return client.List[domain.Course](ctx, a.c, client.Request{Method: http.MethodGet, Path: "courses/", Query: v})
}

// CourseDetail is courses/:id/ which also carries the nested curriculum.
type CourseDetail struct {
	domain.Course
	Curriculum []domain.CurriculumSection `json:"curriculum"`
}

func (a *API) Course(ctx context.Context, courseID int64) (CourseDetail, error) {
	var out CourseDetail
	err := a.c.Data(ctx, client.Request{Method: http.MethodGet, Path: path("courses", id(courseID))}, &out)
	return out, err
}

func courseForm(in domain.CourseInput) *client.Multipart {
	mp := client.NewMultipart().
		Field("title", in.Title).
		Field("description", in.Description).
		Field("price", strconv.FormatFloat(in.Price, 'f', -1, 64)).
		Field("duration", in.Duration).
		Field("level", string(in.Level)).
		Field("category_id", id(in.CategoryID)).
		Field("is_featured", strconv.FormatBool(in.IsFeatured))
	if in.Banner != "" {
		mp.Field("banner", in.Banner)
	} else {
		attachFile(mp, "banner", in.BannerFile)
	}
	if in.DiscountPrice != nil {
		mp.Field("discount_price", strconv.FormatFloat(*in.DiscountPrice, 'f', -1, 64))
	}
	if in.StartDate != "" {
		mp.Field("start_date", in.StartDate)
	}
	mp.Field("what_you_will_learn", jsonList(in.WhatYouWillLearn))
	mp.Field("requirements", jsonList(in.Requirements))
	return mp
}

func (a *API) CreateCourse(ctx context.Context, in domain.CourseInput) (domain.Course, error) {
	var out domain.Course
	err := a.c.Data(ctx, client.Request{Method: http.MethodPost, Path: "courses/create/", Body: courseForm(in)}, &out)
	return out, err
}

func (a *API) UpdateCourse(ctx context.Context, courseID int64, in domain.CourseInput) (domain.Course, error) {
	var out domain.Course
	err := a.c.Data(ctx, client.Request{Method: http.MethodPut, Path: path("courses", id(courseID), "update"), Body: courseForm(in)}, &out)
	return out, err
}

func (a *API) DeleteCourse(ctx context.Context, courseID int64) error {
	return a.c.Delete(ctx, path("courses", id(courseID), "delete"), nil)
}

func (a *API) Categories(ctx context.Context) ([]domain.Category, error) {
	page, err := client.List[domain.Category](ctx, a.c, client.Request{Method: http.MethodGet, Path: "categories/"})
	return page.Results, err
}

func (a *API) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	var out domain.Category
	err := a.c.Data(ctx, client.Request{Method: http.MethodPost, Path: "categories/", Body: map[string]string{"name": name}}, &out)
	return out, err
}

func (a *API) Materials(ctx context.Context, courseID int64) ([]domain.Material, error) {
	q := url.Values{"course": {id(courseID)}}
	page, err := client.List[domain.Material](ctx, a.c, client.Request{Method: http.MethodGet, Path: "materials/", Query: q})
	return page.Results, err
}
