package api

import (
	"context"
	"net/http"

	"github.com/yungbote/coursemarket/internal/api/client"
	"github.com/yungbote/coursemarket/internal/domain"
)

func (a *API) Enrollments(ctx context.Context) ([]domain.Enrollment, error) {
	page, err := client.List[domain.Enrollment](ctx, a.c, client.Request{Method: http.MethodGet, Path: "enrollments/"})
	return page.Results, err
}

func (a *API) CheckEnrollment(ctx context.Context, courseID int64) (bool, error) {
	var out domain.EnrollmentCheck
	err := a.c.Data(ctx, client.Request{Method: http.MethodGet, Path: path("enrollments", "check", id(courseID))}, &out)
	return out.IsEnrolled, err
}

func (a *API) MarkLesson(ctx context.Context, enrollmentID, lessonID int64, completed bool) (domain.LessonMarkResult, error) {
	action := "incomplete"
	if completed {
		action = "complete"
	}
	var out domain.LessonMarkResult
	p := path("enrollments", id(enrollmentID), "lessons", id(lessonID), action)
	err := a.c.Data(ctx, client.Request{Method: http.MethodPost, Path: p}, &out)
	return out, err
}

func (a *API) CourseProgress(ctx context.Context, courseID int64) (domain.CourseProgress, error) {
	var out domain.CourseProgress
	err := a.c.Data(ctx, client.Request{Method: http.MethodGet, Path: path("courses", id(courseID), "progress")}, &out)
	return out, err
}
