package state

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/apierr"
	"github.com/yungbote/coursemarket/internal/testutil/fakeapi"
)

func TestFetchCoursesReplacesListOnEveryCall(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	courses := f.store.Courses

	cases := []struct {
		q    domain.CourseQuery
		want []int64
	}{
		{domain.CourseQuery{}, []int64{9, 10, 11}},
		{domain.CourseQuery{Category: 2}, []int64{11}},
		{domain.CourseQuery{Level: domain.LevelAdvanced}, []int64{10}},
		{domain.CourseQuery{Search: "go"}, []int64{9}},
		{domain.CourseQuery{Category: 1}, []int64{9, 10}},
	}
	for _, tc := range cases {
		require.NoError(t, courses.FetchCourses(ctx, tc.q))
		snap := courses.Snapshot()
		assert.Equal(t, tc.want, courseIDs(snap.Courses), "query %+v", tc.q)
		assert.Equal(t, StatusSucceeded, snap.Ops.List.Status)
		assert.Equal(t, tc.q, snap.Query)
	}
}

func TestFetchCoursesStoresPagination(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.store.Courses.FetchCourses(context.Background(), domain.CourseQuery{Page: 1, Limit: 2}))

	snap := f.store.Courses.Snapshot()
	assert.Len(t, snap.Courses, 2)
	assert.Equal(t, 3, snap.Pagination.Count)
	require.NotNil(t, snap.Pagination.Next)
	assert.Contains(t, *snap.Pagination.Next, "page=2")
	assert.Nil(t, snap.Pagination.Previous)
	assert.Equal(t, snap.Pagination, f.store.Courses.Pagination())
}

func TestCreateCoursePrependsServerObject(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.TeacherEmail)
	require.Empty(t, f.store.Courses.Snapshot().Courses)

	created, err := f.store.Courses.CreateCourse(context.Background(), validCourseInput("Testing in Go"))
	require.NoError(t, err)

	snap := f.store.Courses.Snapshot()
	require.Len(t, snap.Courses, 1)
	assert.Equal(t, created, snap.Courses[0])
	assert.Equal(t, "Testing in Go", created.Title)
	assert.Equal(t, "Programming", created.Category.Name)
	assert.Equal(t, StatusSucceeded, snap.Ops.Mutation.Status)

	second, err := f.store.Courses.CreateCourse(context.Background(), validCourseInput("Profiling"))
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, created.ID}, courseIDs(f.store.Courses.Snapshot().Courses))
}

func TestCreateAndDeleteCourseRequireToken(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.store.Courses.CreateCourse(ctx, validCourseInput("No auth"))
	require.Error(t, err)
	assert.Equal(t, msgNoToken, err.Error())

	err = f.store.Courses.DeleteCourse(ctx, 9)
	require.Error(t, err)
	assert.Equal(t, msgNoToken, err.Error())

	assert.Zero(t, f.srv.Hits(http.MethodPost, "/api/courses/create/"))
	assert.Zero(t, f.srv.Hits(http.MethodDelete, "/api/courses/:id/delete/"))
	snap := f.store.Courses.Snapshot()
	assert.Equal(t, StatusFailed, snap.Ops.Mutation.Status)
	assert.Equal(t, apierr.KindUnexpected, snap.Ops.Mutation.Err.Kind)
}

func TestCreateCourseValidatesLocally(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.TeacherEmail)

	in := validCourseInput("")
	in.Level = "Expert"
	_, err := f.store.Courses.CreateCourse(context.Background(), in)

	e, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.KindValidation, e.Kind)
	assert.Contains(t, e.Fields, "title")
	assert.Contains(t, e.Fields, "level")
	assert.Zero(t, f.srv.Hits(http.MethodPost, "/api/courses/create/"))
}

func TestUpdateCourseReplacesByIDAndSelected(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.TeacherEmail)
	ctx := context.Background()
	courses := f.store.Courses

	require.NoError(t, courses.FetchCourses(ctx, domain.CourseQuery{Category: 1}))
	require.NoError(t, courses.FetchCourse(ctx, 10))
	before := courses.Snapshot()
	require.Equal(t, []int64{9, 10}, courseIDs(before.Courses))

	updated, err := courses.UpdateCourse(ctx, 10, validCourseInput("Concurrency, Second Edition"))
	require.NoError(t, err)

	snap := courses.Snapshot()
	assert.Equal(t, []int64{9, 10}, courseIDs(snap.Courses))
	assert.Equal(t, before.Courses[0], snap.Courses[0])
	assert.Equal(t, updated, snap.Courses[1])
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "Concurrency, Second Edition", snap.Selected.Title)

	got, ok := courses.CourseByID(10)
	require.True(t, ok)
	assert.Equal(t, updated.Title, got.Title)
}

func TestDeleteCourseClearsOnlyMatchingSelection(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.TeacherEmail)
	ctx := context.Background()
	courses := f.store.Courses

	require.NoError(t, courses.FetchCourses(ctx, domain.CourseQuery{}))
	require.NoError(t, courses.FetchCourse(ctx, 9))

	require.NoError(t, courses.DeleteCourse(ctx, 10))
	snap := courses.Snapshot()
	assert.Equal(t, []int64{9, 11}, courseIDs(snap.Courses))
	require.NotNil(t, snap.Selected)
	assert.Equal(t, int64(9), snap.Selected.ID)

	require.NoError(t, courses.DeleteCourse(ctx, 9))
	snap = courses.Snapshot()
	assert.Equal(t, []int64{11}, courseIDs(snap.Courses))
	assert.Nil(t, snap.Selected)
	assert.NotContains(t, snap.Curriculum, int64(9))
}

func TestRejectedMutationsLeaveCoursesUntouched(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.TeacherEmail)
	ctx := context.Background()
	courses := f.store.Courses

	require.NoError(t, courses.FetchCourses(ctx, domain.CourseQuery{}))
	require.NoError(t, courses.FetchCourse(ctx, 9))
	before := courses.Snapshot()

	boom := gin.H{"message": "boom"}
	f.srv.Fail(http.MethodPost, "/api/courses/create/", http.StatusInternalServerError, boom)
	f.srv.Fail(http.MethodPut, "/api/courses/:id/update/", http.StatusBadRequest, gin.H{"title": []string{"Too similar."}})
	f.srv.Fail(http.MethodDelete, "/api/courses/:id/delete/", http.StatusForbidden, gin.H{"detail": "Not yours."})

	_, err := courses.CreateCourse(ctx, validCourseInput("Won't land"))
	require.Error(t, err)
	e, _ := apierr.As(err)
	assert.Equal(t, "boom", e.Message)
	assert.Equal(t, http.StatusInternalServerError, e.Status)

	_, err = courses.UpdateCourse(ctx, 9, validCourseInput("Renamed"))
	require.Error(t, err)
	e, _ = apierr.As(err)
	assert.Equal(t, "Too similar.", e.Fields["title"])

	err = courses.DeleteCourse(ctx, 9)
	require.True(t, apierr.IsForbidden(err))

	after := courses.Snapshot()
	assert.Equal(t, before.Courses, after.Courses)
	assert.Equal(t, before.Selected, after.Selected)
	assert.Equal(t, StatusFailed, after.Ops.Mutation.Status)
	assert.Equal(t, "Not yours.", after.Ops.Mutation.Err.Message)
}

func TestStaleCourseListIsDiscarded(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	courses := f.store.Courses

	arrived, release := f.srv.Gate(http.MethodGet, "/api/courses/")
	slow := make(chan error, 1)
	go func() { slow <- courses.FetchCourses(ctx, domain.CourseQuery{Search: "go"}) }()
	<-arrived

	require.NoError(t, courses.FetchCourses(ctx, domain.CourseQuery{Category: 2}))
	release()

	err := <-slow
	require.True(t, errors.Is(err, ErrStale), "got %v", err)
	snap := courses.Snapshot()
	assert.Equal(t, []int64{11}, courseIDs(snap.Courses))
	assert.Equal(t, int64(2), snap.Query.Category)
	assert.Equal(t, StatusSucceeded, snap.Ops.List.Status)
}

func TestStaleFailureKeepsCause(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	arrived, release := f.srv.Gate(http.MethodGet, "/api/categories/")
	f.srv.Fail(http.MethodGet, "/api/categories/", http.StatusServiceUnavailable, gin.H{"detail": "down"})
	slow := make(chan error, 1)
	go func() { slow <- f.store.Courses.FetchCategories(ctx) }()
	<-arrived

	f.store.Courses.Reset()
	release()

	err := <-slow
	assert.ErrorIs(t, err, ErrStale)
	e, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, e.Status)
	assert.Equal(t, StatusIdle, f.store.Courses.Snapshot().Ops.Categories.Status)
}

func TestCategoriesAppendAndLookup(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.TeacherEmail)
	ctx := context.Background()

	require.NoError(t, f.store.Courses.FetchCategories(ctx))
	cat, err := f.store.Courses.CreateCategory(ctx, "Data")
	require.NoError(t, err)

	snap := f.store.Courses.Snapshot()
	require.Len(t, snap.Categories, 3)
	assert.Equal(t, cat, snap.Categories[2])

	got, ok := f.store.Courses.CategoryByID(2)
	require.True(t, ok)
	assert.Equal(t, "Design", got.Name)
	_, ok = f.store.Courses.CategoryByID(404)
	assert.False(t, ok)

	_, err = f.store.Courses.CreateCategory(ctx, "")
	assert.True(t, apierr.IsKind(err, apierr.KindValidation))
}

func TestFetchCourseCachesCurriculumAndMaterials(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	courses := f.store.Courses

	require.NoError(t, courses.FetchCurriculum(ctx, 9))
	require.NoError(t, courses.FetchMaterials(ctx, 9))

	snap := courses.Snapshot()
	secs := snap.Curriculum[9]
	require.Len(t, secs, 2)
	assert.Equal(t, "Getting started", secs[0].Title)
	require.Len(t, secs[0].Lectures, 2)
	assert.Equal(t, int64(10), secs[0].Lectures[0].ID)
	assert.Equal(t, int64(12), secs[0].Lectures[1].ID)
	require.Len(t, snap.Materials[9], 1)
	assert.Equal(t, "pdf", snap.Materials[9][0].Kind)

	courses.ClearSelected()
	assert.Nil(t, courses.Snapshot().Selected)
}

func TestNotFoundCourseIsHTTPError(t *testing.T) {
	f := newFixture(t, Options{})
	err := f.store.Courses.FetchCourse(context.Background(), 404)
	require.True(t, apierr.IsNotFound(err))

	snap := f.store.Courses.Snapshot()
	assert.Equal(t, StatusFailed, snap.Ops.Detail.Status)
	assert.Equal(t, "Not found.", snap.Ops.Detail.Err.Message)
	assert.Nil(t, snap.Selected)
}

type stubUploader struct {
	url   string
	files []domain.File
}

func (u *stubUploader) Upload(_ context.Context, f domain.File) (string, error) {
	u.files = append(u.files, f)
	return u.url, nil
}

func TestCreateCourseUploadsBannerFirst(t *testing.T) {
	up := &stubUploader{url: "https://i.ibb.co/abc/banner.png"}
	f := newFixture(t, Options{Uploader: up})
	f.login(t, fakeapi.TeacherEmail)

	in := validCourseInput("With banner")
	in.BannerFile = &domain.File{Name: "banner.png", ContentType: "image/png", Data: []byte("png")}
	created, err := f.store.Courses.CreateCourse(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, up.files, 1)
	assert.Equal(t, "banner.png", up.files[0].Name)
	assert.Equal(t, up.url, created.Banner)
}
