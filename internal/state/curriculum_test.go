package state

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/apierr"
	"github.com/yungbote/coursemarket/internal/testutil/fakeapi"
)

func lessonIDs(ls []domain.Lesson) []int64 {
	out := make([]int64, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}

func loadCurriculum(t *testing.T, f *fixture, courseID int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Curriculum.FetchSections(ctx, courseID))
	require.NoError(t, f.store.Curriculum.FetchLessons(ctx, domain.LessonFilter{Course: courseID}))
}

func TestCurriculumCreateAppendsAndUpdateReplaces(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.TeacherEmail)
	ctx := context.Background()
	cur := f.store.Curriculum
	loadCurriculum(t, f, 9)

	sec, err := cur.CreateSection(ctx, domain.SectionInput{Course: 9, Title: "Concurrency"})
	require.NoError(t, err)
	lesson, err := cur.CreateLesson(ctx, domain.LessonInput{Course: 9, Section: sec.ID, Title: "Goroutines", Duration: "9"})
	require.NoError(t, err)

	snap := cur.Snapshot()
	require.Len(t, snap.Sections, 3)
	assert.Equal(t, sec, snap.Sections[2])
	assert.Equal(t, []int64{10, 11, 12, lesson.ID}, lessonIDs(snap.Lessons))

	cur.SetCurrentLesson(lesson)
	updated, err := cur.UpdateLesson(ctx, lesson.ID, domain.LessonInput{Course: 9, Section: sec.ID, Title: "Goroutines and channels"})
	require.NoError(t, err)

	snap = cur.Snapshot()
	assert.Equal(t, updated, snap.Lessons[3])
	require.NotNil(t, snap.CurrentItem)
	require.NotNil(t, snap.CurrentItem.Lesson)
	assert.Equal(t, "Goroutines and channels", snap.CurrentItem.Lesson.Title)

	renamed, err := cur.UpdateSection(ctx, 1, domain.SectionInput{Course: 9, Title: "Setup"})
	require.NoError(t, err)
	assert.Equal(t, "Setup", renamed.Title)
	assert.Equal(t, "Setup", cur.Snapshot().Sections[0].Title)
}

func TestDeleteSectionDropsItsLessons(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.TeacherEmail)
	cur := f.store.Curriculum
	loadCurriculum(t, f, 9)
	cur.SetCurrentLesson(domain.Lesson{ID: 12, Section: 1, Course: 9})

	require.NoError(t, cur.DeleteSection(context.Background(), 1))

	snap := cur.Snapshot()
	require.Len(t, snap.Sections, 1)
	assert.Equal(t, int64(2), snap.Sections[0].ID)
	assert.Equal(t, []int64{11}, lessonIDs(snap.Lessons))
	assert.Nil(t, snap.CurrentItem)
}

func TestDeleteLessonClearsCurrentItem(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.TeacherEmail)
	cur := f.store.Curriculum
	loadCurriculum(t, f, 9)
	cur.SetCurrentLesson(domain.Lesson{ID: 11, Section: 2, Course: 9})

	require.NoError(t, cur.DeleteLesson(context.Background(), 10))
	assert.NotNil(t, cur.Snapshot().CurrentItem)

	require.NoError(t, cur.DeleteLesson(context.Background(), 11))
	snap := cur.Snapshot()
	assert.Nil(t, snap.CurrentItem)
	assert.Equal(t, []int64{12}, lessonIDs(snap.Lessons))
}

func TestRejectedCurriculumMutationsLeaveStateUntouched(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.TeacherEmail)
	ctx := context.Background()
	cur := f.store.Curriculum
	loadCurriculum(t, f, 9)
	before := cur.Snapshot()

	f.srv.Fail(http.MethodDelete, "/api/sections/:id/", http.StatusInternalServerError, gin.H{"error": "db down"})
	f.srv.Fail(http.MethodPatch, "/api/lessons/:id/", http.StatusInternalServerError, gin.H{"error": gin.H{"message": "locked"}})

	err := cur.DeleteSection(ctx, 1)
	e, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, "db down", e.Message)

	_, err = cur.UpdateLesson(ctx, 10, domain.LessonInput{Course: 9, Section: 1, Title: "x"})
	e, ok = apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, "locked", e.Message)

	_, err = cur.CreateSection(ctx, domain.SectionInput{Title: "no course"})
	assert.True(t, apierr.IsKind(err, apierr.KindValidation))

	after := cur.Snapshot()
	assert.Equal(t, before.Sections, after.Sections)
	assert.Equal(t, before.Lessons, after.Lessons)
	assert.Equal(t, StatusFailed, after.Ops.SectionMutation.Status)
	assert.Equal(t, StatusFailed, after.Ops.LessonMutation.Status)
	assert.Equal(t, StatusSucceeded, after.Ops.Sections.Status)
}

func TestCurriculumFetchCourseAndReset(t *testing.T) {
	f := newFixture(t, Options{})
	cur := f.store.Curriculum
	require.NoError(t, cur.FetchCourse(context.Background(), 9))
	require.NotNil(t, cur.Snapshot().Course)
	assert.Equal(t, "Go Fundamentals", cur.Snapshot().Course.Title)

	loadCurriculum(t, f, 9)
	cur.Reset()
	snap := cur.Snapshot()
	assert.Nil(t, snap.Course)
	assert.Empty(t, snap.Sections)
	assert.Empty(t, snap.Lessons)
	assert.Equal(t, StatusIdle, snap.Ops.Lessons.Status)
}
