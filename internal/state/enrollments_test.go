package state

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursemarket/internal/testutil/fakeapi"
)

func TestIsEnrolledFailsClosed(t *testing.T) {
	f := newFixture(t, Options{})
	for _, id := range []int64{0, 9, 12345, -1} {
		assert.False(t, f.store.Enrollments.IsEnrolled(id))
		assert.False(t, f.store.Select.IsEnrolled(id))
	}
	_, known := f.store.Enrollments.Known(9)
	assert.False(t, known)
}

func TestFetchEnrollmentsMarksEachCourse(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.StudentEmail)
	f.enroll(9)
	f.enroll(11)

	require.NoError(t, f.store.Enrollments.FetchEnrollments(context.Background()))

	snap := f.store.Enrollments.Snapshot()
	require.Len(t, snap.Enrollments, 2)
	assert.Equal(t, map[int64]bool{9: true, 11: true}, snap.Status)
	assert.True(t, f.store.Select.IsEnrolled(11))
	assert.False(t, f.store.Select.IsEnrolled(10))

	e, ok := f.store.Enrollments.EnrollmentFor(11)
	require.True(t, ok)
	assert.Equal(t, int64(11), e.Course.ID)
}

func TestEnrollmentChecksArePerCourse(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.StudentEmail)
	f.enroll(9)
	enr := f.store.Enrollments
	ctx := context.Background()

	arrived, release := f.srv.Gate(http.MethodGet, "/api/enrollments/check/:courseId/")
	slow := make(chan error, 1)
	go func() { slow <- enr.CheckEnrollment(ctx, 9) }()
	<-arrived

	require.NoError(t, enr.CheckEnrollment(ctx, 10))
	snap := enr.Snapshot()
	assert.Equal(t, StatusPending, snap.Checks[9].Status)
	assert.Equal(t, StatusSucceeded, snap.Checks[10].Status)
	enrolled, known := enr.Known(10)
	assert.True(t, known)
	assert.False(t, enrolled)

	release()
	require.NoError(t, <-slow)
	assert.True(t, enr.IsEnrolled(9))
	assert.Equal(t, StatusSucceeded, enr.Snapshot().Checks[9].Status)

	enr.ResetEnrollmentStatus(9)
	assert.False(t, enr.IsEnrolled(9))
	_, known = enr.Known(9)
	assert.False(t, known)
}

func TestAddEnrollmentPrepends(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.StudentEmail)
	f.enroll(10)
	require.NoError(t, f.store.Enrollments.FetchEnrollments(context.Background()))

	added := f.store.Enrollments.Snapshot().Enrollments[0]
	added.ID = 777
	added.Course.ID = 11
	f.store.Enrollments.AddEnrollment(added)

	snap := f.store.Enrollments.Snapshot()
	require.Len(t, snap.Enrollments, 2)
	assert.Equal(t, int64(777), snap.Enrollments[0].ID)
	assert.True(t, snap.Status[11])
}
