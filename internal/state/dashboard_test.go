package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursemarket/internal/platform/apierr"
	"github.com/yungbote/coursemarket/internal/testutil/fakeapi"
)

func TestTeacherDashboard(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.TeacherEmail)
	d := f.store.Dashboard

	require.NoError(t, d.FetchTeacherDashboard(context.Background()))
	snap := d.Snapshot()
	require.NotNil(t, snap.Dashboard)
	assert.Equal(t, "Grace Hopper", snap.Dashboard.Teacher.Name)
	assert.Equal(t, 3, snap.Dashboard.Stats.TotalCourses)
	assert.Equal(t, 2, snap.Dashboard.Stats.ActiveCourses)
	assert.Equal(t, 1, snap.Dashboard.InactiveCourses())
	assert.Len(t, snap.Dashboard.Courses, 3)

	d.Reset()
	assert.Nil(t, d.Snapshot().Dashboard)
}

func TestDashboardForbiddenForStudents(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.StudentEmail)

	err := f.store.Dashboard.FetchTeacherDashboard(context.Background())
	assert.True(t, apierr.IsForbidden(err))
	snap := f.store.Dashboard.Snapshot()
	assert.Equal(t, StatusFailed, snap.Op.Status)
	assert.Equal(t, "Teacher access required", snap.Op.Err.Message)
	assert.True(t, f.store.Auth.IsAuthenticated())
}
