package state

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/testutil/fakeapi"
)

func TestBootstrapLoadsCatalog(t *testing.T) {
	f := newFixture(t, Options{})
	require.NoError(t, f.store.Bootstrap(context.Background()))

	snap := f.store.Courses.Snapshot()
	assert.Len(t, snap.Categories, 2)
	assert.Len(t, snap.Courses, 3)
	assert.Equal(t, DefaultPageSize, snap.Query.Limit)
	assert.Zero(t, f.srv.Hits(http.MethodGet, "/api/users/verify-token/"))
}

func TestBootstrapFailureDoesNotCancelSibling(t *testing.T) {
	f := newFixture(t, Options{})
	f.srv.Fail(http.MethodGet, "/api/categories/", http.StatusBadGateway, gin.H{"detail": "upstream"})

	err := f.store.Bootstrap(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch categories")
	assert.NotContains(t, err.Error(), "fetch courses")

	snap := f.store.Courses.Snapshot()
	assert.Len(t, snap.Courses, 3)
	assert.Equal(t, StatusFailed, snap.Ops.Categories.Status)
}

func TestBootstrapVerifiesStoredToken(t *testing.T) {
	f := newFixture(t, Options{})
	f.login(t, fakeapi.TeacherEmail)
	require.NoError(t, f.store.Bootstrap(context.Background()))
	assert.Equal(t, "Grace Hopper", f.store.Auth.Snapshot().User.FullName)

	f.srv.RevokeAll()
	err := f.store.Bootstrap(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify token")
	assert.False(t, f.store.Auth.IsAuthenticated())
	assert.Len(t, f.store.Courses.Snapshot().Courses, 3)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	f := newFixture(t, Options{})
	var (
		mu   sync.Mutex
		seen []Change
	)
	unsub := f.store.Subscribe(func(c Change) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})

	require.NoError(t, f.store.Courses.FetchCategories(context.Background()))
	f.store.Curriculum.ClearCurrentItem()
	unsub()
	require.NoError(t, f.store.Courses.FetchCategories(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Change{
		{Slice: sliceCourses, Op: "fetchCategories"},
		{Slice: sliceCurriculum, Op: "setCurrentItem"},
	}, seen)
}

func TestSearchCoursesDebounces(t *testing.T) {
	f := newFixture(t, Options{SearchDebounce: 30 * time.Millisecond})
	done := make(chan error, 3)
	var calls atomic.Int32
	finish := func(err error) { calls.Add(1); done <- err }

	for _, term := range []string{"c", "co", "concurrency"} {
		f.store.SearchCourses(context.Background(), domain.CourseQuery{Search: term}, finish)
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced search never ran")
	}
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, f.srv.Hits(http.MethodGet, "/api/courses/"))
	snap := f.store.Courses.Snapshot()
	assert.Equal(t, []int64{10}, courseIDs(snap.Courses))
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	assert.False(t, d.Stop())

	var ran atomic.Bool
	d.Trigger(func() { ran.Store(true) })
	assert.True(t, d.Stop())
	time.Sleep(50 * time.Millisecond)
	assert.False(t, ran.Load())
}
