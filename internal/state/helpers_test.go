package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursemarket/internal/api"
	"github.com/yungbote/coursemarket/internal/api/client"
	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/session"
	"github.com/yungbote/coursemarket/internal/testutil/fakeapi"
)

type fixture struct {
	srv   *fakeapi.Server
	sess  *session.Session
	creds *session.MemoryStore
	store *Store
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	creds := session.NewMemoryStore()
	f := newFixtureWithStore(t, opts, creds)
	f.creds = creds
	return f
}

func newFixtureWithStore(t *testing.T, opts Options, creds session.Store) *fixture {
	t.Helper()
	srv := fakeapi.New(t)
	sess, err := session.New(context.Background(), creds, nil)
	require.NoError(t, err)
	c, err := client.New(client.Options{BaseURL: srv.BaseURL(), Session: sess, Timeout: 5 * time.Second})
	require.NoError(t, err)
	if opts.SearchDebounce == 0 {
		opts.SearchDebounce = 20 * time.Millisecond
	}
	return &fixture{srv: srv, sess: sess, store: New(api.New(c), sess, opts)}
}

func (f *fixture) login(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, f.store.Auth.Login(context.Background(), domain.LoginInput{Email: email, Password: fakeapi.Password}))
	require.True(t, f.sess.IsAuthenticated())
}

// enroll gives the student an enrollment in courseID directly on the server.
func (f *fixture) enroll(courseID int64) int64 {
	var id int64
	f.srv.Mutate(func(db *fakeapi.DB) {
		id = db.NextID()
		db.Enrollments = append(db.Enrollments, domain.Enrollment{
			ID:       id,
			Course:   domain.CourseRef{ID: courseID},
			Student:  domain.UserRef{ID: 2},
			IsActive: true,
		})
	})
	return id
}

func courseIDs(cs []domain.Course) []int64 {
	out := make([]int64, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func validCourseInput(title string) domain.CourseInput {
	return domain.CourseInput{
		Title:       title,
		Description: "A course",
		Price:       19.5,
		Duration:    "4 hours",
		Level:       domain.LevelBeginner,
		CategoryID:  1,
	}
}
