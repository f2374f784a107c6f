package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/logger"
)

// DefaultPageSize is the course page size requested by Bootstrap.
const DefaultPageSize = 16

type Options struct {
	Logger *logger.Logger
	// Uploader publishes avatar and banner files; nil sends files inline.
	Uploader Uploader
	// Verifier confirms payment intents for CompleteCheckout.
	Verifier       IntentVerifier
	SearchDebounce time.Duration
}

// Store is the root of the client state. Every slice is created once here.
type Store struct {
	Auth        *AuthSlice
	Courses     *CourseSlice
	Curriculum  *CurriculumSlice
	Enrollments *EnrollmentSlice
	Payments    *PaymentSlice
	Progress    *ProgressSlice
	Reviews     *ReviewSlice
	Dashboard   *DashboardSlice
	Select      *Selectors

	log    *logger.Logger
	search *Debouncer

	subMu   sync.RWMutex
	subs    map[int]func(Change)
	nextSub int
}

func New(a API, sess Session, opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{
		log:    log.With("component", "Store"),
		search: NewDebouncer(opts.SearchDebounce),
		subs:   map[int]func(Change){},
	}
	n := s.publish
	s.Auth = newAuthSlice(a, sess, opts.Uploader, log, n)
	s.Courses = newCourseSlice(a, s.Auth.Token, opts.Uploader, log, n)
	s.Curriculum = newCurriculumSlice(a, log, n)
	s.Enrollments = newEnrollmentSlice(a, log, n)
	s.Payments = newPaymentSlice(a, opts.Verifier, s.Enrollments, log, n)
	s.Payments.onPaid = func(courseID int64, _ domain.Enrollment) { s.Courses.bumpStudents(courseID) }
	s.Progress = newProgressSlice(a, log, n)
	s.Reviews = newReviewSlice(a, log, n)
	s.Dashboard = newDashboardSlice(a, log, n)
	s.Select = newSelectors(s.Curriculum, s.Enrollments, s.Payments)
	sess.OnUnauthorized(s.resetUserScoped)
	return s
}

// Subscribe registers fn for every applied change. fn runs on the goroutine
// that applied the change and must not block.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(c Change) {
	s.subMu.RLock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()
	for _, fn := range fns {
		fn(c)
	}
}

// Bootstrap verifies a persisted token, then loads categories and the first
// course page concurrently. A failure in one load does not cancel the other;
// all failures are returned joined.
func (s *Store) Bootstrap(ctx context.Context) error {
	var errs []error
	if s.Auth.IsAuthenticated() {
		if err := s.Auth.VerifyToken(ctx); err != nil {
			s.log.Warn("stored session rejected", "error", err)
			errs = append(errs, fmt.Errorf("verify token: %w", err))
		}
	}

	var (
		g             errgroup.Group
		catErr, crErr error
	)
	g.Go(func() error {
		catErr = s.Courses.FetchCategories(ctx)
		return nil
	})
	g.Go(func() error {
		crErr = s.Courses.FetchCourses(ctx, domain.CourseQuery{Page: 1, Limit: DefaultPageSize})
		return nil
	})
	_ = g.Wait()
	if catErr != nil {
		errs = append(errs, fmt.Errorf("fetch categories: %w", catErr))
	}
	if crErr != nil {
		errs = append(errs, fmt.Errorf("fetch courses: %w", crErr))
	}
	return errors.Join(errs...)
}

// SearchCourses schedules a course fetch for q after the debounce delay. Only
// the last query of a burst is sent; its error, if any, goes to done.
func (s *Store) SearchCourses(ctx context.Context, q domain.CourseQuery, done func(error)) {
	s.search.Trigger(func() {
		err := s.Courses.FetchCourses(ctx, q)
		if errors.Is(err, ErrStale) {
			err = nil
		}
		if err != nil {
			s.log.Warn("course search failed", "error", err)
		}
		if done != nil {
			done(err)
		}
	})
}

// Logout signs out and drops everything tied to the user.
func (s *Store) Logout(ctx context.Context) error {
	s.search.Stop()
	err := s.Auth.Logout(ctx)
	s.resetUserScoped()
	return err
}

func (s *Store) resetUserScoped() {
	s.Enrollments.Reset()
	s.Payments.reset()
	s.Progress.Reset()
	s.Dashboard.Reset()
}
