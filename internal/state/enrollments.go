package state

import (
	"context"
	"strconv"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/logger"
)

const sliceEnrollments = "enrollments"

type EnrollmentState struct {
	Enrollments []domain.Enrollment
	// Status holds the last known enrollment answer per course id. A missing key
	// means unknown, which reads as not enrolled.
	Status map[int64]bool
	List   Op
	Checks map[int64]Op
}

type EnrollmentSlice struct {
	core
	api EnrollmentAPI

	enrollments []domain.Enrollment
	status      map[int64]bool
	list        Op
	checks      map[int64]*Op
}

func newEnrollmentSlice(a EnrollmentAPI, log *logger.Logger, n notifier) *EnrollmentSlice {
	return &EnrollmentSlice{
		core:   newCore(sliceEnrollments, log, n),
		api:    a,
		status: map[int64]bool{},
		list:   idle(),
		checks: map[int64]*Op{},
	}
}

func (s *EnrollmentSlice) Snapshot() EnrollmentState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := EnrollmentState{
		Enrollments: make([]domain.Enrollment, len(s.enrollments)),
		Status:      make(map[int64]bool, len(s.status)),
		List:        s.list,
		Checks:      copyOps(s.checks),
	}
	for i, e := range s.enrollments {
		out.Enrollments[i] = e.Clone()
	}
	for k, v := range s.status {
		out.Status[k] = v
	}
	return out
}

// FetchEnrollments replaces the list and marks every listed course enrolled.
func (s *EnrollmentSlice) FetchEnrollments(ctx context.Context) error {
	gen := s.begin("fetchEnrollments", &s.list, true)
	list, err := s.api.Enrollments(ctx)
	return s.finish("fetchEnrollments", gen, err, fixed(&s.list), func() {
		s.enrollments = list
		for _, e := range list {
			s.status[e.Course.ID] = true
		}
	})
}

// CheckEnrollment asks the server whether the user is enrolled in courseID.
// Checks for different courses run independently.
func (s *EnrollmentSlice) CheckEnrollment(ctx context.Context, courseID int64) error {
	key := "checkEnrollment:" + strconv.FormatInt(courseID, 10)
	s.mu.Lock()
	gen := s.beginLocked(key, itemOp(s.checks, courseID), true)
	s.mu.Unlock()

	enrolled, err := s.api.CheckEnrollment(ctx, courseID)
	return s.finish(key, gen, err, func() *Op { return itemOp(s.checks, courseID) }, func() {
		s.status[courseID] = enrolled
	})
}

// AddEnrollment records an enrollment produced elsewhere (a completed payment).
func (s *EnrollmentSlice) AddEnrollment(e domain.Enrollment) {
	s.mu.Lock()
	s.addLocked(e)
	s.mu.Unlock()
	s.emit("addEnrollment")
}

// addInEpoch adds e only if the slice was not reset since epoch was read.
func (s *EnrollmentSlice) addInEpoch(epoch uint64, e domain.Enrollment) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.log.Debug("dropping enrollment from before reset", "course_id", e.Course.ID)
		return false
	}
	s.addLocked(e)
	s.mu.Unlock()
	s.emit("addEnrollment")
	return true
}

func (s *EnrollmentSlice) addLocked(e domain.Enrollment) {
	s.enrollments = append([]domain.Enrollment{e.Clone()}, s.enrollments...)
	s.status[e.Course.ID] = true
}

func (s *EnrollmentSlice) ResetEnrollmentStatus(courseID int64) {
	s.mu.Lock()
	s.gens["checkEnrollment:"+strconv.FormatInt(courseID, 10)]++
	delete(s.status, courseID)
	delete(s.checks, courseID)
	s.mu.Unlock()
	s.emit("resetEnrollmentStatus")
}

func (s *EnrollmentSlice) Reset() {
	s.mu.Lock()
	s.invalidateLocked()
	s.enrollments = nil
	s.status = map[int64]bool{}
	s.list = idle()
	s.checks = map[int64]*Op{}
	s.mu.Unlock()
	s.emit("reset")
}

func (s *EnrollmentSlice) ClearErrors() {
	s.mu.Lock()
	s.list.Err = nil
	for _, op := range s.checks {
		op.Err = nil
	}
	s.mu.Unlock()
	s.emit("clearErrors")
}

// IsEnrolled fails closed: unknown courses are not enrolled.
func (s *EnrollmentSlice) IsEnrolled(courseID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[courseID]
}

// Known reports the recorded answer for courseID and whether there is one.
func (s *EnrollmentSlice) Known(courseID int64) (enrolled, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enrolled, ok = s.status[courseID]
	return enrolled, ok
}

// recordInEpoch stores an answer obtained by another slice, unless this slice
// was reset since epoch was read.
func (s *EnrollmentSlice) recordInEpoch(epoch uint64, courseID int64, enrolled bool) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.status[courseID] = enrolled
	s.mu.Unlock()
	s.emit("recordEnrollmentStatus")
}

// EnrollmentFor returns the cached enrollment of courseID, if any.
func (s *EnrollmentSlice) EnrollmentFor(courseID int64) (domain.Enrollment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.enrollments {
		if e.Course.ID == courseID {
			return e.Clone(), true
		}
	}
	return domain.Enrollment{}, false
}
