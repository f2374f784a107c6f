package state

import (
	"context"
	"strconv"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/logger"
)

const sliceProgress = "progress"

type ProgressState struct {
	Progress    *domain.CourseProgress
	Enrollments []domain.Enrollment
	Fetch       Op
	List        Op
	// Marks tracks complete/incomplete requests per lesson id.
	Marks map[int64]Op
}

type ProgressSlice struct {
	core
	api ProgressAPI

	progress    *domain.CourseProgress
	enrollments []domain.Enrollment
	fetch       Op
	list        Op
	marks       map[int64]*Op
}

func newProgressSlice(a ProgressAPI, log *logger.Logger, n notifier) *ProgressSlice {
	return &ProgressSlice{
		core:  newCore(sliceProgress, log, n),
		api:   a,
		fetch: idle(),
		list:  idle(),
		marks: map[int64]*Op{},
	}
}

func (s *ProgressSlice) Snapshot() ProgressState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := ProgressState{Fetch: s.fetch, List: s.list, Marks: copyOps(s.marks)}
	if s.progress != nil {
		p := s.progress.Clone()
		out.Progress = &p
	}
	out.Enrollments = make([]domain.Enrollment, len(s.enrollments))
	for i, e := range s.enrollments {
		out.Enrollments[i] = e.Clone()
	}
	return out
}

func (s *ProgressSlice) FetchCourseProgress(ctx context.Context, courseID int64) error {
	gen := s.begin("fetchCourseProgress", &s.fetch, true)
	p, err := s.api.CourseProgress(ctx, courseID)
	return s.finish("fetchCourseProgress", gen, err, fixed(&s.fetch), func() {
		if p.CourseID == 0 {
			p.CourseID = courseID
		}
		s.progress = &p
	})
}

func (s *ProgressSlice) FetchAllEnrollments(ctx context.Context) error {
	gen := s.begin("fetchAllEnrollments", &s.list, true)
	list, err := s.api.Enrollments(ctx)
	return s.finish("fetchAllEnrollments", gen, err, fixed(&s.list), func() {
		s.enrollments = list
	})
}

func (s *ProgressSlice) MarkLessonCompleted(ctx context.Context, enrollmentID, lessonID int64) error {
	return s.mark(ctx, enrollmentID, lessonID, true)
}

func (s *ProgressSlice) MarkLessonIncomplete(ctx context.Context, enrollmentID, lessonID int64) error {
	return s.mark(ctx, enrollmentID, lessonID, false)
}

// mark applies the server's counters verbatim. Local state changes only when
// the lesson is part of the loaded progress.
func (s *ProgressSlice) mark(ctx context.Context, enrollmentID, lessonID int64, completed bool) error {
	key := "markLesson:" + strconv.FormatInt(lessonID, 10)
	s.mu.Lock()
	t := s.beginLocked(key, itemOp(s.marks, lessonID), false)
	s.mu.Unlock()

	res, err := s.api.MarkLesson(ctx, enrollmentID, lessonID, completed)
	return s.finish(key, t, err, func() *Op { return itemOp(s.marks, lessonID) }, func() {
		if s.progress != nil {
			idx := -1
			for i, l := range s.progress.Lessons {
				if l.ID == lessonID {
					idx = i
					break
				}
			}
			if idx >= 0 {
				p := s.progress.Clone()
				p.Lessons[idx].IsCompleted = completed
				p.CompletedLessons = res.CompletedLessons
				p.ProgressPercentage = res.Progress
				p.IsCourseCompleted = res.IsCourseCompleted
				s.progress = &p
			}
		}
		for i := range s.enrollments {
			if s.enrollments[i].ID == enrollmentID {
				e := s.enrollments[i].Clone()
				e.ProgressPercentage = res.Progress
				e.IsCompleted = res.IsCourseCompleted
				s.enrollments = replaceByID(s.enrollments, enrollmentID, enrollmentKey, e)
				break
			}
		}
	})
}

// NextLesson is the first incomplete lesson of the loaded progress, or the
// first lesson when all are complete.
func (s *ProgressSlice) NextLesson() (domain.Lesson, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.progress == nil || len(s.progress.Lessons) == 0 {
		return domain.Lesson{}, false
	}
	for _, l := range s.progress.Lessons {
		if !l.IsCompleted {
			return l, true
		}
	}
	return s.progress.Lessons[0], true
}

func (s *ProgressSlice) Reset() {
	s.mu.Lock()
	s.invalidateLocked()
	s.progress = nil
	s.enrollments = nil
	s.fetch = idle()
	s.list = idle()
	s.marks = map[int64]*Op{}
	s.mu.Unlock()
	s.emit("reset")
}

func enrollmentKey(e domain.Enrollment) int64 { return e.ID }
