package state

import (
	"context"
	"slices"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/logger"
	"github.com/yungbote/coursemarket/internal/validation"
)

const sliceCurriculum = "curriculum"

type CurriculumOps struct {
	Course          Op
	Sections        Op
	Lessons         Op
	SectionMutation Op
	LessonMutation  Op
}

// CurriculumItem is the section or lesson being edited. Exactly one is set.
type CurriculumItem struct {
	Section *domain.Section
	Lesson  *domain.Lesson
}

type CurriculumState struct {
	Course      *domain.Course
	Sections    []domain.Section
	Lessons     []domain.Lesson
	CurrentItem *CurriculumItem
	Ops         CurriculumOps
}

type CurriculumSlice struct {
	core
	api CurriculumAPI

	st CurriculumState
	// versions stamp the collections for memoized selectors.
	sectionsVer uint64
	lessonsVer  uint64
}

func newCurriculumSlice(a CurriculumAPI, log *logger.Logger, n notifier) *CurriculumSlice {
	s := &CurriculumSlice{core: newCore(sliceCurriculum, log, n), api: a}
	s.st.Ops = CurriculumOps{Course: idle(), Sections: idle(), Lessons: idle(), SectionMutation: idle(), LessonMutation: idle()}
	return s
}

func (s *CurriculumSlice) Snapshot() CurriculumState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.st
	if s.st.Course != nil {
		c := s.st.Course.Clone()
		out.Course = &c
	}
	out.Sections = slices.Clone(s.st.Sections)
	out.Lessons = slices.Clone(s.st.Lessons)
	if s.st.CurrentItem != nil {
		out.CurrentItem = s.st.CurrentItem.clone()
	}
	return out
}

func (it *CurriculumItem) clone() *CurriculumItem {
	out := &CurriculumItem{}
	if it.Section != nil {
		v := *it.Section
		out.Section = &v
	}
	if it.Lesson != nil {
		v := *it.Lesson
		out.Lesson = &v
	}
	return out
}

func (s *CurriculumSlice) versions() (uint64, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sectionsVer, s.lessonsVer
}

func (s *CurriculumSlice) FetchCourse(ctx context.Context, courseID int64) error {
	gen := s.begin("fetchCourse", &s.st.Ops.Course, true)
	detail, err := s.api.Course(ctx, courseID)
	return s.finish("fetchCourse", gen, err, fixed(&s.st.Ops.Course), func() {
		c := detail.Course
		s.st.Course = &c
	})
}

func (s *CurriculumSlice) FetchSections(ctx context.Context, courseID int64) error {
	gen := s.begin("fetchSections", &s.st.Ops.Sections, true)
	secs, err := s.api.Sections(ctx, courseID)
	return s.finish("fetchSections", gen, err, fixed(&s.st.Ops.Sections), func() {
		s.st.Sections = secs
		s.sectionsVer++
	})
}

func (s *CurriculumSlice) CreateSection(ctx context.Context, in domain.SectionInput) (domain.Section, error) {
	const key = "createSection"
	if err := validation.Struct(in); err != nil {
		return domain.Section{}, s.reject(key, &s.st.Ops.SectionMutation, err)
	}
	t := s.begin(key, &s.st.Ops.SectionMutation, false)
	sec, err := s.api.CreateSection(ctx, in)
	err = s.finish(key, t, err, fixed(&s.st.Ops.SectionMutation), func() {
		s.st.Sections = append(append([]domain.Section(nil), s.st.Sections...), sec)
		s.sectionsVer++
	})
	return sec, err
}

func (s *CurriculumSlice) UpdateSection(ctx context.Context, sectionID int64, in domain.SectionInput) (domain.Section, error) {
	const key = "updateSection"
	if err := validation.Struct(in); err != nil {
		return domain.Section{}, s.reject(key, &s.st.Ops.SectionMutation, err)
	}
	t := s.begin(key, &s.st.Ops.SectionMutation, false)
	sec, err := s.api.UpdateSection(ctx, sectionID, in)
	err = s.finish(key, t, err, fixed(&s.st.Ops.SectionMutation), func() {
		s.st.Sections = replaceByID(s.st.Sections, sectionID, sectionKey, sec)
		if it := s.st.CurrentItem; it != nil && it.Section != nil && it.Section.ID == sectionID {
			v := sec
			s.st.CurrentItem = &CurriculumItem{Section: &v}
		}
		s.sectionsVer++
	})
	return sec, err
}

// DeleteSection removes the section and the cached lessons that belonged to it.
func (s *CurriculumSlice) DeleteSection(ctx context.Context, sectionID int64) error {
	const key = "deleteSection"
	t := s.begin(key, &s.st.Ops.SectionMutation, false)
	err := s.api.DeleteSection(ctx, sectionID)
	return s.finish(key, t, err, fixed(&s.st.Ops.SectionMutation), func() {
		s.st.Sections = removeByID(s.st.Sections, sectionID, sectionKey)
		kept := make([]domain.Lesson, 0, len(s.st.Lessons))
		for _, l := range s.st.Lessons {
			if l.Section != sectionID {
				kept = append(kept, l)
			}
		}
		if len(kept) != len(s.st.Lessons) {
			s.st.Lessons = kept
			s.lessonsVer++
		}
		if it := s.st.CurrentItem; it != nil {
			if (it.Section != nil && it.Section.ID == sectionID) || (it.Lesson != nil && it.Lesson.Section == sectionID) {
				s.st.CurrentItem = nil
			}
		}
		s.sectionsVer++
	})
}

func (s *CurriculumSlice) FetchLessons(ctx context.Context, f domain.LessonFilter) error {
	gen := s.begin("fetchLessons", &s.st.Ops.Lessons, true)
	lessons, err := s.api.Lessons(ctx, f)
	return s.finish("fetchLessons", gen, err, fixed(&s.st.Ops.Lessons), func() {
		s.st.Lessons = lessons
		s.lessonsVer++
	})
}

func (s *CurriculumSlice) CreateLesson(ctx context.Context, in domain.LessonInput) (domain.Lesson, error) {
	const key = "createLesson"
	if err := validation.Struct(in); err != nil {
		return domain.Lesson{}, s.reject(key, &s.st.Ops.LessonMutation, err)
	}
	t := s.begin(key, &s.st.Ops.LessonMutation, false)
	l, err := s.api.CreateLesson(ctx, in)
	err = s.finish(key, t, err, fixed(&s.st.Ops.LessonMutation), func() {
		s.st.Lessons = append(append([]domain.Lesson(nil), s.st.Lessons...), l)
		s.lessonsVer++
	})
	return l, err
}

func (s *CurriculumSlice) UpdateLesson(ctx context.Context, lessonID int64, in domain.LessonInput) (domain.Lesson, error) {
	const key = "updateLesson"
	if err := validation.Struct(in); err != nil {
		return domain.Lesson{}, s.reject(key, &s.st.Ops.LessonMutation, err)
	}
	t := s.begin(key, &s.st.Ops.LessonMutation, false)
	l, err := s.api.UpdateLesson(ctx, lessonID, in)
	err = s.finish(key, t, err, fixed(&s.st.Ops.LessonMutation), func() {
		s.st.Lessons = replaceByID(s.st.Lessons, lessonID, lessonKey, l)
		if it := s.st.CurrentItem; it != nil && it.Lesson != nil && it.Lesson.ID == lessonID {
			v := l
			s.st.CurrentItem = &CurriculumItem{Lesson: &v}
		}
		s.lessonsVer++
	})
	return l, err
}

func (s *CurriculumSlice) DeleteLesson(ctx context.Context, lessonID int64) error {
	const key = "deleteLesson"
	t := s.begin(key, &s.st.Ops.LessonMutation, false)
	err := s.api.DeleteLesson(ctx, lessonID)
	return s.finish(key, t, err, fixed(&s.st.Ops.LessonMutation), func() {
		s.st.Lessons = removeByID(s.st.Lessons, lessonID, lessonKey)
		if it := s.st.CurrentItem; it != nil && it.Lesson != nil && it.Lesson.ID == lessonID {
			s.st.CurrentItem = nil
		}
		s.lessonsVer++
	})
}

func (s *CurriculumSlice) SetCurrentSection(sec domain.Section) {
	s.setCurrent(&CurriculumItem{Section: &sec})
}

func (s *CurriculumSlice) SetCurrentLesson(l domain.Lesson) {
	s.setCurrent(&CurriculumItem{Lesson: &l})
}

func (s *CurriculumSlice) ClearCurrentItem() { s.setCurrent(nil) }

func (s *CurriculumSlice) setCurrent(it *CurriculumItem) {
	s.mu.Lock()
	s.st.CurrentItem = it
	s.mu.Unlock()
	s.emit("setCurrentItem")
}

func (s *CurriculumSlice) Reset() {
	s.mu.Lock()
	s.invalidateLocked()
	s.st = CurriculumState{Ops: CurriculumOps{Course: idle(), Sections: idle(), Lessons: idle(), SectionMutation: idle(), LessonMutation: idle()}}
	s.sectionsVer++
	s.lessonsVer++
	s.mu.Unlock()
	s.emit("reset")
}

func sectionKey(sec domain.Section) int64 { return sec.ID }
func lessonKey(l domain.Lesson) int64     { return l.ID }
