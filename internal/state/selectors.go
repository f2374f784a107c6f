package state

import (
	"sync"
	"sync/atomic"

	"github.com/yungbote/coursemarket/internal/domain"
)

// Memo caches one derived value per key and recomputes it only when the
// version stamp it was computed from changes. Stamps only grow, so a miss at a
// newer stamp evicts every entry computed at an older one.
type Memo[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]memoEntry[V]
	hits    atomic.Int64
	misses  atomic.Int64
}

type memoEntry[V any] struct {
	stamp [2]uint64
	value V
}

func NewMemo[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{entries: map[K]memoEntry[V]{}}
}

// Get returns the cached value for key when it was computed at stamp,
// otherwise calls compute and caches its result.
func (m *Memo[K, V]) Get(key K, stamp [2]uint64, compute func() V) V {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok && e.stamp == stamp {
		m.hits.Add(1)
		return e.value
	}
	m.misses.Add(1)
	v := compute()
	for k, e := range m.entries {
		if e.stamp != stamp && e.stamp[0] <= stamp[0] && e.stamp[1] <= stamp[1] {
			delete(m.entries, k)
		}
	}
	m.entries[key] = memoEntry[V]{stamp: stamp, value: v}
	return v
}

// Len reports how many values are cached.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memo[K, V]) Hits() int64   { return m.hits.Load() }
func (m *Memo[K, V]) Misses() int64 { return m.misses.Load() }

// Selectors derives cross-entity views from the slices. Memoized results are
// shared between callers and must be treated as read-only.
type Selectors struct {
	curriculum  *CurriculumSlice
	enrollments *EnrollmentSlice
	payments    *PaymentSlice

	SectionsWithLessonsMemo *Memo[int64, []domain.SectionWithLessons]
	LessonsBySectionMemo    *Memo[int64, []domain.Lesson]
	LessonsByCourseMemo     *Memo[int64, []domain.Lesson]
}

func newSelectors(cur *CurriculumSlice, enr *EnrollmentSlice, pay *PaymentSlice) *Selectors {
	return &Selectors{
		curriculum:              cur,
		enrollments:             enr,
		payments:                pay,
		SectionsWithLessonsMemo: NewMemo[int64, []domain.SectionWithLessons](),
		LessonsBySectionMemo:    NewMemo[int64, []domain.Lesson](),
		LessonsByCourseMemo:     NewMemo[int64, []domain.Lesson](),
	}
}

// curriculumView captures both collections with their versions in one read.
// Collections are replaced, never edited in place, so the captured slices stay valid.
func (sel *Selectors) curriculumView() (secs []domain.Section, lessons []domain.Lesson, stamp [2]uint64) {
	c := sel.curriculum
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.Sections, c.st.Lessons, [2]uint64{c.sectionsVer, c.lessonsVer}
}

// SectionsWithLessons joins the sections of courseID with their lessons,
// keeping server order for both.
func (sel *Selectors) SectionsWithLessons(courseID int64) []domain.SectionWithLessons {
	secs, lessons, stamp := sel.curriculumView()
	return sel.SectionsWithLessonsMemo.Get(courseID, stamp, func() []domain.SectionWithLessons {
		out := []domain.SectionWithLessons{}
		for _, sec := range secs {
			if sec.Course != courseID {
				continue
			}
			row := domain.SectionWithLessons{Section: sec, Lectures: []domain.Lesson{}}
			for _, l := range lessons {
				if l.Section == sec.ID {
					row.Lectures = append(row.Lectures, l)
				}
			}
			out = append(out, row)
		}
		return out
	})
}

// LessonsBySection filters cached lessons by section, whatever the viewer's role.
func (sel *Selectors) LessonsBySection(sectionID int64) []domain.Lesson {
	_, lessons, stamp := sel.curriculumView()
	return sel.LessonsBySectionMemo.Get(sectionID, [2]uint64{0, stamp[1]}, func() []domain.Lesson {
		return filterLessons(lessons, func(l domain.Lesson) bool { return l.Section == sectionID })
	})
}

func (sel *Selectors) LessonsByCourse(courseID int64) []domain.Lesson {
	_, lessons, stamp := sel.curriculumView()
	return sel.LessonsByCourseMemo.Get(courseID, [2]uint64{0, stamp[1]}, func() []domain.Lesson {
		return filterLessons(lessons, func(l domain.Lesson) bool { return l.Course == courseID })
	})
}

func filterLessons(in []domain.Lesson, keep func(domain.Lesson) bool) []domain.Lesson {
	out := []domain.Lesson{}
	for _, l := range in {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func (sel *Selectors) SectionByID(sectionID int64) (domain.Section, bool) {
	secs, _, _ := sel.curriculumView()
	for _, s := range secs {
		if s.ID == sectionID {
			return s, true
		}
	}
	return domain.Section{}, false
}

func (sel *Selectors) LessonByID(lessonID int64) (domain.Lesson, bool) {
	_, lessons, _ := sel.curriculumView()
	for _, l := range lessons {
		if l.ID == lessonID {
			return l, true
		}
	}
	return domain.Lesson{}, false
}

// IsEnrolled is false for any course without a recorded answer.
func (sel *Selectors) IsEnrolled(courseID int64) bool {
	return sel.enrollments.IsEnrolled(courseID)
}

// LessonVisible reports whether the viewer may open lesson: previews are open
// to everyone, the rest only to enrolled students.
func (sel *Selectors) LessonVisible(l domain.Lesson) bool {
	return l.IsPreview || sel.IsEnrolled(l.Course)
}

// HistoryWindow is the loaded payment-history page with navigation hints.
type HistoryWindow struct {
	Results     []domain.Enrollment
	Pagination  domain.Pagination
	Page        int
	HasNext     bool
	HasPrevious bool
}

func (sel *Selectors) PaymentHistoryWindow() HistoryWindow {
	st := sel.payments.Snapshot()
	page := st.HistoryPage
	if page < 1 {
		page = 1
	}
	return HistoryWindow{
		Results:     st.History,
		Pagination:  st.HistoryPagination,
		Page:        page,
		HasNext:     st.HistoryPagination.Next != nil && *st.HistoryPagination.Next != "",
		HasPrevious: st.HistoryPagination.Previous != nil && *st.HistoryPagination.Previous != "",
	}
}
