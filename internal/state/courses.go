package state

import (
	"context"
	"errors"
	"slices"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/apierr"
	"github.com/yungbote/coursemarket/internal/platform/logger"
	"github.com/yungbote/coursemarket/internal/validation"
)

const (
	sliceCourses = "courses"
	msgNoToken   = "No authentication token found"
)

type CourseOps struct {
	List       Op
	Detail     Op
	Categories Op
	Mutation   Op
	Curriculum Op
	Materials  Op
}

type CourseState struct {
	Courses    []domain.Course
	Categories []domain.Category
	Selected   *domain.Course
	// Curriculum and Materials are keyed by course id.
	Curriculum map[int64][]domain.CurriculumSection
	Materials  map[int64][]domain.Material
	Pagination domain.Pagination
	Query      domain.CourseQuery
	Ops        CourseOps
}

type CourseSlice struct {
	core
	api      CourseAPI
	token    func() string
	uploader Uploader

	st CourseState
}

func newCourseSlice(a CourseAPI, token func() string, up Uploader, log *logger.Logger, n notifier) *CourseSlice {
	s := &CourseSlice{core: newCore(sliceCourses, log, n), api: a, token: token, uploader: up}
	s.resetLocked()
	return s
}

func (s *CourseSlice) resetLocked() {
	s.st = CourseState{
		Curriculum: map[int64][]domain.CurriculumSection{},
		Materials:  map[int64][]domain.Material{},
		Ops: CourseOps{
			List: idle(), Detail: idle(), Categories: idle(),
			Mutation: idle(), Curriculum: idle(), Materials: idle(),
		},
	}
}

func (s *CourseSlice) Snapshot() CourseState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.st
	out.Courses = cloneCourses(s.st.Courses)
	out.Categories = slices.Clone(s.st.Categories)
	if s.st.Selected != nil {
		c := s.st.Selected.Clone()
		out.Selected = &c
	}
	out.Curriculum = make(map[int64][]domain.CurriculumSection, len(s.st.Curriculum))
	for k, v := range s.st.Curriculum {
		secs := make([]domain.CurriculumSection, len(v))
		for i, sec := range v {
			secs[i] = sec
			secs[i].Lectures = slices.Clone(sec.Lectures)
		}
		out.Curriculum[k] = secs
	}
	out.Materials = make(map[int64][]domain.Material, len(s.st.Materials))
	for k, v := range s.st.Materials {
		out.Materials[k] = slices.Clone(v)
	}
	return out
}

func cloneCourses(in []domain.Course) []domain.Course {
	if in == nil {
		return nil
	}
	out := make([]domain.Course, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

// FetchCourses replaces the list and its pagination with the page matching q.
func (s *CourseSlice) FetchCourses(ctx context.Context, q domain.CourseQuery) error {
	gen := s.begin("fetchCourses", &s.st.Ops.List, true)
	page, err := s.api.Courses(ctx, q)
	return s.finish("fetchCourses", gen, err, fixed(&s.st.Ops.List), func() {
		s.st.Courses = page.Results
		s.st.Pagination = page.Pagination
		s.st.Query = q
	})
}

func (s *CourseSlice) FetchCategories(ctx context.Context) error {
	gen := s.begin("fetchCategories", &s.st.Ops.Categories, true)
	cats, err := s.api.Categories(ctx)
	return s.finish("fetchCategories", gen, err, fixed(&s.st.Ops.Categories), func() {
		s.st.Categories = cats
	})
}

// FetchCourse loads one course into Selected. The nested curriculum, when the
// server includes it, is cached as well.
func (s *CourseSlice) FetchCourse(ctx context.Context, courseID int64) error {
	gen := s.begin("fetchCourse", &s.st.Ops.Detail, true)
	detail, err := s.api.Course(ctx, courseID)
	return s.finish("fetchCourse", gen, err, fixed(&s.st.Ops.Detail), func() {
		c := detail.Course
		s.st.Selected = &c
		if detail.Curriculum != nil {
			s.st.Curriculum[courseID] = detail.Curriculum
		}
	})
}

func (s *CourseSlice) FetchCurriculum(ctx context.Context, courseID int64) error {
	gen := s.begin("fetchCurriculum", &s.st.Ops.Curriculum, true)
	detail, err := s.api.Course(ctx, courseID)
	return s.finish("fetchCurriculum", gen, err, fixed(&s.st.Ops.Curriculum), func() {
		secs := detail.Curriculum
		if secs == nil {
			secs = []domain.CurriculumSection{}
		}
		s.st.Curriculum[courseID] = secs
	})
}

func (s *CourseSlice) FetchMaterials(ctx context.Context, courseID int64) error {
	gen := s.begin("fetchMaterials", &s.st.Ops.Materials, true)
	mats, err := s.api.Materials(ctx, courseID)
	return s.finish("fetchMaterials", gen, err, fixed(&s.st.Ops.Materials), func() {
		s.st.Materials[courseID] = mats
	})
}

func (s *CourseSlice) requireToken(key string) error {
	if s.token != nil && s.token() != "" {
		return nil
	}
	return s.reject(key, &s.st.Ops.Mutation, apierr.Unexpected(errors.New(msgNoToken), false))
}

func (s *CourseSlice) prepareInput(ctx context.Context, in *domain.CourseInput) error {
	if in.BannerFile == nil || s.uploader == nil {
		return nil
	}
	url, err := s.uploader.Upload(ctx, *in.BannerFile)
	if err != nil {
		return err
	}
	in.Banner, in.BannerFile = url, nil
	return nil
}

// CreateCourse prepends the created course.
func (s *CourseSlice) CreateCourse(ctx context.Context, in domain.CourseInput) (domain.Course, error) {
	const key = "createCourse"
	if err := s.requireToken(key); err != nil {
		return domain.Course{}, err
	}
	if err := validation.Struct(in); err != nil {
		return domain.Course{}, s.reject(key, &s.st.Ops.Mutation, err)
	}
	t := s.begin(key, &s.st.Ops.Mutation, false)
	var created domain.Course
	err := s.prepareInput(ctx, &in)
	if err == nil {
		created, err = s.api.CreateCourse(ctx, in)
	}
	err = s.finish(key, t, err, fixed(&s.st.Ops.Mutation), func() {
		s.st.Courses = append([]domain.Course{created}, s.st.Courses...)
	})
	return created, err
}

// UpdateCourse replaces the course in the list and, when it is selected, Selected.
func (s *CourseSlice) UpdateCourse(ctx context.Context, courseID int64, in domain.CourseInput) (domain.Course, error) {
	const key = "updateCourse"
	if err := validation.Struct(in); err != nil {
		return domain.Course{}, s.reject(key, &s.st.Ops.Mutation, err)
	}
	t := s.begin(key, &s.st.Ops.Mutation, false)
	var updated domain.Course
	err := s.prepareInput(ctx, &in)
	if err == nil {
		updated, err = s.api.UpdateCourse(ctx, courseID, in)
	}
	err = s.finish(key, t, err, fixed(&s.st.Ops.Mutation), func() {
		s.st.Courses = replaceByID(s.st.Courses, courseID, courseKey, updated)
		if s.st.Selected != nil && s.st.Selected.ID == courseID {
			c := updated.Clone()
			s.st.Selected = &c
		}
	})
	return updated, err
}

func (s *CourseSlice) DeleteCourse(ctx context.Context, courseID int64) error {
	const key = "deleteCourse"
	if err := s.requireToken(key); err != nil {
		return err
	}
	t := s.begin(key, &s.st.Ops.Mutation, false)
	err := s.api.DeleteCourse(ctx, courseID)
	return s.finish(key, t, err, fixed(&s.st.Ops.Mutation), func() {
		s.st.Courses = removeByID(s.st.Courses, courseID, courseKey)
		if s.st.Selected != nil && s.st.Selected.ID == courseID {
			s.st.Selected = nil
		}
		delete(s.st.Curriculum, courseID)
		delete(s.st.Materials, courseID)
	})
}

// CreateCategory appends the new category.
func (s *CourseSlice) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	const key = "createCategory"
	if name == "" {
		return domain.Category{}, s.reject(key, &s.st.Ops.Mutation, apierr.Validation(map[string]string{"name": "This field is required."}))
	}
	t := s.begin(key, &s.st.Ops.Mutation, false)
	cat, err := s.api.CreateCategory(ctx, name)
	err = s.finish(key, t, err, fixed(&s.st.Ops.Mutation), func() {
		s.st.Categories = append(append([]domain.Category(nil), s.st.Categories...), cat)
	})
	return cat, err
}

func (s *CourseSlice) ClearSelected() {
	s.mu.Lock()
	s.gens["fetchCourse"]++
	s.st.Selected = nil
	s.st.Ops.Detail = idle()
	s.mu.Unlock()
	s.emit("clearSelected")
}

// Reset also invalidates every read still in flight.
func (s *CourseSlice) Reset() {
	s.mu.Lock()
	s.invalidateLocked()
	s.resetLocked()
	s.mu.Unlock()
	s.emit("reset")
}

// CourseByID looks in the list first, then at Selected.
func (s *CourseSlice) CourseByID(courseID int64) (domain.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.st.Courses {
		if c.ID == courseID {
			return c.Clone(), true
		}
	}
	if s.st.Selected != nil && s.st.Selected.ID == courseID {
		return s.st.Selected.Clone(), true
	}
	return domain.Course{}, false
}

func (s *CourseSlice) CategoryByID(categoryID int64) (domain.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.st.Categories {
		if c.ID == categoryID {
			return c, true
		}
	}
	return domain.Category{}, false
}

func (s *CourseSlice) Pagination() domain.Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Pagination
}

// bumpStudents adds one student to a cached course after a purchase.
func (s *CourseSlice) bumpStudents(courseID int64) {
	s.mu.Lock()
	for i := range s.st.Courses {
		if s.st.Courses[i].ID == courseID {
			s.st.Courses = replaceByID(s.st.Courses, courseID, courseKey, withStudents(s.st.Courses[i], 1))
			break
		}
	}
	if s.st.Selected != nil && s.st.Selected.ID == courseID {
		c := withStudents(*s.st.Selected, 1)
		s.st.Selected = &c
	}
	s.mu.Unlock()
	s.emit("studentEnrolled")
}

func withStudents(c domain.Course, delta int) domain.Course {
	out := c.Clone()
	out.Students += delta
	return out
}

func courseKey(c domain.Course) int64 { return c.ID }
