package state

import (
	"context"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/logger"
)

const sliceDashboard = "dashboard"

type DashboardState struct {
	Dashboard *domain.TeacherDashboard
	Op        Op
}

type DashboardSlice struct {
	core
	api DashboardAPI

	st DashboardState
}

func newDashboardSlice(a DashboardAPI, log *logger.Logger, n notifier) *DashboardSlice {
	s := &DashboardSlice{core: newCore(sliceDashboard, log, n), api: a}
	s.st.Op = idle()
	return s
}

func (s *DashboardSlice) Snapshot() DashboardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.st
	if s.st.Dashboard != nil {
		d := *s.st.Dashboard
		d.Courses = cloneCourses(s.st.Dashboard.Courses)
		out.Dashboard = &d
	}
	return out
}

func (s *DashboardSlice) FetchTeacherDashboard(ctx context.Context) error {
	gen := s.begin("fetchTeacherDashboard", &s.st.Op, true)
	d, err := s.api.TeacherDashboard(ctx)
	return s.finish("fetchTeacherDashboard", gen, err, fixed(&s.st.Op), func() {
		s.st.Dashboard = &d
	})
}

func (s *DashboardSlice) Reset() {
	s.mu.Lock()
	s.invalidateLocked()
	s.st = DashboardState{Op: idle()}
	s.mu.Unlock()
	s.emit("reset")
}
