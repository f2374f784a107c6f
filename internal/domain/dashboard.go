package domain

type DashboardTeacher struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

type DashboardStats struct {
	TotalCourses  int `json:"total_courses"`
	ActiveCourses int `json:"active_courses"`
	TotalStudents int `json:"total_students"`
}

type TeacherDashboard struct {
	Teacher DashboardTeacher `json:"teacher"`
	Stats   DashboardStats   `json:"stats"`
	Courses []Course         `json:"courses"`
}

func (d TeacherDashboard) InactiveCourses() int {
	n := d.Stats.TotalCourses - d.Stats.ActiveCourses
	if n < 0 {
		return 0
	}
	return n
}
