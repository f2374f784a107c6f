package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket/internal/domain"
)

const historyPageSize = 5

func (s *Server) routes() {
	r := s.Engine.Group("/api")

	r.POST("/users/register/", s.register)
	r.POST("/users/verify-otp/", s.verifyOTP)
	r.POST("/users/resend-otp/", s.emailOnly("OTP sent"))
	r.POST("/users/login/", s.login)
	r.GET("/users/verify-token/", s.verifyToken)
	r.GET("/users/profile/", s.profile)
	r.PATCH("/users/profile/", s.updateProfile)
	r.POST("/users/password-reset/", s.emailOnly("Password reset OTP sent"))
	r.POST("/users/password-reset-confirm/", s.confirmReset)

	r.GET("/courses/", s.listCourses)
	r.POST("/courses/create/", s.createCourse)
	r.GET("/courses/:id/", s.getCourse)
	r.PUT("/courses/:id/update/", s.updateCourse)
	r.DELETE("/courses/:id/delete/", s.deleteCourse)
	r.GET("/courses/:id/progress/", s.courseProgress)
	r.GET("/courses/:id/reviews/", s.listReviews)
	r.POST("/courses/:id/reviews/create/", s.createReview)
	r.GET("/categories/", s.listCategories)
	r.POST("/categories/", s.createCategory)
	r.GET("/materials/", s.listMaterials)

	r.GET("/sections/", s.listSections)
	r.POST("/sections/", s.createSection)
	r.PATCH("/sections/:id/", s.updateSection)
	r.DELETE("/sections/:id/", s.deleteSection)
	r.GET("/lessons/", s.listLessons)
	r.POST("/lessons/", s.createLesson)
	r.PATCH("/lessons/:id/", s.updateLesson)
	r.DELETE("/lessons/:id/", s.deleteLesson)

	r.GET("/enrollments/", s.listEnrollments)
	r.GET("/enrollments/check/:courseId/", s.checkEnrollment)
	r.POST("/enrollments/:id/lessons/:lessonId/:action/", s.markLesson)

	r.GET("/payment/:courseId/", s.paymentDetails)
	r.POST("/payment/process/", s.processPayment)
	r.GET("/payments/history/", s.paymentHistory)

	r.PATCH("/reviews/:id/update/", s.updateReview)
	r.DELETE("/reviews/:id/delete/", s.deleteReview)
	r.POST("/reviews/:id/response/", s.createResponse)
	r.GET("/reviews/:id/response/view/", s.viewResponse)
	r.POST("/reviews/:id/vote/", s.vote)

	r.GET("/teacher-dashboard/", s.dashboard)
}

// ---- users ----

func (s *Server) register(c *gin.Context) {
	var in domain.RegisterInput
	_ = c.ShouldBindJSON(&in)
	if in.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"email": []string{"This field is required."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.db.Users {
		if strings.EqualFold(u.Email, in.Email) {
			c.JSON(http.StatusBadRequest, gin.H{"email": []string{"user with this email already exists."}})
			return
		}
	}
	role := in.Role
	if role == "" {
		role = domain.RoleStudent
	}
	s.db.Users = append(s.db.Users, User{
		User:     domain.User{ID: s.db.NextID(), Username: in.Username, Email: in.Email, FullName: in.FullName, MobileNo: in.MobileNo, Role: role},
		Password: in.Password,
	})
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful. OTP sent to your email."})
}

func (s *Server) verifyOTP(c *gin.Context) {
	var in domain.OTPInput
	_ = c.ShouldBindJSON(&in)
	if in.OTP != ValidOTP {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid OTP"})
		return
	}
	s.mu.Lock()
	for i := range s.db.Users {
		if s.db.Users[i].Email == in.Email {
			s.db.Users[i].IsVerified = true
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

func (s *Server) emailOnly(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in domain.EmailInput
		_ = c.ShouldBindJSON(&in)
		if in.Email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"email": []string{"This field is required."}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": msg})
	}
}

func (s *Server) confirmReset(c *gin.Context) {
	var in domain.PasswordResetConfirmInput
	_ = c.ShouldBindJSON(&in)
	if in.OTP != ValidOTP {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired OTP"})
		return
	}
	s.mu.Lock()
	for i := range s.db.Users {
		if s.db.Users[i].Email == in.Email {
			s.db.Users[i].Password = in.NewPassword
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

func (s *Server) login(c *gin.Context) {
	var in domain.LoginInput
	_ = c.ShouldBindJSON(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.db.Users {
		if strings.EqualFold(u.Email, in.Email) && u.Password == in.Password {
			access := s.issueLocked(u.ID)
			c.JSON(http.StatusOK, gin.H{"data": domain.LoginResult{
				Email:    u.Email,
				Username: u.Username,
				Role:     u.Role,
				Tokens:   domain.Tokens{Access: access, Refresh: "refresh-" + access[len(access)-8:]},
			}})
			return
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
}

func (s *Server) verifyToken(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func (s *Server) profile(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": u.User})
}

func (s *Server) updateProfile(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.db.Users {
		if s.db.Users[i].ID != u.ID {
			continue
		}
		p := &s.db.Users[i].User
		for field, dst := range map[string]*string{
			"username": &p.Username, "email": &p.Email, "mobile_no": &p.MobileNo,
			"full_name": &p.FullName, "avatar": &p.Avatar,
		} {
			if v, ok := c.GetPostForm(field); ok {
				*dst = v
			}
		}
		if fh, err := c.FormFile("avatar"); err == nil {
			p.Avatar = "https://cdn.example.com/avatars/" + fh.Filename
		}
		c.JSON(http.StatusOK, gin.H{"data": *p})
		return
	}
	notFound(c)
}

// ---- courses ----

func (s *Server) listCourses(c *gin.Context) {
	search := strings.ToLower(c.Query("search"))
	category, _ := strconv.ParseInt(c.Query("category"), 10, 64)
	level := c.Query("level")
	featured := c.Query("is_featured")
	page := atoiDefault(c.Query("page"), 1)
	limit := atoiDefault(c.Query("limit"), 16)

	s.mu.Lock()
	var matched []domain.Course
	for _, co := range s.db.Courses {
		if search != "" && !strings.Contains(strings.ToLower(co.Title), search) {
			continue
		}
		if category > 0 && co.Category.ID != category {
			continue
		}
		if level != "" && string(co.Level) != level {
			continue
		}
		if featured != "" && strconv.FormatBool(co.IsFeatured) != featured {
			continue
		}
		matched = append(matched, co)
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, paginate(c, matched, page, limit))
}

func (s *Server) getCourse(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	co, found := s.courseLocked(courseID)
	if !found {
		notFound(c)
		return
	}
	var curriculum []domain.CurriculumSection
	for _, sec := range s.db.Sections {
		if sec.Course != courseID {
			continue
		}
		cs := domain.CurriculumSection{ID: sec.ID, Title: sec.Title, Lectures: []domain.Lesson{}}
		for _, l := range s.db.Lessons {
			if l.Section == sec.ID {
				cs.Lectures = append(cs.Lectures, l)
			}
		}
		curriculum = append(curriculum, cs)
	}
	c.JSON(http.StatusOK, struct {
		domain.Course
		Curriculum []domain.CurriculumSection `json:"curriculum"`
	}{co, curriculum})
}

func courseFromForm(c *gin.Context, co *domain.Course, categories []domain.Category) error {
	if v, ok := c.GetPostForm("title"); ok {
		co.Title = v
	}
	if co.Title == "" {
		return fmt.Errorf("title")
	}
	if v, ok := c.GetPostForm("description"); ok {
		co.Description = v
	}
	if v, ok := c.GetPostForm("price"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("price")
		}
		co.Price = domain.Decimal(f)
	}
	if v, ok := c.GetPostForm("discount_price"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("discount_price")
		}
		d := domain.Decimal(f)
		co.DiscountPrice = &d
	}
	if v, ok := c.GetPostForm("duration"); ok {
		co.Duration = domain.Text(v)
	}
	if v, ok := c.GetPostForm("level"); ok {
		co.Level = domain.Level(v)
	}
	if v, ok := c.GetPostForm("banner"); ok {
		co.Banner = v
	}
	if fh, err := c.FormFile("banner"); err == nil {
		co.Banner = "https://cdn.example.com/banners/" + fh.Filename
	}
	if v, ok := c.GetPostForm("start_date"); ok && v != "" {
		co.StartDate = &v
	}
	if v, ok := c.GetPostForm("is_featured"); ok {
		co.IsFeatured = v == "true"
	}
	if v, ok := c.GetPostForm("category_id"); ok {
		cid, _ := strconv.ParseInt(v, 10, 64)
		co.Category = domain.CategoryRef{ID: cid}
		for _, cat := range categories {
			if cat.ID == cid {
				co.Category.Name = cat.Name
			}
		}
	}
	for field, dst := range map[string]*[]string{"what_you_will_learn": &co.WhatYouWillLearn, "requirements": &co.Requirements} {
		if v, ok := c.GetPostForm(field); ok && v != "" {
			var list []string
			if err := json.Unmarshal([]byte(v), &list); err != nil {
				return fmt.Errorf("%s", field)
			}
			*dst = list
		}
	}
	return nil
}

func (s *Server) createCourse(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	if u.Role != domain.RoleTeacher {
		c.JSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	co := domain.Course{Instructor: domain.UserRef{ID: u.ID, Username: u.Username, FullName: u.FullName}, IsActive: true}
	if err := courseFromForm(c, &co, s.db.Categories); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{err.Error(): []string{"Invalid value."}})
		return
	}
	co.ID = s.db.NextID()
	s.db.Courses = append(s.db.Courses, co)
	c.JSON(http.StatusCreated, co)
}

func (s *Server) updateCourse(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.db.Courses {
		if s.db.Courses[i].ID != courseID {
			continue
		}
		co := s.db.Courses[i].Clone()
		if err := courseFromForm(c, &co, s.db.Categories); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{err.Error(): []string{"Invalid value."}})
			return
		}
		s.db.Courses[i] = co
		c.JSON(http.StatusOK, co)
		return
	}
	notFound(c)
}

func (s *Server) deleteCourse(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.db.Courses {
		if s.db.Courses[i].ID == courseID {
			s.db.Courses = append(s.db.Courses[:i], s.db.Courses[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	notFound(c)
}

func (s *Server) listCategories(c *gin.Context) {
	s.mu.Lock()
	out := append([]domain.Category{}, s.db.Categories...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) createCategory(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	var in struct {
		Name string `json:"name"`
	}
	_ = c.ShouldBindJSON(&in)
	if in.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"name": []string{"This field is required."}})
		return
	}
	s.mu.Lock()
	cat := domain.Category{ID: s.db.NextID(), Name: in.Name}
	s.db.Categories = append(s.db.Categories, cat)
	s.mu.Unlock()
	c.JSON(http.StatusCreated, cat)
}

func (s *Server) listMaterials(c *gin.Context) {
	courseID, _ := strconv.ParseInt(c.Query("course"), 10, 64)
	s.mu.Lock()
	out := []domain.Material{}
	for _, m := range s.db.Materials {
		if courseID == 0 || m.Course == courseID {
			out = append(out, m)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"results": out, "count": len(out), "next": nil, "previous": nil})
}

// ---- curriculum ----

func (s *Server) listSections(c *gin.Context) {
	courseID, _ := strconv.ParseInt(c.Query("course"), 10, 64)
	s.mu.Lock()
	out := []domain.Section{}
	for _, sec := range s.db.Sections {
		if courseID == 0 || sec.Course == courseID {
			out = append(out, sec)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) createSection(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	var in domain.SectionInput
	_ = c.ShouldBindJSON(&in)
	if in.Title == "" || in.Course == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"title": []string{"This field is required."}})
		return
	}
	s.mu.Lock()
	sec := domain.Section{ID: s.db.NextID(), Title: in.Title, Description: in.Description, Course: in.Course}
	s.db.Sections = append(s.db.Sections, sec)
	s.mu.Unlock()
	c.JSON(http.StatusCreated, sec)
}

func (s *Server) updateSection(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	secID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in domain.SectionInput
	_ = c.ShouldBindJSON(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.db.Sections {
		if s.db.Sections[i].ID == secID {
			if in.Title != "" {
				s.db.Sections[i].Title = in.Title
			}
			s.db.Sections[i].Description = in.Description
			c.JSON(http.StatusOK, s.db.Sections[i])
			return
		}
	}
	notFound(c)
}

func (s *Server) deleteSection(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	secID, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.db.Sections {
		if s.db.Sections[i].ID == secID {
			s.db.Sections = append(s.db.Sections[:i], s.db.Sections[i+1:]...)
			kept := s.db.Lessons[:0]
			for _, l := range s.db.Lessons {
				if l.Section != secID {
					kept = append(kept, l)
				}
			}
			s.db.Lessons = kept
			c.Status(http.StatusNoContent)
			return
		}
	}
	notFound(c)
}

func (s *Server) listLessons(c *gin.Context) {
	courseID, _ := strconv.ParseInt(c.Query("course"), 10, 64)
	secID, _ := strconv.ParseInt(c.Query("section"), 10, 64)
	s.mu.Lock()
	out := []domain.Lesson{}
	for _, l := range s.db.Lessons {
		if courseID != 0 && l.Course != courseID {
			continue
		}
		if secID != 0 && l.Section != secID {
			continue
		}
		out = append(out, l)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) createLesson(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	var in domain.LessonInput
	_ = c.ShouldBindJSON(&in)
	if in.Title == "" || in.Section == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"title": []string{"This field is required."}})
		return
	}
	s.mu.Lock()
	l := domain.Lesson{ID: s.db.NextID(), Title: in.Title, Description: in.Description, Video: in.Video,
		Duration: domain.Text(in.Duration), IsPreview: in.IsPreview, Section: in.Section, Course: in.Course}
	s.db.Lessons = append(s.db.Lessons, l)
	s.mu.Unlock()
	c.JSON(http.StatusCreated, l)
}

func (s *Server) updateLesson(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	lessonID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in domain.LessonInput
	_ = c.ShouldBindJSON(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.db.Lessons {
		l := &s.db.Lessons[i]
		if l.ID != lessonID {
			continue
		}
		if in.Title != "" {
			l.Title = in.Title
		}
		l.Description = in.Description
		l.Video = in.Video
		l.Duration = domain.Text(in.Duration)
		l.IsPreview = in.IsPreview
		if in.Section != 0 {
			l.Section = in.Section
		}
		c.JSON(http.StatusOK, *l)
		return
	}
	notFound(c)
}

func (s *Server) deleteLesson(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	lessonID, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.db.Lessons {
		if s.db.Lessons[i].ID == lessonID {
			s.db.Lessons = append(s.db.Lessons[:i], s.db.Lessons[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	notFound(c)
}

// ---- enrollments & progress ----

func (s *Server) listEnrollments(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	s.mu.Lock()
	out := s.enrollmentsForLocked(u.ID)
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) checkEnrollment(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	courseID, ok := paramID(c, "courseId")
	if !ok {
		return
	}
	s.mu.Lock()
	_, enrolled := s.enrollmentLocked(u.ID, courseID)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"is_enrolled": enrolled})
}

func (s *Server) markLesson(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	enrollmentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	lessonID, ok := paramID(c, "lessonId")
	if !ok {
		return
	}
	action := c.Param("action")
	if action != "complete" && action != "incomplete" {
		notFound(c)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var enr *domain.Enrollment
	for i := range s.db.Enrollments {
		if s.db.Enrollments[i].ID == enrollmentID && s.db.Enrollments[i].Student.ID == u.ID {
			enr = &s.db.Enrollments[i]
		}
	}
	if enr == nil {
		notFound(c)
		return
	}
	done := s.db.Completed[enrollmentID]
	if done == nil {
		done = map[int64]bool{}
		s.db.Completed[enrollmentID] = done
	}
	if action == "complete" {
		done[lessonID] = true
	} else {
		delete(done, lessonID)
	}
	total := s.lessonCountLocked(enr.Course.ID)
	pct := percent(len(done), total)
	enr.ProgressPercentage = pct
	enr.IsCompleted = total > 0 && len(done) >= total
	c.JSON(http.StatusOK, domain.LessonMarkResult{
		CompletedLessons:  len(done),
		Progress:          pct,
		IsCourseCompleted: enr.IsCompleted,
	})
}

func (s *Server) courseProgress(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	enr, found := s.enrollmentLocked(u.ID, courseID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"message": "You are not enrolled in this course"})
		return
	}
	done := s.db.Completed[enr.ID]
	p := domain.CourseProgress{EnrollmentID: enr.ID, CourseID: courseID, Lessons: []domain.Lesson{}}
	for _, l := range s.db.Lessons {
		if l.Course == courseID {
			l.IsCompleted = done[l.ID]
			p.Lessons = append(p.Lessons, l)
		}
	}
	p.TotalLessons = len(p.Lessons)
	p.CompletedLessons = len(done)
	p.ProgressPercentage = percent(len(done), p.TotalLessons)
	p.IsCourseCompleted = p.TotalLessons > 0 && p.CompletedLessons >= p.TotalLessons
	c.JSON(http.StatusOK, p)
}

// ---- payments ----

func (s *Server) paymentDetails(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	courseID, ok := paramID(c, "courseId")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	co, found := s.courseLocked(courseID)
	if !found {
		notFound(c)
		return
	}
	_, enrolled := s.enrollmentLocked(u.ID, courseID)
	intent := fmt.Sprintf("pi_%d_%d", courseID, u.ID)
	c.JSON(http.StatusOK, domain.PaymentDetails{
		Course:          co,
		ClientSecret:    intent + "_secret_test",
		PaymentIntentID: intent,
		AlreadyEnrolled: enrolled,
	})
}

func (s *Server) processPayment(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	var in domain.ProcessPaymentInput
	_ = c.ShouldBindJSON(&in)
	if in.PaymentIntentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"payment_intent_id": []string{"This field is required."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	co, found := s.courseLocked(in.CourseID)
	if !found {
		notFound(c)
		return
	}
	if _, enrolled := s.enrollmentLocked(u.ID, in.CourseID); enrolled {
		c.JSON(http.StatusBadRequest, gin.H{"message": "You are already enrolled in this course"})
		return
	}
	enr := domain.Enrollment{
		ID:              s.db.NextID(),
		Course:          domain.CourseRef{ID: co.ID, Title: co.Title, Banner: co.Banner, Duration: co.Duration, Price: co.Price},
		Student:         domain.UserRef{ID: u.ID, Username: u.Username, FullName: u.FullName},
		PricePaid:       co.EffectivePrice(),
		PaymentIntentID: in.PaymentIntentID,
		IsActive:        true,
		CreatedAt:       "2024-01-01T00:00:00Z",
	}
	s.db.Enrollments = append(s.db.Enrollments, enr)
	for i := range s.db.Courses {
		if s.db.Courses[i].ID == co.ID {
			s.db.Courses[i].Students++
		}
	}
	c.JSON(http.StatusOK, domain.PaymentResult{Message: "Payment successful", Enrollment: &enr})
}

func (s *Server) paymentHistory(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	page := atoiDefault(c.Query("page"), 1)
	s.mu.Lock()
	all := s.enrollmentsForLocked(u.ID)
	s.mu.Unlock()
	if (page-1)*historyPageSize >= len(all) && page > 1 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Invalid page."})
		return
	}
	c.JSON(http.StatusOK, paginate(c, all, page, historyPageSize))
}

// ---- reviews ----

func (s *Server) listReviews(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	out := []domain.Review{}
	for _, r := range s.db.Reviews {
		if r.Course.ID == courseID {
			out = append(out, r.Clone())
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

func (s *Server) createReview(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in domain.ReviewInput
	_ = c.ShouldBindJSON(&in)
	if in.Rating < 1 || in.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"rating": []string{"Ensure this value is between 1 and 5."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.db.Reviews {
		if r.Course.ID == courseID && r.User.ID == u.ID {
			c.JSON(http.StatusBadRequest, gin.H{"message": "You have already reviewed this course"})
			return
		}
	}
	r := domain.Review{
		ID: s.db.NextID(), Course: domain.CourseRef{ID: courseID},
		User:   domain.UserRef{ID: u.ID, Username: u.Username, FullName: u.FullName},
		Rating: in.Rating, Title: in.Title, Comment: in.Comment,
	}
	s.db.Reviews = append(s.db.Reviews, r)
	c.JSON(http.StatusCreated, r)
}

func (s *Server) updateReview(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	reviewID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in domain.ReviewInput
	_ = c.ShouldBindJSON(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.db.Reviews {
		r := &s.db.Reviews[i]
		if r.ID != reviewID {
			continue
		}
		if in.Rating != 0 {
			r.Rating = in.Rating
		}
		r.Title = in.Title
		r.Comment = in.Comment
		c.JSON(http.StatusOK, r.Clone())
		return
	}
	notFound(c)
}

func (s *Server) deleteReview(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	reviewID, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.db.Reviews {
		if s.db.Reviews[i].ID == reviewID {
			s.db.Reviews = append(s.db.Reviews[:i], s.db.Reviews[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	notFound(c)
}

func (s *Server) createResponse(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	if u.Role != domain.RoleTeacher {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Only the instructor can respond."})
		return
	}
	reviewID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in domain.ReviewResponseInput
	_ = c.ShouldBindJSON(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.db.Reviews {
		if s.db.Reviews[i].ID == reviewID {
			resp := domain.ReviewResponse{ID: s.db.NextID(), Review: reviewID, Comment: in.Comment}
			s.db.Reviews[i].Response = &resp
			c.JSON(http.StatusCreated, resp)
			return
		}
	}
	notFound(c)
}

func (s *Server) viewResponse(c *gin.Context) {
	reviewID, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.db.Reviews {
		if r.ID == reviewID && r.Response != nil {
			c.JSON(http.StatusOK, *r.Response)
			return
		}
	}
	notFound(c)
}

func (s *Server) vote(c *gin.Context) {
	if _, ok := s.authed(c); !ok {
		return
	}
	reviewID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in domain.VoteInput
	_ = c.ShouldBindJSON(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.db.Reviews {
		r := &s.db.Reviews[i]
		if r.ID != reviewID {
			continue
		}
		if in.IsHelpful {
			r.HelpfulCount++
		} else {
			r.NotHelpfulCount++
		}
		c.JSON(http.StatusOK, gin.H{"message": "Vote recorded"})
		return
	}
	notFound(c)
}

// ---- dashboard ----

func (s *Server) dashboard(c *gin.Context) {
	u, ok := s.authed(c)
	if !ok {
		return
	}
	if u.Role != domain.RoleTeacher {
		c.JSON(http.StatusForbidden, gin.H{"message": "Teacher access required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := domain.TeacherDashboard{
		Teacher: domain.DashboardTeacher{ID: u.ID, Name: u.FullName, Email: u.Email, Avatar: u.Avatar},
		Courses: []domain.Course{},
	}
	for _, co := range s.db.Courses {
		if co.Instructor.ID != u.ID {
			continue
		}
		d.Courses = append(d.Courses, co)
		d.Stats.TotalCourses++
		if co.IsActive {
			d.Stats.ActiveCourses++
		}
		d.Stats.TotalStudents += co.Students
	}
	c.JSON(http.StatusOK, gin.H{"data": d})
}

// ---- helpers (callers hold s.mu) ----

func (s *Server) courseLocked(courseID int64) (domain.Course, bool) {
	for _, co := range s.db.Courses {
		if co.ID == courseID {
			return co.Clone(), true
		}
	}
	return domain.Course{}, false
}

func (s *Server) enrollmentLocked(userID, courseID int64) (domain.Enrollment, bool) {
	for _, e := range s.db.Enrollments {
		if e.Student.ID == userID && e.Course.ID == courseID {
			return e, true
		}
	}
	return domain.Enrollment{}, false
}

func (s *Server) enrollmentsForLocked(userID int64) []domain.Enrollment {
	out := []domain.Enrollment{}
	for i := len(s.db.Enrollments) - 1; i >= 0; i-- {
		if s.db.Enrollments[i].Student.ID == userID {
			out = append(out, s.db.Enrollments[i].Clone())
		}
	}
	return out
}

func (s *Server) lessonCountLocked(courseID int64) int {
	n := 0
	for _, l := range s.db.Lessons {
		if l.Course == courseID {
			n++
		}
	}
	return n
}

func percent(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(int(float64(done)/float64(total)*10000+0.5)) / 100
}

func atoiDefault(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func paginate[T any](c *gin.Context, items []T, page, limit int) gin.H {
	start := (page - 1) * limit
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	link := func(p int) any {
		q := c.Request.URL.Query()
		q.Set("page", strconv.Itoa(p))
		return "http://" + c.Request.Host + c.Request.URL.Path + "?" + q.Encode()
	}
	var next, prev any
	if end < len(items) {
		next = link(page + 1)
	}
	if page > 1 {
		prev = link(page - 1)
	}
	results := append([]T{}, items[start:end]...)
	return gin.H{"results": results, "count": len(items), "next": next, "previous": prev}
}
