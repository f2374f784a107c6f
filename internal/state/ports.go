package state

import (
	"context"

	"github.com/yungbote/coursemarket/internal/api"
	"github.com/yungbote/coursemarket/internal/domain"
)

// The narrow API surfaces each slice needs. *api.API satisfies all of them.

type AuthAPI interface {
	Register(ctx context.Context, in domain.RegisterInput) error
	VerifyOTP(ctx context.Context, in domain.OTPInput) error
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, in domain.LoginInput) (domain.LoginResult, error)
	VerifyToken(ctx context.Context) error
	Profile(ctx context.Context) (domain.User, error)
	UpdateProfile(ctx context.Context, in domain.ProfileInput) (domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, in domain.PasswordResetConfirmInput) error
}

type CourseAPI interface {
	Courses(ctx context.Context, q domain.CourseQuery) (domain.Page[domain.Course], error)
	Course(ctx context.Context, courseID int64) (api.CourseDetail, error)
	CreateCourse(ctx context.Context, in domain.CourseInput) (domain.Course, error)
	UpdateCourse(ctx context.Context, courseID int64, in domain.CourseInput) (domain.Course, error)
	DeleteCourse(ctx context.Context, courseID int64) error
	Categories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name string) (domain.Category, error)
	Materials(ctx context.Context, courseID int64) ([]domain.Material, error)
}

type CurriculumAPI interface {
	Course(ctx context.Context, courseID int64) (api.CourseDetail, error)
	Sections(ctx context.Context, courseID int64) ([]domain.Section, error)
	CreateSection(ctx context.Context, in domain.SectionInput) (domain.Section, error)
	UpdateSection(ctx context.Context, sectionID int64, in domain.SectionInput) (domain.Section, error)
	DeleteSection(ctx context.Context, sectionID int64) error
	Lessons(ctx context.Context, f domain.LessonFilter) ([]domain.Lesson, error)
	CreateLesson(ctx context.Context, in domain.LessonInput) (domain.Lesson, error)
	UpdateLesson(ctx context.Context, lessonID int64, in domain.LessonInput) (domain.Lesson, error)
	DeleteLesson(ctx context.Context, lessonID int64) error
}

type EnrollmentAPI interface {
	Enrollments(ctx context.Context) ([]domain.Enrollment, error)
	CheckEnrollment(ctx context.Context, courseID int64) (bool, error)
}

type PaymentAPI interface {
	PaymentDetails(ctx context.Context, courseID int64) (domain.PaymentDetails, error)
	ProcessPayment(ctx context.Context, in domain.ProcessPaymentInput) (domain.PaymentResult, error)
	PaymentHistory(ctx context.Context, page int) (domain.PaymentHistory, error)
	CheckEnrollment(ctx context.Context, courseID int64) (bool, error)
}

type ProgressAPI interface {
	CourseProgress(ctx context.Context, courseID int64) (domain.CourseProgress, error)
	MarkLesson(ctx context.Context, enrollmentID, lessonID int64, completed bool) (domain.LessonMarkResult, error)
	Enrollments(ctx context.Context) ([]domain.Enrollment, error)
}

type ReviewAPI interface {
	CourseReviews(ctx context.Context, courseID int64) ([]domain.Review, error)
	CreateReview(ctx context.Context, courseID int64, in domain.ReviewInput) (domain.Review, error)
	UpdateReview(ctx context.Context, reviewID int64, in domain.ReviewInput) (domain.Review, error)
	DeleteReview(ctx context.Context, reviewID int64) error
	CreateReviewResponse(ctx context.Context, reviewID int64, in domain.ReviewResponseInput) (domain.ReviewResponse, error)
	ReviewResponse(ctx context.Context, reviewID int64) (domain.ReviewResponse, error)
	VoteReview(ctx context.Context, reviewID int64, helpful bool) error
}

type DashboardAPI interface {
	TeacherDashboard(ctx context.Context) (domain.TeacherDashboard, error)
}

// API is everything the store needs from the typed client.
type API interface {
	AuthAPI
	CourseAPI
	CurriculumAPI
	EnrollmentAPI
	PaymentAPI
	ProgressAPI
	ReviewAPI
	DashboardAPI
}

var _ API = (*api.API)(nil)

// Session is the credential holder the auth slice drives.
type Session interface {
	IsAuthenticated() bool
	Credentials() domain.Credentials
	Set(ctx context.Context, creds domain.Credentials) error
	User() *domain.User
	SetUser(u *domain.User)
	Logout(ctx context.Context) error
	OnUnauthorized(fn func()) func()
}

// Uploader publishes an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f domain.File) (string, error)
}

// IntentVerifier asks the payment processor for a PaymentIntent's status.
type IntentVerifier interface {
	IntentStatus(ctx context.Context, intentID, clientSecret string) (domain.IntentStatus, error)
}
