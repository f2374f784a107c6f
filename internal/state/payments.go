package state

import (
	"context"
	"errors"
	"strconv"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/apierr"
	"github.com/yungbote/coursemarket/internal/platform/logger"
	"github.com/yungbote/coursemarket/internal/validation"
)

const slicePayments = "payments"

type PaymentOps struct {
	Details Op
	Process Op
	Check   Op
	History Op
}

type PaymentState struct {
	Details      *domain.PaymentDetails
	ClientSecret string
	Success      bool
	Enrollment   *domain.Enrollment
	// IsEnrolled refers to the checkout course: the course of Details, or
	// without Details the course of the latest enrollment check.
	IsEnrolled bool

	History           []domain.Enrollment
	HistoryPagination domain.Pagination
	HistoryPage       int

	Ops PaymentOps
}

// CheckoutResult is the outcome of CompleteCheckout. Enrollment is set only
// when the intent succeeded and the purchase was recorded.
type CheckoutResult struct {
	Status     domain.IntentStatus
	Message    string
	Enrollment *domain.Enrollment
}

type PaymentSlice struct {
	core
	api         PaymentAPI
	verifier    IntentVerifier
	enrollments *EnrollmentSlice
	// onPaid runs after a purchase is applied, outside the slice lock.
	onPaid func(courseID int64, e domain.Enrollment)
	// checkCourse is the course of the latest issued enrollment check.
	checkCourse int64

	st PaymentState
}

func newPaymentSlice(a PaymentAPI, v IntentVerifier, enr *EnrollmentSlice, log *logger.Logger, n notifier) *PaymentSlice {
	s := &PaymentSlice{core: newCore(slicePayments, log, n), api: a, verifier: v, enrollments: enr}
	s.st.Ops = PaymentOps{Details: idle(), Process: idle(), Check: idle(), History: idle()}
	return s
}

func (s *PaymentSlice) Snapshot() PaymentState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.st
	if s.st.Details != nil {
		d := s.st.Details.Clone()
		out.Details = &d
	}
	if s.st.Enrollment != nil {
		e := s.st.Enrollment.Clone()
		out.Enrollment = &e
	}
	out.History = make([]domain.Enrollment, len(s.st.History))
	for i, e := range s.st.History {
		out.History[i] = e.Clone()
	}
	return out
}

// FetchPaymentDetails loads the checkout payload. An answer already recorded
// by an enrollment check wins over the payload's already_enrolled flag.
func (s *PaymentSlice) FetchPaymentDetails(ctx context.Context, courseID int64) error {
	gen := s.begin("fetchPaymentDetails", &s.st.Ops.Details, true)
	d, err := s.api.PaymentDetails(ctx, courseID)
	enrolled := d.AlreadyEnrolled
	if s.enrollments != nil {
		if known, ok := s.enrollments.Known(courseID); ok {
			enrolled = known
		}
	}
	return s.finish("fetchPaymentDetails", gen, err, fixed(&s.st.Ops.Details), func() {
		s.st.Details = &d
		s.st.ClientSecret = d.ClientSecret
		s.st.IsEnrolled = enrolled
	})
}

// ProcessPayment records a completed purchase. On success the payment state is
// updated first and the enrollment is then handed to the enrollment slice; the
// two updates are separate steps.
func (s *PaymentSlice) ProcessPayment(ctx context.Context, courseID int64, paymentIntentID string) (domain.PaymentResult, error) {
	const key = "processPayment"
	in := domain.ProcessPaymentInput{CourseID: courseID, PaymentIntentID: paymentIntentID}
	if err := validation.Struct(in); err != nil {
		return domain.PaymentResult{}, s.reject(key, &s.st.Ops.Process, err)
	}
	t := s.begin(key, &s.st.Ops.Process, false)
	var enrEpoch uint64
	if s.enrollments != nil {
		enrEpoch = s.enrollments.epochNow()
	}
	res, err := s.api.ProcessPayment(ctx, in)
	err = s.finish(key, t, err, fixed(&s.st.Ops.Process), func() {
		s.st.Success = true
		if s.st.Details == nil || s.st.Details.ID == courseID {
			s.st.IsEnrolled = true
		}
		if res.Enrollment != nil {
			e := res.Enrollment.Clone()
			s.st.Enrollment = &e
		}
		if s.st.Details != nil && s.st.Details.ID == courseID {
			d := s.st.Details.Clone()
			d.Students++
			s.st.Details = &d
		}
	})
	if err != nil {
		return res, err
	}
	s.log.Info("payment processed", "course_id", courseID)
	if res.Enrollment != nil {
		if s.enrollments != nil && !s.enrollments.addInEpoch(enrEpoch, *res.Enrollment) {
			return res, ErrStale
		}
		if s.onPaid != nil {
			s.onPaid(courseID, *res.Enrollment)
		}
	}
	return res, nil
}

// CheckEnrollmentStatus records the enrollment-check answer for courseID with
// the enrollment slice. IsEnrolled takes the answer only when courseID is the
// checkout's course: the course of Details, or without Details the course of
// the latest issued check.
func (s *PaymentSlice) CheckEnrollmentStatus(ctx context.Context, courseID int64) error {
	key := "checkEnrollmentStatus:" + strconv.FormatInt(courseID, 10)
	s.mu.Lock()
	gen := s.beginLocked(key, &s.st.Ops.Check, true)
	s.checkCourse = courseID
	s.mu.Unlock()
	var enrEpoch uint64
	if s.enrollments != nil {
		enrEpoch = s.enrollments.epochNow()
	}
	enrolled, err := s.api.CheckEnrollment(ctx, courseID)
	err = s.finish(key, gen, err, fixed(&s.st.Ops.Check), func() {
		gate := s.checkCourse
		if s.st.Details != nil {
			gate = s.st.Details.ID
		}
		if gate == courseID {
			s.st.IsEnrolled = enrolled
		}
	})
	if err == nil && s.enrollments != nil {
		s.enrollments.recordInEpoch(enrEpoch, courseID, enrolled)
	}
	return err
}

func (s *PaymentSlice) FetchPaymentHistory(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	gen := s.begin("fetchPaymentHistory", &s.st.Ops.History, true)
	h, err := s.api.PaymentHistory(ctx, page)
	return s.finish("fetchPaymentHistory", gen, err, fixed(&s.st.Ops.History), func() {
		s.st.History = h.Results
		s.st.HistoryPagination = h.Pagination
		s.st.HistoryPage = page
	})
}

// CompleteCheckout confirms the intent with the payment processor and records
// the purchase only when the processor reports it succeeded.
func (s *PaymentSlice) CompleteCheckout(ctx context.Context, courseID int64, intentID, clientSecret string) (CheckoutResult, error) {
	if s.verifier == nil {
		return CheckoutResult{}, s.reject("completeCheckout", &s.st.Ops.Process,
			apierr.Unexpected(errors.New("payment processor is not configured"), false))
	}
	status, err := s.verifier.IntentStatus(ctx, intentID, clientSecret)
	if err != nil {
		return CheckoutResult{}, s.reject("completeCheckout", &s.st.Ops.Process, err)
	}
	out := CheckoutResult{Status: status}
	switch status {
	case domain.IntentSucceeded:
		res, err := s.ProcessPayment(ctx, courseID, intentID)
		if err != nil {
			out.Message = "Payment succeeded but enrollment failed."
			return out, err
		}
		out.Message = "Payment succeeded!"
		out.Enrollment = res.Enrollment
	case domain.IntentProcessing:
		out.Message = "Your payment is processing."
	case domain.IntentRequiresPaymentMethod:
		out.Message = "Your payment was not successful, please try again."
	default:
		out.Message = "Something went wrong."
	}
	return out, nil
}

// SetEnrollmentStatus overrides IsEnrolled for the current checkout.
func (s *PaymentSlice) SetEnrollmentStatus(enrolled bool) {
	s.mu.Lock()
	s.st.IsEnrolled = enrolled
	s.mu.Unlock()
	s.emit("setEnrollmentStatus")
}

// ResetPayment drops the checkout state and keeps the loaded history.
func (s *PaymentSlice) ResetPayment() {
	s.mu.Lock()
	s.gens["fetchPaymentDetails"]++
	s.st.Details = nil
	s.st.ClientSecret = ""
	s.st.Success = false
	s.st.Enrollment = nil
	s.st.IsEnrolled = false
	s.st.Ops.Details = idle()
	s.st.Ops.Process = idle()
	s.st.Ops.Check = idle()
	s.mu.Unlock()
	s.emit("resetPayment")
}

// reset drops checkout and history, as on sign-out.
func (s *PaymentSlice) reset() {
	s.mu.Lock()
	s.invalidateLocked()
	s.st = PaymentState{Ops: PaymentOps{Details: idle(), Process: idle(), Check: idle(), History: idle()}}
	s.checkCourse = 0
	s.mu.Unlock()
	s.emit("reset")
}

func (s *PaymentSlice) ClearErrors() {
	s.mu.Lock()
	s.st.Ops.Details.Err = nil
	s.st.Ops.Process.Err = nil
	s.st.Ops.Check.Err = nil
	s.st.Ops.History.Err = nil
	s.mu.Unlock()
	s.emit("clearErrors")
}
