package domain

// PaymentDetails is the checkout payload of payment/:courseId/: the course plus
// the processor client secret.
type PaymentDetails struct {
	Course
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	AlreadyEnrolled bool   `json:"already_enrolled"`
}

func (d PaymentDetails) Clone() PaymentDetails {
	out := d
	out.Course = d.Course.Clone()
	return out
}

type ProcessPaymentInput struct {
	CourseID        int64  `json:"course_id" validate:"required,gt=0"`
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

type PaymentResult struct {
	Message    string      `json:"message,omitempty"`
	Enrollment *Enrollment `json:"enrollment"`
}

// PaymentHistory rows are the enrollments created by completed payments.
type PaymentHistory = Page[Enrollment]

// IntentStatus mirrors the processor's PaymentIntent status values used by checkout.
type IntentStatus string

const (
	IntentSucceeded             IntentStatus = "succeeded"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentCanceled              IntentStatus = "canceled"
)
