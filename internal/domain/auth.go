package domain

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name,omitempty"`
	MobileNo string `json:"mobile_no,omitempty"`
	Role     Role   `json:"role" validate:"required,oneof=student teacher"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"password2" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type OTPInput struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type EmailInput struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmInput struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
	Confirm     string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// ProfileInput is the multipart payload of PATCH users/profile/.
type ProfileInput struct {
	Username   string `validate:"omitempty,min=3,max=150"`
	Email      string `validate:"omitempty,email"`
	MobileNo   string
	FullName   string
	Avatar     string `validate:"omitempty,url"`
	AvatarFile *File
}
