package api

import (
	"context"
	"net/http"

	"github.com/yungbote/coursemarket/internal/api/client"
	"github.com/yungbote/coursemarket/internal/domain"
)

func (a *API) Register(ctx context.Context, in domain.RegisterInput) error {
	return a.c.Post(ctx, "users/register/", in, nil)
}

func (a *API) VerifyOTP(ctx context.Context, in domain.OTPInput) error {
	return a.c.Post(ctx, "users/verify-otp/", in, nil)
}

func (a *API) ResendOTP(ctx context.Context, email string) error {
	return a.c.Post(ctx, "users/resend-otp/", domain.EmailInput{Email: email}, nil)
}

func (a *API) Login(ctx context.Context, in domain.LoginInput) (domain.LoginResult, error) {
	var out domain.LoginResult
	err := a.c.Data(ctx, client.Request{Method: http.MethodPost, Path: "users/login/", Body: in}, &out)
	return out, err
}

func (a *API) VerifyToken(ctx context.Context) error {
	return a.c.Get(ctx, "users/verify-token/", nil, nil)
}

func (a *API) Profile(ctx context.Context) (domain.User, error) {
	var out domain.User
	err := a.c.Data(ctx, client.Request{Method: http.MethodGet, Path: "users/profile/"}, &out)
	return out, err
}

// UpdateProfile sends only the non-empty fields of in.
func (a *API) UpdateProfile(ctx context.Context, in domain.ProfileInput) (domain.User, error) {
	mp := client.NewMultipart()
	for _, f := range []struct{ name, value string }{
		{"username", in.Username},
		{"email", in.Email},
		{"mobile_no", in.MobileNo},
		{"full_name", in.FullName},
		{"avatar", in.Avatar},
	} {
		if f.value != "" {
			mp.Field(f.name, f.value)
		}
	}
	if in.Avatar == "" {
		attachFile(mp, "avatar", in.AvatarFile)
	}
	var out domain.User
	err := a.c.Data(ctx, client.Request{Method: http.MethodPatch, Path: "users/profile/", Body: mp}, &out)
	return out, err
}

func (a *API) RequestPasswordReset(ctx context.Context, email string) error {
	return a.c.Post(ctx, "users/password-reset/", domain.EmailInput{Email: email}, nil)
}

func (a *API) ConfirmPasswordReset(ctx context.Context, in domain.PasswordResetConfirmInput) error {
	return a.c.Post(ctx, "users/password-reset-confirm/", in, nil)
}
