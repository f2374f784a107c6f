package state

import (
	"context"
	"errors"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/apierr"
	"github.com/yungbote/coursemarket/internal/platform/logger"
	"github.com/yungbote/coursemarket/internal/validation"
)

const sliceAuth = "auth"

// AuthState flags mirror the register/verify/reset flows.
type AuthState struct {
	User                   *domain.User
	IsAuthenticated        bool
	RegistrationSuccess    bool
	OTPSent                bool
	OTPVerified            bool
	PasswordResetRequested bool
	PasswordResetSuccess   bool
	Op                     Op
}

type AuthSlice struct {
	core
	api      AuthAPI
	sess     Session
	uploader Uploader

	st AuthState
}

func newAuthSlice(a AuthAPI, sess Session, up Uploader, log *logger.Logger, n notifier) *AuthSlice {
	s := &AuthSlice{core: newCore(sliceAuth, log, n), api: a, sess: sess, uploader: up}
	s.st.Op = idle()
	s.st.User = sess.User()
	sess.OnUnauthorized(s.onUnauthorized)
	return s
}

func (s *AuthSlice) onUnauthorized() {
	s.mu.Lock()
	s.st.User = nil
	s.st.Op = idle()
	s.mu.Unlock()
	s.emit("unauthorized")
}

func (s *AuthSlice) Snapshot() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.st
	if s.st.User != nil {
		u := *s.st.User
		out.User = &u
	}
	out.IsAuthenticated = s.sess.IsAuthenticated()
	return out
}

func (s *AuthSlice) IsAuthenticated() bool { return s.sess.IsAuthenticated() }

func (s *AuthSlice) run(ctx context.Context, key string, in any, call func(context.Context) error, apply func()) error {
	if in != nil {
		if err := validation.Struct(in); err != nil {
			return s.reject(key, &s.st.Op, err)
		}
	}
	t := s.begin(key, &s.st.Op, false)
	err := call(ctx)
	return s.finish(key, t, err, fixed(&s.st.Op), apply)
}

func (s *AuthSlice) Register(ctx context.Context, in domain.RegisterInput) error {
	return s.run(ctx, "register", in, func(ctx context.Context) error {
		return s.api.Register(ctx, in)
	}, func() {
		s.st.RegistrationSuccess = true
		s.st.OTPSent = true
	})
}

func (s *AuthSlice) VerifyOTP(ctx context.Context, in domain.OTPInput) error {
	return s.run(ctx, "verifyOTP", in, func(ctx context.Context) error {
		return s.api.VerifyOTP(ctx, in)
	}, func() {
		s.st.OTPVerified = true
	})
}

func (s *AuthSlice) ResendOTP(ctx context.Context, email string) error {
	return s.run(ctx, "resendOTP", domain.EmailInput{Email: email}, func(ctx context.Context) error {
		return s.api.ResendOTP(ctx, email)
	}, func() {
		s.st.OTPSent = true
	})
}

// Login stores the issued tokens in the session. The user record is seeded from
// the login payload and completed by a later profile fetch.
func (s *AuthSlice) Login(ctx context.Context, in domain.LoginInput) error {
	var res domain.LoginResult
	err := s.run(ctx, "login", in, func(ctx context.Context) error {
		var err error
		if res, err = s.api.Login(ctx, in); err != nil {
			return err
		}
		if res.Tokens.Access == "" {
			return apierr.Unexpected(errors.New("login response carried no access token"), false)
		}
		return s.sess.Set(ctx, domain.Credentials{AccessToken: res.Tokens.Access, RefreshToken: res.Tokens.Refresh})
	}, func() {
		u := domain.User{Email: res.Email, Username: res.Username, Role: res.Role, IsVerified: true}
		if s.st.User != nil {
			u = s.st.User.Merge(u)
		}
		s.st.User = &u
		s.sess.SetUser(&u)
	})
	if err == nil {
		s.log.Info("logged in", "role", res.Role)
	}
	return err
}

// VerifyToken checks the stored token and loads the profile. Any failure clears
// the credentials.
func (s *AuthSlice) VerifyToken(ctx context.Context) error {
	if !s.sess.IsAuthenticated() {
		return s.reject("verifyToken", &s.st.Op, apierr.Unexpected(errors.New(msgNoToken), false))
	}
	var u domain.User
	err := s.run(ctx, "verifyToken", nil, func(ctx context.Context) error {
		if err := s.api.VerifyToken(ctx); err != nil {
			return err
		}
		var err error
		u, err = s.api.Profile(ctx)
		return err
	}, func() {
		s.st.User = &u
		s.sess.SetUser(&u)
	})
	if err != nil {
		if lerr := s.sess.Logout(ctx); lerr != nil {
			s.log.Warn("clear credentials failed", "error", lerr)
		}
		s.mu.Lock()
		s.st.User = nil
		s.mu.Unlock()
	}
	return err
}

func (s *AuthSlice) FetchProfile(ctx context.Context) error {
	var u domain.User
	return s.run(ctx, "fetchProfile", nil, func(ctx context.Context) error {
		var err error
		u, err = s.api.Profile(ctx)
		return err
	}, func() { s.mergeUserLocked(u) })
}

// UpdateProfile uploads AvatarFile through the image host when one is
// configured and sends the resulting URL instead of the raw file.
func (s *AuthSlice) UpdateProfile(ctx context.Context, in domain.ProfileInput) error {
	var u domain.User
	return s.run(ctx, "updateProfile", in, func(ctx context.Context) error {
		if in.AvatarFile != nil && s.uploader != nil {
			url, err := s.uploader.Upload(ctx, *in.AvatarFile)
			if err != nil {
				return err
			}
			in.Avatar, in.AvatarFile = url, nil
		}
		var err error
		u, err = s.api.UpdateProfile(ctx, in)
		return err
	}, func() { s.mergeUserLocked(u) })
}

func (s *AuthSlice) mergeUserLocked(u domain.User) {
	merged := u
	if s.st.User != nil {
		merged = s.st.User.Merge(u)
	}
	s.st.User = &merged
	s.sess.SetUser(&merged)
}

func (s *AuthSlice) RequestPasswordReset(ctx context.Context, email string) error {
	return s.run(ctx, "requestPasswordReset", domain.EmailInput{Email: email}, func(ctx context.Context) error {
		return s.api.RequestPasswordReset(ctx, email)
	}, func() {
		s.st.PasswordResetRequested = true
	})
}

func (s *AuthSlice) ConfirmPasswordReset(ctx context.Context, in domain.PasswordResetConfirmInput) error {
	return s.run(ctx, "confirmPasswordReset", in, func(ctx context.Context) error {
		return s.api.ConfirmPasswordReset(ctx, in)
	}, func() {
		s.st.PasswordResetSuccess = true
		s.st.PasswordResetRequested = false
	})
}

// Logout is local: credentials are dropped and no request is made.
func (s *AuthSlice) Logout(ctx context.Context) error {
	err := s.sess.Logout(ctx)
	s.mu.Lock()
	s.st = AuthState{Op: idle()}
	s.mu.Unlock()
	s.emit("logout")
	return err
}

func (s *AuthSlice) ClearError() {
	s.mu.Lock()
	s.st.Op.Err = nil
	if s.st.Op.Status == StatusFailed {
		s.st.Op.Status = StatusIdle
	}
	s.mu.Unlock()
	s.emit("clearError")
}

// ResetFlow clears the registration, otp and password-reset flags.
func (s *AuthSlice) ResetFlow() {
	s.mu.Lock()
	s.st.RegistrationSuccess = false
	s.st.OTPSent = false
	s.st.OTPVerified = false
	s.st.PasswordResetRequested = false
	s.st.PasswordResetSuccess = false
	s.mu.Unlock()
	s.emit("resetFlow")
}

// Token is the access token, or "" when signed out.
func (s *AuthSlice) Token() string { return s.sess.Credentials().AccessToken }
