package domain

type User struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	MobileNo   string `json:"mobile_no"`
	Avatar     string `json:"avatar"`
	Role       Role   `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

// Merge overlays the non-empty fields of u onto a copy of base. Role is never
// taken from u when base already carries one.
func (base User) Merge(u User) User {
	out := base
	if u.ID != 0 {
		out.ID = u.ID
	}
	if u.Username != "" {
		out.Username = u.Username
	}
	if u.Email != "" {
		out.Email = u.Email
	}
	if u.FullName != "" {
		out.FullName = u.FullName
	}
	if u.MobileNo != "" {
		out.MobileNo = u.MobileNo
	}
	if u.Avatar != "" {
		out.Avatar = u.Avatar
	}
	if out.Role == "" {
		out.Role = u.Role
	}
	out.IsVerified = out.IsVerified || u.IsVerified
	return out
}

// UserRef is a user embedded in another resource: either an id or a summary object.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

func (r *UserRef) UnmarshalJSON(b []byte) error {
	type plain UserRef
	return decodeRef(b, &r.ID, (*plain)(r))
}

type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoginResult is the data envelope of users/login/.
type LoginResult struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Tokens   Tokens `json:"tokens"`
}

type Credentials struct {
	AccessToken  string `json:"access_token" yaml:"access_token"`
	RefreshToken string `json:"refresh_token" yaml:"refresh_token"`
}

func (c Credentials) Empty() bool { return c.AccessToken == "" && c.RefreshToken == "" }
