package domain

type ReviewResponse struct {
	ID        int64  `json:"id"`
	Review    int64  `json:"review"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Review struct {
	ID              int64           `json:"id"`
	Course          CourseRef       `json:"course"`
	User            UserRef         `json:"user"`
	Title           string          `json:"title,omitempty"`
	Rating          int             `json:"rating"`
	Comment         string          `json:"comment"`
	HelpfulCount    int             `json:"helpful_count"`
	NotHelpfulCount int             `json:"not_helpful_count"`
	Response        *ReviewResponse `json:"response"`
	CreatedAt       string          `json:"created_at,omitempty"`
}

func (r Review) Clone() Review {
	out := r
	if r.Response != nil {
		v := *r.Response
		out.Response = &v
	}
	return out
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title,omitempty" validate:"max=200"`
	Comment string `json:"comment" validate:"required"`
}

type ReviewResponseInput struct {
	Comment string `json:"comment" validate:"required"`
}

type VoteInput struct {
	IsHelpful bool `json:"is_helpful"`
}
