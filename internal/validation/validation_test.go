package validation

import (
	"testing"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/apierr"
)

func TestStructReportsWireNames(t *testing.T) {
	err := Struct(domain.RegisterInput{
		Username: "ab",
		Email:    "not-an-email",
		Role:     domain.RoleStudent,
		Password: "longenough",
		Confirm:  "different1",
	})
	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, k := range []string{"username", "email", "password2"} {
		if e.Fields[k] == "" {
			t.Fatalf("missing field %q in %v", k, e.Fields)
		}
	}
	if e.Fields["password2"] != "Must match password." {
		t.Fatalf("password2=%q", e.Fields["password2"])
	}
}

func TestStructUsesSnakeCaseWithoutJSONTags(t *testing.T) {
	price := 80.0
	err := Struct(domain.CourseInput{
		Title:         "Go",
		Description:   "d",
		Price:         50,
		DiscountPrice: &price,
		Duration:      "1h",
		Level:         "Expert",
		CategoryID:    1,
	})
	e, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected apierr, got %v", err)
	}
	if e.Fields["level"] != "Must be one of: Beginner, Intermediate, Advanced." {
		t.Fatalf("level=%q", e.Fields["level"])
	}
	if e.Fields["discount_price"] != "Must not exceed price." {
		t.Fatalf("discount_price=%q", e.Fields["discount_price"])
	}
}

func TestStructPassesValidInput(t *testing.T) {
	if err := Struct(domain.ReviewInput{Rating: 5, Comment: "great"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := Struct(domain.ReviewInput{Rating: 6, Comment: "x"})
	if !apierr.IsKind(err, apierr.KindValidation) {
		t.Fatalf("rating 6 should fail: %v", err)
	}
}

func TestSnake(t *testing.T) {
	cases := map[string]string{
		"CategoryID":    "category_id",
		"DiscountPrice": "discount_price",
		"Title":         "title",
		"AvatarFile":    "avatar_file",
	}
	for in, want := range cases {
		if got := snake(in); got != want {
			t.Fatalf("snake(%q)=%q want %q", in, got, want)
		}
	}
}
