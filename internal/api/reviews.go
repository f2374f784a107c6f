package api

import (
	"context"
	"net/http"

	"github.com/yungbote/coursemarket/internal/api/client"
	"github.com/yungbote/coursemarket/internal/domain"
)

func (a *API) CourseReviews(ctx context.Context, courseID int64) ([]domain.Review, error) {
	page, err := client.List[domain.Review](ctx, a.c, client.Request{Method: http.MethodGet, Path: path("courses", id(courseID), "reviews")})
	return page.Results, err
}

func (a *API) CreateReview(ctx context.Context, courseID int64, in domain.ReviewInput) (domain.Review, error) {
	var out domain.Review
	err := a.c.Data(ctx, client.Request{Method: http.MethodPost, Path: path("courses", id(courseID), "reviews", "create"), Body: in}, &out)
	return out, err
}

func (a *API) UpdateReview(ctx context.Context, reviewID int64, in domain.ReviewInput) (domain.Review, error) {
	var out domain.Review
	err := a.c.Data(ctx, client.Request{Method: http.MethodPatch, Path: path("reviews", id(reviewID), "update"), Body: in}, &out)
	return out, err
}

func (a *API) DeleteReview(ctx context.Context, reviewID int64) error {
	return a.c.Delete(ctx, path("reviews", id(reviewID), "delete"), nil)
}

func (a *API) CreateReviewResponse(ctx context.Context, reviewID int64, in domain.ReviewResponseInput) (domain.ReviewResponse, error) {
	var out domain.ReviewResponse
	err := a.c.Data(ctx, client.Request{Method: http.MethodPost, Path: path("reviews", id(reviewID), "response"), Body: in}, &out)
	return out, err
}

func (a *API) ReviewResponse(ctx context.Context, reviewID int64) (domain.ReviewResponse, error) {
	var out domain.ReviewResponse
	err := a.c.Data(ctx, client.Request{Method: http.MethodGet, Path: path("reviews", id(reviewID), "response", "view")}, &out)
	return out, err
}

func (a *API) VoteReview(ctx context.Context, reviewID int64, helpful bool) error {
	return a.c.Post(ctx, path("reviews", id(reviewID), "vote"), domain.VoteInput{IsHelpful: helpful}, nil)
}
