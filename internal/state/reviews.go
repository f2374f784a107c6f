package state

import (
	"context"

	"github.com/yungbote/coursemarket/internal/domain"
	"github.com/yungbote/coursemarket/internal/platform/logger"
	"github.com/yungbote/coursemarket/internal/validation"
)

const sliceReviews = "reviews"

type ReviewOps struct {
	List     Op
	Mutation Op
	Response Op
	Vote     Op
}

type ReviewState struct {
	CourseID int64
	Reviews  []domain.Review
	Current  *domain.Review
	Response *domain.ReviewResponse
	// Success is raised by create, update and respond; ResetFlow lowers it.
	Success bool
	Ops     ReviewOps
}

type ReviewSlice struct {
	core
	api ReviewAPI

	st ReviewState
}

func newReviewSlice(a ReviewAPI, log *logger.Logger, n notifier) *ReviewSlice {
	s := &ReviewSlice{core: newCore(sliceReviews, log, n), api: a}
	s.st.Ops = ReviewOps{List: idle(), Mutation: idle(), Response: idle(), Vote: idle()}
	return s
}

func (s *ReviewSlice) Snapshot() ReviewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.st
	out.Reviews = make([]domain.Review, len(s.st.Reviews))
	for i, r := range s.st.Reviews {
		out.Reviews[i] = r.Clone()
	}
	if s.st.Current != nil {
		r := s.st.Current.Clone()
		out.Current = &r
	}
	if s.st.Response != nil {
		v := *s.st.Response
		out.Response = &v
	}
	return out
}

func (s *ReviewSlice) FetchCourseReviews(ctx context.Context, courseID int64) error {
	gen := s.begin("fetchCourseReviews", &s.st.Ops.List, true)
	list, err := s.api.CourseReviews(ctx, courseID)
	return s.finish("fetchCourseReviews", gen, err, fixed(&s.st.Ops.List), func() {
		s.st.CourseID = courseID
		s.st.Reviews = list
	})
}

// CreateReview prepends the new review when it belongs to the loaded course.
func (s *ReviewSlice) CreateReview(ctx context.Context, courseID int64, in domain.ReviewInput) (domain.Review, error) {
	const key = "createReview"
	if err := validation.Struct(in); err != nil {
		return domain.Review{}, s.reject(key, &s.st.Ops.Mutation, err)
	}
	t := s.begin(key, &s.st.Ops.Mutation, false)
	r, err := s.api.CreateReview(ctx, courseID, in)
	err = s.finish(key, t, err, fixed(&s.st.Ops.Mutation), func() {
		if s.st.CourseID == courseID {
			s.st.Reviews = append([]domain.Review{r}, s.st.Reviews...)
		}
		s.st.Success = true
	})
	return r, err
}

func (s *ReviewSlice) UpdateReview(ctx context.Context, reviewID int64, in domain.ReviewInput) (domain.Review, error) {
	const key = "updateReview"
	if err := validation.Struct(in); err != nil {
		return domain.Review{}, s.reject(key, &s.st.Ops.Mutation, err)
	}
	t := s.begin(key, &s.st.Ops.Mutation, false)
	r, err := s.api.UpdateReview(ctx, reviewID, in)
	err = s.finish(key, t, err, fixed(&s.st.Ops.Mutation), func() {
		s.st.Reviews = replaceByID(s.st.Reviews, reviewID, reviewKey, r)
		if s.st.Current != nil && s.st.Current.ID == reviewID {
			cur := r.Clone()
			s.st.Current = &cur
		}
		s.st.Success = true
	})
	return r, err
}

func (s *ReviewSlice) DeleteReview(ctx context.Context, reviewID int64) error {
	const key = "deleteReview"
	t := s.begin(key, &s.st.Ops.Mutation, false)
	err := s.api.DeleteReview(ctx, reviewID)
	return s.finish(key, t, err, fixed(&s.st.Ops.Mutation), func() {
		s.st.Reviews = removeByID(s.st.Reviews, reviewID, reviewKey)
		if s.st.Current != nil && s.st.Current.ID == reviewID {
			s.st.Current = nil
		}
	})
}

// CreateResponse stores the instructor response and attaches it to its review.
func (s *ReviewSlice) CreateResponse(ctx context.Context, reviewID int64, in domain.ReviewResponseInput) (domain.ReviewResponse, error) {
	const key = "createResponse"
	if err := validation.Struct(in); err != nil {
		return domain.ReviewResponse{}, s.reject(key, &s.st.Ops.Response, err)
	}
	t := s.begin(key, &s.st.Ops.Response, false)
	resp, err := s.api.CreateReviewResponse(ctx, reviewID, in)
	err = s.finish(key, t, err, fixed(&s.st.Ops.Response), func() {
		s.attachLocked(reviewID, resp)
		s.st.Success = true
	})
	return resp, err
}

func (s *ReviewSlice) FetchResponse(ctx context.Context, reviewID int64) error {
	gen := s.begin("fetchResponse", &s.st.Ops.Response, true)
	resp, err := s.api.ReviewResponse(ctx, reviewID)
	return s.finish("fetchResponse", gen, err, fixed(&s.st.Ops.Response), func() {
		s.attachLocked(reviewID, resp)
	})
}

func (s *ReviewSlice) attachLocked(reviewID int64, resp domain.ReviewResponse) {
	if resp.Review == 0 {
		resp.Review = reviewID
	}
	s.st.Response = &resp
	for _, r := range s.st.Reviews {
		if r.ID == reviewID {
			next := r.Clone()
			v := resp
			next.Response = &v
			s.st.Reviews = replaceByID(s.st.Reviews, reviewID, reviewKey, next)
			break
		}
	}
	if s.st.Current != nil && s.st.Current.ID == reviewID {
		cur := s.st.Current.Clone()
		v := resp
		cur.Response = &v
		s.st.Current = &cur
	}
}

// Vote counts the vote locally once the server accepted it.
func (s *ReviewSlice) Vote(ctx context.Context, reviewID int64, helpful bool) error {
	const key = "vote"
	t := s.begin(key, &s.st.Ops.Vote, false)
	err := s.api.VoteReview(ctx, reviewID, helpful)
	return s.finish(key, t, err, fixed(&s.st.Ops.Vote), func() {
		bump := func(r domain.Review) domain.Review {
			out := r.Clone()
			if helpful {
				out.HelpfulCount++
			} else {
				out.NotHelpfulCount++
			}
			return out
		}
		for _, r := range s.st.Reviews {
			if r.ID == reviewID {
				s.st.Reviews = replaceByID(s.st.Reviews, reviewID, reviewKey, bump(r))
				break
			}
		}
		if s.st.Current != nil && s.st.Current.ID == reviewID {
			cur := bump(*s.st.Current)
			s.st.Current = &cur
		}
	})
}

func (s *ReviewSlice) SetCurrent(r domain.Review) {
	s.mu.Lock()
	cur := r.Clone()
	s.st.Current = &cur
	s.mu.Unlock()
	s.emit("setCurrent")
}

func (s *ReviewSlice) ClearCurrent() {
	s.mu.Lock()
	s.st.Current = nil
	s.mu.Unlock()
	s.emit("clearCurrent")
}

// ResetFlow lowers Success and clears operation errors.
func (s *ReviewSlice) ResetFlow() {
	s.mu.Lock()
	s.st.Success = false
	s.st.Response = nil
	s.st.Ops.Mutation = idle()
	s.st.Ops.Response = idle()
	s.st.Ops.Vote = idle()
	s.mu.Unlock()
	s.emit("resetFlow")
}

func reviewKey(r domain.Review) int64 { return r.ID }
