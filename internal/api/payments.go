package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yungbote/coursemarket/internal/api/client"
	"github.com/yungbote/coursemarket/internal/domain"
)

func (a *API) PaymentDetails(ctx context.Context, courseID int64) (domain.PaymentDetails, error) {
	var out domain.PaymentDetails
	err := a.c.Data(ctx, client.Request{Method: http.MethodGet, Path: path("payment", id(courseID))}, &out)
	return out, err
}

func (a *API) ProcessPayment(ctx context.Context, in domain.ProcessPaymentInput) (domain.PaymentResult, error) {
	var out domain.PaymentResult
	err := a.c.Data(ctx, client.Request{Method: http.MethodPost, Path: "payment/process/", Body: in}, &out)
	return out, err
}

func (a *API) PaymentHistory(ctx context.Context, page int) (domain.PaymentHistory, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{"page": {strconv.Itoa(page)}}
	return client.List[domain.Enrollment](ctx, a.c, client.Request{Method: http.MethodGet, Path: "payments/history/", Query: q})
}
