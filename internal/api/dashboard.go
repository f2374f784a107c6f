package api

import (
	"context"
	"net/http"

	"github.com/yungbote/coursemarket/internal/api/client"
	"github.com/yungbote/coursemarket/internal/domain"
)

func (a *API) TeacherDashboard(ctx context.Context) (domain.TeacherDashboard, error) {
	var out domain.TeacherDashboard
	err := a.c.Data(ctx, client.Request{Method: http.MethodGet, Path: "teacher-dashboard/"}, &out)
	return out, err
}
