package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/yungbote/coursemarket/internal/platform/apierr"
	"github.com/yungbote/coursemarket/internal/platform/ctxutil"
)

type fakeSession struct {
	access  string
	expired atomic.Int32
}

func (f *fakeSession) Token() (*oauth2.Token, error) {
	if f.access == "" {
		return nil, io.EOF
	}
	return &oauth2.Token{AccessToken: f.access, TokenType: "Bearer"}, nil
}

func (f *fakeSession) Expire(ctx context.Context) {
	f.access = ""
	f.expired.Add(1)
}

func newTestClient(t *testing.T, h http.Handler, sess Session, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/api/", Session: sess, Timeout: timeout})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestDoAttachesHeadersAndDecodes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var seen http.Header
	var body map[string]any
	r.POST("/api/reviews/5/vote/", func(c *gin.Context) {
		seen = c.Request.Header.Clone()
		_ = c.ShouldBindJSON(&body)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	sess := &fakeSession{access: "tok-123"}
	c := newTestClient(t, r, sess, 0)

	ctx := ctxutil.WithTraceData(context.Background(), &ctxutil.TraceData{RequestID: "req-1"})
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.Post(ctx, "reviews/5/vote/", map[string]bool{"is_helpful": true}, &out); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if !out.OK {
		t.Fatalf("response not decoded")
	}
	if got := seen.Get("Authorization"); got != "Bearer tok-123" {
		t.Fatalf("authorization=%q", got)
	}
	if got := seen.Get("Content-Type"); got != "application/json" {
		t.Fatalf("content-type=%q", got)
	}
	if got := seen.Get("Accept"); got != "application/json" {
		t.Fatalf("accept=%q", got)
	}
	if got := seen.Get("X-Request-ID"); got != "req-1" {
		t.Fatalf("request id=%q", got)
	}
	if body["is_helpful"] != true {
		t.Fatalf("body=%v", body)
	}
}

func TestDoWithoutTokenSendsNoAuthorization(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var auth string
	r.GET("/api/categories/", func(c *gin.Context) {
		auth = c.GetHeader("Authorization")
		c.JSON(http.StatusOK, []gin.H{})
	})
	c := newTestClient(t, r, &fakeSession{}, 0)
	if err := c.Get(context.Background(), "categories/", nil, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if auth != "" {
		t.Fatalf("unexpected authorization %q", auth)
	}
}

func TestDoMultipartSetsBoundaryContentType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var title, fileName, fileBody string
	var ct string
	r.PATCH("/api/users/profile/", func(c *gin.Context) {
		ct = c.GetHeader("Content-Type")
		title = c.PostForm("full_name")
		fh, err := c.FormFile("avatar")
		if err == nil {
			fileName = fh.Filename
			f, _ := fh.Open()
			b, _ := io.ReadAll(f)
			_ = f.Close()
			fileBody = string(b)
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"full_name": title}})
	})
	c := newTestClient(t, r, &fakeSession{access: "t"}, 0)

	mp := NewMultipart().Field("full_name", "Ada Lovelace").File("avatar", "me.png", "image/png", []byte("png-bytes"))
	var out struct {
		FullName string `json:"full_name"`
	}
	if err := c.Data(context.Background(), Request{Method: http.MethodPatch, Path: "users/profile/", Body: mp}, &out); err != nil {
		t.Fatalf("Data: %v", err)
	}
	if !strings.HasPrefix(ct, "multipart/form-data; boundary=") {
		t.Fatalf("content-type=%q", ct)
	}
	if title != "Ada Lovelace" || fileName != "me.png" || fileBody != "png-bytes" {
		t.Fatalf("form not received: title=%q file=%q body=%q", title, fileName, fileBody)
	}
	if out.FullName != "Ada Lovelace" {
		t.Fatalf("data envelope not unwrapped: %+v", out)
	}
}

func TestDoUnauthorizedExpiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/reviews/9/vote/", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Given token not valid for any token type"})
	})
	sess := &fakeSession{access: "stale"}
	c := newTestClient(t, r, sess, 0)

	err := c.Post(context.Background(), "reviews/9/vote/", map[string]bool{"is_helpful": true}, nil)
	if !apierr.IsUnauthorized(err) {
		t.Fatalf("want unauthorized, got %v", err)
	}
	e, _ := apierr.As(err)
	if e.Message != "Given token not valid for any token type" {
		t.Fatalf("message=%q", e.Message)
	}
	if sess.expired.Load() != 1 || sess.access != "" {
		t.Fatalf("session not expired: count=%d access=%q", sess.expired.Load(), sess.access)
	}
}

func TestDoTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	release := make(chan struct{})
	r.GET("/api/courses/", func(c *gin.Context) {
		select {
		case <-release:
		case <-c.Request.Context().Done():
		}
		c.JSON(http.StatusOK, []gin.H{})
	})
	c := newTestClient(t, r, nil, 50*time.Millisecond)
	defer close(release)

	err := c.Get(context.Background(), "courses/", nil, nil)
	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.KindTimeout {
		t.Fatalf("want timeout, got %v", err)
	}
	if e.Message != "Request timeout" {
		t.Fatalf("message=%q", e.Message)
	}
}

func TestDoCallerCancelIsNotTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/courses/", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	c := newTestClient(t, r, nil, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := c.Get(ctx, "courses/", nil, nil)
	if !apierr.IsKind(err, apierr.KindUnexpected) {
		t.Fatalf("want unexpected, got %v", err)
	}
}

func TestDoNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = c.Get(context.Background(), "courses/", nil, nil)
	e, ok := apierr.As(err)
	if !ok || e.Kind != apierr.KindNetwork {
		t.Fatalf("want network, got %v", err)
	}
	if e.Message != "No response received from server" {
		t.Fatalf("message=%q", e.Message)
	}
}

func TestHTTPErrorMessagePrecedence(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"Course not found","detail":"x"}`, "Course not found"},
		{"detail", `{"detail":"Not found."}`, "Not found."},
		{"error string", `{"error":"Payment failed"}`, "Payment failed"},
		{"error object", `{"error":{"message":"card declined"}}`, "card declined"},
		{"field errors only", `{"title":["This field is required."]}`, apierr.MsgUnexpected},
		{"html", `<h1>oops</h1>`, apierr.MsgUnexpected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := parseHTTPError(http.StatusBadRequest, []byte(tc.body), http.Header{})
			e, ok := apierr.As(err)
			if !ok || e.Kind != apierr.KindHTTP || e.Status != http.StatusBadRequest {
				t.Fatalf("unexpected error %v", err)
			}
			if e.Message != tc.want {
				t.Fatalf("message=%q want=%q", e.Message, tc.want)
			}
		})
	}
}

func TestDecodeListShapes(t *testing.T) {
	type item struct {
		ID int64 `json:"id"`
	}
	cases := []struct {
		name  string
		raw   string
		count int
		ids   []int64
		next  bool
	}{
		{"bare array", `[{"id":1},{"id":2}]`, 2, []int64{1, 2}, false},
		{"paginated", `{"results":[{"id":3}],"count":40,"next":"http://x/?page=2","previous":null}`, 40, []int64{3}, true},
		{"data array", `{"data":[{"id":4}]}`, 1, []int64{4}, false},
		{"empty", ``, 0, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := DecodeList[item](json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("DecodeList: %v", err)
			}
			if page.Count != tc.count || len(page.Results) != len(tc.ids) {
				t.Fatalf("page=%+v", page)
			}
			for i, id := range tc.ids {
				if page.Results[i].ID != id {
					t.Fatalf("results[%d]=%d want %d", i, page.Results[i].ID, id)
				}
			}
			if (page.Next != nil) != tc.next {
				t.Fatalf("next=%v", page.Next)
			}
		})
	}
}

func TestDecodeDataWithoutEnvelope(t *testing.T) {
	var out struct {
		IsEnrolled bool `json:"is_enrolled"`
	}
	if err := DecodeData(json.RawMessage(`{"is_enrolled":true}`), &out); err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if !out.IsEnrolled {
		t.Fatalf("not decoded")
	}
}
