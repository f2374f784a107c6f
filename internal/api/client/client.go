package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/yungbote/coursemarket/internal/platform/apierr"
	"github.com/yungbote/coursemarket/internal/platform/ctxutil"
	"github.com/yungbote/coursemarket/internal/platform/logger"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// Session is what the client needs from the signed-in session: a bearer token
// source and a way to tear the session down when the API answers 401.
type Session interface {
	oauth2.TokenSource
	Expire(ctx context.Context)
}

type Options struct {
	BaseURL string
	// Timeout bounds every request. Defaults to 10s.
	Timeout    time.Duration
	HTTPClient *http.Client
	Session    Session
	Logger     *logger.Logger
	Tracer     trace.Tracer
	UserAgent  string
	// Development captures stacks on unexpected errors.
	Development bool
}

type Client struct {
	baseURL   string
	timeout   time.Duration
	http      *http.Client
	session   Session
	log       *logger.Logger
	tracer    trace.Tracer
	userAgent string
	dev       bool
}

type Request struct {
	Method string
	// Path is relative to the base URL, e.g. "courses/12/". Absolute URLs are used as is.
	Path  string
	Query url.Values
	// Body is either a *Multipart or any JSON-encodable value.
	Body any
	// Header carries extra headers for this request only.
	Header http.Header
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("baseURL must be absolute: %q", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/yungbote/coursemarket/internal/api/client")
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = "coursemarket-client"
	}

	return &Client{
		baseURL:   baseURL,
		timeout:   timeout,
		http:      hc,
		session:   opts.Session,
		log:       log.With("component", "APIClient"),
		tracer:    tracer,
		userAgent: ua,
		dev:       opts.Development,
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

// Do sends one request and decodes a 2xx JSON body into out (when non-nil).
// Every failure comes back as an *apierr.Error. There is no retry.
func (c *Client) Do(ctx context.Context, r Request, out any) (err error) {
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = http.MethodGet
	}
	reqID := ctxutil.RequestID(ctx)

	ctx, span := c.tracer.Start(ctx, "api "+method+" "+r.Path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", r.Path),
		attribute.String("request.id", reqID),
	)

	start := time.Now()
	status := 0
	defer func() {
		latency := time.Since(start).Milliseconds()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.log.Warn("api request failed",
				"method", method, "path", r.Path, "status", status,
				"latency_ms", latency, "request_id", reqID, "error", err)
			return
		}
		c.log.Debug("api request",
			"method", method, "path", r.Path, "status", status,
			"latency_ms", latency, "request_id", reqID)
	}()

	body, contentType, buildErr := encodeBody(r.Body)
	if buildErr != nil {
		return apierr.Unexpected(buildErr, c.dev)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, buildErr := http.NewRequestWithContext(reqCtx, method, c.resolve(r.Path, r.Query), body)
	if buildErr != nil {
		return apierr.Unexpected(buildErr, c.dev)
	}
	c.setHeaders(req, contentType, reqID)
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, doErr := c.http.Do(req)
	if doErr != nil {
		return c.classify(ctx, reqCtx, doErr)
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if readErr != nil {
		return c.classify(ctx, reqCtx, readErr)
	}

	if resp.StatusCode == http.StatusUnauthorized && c.session != nil {
		c.session.Expire(context.WithoutCancel(ctx))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseHTTPError(resp.StatusCode, raw, resp.Header)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if rm, ok := out.(*json.RawMessage); ok {
		*rm = append((*rm)[:0], raw...)
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierr.Unexpected(fmt.Errorf("decode %s %s: %w", method, r.Path, err), c.dev)
	}
	return nil
}

func (c *Client) resolve(path string, q url.Values) string {
	var u string
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		u = path
	} else {
		u = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	if len(q) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + q.Encode()
	}
	return u
}

func (c *Client) setHeaders(req *http.Request, contentType string, reqID string) {
	if strings.TrimSpace(contentType) != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)
	if c.session == nil {
		return
	}
	tok, err := c.session.Token()
	if err != nil || tok == nil {
		return
	}
	tok.SetAuthHeader(req)
}

// classify maps a transport failure to Timeout, Network or Unexpected.
// Caller cancellation is not a timeout.
func (c *Client) classify(callerCtx, reqCtx context.Context, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return apierr.Timeout(err)
	}
	if callerCtx.Err() != nil {
		return apierr.Unexpected(fmt.Errorf("request aborted: %w", err), c.dev)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return apierr.Timeout(err)
	}
	return apierr.Network(err)
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		if b == nil {
			return nil, "", nil
		}
		return b.encode()
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, "", err
		}
		return &buf, "application/json", nil
	}
}
