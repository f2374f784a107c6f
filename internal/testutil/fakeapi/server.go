// Package fakeapi is an in-memory rendition of the marketplace REST API served
// over httptest. Tests seed it, inject failures per route and gate requests to
// control completion order.
package fakeapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/coursemarket/internal/domain"
)

const (
	TeacherEmail = "teacher@example.com"
	StudentEmail = "student@example.com"
	Password     = "secret123"
	ValidOTP     = "123456"

	signingKey = "fakeapi-signing-key"
)

type User struct {
	domain.User
	Password string
}

// DB is the fake backend's state. Mutate it only through Server.Mutate.
type DB struct {
	Users       []User
	Categories  []domain.Category
	Courses     []domain.Course
	Sections    []domain.Section
	Lessons     []domain.Lesson
	Enrollments []domain.Enrollment
	Reviews     []domain.Review
	Materials   []domain.Material
	// Completed maps enrollment id to the set of completed lesson ids.
	Completed map[int64]map[int64]bool

	nextID int64
}

func (db *DB) NextID() int64 {
	db.nextID++
	return db.nextID
}

type failure struct {
	status int
	body   any
}

type gate struct {
	arrived chan struct{}
	release chan struct{}
}

type Server struct {
	*httptest.Server
	Engine *gin.Engine

	mu       sync.Mutex
	db       *DB
	tokens   map[string]int64
	failures map[string]failure
	gates    map[string][]*gate
	hits     map[string]int
	nextTok  int
}

// New starts a seeded server and closes it when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := &Server{
		db:       seed(),
		tokens:   map[string]int64{},
		failures: map[string]failure{},
		gates:    map[string][]*gate{},
		hits:     map[string]int{},
	}
	s.Engine = gin.New()
	s.Engine.Use(s.intercept)
	s.routes()
	s.Server = httptest.NewServer(s.Engine)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root the client should be configured with.
func (s *Server) BaseURL() string { return s.URL + "/api" }

func key(method, route string) string { return strings.ToUpper(method) + " " + route }

// Fail makes every request to route (gin pattern, e.g. "/api/courses/:id/") answer status with body.
func (s *Server) Fail(method, route string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key(method, route)] = failure{status: status, body: body}
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]failure{}
}

// Gate holds the next request to route until release is called. arrived is
// closed once that request has reached the server.
func (s *Server) Gate(method, route string) (arrived <-chan struct{}, release func()) {
	g := &gate{arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	k := key(method, route)
	s.gates[k] = append(s.gates[k], g)
	s.mu.Unlock()
	var once sync.Once
	return g.arrived, func() { once.Do(func() { close(g.release) }) }
}

func (s *Server) Hits(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key(method, route)]
}

func (s *Server) Mutate(fn func(db *DB)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.db)
}

// RevokeAll invalidates every issued token so the next authenticated call gets 401.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]int64{}
}

// IssueToken signs in email directly and returns an access token.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.db.Users {
		if u.Email == email {
			return s.issueLocked(u.ID)
		}
	}
	return ""
}

func (s *Server) issueLocked(userID int64) string {
	s.nextTok++
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     strconv.FormatInt(userID, 10),
		"user_id": userID,
		"jti":     strconv.Itoa(s.nextTok),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(signingKey))
	if err != nil {
		panic(fmt.Sprintf("fakeapi: sign token: %v", err))
	}
	s.tokens[signed] = userID
	return signed
}

func (s *Server) intercept(c *gin.Context) {
	k := key(c.Request.Method, c.FullPath())

	s.mu.Lock()
	s.hits[k]++
	var g *gate
	if q := s.gates[k]; len(q) > 0 {
		g = q[0]
		s.gates[k] = q[1:]
	}
	f, failing := s.failures[k]
	s.mu.Unlock()

	if g != nil {
		close(g.arrived)
		select {
		case <-g.release:
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	if failing {
		c.AbortWithStatusJSON(f.status, f.body)
		return
	}
	c.Next()
}

// authed resolves the bearer token; it answers 401 itself when missing or revoked.
func (s *Server) authed(c *gin.Context) (User, bool) {
	h := c.GetHeader("Authorization")
	tok := strings.TrimPrefix(h, "Bearer ")
	s.mu.Lock()
	uid, ok := s.tokens[tok]
	var user User
	if ok {
		for _, u := range s.db.Users {
			if u.ID == uid {
				user = u
			}
		}
	}
	s.mu.Unlock()
	if !ok || tok == "" || tok == h {
		c.JSON(http.StatusUnauthorized, gin.H{
			"detail": "Given token not valid for any token type",
			"code":   "token_not_valid",
		})
		return User{}, false
	}
	return user, true
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}

func paramID(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		notFound(c)
		return 0, false
	}
	return v, true
}

func seed() *DB {
	db := &DB{Completed: map[int64]map[int64]bool{}, nextID: 100}
	db.Users = []User{
		{User: domain.User{ID: 1, Username: "teacher", Email: TeacherEmail, FullName: "Grace Hopper", Role: domain.RoleTeacher, IsVerified: true}, Password: Password},
		{User: domain.User{ID: 2, Username: "student", Email: StudentEmail, FullName: "Alan Turing", Role: domain.RoleStudent, IsVerified: true}, Password: Password},
	}
	db.Categories = []domain.Category{{ID: 1, Name: "Programming"}, {ID: 2, Name: "Design"}}
	teacher := domain.UserRef{ID: 1, Username: "teacher", FullName: "Grace Hopper"}
	db.Courses = []domain.Course{
		{ID: 9, Title: "Go Fundamentals", Description: "Learn Go", Price: 49.99, Duration: "10 hours", Level: domain.LevelBeginner,
			Category: domain.CategoryRef{ID: 1, Name: "Programming"}, Instructor: teacher, IsActive: true, IsFeatured: true, LessonsCount: 3},
		{ID: 10, Title: "Concurrency in Practice", Description: "Channels and more", Price: 79, Duration: "12 hours", Level: domain.LevelAdvanced,
			Category: domain.CategoryRef{ID: 1, Name: "Programming"}, Instructor: teacher, IsActive: true},
		{ID: 11, Title: "Visual Design Basics", Description: "Color and type", Price: 29, Duration: "6 hours", Level: domain.LevelIntermediate,
			Category: domain.CategoryRef{ID: 2, Name: "Design"}, Instructor: teacher},
	}
	db.Sections = []domain.Section{
		{ID: 1, Title: "Getting started", Course: 9},
		{ID: 2, Title: "Types", Course: 9},
	}
	db.Lessons = []domain.Lesson{
		{ID: 10, Title: "Install", Section: 1, Course: 9, IsPreview: true, Duration: "5"},
		{ID: 11, Title: "Structs", Section: 2, Course: 9, Duration: "12"},
		{ID: 12, Title: "Hello world", Section: 1, Course: 9, Duration: "7"},
	}
	db.Materials = []domain.Material{{ID: 1, Course: 9, Title: "Cheat sheet", File: "https://files.example.com/go.pdf", Kind: "pdf"}}
	return db
}
