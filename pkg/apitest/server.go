// Package apitest runs an in-process fake of the authors/books backend for
// tests. It records every request, issues real JWTs and keeps entities in
// memory.
package apitest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/shelfhq/shelf/model"
	"github.com/shelfhq/shelf/pkg/idempotency"
)

const (
	identityKey = "login"
	secret      = "apitest-secret"
)

type Recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type failure struct {
	status int
	body   string
}

type Server struct {
	*httptest.Server

	mu             sync.Mutex
	plainTextLogin bool
	omitPaging     bool
	requests       []Recorded
	failures       map[string]failure
	users          map[string][]byte
	userKeys       map[string]gin.H
	authors        *collection
	books          *collection
	auth           *jwt.GinJWTMiddleware
}

// New starts a server and closes it when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()

	s := &Server{
		failures: make(map[string]failure),
		users:    make(map[string][]byte),
		userKeys: make(map[string]gin.H),
		authors:  newCollection("Author"),
		books:    newCollection("Book"),
	}
	s.authors.omitPaging = s.omitsPaging
	s.books.omitPaging = s.omitsPaging

	auth, err := jwt.New(s.jwtParams())
	if err != nil {
		tb.Fatalf("apitest: jwt: %v", err)
	}
	s.auth = auth

	s.Server = httptest.NewServer(s.routes())
	tb.Cleanup(s.Close)
	return s
}

func (s *Server) jwtParams() *jwt.GinJWTMiddleware {
	return &jwt.GinJWTMiddleware{
		Realm:       "shelf",
		Key:         []byte(secret),
		Timeout:     time.Hour,
		MaxRefresh:  time.Hour,
		IdentityKey: identityKey,
		PayloadFunc: func(data any) jwt.MapClaims {
			if login, ok := data.(string); ok {
				return jwt.MapClaims{identityKey: login}
			}
			return jwt.MapClaims{}
		},
		Authenticator: s.authenticator,
		Unauthorized: func(c *gin.Context, code int, message string) {
			c.JSON(code, gin.H{"message": message})
		},
		LoginResponse: func(c *gin.Context, code int, token string, expire time.Time) {
			s.mu.Lock()
			plain := s.plainTextLogin
			s.mu.Unlock()
			if plain {
				c.String(code, token)
				return
			}
			c.JSON(code, token)
		},
		TokenLookup:   "header: Authorization",
		TokenHeadName: "Bearer",
		TimeFunc:      time.Now,
	}
}

func (s *Server) authenticator(c *gin.Context) (any, error) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Login == "" {
		return nil, jwt.ErrMissingLoginValues
	}

	s.mu.Lock()
	hash, ok := s.users[req.Login]
	s.mu.Unlock()
	if !ok {
		return nil, jwt.ErrFailedAuthentication
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(req.Password)); err != nil {
		return nil, jwt.ErrFailedAuthentication
	}
	return req.Login, nil
}

func (s *Server) routes() http.Handler {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.record)
	r.Use(s.injectFailure)

	api := r.Group("api/v2")
	api.POST("/Auth/login", s.auth.LoginHandler)
	api.POST("/Users/CreateUser", s.createUser)

	auth := api.Group("", s.auth.MiddlewareFunc())
	s.authors.mount(auth.Group("/Authors"))
	s.books.mount(auth.Group("/Books"))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})
	return r
}

func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	s.mu.Lock()
	s.requests = append(s.requests, Recorded{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.Query(),
		Header: c.Request.Header.Clone(),
		Body:   body,
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) injectFailure(c *gin.Context) {
	s.mu.Lock()
	f, ok := s.failures[c.Request.Method+" "+c.Request.URL.Path]
	s.mu.Unlock()
	if !ok {
		c.Next()
		return
	}
	c.Data(f.status, "application/json", []byte(f.body))
	c.Abort()
}

func (s *Server) omitsPaging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.omitPaging
}

// SetOmitPaging drops page and pageSize from list responses.
func (s *Server) SetOmitPaging(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitPaging = v
}

// SetPlainTextLogin makes the login endpoint answer with a bare token instead
// of a JSON string.
func (s *Server) SetPlainTextLogin(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plainTextLogin = v
}

// Fail makes every request to method and path answer with status and body.
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// AddUser registers a user directly, bypassing the HTTP endpoint.
func (s *Server) AddUser(login, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[login] = hash
}

// Token issues a valid token for login without a round trip.
func (s *Server) Token(login string) string {
	token, _, err := s.auth.TokenGenerator(login)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Last returns the most recent request. It panics when none was made.
func (s *Server) Last() Recorded {
	reqs := s.Requests()
	return reqs[len(reqs)-1]
}

// Count reports how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	clear(s.failures)
}

func (s *Server) createUser(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if strings.TrimSpace(req.Login) == "" || req.PasswordHash == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "login and password are required"})
		return
	}

	key := c.GetHeader(idempotency.Header)

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.userKeys[key]; ok && key != "" {
		c.JSON(http.StatusOK, prev)
		return
	}
	if _, ok := s.users[req.Login]; ok {
		c.JSON(http.StatusConflict, gin.H{"message": "login already taken"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PasswordHash), bcrypt.MinCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	s.users[req.Login] = hash

	user := gin.H{"id": len(s.users), "username": req.Username, "login": req.Login}
	if key != "" {
		s.userKeys[key] = user
	}
	c.JSON(http.StatusCreated, user)
}
